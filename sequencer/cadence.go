package sequencer

import (
	"go-raga/composer"
)

var (
	chordIntervals   = []int{1, 2, 1}
	fillIntervals    = []int{8, 12, 16}
	focusIntervals   = []int{8, 16}
	focusChoices     = []Focus{Full, MelodyOnly, BassOnly}
	focusWeights     = []float64{7, 1, 1}
	minRefreshBars   = 4
	refreshBarsRange = 5 // 4..8
	intensityStep    = 0.01
)

// Cadence carries the bar-level countdowns between bars.
type Cadence struct {
	BarCounter           int // bars since the last refresh
	BarsSinceChord       int
	NextChordInterval    int
	BarsUntilFill        int
	BarsUntilFocusChange int
	BarsUntilRefresh     int
	Intensity            float64 // only rises, reset on raga change
	Focus                Focus
}

// BarPlan says what a bar rollover asks the engine to do.
type BarPlan struct {
	Fill              bool
	FocusChanged      bool
	Chord             bool
	Refresh           bool
	RegeneratePattern bool // part of Refresh, unless a fill is one bar away
	RefreshDeferred   bool // refresh was due but a fill took the bar
}

// Any reports whether the plan asks for anything.
func (p BarPlan) Any() bool {
	return p.Fill || p.FocusChanged || p.Chord || p.Refresh
}

// NewCadence draws fresh countdowns, as after loading a raga.
func NewCadence(rng composer.Rand) Cadence {
	c := Cadence{Focus: Full}
	c.BarsUntilFill = composer.Choice(rng, fillIntervals)
	c.BarsUntilFocusChange = composer.Choice(rng, focusIntervals)
	c.drawChordInterval(rng)
	c.drawRefresh(rng)
	return c
}

// Rollover runs once per completed bar. Steps run in a fixed order:
// intensity, fill, focus, chord, refresh. Intensity, fill and focus only
// move in rhythm mode. A fill bar never refreshes; the refresh waits for
// the next bar.
func (c *Cadence) Rollover(rhythm bool, rng composer.Rand) BarPlan {
	var plan BarPlan
	c.BarCounter++
	c.BarsSinceChord++

	if rhythm {
		c.Intensity = min(1, c.Intensity+intensityStep)

		c.BarsUntilFill--
		if c.BarsUntilFill <= 0 {
			plan.Fill = true
			c.BarsUntilFill = composer.Choice(rng, fillIntervals)
		}

		c.BarsUntilFocusChange--
		if c.BarsUntilFocusChange <= 0 {
			plan.FocusChanged = true
			c.Focus = composer.Weighted(rng, focusChoices, focusWeights)
			c.BarsUntilFocusChange = composer.Choice(rng, focusIntervals)
		}
	}

	if c.BarsSinceChord >= c.NextChordInterval {
		plan.Chord = true
		c.drawChordInterval(rng)
	}

	if c.BarCounter >= c.BarsUntilRefresh {
		if plan.Fill {
			plan.RefreshDeferred = true
		} else {
			plan.Refresh = true
			plan.RegeneratePattern = rhythm && c.BarsUntilFill > 1
			c.BarCounter = 0
			c.drawRefresh(rng)
			c.drawChordInterval(rng)
		}
	}
	return plan
}

// drawChordInterval redraws the chord interval and restarts its count.
func (c *Cadence) drawChordInterval(rng composer.Rand) {
	c.NextChordInterval = composer.Choice(rng, chordIntervals)
	c.BarsSinceChord = 0
}

func (c *Cadence) drawRefresh(rng composer.Rand) {
	c.BarsUntilRefresh = minRefreshBars + rng.IntN(refreshBarsRange)
}
