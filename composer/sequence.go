package composer

import (
	"fmt"

	"go-raga/errs"
	"go-raga/raga"
)

// TimeSignature fixes the slot grid of a bar.
type TimeSignature struct {
	BeatsPerBar         int `json:"beatsPerBar"`
	SubdivisionsPerBeat int `json:"subdivisionsPerBeat"`
}

// TimeSignatures are the meters offered by the player.
var TimeSignatures = []TimeSignature{
	{BeatsPerBar: 1, SubdivisionsPerBeat: 4},
	{BeatsPerBar: 2, SubdivisionsPerBeat: 4},
	{BeatsPerBar: 3, SubdivisionsPerBeat: 4},
	{BeatsPerBar: 4, SubdivisionsPerBeat: 4},
}

// DefaultTimeSignature is 4/4 in sixteenths.
var DefaultTimeSignature = TimeSignatures[3]

func (ts TimeSignature) SlotsPerBar() int {
	return ts.BeatsPerBar * ts.SubdivisionsPerBeat
}

func (ts TimeSignature) String() string {
	return fmt.Sprintf("%d/%d", ts.BeatsPerBar, ts.SubdivisionsPerBeat)
}

// Validate rejects zero or negative fields.
func (ts TimeSignature) Validate() error {
	if ts.BeatsPerBar < 1 || ts.SubdivisionsPerBeat < 1 {
		return errs.Config(
			fmt.Sprintf("invalid time signature %s", ts),
			"Beats and subdivisions must be at least 1",
		)
	}
	return nil
}

// Rest marks a silent slot.
const Rest = -1

// Sequence is one bar of melody slots, read by currentBeat mod len.
type Sequence []int

// At returns the slot for beat, wrapping.
func (s Sequence) At(beat int) int {
	if len(s) == 0 {
		return Rest
	}
	return s[beat%len(s)]
}

// Notes returns the non-rest entries in order.
func (s Sequence) Notes() []int {
	var out []int
	for _, p := range s {
		if p != Rest {
			out = append(out, p)
		}
	}
	return out
}

// First returns the first non-rest entry.
func (s Sequence) First() (int, bool) {
	for _, p := range s {
		if p != Rest {
			return p, true
		}
	}
	return 0, false
}

// Generation probabilities.
const (
	fastRhythmChance  = 0.3
	tihaiChance       = 0.5
	silenceBase       = 0.2
	motifRestChance   = 0.3
	dramaticRestRatio = 0.6
)

// Result is one generated bar plus any special state it leaves behind.
type Result struct {
	Sequence Sequence
	// FastRhythm is set when an episode was still running when the bar
	// was full; the engine finishes it tick by tick.
	FastRhythm *FastRhythm
	// Tihai is set when a tihai was scheduled for the following ticks.
	Tihai *Tihai
}

// Generator builds melody bars from a raga.
type Generator struct {
	rng Rand
}

func NewGenerator(rng Rand) *Generator {
	return &Generator{rng: rng}
}

// Generate draws one bar for r in sig. The raga and signature must already
// be valid. Output has at least sig.SlotsPerBar() entries: motifs and
// dramatic rests can push it past that.
func (g *Generator) Generate(r *raga.Raga, sig TimeSignature) Result {
	slots := sig.SlotsPerBar()
	seq := make(Sequence, 0, slots*2)

	var fast *FastRhythm

	for i := 0; i < slots; i++ {
		x := g.rng.Float64()

		if !fast.Active() && x < fastRhythmChance {
			fast = &FastRhythm{Template: Choice(g.rng, FastRhythmTemplates)}
		}
		if fast.Active() {
			seq = append(seq, g.shift(fast.Note(r.Ascending)))
			fast.Counter++
			fast.SubCounter++
			continue
		}

		if x < g.silenceChance(i, len(seq), sig, fast.Active(), x) {
			seq = append(seq, Rest)
			continue
		}

		switch {
		case x > 0.7:
			seq = append(seq, g.shift(Choice(g.rng, r.Ascending)))
		case x > 0.4:
			seq = append(seq, g.shift(Choice(g.rng, r.Descending)))
		case len(r.Motifs) > 0:
			for _, p := range Choice(g.rng, r.Motifs) {
				seq = append(seq, FitRange(p))
			}
			if g.rng.Float64() < motifRestChance {
				seq = append(seq, Rest)
			}
		default:
			seq = append(seq, g.shift(Choice(g.rng, r.Ascending)))
		}

		// dramatic pauses before emphasis notes
		if x > 0.8 && g.rng.Float64() < dramaticRestRatio {
			seq = append(seq, Rest)
		}
		if x > 0.9 && g.rng.Float64() < dramaticRestRatio {
			seq = append(seq, Rest)
		}
	}

	res := Result{Sequence: seq}
	if fast.Active() {
		res.FastRhythm = fast
	}
	if !fast.Active() && g.rng.Float64() < tihaiChance {
		res.Tihai = &Tihai{Pattern: Choice(g.rng, TihaiPatterns)}
	}
	return res
}

func (g *Generator) silenceChance(i, filled int, sig TimeSignature, inFast bool, x float64) float64 {
	p := silenceBase
	if filled > 0 && i > 0 {
		p += 0.1
	}
	if m := i % sig.SubdivisionsPerBeat; m == 1 || m == 3 {
		p += 0.05
	}
	if inFast {
		p *= 0.3
	}
	if x > 0.8 {
		p += 0.1
	}
	return p
}

func (g *Generator) shift(p int) int {
	return OctaveShift(g.rng, FitRange(p))
}
