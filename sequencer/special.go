package sequencer

import (
	"fmt"

	"go-raga/composer"
	"go-raga/debug"
	"go-raga/errs"
)

const jhalaChance = 0.01

// jhalaBeats is how long a jhala lasts, in beats.
var jhalaBeats = []int{4, 16, 8}

// checkSpecials catches counters that ran past their bounds. Every special
// state is dropped and the tick carries on as Normal.
func (e *Engine) checkSpecials() error {
	st := &e.st
	var msg string
	switch {
	case st.Jhala != nil && st.Jhala.Counter > st.Jhala.Duration:
		msg = fmt.Sprintf("jhala counter %d past %d", st.Jhala.Counter, st.Jhala.Duration)
	case st.FastRhythm != nil && st.FastRhythm.Counter > st.FastRhythm.Bound():
		msg = fmt.Sprintf("fast rhythm counter %d past %d", st.FastRhythm.Counter, st.FastRhythm.Bound())
	case st.Tihai != nil && (st.Tihai.Counter < 0 || st.Tihai.Counter >= len(st.Tihai.Pattern) ||
		st.Tihai.Repetition > composer.TihaiRepetitions):
		msg = fmt.Sprintf("tihai at %d.%d of %d", st.Tihai.Repetition, st.Tihai.Counter, len(st.Tihai.Pattern))
	default:
		return nil
	}
	st.clearSpecials()
	return errs.Invariant(msg)
}

func (e *Engine) maybeStartJhala() {
	st := &e.st
	if st.Special() != Normal {
		return
	}
	if e.rng.Float64() >= jhalaChance {
		return
	}
	beats := composer.Choice(e.rng, jhalaBeats)
	st.Jhala = &JhalaRun{Duration: beats * st.Signature.SubdivisionsPerBeat}
	debug.Log("special", "jhala for %d slots", st.Jhala.Duration)
}

// playJhala alternates the bar's own note with a different raga note.
func (e *Engine) playJhala(vel float64) {
	st := &e.st
	j := st.Jhala
	base := st.Sequence.At(st.CurrentBeat)

	pitch := composer.Rest
	if j.Counter%2 == 0 && base != composer.Rest {
		pitch = base
	} else {
		var others []int
		for _, p := range st.Sequence.Notes() {
			if p != base {
				others = append(others, p)
			}
		}
		if len(others) > 0 {
			pitch = composer.Choice(e.rng, others)
		} else if vadi := composer.FitRange(st.Raga.Emphasis()); vadi != base {
			pitch = vadi
		} else {
			pitch = composer.FitRange(st.Raga.SecondaryEmphasis())
		}
	}

	dur := ms(st.BeatDuration() / float64(st.Signature.SubdivisionsPerBeat*2))
	e.emit(pitch, dur/4, vel)

	j.Counter++
	if j.Counter >= j.Duration {
		st.Jhala = nil
		debug.Log("special", "jhala done")
	}
}

func (e *Engine) playFastRhythm(vel float64) {
	st := &e.st
	f := st.FastRhythm
	pitch := composer.FitRange(f.Note(st.Raga.Ascending))
	e.emit(pitch, ms(st.BeatDuration()/2)/4, vel)

	f.SubCounter++
	if f.SubCounter%max(1, st.Signature.SubdivisionsPerBeat/2) == 0 {
		f.Counter++
	}
	if !f.Active() {
		st.FastRhythm = nil
		debug.Log("special", "fast rhythm done")
	}
}

// playTihai plays the next tihai step. When all repetitions are done it
// lands on sam instead: the composition is refreshed and the bar restarts.
// It reports whether the bar was restarted.
func (e *Engine) playTihai(vel float64) bool {
	st := &e.st
	t := st.Tihai
	if !t.Done() {
		e.emit(composer.FitRange(t.Note(st.Raga.Ascending)), e.slotDuration()/4, vel)
		t.Advance()
		return false
	}

	e.refresh(false)
	st.Tihai = nil

	pitch := composer.FitRange(st.Raga.Emphasis())
	if notes := st.Sequence.Notes(); len(notes) > 0 {
		pitch = composer.Choice(e.rng, notes)
	}
	e.emit(pitch, e.slotDuration()/4, vel)

	st.CurrentBeat = 0
	st.Cadence.BarCounter = 0
	st.Cadence.drawChordInterval(e.rng)
	st.Cadence.drawRefresh(e.rng)
	debug.Log("special", "tihai landed on %d", pitch)
	return true
}
