package sequencer

import (
	"time"

	"go-raga/composer"
	"go-raga/debug"
	"go-raga/midi"
)

// tick plays one slot. Caller holds e.mu.
func (e *Engine) tick() {
	st := &e.st
	st.Clock++
	e.applyMode()

	if st.Mode == Interaction {
		e.advance(false)
		return
	}

	if err := e.checkSpecials(); err != nil {
		e.report(err)
	}

	if st.Mode == Rhythm {
		e.playDrums(st.CurrentBeat % composer.Steps)
	}

	vel := e.noise.velocity(st.Clock)
	e.maybeStartJhala()

	switch st.Special() {
	case Jhala:
		e.playJhala(vel)
	case FastRhythm:
		e.playFastRhythm(vel)
	case Tihai:
		if e.playTihai(vel) {
			return
		}
	default:
		if p := st.Sequence.At(st.CurrentBeat); p != composer.Rest {
			e.emit(p, e.slotDuration()/4, vel)
		}
	}

	e.advance(true)
}

// applyMode sets tempo and pattern for the current mode and sweeps the
// effect sends.
func (e *Engine) applyMode() {
	st := &e.st
	switch st.Mode {
	case Ambient:
		st.Tempo = max(e.noise.ambientTempo(st.Clock), MinTempo)
		st.Pattern = nil
		st.Fill = nil
	case Rhythm:
		st.Tempo = RhythmTempo
		if st.Pattern == nil {
			st.Pattern = composer.GeneratePattern(st.Cadence.Intensity, e.rng)
		}
	case Interaction:
		st.Tempo = InteractionTempo
		st.Pattern = nil
		st.Fill = nil
		return
	}
	if es, ok := e.sound.(EffectSink); ok {
		fx := e.noise.effects(st.Clock)
		e.safe("effects", func() error { return es.SetEffects(fx) })
	}
}

// advance moves to the next slot, rolling the bar over at its end.
func (e *Engine) advance(cadence bool) {
	st := &e.st
	st.CurrentBeat++
	if st.CurrentBeat < st.Signature.SlotsPerBar() {
		return
	}
	st.CurrentBeat = 0
	if !cadence {
		st.Cadence.BarCounter++
		return
	}
	e.rollover()
}

// rollover runs the bar-level cadence and carries out its plan.
func (e *Engine) rollover() {
	st := &e.st
	rhythm := st.Mode == Rhythm

	if st.Fill != nil {
		st.Fill = nil
		if rhythm {
			st.Pattern = composer.GeneratePattern(st.Cadence.Intensity, e.rng)
		}
	}

	plan := st.Cadence.Rollover(rhythm, e.rng)
	if plan.Fill {
		st.Fill = composer.GenerateFill(e.rng)
		debug.Log("cadence", "fill\n%s", st.Fill)
	}
	if plan.FocusChanged {
		debug.Log("cadence", "focus -> %s", st.Cadence.Focus)
	}
	if plan.Chord {
		root := composer.ChordRoot(st.Sequence, st.Raga)
		e.playChord(composer.Triad(root))
	}
	if plan.Refresh {
		e.refresh(plan.RegeneratePattern)
	}
	if plan.RefreshDeferred {
		debug.Log("cadence", "refresh deferred past fill bar")
	}
	if plan.Any() {
		debug.Log("cadence", "bar %d: intensity %.2f, next fill in %d, refresh at %d",
			st.Cadence.BarCounter, st.Cadence.Intensity, st.Cadence.BarsUntilFill, st.Cadence.BarsUntilRefresh)
	}
}

// emit sounds one melodic note on every group the focus allows, and the
// next bassline step under it.
func (e *Engine) emit(pitch int, dur time.Duration, vel float64) {
	st := &e.st
	focus := st.Cadence.Focus
	st.LastNote = pitch

	e.safe("visual", func() error { return e.visual.NoteLit(pitch, dur) })
	if focus.melody() {
		e.safe("melody", func() error { return e.sound.NoteOn(pitch, dur, vel, midi.Melody) })
	}
	if focus.bass() {
		e.safe("pad", func() error { return e.sound.NoteOn(pitch-12, dur, vel*0.8, midi.Pad) })
		if n := len(st.Bassline); n > 0 {
			bass := st.Bassline[st.BassIndex%n] - 24
			st.BassIndex++
			e.safe("bass", func() error {
				return e.sound.NoteOn(bass, ms(st.BeatDuration()/2), 0.9, midi.Bass)
			})
		}
	}
}

func (e *Engine) playChord(pitches []int) {
	st := &e.st
	dur := ms(st.BeatDuration() / float64(2*st.Signature.SubdivisionsPerBeat))
	vel := e.noise.velocity(st.Clock)
	focus := st.Cadence.Focus

	for _, p := range pitches {
		e.safe("visual", func() error { return e.visual.NoteLit(p, dur) })
	}
	if focus.melody() {
		e.safe("chord", func() error { return e.sound.ChordOn(pitches, dur, vel*0.6, midi.Melody) })
	}
	if focus.bass() {
		low := make([]int, len(pitches))
		for i, p := range pitches {
			low[i] = p - 12
		}
		e.safe("pad chord", func() error { return e.sound.ChordOn(low, dur, vel*0.5, midi.Pad) })
	}
	debug.Log("cadence", "chord %v", pitches)
}

func (e *Engine) slotDuration() time.Duration {
	return ms(e.st.BeatDuration() / float64(e.st.Signature.SubdivisionsPerBeat))
}
