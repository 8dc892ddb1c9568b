package sequencer

import (
	"time"

	"go-raga/midi"
)

// SoundSink receives note events. Implementations must accept calls before
// they are ready, returning an error rather than blocking.
type SoundSink interface {
	NoteOn(pitch int, dur time.Duration, velocity float64, ch midi.Channel) error
	ChordOn(pitches []int, dur time.Duration, velocity float64, ch midi.Channel) error
	Hit(v midi.Voice, velocity float64) error
	AllNotesOff() error
}

// EffectSink is an optional SoundSink capability for slow effect sweeps.
type EffectSink interface {
	SetEffects(p midi.EffectParams) error
}

// VisualSink receives "note lit" events.
type VisualSink interface {
	NoteLit(pitch int, dur time.Duration) error
}

// NopSound drops everything.
type NopSound struct{}

func (NopSound) NoteOn(int, time.Duration, float64, midi.Channel) error     { return nil }
func (NopSound) ChordOn([]int, time.Duration, float64, midi.Channel) error { return nil }
func (NopSound) Hit(midi.Voice, float64) error                             { return nil }
func (NopSound) AllNotesOff() error                                        { return nil }

// NopVisual drops everything.
type NopVisual struct{}

func (NopVisual) NoteLit(int, time.Duration) error { return nil }

// SoundFanout sends each event to every sink, returning the first error
// after all have been tried.
type SoundFanout []SoundSink

func (f SoundFanout) each(fn func(SoundSink) error) error {
	var first error
	for _, s := range f {
		if err := fn(s); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (f SoundFanout) NoteOn(pitch int, dur time.Duration, velocity float64, ch midi.Channel) error {
	return f.each(func(s SoundSink) error { return s.NoteOn(pitch, dur, velocity, ch) })
}

func (f SoundFanout) ChordOn(pitches []int, dur time.Duration, velocity float64, ch midi.Channel) error {
	return f.each(func(s SoundSink) error { return s.ChordOn(pitches, dur, velocity, ch) })
}

func (f SoundFanout) Hit(v midi.Voice, velocity float64) error {
	return f.each(func(s SoundSink) error { return s.Hit(v, velocity) })
}

func (f SoundFanout) AllNotesOff() error {
	return f.each(func(s SoundSink) error { return s.AllNotesOff() })
}

func (f SoundFanout) SetEffects(p midi.EffectParams) error {
	return f.each(func(s SoundSink) error {
		if es, ok := s.(EffectSink); ok {
			return es.SetEffects(p)
		}
		return nil
	})
}
