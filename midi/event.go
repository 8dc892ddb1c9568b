package midi

import (
	"fmt"
	"sync"
	"time"
)

// Channel is an instrument group, mapped to a MIDI channel by the output.
type Channel uint8

const (
	Melody Channel = iota
	Bass
	Pad
	Drums
	NumChannels
)

func (c Channel) String() string {
	switch c {
	case Melody:
		return "melody"
	case Bass:
		return "bass"
	case Pad:
		return "pad"
	case Drums:
		return "drums"
	}
	return fmt.Sprintf("channel(%d)", uint8(c))
}

// Voice is a drum sound, mapped to a note by the kit.
type Voice uint8

const (
	VoiceKick Voice = iota
	VoiceSnare
	VoiceClap
	VoiceClosedHat
	VoiceOpenHat
	VoicePerc
	VoiceRide
	VoiceFX
	VoiceFXAlt
	VoiceGong
	NumVoices
)

var voiceNames = [NumVoices]string{
	"kick", "snare", "clap", "hat", "openhat", "perc", "ride", "fx", "fx2", "gong",
}

func (v Voice) String() string {
	if v >= NumVoices {
		return fmt.Sprintf("voice(%d)", uint8(v))
	}
	return voiceNames[v]
}

// VoiceByName looks a voice up by its String form.
func VoiceByName(name string) (Voice, bool) {
	for i, n := range voiceNames {
		if n == name {
			return Voice(i), true
		}
	}
	return 0, false
}

// EffectParams are slow-moving send levels, each in [0,1].
type EffectParams struct {
	Reverb        float64
	DelayFeedback float64
	DelayMix      float64
	Cutoff        float64
}

// Kind says which fields of an Event are meaningful.
type Kind uint8

const (
	KindNote Kind = iota
	KindChord
	KindHit
	KindLit
	KindAllOff
	KindEffects
)

func (k Kind) String() string {
	return [...]string{"note", "chord", "hit", "lit", "alloff", "effects"}[k]
}

// Event is one emitted musical event, as seen by a Recorder.
type Event struct {
	Kind     Kind
	Pitches  []int
	Duration time.Duration
	Velocity float64
	Channel  Channel
	Voice    Voice
	Effects  EffectParams
}

func (e Event) String() string {
	switch e.Kind {
	case KindNote:
		return fmt.Sprintf("note %-6s %3d vel=%.2f dur=%v", e.Channel, e.Pitches[0], e.Velocity, e.Duration)
	case KindChord:
		return fmt.Sprintf("chord %-6s %v vel=%.2f dur=%v", e.Channel, e.Pitches, e.Velocity, e.Duration)
	case KindHit:
		return fmt.Sprintf("hit %-8s vel=%.2f", e.Voice, e.Velocity)
	case KindLit:
		return fmt.Sprintf("lit %3d dur=%v", e.Pitches[0], e.Duration)
	case KindEffects:
		return fmt.Sprintf("fx reverb=%.2f fb=%.2f mix=%.2f cutoff=%.2f",
			e.Effects.Reverb, e.Effects.DelayFeedback, e.Effects.DelayMix, e.Effects.Cutoff)
	}
	return e.Kind.String()
}

// Recorder keeps every event it receives. It serves as both sound and
// visual sink.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	// OnEvent, if set, is called for each event after it is stored.
	OnEvent func(Event)
	// Discard skips storing, leaving only OnEvent.
	Discard bool
}

func (r *Recorder) add(e Event) error {
	r.mu.Lock()
	if !r.Discard {
		r.events = append(r.events, e)
	}
	fn := r.OnEvent
	r.mu.Unlock()
	if fn != nil {
		fn(e)
	}
	return nil
}

func (r *Recorder) NoteOn(pitch int, dur time.Duration, velocity float64, ch Channel) error {
	return r.add(Event{Kind: KindNote, Pitches: []int{pitch}, Duration: dur, Velocity: velocity, Channel: ch})
}

func (r *Recorder) ChordOn(pitches []int, dur time.Duration, velocity float64, ch Channel) error {
	return r.add(Event{Kind: KindChord, Pitches: append([]int(nil), pitches...), Duration: dur, Velocity: velocity, Channel: ch})
}

func (r *Recorder) Hit(v Voice, velocity float64) error {
	return r.add(Event{Kind: KindHit, Voice: v, Velocity: velocity, Channel: Drums})
}

func (r *Recorder) AllNotesOff() error {
	return r.add(Event{Kind: KindAllOff})
}

func (r *Recorder) SetEffects(p EffectParams) error {
	return r.add(Event{Kind: KindEffects, Effects: p})
}

func (r *Recorder) NoteLit(pitch int, dur time.Duration) error {
	return r.add(Event{Kind: KindLit, Pitches: []int{pitch}, Duration: dur})
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Only returns the recorded events of one kind.
func (r *Recorder) Only(k Kind) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Kind == k {
			out = append(out, e)
		}
	}
	return out
}

// Reset drops everything recorded.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}
