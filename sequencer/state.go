package sequencer

import (
	"fmt"

	"github.com/google/uuid"

	"go-raga/composer"
	"go-raga/raga"
)

// Mode selects how the engine fills each tick.
type Mode int

const (
	Ambient     Mode = iota // noise-driven tempo, melody only
	Rhythm                  // fixed tempo, melody plus drums
	Interaction             // fixed tempo, timing only
)

var modeNames = []string{"ambient", "rhythm", "interaction"}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("mode(%d)", int(m))
	}
	return modeNames[m]
}

// ParseMode accepts the String form of a mode.
func ParseMode(s string) (Mode, bool) {
	for i, n := range modeNames {
		if n == s {
			return Mode(i), true
		}
	}
	return Ambient, false
}

// Focus gates which instrument groups sound. It never changes what is
// generated.
type Focus int

const (
	Full Focus = iota
	MelodyOnly
	RhythmOnly
	BassOnly
)

func (f Focus) String() string {
	switch f {
	case Full:
		return "full"
	case MelodyOnly:
		return "melody"
	case RhythmOnly:
		return "rhythm"
	case BassOnly:
		return "bass"
	}
	return fmt.Sprintf("focus(%d)", int(f))
}

func (f Focus) melody() bool { return f == Full || f == MelodyOnly }
func (f Focus) bass() bool   { return f == Full || f == BassOnly }
func (f Focus) drums() bool  { return f == Full || f == RhythmOnly }

// Special is the state governing the current slot, highest priority first.
type Special int

const (
	Normal Special = iota
	Tihai
	FastRhythm
	Jhala
)

func (s Special) String() string {
	return [...]string{"normal", "tihai", "fast", "jhala"}[s]
}

// JhalaRun is a running jhala episode.
type JhalaRun struct {
	Counter  int
	Duration int // in slots
}

// State is everything the engine mutates. It is owned by one Engine and
// only touched inside a tick or at a tick boundary.
type State struct {
	SessionID uuid.UUID

	Raga      *raga.Raga
	Signature composer.TimeSignature
	Mode      Mode
	Playing   bool

	Clock       int     // ticks since start, drives the noise functions
	Tempo       float64 // bpm
	CurrentBeat int     // slot within the bar

	Sequence  composer.Sequence
	Pattern   *composer.Pattern
	Fill      *composer.Pattern // replaces Pattern for one bar
	Bassline  []int
	BassIndex int

	Cadence Cadence

	FastRhythm *composer.FastRhythm
	Tihai      *composer.Tihai
	Jhala      *JhalaRun

	LastNote int // last sounded pitch, composer.Rest if none
}

// Special reports the governing state. Jhala beats fast rhythm beats tihai.
func (s *State) Special() Special {
	switch {
	case s.Jhala != nil:
		return Jhala
	case s.FastRhythm.Active():
		return FastRhythm
	case s.Tihai != nil:
		return Tihai
	}
	return Normal
}

// ActivePattern is the fill during a fill bar, else the groove.
func (s *State) ActivePattern() *composer.Pattern {
	if s.Fill != nil {
		return s.Fill
	}
	return s.Pattern
}

// BeatDuration is one beat in milliseconds at the current tempo.
func (s *State) BeatDuration() float64 {
	if s.Tempo <= 0 {
		return 0
	}
	return 60000 / s.Tempo
}

// clearSpecials ends every special state.
func (s *State) clearSpecials() {
	s.FastRhythm = nil
	s.Tihai = nil
	s.Jhala = nil
}

// resetPlayback puts the bar position and all special states back to the
// start, as on a mode or raga change.
func (s *State) resetPlayback() {
	s.CurrentBeat = 0
	s.BassIndex = 0
	s.Cadence.BarCounter = 0
	s.Cadence.BarsSinceChord = 0
	s.Fill = nil
	s.LastNote = composer.Rest
	s.clearSpecials()
}

// Snapshot is a read-only copy of State for display.
type Snapshot struct {
	SessionID   string
	Raga        *raga.Raga
	Signature   composer.TimeSignature
	Mode        Mode
	Playing     bool
	Tempo       float64
	Bar         int
	CurrentBeat int
	Focus       Focus
	Special     Special
	Progress    string
	Intensity   float64
	Sequence    composer.Sequence
	Pattern     composer.Pattern
	Filling     bool
	LastNote    int
}

func (s *State) snapshot() Snapshot {
	snap := Snapshot{
		SessionID:   s.SessionID.String(),
		Raga:        s.Raga,
		Signature:   s.Signature,
		Mode:        s.Mode,
		Playing:     s.Playing,
		Tempo:       s.Tempo,
		Bar:         s.Cadence.BarCounter,
		CurrentBeat: s.CurrentBeat,
		Focus:       s.Cadence.Focus,
		Special:     s.Special(),
		Intensity:   s.Cadence.Intensity,
		Sequence:    append(composer.Sequence(nil), s.Sequence...),
		Filling:     s.Fill != nil,
		LastNote:    s.LastNote,
	}
	if p := s.ActivePattern(); p != nil {
		snap.Pattern = *p
	}
	switch snap.Special {
	case Jhala:
		snap.Progress = fmt.Sprintf("%d/%d", s.Jhala.Counter, s.Jhala.Duration)
	case FastRhythm:
		snap.Progress = fmt.Sprintf("%d/%d", s.FastRhythm.Counter, s.FastRhythm.Bound())
	case Tihai:
		snap.Progress = fmt.Sprintf("%d.%d", s.Tihai.Repetition+1, s.Tihai.Counter)
	}
	return snap
}
