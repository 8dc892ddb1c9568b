package midi

import (
	"context"
	"errors"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"

	"go-raga/debug"
	"go-raga/errs"
)

// ErrNotConnected is returned while the output port is closed.
var ErrNotConnected = errors.New("midi output not connected")

// Channels maps instrument groups to 0-based MIDI channels.
type Channels [NumChannels]uint8

// DefaultChannels: melody 1, bass 2, pad 3, drums 10.
var DefaultChannels = Channels{Melody: 0, Bass: 1, Pad: 2, Drums: 9}

// General MIDI controller numbers used for the effect sends.
const (
	ccEffectCtl  = 12
	ccCutoff     = 74
	ccReverb     = 91
	ccDelayMix   = 94
	ccAllNotes   = 123
	drumGateTime = 50 * time.Millisecond
)

type heldNote struct {
	ch  uint8
	key uint8
}

// Output sends engine events to one MIDI port. Until the port is open every
// call returns a CollaboratorUnavailable error and does nothing else.
type Output struct {
	portName string
	channels Channels
	kit      Kit

	open func(name string) (func(gomidi.Message) error, error)

	mu      sync.Mutex
	send    func(gomidi.Message) error
	held    map[heldNote]*time.Timer
	lastCCs map[[2]uint8]uint8
}

// NewOutput prepares an output for portName. Call Connect to open it.
func NewOutput(portName string, channels Channels, kit Kit) *Output {
	return &Output{
		portName: portName,
		channels: channels,
		kit:      kit,
		open:     openPort,
		held:     make(map[heldNote]*time.Timer),
		lastCCs:  make(map[[2]uint8]uint8),
	}
}

// NewOutputFunc builds an already connected output around send.
func NewOutputFunc(send func(gomidi.Message) error, channels Channels, kit Kit) *Output {
	o := NewOutput("", channels, kit)
	o.send = send
	return o
}

// PortName is the configured port.
func (o *Output) PortName() string {
	return o.portName
}

// Connect opens the configured port if it is not already open.
func (o *Output) Connect() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.send != nil {
		return nil
	}
	send, err := o.open(o.portName)
	if err != nil {
		return errs.Unavailable(err, "open midi port "+o.portName)
	}
	o.send = send
	debug.Log("midi", "connected to %q", o.portName)
	return nil
}

// Disconnect forgets the port; held notes are dropped without note-offs.
func (o *Output) Disconnect() {
	o.mu.Lock()
	defer o.mu.Unlock()

	for k, t := range o.held {
		t.Stop()
		delete(o.held, k)
	}
	o.send = nil
	debug.Log("midi", "disconnected from %q", o.portName)
}

// Ready reports whether the port is open.
func (o *Output) Ready() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.send != nil
}

// Follow connects and disconnects as the watcher reports the port coming and
// going. Blocks until ctx is done or events is closed.
func (o *Output) Follow(ctx context.Context, events <-chan PortEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Name != o.portName {
				continue
			}
			switch ev.Type {
			case PortConnected:
				if err := o.Connect(); err != nil {
					debug.Log("midi", "reconnect failed: %v", err)
				}
			case PortDisconnected:
				o.Disconnect()
			}
		}
	}
}

func (o *Output) NoteOn(pitch int, dur time.Duration, velocity float64, ch Channel) error {
	return o.play(o.channels[ch], clampKey(pitch), velocity, dur)
}

func (o *Output) ChordOn(pitches []int, dur time.Duration, velocity float64, ch Channel) error {
	for _, p := range pitches {
		if err := o.play(o.channels[ch], clampKey(p), velocity, dur); err != nil {
			return err
		}
	}
	return nil
}

func (o *Output) Hit(v Voice, velocity float64) error {
	if v >= NumVoices {
		return nil
	}
	return o.play(o.channels[Drums], o.kit.Notes[v], velocity*o.kit.Gain(v), drumGateTime)
}

// AllNotesOff releases held notes and sends All Notes Off on every channel.
func (o *Output) AllNotesOff() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.send == nil {
		return errs.Unavailable(ErrNotConnected, "all notes off")
	}
	for k, t := range o.held {
		t.Stop()
		o.send(gomidi.NoteOff(k.ch, k.key))
		delete(o.held, k)
	}
	seen := map[uint8]bool{}
	for _, ch := range o.channels {
		if seen[ch] {
			continue
		}
		seen[ch] = true
		if err := o.send(gomidi.ControlChange(ch, ccAllNotes, 0)); err != nil {
			return errs.Unavailable(err, "all notes off")
		}
	}
	return nil
}

// SetEffects sends effect levels as controller changes on the melody and pad
// channels, skipping values that have not moved.
func (o *Output) SetEffects(p EffectParams) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.send == nil {
		return errs.Unavailable(ErrNotConnected, "effects")
	}
	ccs := [][2]uint8{
		{ccReverb, cc7(p.Reverb)},
		{ccEffectCtl, cc7(p.DelayFeedback)},
		{ccDelayMix, cc7(p.DelayMix)},
		{ccCutoff, cc7(p.Cutoff)},
	}
	for _, ch := range []uint8{o.channels[Melody], o.channels[Pad]} {
		for _, cc := range ccs {
			key := [2]uint8{ch, cc[0]}
			if last, ok := o.lastCCs[key]; ok && last == cc[1] {
				continue
			}
			if err := o.send(gomidi.ControlChange(ch, cc[0], cc[1])); err != nil {
				return errs.Unavailable(err, "effects")
			}
			o.lastCCs[key] = cc[1]
		}
	}
	return nil
}

func (o *Output) play(ch, key uint8, velocity float64, dur time.Duration) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.send == nil {
		return errs.Unavailable(ErrNotConnected, "note on")
	}

	hn := heldNote{ch: ch, key: key}
	if t, ok := o.held[hn]; ok {
		// retrigger
		t.Stop()
		o.send(gomidi.NoteOff(ch, key))
	}
	if err := o.send(gomidi.NoteOn(ch, key, unit7(velocity))); err != nil {
		delete(o.held, hn)
		return errs.Unavailable(err, "note on")
	}

	var t *time.Timer
	t = time.AfterFunc(dur, func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		if o.held[hn] != t {
			return
		}
		delete(o.held, hn)
		if o.send != nil {
			o.send(gomidi.NoteOff(ch, key))
		}
	})
	o.held[hn] = t
	return nil
}

// Held is the number of notes currently sounding.
func (o *Output) Held() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.held)
}

func clampKey(p int) uint8 {
	if p < 0 {
		return 0
	}
	if p > 127 {
		return 127
	}
	return uint8(p)
}

func cc7(x float64) uint8 {
	return uint8(min(max(int(x*127+0.5), 0), 127))
}

// unit7 maps [0,1] to 1..127; zero velocity would read as a note-off.
func unit7(x float64) uint8 {
	v := int(x*127 + 0.5)
	if v < 1 {
		v = 1
	}
	if v > 127 {
		v = 127
	}
	return uint8(v)
}
