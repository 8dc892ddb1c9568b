package midi

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomidi "gitlab.com/gomidi/midi/v2"

	"go-raga/errs"
)

type wire struct {
	mu   sync.Mutex
	msgs []gomidi.Message
	err  error
}

func (w *wire) send(m gomidi.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, m)
	return nil
}

func (w *wire) noteOns() [][3]uint8 {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out [][3]uint8
	for _, m := range w.msgs {
		var ch, key, vel uint8
		if m.GetNoteOn(&ch, &key, &vel) {
			out = append(out, [3]uint8{ch, key, vel})
		}
	}
	return out
}

func (w *wire) controls() [][3]uint8 {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out [][3]uint8
	for _, m := range w.msgs {
		var ch, cc, val uint8
		if m.GetControlChange(&ch, &cc, &val) {
			out = append(out, [3]uint8{ch, cc, val})
		}
	}
	return out
}

func TestOutputNoteOnChannels(t *testing.T) {
	w := &wire{}
	o := NewOutputFunc(w.send, DefaultChannels, GetKit("gm"))

	require.NoError(t, o.NoteOn(64, time.Hour, 1, Melody))
	require.NoError(t, o.NoteOn(40, time.Hour, 0.5, Bass))
	require.NoError(t, o.ChordOn([]int{60, 64, 67}, time.Hour, 0.6, Pad))

	ons := w.noteOns()
	require.Len(t, ons, 5)
	assert.Equal(t, [3]uint8{0, 64, 127}, ons[0])
	assert.Equal(t, [3]uint8{1, 40, 64}, ons[1])
	assert.Equal(t, uint8(2), ons[2][0])
	assert.Equal(t, 5, o.Held())
}

func TestOutputHitUsesKit(t *testing.T) {
	w := &wire{}
	o := NewOutputFunc(w.send, DefaultChannels, GetKit("rd8"))

	require.NoError(t, o.Hit(VoiceSnare, 1))
	ons := w.noteOns()
	require.Len(t, ons, 1)
	assert.Equal(t, uint8(9), ons[0][0])
	assert.Equal(t, uint8(40), ons[0][1])
	// -8 dB
	assert.InDelta(t, 50, int(ons[0][2]), 1)
}

func TestOutputReleasesNotes(t *testing.T) {
	w := &wire{}
	o := NewOutputFunc(w.send, DefaultChannels, GetKit("gm"))

	require.NoError(t, o.NoteOn(60, time.Millisecond, 1, Melody))
	assert.Eventually(t, func() bool { return o.Held() == 0 }, time.Second, 5*time.Millisecond)
}

func TestOutputAllNotesOff(t *testing.T) {
	w := &wire{}
	o := NewOutputFunc(w.send, DefaultChannels, GetKit("gm"))

	require.NoError(t, o.NoteOn(60, time.Hour, 1, Melody))
	require.NoError(t, o.AllNotesOff())
	assert.Equal(t, 0, o.Held())

	var allOff int
	for _, c := range w.controls() {
		if c[1] == ccAllNotes {
			allOff++
		}
	}
	assert.Equal(t, int(NumChannels), allOff)
}

func TestOutputEffectsSkipUnchanged(t *testing.T) {
	w := &wire{}
	o := NewOutputFunc(w.send, DefaultChannels, GetKit("gm"))

	p := EffectParams{Reverb: 0.5, DelayFeedback: 0.25, DelayMix: 0, Cutoff: 1}
	require.NoError(t, o.SetEffects(p))
	assert.Len(t, w.controls(), 8)

	require.NoError(t, o.SetEffects(p))
	assert.Len(t, w.controls(), 8)

	p.Reverb = 0.6
	require.NoError(t, o.SetEffects(p))
	assert.Len(t, w.controls(), 10)
}

func TestOutputNotConnected(t *testing.T) {
	o := NewOutput("nowhere", DefaultChannels, GetKit("gm"))
	o.open = func(string) (func(gomidi.Message) error, error) {
		return nil, errors.New("no such port")
	}

	assert.False(t, o.Ready())
	err := o.NoteOn(60, time.Second, 1, Melody)
	assert.True(t, errs.Is(err, errs.CollaboratorUnavailable))
	assert.True(t, errs.Is(o.Connect(), errs.CollaboratorUnavailable))

	w := &wire{}
	o.open = func(string) (func(gomidi.Message) error, error) { return w.send, nil }
	require.NoError(t, o.Connect())
	assert.True(t, o.Ready())
	require.NoError(t, o.NoteOn(60, time.Hour, 1, Melody))

	o.Disconnect()
	assert.False(t, o.Ready())
	assert.Equal(t, 0, o.Held())
}

func TestOutputSendFailure(t *testing.T) {
	w := &wire{err: errors.New("cable pulled")}
	o := NewOutputFunc(w.send, DefaultChannels, GetKit("gm"))
	err := o.NoteOn(60, time.Second, 1, Melody)
	assert.True(t, errs.Is(err, errs.CollaboratorUnavailable))
	assert.Equal(t, 0, o.Held())
}

func TestPortWatcherScan(t *testing.T) {
	ports := []string{"IAC Bus 1"}
	w := NewPortWatcher()
	w.list = func() ([]string, error) { return ports, nil }

	w.scan()
	ev := <-w.events
	assert.Equal(t, PortEvent{Type: PortConnected, Name: "IAC Bus 1"}, ev)
	assert.Equal(t, []string{"IAC Bus 1"}, w.Ports())

	ports = nil
	w.scan()
	ev = <-w.events
	assert.Equal(t, PortEvent{Type: PortDisconnected, Name: "IAC Bus 1"}, ev)

	w.list = func() ([]string, error) { return nil, ErrPortScanTimeout }
	w.scan()
	assert.Empty(t, w.events)
}

func TestKitGainAndLevels(t *testing.T) {
	k := GetKit("unknown")
	assert.Equal(t, "General MIDI", k.Name)
	assert.InDelta(t, 0.316, k.Gain(VoiceKick), 0.001)

	k = k.WithLevels(map[string]float64{"kick": 0, "bogus": 3})
	assert.InDelta(t, 1, k.Gain(VoiceKick), 1e-9)
	assert.Equal(t, -8.0, Kits["gm"].Levels[VoiceSnare], "base kit untouched")
}

func TestRecorder(t *testing.T) {
	var r Recorder
	var seen int
	r.OnEvent = func(Event) { seen++ }

	r.NoteOn(60, time.Second, 1, Melody)
	r.Hit(VoiceKick, 1)
	r.NoteLit(60, time.Second)
	assert.Len(t, r.Events(), 3)
	assert.Len(t, r.Only(KindHit), 1)
	assert.Equal(t, 3, seen)
	assert.Contains(t, r.Events()[0].String(), "melody")

	r.Reset()
	assert.Empty(t, r.Events())
}
