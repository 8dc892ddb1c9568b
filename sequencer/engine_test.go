package sequencer

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-raga/composer"
	"go-raga/errs"
	"go-raga/midi"
	"go-raga/raga"
)

// fixedRand returns v for every Float64 and n mod the bound for every IntN.
type fixedRand struct {
	v float64
	n int
}

func (f *fixedRand) Float64() float64 { return f.v }
func (f *fixedRand) IntN(n int) int    { return f.n % n }

func testRaga() *raga.Raga {
	return &raga.Raga{
		Name:       "Bilawal",
		Ascending:  []int{60, 62, 64, 65, 67, 69, 71, 72},
		Descending: []int{72, 71, 69, 67, 65, 64, 62, 60},
		Motifs:     [][]int{{64, 62}, {67, 69, 71, 72}},
		Vadi:       69,
		Samvadi:    64,
	}
}

// melody returns the pitches sent on the melody channel.
func melody(rec *midi.Recorder) []int {
	var out []int
	for _, ev := range rec.Only(midi.KindNote) {
		if ev.Channel == midi.Melody {
			out = append(out, ev.Pitches[0])
		}
	}
	return out
}

func newTestEngine(t *testing.T, rng composer.Rand, opts ...Option) (*Engine, *midi.Recorder, *ManualScheduler) {
	t.Helper()
	rec := &midi.Recorder{}
	sched := NewManualScheduler()
	opts = append([]Option{WithSeed(1), WithSound(rec), WithVisual(rec), WithScheduler(sched)}, opts...)
	if rng != nil {
		opts = append(opts, WithRand(rng))
	}
	e := New(opts...)
	require.NoError(t, e.LoadRaga(testRaga()))
	return e, rec, sched
}

func TestLoadRagaRejectsInvalid(t *testing.T) {
	e := New(WithScheduler(NewManualScheduler()))
	err := e.LoadRaga(&raga.Raga{Name: "empty"})
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ConfigError))

	err = e.Start()
	assert.True(t, errs.Is(err, errs.ConfigError))
	assert.True(t, errs.Is(e.Tick(), errs.ConfigError))
	assert.False(t, e.Playing())
}

func TestLoopReschedulesAtSlotRate(t *testing.T) {
	e, rec, sched := newTestEngine(t, nil, WithMode(Rhythm))
	require.NoError(t, e.Start())
	assert.Equal(t, 64, sched.Run(64))
	assert.True(t, sched.Pending())

	delays := sched.Delays()
	assert.Equal(t, time.Duration(0), delays[0])
	for _, d := range delays[1:] {
		assert.Equal(t, 125*time.Millisecond, d, "120 bpm in 4/4")
	}
	assert.NotEmpty(t, rec.Only(midi.KindHit))
	assert.NotEmpty(t, rec.Only(midi.KindEffects))

	snap := e.Snapshot()
	assert.Equal(t, Rhythm, snap.Mode)
	assert.Equal(t, 120.0, snap.Tempo)
	assert.NotEmpty(t, snap.SessionID)
}

func TestAmbientTempoStaysInRange(t *testing.T) {
	e, _, sched := newTestEngine(t, nil)
	require.NoError(t, e.Start())
	sched.Run(200)
	for _, d := range sched.Delays()[1:] {
		// a quarter of a beat between 100 and 20 bpm
		assert.GreaterOrEqual(t, d, 150*time.Millisecond)
		assert.LessOrEqual(t, d, 750*time.Millisecond)
	}
}

func TestStopSilencesAndResumes(t *testing.T) {
	e, rec, sched := newTestEngine(t, nil)
	require.NoError(t, e.Start())
	sched.Run(5)
	beat := e.Snapshot().CurrentBeat

	e.Stop()
	assert.False(t, sched.Pending())
	assert.Len(t, rec.Only(midi.KindAllOff), 1)
	assert.Equal(t, beat, e.Snapshot().CurrentBeat)

	require.NoError(t, e.Start())
	assert.True(t, sched.Pending())
	sched.Step()
	assert.Equal(t, beat+1, e.Snapshot().CurrentBeat)
}

func TestStaleCallbackIsIgnored(t *testing.T) {
	e, _, sched := newTestEngine(t, nil)
	require.NoError(t, e.Start())
	sched.Step()
	e.run(0)
	assert.Equal(t, 1, e.Snapshot().CurrentBeat)
}

func TestRequestsApplyAtTickBoundary(t *testing.T) {
	e, _, sched := newTestEngine(t, nil)
	require.NoError(t, e.Start())
	sched.Run(3)

	require.NoError(t, e.SetMode(Rhythm))
	assert.Equal(t, Ambient, e.Snapshot().Mode)
	sched.Step()
	snap := e.Snapshot()
	assert.Equal(t, Rhythm, snap.Mode)
	assert.Equal(t, 1, snap.CurrentBeat, "mode change restarts the bar")

	sig := composer.TimeSignature{BeatsPerBar: 3, SubdivisionsPerBeat: 4}
	require.NoError(t, e.SetTimeSignature(sig))
	sched.Step()
	assert.Equal(t, sig, e.Snapshot().Signature)

	err := e.SetTimeSignature(composer.TimeSignature{BeatsPerBar: 0, SubdivisionsPerBeat: 4})
	assert.True(t, errs.Is(err, errs.ConfigError))
	assert.True(t, errs.Is(e.SetMode(Mode(9)), errs.ConfigError))
}

func TestLoadRagaWhilePlayingStartsNewSession(t *testing.T) {
	e, _, sched := newTestEngine(t, nil)
	require.NoError(t, e.Start())
	sched.Run(3)
	first := e.Snapshot().SessionID

	other := testRaga()
	other.Name = "Yaman"
	require.NoError(t, e.LoadRaga(other))
	assert.Equal(t, "Bilawal", e.Snapshot().Raga.Name)
	sched.Step()
	snap := e.Snapshot()
	assert.Equal(t, "Yaman", snap.Raga.Name)
	assert.NotEqual(t, first, snap.SessionID)
}

func TestInteractionModeOnlyKeepsTime(t *testing.T) {
	e, rec, _ := newTestEngine(t, nil, WithMode(Interaction))
	for i := 0; i < 16; i++ {
		require.NoError(t, e.Tick())
	}
	snap := e.Snapshot()
	assert.Equal(t, 0, snap.CurrentBeat)
	assert.Equal(t, 1, snap.Bar)
	assert.Equal(t, 130.0, snap.Tempo)
	assert.Empty(t, rec.Events())
}

func TestTihaiPlaysThreeTimesThenLands(t *testing.T) {
	e, rec, _ := newTestEngine(t, &fixedRand{v: 0.99})
	pattern := composer.TihaiPatterns[0]
	e.st.clearSpecials()
	e.st.Tihai = &composer.Tihai{Pattern: pattern}

	steps := len(pattern) * composer.TihaiRepetitions
	for i := 0; i < steps; i++ {
		require.NoError(t, e.Tick())
		require.Equal(t, Tihai, e.Snapshot().Special, "step %d", i)
	}

	asc := testRaga().Ascending
	notes := melody(rec)
	require.Len(t, notes, steps)
	for i, p := range notes {
		assert.Equal(t, asc[pattern[i%len(pattern)]], p, "step %d", i)
	}

	rec.Reset()
	require.NoError(t, e.Tick())
	snap := e.Snapshot()
	assert.Equal(t, Normal, snap.Special)
	assert.Equal(t, 0, snap.CurrentBeat)
	assert.Len(t, melody(rec), 1, "lands on one note")
}

func TestFastRhythmRunsToBound(t *testing.T) {
	e, rec, _ := newTestEngine(t, &fixedRand{v: 0.99})
	e.st.clearSpecials()
	e.st.FastRhythm = &composer.FastRhythm{Template: composer.FastRhythmTemplates[0]}

	// Counter moves every second tick at four subdivisions, bound is 8.
	for i := 0; i < 16; i++ {
		require.Equal(t, FastRhythm, e.Snapshot().Special, "tick %d", i)
		require.NoError(t, e.Tick())
	}
	assert.Equal(t, Normal, e.Snapshot().Special)

	notes := melody(rec)
	require.Len(t, notes, 16)
	for i, p := range notes {
		assert.Equal(t, []int{60, 65}[i%2], p, "tick %d", i)
	}
}

func TestJhalaEntryAndExit(t *testing.T) {
	rng := &fixedRand{v: 0.99}
	e, rec, _ := newTestEngine(t, rng)
	e.st.clearSpecials()
	e.st.Sequence = composer.Sequence{60, composer.Rest, 64, composer.Rest}

	rng.v = 0.005
	require.NoError(t, e.Tick())
	require.NotNil(t, e.st.Jhala)
	assert.Equal(t, 16, e.st.Jhala.Duration, "four beats of four slots")
	assert.Equal(t, 1, e.st.Jhala.Counter)

	rng.v = 0.99
	for i := 1; i < 16; i++ {
		require.Equal(t, Jhala, e.Snapshot().Special)
		require.NoError(t, e.Tick())
	}
	assert.Nil(t, e.st.Jhala)

	notes := melody(rec)
	require.Len(t, notes, 16, "one note every slot, rests included")
	assert.Equal(t, 60, notes[0])
	assert.Equal(t, 64, notes[2])
	for _, p := range notes {
		assert.Contains(t, []int{60, 64}, p)
	}
}

func TestOrnamentNoteLengths(t *testing.T) {
	// rhythm tempo: 500ms beats, four slots per beat
	e, rec, _ := newTestEngine(t, &fixedRand{v: 0.99}, WithMode(Rhythm))
	e.st.clearSpecials()
	e.st.FastRhythm = &composer.FastRhythm{Template: composer.FastRhythmTemplates[0]}
	require.NoError(t, e.Tick())

	e.st.clearSpecials()
	e.st.Jhala = &JhalaRun{Duration: 16}
	require.NoError(t, e.Tick())

	var durs []time.Duration
	for _, ev := range rec.Only(midi.KindNote) {
		if ev.Channel == midi.Melody {
			durs = append(durs, ev.Duration)
		}
	}
	assert.Equal(t, []time.Duration{62500 * time.Microsecond, 15625 * time.Microsecond}, durs,
		"half a beat and half a slot, each sent at a quarter")
}

func TestFallbackPitchesStayInRange(t *testing.T) {
	r := testRaga()
	r.Vadi = 105
	r.Samvadi = 100
	e, rec, _ := newTestEngine(t, &fixedRand{v: 0.99})
	require.NoError(t, e.LoadRaga(r))
	e.st.clearSpecials()
	e.st.Sequence = composer.Sequence{composer.Rest, composer.Rest}
	e.st.Jhala = &JhalaRun{Duration: 16}

	require.NoError(t, e.Tick())
	assert.Equal(t, []int{81}, melody(rec), "vadi folded into range")
	for _, ev := range rec.Only(midi.KindLit) {
		assert.LessOrEqual(t, ev.Pitches[0], composer.HighestPitch)
	}
}

func TestRefreshRestartsBassline(t *testing.T) {
	e, _, _ := newTestEngine(t, &fixedRand{v: 0.99})
	e.st.BassIndex = 3
	e.refresh(false)
	assert.Equal(t, 0, e.st.BassIndex)
}

func TestFillBarThenDeferredRefresh(t *testing.T) {
	e, _, _ := newTestEngine(t, &fixedRand{v: 0.99}, WithMode(Rhythm))
	e.st.clearSpecials()
	e.st.Cadence.BarCounter = 0
	e.st.Cadence.BarsUntilFill = 1
	e.st.Cadence.BarsUntilRefresh = 1
	e.st.Cadence.BarsUntilFocusChange = 100
	marker := composer.Sequence{67, composer.Rest, 69, composer.Rest}
	e.st.Sequence = marker

	slots := e.st.Signature.SlotsPerBar()
	for i := 0; i < slots-1; i++ {
		require.NoError(t, e.Tick())
		assert.False(t, e.Snapshot().Filling, "tick %d", i)
	}
	groove := e.st.Pattern
	require.NotNil(t, groove)

	// bar 1 ends: the fill takes the next bar and the refresh waits
	require.NoError(t, e.Tick())
	snap := e.Snapshot()
	assert.True(t, snap.Filling)
	assert.Equal(t, marker, snap.Sequence)
	assert.Same(t, groove, e.st.Pattern, "groove kept under the fill")

	for i := 0; i < slots-1; i++ {
		require.NoError(t, e.Tick())
		assert.True(t, e.Snapshot().Filling, "fill lasts the whole bar, tick %d", i)
		assert.Equal(t, marker, e.Snapshot().Sequence)
	}

	// bar 2 ends: fill gone, groove regenerated, deferred refresh ran
	require.NoError(t, e.Tick())
	snap = e.Snapshot()
	assert.False(t, snap.Filling)
	assert.NotSame(t, groove, e.st.Pattern)
	assert.NotEqual(t, marker, snap.Sequence)
	assert.Equal(t, 0, e.st.Cadence.BarCounter)
}

func TestJhalaOutranksFastRhythm(t *testing.T) {
	st := State{
		Jhala:      &JhalaRun{Duration: 4},
		FastRhythm: &composer.FastRhythm{Template: composer.FastRhythmTemplates[0]},
		Tihai:      &composer.Tihai{Pattern: composer.TihaiPatterns[0]},
	}
	assert.Equal(t, Jhala, st.Special())
	st.Jhala = nil
	assert.Equal(t, FastRhythm, st.Special())
	st.FastRhythm = nil
	assert.Equal(t, Tihai, st.Special())
	st.Tihai = nil
	assert.Equal(t, Normal, st.Special())
}

func TestFocusGatesGroups(t *testing.T) {
	tests := []struct {
		focus              Focus
		melody, pad, bassN int
	}{
		{Full, 1, 1, 1},
		{MelodyOnly, 1, 0, 0},
		{BassOnly, 0, 1, 1},
		{RhythmOnly, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.focus.String(), func(t *testing.T) {
			e, rec, _ := newTestEngine(t, &fixedRand{v: 0.99})
			e.st.clearSpecials()
			e.st.Sequence = composer.Sequence{67, composer.Rest}
			e.st.Cadence.Focus = tt.focus
			rec.Reset()

			require.NoError(t, e.Tick())
			count := map[midi.Channel]int{}
			for _, ev := range rec.Only(midi.KindNote) {
				count[ev.Channel]++
			}
			assert.Equal(t, tt.melody, count[midi.Melody])
			assert.Equal(t, tt.pad, count[midi.Pad])
			assert.Equal(t, tt.bassN, count[midi.Bass])
			assert.Len(t, rec.Only(midi.KindLit), 1, "lights follow every note")
		})
	}
}

func TestBasslineWalksTwoOctavesDown(t *testing.T) {
	e, rec, _ := newTestEngine(t, &fixedRand{v: 0.99})
	e.st.clearSpecials()
	e.st.Sequence = composer.Sequence{67, 67, 67, 67}
	for i := 0; i < 4; i++ {
		require.NoError(t, e.Tick())
	}
	var bass []int
	for _, ev := range rec.Only(midi.KindNote) {
		if ev.Channel == midi.Bass {
			bass = append(bass, ev.Pitches[0])
		}
	}
	assert.Equal(t, []int{45, 45, 52, 45}, bass)
}

func TestDrumsFollowFocus(t *testing.T) {
	var p composer.Pattern
	p[composer.Kick][0] = composer.Primary
	p[composer.Hats][0] = composer.Primary
	p[composer.Hats][1] = composer.Secondary
	p[composer.Ride][1] = composer.Primary

	hits := func(focus Focus) []midi.Voice {
		e, rec, _ := newTestEngine(t, &fixedRand{v: 0.99}, WithMode(Rhythm))
		e.st.clearSpecials()
		e.st.Sequence = composer.Sequence{composer.Rest}
		e.st.Pattern = &p
		e.st.Cadence.Focus = focus
		require.NoError(t, e.Tick())
		require.NoError(t, e.Tick())
		var out []midi.Voice
		for _, ev := range rec.Only(midi.KindHit) {
			out = append(out, ev.Voice)
		}
		return out
	}

	assert.Equal(t, []midi.Voice{midi.VoiceKick, midi.VoiceClosedHat, midi.VoiceRide, midi.VoiceOpenHat}, hits(Full))
	assert.Equal(t, []midi.Voice{midi.VoiceClosedHat}, hits(MelodyOnly))
}

type failingSink struct {
	NopSound
	panics bool
}

func (f failingSink) NoteOn(int, time.Duration, float64, midi.Channel) error {
	if f.panics {
		panic("synth crashed")
	}
	return errors.New("port closed")
}

func TestBrokenSinkDoesNotStopLoop(t *testing.T) {
	for _, panics := range []bool{false, true} {
		var got []error
		e, _, sched := newTestEngine(t, nil,
			WithSound(failingSink{panics: panics}),
			WithErrorHandler(func(err error) { got = append(got, err) }))
		require.NoError(t, e.Start())
		assert.Equal(t, 40, sched.Run(40))
		assert.True(t, sched.Pending())
		require.NotEmpty(t, got)
		assert.True(t, errs.Is(got[0], errs.CollaboratorUnavailable))
		assert.Equal(t, len(got), e.Errors())
	}
}

func TestFanoutReachesEverySink(t *testing.T) {
	rec := &midi.Recorder{}
	var streamed []midi.Event
	tap := &midi.Recorder{Discard: true, OnEvent: func(ev midi.Event) { streamed = append(streamed, ev) }}
	f := SoundFanout{failingSink{}, rec, tap}

	err := f.NoteOn(60, time.Second, 1, midi.Melody)
	require.Error(t, err, "first error is returned")
	require.NoError(t, f.SetEffects(midi.EffectParams{Reverb: 0.5}))

	assert.Len(t, rec.Events(), 2)
	assert.Empty(t, tap.Events())
	assert.Len(t, streamed, 2)
}

func TestOverrunCounterResetsToNormal(t *testing.T) {
	var got []error
	e, _, _ := newTestEngine(t, &fixedRand{v: 0.99}, WithErrorHandler(func(err error) { got = append(got, err) }))
	e.st.FastRhythm = &composer.FastRhythm{Template: composer.FastRhythmTemplates[0], Counter: 99}

	require.NoError(t, e.Tick())
	assert.Equal(t, Normal, e.Snapshot().Special)
	require.Len(t, got, 1)
	assert.True(t, errs.Is(got[0], errs.InvariantViolation))
}

func TestSeededRunsMatch(t *testing.T) {
	run := func() []midi.Event {
		e, rec, sched := newTestEngine(t, nil, WithMode(Rhythm), WithSeed(42))
		require.NoError(t, e.Start())
		sched.Run(128)
		return rec.Events()
	}
	assert.Equal(t, run(), run())
}

func TestUpdatesNeverBlock(t *testing.T) {
	e, _, _ := newTestEngine(t, nil)
	for i := 0; i < 10; i++ {
		require.NoError(t, e.Tick())
	}
	select {
	case <-e.Updates():
	default:
		t.Fatal("expected an update")
	}
}
