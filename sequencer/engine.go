package sequencer

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"go-raga/composer"
	"go-raga/debug"
	"go-raga/errs"
	"go-raga/raga"
)

// Engine owns the composition state and the tick loop. All state changes
// happen inside a tick or, for control requests made while playing, at the
// start of the next tick.
type Engine struct {
	mu      sync.Mutex
	st      State
	pending []func()
	gen     uint64 // bumps on every arm; stale callbacks compare and quit

	seed   uint64
	rng    composer.Rand
	gen8r  *composer.Generator
	noise  noise
	sound  SoundSink
	visual VisualSink
	sched  Scheduler

	onError func(error)
	errors  int

	// Notify TUI of updates
	updates chan struct{}
}

// Option configures an Engine.
type Option func(*Engine)

// WithSeed makes the performance reproducible.
func WithSeed(seed uint64) Option {
	return func(e *Engine) {
		e.seed = seed
		e.rng = composer.NewRand(seed)
	}
}

// WithRand replaces the random source; the noise seed is left alone.
func WithRand(rng composer.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

func WithSound(s SoundSink) Option {
	return func(e *Engine) {
		if s != nil {
			e.sound = s
		}
	}
}

func WithVisual(v VisualSink) Option {
	return func(e *Engine) {
		if v != nil {
			e.visual = v
		}
	}
}

func WithScheduler(s Scheduler) Option {
	return func(e *Engine) { e.sched = s }
}

func WithTimeSignature(sig composer.TimeSignature) Option {
	return func(e *Engine) { e.st.Signature = sig }
}

func WithMode(m Mode) Option {
	return func(e *Engine) { e.st.Mode = m }
}

// WithErrorHandler receives every non-fatal error the tick loop swallows.
func WithErrorHandler(fn func(error)) Option {
	return func(e *Engine) { e.onError = fn }
}

// New builds a stopped engine with no raga loaded.
func New(opts ...Option) *Engine {
	e := &Engine{
		seed:    uint64(time.Now().UnixNano()),
		sound:   NopSound{},
		visual:  NopVisual{},
		updates: make(chan struct{}, 1),
	}
	e.st.Signature = composer.DefaultTimeSignature
	e.st.LastNote = composer.Rest
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = composer.NewRand(e.seed)
	}
	if e.sched == nil {
		e.sched = NewTimerScheduler()
	}
	e.gen8r = composer.NewGenerator(e.rng)
	e.noise = newNoise(int64(e.seed))
	return e
}

// LoadRaga validates r and swaps it in, discarding everything generated for
// the previous raga. Invalid ragas are rejected here, never mid-tick.
func (e *Engine) LoadRaga(r *raga.Raga) error {
	if err := r.Validate(); err != nil {
		return err
	}
	e.request(func() { e.applyRaga(r) })
	return nil
}

// SetMode switches mode and restarts the bar.
func (e *Engine) SetMode(m Mode) error {
	if m < Ambient || m > Interaction {
		return errs.Config(fmt.Sprintf("unknown mode %d", int(m)), "Unknown mode")
	}
	e.request(func() {
		e.st.Mode = m
		e.st.resetPlayback()
		e.st.Pattern = nil
		debug.Log("engine", "mode -> %s", m)
	})
	return nil
}

// SetTimeSignature changes the meter. The current bar is cut short and a
// new bar in the new meter begins with a fresh sequence.
func (e *Engine) SetTimeSignature(sig composer.TimeSignature) error {
	if err := sig.Validate(); err != nil {
		return err
	}
	e.request(func() {
		e.st.Signature = sig
		e.st.resetPlayback()
		if e.st.Raga != nil {
			e.refresh(false)
		}
		debug.Log("engine", "time signature -> %s", sig)
	})
	return nil
}

// Start arms the first tick. It fails if no raga is loaded.
func (e *Engine) Start() error {
	e.mu.Lock()
	if e.st.Raga == nil {
		e.mu.Unlock()
		return errs.Config("start without a raga", "Choose a raga before starting")
	}
	if e.st.Playing {
		e.mu.Unlock()
		return nil
	}
	e.st.Playing = true
	e.gen++
	gen := e.gen
	debug.Log("engine", "start %s session %s", e.st.Raga.Name, e.st.SessionID)
	e.mu.Unlock()

	e.sched.ScheduleNext(0, func() { e.run(gen) })
	e.notify()
	return nil
}

// Stop cancels the pending tick and silences the sinks. State is kept so
// Start resumes where it stopped.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.st.Playing {
		e.mu.Unlock()
		return
	}
	e.st.Playing = false
	e.gen++
	e.applyPending()
	e.safe("all notes off", e.sound.AllNotesOff)
	e.mu.Unlock()

	e.sched.Cancel()
	debug.Log("engine", "stop")
	e.notify()
}

// Playing reports whether the tick loop is armed.
func (e *Engine) Playing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.st.Playing
}

// Tick runs one tick immediately, outside the scheduler.
func (e *Engine) Tick() error {
	e.mu.Lock()
	if e.st.Raga == nil && len(e.pending) == 0 {
		e.mu.Unlock()
		return errs.Config("tick without a raga", "Choose a raga before starting")
	}
	e.tickSafely()
	e.mu.Unlock()
	e.notify()
	return nil
}

// Interval is the delay until the next tick at the current tempo.
func (e *Engine) Interval() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.interval()
}

// Snapshot copies the state for display.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.st.snapshot()
}

// Updates signals after each tick. Slow readers miss intermediate ticks.
func (e *Engine) Updates() <-chan struct{} {
	return e.updates
}

// Errors counts the non-fatal errors swallowed so far.
func (e *Engine) Errors() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.errors
}

func (e *Engine) run(gen uint64) {
	e.mu.Lock()
	if !e.st.Playing || gen != e.gen {
		e.mu.Unlock()
		return
	}
	e.tickSafely()
	delay := e.interval()
	e.gen++
	next := e.gen
	e.mu.Unlock()

	e.notify()
	e.sched.ScheduleNext(delay, func() { e.run(next) })
}

// tickSafely runs a tick; a panic resets the special states and the loop
// carries on.
func (e *Engine) tickSafely() {
	defer func() {
		if r := recover(); r != nil {
			e.st.clearSpecials()
			e.report(errs.Invariant(fmt.Sprintf("tick panicked: %v", r)))
		}
	}()
	e.applyPending()
	if e.st.Raga == nil {
		return
	}
	e.tick()
}

func (e *Engine) request(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.st.Playing {
		e.pending = append(e.pending, fn)
		return
	}
	fn()
}

func (e *Engine) applyPending() {
	for _, fn := range e.pending {
		fn()
	}
	e.pending = nil
}

func (e *Engine) applyRaga(r *raga.Raga) {
	st := &e.st
	st.Raga = r
	st.SessionID = uuid.New()
	st.Cadence = NewCadence(e.rng)
	st.resetPlayback()
	st.Pattern = nil
	e.refresh(false)
	debug.Log("raga", "loaded %s (%d up, %d down, %d motifs) session %s",
		r.Name, len(r.Ascending), len(r.Descending), len(r.Motifs), st.SessionID)
}

// refresh regenerates the sequence and restarts the bassline. Special
// states the new bar asks for are installed only if none is running.
func (e *Engine) refresh(regenPattern bool) {
	st := &e.st
	res := e.gen8r.Generate(st.Raga, st.Signature)
	st.Sequence = res.Sequence
	if st.Special() == Normal {
		st.FastRhythm = res.FastRhythm
		st.Tihai = res.Tihai
	}
	st.Bassline = composer.Bassline(st.Raga)
	st.BassIndex = 0
	if regenPattern {
		st.Pattern = composer.GeneratePattern(st.Cadence.Intensity, e.rng)
	}
	debug.Log("engine", "refresh: %d slots, fast=%v tihai=%v", len(st.Sequence), res.FastRhythm != nil, res.Tihai != nil)
}

func (e *Engine) interval() time.Duration {
	beat := e.st.BeatDuration()
	if beat <= 0 {
		beat = 60000.0 / RhythmTempo
	}
	return ms(beat / float64(e.st.Signature.SubdivisionsPerBeat))
}

func (e *Engine) notify() {
	select {
	case e.updates <- struct{}{}:
	default:
	}
}

// report logs a swallowed error and hands it to the error handler.
func (e *Engine) report(err error) {
	if err == nil {
		return
	}
	e.errors++
	if errs.Is(err, errs.InvariantViolation) {
		debug.Log("engine", "invariant: %v", err)
	} else {
		debug.LogEvery(50, "sink", "%v", err)
	}
	if e.onError != nil {
		e.onError(err)
	}
}

// safe calls a sink. Errors and panics are reported, never propagated.
func (e *Engine) safe(what string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			e.report(errs.Unavailable(fmt.Errorf("%v", r), what+" panicked"))
		}
	}()
	if err := fn(); err != nil {
		if !errs.Is(err, errs.CollaboratorUnavailable) {
			err = errs.Unavailable(err, what)
		}
		e.report(err)
	}
}

func ms(x float64) time.Duration {
	return time.Duration(x * float64(time.Millisecond))
}
