package sequencer

import (
	"sync"
	"time"
)

// Scheduler runs one pending callback after a delay. Scheduling again
// replaces whatever was pending.
type Scheduler interface {
	ScheduleNext(delay time.Duration, fn func())
	Cancel()
}

// TimerScheduler runs callbacks on a time.Timer goroutine.
type TimerScheduler struct {
	mu    sync.Mutex
	timer *time.Timer
}

func NewTimerScheduler() *TimerScheduler {
	return &TimerScheduler{}
}

func (s *TimerScheduler) ScheduleNext(delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(delay, fn)
}

func (s *TimerScheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// ManualScheduler is a synchronous clock: nothing runs until Step is
// called. The engine's own loop re-arms it after each callback.
type ManualScheduler struct {
	mu      sync.Mutex
	pending func()
	delay   time.Duration
	elapsed time.Duration
	delays  []time.Duration
}

func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

func (s *ManualScheduler) ScheduleNext(delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = fn
	s.delay = delay
	s.delays = append(s.delays, delay)
}

func (s *ManualScheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
}

// Pending reports whether a callback is armed.
func (s *ManualScheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

// Step runs the pending callback, if any, and reports whether it did.
func (s *ManualScheduler) Step() bool {
	s.mu.Lock()
	fn := s.pending
	s.pending = nil
	if fn != nil {
		s.elapsed += s.delay
	}
	s.mu.Unlock()

	if fn == nil {
		return false
	}
	fn()
	return true
}

// Run steps n times or until nothing is pending; it returns the steps run.
func (s *ManualScheduler) Run(n int) int {
	i := 0
	for ; i < n && s.Step(); i++ {
	}
	return i
}

// Elapsed is the sum of delays of the callbacks run so far.
func (s *ManualScheduler) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsed
}

// Delays lists every delay requested, in order.
func (s *ManualScheduler) Delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}
