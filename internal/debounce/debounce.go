// Package debounce coalesces bursts of requests into a single action that
// runs once a quiet period has elapsed since the last request.
//
// A Scheduler is owned by one goroutine. Timer expiry does not run the action
// directly: it delivers a generation number on C, and the owner calls Fire
// with it. Generations that were superseded by a later Schedule or a Cancel
// are ignored, so a timer racing with a reschedule can never run stale work.
package debounce

import (
	"sync"
	"time"
)

// DefaultQuietPeriod is the delay applied after the last keystroke.
const DefaultQuietPeriod = 500 * time.Millisecond

// Timer is the subset of *time.Timer the scheduler needs.
type Timer interface {
	Stop() bool
}

// Clock creates timers. Tests substitute a manual clock.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Scheduler holds at most one pending action.
type Scheduler struct {
	quiet time.Duration
	clock Clock

	fired chan uint64
	done  chan struct{}
	once  sync.Once

	gen     uint64
	pending func()
	timer   Timer
}

// New returns a Scheduler with the given quiet period. A nil clock uses the
// wall clock and a non-positive period uses DefaultQuietPeriod.
func New(quiet time.Duration, clock Clock) *Scheduler {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Scheduler{
		quiet: quiet,
		clock: clock,
		fired: make(chan uint64, 8),
		done:  make(chan struct{}),
	}
}

// QuietPeriod returns the configured delay.
func (s *Scheduler) QuietPeriod() time.Duration {
	return s.quiet
}

// C delivers the generation of each expired timer.
func (s *Scheduler) C() <-chan uint64 {
	return s.fired
}

// Schedule replaces any pending action with fn and restarts the quiet period.
func (s *Scheduler) Schedule(fn func()) {
	s.stopTimer()
	s.gen++
	s.pending = fn

	gen := s.gen
	s.timer = s.clock.AfterFunc(s.quiet, func() {
		select {
		case s.fired <- gen:
		case <-s.done:
		}
	})
}

// Fire runs the pending action if gen is the current generation. It reports
// whether an action ran.
func (s *Scheduler) Fire(gen uint64) bool {
	if gen != s.gen || s.pending == nil {
		return false
	}
	fn := s.pending
	s.pending = nil
	s.timer = nil
	fn()
	return true
}

// Cancel drops the pending action, if any.
func (s *Scheduler) Cancel() {
	s.stopTimer()
	s.gen++
	s.pending = nil
}

// Pending reports whether an action is waiting for its quiet period.
func (s *Scheduler) Pending() bool {
	return s.pending != nil
}

// Stop cancels the pending action and releases any timer callback blocked on
// delivery. The scheduler must not be used afterwards.
func (s *Scheduler) Stop() {
	s.Cancel()
	s.once.Do(func() { close(s.done) })
}

func (s *Scheduler) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
