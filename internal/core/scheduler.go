package core

import (
	"sync"
	"time"

	"presence.monitor/pkg/clock"
)

// LiveInterval is the refresh period of the running elapsed-time display.
const LiveInterval = time.Second

// Scheduler owns the two repeating timers: the network poll and the live
// elapsed-time tick. Each can be stopped without touching the other.
type Scheduler struct {
	clock clock.Clock

	mu   sync.Mutex
	poll *repeater
	live *repeater
}

// NewScheduler returns a scheduler with both timers stopped.
func NewScheduler(c clock.Clock) *Scheduler {
	return &Scheduler{clock: c}
}

// StartPoll replaces the poll timer. A non-positive interval only stops
// the current one.
func (s *Scheduler) StartPoll(interval time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.poll != nil {
		s.poll.stop()
		s.poll = nil
	}
	if interval > 0 {
		s.poll = startRepeater(s.clock, interval, fn)
	}
}

// StopPoll cancels the poll timer.
func (s *Scheduler) StopPoll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.poll != nil {
		s.poll.stop()
		s.poll = nil
	}
}

// StartLive starts the live timer unless it is already running.
func (s *Scheduler) StartLive(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.live == nil {
		s.live = startRepeater(s.clock, LiveInterval, fn)
	}
}

// StopLive cancels the live timer.
func (s *Scheduler) StopLive() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.live != nil {
		s.live.stop()
		s.live = nil
	}
}

// PollActive reports whether the poll timer is armed.
func (s *Scheduler) PollActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.poll != nil
}

// LiveActive reports whether the live timer is armed.
func (s *Scheduler) LiveActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live != nil
}

// Stop cancels both timers.
func (s *Scheduler) Stop() {
	s.StopPoll()
	s.StopLive()
}

// repeater re-arms a one-shot timer after each run of fn, so a slow fn
// delays the next fire instead of overlapping with it.
type repeater struct {
	every time.Duration
	fn    func()

	mu      sync.Mutex
	timer   *clock.Timer
	stopped bool
}

func startRepeater(c clock.Clock, every time.Duration, fn func()) *repeater {
	r := &repeater{every: every, fn: fn}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timer = c.AfterFunc(every, r.fire)
	return r
}

func (r *repeater) fire() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	r.fn()

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.stopped {
		r.timer.Reset(r.every)
	}
}

func (r *repeater) stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	if r.timer != nil {
		r.timer.Stop()
	}
}
