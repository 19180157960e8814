// Package throttle collapses bursts of calls into at most one execution per
// time window.
package throttle

import (
	"sync"
	"time"
)

// Throttler runs fn at most once per delay. A call arriving within delay of
// the previous execution (or of construction) is deferred to the end of the
// window; later calls in the same window replace its argument, so the
// deferred execution sees the latest one. A call arriving after the window
// has elapsed runs immediately on the caller's goroutine.
type Throttler[T any] struct {
	fn    func(T)
	delay time.Duration

	mu      sync.Mutex
	last    time.Time
	timer   *time.Timer
	gen     uint64
	pending T
	queued  bool
	stopped bool
}

func New[T any](fn func(T), delay time.Duration) *Throttler[T] {
	return &Throttler[T]{fn: fn, delay: delay, last: time.Now()}
}

// Call runs or defers fn(arg). It returns false when the throttler has been
// stopped and the call was dropped.
func (t *Throttler[T]) Call(arg T) bool {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return false
	}
	now := time.Now()
	remaining := t.delay - now.Sub(t.last)
	if remaining <= 0 {
		t.cancelLocked()
		t.last = now
		t.mu.Unlock()
		t.fn(arg)
		return true
	}
	t.pending = arg
	t.queued = true
	if t.timer == nil {
		t.gen++
		gen := t.gen
		t.timer = time.AfterFunc(remaining, func() { t.fire(gen) })
	}
	t.mu.Unlock()
	return true
}

// Flush runs a deferred call now instead of at the end of its window.
// It reports whether there was one.
func (t *Throttler[T]) Flush() bool {
	t.mu.Lock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
		t.gen++
	}
	return t.runPendingLocked()
}

// Stop drops any deferred call; later calls are ignored.
func (t *Throttler[T]) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	t.cancelLocked()
}

// StopIfIdle stops the throttler when nothing is deferred and its window has
// elapsed. It reports whether the throttler is stopped.
func (t *Throttler[T]) StopIfIdle() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return true
	}
	if t.queued || time.Since(t.last) < t.delay {
		return false
	}
	t.stopped = true
	t.cancelLocked()
	return true
}

// Pending reports whether a deferred call is waiting for its window.
func (t *Throttler[T]) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.queued
}

func (t *Throttler[T]) fire(gen uint64) {
	t.mu.Lock()
	if gen != t.gen {
		// superseded by Flush or cancel
		t.mu.Unlock()
		return
	}
	t.timer = nil
	t.runPendingLocked()
}

// runPendingLocked must be called with mu held; it releases it.
func (t *Throttler[T]) runPendingLocked() bool {
	if !t.queued || t.stopped {
		t.mu.Unlock()
		return false
	}
	arg := t.pending
	var zero T
	t.pending = zero
	t.queued = false
	t.last = time.Now()
	t.mu.Unlock()
	t.fn(arg)
	return true
}

func (t *Throttler[T]) cancelLocked() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
		t.gen++
	}
	var zero T
	t.pending = zero
	t.queued = false
}
