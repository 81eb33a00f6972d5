// internal/turntimer/timer.go
package turntimer

import (
	"sync"
	"time"
)

// MinResume is the shortest delay Resume will arm the timer with.
const MinResume = 100 * time.Millisecond

// Func is invoked on the timer goroutine when the countdown expires. The
// generation identifies the arming that fired; owners that serialize the
// callback behind their own lock should check it with Current before acting.
type Func func(generation uint64)

// Timer is a restartable, pausable one-shot countdown.
type Timer struct {
	mu sync.Mutex

	fn       Func
	t        *time.Timer
	gen      uint64
	deadline time.Time

	// remaining is only meaningful while paused
	remaining time.Duration

	running  bool
	paused   bool
	disposed bool
}

// New returns an idle timer that will call fn on expiry.
func New(fn Func) *Timer {
	return &Timer{fn: fn}
}

// Start arms the timer to fire after d, discarding any pending countdown.
func (t *Timer) Start(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.disposed {
		return
	}
	t.paused = false
	t.armLocked(d)
}

// Pause halts the countdown and keeps the remaining time for Resume.
func (t *Timer) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.disposed || !t.running {
		return
	}
	t.haltLocked()
	t.remaining = time.Until(t.deadline)
	if t.remaining < 0 {
		t.remaining = 0
	}
	t.paused = true
}

// Resume continues a paused countdown from where it left off.
func (t *Timer) Resume() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.disposed || !t.paused {
		return
	}
	d := t.remaining
	if d < MinResume {
		d = MinResume
	}
	t.paused = false
	t.armLocked(d)
}

// Stop cancels any pending fire. Safe to call repeatedly and after Dispose.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.disposed {
		return
	}
	t.haltLocked()
	t.paused = false
	t.remaining = 0
}

// Dispose stops the timer for good. Every later call is a no-op.
func (t *Timer) Dispose() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.disposed {
		return
	}
	t.haltLocked()
	t.paused = false
	t.disposed = true
	t.fn = nil
}

// Current reports whether generation is still the live arming, i.e. the
// timer was not restarted, stopped or disposed since it fired.
func (t *Timer) Current(generation uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.disposed && t.gen == generation
}

// Generation returns the identifier of the latest arming.
func (t *Timer) Generation() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.gen
}

// Running reports whether a countdown is pending.
func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Paused reports whether the timer holds a paused countdown.
func (t *Timer) Paused() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.paused
}

// Disposed reports whether Dispose has been called.
func (t *Timer) Disposed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.disposed
}

// Remaining returns the time left on a running or paused countdown.
func (t *Timer) Remaining() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch {
	case t.running:
		if d := time.Until(t.deadline); d > 0 {
			return d
		}
		return 0
	case t.paused:
		return t.remaining
	}
	return 0
}

// armLocked assumes t.mu is held.
func (t *Timer) armLocked(d time.Duration) {
	t.haltLocked()
	t.gen++
	gen := t.gen
	t.deadline = time.Now().Add(d)
	t.running = true
	t.t = time.AfterFunc(d, func() { t.fire(gen) })
}

// haltLocked stops the underlying timer and retires the current generation.
// Assumes t.mu is held.
func (t *Timer) haltLocked() {
	if t.t != nil {
		t.t.Stop()
		t.t = nil
	}
	t.gen++
	t.running = false
}

func (t *Timer) fire(gen uint64) {
	t.mu.Lock()
	if t.disposed || !t.running || gen != t.gen {
		t.mu.Unlock()
		return
	}
	t.running = false
	t.t = nil
	fn := t.fn
	t.mu.Unlock()

	if fn != nil {
		fn(gen)
	}
}
