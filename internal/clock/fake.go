package clock

import (
	"sync"
	"time"
)

// FakeClock is a Clock whose time only moves when the test calls Advance
// or Set. Timers fire synchronously inside Advance, in deadline order,
// which makes scheduler behavior fully deterministic under test.
//
// Timers armed with a non-positive duration do not fire at arm time;
// they fire on the next Advance call (Advance(0) suffices). Firing at
// arm time would run the callback while the caller still holds its own
// locks, which real time.AfterFunc never does.
type FakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	deadline time.Time
	fn       func()
	stopped  bool
}

// NewFake returns a FakeClock starting at a fixed, arbitrary instant.
func NewFake() *FakeClock {
	return &FakeClock{now: time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)}
}

// Now returns the fake current time.
func (f *FakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// AfterFunc registers fn to run once the fake time reaches now+d.
func (f *FakeClock) AfterFunc(d time.Duration, fn func()) *Timer {
	f.mu.Lock()
	defer f.mu.Unlock()

	t := &fakeTimer{deadline: f.now.Add(d), fn: fn}
	f.timers = append(f.timers, t)
	return &Timer{stopFunc: func() bool { return f.stop(t) }}
}

func (f *FakeClock) stop(t *fakeTimer) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if t.stopped {
		return false
	}
	t.stopped = true
	for i, pending := range f.timers {
		if pending == t {
			f.timers = append(f.timers[:i], f.timers[i+1:]...)
			break
		}
	}
	return true
}

// Advance moves the fake time forward by d and fires every timer whose
// deadline has been reached, in deadline order. Callbacks run on the
// calling goroutine without the clock's lock held, so they may arm new
// timers; timers armed during Advance fire only if their deadline is
// within the already-advanced window.
func (f *FakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()

	for {
		t := f.nextDue()
		if t == nil {
			return
		}
		t.fn()
	}
}

// Set jumps the fake time to the given instant without firing timers.
// Use this to position the clock before arming timers in a test.
func (f *FakeClock) Set(now time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = now
}

// PendingTimers reports how many timers are armed and not yet fired.
func (f *FakeClock) PendingTimers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.timers)
}

func (f *FakeClock) nextDue() *fakeTimer {
	f.mu.Lock()
	defer f.mu.Unlock()

	var due *fakeTimer
	idx := -1
	for i, t := range f.timers {
		if t.deadline.After(f.now) {
			continue
		}
		if due == nil || t.deadline.Before(due.deadline) {
			due = t
			idx = i
		}
	}
	if due == nil {
		return nil
	}
	due.stopped = true
	f.timers = append(f.timers[:idx], f.timers[idx+1:]...)
	return due
}
