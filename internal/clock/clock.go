package clock

import "time"

// Clock abstracts the time operations the session core depends on.
//
// Production code injects Real(); tests inject a Fake with deterministic
// time control. Anything that reads the wall clock or schedules a delayed
// callback must go through a Clock rather than the time package directly,
// otherwise the refresh scheduler cannot be tested without sleeping.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// AfterFunc waits for duration d, then calls fn in its own
	// goroutine. Returns a Timer whose Stop method cancels the
	// pending call. A non-positive d schedules an immediate fire.
	AfterFunc(d time.Duration, fn func()) *Timer
}

// Timer represents a single scheduled callback. It is returned by
// Clock.AfterFunc and supports cancel-and-replace scheduling: callers
// that re-arm must Stop the previous Timer first.
type Timer struct {
	stopFunc func() bool
}

// Stop prevents the timer from firing. Returns true if the call stopped
// the timer, false if the timer has already fired or been stopped.
func (t *Timer) Stop() bool { return t.stopFunc() }
