package clock

import "time"

// Real returns a Clock backed by the standard time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, fn func()) *Timer {
	timer := time.AfterFunc(d, fn)
	return &Timer{stopFunc: timer.Stop}
}
