package orchestrator

import "time"

// Timer is a pending callback that can be stopped
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks. Callbacks run on their own goroutine and must
// hand work back to the loop.
type Clock interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

// RealClock uses the runtime timers.
type RealClock struct{}

func (RealClock) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}
