// Package clock is the only time authority the alarm engine consults.
//
// Clock abstracts wall-clock reads and cancellable scheduled callbacks.
// System is backed by the time package; Manual is advanced explicitly and
// makes every timer in the engine deterministic under test.
package clock

import "time"

// Clock reads the current local time and schedules callbacks.
type Clock interface {
	Now() time.Time

	// AfterFunc calls f in its own goroutine (System) or in the caller of
	// Set/Advance (Manual) once d has elapsed.
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a cancellable scheduled callback.
type Timer interface {
	// Stop prevents the callback from firing. It returns false if the
	// callback already fired or the timer was already stopped.
	Stop() bool
}

// System is the real clock. Times are in the local zone.
type System struct{}

var _ Clock = System{}

// Now returns time.Now() in the local zone.
func (System) Now() time.Time {
	return time.Now().Local()
}

// AfterFunc wraps time.AfterFunc.
func (System) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
