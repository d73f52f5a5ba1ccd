// Package clock provides the scheduling primitive used for deferred block
// work (grid snapping, neighbour bumping, debounced warnings).
//
// The block engine is single-threaded: every callback must run on the same
// goroutine as the code that mutates the workspace. Two implementations
// honour that:
//
//   - [Virtual] keeps an ordered queue of callbacks and fires them on the
//     caller's goroutine when [Virtual.Advance] is called. Tests and batch
//     tools use it to step time deterministically.
//   - [Loop] arms real timers but only hands expired callbacks to the host
//     event loop through [Loop.Run] or [Loop.Drain].
package clock

import "time"

// Timer is a handle to a scheduled callback.
type Timer interface {
	// Stop prevents the callback from firing. It reports whether the call
	// stopped the timer; false means it already fired or was stopped.
	Stop() bool
}

// Clock schedules callbacks after a delay.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}
