package clock

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Loop is a real-time clock whose callbacks run on the host event loop.
// Timers expire on runtime goroutines; the expired callbacks are queued and
// only executed by [Loop.Run] or [Loop.Drain]. Call [Loop.Close] when the
// host loop stops so that expiring timers do not wait on a full queue.
type Loop struct {
	queue     chan *loopTimer
	done      chan struct{}
	closeOnce sync.Once
}

// NewLoop creates a loop clock that can hold buffer expired callbacks
// before timer goroutines block.
func NewLoop(buffer int) *Loop {
	if buffer <= 0 {
		buffer = 64
	}
	return &Loop{queue: make(chan *loopTimer, buffer), done: make(chan struct{})}
}

// Close stops handing expired callbacks to the host loop. Timers that
// expire afterwards are dropped.
func (l *Loop) Close() {
	l.closeOnce.Do(func() { close(l.done) })
}

// Now returns the wall clock time.
func (l *Loop) Now() time.Time { return time.Now() }

// AfterFunc arms a real timer; f is queued for the host loop when it expires.
func (l *Loop) AfterFunc(d time.Duration, f func()) Timer {
	t := &loopTimer{f: f}
	t.timer = time.AfterFunc(d, func() {
		if t.state.Load() != timerPending {
			return
		}
		select {
		case <-l.done:
			return
		default:
		}
		select {
		case l.queue <- t:
		case <-l.done:
		}
	})
	return t
}

// Run executes queued callbacks until ctx is cancelled or the loop is
// closed.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return nil
		case t := <-l.queue:
			t.fire()
		}
	}
}

// Drain executes every callback that is already queued without waiting and
// returns how many ran.
func (l *Loop) Drain() int {
	n := 0
	for {
		select {
		case t := <-l.queue:
			if t.fire() {
				n++
			}
		default:
			return n
		}
	}
}

const (
	timerPending int32 = iota
	timerDone
)

type loopTimer struct {
	timer *time.Timer
	state atomic.Int32
	f     func()
}

func (t *loopTimer) fire() bool {
	if !t.state.CompareAndSwap(timerPending, timerDone) {
		return false
	}
	t.f()
	return true
}

func (t *loopTimer) Stop() bool {
	t.timer.Stop()
	return t.state.CompareAndSwap(timerPending, timerDone)
}

var _ Clock = (*Loop)(nil)
