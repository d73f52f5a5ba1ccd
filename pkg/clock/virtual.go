package clock

import (
	"slices"
	"time"
)

// Virtual is a manually advanced clock. It is not safe for concurrent use.
type Virtual struct {
	now    time.Time
	seq    uint64
	timers []*virtualTimer // ordered by due time, then scheduling order
}

// NewVirtual creates a virtual clock starting at start. A zero start uses
// the Unix epoch so runs are reproducible.
func NewVirtual(start time.Time) *Virtual {
	if start.IsZero() {
		start = time.Unix(0, 0).UTC()
	}
	return &Virtual{now: start}
}

// Now returns the current virtual time.
func (v *Virtual) Now() time.Time { return v.now }

// AfterFunc schedules f to run once the clock has been advanced by d.
// Negative delays are treated as zero.
func (v *Virtual) AfterFunc(d time.Duration, f func()) Timer {
	if d < 0 {
		d = 0
	}
	v.seq++
	t := &virtualTimer{clock: v, due: v.now.Add(d), seq: v.seq, f: f}
	i, _ := slices.BinarySearchFunc(v.timers, t, compareTimers)
	v.timers = slices.Insert(v.timers, i, t)
	return t
}

// Advance moves the clock forward by d, firing every callback that becomes
// due in order. Callbacks scheduled while advancing fire in the same call
// if they fall within the window. Returns the number of callbacks fired.
func (v *Virtual) Advance(d time.Duration) int {
	target := v.now.Add(d)
	fired := 0
	for len(v.timers) > 0 && !v.timers[0].due.After(target) {
		t := v.timers[0]
		v.timers = v.timers[1:]
		v.now = t.due
		t.done = true
		t.f()
		fired++
	}
	v.now = target
	return fired
}

// RunAll advances until no callbacks are pending and returns the number of
// callbacks fired. Callbacks that keep rescheduling themselves are bounded
// by limit; a limit of zero means 10000.
func (v *Virtual) RunAll(limit int) int {
	if limit <= 0 {
		limit = 10000
	}
	fired := 0
	for len(v.timers) > 0 && fired < limit {
		fired += v.Advance(v.timers[0].due.Sub(v.now))
	}
	return fired
}

// Pending returns the number of scheduled callbacks.
func (v *Virtual) Pending() int { return len(v.timers) }

// Next returns the delay until the next scheduled callback.
func (v *Virtual) Next() (time.Duration, bool) {
	if len(v.timers) == 0 {
		return 0, false
	}
	return v.timers[0].due.Sub(v.now), true
}

func (v *Virtual) remove(t *virtualTimer) {
	v.timers = slices.DeleteFunc(v.timers, func(o *virtualTimer) bool { return o == t })
}

type virtualTimer struct {
	clock *Virtual
	due   time.Time
	seq   uint64
	f     func()
	done  bool
}

func (t *virtualTimer) Stop() bool {
	if t.done {
		return false
	}
	t.done = true
	t.clock.remove(t)
	return true
}

func compareTimers(a, b *virtualTimer) int {
	if c := a.due.Compare(b.due); c != 0 {
		return c
	}
	switch {
	case a.seq < b.seq:
		return -1
	case a.seq > b.seq:
		return 1
	}
	return 0
}

var _ Clock = (*Virtual)(nil)
