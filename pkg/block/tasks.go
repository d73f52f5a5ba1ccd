package block

import (
	"maps"
	"slices"
	"strings"
	"time"
)

// Task keys. Warning tasks are keyed per warning id.
const (
	taskSnap          = "snap"
	taskBump          = "bump"
	taskWarningPrefix = "warning:"
)

func warningTaskKey(id string) string { return taskWarningPrefix + id }

// schedule runs fn after d unless a task with the same key is already
// pending, in which case the call is absorbed by the pending task. fn runs
// under the event group that was current when it was scheduled, and not
// at all if the block has been disposed by then.
func (b *Block) schedule(key string, d time.Duration, fn func()) {
	if _, pending := b.tasks[key]; pending {
		return
	}
	group := b.ws.group
	b.tasks[key] = b.ws.clock.AfterFunc(d, func() {
		delete(b.tasks, key)
		if b.isDead() {
			return
		}
		b.ws.withGroup(group, fn)
	})
}

// reschedule replaces any pending task with the same key.
func (b *Block) reschedule(key string, d time.Duration, fn func()) {
	b.cancelTask(key)
	b.schedule(key, d, fn)
}

func (b *Block) cancelTask(key string) {
	if t, ok := b.tasks[key]; ok {
		t.Stop()
		delete(b.tasks, key)
	}
}

// cancelTasksWithPrefix cancels every pending task whose key starts with
// prefix.
func (b *Block) cancelTasksWithPrefix(prefix string) {
	for _, key := range slices.Collect(maps.Keys(b.tasks)) {
		if strings.HasPrefix(key, prefix) {
			b.cancelTask(key)
		}
	}
}

func (b *Block) cancelTasks() { b.cancelTasksWithPrefix("") }

// PendingTasks returns the keys of the block's pending tasks, sorted.
func (b *Block) PendingTasks() []string {
	return slices.Sorted(maps.Keys(b.tasks))
}
