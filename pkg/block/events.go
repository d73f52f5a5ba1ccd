package block

import (
	"github.com/charmbracelet/log"

	"github.com/matzehuels/blockstack/pkg/geom"
)

// Event kinds.
const (
	KindMove   = "move"
	KindSelect = "select"
	KindChange = "change"
	KindDelete = "delete"
)

// Event is a workspace change notification.
type Event interface {
	Kind() string
	// GroupID returns the event group the change belongs to. Events fired
	// by one user gesture share a group so they can be undone together.
	GroupID() string
}

// EventBus receives workspace events.
type EventBus interface {
	Fire(Event)
}

// MoveEvent records a block changing parent or position.
type MoveEvent struct {
	BlockID     string
	Group       string
	OldParentID string
	OldInput    string
	OldPosition geom.Coordinate
	NewParentID string
	NewInput    string
	NewPosition geom.Coordinate
}

func (e *MoveEvent) Kind() string    { return KindMove }
func (e *MoveEvent) GroupID() string { return e.Group }

// SelectEvent records a selection change. Empty ids mean no selection.
type SelectEvent struct {
	OldID string
	NewID string
	Group string
}

func (e *SelectEvent) Kind() string    { return KindSelect }
func (e *SelectEvent) GroupID() string { return e.Group }

// ChangeEvent records a property change on a block, such as "collapsed",
// "disabled", "comment" or "style".
type ChangeEvent struct {
	BlockID  string
	Group    string
	Element  string
	OldValue any
	NewValue any
}

func (e *ChangeEvent) Kind() string    { return KindChange }
func (e *ChangeEvent) GroupID() string { return e.Group }

// DeleteEvent records the disposal of a block and its descendants.
type DeleteEvent struct {
	BlockID string
	Group   string
	IDs     []string
}

func (e *DeleteEvent) Kind() string    { return KindDelete }
func (e *DeleteEvent) GroupID() string { return e.Group }

// =============================================================================
// Buses
// =============================================================================

// Recorder is an EventBus that keeps every event in order.
type Recorder struct {
	Events []Event
}

// Fire appends e.
func (r *Recorder) Fire(e Event) { r.Events = append(r.Events, e) }

// OfKind returns the recorded events of the given kind.
func (r *Recorder) OfKind(kind string) []Event {
	var out []Event
	for _, e := range r.Events {
		if e.Kind() == kind {
			out = append(out, e)
		}
	}
	return out
}

// Moves returns the recorded move events for blockID.
func (r *Recorder) Moves(blockID string) []*MoveEvent {
	var out []*MoveEvent
	for _, e := range r.Events {
		if m, ok := e.(*MoveEvent); ok && m.BlockID == blockID {
			out = append(out, m)
		}
	}
	return out
}

// Reset drops all recorded events.
func (r *Recorder) Reset() { r.Events = nil }

// LogBus logs every event at debug level and forwards it to Next, if set.
type LogBus struct {
	Logger *log.Logger
	Next   EventBus
}

// Fire logs e and forwards it.
func (b *LogBus) Fire(e Event) {
	if b.Logger != nil {
		b.Logger.Debug("event", "kind", e.Kind(), "group", e.GroupID(), "detail", describeEvent(e))
	}
	if b.Next != nil {
		b.Next.Fire(e)
	}
}

func describeEvent(e Event) string {
	switch ev := e.(type) {
	case *MoveEvent:
		return ev.BlockID
	case *SelectEvent:
		return ev.OldID + "->" + ev.NewID
	case *ChangeEvent:
		return ev.BlockID + "." + ev.Element
	case *DeleteEvent:
		return ev.BlockID
	}
	return ""
}

type nopBus struct{}

func (nopBus) Fire(Event) {}

// =============================================================================
// Move recording
// =============================================================================

// newMoveEvent captures the current location of b.
func (b *Block) newMoveEvent() *MoveEvent {
	ev := &MoveEvent{BlockID: b.id, Group: b.ws.group}
	ev.OldParentID, ev.OldInput, ev.OldPosition = b.location()
	return ev
}

// recordNew captures the location of b after the move.
func (ev *MoveEvent) recordNew(b *Block) {
	ev.NewParentID, ev.NewInput, ev.NewPosition = b.location()
}

// location returns the parent id and input name when b is attached, or its
// workspace position when it is a top block.
func (b *Block) location() (parentID, input string, pos geom.Coordinate) {
	p := b.Parent()
	if p == nil {
		return "", "", b.Position()
	}
	if in := p.inputWithBlock(b); in != nil {
		input = in.name
	}
	return p.id, input, geom.Coordinate{}
}
