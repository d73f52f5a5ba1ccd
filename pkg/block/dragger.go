package block

import (
	"github.com/matzehuels/blockstack/pkg/geom"
	"github.com/matzehuels/blockstack/pkg/observability"
)

// Dragger drives one drag gesture of a block stack. Deltas are screen
// pixels relative to where the gesture started.
type Dragger struct {
	block     *Block
	ws        *Workspace
	startXY   geom.Coordinate
	moveEvent *MoveEvent
	ownsGroup bool
	started   bool
}

// NewDragger creates a dragger for b.
func NewDragger(b *Block) *Dragger {
	return &Dragger{block: b, ws: b.ws}
}

// Block returns the dragged block.
func (d *Dragger) Block() *Block { return d.block }

// Start begins the drag. The block is unplugged from its parent (with
// healStack, the blocks below it stay behind) and moved to the drag
// surface.
func (d *Dragger) Start(delta geom.Coordinate, healStack bool) error {
	b, ws := d.block, d.ws
	if b.isDead() || d.started {
		return nil
	}
	if ws.group == "" {
		ws.NewGroup()
		d.ownsGroup = true
	}
	ws.setResizesEnabled(false)
	d.moveEvent = b.newMoveEvent()
	d.startXY = b.Position()

	if b.Parent() != nil || (healStack && b.next != nil && b.next.IsConnected()) {
		if err := b.Unplug(healStack); err != nil {
			d.abort()
			return err
		}
		loc := d.startXY.Add(ws.pixelsToUnits(delta))
		b.translate(loc.X, loc.Y)
	}

	ws.drag.begin(b)
	ws.selection.Select(b)
	if err := b.MoveToDragSurface(); err != nil {
		ws.drag.reset()
		d.abort()
		return err
	}
	d.started = true
	ws.logger.Debug("drag started", "block", b.id, "x", d.startXY.X, "y", d.startXY.Y)
	observability.Engine().OnDrag(b.id, true)
	return nil
}

// Drag moves the stack to the start position plus delta.
func (d *Dragger) Drag(delta geom.Coordinate) {
	if !d.started {
		return
	}
	d.block.MoveDuringDrag(d.startXY.Add(d.ws.pixelsToUnits(delta)))
}

// End finishes the drag at delta. The stack is put back on the canvas and
// connected to the closest compatible connection in range, if any.
// Grid snapping and neighbour bumping are scheduled afterwards.
func (d *Dragger) End(delta geom.Coordinate) error {
	if !d.started {
		return nil
	}
	d.started = false
	b, ws := d.block, d.ws
	defer d.abort()
	if b.isDead() {
		b.releaseDragSurface()
		ws.drag.reset()
		observability.Engine().OnDrag(b.id, false)
		return nil
	}

	du := ws.pixelsToUnits(delta)
	loc := d.startXY.Add(du)
	b.MoveDuringDrag(loc)
	b.MoveOffDragSurface(loc)
	b.MoveConnections(du.X, du.Y)

	local, target := d.closestConnection()
	ws.drag.reset()
	d.moveEvent.recordNew(b)
	ws.fire(d.moveEvent)
	ws.logger.Debug("drag ended", "block", b.id, "x", loc.X, "y", loc.Y, "connected", target != nil)
	observability.Engine().OnDrag(b.id, false)

	var err error
	if target != nil {
		err = local.Connect(target)
	} else {
		err = b.Render(true)
	}
	b.ScheduleSnapAndBump()
	return err
}

// abort restores workspace state owned by the gesture.
func (d *Dragger) abort() {
	d.ws.setResizesEnabled(true)
	if d.ownsGroup {
		d.ws.group = ""
		d.ownsGroup = false
	}
}

// closestConnection finds the nearest pair of a connection on the dragged
// stack and a compatible connection elsewhere within the connecting
// radius.
func (d *Dragger) closestConnection() (local, target *Connection) {
	b, ws := d.block, d.ws
	var candidates []*Connection
	for _, c := range []*Connection{b.output, b.previous, b.next} {
		if c != nil {
			candidates = append(candidates, c)
		}
	}
	if last := b.lastConnectionInStack(); last != nil && last != b.next {
		candidates = append(candidates, last)
	}
	radius := ws.cfg.ConnectingSnapRadius
	for _, c := range candidates {
		if c.IsConnected() {
			continue
		}
		found, dist := ws.dbs[c.typ.Opposite()].Closest(c.Position(), radius, func(o *Connection) bool {
			if ws.drag.Dragging(o) || o.hidden || o.block.isDead() {
				return false
			}
			// An inferior connection can only be taken from the top of a stack.
			if !o.IsSuperior() && o.IsConnected() {
				return false
			}
			return c.CanConnect(o) == nil
		})
		if found != nil && dist <= radius {
			local, target, radius = c, found, dist
		}
	}
	return local, target
}
