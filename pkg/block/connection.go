package block

import (
	"slices"

	bserrors "github.com/matzehuels/blockstack/pkg/errors"
	"github.com/matzehuels/blockstack/pkg/geom"
	"github.com/matzehuels/blockstack/pkg/observability"
)

// ConnectionType is the role of a connection point.
type ConnectionType int

const (
	// InputValue is the socket of a value or statement input.
	InputValue ConnectionType = iota + 1
	// OutputValue is the plug on the left of a value block.
	OutputValue
	// NextStatement is the notch at the bottom of a statement block.
	NextStatement
	// PreviousStatement is the tab at the top of a statement block.
	PreviousStatement
)

func (t ConnectionType) String() string {
	switch t {
	case InputValue:
		return "input"
	case OutputValue:
		return "output"
	case NextStatement:
		return "next"
	case PreviousStatement:
		return "previous"
	}
	return "unknown"
}

// Opposite returns the type a connection of type t connects to.
func (t ConnectionType) Opposite() ConnectionType {
	switch t {
	case InputValue:
		return OutputValue
	case OutputValue:
		return InputValue
	case NextStatement:
		return PreviousStatement
	case PreviousStatement:
		return NextStatement
	}
	return 0
}

// IsSuperior reports whether connections of type t hold their position
// when connected. Inferior connections follow their partner.
func (t ConnectionType) IsSuperior() bool {
	return t == InputValue || t == NextStatement
}

type trackState int

const (
	willTrack trackState = iota - 1
	untracked
	tracked
)

// Connection is a typed connection point on a block.
type Connection struct {
	block    *Block
	typ      ConnectionType
	x, y     float64
	offset   geom.Coordinate
	target   *Connection
	check    []string
	hidden   bool
	tracking trackState
	disposed bool
}

func newConnection(b *Block, t ConnectionType, check []string) *Connection {
	c := &Connection{block: b, typ: t, check: check, tracking: willTrack}
	if b.ws.cfg.Host.Template {
		c.tracking = untracked
	}
	return c
}

// Block returns the block that owns c.
func (c *Connection) Block() *Block { return c.block }

// Type returns the connection type.
func (c *Connection) Type() ConnectionType { return c.typ }

// IsSuperior reports whether c holds its position when connected.
func (c *Connection) IsSuperior() bool { return c.typ.IsSuperior() }

// Position returns the absolute position of c in workspace units.
func (c *Connection) Position() geom.Coordinate { return geom.Pt(c.x, c.y) }

// Offset returns the position of c relative to its block's top-left corner.
func (c *Connection) Offset() geom.Coordinate { return c.offset }

// Target returns the connected partner, or nil.
func (c *Connection) Target() *Connection { return c.target }

// IsConnected reports whether c has a partner.
func (c *Connection) IsConnected() bool { return c.target != nil }

// TargetBlock returns the block of the connected partner, or nil.
func (c *Connection) TargetBlock() *Block {
	if c.target == nil {
		return nil
	}
	return c.target.block
}

// Check returns the type-check list. An empty list accepts anything.
func (c *Connection) Check() []string { return slices.Clone(c.check) }

// SetCheck replaces the type-check list. An incompatible partner is
// disconnected.
func (c *Connection) SetCheck(check ...string) {
	c.check = check
	if c.target != nil && !checksMatch(c.check, c.target.check) {
		child := c.childBlock()
		if err := c.Disconnect(); err == nil && child != nil && child.rendered {
			child.BumpNeighbours()
		}
	}
}

// Hidden reports whether c is hidden under a collapsed ancestor.
func (c *Connection) Hidden() bool { return c.hidden }

// Tracked reports whether c is currently indexed in its database.
func (c *Connection) Tracked() bool { return c.tracking == tracked }

func (c *Connection) db() *ConnectionDB { return c.block.ws.dbs[c.typ] }

// =============================================================================
// Positioning
// =============================================================================

// moveTo moves c to an absolute position, keeping the database in sync.
// A connection that will be tracked is added on its first move.
func (c *Connection) moveTo(x, y float64) {
	switch c.tracking {
	case willTrack:
		c.x, c.y = x, y
		if !c.hidden {
			c.db().add(c)
			c.tracking = tracked
		}
		return
	case tracked:
		c.db().remove(c)
		c.x, c.y = x, y
		c.db().add(c)
		return
	}
	c.x, c.y = x, y
}

// MoveBy shifts c by a delta.
func (c *Connection) MoveBy(dx, dy float64) { c.moveTo(c.x+dx, c.y+dy) }

// moveToOffset places c at the block's top-left corner plus its offset.
func (c *Connection) moveToOffset(blockTL geom.Coordinate) {
	c.moveTo(blockTL.X+c.offset.X, blockTL.Y+c.offset.Y)
}

// tighten moves the connected child so that both points coincide.
func (c *Connection) tighten() {
	if c.target == nil {
		return
	}
	dx := c.target.x - c.x
	dy := c.target.y - c.y
	if dx == 0 && dy == 0 {
		return
	}
	child := c.target.block
	if child.element == nil {
		return
	}
	t := child.element.Translation()
	child.translate(t.X-dx, t.Y-dy)
	child.MoveConnections(-dx, -dy)
}

// SetTracking adds c to or removes it from its database. Hidden
// connections are never added.
func (c *Connection) SetTracking(track bool) {
	if (track && c.tracking == tracked) || (!track && c.tracking == untracked) {
		return
	}
	if c.block.ws.cfg.Host.Template {
		return
	}
	if track {
		if c.hidden {
			return
		}
		c.db().add(c)
		c.tracking = tracked
		return
	}
	if c.tracking == tracked {
		c.db().remove(c)
	}
	c.tracking = untracked
}

// SetHidden hides or reveals c. Hidden connections leave the database and
// come back when revealed.
func (c *Connection) SetHidden(hidden bool) {
	c.hidden = hidden
	if hidden && c.tracking == tracked {
		c.db().remove(c)
		c.tracking = willTrack
	} else if !hidden && c.tracking == willTrack && c.block.rendered {
		c.db().add(c)
		c.tracking = tracked
	}
}

// hideAll hides c and every connection below its target. Icons in the
// hidden subtree are hidden too.
func (c *Connection) hideAll() {
	c.SetHidden(true)
	child := c.childBlock()
	if child == nil {
		return
	}
	for _, d := range child.Descendants() {
		for _, dc := range d.Connections(true) {
			dc.SetHidden(true)
		}
		for _, icon := range d.Icons() {
			icon.SetVisible(false)
		}
	}
}

// unhideAll reveals c and every connection below its target, stopping at
// collapsed blocks, whose nested connections stay hidden. It returns the
// blocks that need a render.
func (c *Connection) unhideAll() []*Block {
	c.SetHidden(false)
	if !c.IsSuperior() {
		return nil
	}
	child := c.TargetBlock()
	if child == nil {
		return nil
	}
	var renderList []*Block
	for _, cc := range child.revealableConnections() {
		renderList = append(renderList, cc.unhideAll()...)
	}
	if len(renderList) == 0 {
		renderList = []*Block{child}
	}
	return renderList
}

// =============================================================================
// Neighbours and bumping
// =============================================================================

// neighbours returns the tracked connections of the opposite type within
// radius of c. Connections of the dragged stack are excluded.
func (c *Connection) neighbours(radius float64) []*Connection {
	ws := c.block.ws
	found := ws.dbs[c.typ.Opposite()].Neighbours(c.Position(), radius)
	return slices.DeleteFunc(found, func(o *Connection) bool { return ws.drag.Dragging(o) })
}

// bumpAwayFrom moves the root of c's stack so that c sits just below and
// to the right of static (left when mirrored). If that root cannot move,
// the other stack is moved upward instead.
func (c *Connection) bumpAwayFrom(static *Connection) {
	ws := c.block.ws
	if ws.IsDragging() || ws.cfg.Host.Template {
		return
	}
	root := c.block.Root()
	reverse := false
	if !root.Movable() {
		root = static.block.Root()
		if !root.Movable() {
			return
		}
		static = c
		reverse = true
	}
	r := ws.cfg.SnapRadius
	dx := static.x + r + ws.jitter() - c.x
	dy := static.y + r + ws.jitter() - c.y
	if reverse {
		dy = -dy
	}
	if ws.cfg.Host.RTL {
		dx = static.x - r - ws.jitter() - c.x
	}
	root.raise()
	if err := root.MoveBy(dx, dy); err != nil {
		ws.logger.Warn("bump failed", "block", root.id, "err", err)
		return
	}
	ws.logger.Debug("bumped", "block", root.id, "dx", dx, "dy", dy)
	observability.Engine().OnBump(root.id, dx, dy)
}

// =============================================================================
// Connecting
// =============================================================================

// CanConnect reports whether c may be connected to other.
func (c *Connection) CanConnect(other *Connection) error {
	switch {
	case other == nil:
		return bserrors.New(bserrors.ErrCodeIncompatibleConnection, "target connection is nil")
	case c.disposed || other.disposed:
		return bserrors.New(bserrors.ErrCodeIncompatibleConnection, "connection is disposed")
	case c.block == other.block:
		return bserrors.New(bserrors.ErrCodeIncompatibleConnection, "cannot connect block %s to itself", c.block.id)
	case c.block.ws != other.block.ws:
		return bserrors.New(bserrors.ErrCodeIncompatibleConnection, "blocks live in different workspaces")
	case c.typ.Opposite() != other.typ:
		return bserrors.New(bserrors.ErrCodeIncompatibleConnection, "cannot connect %s to %s", c.typ, other.typ)
	case !checksMatch(c.check, other.check):
		return bserrors.New(bserrors.ErrCodeIncompatibleConnection, "type checks %v and %v do not match", c.check, other.check)
	}
	parent, child := c, other
	if !c.IsSuperior() {
		parent, child = other, c
	}
	for p := parent.block; p != nil; p = p.Parent() {
		if p == child.block {
			return bserrors.New(bserrors.ErrCodeIncompatibleConnection, "connecting %s would create a cycle", child.block.id)
		}
	}
	return nil
}

func checksMatch(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return true
	}
	for _, x := range a {
		if slices.Contains(b, x) {
			return true
		}
	}
	return false
}

// Connect connects c to other. Whatever was attached to the superior side
// is re-attached below the new child when possible and bumped otherwise.
func (c *Connection) Connect(other *Connection) error {
	if c.target == other {
		return nil
	}
	if err := c.CanConnect(other); err != nil {
		return err
	}
	parentConn, childConn := c, other
	if !c.IsSuperior() {
		parentConn, childConn = other, c
	}
	parentBlock, childBlock := parentConn.block, childConn.block

	if childConn.target != nil {
		if err := childConn.Disconnect(); err != nil {
			return err
		}
	}
	var orphan *Block
	if parentConn.target != nil {
		orphan = parentConn.TargetBlock()
		if err := parentConn.Disconnect(); err != nil {
			return err
		}
	}

	ev := childBlock.newMoveEvent()
	parentConn.target = childConn
	childConn.target = parentConn
	childBlock.setParent(parentBlock)
	ev.recordNew(childBlock)
	parentBlock.ws.fire(ev)

	if parentConn.hidden {
		parentConn.hideAll()
		if childBlock.element != nil {
			childBlock.element.SetHidden(true)
		}
	}

	if orphan != nil {
		if err := reattachOrphan(parentConn, childBlock, orphan); err != nil {
			return err
		}
	}

	parentBlock.UpdateDisabled()
	if parentBlock.rendered && childBlock.rendered {
		if parentConn.typ == NextStatement {
			return childBlock.Render(true)
		}
		return parentBlock.Render(true)
	}
	return nil
}

// reattachOrphan connects an orphaned block below the new child, or bumps
// it away when there is no compatible free connection.
func reattachOrphan(parentConn *Connection, child, orphan *Block) error {
	var orphanConn, free *Connection
	switch parentConn.typ {
	case InputValue:
		orphanConn = orphan.output
		free = singleFreeValueInput(child, orphanConn)
	case NextStatement:
		orphanConn = orphan.previous
		free = child.lastConnectionInStack()
	}
	if orphanConn == nil {
		return nil
	}
	if free != nil && free.CanConnect(orphanConn) == nil {
		return free.Connect(orphanConn)
	}
	if orphan.rendered {
		orphanConn.bumpAwayFrom(parentConn)
	}
	return nil
}

// singleFreeValueInput returns the only free value input of b that accepts
// conn, descending through occupied single-input chains.
func singleFreeValueInput(b *Block, conn *Connection) *Connection {
	for b != nil {
		var only *Connection
		for _, in := range b.inputs {
			if in.conn == nil || in.typ != ValueInput {
				continue
			}
			if only != nil {
				return nil
			}
			only = in.conn
		}
		if only == nil {
			return nil
		}
		if only.target == nil {
			if checksMatch(only.check, conn.check) {
				return only
			}
			return nil
		}
		b = only.TargetBlock()
	}
	return nil
}

// Disconnect detaches c from its partner. The child becomes a top block at
// its current position.
func (c *Connection) Disconnect() error {
	other := c.target
	if other == nil {
		return nil
	}
	parentConn, childConn := c, other
	if !c.IsSuperior() {
		parentConn, childConn = other, c
	}
	parentBlock, childBlock := parentConn.block, childConn.block

	ev := childBlock.newMoveEvent()
	parentConn.target = nil
	childConn.target = nil
	childBlock.setParent(nil)
	ev.recordNew(childBlock)
	parentBlock.ws.fire(ev)

	if parentConn.hidden {
		if childBlock.element != nil {
			childBlock.element.SetHidden(false)
		}
		for _, cc := range childBlock.revealableConnections() {
			cc.unhideAll()
		}
	}

	if parentBlock.rendered && !parentBlock.isDead() {
		if err := parentBlock.Render(true); err != nil {
			return err
		}
	}
	if childBlock.rendered {
		childBlock.UpdateDisabled()
		if err := childBlock.Render(true); err != nil {
			return err
		}
	}
	return nil
}

// childBlock returns the inferior side's block of a connected pair.
func (c *Connection) childBlock() *Block {
	if c.target == nil {
		return nil
	}
	if c.IsSuperior() {
		return c.target.block
	}
	return c.block
}

func (c *Connection) dispose() {
	if c.tracking == tracked {
		c.db().remove(c)
	}
	c.tracking = untracked
	c.disposed = true
}
