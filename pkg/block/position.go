package block

import (
	bserrors "github.com/matzehuels/blockstack/pkg/errors"
	"github.com/matzehuels/blockstack/pkg/geom"
	"github.com/matzehuels/blockstack/pkg/surface"
)

// Position returns the block's top-left corner in workspace units.
//
// The walk sums the local translation of every element from the block up
// to the canvas. While the block's stack is on the drag surface the walk
// stops at the overlay group and the surface translation is added once, so
// the result does not jump when a stack moves on or off the surface.
// Disposed, headless and detached blocks report the origin.
func (b *Block) Position() geom.Coordinate {
	if b.element == nil || b.dead {
		return geom.Coordinate{}
	}
	ws := b.ws
	var dsGroup, dsCurrent *surface.Element
	if ws.dragSurface != nil {
		dsGroup = ws.dragSurface.Group()
		dsCurrent = ws.dragSurface.CurrentBlock()
	}
	var x, y float64
	el := b.element
	for el != nil && el != ws.canvas && el != dsGroup {
		t := el.Translation()
		x += t.X
		y += t.Y
		if el == dsCurrent {
			st := ws.dragSurface.SurfaceTranslation()
			x += st.X
			y += st.Y
		}
		el = el.Parent()
	}
	if el == nil {
		return geom.Coordinate{}
	}
	return geom.Pt(x, y)
}

// translate sets the local translation of the block's element.
func (b *Block) translate(x, y float64) {
	if b.element != nil {
		b.element.Translate(x, y)
	}
}

// MoveBy moves a top block by a delta in workspace units. Connections
// follow and one move event is fired. A block on the drag surface is moved
// by moving the surface.
func (b *Block) MoveBy(dx, dy float64) error {
	if b.isDead() {
		return nil
	}
	if b.element == nil {
		return bserrors.New(bserrors.ErrCodeHeadless, "block %s has no rendering surface", b.id)
	}
	if b.parentID != "" {
		return bserrors.New(bserrors.ErrCodeHasParent, "block %s has a parent", b.id)
	}
	ev := b.newMoveEvent()
	if ds := b.ws.dragSurface; ds != nil && ds.CurrentBlock() == b.element {
		st := ds.SurfaceTranslation()
		ds.TranslateSurface(st.X+dx, st.Y+dy)
	} else {
		xy := b.Position()
		b.translate(xy.X+dx, xy.Y+dy)
	}
	b.MoveConnections(dx, dy)
	ev.recordNew(b)
	b.ws.fire(ev)
	b.ws.ResizeContents()
	return nil
}

// MoveTo moves a top block so that its top-left corner is at c.
func (b *Block) MoveTo(c geom.Coordinate) error {
	xy := b.Position()
	return b.MoveBy(c.X-xy.X, c.Y-xy.Y)
}
