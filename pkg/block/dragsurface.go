package block

import (
	bserrors "github.com/matzehuels/blockstack/pkg/errors"
	"github.com/matzehuels/blockstack/pkg/geom"
)

// MoveToDragSurface moves the block's element onto the workspace drag
// surface. The surface takes over the block's position, so Position is
// unchanged. Without a drag surface this is a no-op.
func (b *Block) MoveToDragSurface() error {
	ds := b.ws.dragSurface
	if ds == nil || b.isDead() || b.element == nil {
		return nil
	}
	if b.parentID != "" {
		return bserrors.New(bserrors.ErrCodeHasParent, "block %s must be unplugged before dragging", b.id)
	}
	if cur := ds.CurrentBlock(); cur != nil && cur != b.element {
		return bserrors.New(bserrors.ErrCodeDragSurfaceBusy, "drag surface already holds %s", cur.Name())
	}
	xy := b.Position()
	b.element.ClearTransform()
	ds.TranslateSurface(xy.X, xy.Y)
	return ds.SetBlocksAndShow(b.element)
}

// MoveOffDragSurface puts the block back on the canvas at xy and hides the
// drag surface. It does nothing unless the block is on the surface.
func (b *Block) MoveOffDragSurface(xy geom.Coordinate) {
	ds := b.ws.dragSurface
	if ds == nil || b.element == nil || ds.CurrentBlock() != b.element {
		return
	}
	b.translate(xy.X, xy.Y)
	ds.ClearAndHide(b.ws.canvas)
}

// MoveDuringDrag places a dragged block at xy. On the drag surface only
// the surface moves; otherwise the block is translated in place.
// Connections are not updated until the drag ends.
func (b *Block) MoveDuringDrag(xy geom.Coordinate) {
	if b.isDead() {
		return
	}
	if ds := b.ws.dragSurface; ds != nil && b.element != nil && ds.CurrentBlock() == b.element {
		ds.TranslateSurface(xy.X, xy.Y)
		return
	}
	b.translate(xy.X, xy.Y)
}

// releaseDragSurface detaches the block's element from the drag surface
// without putting it back on the canvas. Used when the block goes away
// mid-drag.
func (b *Block) releaseDragSurface() {
	ds := b.ws.dragSurface
	if ds == nil || b.element == nil || ds.CurrentBlock() != b.element {
		return
	}
	ds.ClearAndHide(nil)
}
