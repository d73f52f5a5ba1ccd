package block

import (
	"time"

	bserrors "github.com/matzehuels/blockstack/pkg/errors"
	"github.com/matzehuels/blockstack/pkg/observability"
)

// Render lays out the block, anchors its connections and pulls connected
// children into place. With bubble set the parent is rendered next, and
// the workspace content bounds are refreshed once the top block is done.
//
// A nested Render of a block that is already rendering returns nil
// without doing anything. The guard is cleared even when layout fails.
func (b *Block) Render(bubble bool) error {
	if b.isDead() {
		return nil
	}
	if b.element == nil {
		return bserrors.New(bserrors.ErrCodeHeadless, "block %s has no rendering surface", b.id)
	}
	if b.rendering {
		return nil
	}
	if err := b.renderGuarded(bubble); err != nil {
		return err
	}
	b.updateMarkers()
	return nil
}

func (b *Block) renderGuarded(bubble bool) (err error) {
	b.rendering = true
	start := time.Now()
	defer func() {
		b.rendering = false
		observability.Engine().OnRender(b.id, time.Since(start), err)
	}()

	b.rendered = true
	if b.collapsed {
		b.updateCollapsed()
	}
	lay, err := b.ws.layout.ComputeLayout(b)
	if err != nil {
		return bserrors.Wrap(bserrors.ErrCodeLayout, err, "layout of block %s", b.id)
	}
	b.height, b.width, b.shape = lay.Height, lay.Width, lay.Shape
	for c, off := range lay.Offsets {
		if c != nil && c.block == b {
			c.offset = off
		}
	}
	b.updateConnectionLocations()
	b.ws.logger.Debug("rendered", "block", b.id, "height", b.height, "width", b.width)

	if !bubble {
		return nil
	}
	if p := b.Parent(); p != nil {
		return p.Render(true)
	}
	b.ws.ResizeContents()
	return nil
}

// updateMarkers redraws navigation markers on b when keyboard navigation
// is enabled.
func (b *Block) updateMarkers() {
	if !b.ws.cfg.Host.KeyboardNav {
		return
	}
	for _, m := range b.ws.markers {
		if m.BlockID() == b.id {
			m.Redraw()
		}
	}
}
