package block

import (
	"math"

	"github.com/matzehuels/blockstack/pkg/observability"
)

// BumpNeighbours moves unconnected blocks away from the stack that b
// belongs to whenever one of their connections lies within the snap
// radius of one of the stack's connections.
//
// Nothing happens for a disposed stack, during a drag, or on a template
// workspace.
func (b *Block) BumpNeighbours() {
	if b.isDead() {
		return
	}
	root := b.Root()
	if root.isDead() || b.ws.IsDragging() || b.ws.cfg.Host.Template {
		return
	}
	root.bumpNeighboursOf(root)
}

// bumpNeighboursOf resolves b's subtree first, then b's own connections.
func (b *Block) bumpNeighboursOf(root *Block) {
	conns := b.Connections(false)
	for _, c := range conns {
		if c.IsConnected() && c.IsSuperior() {
			c.TargetBlock().bumpNeighboursOf(root)
		}
	}
	for _, c := range conns {
		for _, other := range c.neighbours(b.ws.cfg.SnapRadius) {
			if c.IsConnected() && other.IsConnected() {
				continue
			}
			if other.block.Root() == root {
				continue
			}
			if c.IsSuperior() {
				other.bumpAwayFrom(c)
			} else {
				c.bumpAwayFrom(other)
			}
		}
	}
}

// SnapToGrid moves a top block onto the nearest grid point. The grid is
// offset by half a cell so block corners land between grid lines.
func (b *Block) SnapToGrid() {
	ws := b.ws
	if b.isDead() || ws.IsDragging() || b.Parent() != nil || ws.cfg.Host.Template {
		return
	}
	if !ws.cfg.Grid.ShouldSnap() {
		return
	}
	spacing := ws.cfg.Grid.Spacing
	half := spacing / 2
	xy := b.Position()
	dx := math.Round((xy.X-half)/spacing)*spacing + half - xy.X
	dy := math.Round((xy.Y-half)/spacing)*spacing + half - xy.Y
	if dx == 0 && dy == 0 {
		return
	}
	if err := b.MoveBy(dx, dy); err != nil {
		ws.logger.Warn("snap failed", "block", b.id, "err", err)
		return
	}
	ws.logger.Debug("snapped", "block", b.id, "dx", dx, "dy", dy)
	observability.Engine().OnSnap(b.id, dx, dy)
}

// ScheduleSnapAndBump snaps the block to the grid after half the bump
// delay and bumps its neighbours after the full delay. Both run under the
// event group current at the first call. A call while the tasks are still
// pending is absorbed by them, so moves it causes are recorded under that
// earlier group.
func (b *Block) ScheduleSnapAndBump() {
	if b.isDead() {
		return
	}
	delay := b.ws.cfg.BumpDelay
	b.schedule(taskSnap, delay/2, b.SnapToGrid)
	b.schedule(taskBump, delay, b.BumpNeighbours)
}
