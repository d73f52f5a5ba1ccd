// Package block implements the geometric state engine of a block-based
// editor: a tree of draggable, connectable blocks laid out on a scrollable,
// zoomable workspace.
//
// # Model
//
// A [Workspace] is an arena of [Block] values indexed by id. Each block owns
// an ordered list of child ids and keeps a non-owning parent id; its typed
// [Connection] points are created lazily as inputs and statement/value
// connections are declared. Blocks draw into a [surface.Element] tree, so a
// block's absolute position is the sum of its ancestors' local transforms.
//
// # Core operations
//
//   - [Block.Position] walks the element tree to the canvas (or the drag
//     surface overlay) and returns the workspace position.
//   - [Block.MoveConnections] shifts every connection in a subtree by a delta.
//   - [Block.Render] runs the layout engine under a recursion guard, anchors
//     connections, tightens children and bubbles to the parent.
//   - [Block.SetCollapsed] swaps inputs for a summary field and back.
//   - [Block.BumpNeighbours] and [Block.SnapToGrid] settle overlaps; they are
//     normally scheduled through [Block.ScheduleSnapAndBump].
//   - [Block.MoveToDragSurface], [Block.MoveDuringDrag] and
//     [Block.MoveOffDragSurface] move a dragged stack without re-laying it;
//     [Dragger] drives the whole drag lifecycle.
//
// # Concurrency
//
// A workspace is single-threaded. Deferred work is scheduled on the
// workspace [clock.Clock] and runs on the goroutine that advances it.
// Calls on a disposed block return immediately.
package block
