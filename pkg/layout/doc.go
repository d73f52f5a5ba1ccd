// Package layout measures blocks for the block engine.
//
// [Engine] implements [block.LayoutEngine]. It lays a block out as a column
// of input rows:
//
//   - dummy rows hold only their fields;
//   - value rows end in a socket that is aligned with every other value
//     socket at the block's right edge;
//   - statement rows open a C-shaped mouth whose inner edge starts after
//     the row's label, and add an arm below the nested stack.
//
// Field text is measured in terminal cells with go-runewidth, so wide
// (East Asian) characters count double and combining marks count zero.
// Cells are converted to workspace units with [Metrics.CharWidth].
//
// Collapsed blocks render as a single summary row with a jagged right
// edge.
package layout
