package block

import "github.com/matzehuels/blockstack/pkg/geom"

// Shape is the outline of a rendered block, relative to its top-left
// corner.
type Shape []geom.Coordinate

// Layout is the result of measuring a block.
type Layout struct {
	Height float64
	Width  float64
	Shape  Shape
	// Offsets holds, for every connection the engine placed, its position
	// relative to the block's top-left corner. Connections missing from
	// the map keep their previous offset.
	Offsets map[*Connection]geom.Coordinate
}

// LayoutEngine measures a block and positions its connections. It may read
// the rendered size of child blocks, which are rendered first.
type LayoutEngine interface {
	ComputeLayout(b *Block) (Layout, error)
}

// LayoutFunc adapts a function to the LayoutEngine interface.
type LayoutFunc func(b *Block) (Layout, error)

// ComputeLayout calls f(b).
func (f LayoutFunc) ComputeLayout(b *Block) (Layout, error) { return f(b) }

// Metrics of FixedLayout.
const (
	FixedRowHeight = 24.0
	FixedWidth     = 120.0
	FixedIndent    = 20.0
	FixedTab       = 16.0
	FixedArm       = 8.0
)

// FixedLayout is a text-agnostic engine with constant metrics: one row per
// visible input, value sockets at the right edge and statement mouths
// indented on the left. It is the workspace default; the layout package
// provides an engine that measures field text.
type FixedLayout struct{}

// ComputeLayout implements LayoutEngine.
func (FixedLayout) ComputeLayout(b *Block) (Layout, error) {
	lay := Layout{Offsets: make(map[*Connection]geom.Coordinate)}
	if b.output != nil {
		lay.Offsets[b.output] = geom.Coordinate{}
	}
	if b.previous != nil {
		lay.Offsets[b.previous] = geom.Pt(FixedTab, 0)
	}
	width, y := FixedWidth, 0.0
	for _, in := range b.inputs {
		if !in.visible {
			continue
		}
		rowH := FixedRowHeight
		switch in.typ {
		case ValueInput:
			lay.Offsets[in.conn] = geom.Pt(FixedWidth, y)
			if child := in.conn.TargetBlock(); child != nil {
				ch, cw := child.HeightWidth()
				rowH = max(rowH, ch)
				width = max(width, FixedWidth+cw)
			}
		case StatementInput:
			lay.Offsets[in.conn] = geom.Pt(FixedIndent+FixedTab, y)
			if child := in.conn.TargetBlock(); child != nil {
				ch, cw := child.HeightWidth()
				rowH = max(rowH, ch)
				width = max(width, FixedIndent+cw)
			}
			rowH += FixedArm
		}
		y += rowH
	}
	height := max(y, FixedRowHeight)
	if b.next != nil {
		lay.Offsets[b.next] = geom.Pt(FixedTab, height)
	}
	lay.Height, lay.Width = height, width
	lay.Shape = Shape{geom.Pt(0, 0), geom.Pt(width, 0), geom.Pt(width, height), geom.Pt(0, height)}
	return lay, nil
}
