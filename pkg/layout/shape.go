package layout

import (
	"github.com/matzehuels/blockstack/pkg/block"
	"github.com/matzehuels/blockstack/pkg/geom"
)

// mouth is the cut-out of a statement input.
type mouth struct {
	inner  float64 // x of the inner edge
	top    float64
	bottom float64 // top of the arm
}

// outline traces the block clockwise from the top-left corner, cutting a
// C-shaped mouth into the right side for every statement input.
func outline(width, height float64, mouths []mouth) block.Shape {
	s := block.Shape{geom.Pt(0, 0), geom.Pt(width, 0)}
	for _, mo := range mouths {
		s = append(s,
			geom.Pt(width, mo.top),
			geom.Pt(mo.inner, mo.top),
			geom.Pt(mo.inner, mo.bottom),
			geom.Pt(width, mo.bottom),
		)
	}
	return append(s, geom.Pt(width, height), geom.Pt(0, height))
}

// jagged traces a rectangle whose right edge is a column of teeth.
func jagged(width, height, teeth float64) block.Shape {
	s := block.Shape{geom.Pt(0, 0), geom.Pt(width, 0)}
	if teeth > 0 {
		for y := 0.0; y+teeth <= height; y += teeth {
			s = append(s, geom.Pt(width+teeth/2, y+teeth/2), geom.Pt(width, y+teeth))
		}
	}
	return append(s, geom.Pt(width, height), geom.Pt(0, height))
}
