package surface

import (
	"testing"

	bserrors "github.com/matzehuels/blockstack/pkg/errors"
	"github.com/matzehuels/blockstack/pkg/geom"
)

func TestAppendChildReparents(t *testing.T) {
	a := NewElement("a")
	b := NewElement("b")
	c := NewElement("c")

	a.AppendChild(c)
	b.AppendChild(c)

	if c.Parent() != b {
		t.Errorf("Parent() = %v, want b", c.Parent().Name())
	}
	if len(a.Children()) != 0 {
		t.Errorf("a has %d children, want 0", len(a.Children()))
	}
	if !b.Contains(c) || a.Contains(c) {
		t.Error("Contains() reports wrong ancestry")
	}
}

func TestAppendChildRaisesToTop(t *testing.T) {
	root := NewElement("root")
	x := NewElement("x")
	y := NewElement("y")
	root.AppendChild(x)
	root.AppendChild(y)
	root.AppendChild(x)

	kids := root.Children()
	if len(kids) != 2 || kids[0] != y || kids[1] != x {
		t.Errorf("children order = [%s %s], want [y x]", kids[0].Name(), kids[1].Name())
	}
}

func TestVisible(t *testing.T) {
	root := NewElement("root")
	child := NewElement("child")
	root.AppendChild(child)

	root.SetHidden(true)
	if child.Visible() {
		t.Error("child of hidden element should not be visible")
	}
	root.SetHidden(false)
	if !child.Visible() {
		t.Error("child should be visible again")
	}
}

func TestDragSurfaceTranslationRoundTrip(t *testing.T) {
	s := NewDragSurface()
	s.SetScale(0.7)
	s.TranslateSurface(123.4, -56.7)

	got := s.SurfaceTranslation()
	if !geom.Equal(got, geom.Pt(123.4, -56.7), geom.Epsilon) {
		t.Errorf("SurfaceTranslation() = %v, want (123.4, -56.7)", got)
	}
}

func TestDragSurfaceSingleOccupant(t *testing.T) {
	canvas := NewElement("canvas")
	s := NewDragSurface()
	a := NewElement("a")
	b := NewElement("b")
	canvas.AppendChild(a)
	canvas.AppendChild(b)

	if err := s.SetBlocksAndShow(a); err != nil {
		t.Fatalf("SetBlocksAndShow(a) error: %v", err)
	}
	if err := s.SetBlocksAndShow(b); !bserrors.Is(err, bserrors.ErrCodeDragSurfaceBusy) {
		t.Errorf("SetBlocksAndShow(b) = %v, want DRAG_SURFACE_BUSY", err)
	}
	if a.Parent() != s.Group() {
		t.Error("a should live on the drag surface")
	}

	s.ClearAndHide(canvas)
	if a.Parent() != canvas || s.CurrentBlock() != nil || s.Visible() {
		t.Error("ClearAndHide() should return a to the canvas and hide the surface")
	}

	// Releasing an empty surface is a no-op.
	s.ClearAndHide(canvas)
	if len(canvas.Children()) != 2 {
		t.Errorf("canvas has %d children, want 2", len(canvas.Children()))
	}
}
