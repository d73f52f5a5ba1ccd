package surface

import (
	bserrors "github.com/matzehuels/blockstack/pkg/errors"
	"github.com/matzehuels/blockstack/pkg/geom"
)

// DragSurface is the shared overlay used while a stack is being dragged.
//
// The surface stores its translation in screen pixels, the way a
// compositor would, and reports it back in workspace units. At most one
// element is attached at a time.
type DragSurface struct {
	group   *Element
	scale   float64
	px, py  float64
	current *Element
	visible bool
}

// NewDragSurface creates an empty, hidden drag surface.
func NewDragSurface() *DragSurface {
	return &DragSurface{group: NewElement("drag-surface"), scale: 1}
}

// Group returns the overlay group element.
func (s *DragSurface) Group() *Element { return s.group }

// SetScale updates the zoom factor used to convert translations.
func (s *DragSurface) SetScale(scale float64) {
	if scale > 0 {
		s.scale = scale
	}
}

// TranslateSurface moves the overlay so that its origin sits at (x, y) in
// workspace units.
func (s *DragSurface) TranslateSurface(x, y float64) {
	s.px = x * s.scale
	s.py = y * s.scale
}

// SurfaceTranslation returns the overlay origin in workspace units.
func (s *DragSurface) SurfaceTranslation() geom.Coordinate {
	return geom.Pt(s.px/s.scale, s.py/s.scale)
}

// SetBlocksAndShow attaches el to the overlay and shows it.
func (s *DragSurface) SetBlocksAndShow(el *Element) error {
	if s.current != nil && s.current != el {
		return bserrors.New(bserrors.ErrCodeDragSurfaceBusy, "drag surface already holds %s", s.current.Name())
	}
	s.group.AppendChild(el)
	s.current = el
	s.visible = true
	return nil
}

// ClearAndHide moves the attached element to newParent and hides the
// overlay. It is a no-op when nothing is attached.
func (s *DragSurface) ClearAndHide(newParent *Element) {
	if s.current == nil {
		return
	}
	if newParent != nil {
		newParent.AppendChild(s.current)
	} else {
		s.current.Remove()
	}
	s.current = nil
	s.visible = false
	s.px, s.py = 0, 0
}

// CurrentBlock returns the attached element, or nil.
func (s *DragSurface) CurrentBlock() *Element { return s.current }

// Visible reports whether the overlay is shown.
func (s *DragSurface) Visible() bool { return s.visible }
