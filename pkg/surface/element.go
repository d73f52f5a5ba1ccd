// Package surface models the visual element tree a workspace draws into.
//
// An [Element] is a group node with a local translation, a parent and an
// ordered list of children (later children are stacked above earlier
// ones). Blocks own one element each; a child block's element lives inside
// its parent's element so moving a parent moves the whole subtree.
//
// The [DragSurface] is a separate overlay group. While a stack is being
// dragged its root element is reparented onto the overlay, which is then
// translated as a whole instead of re-laying the tree.
package surface

import (
	"slices"

	"github.com/matzehuels/blockstack/pkg/geom"
)

// Element is a node in the visual tree.
type Element struct {
	name     string
	parent   *Element
	children []*Element
	x, y     float64
	hidden   bool
}

// NewElement creates a detached element.
func NewElement(name string) *Element {
	return &Element{name: name}
}

// Name returns the debugging name of the element.
func (e *Element) Name() string { return e.name }

// Parent returns the parent element, or nil when detached.
func (e *Element) Parent() *Element { return e.parent }

// Children returns the child elements in stacking order.
func (e *Element) Children() []*Element { return slices.Clone(e.children) }

// Translate sets the local translation relative to the parent.
func (e *Element) Translate(x, y float64) {
	e.x, e.y = x, y
}

// Translation returns the local translation relative to the parent.
func (e *Element) Translation() geom.Coordinate { return geom.Pt(e.x, e.y) }

// ClearTransform resets the local translation to the origin.
func (e *Element) ClearTransform() { e.x, e.y = 0, 0 }

// SetHidden toggles display of the element and its subtree.
func (e *Element) SetHidden(hidden bool) { e.hidden = hidden }

// Hidden reports whether this element itself is hidden.
func (e *Element) Hidden() bool { return e.hidden }

// AppendChild moves c to the end of e's children, detaching it from its
// previous parent first. The local translation of c is kept.
func (e *Element) AppendChild(c *Element) {
	if c == nil || c == e {
		return
	}
	c.Remove()
	c.parent = e
	e.children = append(e.children, c)
}

// Remove detaches e from its parent.
func (e *Element) Remove() {
	if e.parent == nil {
		return
	}
	p := e.parent
	p.children = slices.DeleteFunc(p.children, func(o *Element) bool { return o == e })
	e.parent = nil
}

// Contains reports whether c is e or a descendant of e.
func (e *Element) Contains(c *Element) bool {
	for n := c; n != nil; n = n.parent {
		if n == e {
			return true
		}
	}
	return false
}

// Visible reports whether the element and all of its ancestors are shown.
func (e *Element) Visible() bool {
	for n := e; n != nil; n = n.parent {
		if n.hidden {
			return false
		}
	}
	return true
}
