// Package geom provides the small value types used for block geometry.
//
// All coordinates are in workspace units: they are independent of the
// surface scroll offset and zoom level. Conversion to screen pixels is done
// by the workspace that owns the canvas.
package geom

import (
	"math"
	"strconv"
)

// Epsilon is the tolerance used when comparing positions that went through
// a scale round trip (for example a drag surface translation).
const Epsilon = 1e-6

// Coordinate is an (x, y) pair in workspace units.
type Coordinate struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Coordinate{x, y}.
func Pt(x, y float64) Coordinate { return Coordinate{X: x, Y: y} }

// Add returns c + o.
func (c Coordinate) Add(o Coordinate) Coordinate { return Coordinate{c.X + o.X, c.Y + o.Y} }

// Sub returns c - o.
func (c Coordinate) Sub(o Coordinate) Coordinate { return Coordinate{c.X - o.X, c.Y - o.Y} }

// Scale returns c multiplied by f on both axes.
func (c Coordinate) Scale(f float64) Coordinate { return Coordinate{c.X * f, c.Y * f} }

// Magnitude returns the distance of c from the origin.
func (c Coordinate) Magnitude() float64 { return math.Hypot(c.X, c.Y) }

// String formats c as "(x, y)".
func (c Coordinate) String() string {
	return "(" + strconv.FormatFloat(c.X, 'g', -1, 64) + ", " + strconv.FormatFloat(c.Y, 'g', -1, 64) + ")"
}

// IsZero reports whether both components are exactly zero.
func (c Coordinate) IsZero() bool { return c.X == 0 && c.Y == 0 }

// Distance returns the euclidean distance between a and b.
func Distance(a, b Coordinate) float64 { return math.Hypot(a.X-b.X, a.Y-b.Y) }

// Equal reports whether a and b are within eps of each other on both axes.
func Equal(a, b Coordinate, eps float64) bool {
	return math.Abs(a.X-b.X) <= eps && math.Abs(a.Y-b.Y) <= eps
}

// Rect is an axis-aligned rectangle. Top < Bottom in workspace units
// (y grows downward).
type Rect struct {
	Left, Top, Right, Bottom float64
}

// Width returns the horizontal span of the rectangle.
func (r Rect) Width() float64 { return r.Right - r.Left }

// Height returns the vertical span of the rectangle.
func (r Rect) Height() float64 { return r.Bottom - r.Top }

// IsEmpty reports whether the rectangle has no area.
func (r Rect) IsEmpty() bool { return r.Width() <= 0 || r.Height() <= 0 }

// Union returns the smallest rectangle that contains both r and o.
// An empty rectangle is ignored.
func (r Rect) Union(o Rect) Rect {
	if r.IsEmpty() {
		return o
	}
	if o.IsEmpty() {
		return r
	}
	return Rect{
		Left:   math.Min(r.Left, o.Left),
		Top:    math.Min(r.Top, o.Top),
		Right:  math.Max(r.Right, o.Right),
		Bottom: math.Max(r.Bottom, o.Bottom),
	}
}
