// Package extent tracks rectangular tile extents and folds them into a
// dataset-wide bounding rectangle and coverage shape.
package extent

import (
	"fmt"

	"github.com/paulmach/orb"
)

// Rect is an axis-aligned rectangle in catalog CRS units.
//
// The zero value is the unset rectangle: it is distinct from a rectangle at
// the origin and contributes nothing when aggregated.
type Rect struct {
	bound orb.Bound
	set   bool
}

// New returns the rectangle spanning the given corners. Corners are
// normalized so that min <= max on both axes.
func New(minX, minY, maxX, maxY float64) Rect {
	if minX > maxX {
		minX, maxX = maxX, minX
	}
	if minY > maxY {
		minY, maxY = maxY, minY
	}
	return Rect{
		bound: orb.Bound{Min: orb.Point{minX, minY}, Max: orb.Point{maxX, maxY}},
		set:   true,
	}
}

// FromBound wraps an orb.Bound.
func FromBound(b orb.Bound) Rect {
	return New(b.Min[0], b.Min[1], b.Max[0], b.Max[1])
}

// IsSet reports whether the rectangle holds coordinates.
func (r Rect) IsSet() bool { return r.set }

// Bound returns the underlying bound and whether the rectangle is set.
func (r Rect) Bound() (orb.Bound, bool) { return r.bound, r.set }

func (r Rect) MinX() float64 { return r.bound.Min[0] }
func (r Rect) MinY() float64 { return r.bound.Min[1] }
func (r Rect) MaxX() float64 { return r.bound.Max[0] }
func (r Rect) MaxY() float64 { return r.bound.Max[1] }

// Width returns the extent along X, or 0 when unset.
func (r Rect) Width() float64 {
	if !r.set {
		return 0
	}
	return r.bound.Max[0] - r.bound.Min[0]
}

// Height returns the extent along Y, or 0 when unset.
func (r Rect) Height() float64 {
	if !r.set {
		return 0
	}
	return r.bound.Max[1] - r.bound.Min[1]
}

// Union returns the smallest rectangle containing both. Unset operands are
// ignored.
func (r Rect) Union(other Rect) Rect {
	switch {
	case !r.set:
		return other
	case !other.set:
		return r
	}
	return Rect{bound: r.bound.Union(other.bound), set: true}
}

// Intersects reports whether two set rectangles overlap (touching counts).
func (r Rect) Intersects(other Rect) bool {
	if !r.set || !other.set {
		return false
	}
	return r.bound.Intersects(other.bound)
}

// Contains reports whether the point lies inside or on the rectangle.
func (r Rect) Contains(p orb.Point) bool {
	return r.set && r.bound.Contains(p)
}

// Polygon returns the rectangle as a closed polygon, or nil when unset.
func (r Rect) Polygon() orb.Polygon {
	if !r.set {
		return nil
	}
	return r.bound.ToPolygon()
}

// Equal compares two rectangles, treating all unset rectangles as equal.
func (r Rect) Equal(other Rect) bool {
	if !r.set || !other.set {
		return r.set == other.set
	}
	return r.bound == other.bound
}

func (r Rect) String() string {
	if !r.set {
		return "<unset>"
	}
	return fmt.Sprintf("[%g,%g : %g,%g]", r.bound.Min[0], r.bound.Min[1], r.bound.Max[0], r.bound.Max[1])
}
