package extent

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Aggregator folds tile rectangles into a running bounding rectangle and a
// multi-part coverage shape.
//
// The bounding rectangle is cheap and always available. The coverage shape
// keeps one part per tile, so sparse layouts are not overstated the way the
// bounding rectangle overstates them.
//
// An Aggregator is not safe for concurrent mutation.
type Aggregator struct {
	bounds   Rect
	coverage orb.MultiPolygon
	rects    []orb.Bound
}

// NewAggregator returns an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{coverage: orb.MultiPolygon{}}
}

// Add folds r into the aggregate. Unset rectangles are ignored.
func (a *Aggregator) Add(r Rect) {
	b, ok := r.Bound()
	if !ok {
		return
	}
	a.coverage = append(a.coverage, b.ToPolygon())
	a.rects = append(a.rects, b)
	a.bounds = a.bounds.Union(r)
}

// BoundingRectangle returns the minimal rectangle enclosing every added
// rectangle, or the unset rectangle when nothing was added.
func (a *Aggregator) BoundingRectangle() Rect {
	return a.bounds
}

// CoverageShape returns the union of the added rectangles as a multipolygon
// with one part per rectangle. The returned value is a copy.
func (a *Aggregator) CoverageShape() orb.MultiPolygon {
	out := make(orb.MultiPolygon, len(a.coverage))
	for i, p := range a.coverage {
		out[i] = p.Clone()
	}
	return out
}

// Parts returns the number of rectangles folded in so far.
func (a *Aggregator) Parts() int {
	return len(a.rects)
}

// Contains reports whether p falls inside the coverage shape.
func (a *Aggregator) Contains(p orb.Point) bool {
	if !a.bounds.Contains(p) {
		return false
	}
	return planar.MultiPolygonContains(a.coverage, p)
}

// CoveredArea returns the area of the union of all parts, counting overlaps
// once. It runs in O(n² log n) over the number of parts.
func (a *Aggregator) CoveredArea() float64 {
	if len(a.rects) == 0 {
		return 0
	}

	xs := make([]float64, 0, 2*len(a.rects))
	for _, r := range a.rects {
		xs = append(xs, r.Min[0], r.Max[0])
	}
	sort.Float64s(xs)
	xs = dedupe(xs)

	var area float64
	spans := make([][2]float64, 0, len(a.rects))
	for i := 0; i+1 < len(xs); i++ {
		x0, x1 := xs[i], xs[i+1]
		if x1 <= x0 {
			continue
		}

		spans = spans[:0]
		for _, r := range a.rects {
			if r.Min[0] <= x0 && r.Max[0] >= x1 && r.Max[1] > r.Min[1] {
				spans = append(spans, [2]float64{r.Min[1], r.Max[1]})
			}
		}
		area += (x1 - x0) * spanLength(spans)
	}
	return area
}

// spanLength returns the total length covered by a set of 1-D intervals.
func spanLength(spans [][2]float64) float64 {
	if len(spans) == 0 {
		return 0
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i][0] < spans[j][0] })

	total := 0.0
	lo, hi := spans[0][0], spans[0][1]
	for _, s := range spans[1:] {
		if s[0] > hi {
			total += hi - lo
			lo, hi = s[0], s[1]
			continue
		}
		if s[1] > hi {
			hi = s[1]
		}
	}
	return total + hi - lo
}

func dedupe(sorted []float64) []float64 {
	out := sorted[:0]
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			out = append(out, v)
		}
	}
	return out
}
