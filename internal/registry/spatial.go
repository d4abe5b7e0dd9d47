package registry

import (
	"math"
	"sort"

	"github.com/dhconnelly/rtreego"

	"github.com/beetlebugorg/vpc/internal/catalog"
	"github.com/beetlebugorg/vpc/internal/extent"
)

// minSide keeps degenerate (zero width or height) extents insertable;
// rtreego rejects rectangles with a zero-length side.
const minSide = 1e-9

// spatialEntry is one tile with a known extent.
type spatialEntry struct {
	pos    int
	extent extent.Rect
}

// Bounds implements rtreego.Spatial.
func (e spatialEntry) Bounds() rtreego.Rect {
	return toRTree(e.extent)
}

func toRTree(r extent.Rect) rtreego.Rect {
	point := rtreego.Point{r.MinX(), r.MinY()}
	lengths := []float64{
		math.Max(r.Width(), minSide),
		math.Max(r.Height(), minSide),
	}
	rect, _ := rtreego.NewRect(point, lengths)
	return rect
}

// spatialIndex answers which tiles overlap a rectangle. Tiles without an
// extent are never returned.
type spatialIndex struct {
	rtree *rtreego.Rtree
	size  int
}

func newSpatialIndex(tiles []catalog.Tile) *spatialIndex {
	rtree := rtreego.NewTree(2, 25, 50)
	size := 0
	for i, t := range tiles {
		if !t.Extent.IsSet() {
			continue
		}
		rtree.Insert(spatialEntry{pos: i, extent: t.Extent})
		size++
	}
	return &spatialIndex{rtree: rtree, size: size}
}

func (s *spatialIndex) search(r extent.Rect) []int {
	if !r.IsSet() || s.size == 0 {
		return nil
	}

	var out []int
	for _, sp := range s.rtree.SearchIntersect(toRTree(r)) {
		e := sp.(spatialEntry)
		// rtreego pads degenerate rectangles; confirm with the exact test.
		if e.extent.Intersects(r) {
			out = append(out, e.pos)
		}
	}
	sort.Ints(out)
	return out
}

// TilesIntersecting returns the positions of tiles whose extent intersects
// r, in ascending order. Tiles with an unknown extent are not included.
func (r *Registry) TilesIntersecting(rect extent.Rect) []int {
	return r.spatial.search(rect)
}
