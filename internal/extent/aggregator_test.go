package extent

import (
	"math/rand"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnsetRectIsNotZeroRect(t *testing.T) {
	var unset Rect
	zero := New(0, 0, 0, 0)

	assert.False(t, unset.IsSet())
	assert.True(t, zero.IsSet())
	assert.False(t, unset.Equal(zero))
	assert.Equal(t, "<unset>", unset.String())
	assert.Nil(t, unset.Polygon())
}

func TestNewNormalizesCorners(t *testing.T) {
	r := New(10, 20, 0, 5)
	assert.Equal(t, 0.0, r.MinX())
	assert.Equal(t, 5.0, r.MinY())
	assert.Equal(t, 10.0, r.MaxX())
	assert.Equal(t, 20.0, r.MaxY())
}

func TestAddUnsetIsNoop(t *testing.T) {
	a := NewAggregator()
	a.Add(Rect{})

	assert.False(t, a.BoundingRectangle().IsSet())
	assert.Equal(t, 0, a.Parts())
	assert.Empty(t, a.CoverageShape())
	assert.Zero(t, a.CoveredArea())
}

func TestBoundingRectangleFold(t *testing.T) {
	a := NewAggregator()
	a.Add(New(0, 0, 1, 1))
	a.Add(Rect{})
	a.Add(New(5, -2, 6, 3))

	assert.True(t, a.BoundingRectangle().Equal(New(0, -2, 6, 3)))
	assert.Equal(t, 2, a.Parts())
	assert.Len(t, a.CoverageShape(), 2)
}

func TestBoundingRectangleIsOrderIndependent(t *testing.T) {
	rects := []Rect{
		New(0, 0, 1, 1),
		New(-3, 2, -1, 4),
		{},
		New(10, 10, 12, 11),
		New(0.5, -7, 0.6, -6),
	}

	want := NewAggregator()
	for _, r := range rects {
		want.Add(r)
	}

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := append([]Rect(nil), rects...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		got := NewAggregator()
		for _, r := range shuffled {
			got.Add(r)
		}
		require.True(t, want.BoundingRectangle().Equal(got.BoundingRectangle()))
		require.InDelta(t, want.CoveredArea(), got.CoveredArea(), 1e-9)
	}
}

func TestCoverageIsSparse(t *testing.T) {
	a := NewAggregator()
	a.Add(New(0, 0, 1, 1))
	a.Add(New(9, 9, 10, 10))

	assert.True(t, a.Contains(orb.Point{0.5, 0.5}))
	assert.True(t, a.Contains(orb.Point{9.5, 9.5}))
	assert.False(t, a.Contains(orb.Point{5, 5}), "gap between tiles is inside the bounding rectangle only")
	assert.True(t, a.BoundingRectangle().Contains(orb.Point{5, 5}))

	assert.InDelta(t, 2.0, a.CoveredArea(), 1e-12)
	assert.InDelta(t, 100.0, a.BoundingRectangle().Width()*a.BoundingRectangle().Height(), 1e-12)
}

func TestCoveredAreaCountsOverlapOnce(t *testing.T) {
	a := NewAggregator()
	a.Add(New(0, 0, 2, 2))
	a.Add(New(1, 1, 3, 3))
	a.Add(New(0, 0, 2, 2))

	assert.InDelta(t, 7.0, a.CoveredArea(), 1e-12)
}

func TestCoverageShapeIsCopy(t *testing.T) {
	a := NewAggregator()
	a.Add(New(0, 0, 1, 1))

	shape := a.CoverageShape()
	shape[0][0][0] = orb.Point{100, 100}

	assert.Equal(t, orb.Point{0, 0}, a.CoverageShape()[0][0][0])
}

func TestRectUnion(t *testing.T) {
	r := New(0, 0, 1, 1)
	assert.True(t, r.Union(Rect{}).Equal(r))
	assert.True(t, Rect{}.Union(r).Equal(r))
	assert.False(t, Rect{}.Intersects(r))
	assert.True(t, r.Intersects(New(1, 1, 2, 2)))
}
