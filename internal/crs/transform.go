package crs

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// Transformer reprojects rectangles between two coordinate reference systems.
type Transformer interface {
	// Source returns the CRS input coordinates are expressed in.
	Source() CRS

	// Target returns the CRS output coordinates are expressed in.
	Target() CRS

	// TransformBound returns the smallest rectangle in the target CRS that
	// encloses the given source rectangle.
	TransformBound(b orb.Bound) (orb.Bound, error)
}

// Provider builds transformers. Implementations backed by a full projection
// library can be plugged in where the built-in provider is not enough.
type Provider interface {
	NewTransformer(src, dst CRS) (Transformer, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(src, dst CRS) (Transformer, error)

// NewTransformer calls f(src, dst).
func (f ProviderFunc) NewTransformer(src, dst CRS) (Transformer, error) {
	return f(src, dst)
}

// ErrUnsupported is returned by the built-in provider for CRS pairs it has no
// projection for.
type ErrUnsupported struct {
	Source, Target CRS
}

func (e *ErrUnsupported) Error() string {
	return fmt.Sprintf("no transform from %s to %s", e.Source, e.Target)
}

// maxMercatorLat is the latitude at which Web Mercator becomes a square world.
const maxMercatorLat = 85.05112877980659

// edgeSamples is the number of points sampled along each rectangle edge so
// that curved edges in the target CRS are still enclosed.
const edgeSamples = 21

// DefaultProvider returns the built-in provider. It handles identity
// transforms for any CRS and the EPSG:4326 <-> EPSG:3857 pair.
func DefaultProvider() Provider {
	return ProviderFunc(newBuiltinTransformer)
}

type projectionTransformer struct {
	src, dst CRS
	proj     orb.Projection // nil means identity
	validate func(orb.Point) error
}

func newBuiltinTransformer(src, dst CRS) (Transformer, error) {
	if !src.IsValid() || !dst.IsValid() {
		return nil, fmt.Errorf("transform requires valid source and target CRS (got %s -> %s)", src, dst)
	}
	if src.Equal(dst) {
		return &projectionTransformer{src: src, dst: dst}, nil
	}

	srcCode, _ := src.EPSG()
	dstCode, _ := dst.EPSG()
	switch {
	case srcCode == 4326 && dstCode == 3857:
		return &projectionTransformer{
			src:      src,
			dst:      dst,
			proj:     project.WGS84.ToMercator,
			validate: checkGeographic(maxMercatorLat),
		}, nil
	case srcCode == 3857 && dstCode == 4326:
		return &projectionTransformer{
			src:  src,
			dst:  dst,
			proj: project.Mercator.ToWGS84,
		}, nil
	}

	return nil, &ErrUnsupported{Source: src, Target: dst}
}

func (t *projectionTransformer) Source() CRS { return t.src }
func (t *projectionTransformer) Target() CRS { return t.dst }

func (t *projectionTransformer) TransformBound(b orb.Bound) (orb.Bound, error) {
	if b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] {
		return orb.Bound{}, fmt.Errorf("inverted rectangle %v", b)
	}
	if t.proj == nil {
		return b, nil
	}

	var out orb.Bound
	first := true
	for _, p := range densify(b) {
		if t.validate != nil {
			if err := t.validate(p); err != nil {
				return orb.Bound{}, err
			}
		}
		q := t.proj(p)
		if !finite(q) {
			return orb.Bound{}, fmt.Errorf("point %v has no image in %s", p, t.dst)
		}
		if first {
			out = orb.Bound{Min: q, Max: q}
			first = false
			continue
		}
		out = out.Extend(q)
	}
	return out, nil
}

// densify samples the rectangle boundary.
func densify(b orb.Bound) []orb.Point {
	pts := make([]orb.Point, 0, 4*edgeSamples)
	dx := (b.Max[0] - b.Min[0]) / float64(edgeSamples-1)
	dy := (b.Max[1] - b.Min[1]) / float64(edgeSamples-1)
	for i := 0; i < edgeSamples; i++ {
		x := b.Min[0] + float64(i)*dx
		y := b.Min[1] + float64(i)*dy
		if i == edgeSamples-1 {
			x, y = b.Max[0], b.Max[1]
		}
		pts = append(pts,
			orb.Point{x, b.Min[1]},
			orb.Point{x, b.Max[1]},
			orb.Point{b.Min[0], y},
			orb.Point{b.Max[0], y},
		)
	}
	return pts
}

func checkGeographic(maxLat float64) func(orb.Point) error {
	return func(p orb.Point) error {
		if p[0] < -180 || p[0] > 180 {
			return fmt.Errorf("longitude %g out of range", p[0])
		}
		if p[1] < -maxLat || p[1] > maxLat {
			return fmt.Errorf("latitude %g outside projection domain (±%g)", p[1], maxLat)
		}
		return nil
	}
}

func finite(p orb.Point) bool {
	return !math.IsNaN(p[0]) && !math.IsInf(p[0], 0) &&
		!math.IsNaN(p[1]) && !math.IsInf(p[1], 0)
}
