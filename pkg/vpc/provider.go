package vpc

import (
	"context"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog"

	"github.com/beetlebugorg/vpc/internal/catalog"
	"github.com/beetlebugorg/vpc/internal/extent"
	"github.com/beetlebugorg/vpc/internal/registry"
)

const (
	// ProviderKey identifies this data provider.
	ProviderKey = "vpc"

	// ProviderDescription is the human readable provider name.
	ProviderDescription = "Virtual point cloud data provider"
)

// Provider is an opened virtual point cloud.
//
// A Provider is safe for concurrent use. It is always non-nil, even when
// Open fails; a failed provider is invalid and has no tiles.
type Provider struct {
	uri      string
	res      *catalog.Result
	coverage *extent.Aggregator
	reg      *registry.Registry
	err      error
}

// Open reads the catalog at uri and prepares lazy access to its tiles.
//
// Open returns an error only when the catalog cannot be used at all: the
// document is unreadable (*IOError) or matches neither dialect
// (*FormatError). The returned provider is non-nil in every case so callers
// can inspect it; after an error it reports IsValid() == false.
//
// Example:
//
//	p, err := vpc.Open("survey.vpc", vpc.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	defer p.Close()
//	fmt.Println(p.Extent(), p.PointCount())
func Open(uri string, opts Options) (*Provider, error) {
	p := &Provider{uri: uri}

	res, err := catalog.ParseFile(uri, opts.catalogOptions())
	if err != nil {
		p.err = err
		p.coverage = extent.NewAggregator()
		p.reg = registry.New(nil, opts.registryOptions())
		return p, err
	}

	p.res = res
	p.coverage = res.Extent
	p.reg = registry.New(res.Tiles, opts.registryOptions())

	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	log.Info().
		Str("uri", uri).
		Str("dialect", res.Dialect.String()).
		Str("crs", res.CRS.String()).
		Int("tiles", len(res.Tiles)).
		Int("skipped", len(res.Diagnostics)).
		Int64("points", res.PointCount()).
		Msg("virtual point cloud opened")

	return p, nil
}

// URI returns the catalog location passed to Open.
func (p *Provider) URI() string { return p.uri }

// Name returns the provider key.
func (p *Provider) Name() string { return ProviderKey }

// Description returns the provider description.
func (p *Provider) Description() string { return ProviderDescription }

// Err returns the error Open failed with, or nil.
func (p *Provider) Err() error { return p.err }

// IsValid reports whether the catalog produced at least one tile.
func (p *Provider) IsValid() bool {
	return p.reg.TileCount() > 0
}

// CRS returns the dataset coordinate system. It is the zero CRS when the
// catalog declared none.
func (p *Provider) CRS() CRS {
	if p.res == nil {
		return CRS{}
	}
	return p.res.CRS
}

// Dialect returns the catalog dialect, for diagnostics.
func (p *Provider) Dialect() Dialect {
	if p.res == nil {
		return DialectUnknown
	}
	return p.res.Dialect
}

// Extent returns the bounding rectangle of all tiles with a known extent,
// or an unset Rect when there are none.
func (p *Provider) Extent() Rect {
	return p.coverage.BoundingRectangle()
}

// BoundingPolygon returns the coverage shape: one polygon per tile with a
// known extent. The result is a copy.
func (p *Provider) BoundingPolygon() orb.MultiPolygon {
	return p.coverage.CoverageShape()
}

// CoveredArea returns the area covered by at least one tile, in squared
// CRS units. Overlaps are counted once.
func (p *Provider) CoveredArea() float64 {
	return p.coverage.CoveredArea()
}

// PointCount returns the sum of declared point counts.
func (p *Provider) PointCount() int64 {
	if p.res == nil {
		return 0
	}
	return p.res.PointCount()
}

// Attributes returns the per-point attributes the dataset declares.
func (p *Provider) Attributes() []Attribute {
	if p.res == nil {
		return catalog.DefaultAttributes()
	}
	return append([]Attribute(nil), p.res.Attributes...)
}

// Diagnostics returns one error per catalog entry that was skipped or
// lost its extent, as *ItemError or *ReprojectionError.
func (p *Provider) Diagnostics() []error {
	if p.res == nil {
		return nil
	}
	return append([]error(nil), p.res.Diagnostics...)
}

// TileCount returns the number of tiles.
func (p *Provider) TileCount() int { return p.reg.TileCount() }

// Tile returns the descriptor of tile i.
func (p *Provider) Tile(i int) (Tile, error) { return p.reg.Tile(i) }

// TileURI returns the location of tile i.
func (p *Provider) TileURI(i int) (string, error) { return p.reg.TileURI(i) }

// TileExtent returns the extent of tile i; unset when the catalog gave none
// that could be used.
func (p *Provider) TileExtent(i int) (Rect, error) { return p.reg.TileExtent(i) }

// DeclaredPointCount returns the point count the catalog declares for tile i.
func (p *Provider) DeclaredPointCount(i int) (int64, error) { return p.reg.DeclaredPointCount(i) }

// TileState returns the load state of tile i.
func (p *Provider) TileState(i int) (TileState, error) { return p.reg.State(i) }

// LoadTile returns the index of tile i, loading it on first use. See
// registry semantics in the package documentation.
func (p *Provider) LoadTile(ctx context.Context, i int) (Handle, error) {
	return p.reg.LoadTile(ctx, i)
}

// LoadedTiles returns the positions of tiles whose index is loaded and
// valid.
func (p *Provider) LoadedTiles() []int { return p.reg.LoadedTiles() }

// EvictTile drops the loaded index of tile i.
func (p *Provider) EvictTile(i int) error { return p.reg.Evict(i) }

// TilesInBounds returns the positions of tiles whose extent intersects r.
func (p *Provider) TilesInBounds(r Rect) []int { return p.reg.TilesIntersecting(r) }

// Stats returns tile load counters.
func (p *Provider) Stats() Stats { return p.reg.Stats() }

// Close releases every loaded tile index.
func (p *Provider) Close() error { return p.reg.Close() }
