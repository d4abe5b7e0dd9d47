package vpc

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/beetlebugorg/vpc/internal/catalog"
	"github.com/beetlebugorg/vpc/internal/crs"
	"github.com/beetlebugorg/vpc/internal/extent"
	"github.com/beetlebugorg/vpc/internal/registry"
	"github.com/beetlebugorg/vpc/internal/tileindex"
)

// Catalog model.
type (
	Tile      = catalog.Tile
	Attribute = catalog.Attribute
	Dialect   = catalog.Dialect
)

const (
	DialectUnknown = catalog.DialectUnknown
	DialectLegacy  = catalog.DialectLegacy
	DialectSTAC    = catalog.DialectSTAC
)

// Geometry and coordinate systems.
type (
	Rect              = extent.Rect
	CRS               = crs.CRS
	Transformer       = crs.Transformer
	TransformProvider = crs.Provider
)

// NewRect returns the rectangle spanning the two corners.
func NewRect(minX, minY, maxX, maxY float64) Rect {
	return extent.New(minX, minY, maxX, maxY)
}

// ParseCRS decodes "EPSG:n", an OGC URN, a bare code or WKT.
func ParseCRS(s string) (CRS, error) {
	return crs.Parse(s)
}

// Tile indices.
type (
	Handle       = registry.Handle
	TileState    = registry.State
	Stats        = registry.Stats
	Metrics      = registry.Metrics
	Index        = tileindex.Index
	IndexInfo    = tileindex.Info
	IndexFactory = tileindex.Factory
)

// IsRemote reports whether a tile location is fetched over HTTP(S).
func IsRemote(uri string) bool {
	return tileindex.IsRemote(uri)
}

const (
	TileUnloaded = registry.StateUnloaded
	TileLoading  = registry.StateLoading
	TileLoaded   = registry.StateLoaded
	TileFailed   = registry.StateFailed
)

// NewMetrics creates tile load metrics registered with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return registry.NewMetrics(reg)
}

// Errors.
type (
	IOError           = catalog.IOError
	FormatError       = catalog.FormatError
	ItemError         = catalog.ItemError
	ReprojectionError = catalog.ReprojectionError
	IndexError        = registry.IndexError
	IndexLoadError    = registry.IndexLoadError
)

var (
	ErrFormat          = catalog.ErrFormat
	ErrNoCRS           = catalog.ErrNoCRS
	ErrIndexOutOfRange = registry.ErrIndexOutOfRange
	ErrClosed          = registry.ErrClosed
)
