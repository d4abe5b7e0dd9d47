package vpc

import (
	"net/http"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/beetlebugorg/vpc/internal/catalog"
	"github.com/beetlebugorg/vpc/internal/crs"
	"github.com/beetlebugorg/vpc/internal/registry"
	"github.com/beetlebugorg/vpc/internal/tileindex"
)

// Options configures Open.
type Options struct {
	// Transforms reprojects tile extents into the dataset CRS.
	// Default: built-in provider (EPSG:4326 and EPSG:3857).
	Transforms TransformProvider

	// STACVersions is the semver constraint STAC items must satisfy.
	// Default: ">= 1.0.0, < 2.0.0"
	STACVersions string

	// HTTPClient fetches remote tiles. Ignored when Factory is set.
	// Default: http.DefaultClient
	HTTPClient *http.Client

	// Factory creates tile indices. Default: local files and HTTP(S).
	Factory IndexFactory

	// MaxResident caps how many tile indices stay loaded at once; the least
	// recently used tile is evicted beyond it. 0 means no limit.
	MaxResident int

	// Logger receives parse and load events. Default: disabled.
	Logger *zerolog.Logger

	// Metrics records tile loads. Create with NewMetrics. Optional.
	Metrics *Metrics

	// Tracer starts a span per tile load. Default: no-op.
	Tracer trace.Tracer
}

// DefaultOptions returns default options.
func DefaultOptions() Options {
	return Options{
		Transforms:   crs.DefaultProvider(),
		STACVersions: catalog.DefaultVersions,
	}
}

func (o Options) catalogOptions() catalog.Options {
	return catalog.Options{
		Transforms: o.Transforms,
		Logger:     o.Logger,
		Versions:   o.STACVersions,
	}
}

func (o Options) registryOptions() registry.Options {
	factory := o.Factory
	if factory == nil {
		factory = tileindex.NewFactory(o.HTTPClient)
	}
	return registry.Options{
		Factory:     factory,
		Logger:      o.Logger,
		Metrics:     o.Metrics,
		Tracer:      o.Tracer,
		MaxResident: o.MaxResident,
	}
}
