// Package tileindex opens the per-tile spatial index of a virtual point cloud.
//
// Full point decoding lives elsewhere; an Index here proves that the tile is
// reachable and that its LAS/COPC public header is well formed, and exposes
// what the header declares.
package tileindex

import (
	"context"
	"net/http"
	"strings"
)

// Index is the capability the registry needs from a per-tile index.
type Index interface {
	// Load opens the tile at uri. It is called at most once per Index.
	Load(ctx context.Context, uri string) error

	// IsValid reports whether the last Load succeeded.
	IsValid() bool

	// Err returns the error of the last Load, or nil.
	Err() error

	// Info returns header information. Zero until the index is valid.
	Info() Info
}

// Factory creates an unloaded Index for a tile location.
type Factory interface {
	Create(uri string) Index
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(uri string) Index

// Create calls f(uri).
func (f FactoryFunc) Create(uri string) Index { return f(uri) }

// IsRemote reports whether uri is fetched over the network.
func IsRemote(uri string) bool {
	lower := strings.ToLower(uri)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// NewFactory returns the default factory: remote locations get a
// *RemoteIndex using client (http.DefaultClient when nil), everything else a
// *LocalIndex. Create performs no I/O.
//
// Example:
//
//	f := tileindex.NewFactory(nil)
//	idx := f.Create("/data/tile_0_0.copc.laz")
//	if err := idx.Load(ctx, "/data/tile_0_0.copc.laz"); err != nil {
//	    return err
//	}
//	fmt.Println(idx.Info().PointCount)
func NewFactory(client *http.Client) Factory {
	if client == nil {
		client = http.DefaultClient
	}
	return FactoryFunc(func(uri string) Index {
		if IsRemote(uri) {
			return NewRemoteIndex(client)
		}
		return NewLocalIndex()
	})
}
