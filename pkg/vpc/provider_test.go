package vpc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beetlebugorg/vpc/internal/tileindex/tileindextest"
)

// writeCatalog writes a catalog document into dir and returns its path.
func writeCatalog(t *testing.T, dir, name, doc string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

// survey lays out two tiles next to a legacy catalog in EPSG:4326.
func survey(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	tileindextest.WriteFile(t, dir, "tiles/a.copc.laz", tileindextest.Header{PointCount: 100, MaxX: 1, MaxY: 1})
	tileindextest.WriteFile(t, dir, "tiles/b.copc.laz", tileindextest.Header{PointCount: 250, MinX: 1, MaxX: 2, MaxY: 1})
	return writeCatalog(t, dir, "survey.vpc", `{
		"vpc": "1.0.0",
		"metadata": {"crs": "EPSG:4326"},
		"files": [
			{"filename": "tiles/a.copc.laz", "count": 100, "bbox": [0, 0, 0, 1, 1, 10]},
			{"filename": "./tiles/b.copc.laz", "count": 250, "bbox": [1, 0, 0, 2, 1, 10]},
			{"filename": "tiles/broken.copc.laz"}
		]
	}`)
}

func TestOpen(t *testing.T) {
	path := survey(t)

	p, err := Open(path, DefaultOptions())
	require.NoError(t, err)
	defer p.Close()

	assert.True(t, p.IsValid())
	assert.NoError(t, p.Err())
	assert.Equal(t, path, p.URI())
	assert.Equal(t, "vpc", p.Name())
	assert.Equal(t, "Virtual point cloud data provider", p.Description())
	assert.Equal(t, DialectLegacy, p.Dialect())

	code, ok := p.CRS().EPSG()
	require.True(t, ok)
	assert.Equal(t, 4326, code)

	assert.Equal(t, 2, p.TileCount())
	assert.Equal(t, int64(350), p.PointCount())
	assert.True(t, p.Extent().Equal(NewRect(0, 0, 2, 1)))
	assert.Len(t, p.BoundingPolygon(), 2)
	assert.InDelta(t, 2.0, p.CoveredArea(), 1e-9)

	uri, err := p.TileURI(1)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "tiles", "b.copc.laz"), uri)

	n, err := p.DeclaredPointCount(0)
	require.NoError(t, err)
	assert.Equal(t, int64(100), n)

	require.Len(t, p.Diagnostics(), 1)
	var itemErr *ItemError
	assert.True(t, errors.As(p.Diagnostics()[0], &itemErr))

	assert.Len(t, p.Attributes(), 3)
}

func TestLoadTile(t *testing.T) {
	p, err := Open(survey(t), DefaultOptions())
	require.NoError(t, err)
	defer p.Close()

	assert.Empty(t, p.LoadedTiles())

	h, err := p.LoadTile(context.Background(), 1)
	require.NoError(t, err)
	idx, ok := h.Index()
	require.True(t, ok)
	assert.Equal(t, uint64(250), idx.Info().PointCount)
	assert.Equal(t, []int{1}, p.LoadedTiles())

	again, err := p.LoadTile(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, h.Same(again))
	assert.Equal(t, int64(1), p.Stats().Attempts)

	state, err := p.TileState(1)
	require.NoError(t, err)
	assert.Equal(t, TileLoaded, state)

	require.NoError(t, p.EvictTile(1))
	assert.False(t, h.Valid())
}

func TestLoadTileFailureKeepsProviderValid(t *testing.T) {
	dir := t.TempDir()
	tileindextest.WriteFile(t, dir, "ok.laz", tileindextest.Header{PointCount: 1, MaxX: 1, MaxY: 1})
	path := writeCatalog(t, dir, "gap.vpc", `{
		"vpc": "1.0.0",
		"metadata": {"crs": "EPSG:4326"},
		"files": [
			{"filename": "missing.laz", "count": 1, "bbox": [0, 0, 0, 1, 1, 1]},
			{"filename": "ok.laz", "count": 1, "bbox": [1, 1, 0, 2, 2, 1]}
		]
	}`)

	p, err := Open(path, DefaultOptions())
	require.NoError(t, err)
	defer p.Close()

	_, err = p.LoadTile(context.Background(), 0)
	var loadErr *IndexLoadError
	require.True(t, errors.As(err, &loadErr))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	_, err = p.LoadTile(context.Background(), 1)
	require.NoError(t, err)

	assert.True(t, p.IsValid())
	assert.Equal(t, []int{1}, p.LoadedTiles())
}

func TestOpenMissingCatalog(t *testing.T) {
	p, err := Open(filepath.Join(t.TempDir(), "nope.vpc"), DefaultOptions())

	require.NotNil(t, p)
	var ioErr *IOError
	assert.True(t, errors.As(err, &ioErr))
	assert.Equal(t, err, p.Err())
	assert.False(t, p.IsValid())
	assert.Equal(t, 0, p.TileCount())
	assert.False(t, p.Extent().IsSet())
	assert.Empty(t, p.BoundingPolygon())

	_, err = p.TileURI(0)
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))
	_, err = p.LoadTile(context.Background(), 0)
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))
}

func TestOpenFormatError(t *testing.T) {
	path := writeCatalog(t, t.TempDir(), "bad.vpc", `{"vpc": "1.0.0", "metadata": {"crs": "EPSG:3857"}}`)

	p, err := Open(path, DefaultOptions())

	require.NotNil(t, p)
	assert.True(t, errors.Is(err, ErrFormat))
	assert.Equal(t, 0, p.TileCount())
	assert.False(t, p.IsValid())
	assert.Equal(t, DialectUnknown, p.Dialect())
	assert.Equal(t, int64(0), p.PointCount())
}

func TestOpenEmptyCatalog(t *testing.T) {
	path := writeCatalog(t, t.TempDir(), "empty.vpc", `{"vpc": "1.0.0", "metadata": {"crs": "EPSG:3857"}, "files": []}`)

	p, err := Open(path, DefaultOptions())
	require.NoError(t, err)

	assert.False(t, p.IsValid())
	assert.False(t, p.Extent().IsSet())
}

func TestTilesInBounds(t *testing.T) {
	p, err := Open(survey(t), DefaultOptions())
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, []int{0}, p.TilesInBounds(NewRect(0.2, 0.2, 0.8, 0.8)))
	assert.Equal(t, []int{0, 1}, p.TilesInBounds(NewRect(0.5, 0.5, 1.5, 0.6)))
	assert.Empty(t, p.TilesInBounds(NewRect(5, 5, 6, 6)))
}

func TestSTACCatalogWithRemoteTiles(t *testing.T) {
	header := tileindextest.Header{PointCount: 42, MaxX: 1, MaxY: 1}.Bytes()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(header)
	}))
	defer srv.Close()

	path := writeCatalog(t, t.TempDir(), "remote.vpc", fmt.Sprintf(`{
		"type": "FeatureCollection",
		"features": [{
			"type": "Feature",
			"stac_version": "1.0.0",
			"id": "remote",
			"properties": {"pc:count": 42, "proj:epsg": 3857, "proj:bbox": [0, 0, 100, 100]},
			"assets": {"data": {"href": "%s/tiles/remote.copc.laz"}}
		}]
	}`, srv.URL))

	opts := DefaultOptions()
	opts.HTTPClient = srv.Client()
	opts.Metrics = NewMetrics(prometheus.NewRegistry())

	p, err := Open(path, opts)
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, DialectSTAC, p.Dialect())
	uri, _ := p.TileURI(0)
	assert.Equal(t, srv.URL+"/tiles/remote.copc.laz", uri)

	h, err := p.LoadTile(context.Background(), 0)
	require.NoError(t, err)
	idx, ok := h.Index()
	require.True(t, ok)
	assert.Equal(t, uint64(42), idx.Info().PointCount)
}

func TestCloseInvalidatesHandles(t *testing.T) {
	p, err := Open(survey(t), DefaultOptions())
	require.NoError(t, err)

	h, err := p.LoadTile(context.Background(), 0)
	require.NoError(t, err)

	require.NoError(t, p.Close())
	_, ok := h.Index()
	assert.False(t, ok)

	_, err = p.LoadTile(context.Background(), 0)
	assert.True(t, errors.Is(err, ErrClosed))
}
