package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/paulmach/orb/geojson"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/beetlebugorg/vpc/internal/tileindex/tileindextest"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("VPC_LOG_LEVEL", "disabled")
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// fixture writes a legacy catalog with two readable tiles and one missing.
func fixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	tileindextest.WriteFile(t, dir, "a.laz", tileindextest.Header{PointCount: 10, MaxX: 1, MaxY: 1})
	tileindextest.WriteFile(t, dir, "b.laz", tileindextest.Header{PointCount: 20, MinX: 1, MaxX: 2, MaxY: 1})
	path := filepath.Join(dir, "survey.vpc")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"vpc": "1.0.0",
		"metadata": {"crs": "EPSG:4326"},
		"files": [
			{"filename": "a.laz", "count": 10, "bbox": [0, 0, 0, 1, 1, 1]},
			{"filename": "b.laz", "count": 20, "bbox": [1, 0, 0, 2, 1, 1]},
			{"filename": "gone.laz", "count": 30, "bbox": [2, 0, 0, 3, 1, 1]}
		]
	}`), 0o644))
	return path
}

func TestInfoJSON(t *testing.T) {
	out, err := run(t, "info", "--format", "json", fixture(t))
	require.NoError(t, err)

	var report infoReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "vpc", report.Dialect)
	assert.Equal(t, "EPSG:4326", report.CRS)
	assert.Equal(t, 3, report.Tiles)
	assert.Equal(t, int64(60), report.Points)
	require.NotNil(t, report.Extent)
	assert.Equal(t, 3.0, report.Extent.MaxX)
	assert.Empty(t, report.Skipped)
}

func TestInfoYAML(t *testing.T) {
	out, err := run(t, "info", "-f", "yaml", fixture(t))
	require.NoError(t, err)

	var report infoReport
	require.NoError(t, yaml.Unmarshal([]byte(out), &report))
	assert.Equal(t, 3, report.Tiles)
}

func TestInfoText(t *testing.T) {
	out, err := run(t, "info", fixture(t))
	require.NoError(t, err)
	assert.Contains(t, out, "Virtual point cloud")
	assert.Contains(t, out, "EPSG:4326")
}

func TestInfoUnknownFormat(t *testing.T) {
	_, err := run(t, "info", "--format", "xml", fixture(t))
	assert.ErrorContains(t, err, "unknown format")
}

func TestInfoMissingCatalog(t *testing.T) {
	_, err := run(t, "info", filepath.Join(t.TempDir(), "nope.vpc"))
	assert.Error(t, err)
}

func TestTilesBounds(t *testing.T) {
	out, err := run(t, "tiles", "--format", "json", "--bounds", "1.2,0.2,1.8,0.8", fixture(t))
	require.NoError(t, err)

	var list tileList
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].Index)
	assert.True(t, strings.HasSuffix(list[0].URI, "b.laz"))

	_, err = run(t, "tiles", "--bounds", "1,2,3", fixture(t))
	assert.Error(t, err)
}

func TestCoverage(t *testing.T) {
	out, err := run(t, "coverage", fixture(t))
	require.NoError(t, err)

	fc, err := geojson.UnmarshalFeatureCollection([]byte(out))
	require.NoError(t, err)
	assert.Len(t, fc.Features, 3)

	out, err = run(t, "coverage", "--merged", fixture(t))
	require.NoError(t, err)
	fc, err = geojson.UnmarshalFeatureCollection([]byte(out))
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "MultiPolygon", fc.Features[0].Geometry.GeoJSONType())
}

func TestLoad(t *testing.T) {
	metrics := filepath.Join(t.TempDir(), "metrics.prom")
	out, err := run(t, "load", "--format", "json", "--parallel", "2", "--metrics-out", metrics, fixture(t))
	require.ErrorContains(t, err, "1 of 3 tiles failed")

	var report loadReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Results, 3)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, uint64(10), report.Results[0].Points)
	assert.Equal(t, "1.4", report.Results[1].Version)
	assert.NotEmpty(t, report.Results[2].Error)

	data, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(data), "vpc_registry_tile_loads_total")
}

func TestLoadSelectedTiles(t *testing.T) {
	out, err := run(t, "load", "-f", "json", "--tiles", "1,0,1", fixture(t))
	require.NoError(t, err)

	var report loadReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Results, 2)
	assert.Equal(t, 0, report.Results[0].Index)
	assert.Equal(t, 1, report.Results[1].Index)

	_, err = run(t, "load", "--tiles", "9", fixture(t))
	assert.ErrorContains(t, err, "out of range")
}

func TestSublayers(t *testing.T) {
	out, err := run(t, "sublayers", "-f", "json", "/data/Survey.VPC", "/data/tile.laz")
	require.NoError(t, err)

	var list sublayerList
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "Survey", list[0].Name)
	assert.Equal(t, "vpc", list[0].Provider)
	assert.Equal(t, 100, list[0].Priority)
	assert.Empty(t, list[1].Provider)
	assert.Equal(t, 0, list[1].Priority)
}

func TestConfigFile(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "vpcinfo.toml")
	require.NoError(t, os.WriteFile(cfg, []byte("[log]\nlevel = \"loud\"\n"), 0o644))

	_, err := run(t, "--config", cfg, "info", fixture(t))
	assert.ErrorContains(t, err, "config invalid")
}

func TestSelectTiles(t *testing.T) {
	all, err := selectTiles("", 3)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, all)

	_, err = selectTiles("a", 3)
	assert.Error(t, err)
	_, err = selectTiles("-1", 3)
	assert.Error(t, err)
}

func TestBindFlags(t *testing.T) {
	flags := pflag.NewFlagSet("partial", pflag.ContinueOnError)
	flags.String("config", "", "")
	err := bindFlags(viper.New(), flags)
	assert.ErrorContains(t, err, "--log-level")
	assert.ErrorContains(t, err, "--max-resident")

	root := newRootCmd()
	v := viper.New()
	require.NoError(t, bindFlags(v, root.PersistentFlags()))
	require.NoError(t, root.PersistentFlags().Parse([]string{"--log-level", "debug"}))
	assert.Equal(t, "debug", v.GetString("log.level"))
}
