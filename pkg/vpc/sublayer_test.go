package vpc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuerySublayers(t *testing.T) {
	tests := []struct {
		uri  string
		name string
	}{
		{"/data/lidar/survey.vpc", "survey"},
		{"/data/lidar/Survey.VPC", "Survey"},
		{"relative/city.Vpc", "city"},
		{"https://example.com/clouds/city.vpc?sig=abc#frag", "city"},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			layers := QuerySublayers(tt.uri)
			require.Len(t, layers, 1)
			assert.Equal(t, SublayerDetails{
				URI:         tt.uri,
				ProviderKey: "vpc",
				Name:        tt.name,
				Type:        LayerTypePointCloud,
			}, layers[0])

			assert.Equal(t, 100, PriorityForURI(tt.uri))
			assert.Equal(t, []LayerType{LayerTypePointCloud}, ValidLayerTypesForURI(tt.uri))
		})
	}
}

func TestQuerySublayersNoMatch(t *testing.T) {
	for _, uri := range []string{
		"/data/tile.copc.laz",
		"/data/vpc",
		"/data/survey.vpc/",
		"https://example.com/survey.json?name=x.vpc",
		"",
	} {
		assert.Empty(t, QuerySublayers(uri), uri)
		assert.Equal(t, 0, PriorityForURI(uri), uri)
		assert.Empty(t, ValidLayerTypesForURI(uri), uri)
	}
}

func TestDecodeEncodeURI(t *testing.T) {
	parts := DecodeURI("/data/lidar/survey.vpc")
	assert.Equal(t, URIParts{Path: "/data/lidar/survey.vpc", FileName: "survey.vpc"}, parts)
	assert.Equal(t, "/data/lidar/survey.vpc", EncodeURI(parts))

	parts = DecodeURI("https://example.com/a/b.vpc?x=1")
	assert.Equal(t, "b.vpc", parts.FileName)
	assert.Equal(t, "https://example.com/a/b.vpc?x=1", EncodeURI(parts))
}

func TestFileFilter(t *testing.T) {
	assert.Equal(t, "Virtual Point Clouds (*.vpc *.VPC)", FileFilter())
	assert.Equal(t, "pointcloud", LayerTypePointCloud.String())
}
