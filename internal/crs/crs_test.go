package crs

import (
	"errors"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		code int
	}{
		{"EPSG:3857", 3857},
		{"epsg:2154", 2154},
		{"urn:ogc:def:crs:EPSG::32633", 32633},
		{"urn:ogc:def:crs:EPSG:9.8.15:4326", 4326},
		{"4326", 4326},
		{"EPSG:900913", 3857},
		{`PROJCS["WGS 84 / Pseudo-Mercator",GEOGCS["WGS 84",AUTHORITY["EPSG","4326"]],AUTHORITY["EPSG","3857"]]`, 3857},
		{`PROJCRS["ETRS89 / UTM zone 33N",BASEGEOGCRS["ETRS89",ID["EPSG",4258]],ID["EPSG",25833]]`, 25833},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c, err := Parse(tt.in)
			require.NoError(t, err)
			code, ok := c.EPSG()
			require.True(t, ok)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestParseInvalid(t *testing.T) {
	for _, in := range []string{"", "EPSG:", "EPSG:abc", "not a crs", "-1"} {
		_, err := Parse(in)
		assert.Error(t, err, in)
	}
}

func TestWKTWithoutAuthority(t *testing.T) {
	wkt := `LOCAL_CS["site grid",UNIT["metre",1]]`
	c, err := Parse(wkt)
	require.NoError(t, err)

	_, ok := c.EPSG()
	assert.False(t, ok)
	assert.Equal(t, wkt, c.WKT())
	assert.True(t, c.Equal(FromWKT(wkt)))
	assert.False(t, c.Equal(WGS84))
}

func TestEqual(t *testing.T) {
	assert.True(t, FromEPSG(3857).Equal(FromEPSG(900913)))
	assert.True(t, FromWKT(`GEOGCS["WGS 84",AUTHORITY["EPSG","4326"]]`).Equal(WGS84))
	assert.False(t, CRS{}.IsValid())
	assert.Equal(t, "EPSG:4326", WGS84.String())
}

func TestIdentityTransform(t *testing.T) {
	tr, err := DefaultProvider().NewTransformer(FromEPSG(2154), FromEPSG(2154))
	require.NoError(t, err)

	b := orb.Bound{Min: orb.Point{1, 2}, Max: orb.Point{3, 4}}
	out, err := tr.TransformBound(b)
	require.NoError(t, err)
	assert.Equal(t, b, out)
}

func TestGeographicToWebMercator(t *testing.T) {
	tr, err := DefaultProvider().NewTransformer(WGS84, WebMercator)
	require.NoError(t, err)

	out, err := tr.TransformBound(orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{1, 1}})
	require.NoError(t, err)

	want := project.WGS84.ToMercator(orb.Point{1, 1})
	assert.InDelta(t, 0, out.Min[0], 1e-6)
	assert.InDelta(t, 0, out.Min[1], 1e-6)
	assert.InDelta(t, want[0], out.Max[0], 1e-6)
	assert.InDelta(t, want[1], out.Max[1], 1e-6)
	assert.InDelta(t, 111319.49, out.Max[0], 1)
	assert.InDelta(t, 111325.14, out.Max[1], 1)
}

func TestRoundTrip(t *testing.T) {
	p := DefaultProvider()
	fwd, err := p.NewTransformer(WGS84, WebMercator)
	require.NoError(t, err)
	back, err := p.NewTransformer(WebMercator, WGS84)
	require.NoError(t, err)

	b := orb.Bound{Min: orb.Point{-10, 40}, Max: orb.Point{5, 50}}
	m, err := fwd.TransformBound(b)
	require.NoError(t, err)
	g, err := back.TransformBound(m)
	require.NoError(t, err)

	assert.InDelta(t, b.Min[0], g.Min[0], 1e-9)
	assert.InDelta(t, b.Min[1], g.Min[1], 1e-9)
	assert.InDelta(t, b.Max[0], g.Max[0], 1e-9)
	assert.InDelta(t, b.Max[1], g.Max[1], 1e-9)
}

func TestTransformOutsideDomain(t *testing.T) {
	tr, err := DefaultProvider().NewTransformer(WGS84, WebMercator)
	require.NoError(t, err)

	_, err = tr.TransformBound(orb.Bound{Min: orb.Point{0, 80}, Max: orb.Point{1, 90}})
	assert.Error(t, err)
}

func TestUnsupportedPair(t *testing.T) {
	_, err := DefaultProvider().NewTransformer(WGS84, FromEPSG(2154))
	var unsupported *ErrUnsupported
	require.True(t, errors.As(err, &unsupported))
	assert.True(t, unsupported.Target.Equal(FromEPSG(2154)))

	_, err = DefaultProvider().NewTransformer(CRS{}, WGS84)
	assert.Error(t, err)
}
