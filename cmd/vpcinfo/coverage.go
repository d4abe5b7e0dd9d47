package main

import (
	"encoding/json"

	"github.com/paulmach/orb/geojson"
	"github.com/spf13/cobra"

	"github.com/beetlebugorg/vpc/pkg/vpc"
)

func newCoverageCmd(a *app) *cobra.Command {
	var merged bool

	cmd := &cobra.Command{
		Use:   "coverage <catalog.vpc>",
		Short: "Write the tile coverage as GeoJSON",
		Long: `Write a GeoJSON FeatureCollection with one polygon per tile whose extent is
known. Coordinates are in the catalog CRS. With --merged a single
MultiPolygon feature holds the whole coverage shape.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.open(args[0], a.options())
			if err != nil {
				return err
			}
			defer p.Close()

			fc := coverageCollection(p, merged)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(fc)
		},
	}
	cmd.Flags().BoolVar(&merged, "merged", false, "Emit one MultiPolygon feature instead of one feature per tile")
	return cmd
}

func coverageCollection(p *vpc.Provider, merged bool) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	if b, ok := p.Extent().Bound(); ok {
		fc.BBox = geojson.NewBBox(b)
	}
	fc.ExtraMembers = geojson.Properties{"crs_id": p.CRS().String()}

	if merged {
		f := geojson.NewFeature(p.BoundingPolygon())
		f.Properties["tiles"] = p.TileCount()
		f.Properties["points"] = p.PointCount()
		fc.Append(f)
		return fc
	}

	for i := 0; i < p.TileCount(); i++ {
		t, err := p.Tile(i)
		if err != nil || !t.Extent.IsSet() {
			continue
		}
		f := geojson.NewFeature(t.Extent.Polygon())
		f.ID = i
		f.Properties["uri"] = t.URI
		f.Properties["points"] = t.PointCount
		fc.Append(f)
	}
	return fc
}
