// Package vpc reads virtual point clouds: one logical dataset assembled from
// many point cloud tiles listed in a catalog document (.vpc).
//
// Two catalog dialects are understood, the legacy VPC layout and STAC
// ItemCollections with the pointcloud and projection extensions. Both produce
// the same ordered list of tiles, each with a location, a declared point
// count and an extent in the dataset CRS.
//
// # Basic Usage
//
//	p, err := vpc.Open("/data/lidar/survey.vpc", vpc.DefaultOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer p.Close()
//
//	fmt.Printf("%d tiles, %d points, CRS %s\n", p.TileCount(), p.PointCount(), p.CRS())
//
// # Lazy Tile Loading
//
// Opening a catalog reads only the catalog document. A tile's index is
// loaded the first time it is requested and kept until the provider is
// closed:
//
//	viewport := vpc.NewRect(1.60e6, 5.07e6, 1.61e6, 5.08e6)
//	for _, i := range p.TilesInBounds(viewport) {
//	    h, err := p.LoadTile(ctx, i)
//	    if err != nil {
//	        // The tile stays unloaded; asking again retries.
//	        continue
//	    }
//	    idx, _ := h.Index()
//	    fmt.Println(idx.Info().PointCount)
//	}
//
// Concurrent requests for the same tile share a single load.
//
// # Error Handling
//
// Open fails only when the catalog as a whole cannot be used (*IOError,
// *FormatError). Individual entries that are malformed or cannot be
// reprojected are skipped and reported by Diagnostics:
//
//	for _, d := range p.Diagnostics() {
//	    var item *vpc.ItemError
//	    if errors.As(d, &item) {
//	        log.Printf("skipped entry %d: %s", item.Index, item.Reason)
//	    }
//	}
package vpc
