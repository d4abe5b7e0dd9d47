package main

import (
	"context"
	"fmt"
	"log"

	"github.com/beetlebugorg/vpc/pkg/vpc"
)

func main() {
	opts := vpc.DefaultOptions()
	opts.MaxResident = 16

	p, err := vpc.Open("survey.vpc", opts)
	if err != nil {
		log.Fatal(err)
	}
	defer p.Close()

	// Define viewport in the catalog CRS
	viewport := vpc.NewRect(500000, 4640000, 501000, 4641000)

	// Query R-tree index for visible tiles (O(log n))
	tiles := p.TilesInBounds(viewport)
	fmt.Printf("Visible tiles: %d\n", len(tiles))

	// Open only the tiles in view
	ctx := context.Background()
	for _, i := range tiles {
		h, err := p.LoadTile(ctx, i)
		if err != nil {
			log.Printf("  #%d: %v", i, err)
			continue
		}
		idx, ok := h.Index()
		if !ok {
			continue
		}
		info := idx.Info()
		fmt.Printf("  #%d: LAS %s, %d points\n", i, info.Version(), info.PointCount)
	}

	s := p.Stats()
	fmt.Printf("Loaded %d of %d tiles\n", s.Loaded, s.Tiles)
}
