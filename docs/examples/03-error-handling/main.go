package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/beetlebugorg/vpc/pkg/vpc"
)

func safeOpen(path string) (*vpc.Provider, error) {
	p, err := vpc.Open(path, vpc.DefaultOptions())
	if err != nil {
		var ioErr *vpc.IOError
		if errors.As(err, &ioErr) {
			return nil, fmt.Errorf("catalog not readable: %s", ioErr.Path)
		}
		if errors.Is(err, vpc.ErrFormat) {
			return nil, fmt.Errorf("not a virtual point cloud: %w", err)
		}
		return nil, err
	}

	// Skipped or degraded entries do not fail the open
	for _, d := range p.Diagnostics() {
		var re *vpc.ReprojectionError
		if errors.As(d, &re) {
			log.Printf("Warning: entry %d kept without extent: %v", re.Index, re.Err)
			continue
		}
		log.Printf("Warning: %v", d)
	}

	if !p.IsValid() {
		log.Printf("Warning: %s lists no tiles", path)
	}
	return p, nil
}

func main() {
	p, err := safeOpen("survey.vpc")
	if err != nil {
		log.Printf("Error: %v", err)
		return
	}
	defer p.Close()

	fmt.Printf("Successfully opened catalog: %d tiles\n", p.TileCount())

	// A tile that fails to load is reported and can be retried later
	for i := 0; i < p.TileCount(); i++ {
		_, err := p.LoadTile(context.Background(), i)
		var le *vpc.IndexLoadError
		if errors.As(err, &le) {
			log.Printf("Tile %d (%s) failed: %v", le.Index, le.URI, le.Err)
		}
	}

	// Positions outside the catalog are rejected
	if _, err := p.Tile(p.TileCount()); errors.Is(err, vpc.ErrIndexOutOfRange) {
		log.Printf("Expected error: %v", err)
	}
}
