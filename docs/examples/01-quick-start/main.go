package main

import (
	"fmt"
	"log"

	"github.com/beetlebugorg/vpc/pkg/vpc"
)

func main() {
	// Open catalog; no tile is read yet
	p, err := vpc.Open("survey.vpc", vpc.DefaultOptions())
	if err != nil {
		log.Fatal(err)
	}
	defer p.Close()

	// Print catalog info
	fmt.Printf("Dialect: %s\n", p.Dialect())
	fmt.Printf("CRS: %s\n", p.CRS())
	fmt.Printf("Tiles: %d\n", p.TileCount())
	fmt.Printf("Points: %d\n", p.PointCount())

	// Get catalog extent
	e := p.Extent()
	fmt.Printf("Extent: [%.2f,%.2f] to [%.2f,%.2f]\n",
		e.MinX(), e.MinY(),
		e.MaxX(), e.MaxY())
}
