package catalog

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/beetlebugorg/vpc/internal/crs"
	"github.com/beetlebugorg/vpc/internal/extent"
)

// JSON structures for the legacy VPC layout
type legacyDocument struct {
	Metadata legacyMetadata    `json:"metadata"`
	Files    []json.RawMessage `json:"files"`
}

type legacyMetadata struct {
	CRS string `json:"crs"`
}

type legacyFile struct {
	Filename string      `json:"filename"`
	Count    json.Number `json:"count"`
	BBox     []*float64  `json:"bbox"`
}

const noExtent = "catalog entry has no usable extent"

// parseLegacy decodes the legacy layout. Each file's bbox is geographic and
// is transformed into the metadata CRS with one shared transform.
func (p *parser) parseLegacy(data []byte) error {
	var doc legacyDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return &FormatError{Reason: "decode legacy catalog", Err: err}
	}

	catalogCRS, crsErr := crs.Parse(doc.Metadata.CRS)
	if crsErr == nil {
		p.res.CRS = catalogCRS
	}

	var transform crs.Transformer
	transformErr := crsErr
	if crsErr == nil {
		transform, transformErr = p.transformer(crs.WGS84, catalogCRS)
	}

	p.res.Tiles = make([]Tile, 0, len(doc.Files))
	for i, raw := range doc.Files {
		var f legacyFile
		if err := json.Unmarshal(raw, &f); err != nil {
			p.skip(&ItemError{Index: i, Reason: fmt.Sprintf("decode file entry: %v", err)})
			continue
		}
		if f.Filename == "" {
			p.skip(&ItemError{Index: i, Reason: "missing filename"})
			continue
		}
		bbox, err := bboxNumbers(f.BBox)
		if err == nil && len(bbox) != 6 {
			err = fmt.Errorf("bbox must have 6 numbers, got %d", len(bbox))
		}
		if err != nil {
			p.skip(&ItemError{Index: i, ID: f.Filename, Reason: err.Error()})
			continue
		}
		count, err := parseCount(f.Count)
		if err != nil {
			p.skip(&ItemError{Index: i, ID: f.Filename, Reason: err.Error()})
			continue
		}

		tile := Tile{
			URI:        ResolveURI(f.Filename, p.baseDir),
			PointCount: count,
			ID:         f.Filename,
		}

		geo := extent.New(bbox[0], bbox[1], bbox[3], bbox[4])
		if transformErr != nil {
			p.degrade(&ReprojectionError{Index: i, ID: f.Filename, Source: crs.WGS84, Target: catalogCRS, Err: transformErr}, noExtent)
		} else {
			b, _ := geo.Bound()
			projected, err := transform.TransformBound(b)
			if err != nil {
				p.degrade(&ReprojectionError{Index: i, ID: f.Filename, Source: crs.WGS84, Target: catalogCRS, Err: err}, noExtent)
			} else {
				tile.Extent = extent.FromBound(projected)
			}
		}

		p.emit(tile)
	}
	return nil
}

// parseCount reads a declared point count. Missing counts are 0.
func parseCount(n json.Number) (int64, error) {
	if n == "" {
		return 0, nil
	}
	if v, err := n.Int64(); err == nil {
		if v < 0 {
			return 0, fmt.Errorf("negative point count %d", v)
		}
		return v, nil
	}
	f, err := n.Float64()
	if err != nil || f < 0 || f != math.Trunc(f) || f > math.MaxInt64 {
		return 0, fmt.Errorf("invalid point count %q", n.String())
	}
	return int64(f), nil
}
