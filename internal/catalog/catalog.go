// Package catalog decodes virtual point cloud catalog documents.
//
// Two incompatible dialects are supported and converge on the same Tile
// descriptor: the legacy VPC layout ({"vpc", "metadata", "files"}) and a STAC
// ItemCollection whose items describe point cloud tiles. Whole-document
// problems fail the parse; problems with a single entry skip that entry and
// are reported in Result.Diagnostics.
package catalog

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/beetlebugorg/vpc/internal/crs"
	"github.com/beetlebugorg/vpc/internal/extent"
)

// Tile describes one physical point cloud file covered by the catalog.
type Tile struct {
	URI        string      // Absolute local path or URL
	PointCount int64       // Declared point count, 0 when unknown
	Extent     extent.Rect // Extent in catalog CRS, unset when unknown
	ID         string      // Item id or file name, for diagnostics
}

// Attribute describes one per-point attribute of the dataset.
type Attribute struct {
	Name string
	Type string // "signed", "unsigned" or "floating"
	Size int    // Bytes
}

// DefaultAttributes is the attribute set reported when the catalog does not
// describe one.
func DefaultAttributes() []Attribute {
	return []Attribute{
		{Name: "X", Type: "signed", Size: 4},
		{Name: "Y", Type: "signed", Size: 4},
		{Name: "Z", Type: "signed", Size: 4},
	}
}

// Result is a decoded catalog.
type Result struct {
	Dialect    Dialect
	CRS        crs.CRS
	Tiles      []Tile
	Extent     *extent.Aggregator
	Attributes []Attribute

	// Diagnostics lists every skipped or degraded entry as an *ItemError or
	// *ReprojectionError, in document order.
	Diagnostics []error
}

// PointCount returns the sum of declared point counts.
func (r *Result) PointCount() int64 {
	var n int64
	for _, t := range r.Tiles {
		n += t.PointCount
	}
	return n
}

// Options controls catalog decoding.
type Options struct {
	// Transforms supplies reprojection. Default: crs.DefaultProvider().
	Transforms crs.Provider

	// Logger receives one warning per skipped entry. Default: disabled.
	Logger *zerolog.Logger

	// Versions is the semver constraint STAC items must satisfy.
	// Default: ">= 1.0.0, < 2.0.0"
	Versions string
}

// DefaultOptions returns the default decoding options.
func DefaultOptions() Options {
	return Options{
		Transforms: crs.DefaultProvider(),
		Versions:   DefaultVersions,
	}
}

// DefaultVersions is the range of stac_version values accepted by default.
const DefaultVersions = ">= 1.0.0, < 2.0.0"

func (o Options) withDefaults() Options {
	if o.Transforms == nil {
		o.Transforms = crs.DefaultProvider()
	}
	if o.Logger == nil {
		nop := zerolog.Nop()
		o.Logger = &nop
	}
	if o.Versions == "" {
		o.Versions = DefaultVersions
	}
	return o
}

// ParseFile reads and decodes the catalog at path. Relative tile locations
// are resolved against the directory holding the catalog.
//
// Example:
//
//	res, err := catalog.ParseFile("/data/lidar/survey.vpc", catalog.DefaultOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%d tiles in %s\n", len(res.Tiles), res.CRS)
func ParseFile(path string, opts Options) (*Result, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}
	return Parse(data, filepath.Dir(abs), opts)
}

// ParseReader reads the whole document from r and decodes it.
func ParseReader(r io.Reader, baseDir string, opts Options) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &IOError{Path: baseDir, Err: err}
	}
	return Parse(data, baseDir, opts)
}

// Parse decodes a catalog document. baseDir is the directory relative tile
// locations are resolved against.
//
// Only whole-document failures are returned as errors (*FormatError). Entries
// that are malformed or cannot be reprojected are skipped and listed in
// Result.Diagnostics.
func Parse(data []byte, baseDir string, opts Options) (*Result, error) {
	opts = opts.withDefaults()

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, &FormatError{Reason: "document is not valid JSON", Err: err}
	}

	dialect, err := detectDialect(doc)
	if err != nil {
		return nil, err
	}

	if baseDir == "" {
		baseDir = "."
	}
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, &IOError{Path: baseDir, Err: err}
	}

	p := &parser{
		opts:       opts,
		log:        opts.Logger.With().Str("dialect", dialect.String()).Logger(),
		baseDir:    absBase,
		transforms: make(map[transformKey]transformEntry),
		res: &Result{
			Dialect: dialect,
			Extent:  extent.NewAggregator(),
		},
	}

	switch dialect {
	case DialectLegacy:
		err = p.parseLegacy(data)
	case DialectSTAC:
		err = p.parseSTAC(data, doc)
	default:
		err = &FormatError{Reason: "unsupported dialect"}
	}
	if err != nil {
		return nil, err
	}

	if len(p.res.Attributes) == 0 {
		p.res.Attributes = DefaultAttributes()
	}
	return p.res, nil
}

type transformKey struct{ src, dst string }

type transformEntry struct {
	t   crs.Transformer
	err error
}

// parser carries the state of one Parse call.
type parser struct {
	opts       Options
	log        zerolog.Logger
	baseDir    string
	res        *Result
	transforms map[transformKey]transformEntry
}

// emit appends a tile and folds its extent into the aggregate.
func (p *parser) emit(t Tile) {
	p.res.Tiles = append(p.res.Tiles, t)
	p.res.Extent.Add(t.Extent)
}

// skip records a recoverable per-entry problem.
func (p *parser) skip(err error) {
	p.res.Diagnostics = append(p.res.Diagnostics, err)
	p.log.Warn().Err(err).Msg("skipping catalog entry")
}

// degrade records a problem that keeps the entry but loses information.
func (p *parser) degrade(err error, msg string) {
	p.res.Diagnostics = append(p.res.Diagnostics, err)
	p.log.Warn().Err(err).Msg(msg)
}

// transformer returns a cached transformer for the pair.
func (p *parser) transformer(src, dst crs.CRS) (crs.Transformer, error) {
	key := transformKey{src: src.String(), dst: dst.String()}
	if e, ok := p.transforms[key]; ok {
		return e.t, e.err
	}
	t, err := p.opts.Transforms.NewTransformer(src, dst)
	if err != nil {
		err = fmt.Errorf("create transform: %w", err)
	}
	p.transforms[key] = transformEntry{t: t, err: err}
	return t, err
}

// bboxNumbers rejects null elements, which encoding/json would otherwise
// leave at zero.
func bboxNumbers(b []*float64) ([]float64, error) {
	out := make([]float64, len(b))
	for i, v := range b {
		if v == nil {
			return nil, fmt.Errorf("bbox element %d is null", i)
		}
		out[i] = *v
	}
	return out, nil
}

// rectFromBBox reads a 2-D (4 numbers) or 3-D (6 numbers) bounding box.
func rectFromBBox(raw []*float64) (extent.Rect, error) {
	b, err := bboxNumbers(raw)
	if err != nil {
		return extent.Rect{}, err
	}
	switch len(b) {
	case 4:
		return extent.New(b[0], b[1], b[2], b[3]), nil
	case 6:
		return extent.New(b[0], b[1], b[3], b[4]), nil
	}
	return extent.Rect{}, fmt.Errorf("bbox must have 4 or 6 numbers, got %d", len(b))
}
