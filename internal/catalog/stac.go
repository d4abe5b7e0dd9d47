package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/beetlebugorg/vpc/internal/crs"
	"github.com/beetlebugorg/vpc/internal/extent"
)

// JSON structures for STAC ItemCollections
type stacCollection struct {
	Features []json.RawMessage `json:"features"`
}

// id and pc:schemas are informational, so they are decoded separately and
// never cost the item.
type stacItem struct {
	RawID       json.RawMessage `json:"id"`
	StacVersion string          `json:"stac_version"`
	BBox        []*float64      `json:"bbox"`
	Assets      json.RawMessage `json:"assets"`
	Properties  stacProperties  `json:"properties"`

	ID string `json:"-"`
}

type stacProperties struct {
	Count   json.Number     `json:"pc:count"`
	EPSG    *json.Number    `json:"proj:epsg"`
	Code    *string         `json:"proj:code"`
	WKT2    *string         `json:"proj:wkt2"`
	BBox    []*float64      `json:"proj:bbox"`
	Schemas json.RawMessage `json:"pc:schemas"`
}

type stacSchema struct {
	Name string `json:"name"`
	Size int    `json:"size"`
	Type string `json:"type"`
}

type stacAsset struct {
	Href string `json:"href"`
}

// parseSTAC decodes an ItemCollection. generic is the same document decoded
// for schema validation; its features line up with the typed ones.
func (p *parser) parseSTAC(data []byte, generic any) error {
	var coll stacCollection
	if err := json.Unmarshal(data, &coll); err != nil {
		return &FormatError{Reason: "decode item collection", Err: err}
	}

	versions, err := semver.NewConstraint(p.opts.Versions)
	if err != nil {
		return fmt.Errorf("invalid stac version constraint %q: %w", p.opts.Versions, err)
	}

	var genericFeatures []any
	if m, ok := generic.(map[string]any); ok {
		genericFeatures, _ = m["features"].([]any)
	}

	p.res.Tiles = make([]Tile, 0, len(coll.Features))
	for i, raw := range coll.Features {
		if i < len(genericFeatures) {
			if reason, ok := validateItem(genericFeatures[i]); !ok {
				p.skip(&ItemError{Index: i, ID: itemID(genericFeatures[i]), Reason: reason})
				continue
			}
		}

		var item stacItem
		if err := json.Unmarshal(raw, &item); err != nil {
			p.skip(&ItemError{Index: i, ID: rawID(item.RawID), Reason: fmt.Sprintf("decode item: %v", err)})
			continue
		}
		item.ID = rawID(item.RawID)

		if tile, ok := p.stacTile(i, item, versions); ok {
			p.emit(tile)
		}
	}
	return nil
}

// stacTile converts one validated item. It reports false when the item was
// skipped; the reason has already been recorded.
func (p *parser) stacTile(i int, item stacItem, versions *semver.Constraints) (Tile, bool) {
	v, err := semver.NewVersion(item.StacVersion)
	if err != nil {
		p.skip(&ItemError{Index: i, ID: item.ID, Reason: fmt.Sprintf("invalid stac_version %q", item.StacVersion)})
		return Tile{}, false
	}
	if !versions.Check(v) {
		p.skip(&ItemError{Index: i, ID: item.ID, Reason: fmt.Sprintf("unsupported stac_version %s", v)})
		return Tile{}, false
	}

	href, err := firstAssetHref(item.Assets)
	if err != nil {
		p.skip(&ItemError{Index: i, ID: item.ID, Reason: err.Error()})
		return Tile{}, false
	}

	count, err := parseCount(item.Properties.Count)
	if err != nil {
		p.skip(&ItemError{Index: i, ID: item.ID, Reason: err.Error()})
		return Tile{}, false
	}

	itemCRS, err := item.Properties.crs()
	if err != nil {
		p.skip(&ItemError{Index: i, ID: item.ID, Reason: err.Error()})
		return Tile{}, false
	}
	if itemCRS.IsValid() && !p.res.CRS.IsValid() {
		p.res.CRS = itemCRS
		p.log.Debug().Str("crs", itemCRS.String()).Int("item", i).Msg("catalog CRS discovered")
	}

	tile := Tile{
		URI:        ResolveURI(href, p.baseDir),
		PointCount: count,
		ID:         item.ID,
	}

	switch {
	case item.Properties.BBox != nil:
		native, err := rectFromBBox(item.Properties.BBox)
		if err != nil {
			p.skip(&ItemError{Index: i, ID: item.ID, Reason: "proj:bbox: " + err.Error()})
			return Tile{}, false
		}
		// proj:bbox is in the item's own CRS; it only needs work when that
		// differs from the catalog CRS.
		if itemCRS.IsValid() && !itemCRS.Equal(p.res.CRS) {
			native, err = p.reproject(native, itemCRS)
			if err != nil {
				p.skip(&ReprojectionError{Index: i, ID: item.ID, Source: itemCRS, Target: p.res.CRS, Err: err})
				return Tile{}, false
			}
		}
		tile.Extent = native

	case item.BBox != nil:
		geo, err := rectFromBBox(item.BBox)
		if err != nil {
			p.skip(&ItemError{Index: i, ID: item.ID, Reason: "bbox: " + err.Error()})
			return Tile{}, false
		}
		if !p.res.CRS.IsValid() {
			p.skip(&ReprojectionError{Index: i, ID: item.ID, Source: crs.WGS84, Err: ErrNoCRS})
			return Tile{}, false
		}
		projected, err := p.reproject(geo, crs.WGS84)
		if err != nil {
			p.skip(&ReprojectionError{Index: i, ID: item.ID, Source: crs.WGS84, Target: p.res.CRS, Err: err})
			return Tile{}, false
		}
		tile.Extent = projected
	}

	if len(p.res.Attributes) == 0 {
		p.res.Attributes = p.attributes(i, item)
	}

	return tile, true
}

// attributes reads pc:schemas. Malformed entries are dropped with a
// diagnostic; the item itself is kept.
func (p *parser) attributes(i int, item stacItem) []Attribute {
	raw := bytes.TrimSpace(item.Properties.Schemas)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		p.degrade(&ItemError{Index: i, ID: item.ID, Reason: "pc:schemas is not a list"}, badSchema)
		return nil
	}

	var attrs []Attribute
	for k, e := range entries {
		var s stacSchema
		if err := json.Unmarshal(e, &s); err != nil || s.Name == "" {
			p.degrade(&ItemError{Index: i, ID: item.ID, Reason: fmt.Sprintf("pc:schemas[%d] is malformed", k)}, badSchema)
			continue
		}
		attrs = append(attrs, Attribute{Name: s.Name, Type: s.Type, Size: s.Size})
	}
	return attrs
}

const badSchema = "ignoring malformed point attribute schema"

// reproject brings r from src into the catalog CRS.
func (p *parser) reproject(r extent.Rect, src crs.CRS) (extent.Rect, error) {
	t, err := p.transformer(src, p.res.CRS)
	if err != nil {
		return extent.Rect{}, err
	}
	b, _ := r.Bound()
	out, err := t.TransformBound(b)
	if err != nil {
		return extent.Rect{}, err
	}
	return extent.FromBound(out), nil
}

// crs returns the coordinate system the item declares, if any.
// proj:epsg wins over proj:code, which wins over proj:wkt2.
func (props stacProperties) crs() (crs.CRS, error) {
	switch {
	case props.EPSG != nil:
		code, err := props.EPSG.Int64()
		if err != nil || code <= 0 {
			return crs.CRS{}, fmt.Errorf("invalid proj:epsg %q", props.EPSG.String())
		}
		return crs.FromEPSG(int(code)), nil
	case props.Code != nil && *props.Code != "":
		c, err := crs.Parse(*props.Code)
		if err != nil {
			return crs.CRS{}, fmt.Errorf("proj:code: %w", err)
		}
		return c, nil
	case props.WKT2 != nil && *props.WKT2 != "":
		c := crs.FromWKT(*props.WKT2)
		if !c.IsValid() {
			return crs.CRS{}, fmt.Errorf("invalid proj:wkt2")
		}
		return c, nil
	}
	return crs.CRS{}, nil
}

// firstAssetHref returns the href of the first asset in document order.
// Object key order is not preserved by map decoding, so the assets object is
// walked token by token.
func firstAssetHref(raw json.RawMessage) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return "", fmt.Errorf("read assets: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return "", fmt.Errorf("assets is not an object")
	}

	tok, err = dec.Token()
	if err == io.EOF {
		return "", fmt.Errorf("no assets")
	}
	if err != nil {
		return "", fmt.Errorf("read assets: %w", err)
	}
	name, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("no assets")
	}

	var asset stacAsset
	if err := dec.Decode(&asset); err != nil {
		return "", fmt.Errorf("decode asset %q: %w", name, err)
	}
	href := strings.TrimSpace(asset.Href)
	if href == "" {
		return "", fmt.Errorf("asset %q has no href", name)
	}
	return href, nil
}

// itemID extracts the id of a generic feature for diagnostics.
func itemID(v any) string {
	m, ok := v.(map[string]any)
	if !ok || m["id"] == nil {
		return ""
	}
	if id, ok := m["id"].(string); ok {
		return id
	}
	return fmt.Sprint(m["id"])
}

// rawID renders an item id of any JSON type as text.
func rawID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		return id
	}
	return string(raw)
}
