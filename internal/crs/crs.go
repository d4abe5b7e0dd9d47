// Package crs identifies coordinate reference systems and hands out transforms
// between them.
//
// A CRS is identified either by an EPSG code or by a WKT definition. When a WKT
// string carries an EPSG authority (WKT1 AUTHORITY["EPSG","3857"] or WKT2
// ID["EPSG",3857]) the code is extracted so that two descriptions of the same
// system compare equal.
package crs

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// CRS is an immutable coordinate reference system identity.
//
// The zero value is the invalid (unknown) CRS.
type CRS struct {
	epsg int
	wkt  string
}

// WGS84 is geographic latitude/longitude on the WGS-84 ellipsoid (EPSG:4326).
var WGS84 = FromEPSG(4326)

// WebMercator is the spherical Mercator projection used by web maps (EPSG:3857).
var WebMercator = FromEPSG(3857)

var (
	wkt2ID        = regexp.MustCompile(`(?i)\bID\[\s*"EPSG"\s*,\s*"?(\d+)"?\s*\]\s*\]*\s*$`)
	wkt1Authority = regexp.MustCompile(`(?i)AUTHORITY\[\s*"EPSG"\s*,\s*"(\d+)"\s*\]\s*\]*\s*$`)
)

// FromEPSG returns the CRS for an EPSG code. Codes <= 0 yield the invalid CRS.
func FromEPSG(code int) CRS {
	if code <= 0 {
		return CRS{}
	}
	return CRS{epsg: canonicalCode(code)}
}

// FromWKT returns the CRS described by a WKT string.
//
// If the outermost element carries an EPSG identifier the CRS is keyed by that
// code; otherwise it is keyed by the (trimmed) WKT text.
func FromWKT(wkt string) CRS {
	wkt = strings.TrimSpace(wkt)
	if wkt == "" {
		return CRS{}
	}
	c := CRS{wkt: wkt}
	for _, re := range []*regexp.Regexp{wkt2ID, wkt1Authority} {
		if m := re.FindStringSubmatch(wkt); m != nil {
			if code, err := strconv.Atoi(m[1]); err == nil && code > 0 {
				c.epsg = canonicalCode(code)
			}
			break
		}
	}
	return c
}

// Parse decodes a CRS from the forms commonly found in catalog documents:
// "EPSG:3857", "epsg:3857", "urn:ogc:def:crs:EPSG::3857", a bare code "3857",
// or a WKT definition.
func Parse(s string) (CRS, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return CRS{}, fmt.Errorf("empty CRS definition")
	}

	upper := strings.ToUpper(s)
	switch {
	case strings.HasPrefix(upper, "EPSG:"):
		return parseCode(s[len("EPSG:"):], s)
	case strings.HasPrefix(upper, "URN:OGC:DEF:CRS:EPSG:"):
		rest := s[len("URN:OGC:DEF:CRS:EPSG:"):]
		// Version segment may be empty ("EPSG::3857") or present ("EPSG:9.9:3857").
		if i := strings.LastIndex(rest, ":"); i >= 0 {
			rest = rest[i+1:]
		}
		return parseCode(rest, s)
	case strings.Contains(s, "["):
		c := FromWKT(s)
		if !c.IsValid() {
			return CRS{}, fmt.Errorf("invalid WKT CRS definition")
		}
		return c, nil
	}

	return parseCode(s, s)
}

func parseCode(code, original string) (CRS, error) {
	n, err := strconv.Atoi(strings.TrimSpace(code))
	if err != nil || n <= 0 {
		return CRS{}, fmt.Errorf("invalid CRS definition %q", original)
	}
	return FromEPSG(n), nil
}

// canonicalCode folds legacy aliases of Web Mercator onto 3857.
func canonicalCode(code int) int {
	switch code {
	case 900913, 3785, 102100, 102113:
		return 3857
	}
	return code
}

// IsValid reports whether the CRS identifies anything.
func (c CRS) IsValid() bool {
	return c.epsg > 0 || c.wkt != ""
}

// EPSG returns the EPSG code, if known.
func (c CRS) EPSG() (int, bool) {
	return c.epsg, c.epsg > 0
}

// WKT returns the WKT definition the CRS was created from, if any.
func (c CRS) WKT() string {
	return c.wkt
}

// AuthID returns "EPSG:<code>" for coded systems and "" otherwise.
func (c CRS) AuthID() string {
	if c.epsg > 0 {
		return "EPSG:" + strconv.Itoa(c.epsg)
	}
	return ""
}

// Equal reports whether two CRS values identify the same system.
func (c CRS) Equal(other CRS) bool {
	if c.epsg > 0 || other.epsg > 0 {
		return c.epsg == other.epsg
	}
	return c.wkt == other.wkt
}

// String returns the authority id when known, else the WKT text.
func (c CRS) String() string {
	if id := c.AuthID(); id != "" {
		return id
	}
	if c.wkt != "" {
		return c.wkt
	}
	return "<invalid>"
}
