package tileindex

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/beetlebugorg/vpc/internal/extent"
)

// LAS public header layout. Offsets are shared by every LAS 1.x version;
// fields past minHeaderSize only exist from LAS 1.4 on.
const (
	signature = "LASF"

	offVersionMajor = 24
	offVersionMinor = 25
	offHeaderSize   = 94
	offPointFormat  = 104
	offLegacyCount  = 107
	offMaxX         = 179
	offMinX         = 187
	offMaxY         = 195
	offMinY         = 203
	offMaxZ         = 211
	offMinZ         = 219
	offPointCount14 = 247

	minHeaderSize = 227 // LAS 1.0 - 1.2
	headerSize14  = 375 // LAS 1.4

	// HeaderProbeSize is the number of leading bytes needed to decode any
	// supported header.
	HeaderProbeSize = headerSize14
)

// Info summarizes what a loaded index knows about its tile.
type Info struct {
	URI          string
	VersionMajor int
	VersionMinor int
	PointFormat  int
	PointCount   uint64
	Extent       extent.Rect
	MinZ, MaxZ   float64
	Compressed   bool // Point format has the LAZ compression bit set
}

// Version returns the LAS version as "major.minor".
func (i Info) Version() string {
	return fmt.Sprintf("%d.%d", i.VersionMajor, i.VersionMinor)
}

// HeaderError reports a tile whose public header cannot be decoded.
type HeaderError struct {
	URI    string
	Reason string
}

func (e *HeaderError) Error() string {
	if e.URI == "" {
		return fmt.Sprintf("invalid LAS header: %s", e.Reason)
	}
	return fmt.Sprintf("invalid LAS header in %s: %s", e.URI, e.Reason)
}

// decodeHeader reads the LAS public header from the leading bytes of a tile.
func decodeHeader(uri string, b []byte) (Info, error) {
	if len(b) < minHeaderSize {
		return Info{}, &HeaderError{URI: uri, Reason: fmt.Sprintf("need %d bytes, got %d", minHeaderSize, len(b))}
	}
	if string(b[:4]) != signature {
		return Info{}, &HeaderError{URI: uri, Reason: fmt.Sprintf("bad signature %q", b[:4])}
	}

	info := Info{
		URI:          uri,
		VersionMajor: int(b[offVersionMajor]),
		VersionMinor: int(b[offVersionMinor]),
	}
	if info.VersionMajor != 1 || info.VersionMinor > 4 {
		return Info{}, &HeaderError{URI: uri, Reason: "unsupported version " + info.Version()}
	}

	size := int(binary.LittleEndian.Uint16(b[offHeaderSize:]))
	if size < minHeaderSize {
		return Info{}, &HeaderError{URI: uri, Reason: fmt.Sprintf("header size %d too small", size)}
	}

	format := b[offPointFormat]
	info.Compressed = format&0x80 != 0
	info.PointFormat = int(format & 0x3f)

	info.PointCount = uint64(binary.LittleEndian.Uint32(b[offLegacyCount:]))
	if info.VersionMinor >= 4 {
		if size < headerSize14 || len(b) < headerSize14 {
			return Info{}, &HeaderError{URI: uri, Reason: "truncated LAS 1.4 header"}
		}
		info.PointCount = binary.LittleEndian.Uint64(b[offPointCount14:])
	}

	f := func(off int) float64 {
		return math.Float64frombits(binary.LittleEndian.Uint64(b[off:]))
	}
	minX, maxX, minY, maxY := f(offMinX), f(offMaxX), f(offMinY), f(offMaxY)
	info.MinZ, info.MaxZ = f(offMinZ), f(offMaxZ)
	for _, v := range []float64{minX, maxX, minY, maxY, info.MinZ, info.MaxZ} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Info{}, &HeaderError{URI: uri, Reason: "non-finite bounds"}
		}
	}
	info.Extent = extent.New(minX, minY, maxX, maxY)

	return info, nil
}
