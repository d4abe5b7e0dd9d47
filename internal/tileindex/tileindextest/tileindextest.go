// Package tileindextest builds LAS header fixtures for tests.
package tileindextest

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
)

// Header describes the fields written into a fixture.
type Header struct {
	Minor            int // LAS 1.x minor version, default 4
	PointFormat      int
	PointCount       uint64
	MinX, MinY, MinZ float64
	MaxX, MaxY, MaxZ float64
	Compressed       bool
}

// Bytes encodes h as a LAS public header.
func (h Header) Bytes() []byte {
	minor := h.Minor
	if minor == 0 {
		minor = 4
	}
	size := 375
	if minor < 4 {
		size = 227
	}

	b := make([]byte, size)
	copy(b, "LASF")
	b[24] = 1
	b[25] = byte(minor)
	binary.LittleEndian.PutUint16(b[94:], uint16(size))

	format := byte(h.PointFormat & 0x3f)
	if h.Compressed {
		format |= 0x80
	}
	b[104] = format

	legacy := h.PointCount
	if legacy > math.MaxUint32 {
		legacy = 0
	}
	binary.LittleEndian.PutUint32(b[107:], uint32(legacy))

	put := func(off int, v float64) {
		binary.LittleEndian.PutUint64(b[off:], math.Float64bits(v))
	}
	put(179, h.MaxX)
	put(187, h.MinX)
	put(195, h.MaxY)
	put(203, h.MinY)
	put(211, h.MaxZ)
	put(219, h.MinZ)

	if minor >= 4 {
		binary.LittleEndian.PutUint64(b[247:], h.PointCount)
	}
	return b
}

// WriteFile writes h to name inside dir and returns the full path.
func WriteFile(t testing.TB, dir, name string, h Header) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create fixture dir: %v", err)
	}
	if err := os.WriteFile(path, h.Bytes(), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}
