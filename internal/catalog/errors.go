package catalog

import (
	"errors"
	"fmt"

	"github.com/beetlebugorg/vpc/internal/crs"
)

// ErrFormat matches every *FormatError via errors.Is.
var ErrFormat = errors.New("unrecognized catalog format")

// ErrNoCRS is wrapped by a ReprojectionError when an item needs reprojection
// before any catalog CRS has been discovered.
var ErrNoCRS = errors.New("no catalog CRS discovered yet")

// IOError indicates the catalog document could not be read.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("read catalog %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// FormatError indicates the document matches neither catalog dialect.
type FormatError struct {
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid catalog: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid catalog: %s", e.Reason)
}

func (e *FormatError) Is(target error) bool { return target == ErrFormat }

func (e *FormatError) Unwrap() error { return e.Err }

// ItemError indicates one catalog entry was malformed and skipped.
type ItemError struct {
	Index  int    // Position of the entry in the document
	ID     string // Item id or file name, when known
	Reason string
}

func (e *ItemError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("catalog entry %d (%s): %s", e.Index, e.ID, e.Reason)
	}
	return fmt.Sprintf("catalog entry %d: %s", e.Index, e.Reason)
}

// ReprojectionError indicates an entry's extent could not be brought into the
// catalog CRS.
type ReprojectionError struct {
	Index  int
	ID     string
	Source crs.CRS
	Target crs.CRS
	Err    error
}

func (e *ReprojectionError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("catalog entry %d (%s): reproject %s -> %s: %v", e.Index, e.ID, e.Source, e.Target, e.Err)
	}
	return fmt.Sprintf("catalog entry %d: reproject %s -> %s: %v", e.Index, e.Source, e.Target, e.Err)
}

func (e *ReprojectionError) Unwrap() error { return e.Err }
