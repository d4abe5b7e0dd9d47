package registry

import (
	"errors"
	"fmt"
)

var (
	// ErrIndexOutOfRange is matched by every *IndexError.
	ErrIndexOutOfRange = errors.New("tile index out of range")

	// ErrClosed is returned by LoadTile after Close.
	ErrClosed = errors.New("registry closed")

	// ErrInvalidIndex is the cause recorded when an index loaded without an
	// error but reports itself invalid.
	ErrInvalidIndex = errors.New("index is not valid after load")
)

// IndexError reports a tile position outside [0, TileCount).
type IndexError struct {
	Index int
	Count int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("tile %d out of range [0, %d)", e.Index, e.Count)
}

func (e *IndexError) Is(target error) bool {
	return target == ErrIndexOutOfRange
}

// IndexLoadError reports a failed tile index load. The slot is left empty
// and a later LoadTile retries.
type IndexLoadError struct {
	Index int
	URI   string
	Err   error
}

func (e *IndexLoadError) Error() string {
	return fmt.Sprintf("load tile %d (%s): %v", e.Index, e.URI, e.Err)
}

func (e *IndexLoadError) Unwrap() error {
	return e.Err
}
