package registry

import (
	"github.com/beetlebugorg/vpc/internal/tileindex"
)

// Handle refers to a loaded tile index without owning it. The registry keeps
// ownership; once the tile is evicted or the registry closed, the handle
// stops resolving.
type Handle struct {
	reg   *Registry
	pos   int
	gen   uint64
	index tileindex.Index
}

// Tile returns the position of the tile the handle refers to.
func (h Handle) Tile() int { return h.pos }

// Index returns the index if the handle is still current.
func (h Handle) Index() (tileindex.Index, bool) {
	if !h.Valid() {
		return nil, false
	}
	return h.index, true
}

// Valid reports whether the slot still holds the index this handle was
// issued for.
func (h Handle) Valid() bool {
	if h.reg == nil || h.index == nil || h.reg.closed.Load() {
		return false
	}
	s := h.reg.slots[h.pos]
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateLoaded && s.gen == h.gen && s.index == h.index
}

// Same reports whether two handles refer to the same loaded index.
func (h Handle) Same(other Handle) bool {
	return h.reg == other.reg && h.pos == other.pos && h.gen == other.gen && h.index == other.index
}
