// Package registry owns the ordered tile slots of a virtual point cloud and
// loads each tile's index lazily, on first access.
//
// A slot moves through Unloaded → Loading → Loaded or Failed. Concurrent
// requests for the same tile share one load; a failed load leaves the slot
// empty so the next request retries. Loaded indices stay resident until they
// are evicted, explicitly or by the MaxResident limit, or the registry is
// closed.
package registry

import (
	"container/list"
	"context"
	"errors"
	"io"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/singleflight"

	"github.com/beetlebugorg/vpc/internal/catalog"
	"github.com/beetlebugorg/vpc/internal/extent"
	"github.com/beetlebugorg/vpc/internal/tileindex"
)

// State is the load state of one slot.
type State int

const (
	StateUnloaded State = iota
	StateLoading
	StateLoaded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Options configures a Registry.
type Options struct {
	// Factory creates tile indices. Default: tileindex.NewFactory(nil).
	Factory tileindex.Factory

	// Logger receives load events. Default: disabled.
	Logger *zerolog.Logger

	// Metrics records loads. Optional.
	Metrics *Metrics

	// Tracer starts one span per actual load. Default: no-op.
	Tracer trace.Tracer

	// MaxResident caps the number of loaded indices. When a load would
	// exceed it, the least recently used tile is evicted. 0 means no limit.
	MaxResident int
}

// DefaultOptions returns the default registry options.
func DefaultOptions() Options {
	return Options{
		Factory: tileindex.NewFactory(nil),
	}
}

// Registry holds one slot per tile descriptor, in catalog order.
//
// Example:
//
//	reg := registry.New(res.Tiles, registry.DefaultOptions())
//	defer reg.Close()
//
//	h, err := reg.LoadTile(ctx, 0)
//	if err != nil {
//	    return err
//	}
//	idx, _ := h.Index()
//	fmt.Println(idx.Info().PointCount)
type Registry struct {
	tiles   []catalog.Tile
	slots   []*slot
	factory tileindex.Factory
	log     zerolog.Logger
	metrics *Metrics
	tracer  trace.Tracer
	flights singleflight.Group
	spatial *spatialIndex

	lruMu       sync.Mutex
	lru         *list.List // Loaded slot positions, most recent at front
	maxResident int

	closed   atomic.Bool
	attempts atomic.Int64
	failures atomic.Int64
}

// slot is the mutable per-tile state. gen counts lifetimes: it advances on
// every eviction so handles from an earlier lifetime can tell.
type slot struct {
	mu      sync.Mutex
	state   State
	index   tileindex.Index
	err     error
	gen     uint64
	element *list.Element
}

// New creates a registry over tiles. No index is loaded.
func New(tiles []catalog.Tile, opts Options) *Registry {
	if opts.Factory == nil {
		opts.Factory = tileindex.NewFactory(nil)
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	if opts.Tracer == nil {
		opts.Tracer = noop.NewTracerProvider().Tracer("")
	}

	r := &Registry{
		tiles:       append([]catalog.Tile(nil), tiles...),
		slots:       make([]*slot, len(tiles)),
		factory:     opts.Factory,
		log:         log,
		metrics:     opts.Metrics,
		tracer:      opts.Tracer,
		lru:         list.New(),
		maxResident: opts.MaxResident,
	}
	for i := range r.slots {
		r.slots[i] = &slot{}
	}
	r.spatial = newSpatialIndex(r.tiles)
	return r
}

// TileCount returns the number of tiles.
func (r *Registry) TileCount() int {
	return len(r.tiles)
}

func (r *Registry) check(i int) error {
	if i < 0 || i >= len(r.tiles) {
		return &IndexError{Index: i, Count: len(r.tiles)}
	}
	return nil
}

// Tile returns the descriptor at position i.
func (r *Registry) Tile(i int) (catalog.Tile, error) {
	if err := r.check(i); err != nil {
		return catalog.Tile{}, err
	}
	return r.tiles[i], nil
}

// TileURI returns the location of tile i.
func (r *Registry) TileURI(i int) (string, error) {
	t, err := r.Tile(i)
	return t.URI, err
}

// TileExtent returns the extent of tile i, unset when unknown.
func (r *Registry) TileExtent(i int) (extent.Rect, error) {
	t, err := r.Tile(i)
	return t.Extent, err
}

// DeclaredPointCount returns the point count the catalog declares for tile i.
func (r *Registry) DeclaredPointCount(i int) (int64, error) {
	t, err := r.Tile(i)
	return t.PointCount, err
}

// State returns the load state of tile i.
func (r *Registry) State(i int) (State, error) {
	if err := r.check(i); err != nil {
		return StateUnloaded, err
	}
	s := r.slots[i]
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, nil
}

// LoadTile returns a handle to the index of tile i, loading it if needed.
//
// A loaded index is returned without another load. Concurrent calls for the
// same tile share one load, and with it the context of the caller that
// started it. A failed load returns *IndexLoadError and leaves the slot empty;
// calling LoadTile again retries.
func (r *Registry) LoadTile(ctx context.Context, i int) (Handle, error) {
	if err := r.check(i); err != nil {
		return Handle{}, err
	}
	if r.closed.Load() {
		return Handle{}, ErrClosed
	}

	if h, ok := r.resident(i); ok {
		return h, nil
	}

	v, err, shared := r.flights.Do(strconv.Itoa(i), func() (any, error) {
		return r.load(ctx, i)
	})
	if shared {
		r.log.Debug().Int("tile", i).Msg("joined in-flight tile load")
	}
	if err != nil {
		return Handle{}, err
	}
	return v.(Handle), nil
}

// resident returns a handle when tile i is already loaded.
func (r *Registry) resident(i int) (Handle, bool) {
	s := r.slots[i]
	s.mu.Lock()
	if s.state != StateLoaded {
		s.mu.Unlock()
		return Handle{}, false
	}
	h := Handle{reg: r, pos: i, gen: s.gen, index: s.index}
	s.mu.Unlock()

	r.touch(i)
	return h, true
}

func (r *Registry) load(ctx context.Context, i int) (Handle, error) {
	// A load may have finished between the fast path and this flight.
	if h, ok := r.resident(i); ok {
		return h, nil
	}

	s := r.slots[i]
	uri := r.tiles[i].URI
	source := "local"
	if tileindex.IsRemote(uri) {
		source = "remote"
	}

	s.mu.Lock()
	s.state = StateLoading
	s.mu.Unlock()

	ctx, span := r.tracer.Start(ctx, "registry.LoadTile", trace.WithAttributes(
		attribute.Int("vpc.tile", i),
		attribute.String("vpc.uri", uri),
		attribute.String("vpc.source", source),
	))
	defer span.End()

	r.attempts.Add(1)
	start := time.Now()
	idx := r.factory.Create(uri)
	err := idx.Load(ctx, uri)
	if err == nil && !idx.IsValid() {
		err = idx.Err()
		if err == nil {
			err = ErrInvalidIndex
		}
	}
	elapsed := time.Since(start)
	r.metrics.observeLoad(source, elapsed.Seconds(), err)

	// closed is checked under s.mu: Close sets it before evicting, so an
	// index published here is always seen by that evict.
	var h Handle
	s.mu.Lock()
	if err == nil && r.closed.Load() {
		err = ErrClosed
	}
	if err != nil {
		s.state = StateFailed
		s.err = err
	} else {
		s.state = StateLoaded
		s.index = idx
		s.err = nil
		h = Handle{reg: r, pos: i, gen: s.gen, index: idx}
	}
	s.mu.Unlock()

	if err != nil {
		closeIndex(idx)
		r.failures.Add(1)

		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		r.log.Warn().Err(err).Int("tile", i).Str("uri", uri).Dur("elapsed", elapsed).Msg("tile load failed")
		return Handle{}, &IndexLoadError{Index: i, URI: uri, Err: err}
	}

	r.metrics.addResident(1)
	r.log.Debug().Int("tile", i).Str("uri", uri).Dur("elapsed", elapsed).Msg("tile loaded")

	r.admit(i, h.gen)
	return h, nil
}

// LoadedTiles returns the positions of tiles whose index is loaded and
// valid, in ascending order.
func (r *Registry) LoadedTiles() []int {
	var out []int
	for i, s := range r.slots {
		s.mu.Lock()
		if s.state == StateLoaded && s.index.IsValid() {
			out = append(out, i)
		}
		s.mu.Unlock()
	}
	return out
}

// Evict drops the index of tile i. Handles from the previous lifetime stop
// resolving; the next LoadTile loads again. Evicting an unloaded tile is a
// no-op.
func (r *Registry) Evict(i int) error {
	if err := r.check(i); err != nil {
		return err
	}
	return r.evict(i)
}

func (r *Registry) evict(i int) error {
	s := r.slots[i]
	s.mu.Lock()
	var idx tileindex.Index
	switch s.state {
	case StateLoaded:
		idx = s.index
		s.index = nil
		s.state = StateUnloaded
		s.gen++
	case StateFailed:
		s.state = StateUnloaded
		s.err = nil
	}
	s.mu.Unlock()

	if idx == nil {
		return nil
	}

	r.lruMu.Lock()
	if s.element != nil {
		r.lru.Remove(s.element)
		s.element = nil
	}
	r.lruMu.Unlock()

	r.metrics.addResident(-1)
	r.log.Debug().Int("tile", i).Msg("tile evicted")
	return closeIndex(idx)
}

// Close evicts every tile. LoadTile fails with ErrClosed afterwards.
func (r *Registry) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	var errs []error
	for i := range r.slots {
		if err := r.evict(i); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Stats describes the registry at one point in time.
type Stats struct {
	Tiles    int   // Number of slots
	Loaded   int   // Slots holding a loaded index
	Failed   int   // Slots whose last load failed
	Attempts int64 // Loads actually started
	Failures int64 // Loads that failed
}

// Stats returns current counters.
func (r *Registry) Stats() Stats {
	st := Stats{
		Tiles:    len(r.slots),
		Attempts: r.attempts.Load(),
		Failures: r.failures.Load(),
	}
	for _, s := range r.slots {
		s.mu.Lock()
		switch s.state {
		case StateLoaded:
			st.Loaded++
		case StateFailed:
			st.Failed++
		}
		s.mu.Unlock()
	}
	return st
}

// touch marks tile i as most recently used.
func (r *Registry) touch(i int) {
	if r.maxResident <= 0 {
		return
	}
	r.lruMu.Lock()
	defer r.lruMu.Unlock()
	if e := r.slots[i].element; e != nil {
		r.lru.MoveToFront(e)
	}
}

// admit records a fresh load and evicts least recently used tiles over the
// MaxResident limit.
func (r *Registry) admit(i int, gen uint64) {
	if r.maxResident <= 0 {
		return
	}

	r.lruMu.Lock()
	s := r.slots[i]
	s.mu.Lock()
	current := s.state == StateLoaded && s.gen == gen
	s.mu.Unlock()
	if !current {
		r.lruMu.Unlock()
		return
	}
	if s.element == nil {
		s.element = r.lru.PushFront(i)
	}
	var victims []int
	for e := r.lru.Back(); e != nil && r.lru.Len()-len(victims) > r.maxResident; e = e.Prev() {
		if pos := e.Value.(int); pos != i {
			victims = append(victims, pos)
		}
	}
	r.lruMu.Unlock()

	for _, pos := range victims {
		r.log.Debug().Int("tile", pos).Int("max_resident", r.maxResident).Msg("evicting least recently used tile")
		if err := r.evict(pos); err != nil {
			r.log.Warn().Err(err).Int("tile", pos).Msg("close evicted tile")
		}
	}
}

func closeIndex(idx tileindex.Index) error {
	if c, ok := idx.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
