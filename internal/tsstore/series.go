// Package tsstore implements the agent's bounded in-memory time-series
// columnar store: chunked Series of typed Elements with page-level
// compression and head-eviction when memory thresholds are crossed, plus
// TimeSeries, a timestamp column paired with named value columns.
package tsstore

import (
	"sort"
	"sync"

	"github.com/oriys/probe/internal/element"
	"github.com/oriys/probe/internal/perr"
)

// SeriesConfig controls a Series' chunking, compression, and eviction
// behavior. ElementKind is fixed from the first append if left
// KindNil.
type SeriesConfig struct {
	ChunkSize            int
	CompressionThreshold int64 // bytes; committed+current bytes above this trigger compression
	DiscardThreshold     int64 // bytes; committed bytes above this trigger head eviction
	CompressionLevel     int
	ElementKind          element.Kind
}

// DefaultSeriesConfig returns sane defaults: 1024-element chunks, compress
// past 64KiB committed plus current, evict past 8MiB committed.
func DefaultSeriesConfig() SeriesConfig {
	return SeriesConfig{
		ChunkSize:            1024,
		CompressionThreshold: 64 * 1024,
		DiscardThreshold:     8 * 1024 * 1024,
		CompressionLevel:     2,
	}
}

// Series is a chunked, append-only column of Elements. It holds an
// ordered run of committed Slices plus at most one uncommitted "current"
// slice accepting appends, and tracks the absolute append offset, the
// count of elements dropped from the head, and the running committed
// byte total.
type Series struct {
	mu sync.RWMutex

	cfg SeriesConfig

	committed    []*slice // ascending by offset, disjoint
	committedLen int64    // total committed bytes

	current    *page
	currentOff int64

	offset  int64 // absolute next-append offset
	dropped int64 // elements dropped from the head
}

// NewSeries builds an empty Series under cfg.
func NewSeries(cfg SeriesConfig) *Series {
	return &Series{cfg: cfg}
}

// Len reports the number of live (non-dropped) elements.
func (s *Series) Len() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.offset - s.dropped
}

// NBytes reports the current total footprint: committed bytes plus the
// current slice's raw bytes.
func (s *Series) NBytes() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := s.committedLen
	if s.current != nil {
		n += s.current.nbytes()
	}
	return n
}

// CommittedSlices reports the number of committed (chunked) slices, used
// by tests asserting chunking behavior.
func (s *Series) CommittedSlices() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.committed)
}

// Append pushes e onto the series per the append protocol: the element
// type is fixed from the first append; a mismatched later append fails
// with TypeMismatch and leaves the series unchanged; reaching chunk_size
// commits the current slice, possibly compressing and evicting.
func (s *Series) Append(e element.Ele) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.offset == int64(^uint64(0)>>1) {
		return perr.New(perr.CodeCapacityExceeded, "series.append", "absolute offset exhausted")
	}

	if s.current == nil {
		kind := s.cfg.ElementKind
		if kind == element.KindNil {
			kind = e.Kind()
			s.cfg.ElementKind = kind
		}
		if e.Kind() != kind {
			return perr.Wrap(perr.CodeTypeMismatch, "series.append",
				"expected "+kind.String()+", got "+e.Kind().String(), nil)
		}
		s.current = newRawPage(kind, s.cfg.ChunkSize)
		s.currentOff = s.offset
	} else if e.Kind() != s.current.kind() {
		return perr.Wrap(perr.CodeTypeMismatch, "series.append",
			"expected "+s.current.kind().String()+", got "+e.Kind().String(), nil)
	}

	if err := s.current.push(e); err != nil {
		return err
	}
	s.offset++

	if s.current.len() >= s.cfg.ChunkSize {
		s.commitCurrent()
	}
	return nil
}

// commitCurrent must be called with s.mu held. It compresses the current
// slice if committed+current bytes cross CompressionThreshold, inserts it
// into the committed run, and evicts from the head while committed bytes
// exceed DiscardThreshold.
func (s *Series) commitCurrent() {
	pg := s.current
	off := s.currentOff
	count := pg.len()

	if s.cfg.CompressionThreshold > 0 && s.committedLen+pg.nbytes() > s.cfg.CompressionThreshold {
		_ = pg.compress(s.cfg.CompressionLevel)
	}

	sl := &slice{offset: off, count: count, pg: pg}
	s.committed = append(s.committed, sl)
	s.committedLen += pg.nbytes()

	s.current = nil
	s.currentOff = s.offset

	if s.cfg.DiscardThreshold > 0 {
		for s.committedLen > s.cfg.DiscardThreshold && len(s.committed) > 0 {
			oldest := s.committed[0]
			s.committed = s.committed[1:]
			s.committedLen -= oldest.pg.nbytes()
			s.dropped += int64(oldest.count)
		}
	}
}

// Get returns the element at absolute index i, or false if i has been
// dropped or has not yet been appended.
func (s *Series) Get(i int64) (element.Ele, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i < s.dropped || i >= s.offset {
		return element.Nil, false
	}
	if s.current != nil && i >= s.currentOff {
		return s.current.get(int(i - s.currentOff))
	}

	idx := sort.Search(len(s.committed), func(k int) bool {
		return s.committed[k].offset+int64(s.committed[k].count) > i
	})
	if idx >= len(s.committed) {
		return element.Nil, false
	}
	sl := s.committed[idx]
	if !sl.covers(i) {
		return element.Nil, false
	}
	return sl.pg.get(int(i - sl.offset))
}

// Dropped reports how many elements have been evicted from the head.
func (s *Series) Dropped() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dropped
}

// Kind reports the series' element type, fixed after the first Append.
func (s *Series) Kind() element.Kind {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.ElementKind
}
