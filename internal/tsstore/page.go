package tsstore

import "github.com/oriys/probe/internal/element"

// page is a Seq in one of two states: raw (in-memory typed vector, still
// accepting appends) or compressed (variant tag + zstd buffer + optional
// text codebook). A page knows how to produce an Element at a page-local
// offset, decompressing the whole page lazily and caching the result on
// first read.
type page struct {
	raw        *Seq
	compressed *compressed
	cache      *Seq // lazily rebuilt from compressed; nil until first Get
}

func newRawPage(kind element.Kind, capacity int) *page {
	return &page{raw: NewSeq(kind, capacity)}
}

func (p *page) isCompressed() bool { return p.compressed != nil }

func (p *page) kind() element.Kind {
	if p.raw != nil {
		return p.raw.Kind()
	}
	return p.compressed.kind
}

func (p *page) len() int {
	if p.raw != nil {
		return p.raw.Len()
	}
	return p.compressed.count
}

// nbytes reports the page's current footprint: raw Seq size if still raw,
// compressed buffer size otherwise.
func (p *page) nbytes() int64 {
	if p.raw != nil {
		return p.raw.NBytes()
	}
	return int64(len(p.compressed.buf))
}

// push appends to the raw Seq. Only valid while the page is raw.
func (p *page) push(e element.Ele) error {
	return p.raw.Push(e)
}

// compress transitions a raw page to compressed, at the given zstd level.
func (p *page) compress(level int) error {
	if p.compressed != nil {
		return nil
	}
	c, err := compressSeq(p.raw, level)
	if err != nil {
		return err
	}
	p.cache = p.raw
	p.compressed = c
	p.raw = nil
	return nil
}

// get returns the element at page-local offset i.
func (p *page) get(i int) (element.Ele, bool) {
	if p.raw != nil {
		return p.raw.Get(i)
	}
	if p.cache == nil {
		seq, err := decompressSeq(p.compressed)
		if err != nil {
			return element.Nil, false
		}
		p.cache = seq
	}
	return p.cache.Get(i)
}

// slice is a page plus the absolute offset of its first element and its
// element count. Slices are the unit of compression and of eviction.
type slice struct {
	offset int64
	count  int
	pg     *page
}

func (s *slice) covers(i int64) bool {
	return i >= s.offset && i < s.offset+int64(s.count)
}
