package tsstore

import (
	"fmt"

	"github.com/oriys/probe/internal/element"
	"github.com/oriys/probe/internal/perr"
)

// Seq is a homogeneous, append-only typed vector. Every element pushed
// to a Seq must share the Seq's Kind; a mismatched push fails with
// TypeMismatch and leaves the Seq unchanged.
type Seq struct {
	kind element.Kind

	bools []bool
	i32s  []int32
	i64s  []int64
	f32s  []float32
	f64s  []float64
	texts []string
	urls  []string // stored as rendered strings; re-parsed lazily on Get
	dts   []int64
}

// NewSeq builds an empty Seq of the given kind with the given capacity hint.
func NewSeq(kind element.Kind, capacity int) *Seq {
	s := &Seq{kind: kind}
	switch kind {
	case element.KindBool:
		s.bools = make([]bool, 0, capacity)
	case element.KindI32:
		s.i32s = make([]int32, 0, capacity)
	case element.KindI64:
		s.i64s = make([]int64, 0, capacity)
	case element.KindF32:
		s.f32s = make([]float32, 0, capacity)
	case element.KindF64:
		s.f64s = make([]float64, 0, capacity)
	case element.KindText:
		s.texts = make([]string, 0, capacity)
	case element.KindURL:
		s.urls = make([]string, 0, capacity)
	case element.KindDateTime:
		s.dts = make([]int64, 0, capacity)
	}
	return s
}

// Kind reports the Seq's element type.
func (s *Seq) Kind() element.Kind { return s.kind }

// Len reports the number of elements currently held.
func (s *Seq) Len() int {
	switch s.kind {
	case element.KindBool:
		return len(s.bools)
	case element.KindI32:
		return len(s.i32s)
	case element.KindI64:
		return len(s.i64s)
	case element.KindF32:
		return len(s.f32s)
	case element.KindF64:
		return len(s.f64s)
	case element.KindText:
		return len(s.texts)
	case element.KindURL:
		return len(s.urls)
	case element.KindDateTime:
		return len(s.dts)
	default:
		return 0
	}
}

// Push appends e to the Seq. e's Kind must match the Seq's Kind.
func (s *Seq) Push(e element.Ele) error {
	if e.Kind() != s.kind {
		return perr.Wrap(perr.CodeTypeMismatch, "seq.push",
			fmt.Sprintf("expected %s, got %s", s.kind, e.Kind()), nil)
	}
	switch s.kind {
	case element.KindBool:
		v, _ := e.Bool()
		s.bools = append(s.bools, v)
	case element.KindI32:
		v, _ := e.I32()
		s.i32s = append(s.i32s, v)
	case element.KindI64:
		v, _ := e.I64()
		s.i64s = append(s.i64s, v)
	case element.KindF32:
		v, _ := e.F32()
		s.f32s = append(s.f32s, v)
	case element.KindF64:
		v, _ := e.F64()
		s.f64s = append(s.f64s, v)
	case element.KindText:
		v, _ := e.Text()
		s.texts = append(s.texts, v)
	case element.KindURL:
		v, _ := e.URL()
		if v == nil {
			s.urls = append(s.urls, "")
		} else {
			s.urls = append(s.urls, v.String())
		}
	case element.KindDateTime:
		v, _ := e.DateTime()
		s.dts = append(s.dts, v)
	}
	return nil
}

// Get returns the element at local offset i, or Nil and false if out of
// range.
func (s *Seq) Get(i int) (element.Ele, bool) {
	if i < 0 || i >= s.Len() {
		return element.Nil, false
	}
	switch s.kind {
	case element.KindBool:
		return element.Bool(s.bools[i]), true
	case element.KindI32:
		return element.I32(s.i32s[i]), true
	case element.KindI64:
		return element.I64(s.i64s[i]), true
	case element.KindF32:
		return element.F32(s.f32s[i]), true
	case element.KindF64:
		return element.F64(s.f64s[i]), true
	case element.KindText:
		return element.Text(s.texts[i]), true
	case element.KindURL:
		u, err := parseURL(s.urls[i])
		if err != nil {
			return element.Text(s.urls[i]), true
		}
		return element.URL(u), true
	case element.KindDateTime:
		return element.DateTime(s.dts[i]), true
	default:
		return element.Nil, false
	}
}

// NBytes estimates the in-memory size of the raw (uncompressed) Seq, used
// to decide when a Slice crosses compression_threshold.
func (s *Seq) NBytes() int64 {
	switch s.kind {
	case element.KindBool:
		return int64(len(s.bools))
	case element.KindI32, element.KindF32:
		return int64(s.Len()) * 4
	case element.KindI64, element.KindF64, element.KindDateTime:
		return int64(s.Len()) * 8
	case element.KindText, element.KindURL:
		n := int64(0)
		if s.kind == element.KindText {
			for _, t := range s.texts {
				n += int64(len(t))
			}
		} else {
			for _, t := range s.urls {
				n += int64(len(t))
			}
		}
		return n
	default:
		return 0
	}
}
