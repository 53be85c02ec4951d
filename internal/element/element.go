// Package element defines the scalar value type shared by every cell in
// every table the agent exposes, and the homogeneous typed sequences built
// from it.
package element

import (
	"fmt"
	"net/url"
	"time"
)

// Kind identifies which variant an Element or Seq holds.
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindI32
	KindI64
	KindF32
	KindF64
	KindText
	KindURL
	KindDateTime
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindI32:
		return "i32"
	case KindI64:
		return "i64"
	case KindF32:
		return "f32"
	case KindF64:
		return "f64"
	case KindText:
		return "text"
	case KindURL:
		return "url"
	case KindDateTime:
		return "datetime"
	default:
		return "unknown"
	}
}

// Ele is a sum of scalar values: nil, bool, i32, i64, f32, f64, text, url,
// or a microseconds-since-epoch datetime. Every cell in any table the
// query engine exposes is an Ele.
type Ele struct {
	kind Kind
	b    bool
	i32  int32
	i64  int64
	f32  float32
	f64  float64
	text string
	url  *url.URL
	dt   int64 // microseconds since epoch
}

// Nil is the nil Element.
var Nil = Ele{kind: KindNil}

func Bool(v bool) Ele     { return Ele{kind: KindBool, b: v} }
func I32(v int32) Ele     { return Ele{kind: KindI32, i32: v} }
func I64(v int64) Ele     { return Ele{kind: KindI64, i64: v} }
func F32(v float32) Ele   { return Ele{kind: KindF32, f32: v} }
func F64(v float64) Ele   { return Ele{kind: KindF64, f64: v} }
func Text(v string) Ele   { return Ele{kind: KindText, text: v} }
func URL(v *url.URL) Ele  { return Ele{kind: KindURL, url: v} }

// DateTime builds a datetime Element from microseconds since the Unix epoch.
func DateTime(micros int64) Ele { return Ele{kind: KindDateTime, dt: micros} }

// DateTimeFrom builds a datetime Element from a time.Time.
func DateTimeFrom(t time.Time) Ele {
	return DateTime(t.UnixMicro())
}

// Kind returns the Element's variant tag.
func (e Ele) Kind() Kind { return e.kind }

// IsNil reports whether the Element is the nil variant.
func (e Ele) IsNil() bool { return e.kind == KindNil }

func (e Ele) Bool() (bool, bool)       { return e.b, e.kind == KindBool }
func (e Ele) I32() (int32, bool)       { return e.i32, e.kind == KindI32 }
func (e Ele) I64() (int64, bool)       { return e.i64, e.kind == KindI64 }
func (e Ele) F32() (float32, bool)     { return e.f32, e.kind == KindF32 }
func (e Ele) F64() (float64, bool)     { return e.f64, e.kind == KindF64 }
func (e Ele) Text() (string, bool)     { return e.text, e.kind == KindText }
func (e Ele) URL() (*url.URL, bool)    { return e.url, e.kind == KindURL }
func (e Ele) DateTime() (int64, bool)  { return e.dt, e.kind == KindDateTime }

// Any returns the Element's value boxed as an interface{}, or nil for the
// nil variant. Used at the query-engine boundary where go-mysql-server
// expects driver-style values.
func (e Ele) Any() any {
	switch e.kind {
	case KindNil:
		return nil
	case KindBool:
		return e.b
	case KindI32:
		return e.i32
	case KindI64:
		return e.i64
	case KindF32:
		return e.f32
	case KindF64:
		return e.f64
	case KindText:
		return e.text
	case KindURL:
		if e.url == nil {
			return ""
		}
		return e.url.String()
	case KindDateTime:
		return time.UnixMicro(e.dt).UTC()
	default:
		return nil
	}
}

func (e Ele) String() string {
	switch e.kind {
	case KindNil:
		return ""
	case KindBool:
		return fmt.Sprintf("%t", e.b)
	case KindI32:
		return fmt.Sprintf("%d", e.i32)
	case KindI64:
		return fmt.Sprintf("%d", e.i64)
	case KindF32:
		return fmt.Sprintf("%g", e.f32)
	case KindF64:
		return fmt.Sprintf("%g", e.f64)
	case KindText:
		return e.text
	case KindURL:
		if e.url == nil {
			return ""
		}
		return e.url.String()
	case KindDateTime:
		return time.UnixMicro(e.dt).UTC().Format(time.RFC3339Nano)
	default:
		return ""
	}
}
