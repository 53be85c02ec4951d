package tsstore

import (
	"testing"

	"github.com/oriys/probe/internal/element"
)

func TestSeriesNumericRoundtrip(t *testing.T) {
	s := NewSeries(SeriesConfig{
		ChunkSize:            256,
		CompressionThreshold: 8,
		DiscardThreshold:     0, // unbounded
		CompressionLevel:     2,
	})

	for i := int64(0); i < 512; i++ {
		if err := s.Append(element.I64(i)); err != nil {
			t.Fatalf("append(%d) failed: %v", i, err)
		}
	}

	if got := s.Len(); got != 512 {
		t.Fatalf("Len() = %d, want 512", got)
	}
	if got := s.CommittedSlices(); got != 2 {
		t.Fatalf("CommittedSlices() = %d, want 2", got)
	}

	first, ok := s.Get(0)
	if !ok {
		t.Fatalf("Get(0) missing")
	}
	if v, _ := first.I64(); v != 0 {
		t.Fatalf("Get(0) = %d, want 0", v)
	}

	last, ok := s.Get(511)
	if !ok {
		t.Fatalf("Get(511) missing")
	}
	if v, _ := last.I64(); v != 511 {
		t.Fatalf("Get(511) = %d, want 511", v)
	}

	if nb := s.NBytes(); nb*5 >= 512*8 {
		t.Fatalf("NBytes()=%d did not compress by ~5x (512*8=%d)", nb, 512*8)
	}
}

func TestSeriesTypeMismatch(t *testing.T) {
	s := NewSeries(DefaultSeriesConfig())
	if err := s.Append(element.I64(1)); err != nil {
		t.Fatalf("first append failed: %v", err)
	}
	before := s.Len()
	if err := s.Append(element.Text("oops")); err == nil {
		t.Fatalf("expected TypeMismatch, got nil")
	}
	if s.Len() != before {
		t.Fatalf("offset advanced on failed append: %d != %d", s.Len(), before)
	}
}

func TestSeriesEviction(t *testing.T) {
	s := NewSeries(SeriesConfig{
		ChunkSize:            256,
		CompressionThreshold: 128,
		DiscardThreshold:     200,
		CompressionLevel:     2,
	})

	for i := int64(0); i < 2048; i++ {
		if err := s.Append(element.I64(i)); err != nil {
			t.Fatalf("append(%d) failed: %v", i, err)
		}
	}

	dropped := s.Dropped()
	if dropped <= 0 {
		t.Fatalf("Dropped() = %d, want > 0", dropped)
	}
	if _, ok := s.Get(0); ok {
		t.Fatalf("Get(0) should be evicted")
	}
	v, ok := s.Get(dropped)
	if !ok {
		t.Fatalf("Get(dropped=%d) should be the first still-present element", dropped)
	}
	if got, _ := v.I64(); got != dropped {
		t.Fatalf("Get(dropped) = %d, want %d", got, dropped)
	}
}

func TestTimeSeriesTableScan(t *testing.T) {
	ts := NewTimeSeries([]string{"a", "b"}, element.KindI64, DefaultSeriesConfig())

	rows := [][2]int64{{1, 2}, {3, 4}, {5, 6}}
	for i, r := range rows {
		err := ts.Append(int64(i), map[string]element.Ele{
			"a": element.I64(r[0]),
			"b": element.I64(r[1]),
		})
		if err != nil {
			t.Fatalf("append row %d: %v", i, err)
		}
	}

	if got := ts.Len(); got != 3 {
		t.Fatalf("Len() = %d, want 3", got)
	}
	for i, want := range rows {
		_, row, ok := ts.Row(int64(i))
		if !ok {
			t.Fatalf("Row(%d) missing", i)
		}
		a, _ := row["a"].I64()
		b, _ := row["b"].I64()
		if a != want[0] || b != want[1] {
			t.Fatalf("Row(%d) = (%d,%d), want (%d,%d)", i, a, b, want[0], want[1])
		}
	}
}
