package tsstore

import (
	"github.com/oriys/probe/internal/element"
	"github.com/oriys/probe/internal/perr"
)

// TimeSeries is a timestamp Series paired with N named value Series of
// the same length. Append validates the column count up front, then
// pushes timestamp and every value one after another; a mismatch partway
// through leaves earlier columns already appended (source behavior); see
// Append's doc.
type TimeSeries struct {
	Timestamps *Series
	columns    map[string]*Series
	order      []string // preserves declaration order for table scans
}

// NewTimeSeries builds a TimeSeries with the given named value columns,
// each typed kind. Columns are declared once at construction; the set of
// names is fixed thereafter.
func NewTimeSeries(names []string, kind element.Kind, cfg SeriesConfig) *TimeSeries {
	ts := &TimeSeries{
		Timestamps: NewSeries(SeriesConfig{
			ChunkSize:            cfg.ChunkSize,
			CompressionThreshold: cfg.CompressionThreshold,
			DiscardThreshold:     cfg.DiscardThreshold,
			CompressionLevel:     cfg.CompressionLevel,
			ElementKind:          element.KindDateTime,
		}),
		columns: make(map[string]*Series, len(names)),
		order:   append([]string(nil), names...),
	}
	for _, name := range names {
		c := cfg
		c.ElementKind = kind
		ts.columns[name] = NewSeries(c)
	}
	return ts
}

// Names returns the value column names in declaration order.
func (t *TimeSeries) Names() []string { return t.order }

// Column returns the named value Series, or nil if unknown.
func (t *TimeSeries) Column(name string) *Series { return t.columns[name] }

// Append validates that values has exactly one entry per declared column,
// then appends the timestamp followed by each value. If a later column's
// push fails with TypeMismatch, earlier columns and the timestamp have
// already been appended and the series lengths diverge by design (the
// permitted partial-failure behavior); callers wanting strict atomicity
// should pre-validate types with Kind() before calling Append.
func (t *TimeSeries) Append(ts int64, values map[string]element.Ele) error {
	if len(values) != len(t.order) {
		return perr.New(perr.CodeInvalidRequest, "timeseries.append",
			"column count mismatch")
	}
	if err := t.Timestamps.Append(element.DateTime(ts)); err != nil {
		return err
	}
	for _, name := range t.order {
		v, ok := values[name]
		if !ok {
			return perr.New(perr.CodeInvalidRequest, "timeseries.append", "missing column "+name)
		}
		if err := t.columns[name].Append(v); err != nil {
			return err
		}
	}
	return nil
}

// Len reports the number of rows (equal to the timestamp series' length).
func (t *TimeSeries) Len() int64 { return t.Timestamps.Len() }

// Row returns the timestamp and values at absolute row index i.
func (t *TimeSeries) Row(i int64) (int64, map[string]element.Ele, bool) {
	tsEle, ok := t.Timestamps.Get(i)
	if !ok {
		return 0, nil, false
	}
	ts, _ := tsEle.DateTime()
	row := make(map[string]element.Ele, len(t.order))
	for _, name := range t.order {
		v, ok := t.columns[name].Get(i)
		if !ok {
			return 0, nil, false
		}
		row[name] = v
	}
	return ts, row, true
}
