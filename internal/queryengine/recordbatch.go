// Package queryengine implements the embedded SQL surface: a catalog of
// dynamically registered Table and Namespace plugins served through
// go-mysql-server, a RecordBatch wire type, and RON/JSON result encoding.
package queryengine

import (
	"fmt"

	"github.com/oriys/probe/internal/element"
)

// Field describes one column of a RecordBatch: a name and the scalar kind
// every value in that column holds.
type Field struct {
	Name string
	Kind element.Kind
}

// RecordBatch is a schema (ordered named fields) plus equal-length columns
// of scalar values. It is the wire exchange format between the query
// engine and its callers, and the shape a Table/Namespace plugin's data
// producer returns.
type RecordBatch struct {
	Fields  []Field
	Columns [][]element.Ele
}

// NewRecordBatch builds a RecordBatch after checking that every column has
// the same length and matches its field's declared kind.
func NewRecordBatch(fields []Field, columns [][]element.Ele) (*RecordBatch, error) {
	if len(fields) != len(columns) {
		return nil, fmt.Errorf("queryengine: %d fields but %d columns", len(fields), len(columns))
	}
	if len(columns) > 0 {
		n := len(columns[0])
		for i, col := range columns {
			if len(col) != n {
				return nil, fmt.Errorf("queryengine: column %q has %d rows, want %d", fields[i].Name, len(col), n)
			}
			for _, v := range col {
				if !v.IsNil() && v.Kind() != fields[i].Kind {
					return nil, fmt.Errorf("queryengine: column %q: value kind %s disagrees with field kind %s", fields[i].Name, v.Kind(), fields[i].Kind)
				}
			}
		}
	}
	return &RecordBatch{Fields: fields, Columns: columns}, nil
}

// NumRows reports the RecordBatch's row count (zero for a schema-only,
// empty batch).
func (b *RecordBatch) NumRows() int {
	if len(b.Columns) == 0 {
		return 0
	}
	return len(b.Columns[0])
}

// Row returns the i'th row as a slice of Elements in field order.
func (b *RecordBatch) Row(i int) []element.Ele {
	row := make([]element.Ele, len(b.Columns))
	for c, col := range b.Columns {
		row[c] = col[i]
	}
	return row
}

// FieldNames returns the batch's column names in declared order.
func (b *RecordBatch) FieldNames() []string {
	names := make([]string, len(b.Fields))
	for i, f := range b.Fields {
		names[i] = f.Name
	}
	return names
}
