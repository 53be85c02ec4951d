package queryengine

import "encoding/json"

type jsonField struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

type jsonRecordBatch struct {
	Schema  []jsonField `json:"schema"`
	Columns [][]any     `json:"columns"`
}

// EncodeRecordBatchJSON renders a RecordBatch as the query engine's JSON
// result encoding, preserving column order, names, and type tags.
func EncodeRecordBatchJSON(b *RecordBatch) ([]byte, error) {
	out := jsonRecordBatch{
		Schema:  make([]jsonField, len(b.Fields)),
		Columns: make([][]any, len(b.Columns)),
	}
	for i, f := range b.Fields {
		out.Schema[i] = jsonField{Name: f.Name, Kind: f.Kind.String()}
	}
	for i, col := range b.Columns {
		vals := make([]any, len(col))
		for j, e := range col {
			vals[j] = e.Any()
		}
		out.Columns[i] = vals
	}
	return json.Marshal(out)
}
