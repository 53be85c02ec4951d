package tsstore

import (
	"context"

	"github.com/oriys/probe/internal/element"
	"github.com/oriys/probe/internal/queryengine"
)

// NamespacePlugin adapts a Store to queryengine.NamespacePlugin, exposing
// every registered TimeSeries as a live table under the given namespace
// (the "python.<name>" tables of scenario 6: timestamp plus each value
// column, in declaration order).
type NamespacePlugin struct {
	namespace string
	store     *Store
}

// NewNamespacePlugin wraps store as a query-engine namespace named ns.
func NewNamespacePlugin(ns string, store *Store) *NamespacePlugin {
	return &NamespacePlugin{namespace: ns, store: store}
}

func (p *NamespacePlugin) Namespace() string { return p.namespace }

func (p *NamespacePlugin) List(ctx context.Context) ([]string, error) {
	return p.store.List(), nil
}

func (p *NamespacePlugin) Table(ctx context.Context, name string) (*queryengine.RecordBatch, error) {
	ts, ok := p.store.Get(name)
	if !ok {
		return nil, nil
	}

	names := ts.Names()
	fields := make([]queryengine.Field, 0, len(names)+1)
	fields = append(fields, queryengine.Field{Name: "timestamp", Kind: element.KindDateTime})
	for _, n := range names {
		fields = append(fields, queryengine.Field{Name: n, Kind: ts.Column(n).Kind()})
	}

	columns := make([][]element.Ele, len(fields))
	n := ts.Len()
	for i := int64(0); i < n; i++ {
		ts64, row, ok := ts.Row(i)
		if !ok {
			continue
		}
		columns[0] = append(columns[0], element.DateTime(ts64))
		for c, name := range names {
			columns[c+1] = append(columns[c+1], row[name])
		}
	}

	return queryengine.NewRecordBatch(fields, columns)
}
