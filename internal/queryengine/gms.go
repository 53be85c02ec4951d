package queryengine

import (
	"context"
	"fmt"
	"io"

	"github.com/dolthub/go-mysql-server/sql"
	"github.com/dolthub/go-mysql-server/sql/types"

	"github.com/oriys/probe/internal/element"
)

// sqlType maps an Element kind to the go-mysql-server column type used to
// describe it in a table's Schema().
func sqlType(k element.Kind) sql.Type {
	switch k {
	case element.KindBool:
		return types.Boolean
	case element.KindI32:
		return types.Int32
	case element.KindI64:
		return types.Int64
	case element.KindF32:
		return types.Float32
	case element.KindF64:
		return types.Float64
	case element.KindURL:
		return types.Text
	case element.KindDateTime:
		return types.Timestamp
	default:
		return types.Text
	}
}

func gmsSchema(tableName string, fields []Field) sql.Schema {
	cols := make(sql.Schema, len(fields))
	for i, f := range fields {
		cols[i] = &sql.Column{
			Name:     f.Name,
			Type:     sqlType(f.Kind),
			Nullable: true,
			Source:   tableName,
		}
	}
	return cols
}

// gmsTable adapts a RecordBatch producer to go-mysql-server's sql.Table,
// scanning the whole batch as a single partition.
type gmsTable struct {
	name   string
	schema sql.Schema
	data   func(ctx context.Context) (*RecordBatch, error)
}

func (t *gmsTable) Name() string             { return t.name }
func (t *gmsTable) String() string           { return t.name }
func (t *gmsTable) Schema() sql.Schema       { return t.schema }
func (t *gmsTable) Collation() sql.CollationID {
	return sql.Collation_Default
}

func (t *gmsTable) Partitions(ctx *sql.Context) (sql.PartitionIter, error) {
	return &singlePartitionIter{}, nil
}

func (t *gmsTable) PartitionRows(ctx *sql.Context, _ sql.Partition) (sql.RowIter, error) {
	batch, err := t.data(ctx.Context)
	if err != nil {
		return nil, err
	}
	return &batchRowIter{batch: batch}, nil
}

type singlePartition struct{}

func (singlePartition) Key() []byte { return []byte("all") }

type singlePartitionIter struct{ done bool }

func (it *singlePartitionIter) Next(ctx *sql.Context) (sql.Partition, error) {
	if it.done {
		return nil, io.EOF
	}
	it.done = true
	return singlePartition{}, nil
}

func (it *singlePartitionIter) Close(ctx *sql.Context) error { return nil }

type batchRowIter struct {
	batch *RecordBatch
	idx   int
}

func (it *batchRowIter) Next(ctx *sql.Context) (sql.Row, error) {
	if it.idx >= it.batch.NumRows() {
		return nil, io.EOF
	}
	row := it.batch.Row(it.idx)
	it.idx++
	vals := make(sql.Row, len(row))
	for i, e := range row {
		vals[i] = e.Any()
	}
	return vals, nil
}

func (it *batchRowIter) Close(ctx *sql.Context) error { return nil }

// gmsDatabase adapts one catalog namespace to sql.Database, resolving
// static Table-plugin tables directly and dynamic Namespace-plugin tables
// lazily, inferring their schema from the first RecordBatch returned.
type gmsDatabase struct {
	name  string
	entry *namespaceEntry
}

func (d *gmsDatabase) Name() string { return d.name }

func (d *gmsDatabase) GetTableInsensitive(ctx *sql.Context, tblName string) (sql.Table, bool, error) {
	if p, ok := d.entry.tables[tblName]; ok {
		return &gmsTable{
			name:   tblName,
			schema: gmsSchema(tblName, p.Schema()),
			data:   func(ctx context.Context) (*RecordBatch, error) { return p.Data(ctx) },
		}, true, nil
	}
	if d.entry.dynamic != nil {
		batch, err := d.entry.dynamic.Table(ctx.Context, tblName)
		if err != nil {
			return nil, false, err
		}
		if batch == nil {
			return nil, false, nil
		}
		dyn := d.entry.dynamic
		return &gmsTable{
			name:   tblName,
			schema: gmsSchema(tblName, batch.Fields),
			data:   func(ctx context.Context) (*RecordBatch, error) { return dyn.Table(ctx, tblName) },
		}, true, nil
	}
	return nil, false, nil
}

func (d *gmsDatabase) GetTableNames(ctx *sql.Context) ([]string, error) {
	names := make([]string, 0, len(d.entry.tables))
	for n := range d.entry.tables {
		names = append(names, n)
	}
	if d.entry.dynamic != nil {
		dynNames, err := d.entry.dynamic.List(ctx.Context)
		if err != nil {
			return nil, err
		}
		names = append(names, dynNames...)
	}
	return names, nil
}

// gmsProvider adapts a Catalog to go-mysql-server's sql.DatabaseProvider,
// so every registered namespace appears as a schema (`SELECT ... FROM
// ns.table`).
type gmsProvider struct {
	catalog *Catalog
}

func (p *gmsProvider) Database(ctx *sql.Context, name string) (sql.Database, error) {
	entry := p.catalog.namespace(name)
	if entry == nil {
		return nil, fmt.Errorf("queryengine: unknown namespace %q", name)
	}
	return &gmsDatabase{name: name, entry: entry}, nil
}

func (p *gmsProvider) HasDatabase(ctx *sql.Context, name string) bool {
	return p.catalog.namespace(name) != nil
}

func (p *gmsProvider) AllDatabases(ctx *sql.Context) []sql.Database {
	names := p.catalog.Namespaces()
	dbs := make([]sql.Database, 0, len(names))
	for _, n := range names {
		entry := p.catalog.namespace(n)
		if entry != nil {
			dbs = append(dbs, &gmsDatabase{name: n, entry: entry})
		}
	}
	return dbs
}
