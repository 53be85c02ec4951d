package queryengine

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	sqle "github.com/dolthub/go-mysql-server"
	"github.com/dolthub/go-mysql-server/sql"
	"github.com/google/uuid"

	"github.com/oriys/probe/internal/element"
	"github.com/oriys/probe/internal/extconfig"
	"github.com/oriys/probe/internal/logging"
	"github.com/oriys/probe/internal/metrics"
)

var setStatementPattern = regexp.MustCompile(`(?i)^\s*SET\s+([A-Za-z0-9_.]+)\s*=\s*(.*?)\s*$`)

// Engine executes SQL against the probe catalog, routing SET statements to
// the extension/config registry and everything else to the embedded
// go-mysql-server engine.
type Engine struct {
	catalog *Catalog
	ext     *extconfig.Manager
	inner   *sqle.Engine
}

// NewEngine builds an Engine over a fresh, empty Catalog. ext may be nil
// if no SET-dispatchable extensions are registered (SET statements then
// fail with an engine error).
func NewEngine(ext *extconfig.Manager) *Engine {
	catalog := NewCatalog()
	provider := &gmsProvider{catalog: catalog}
	return &Engine{
		catalog: catalog,
		ext:     ext,
		inner:   sqle.NewDefault(provider),
	}
}

// Enable registers a Table or Namespace plugin. Duplicate (namespace,
// name) registration is an error, as is a second Namespace plugin for the
// same namespace.
func (e *Engine) Enable(p Plugin) error {
	return e.catalog.Enable(p)
}

// DataFrame is the lazy result of Engine.Sql: schema is known up front,
// rows are produced one at a time as the caller iterates via Next.
type DataFrame struct {
	Schema []Field
	iter   sql.RowIter
	sqlCtx *sql.Context
}

// Next returns the next row as Elements typed per Schema, or io.EOF when
// exhausted.
func (df *DataFrame) Next() ([]element.Ele, error) {
	if df.iter == nil {
		return nil, io.EOF
	}
	row, err := df.iter.Next(df.sqlCtx)
	if err != nil {
		return nil, err
	}
	out := make([]element.Ele, len(df.Schema))
	for i, f := range df.Schema {
		if i < len(row) {
			out[i] = anyToEle(row[i], f.Kind)
		}
	}
	return out, nil
}

// Close releases the underlying row iterator.
func (df *DataFrame) Close() error {
	if df.iter == nil {
		return nil
	}
	return df.iter.Close(df.sqlCtx)
}

func newSQLContext(ctx context.Context) *sql.Context {
	return sql.NewContext(ctx, sql.WithSession(sql.NewBaseSession()))
}

// splitStatements splits a query body into non-empty, ';'-separated
// statements, per §4.3's "every SET key=value statement is split on ;".
func splitStatements(query string) []string {
	var out []string
	for _, s := range strings.Split(query, ";") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// dispatchIfSet attempts to interpret stmt as a SET key=value statement,
// routing it through the extension manager. ok is false if stmt is not a
// SET statement and should instead be sent to the SQL engine.
func (e *Engine) dispatchIfSet(stmt string) (ok bool, err error) {
	m := setStatementPattern.FindStringSubmatch(stmt)
	if m == nil {
		return false, nil
	}
	if e.ext == nil {
		return true, fmt.Errorf("queryengine: no extension registry configured to handle SET %s", m[1])
	}
	key, value := m[1], strings.Trim(m[2], "'\"")
	if err := e.ext.Set(key, value); err != nil {
		metrics.RecordConfigSet("error")
		return true, err
	}
	metrics.RecordConfigSet("ok")
	return true, nil
}

// Sql executes query_text lazily: SET statements are dispatched
// immediately, and from the first non-SET statement on, the rest of the
// text (if any) is handed to go-mysql-server without materializing rows. Returns a nil DataFrame if
// every statement was a SET (the spec's QueryDataFormat::Nil case).
func (e *Engine) Sql(ctx context.Context, queryText string) (*DataFrame, error) {
	queryID := uuid.NewString()
	start := time.Now()
	df, err := e.execute(ctx, queryText)
	logging.Default().Log(&logging.QueryLog{
		QueryID:    queryID,
		Expr:       queryText,
		DurationMs: time.Since(start).Milliseconds(),
		Success:    err == nil,
		Error:      errString(err),
	})
	metrics.RecordQuery(err == nil, time.Since(start).Milliseconds())
	return df, err
}

// AsyncQuery executes query_text like Sql but materializes every row into
// RecordBatch-shaped columns before returning.
func (e *Engine) AsyncQuery(ctx context.Context, queryText string) (*RecordBatch, error) {
	df, err := e.Sql(ctx, queryText)
	if err != nil {
		return nil, err
	}
	if df == nil {
		return nil, nil
	}
	defer df.Close()

	columns := make([][]element.Ele, len(df.Schema))
	for {
		row, err := df.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		for i, v := range row {
			columns[i] = append(columns[i], v)
		}
	}
	return NewRecordBatch(df.Schema, columns)
}

func (e *Engine) execute(ctx context.Context, queryText string) (*DataFrame, error) {
	stmts := splitStatements(queryText)
	if len(stmts) == 0 {
		return nil, nil
	}

	for i, stmt := range stmts {
		handled, err := e.dispatchIfSet(stmt)
		if err != nil {
			return nil, err
		}
		if handled {
			continue
		}
		// First non-SET statement starts the query; it and every statement
		// after it are passed on together, and SET statements after it are
		// not dispatched (the protocol is "SET*; query"), matching scenario 5.
		return e.runSelect(ctx, strings.Join(stmts[i:], "; "))
	}
	return nil, nil
}

func (e *Engine) runSelect(ctx context.Context, query string) (*DataFrame, error) {
	sqlCtx := newSQLContext(ctx)
	schema, iter, err := e.inner.Query(sqlCtx, query)
	if err != nil {
		return nil, err
	}
	fields := make([]Field, len(schema))
	for i, col := range schema {
		fields[i] = Field{Name: col.Name, Kind: kindFromSQLType(col.Type)}
	}
	return &DataFrame{Schema: fields, iter: iter, sqlCtx: sqlCtx}, nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
