package queryengine

import (
	"context"
	"strings"
	"testing"

	"github.com/oriys/probe/internal/element"
)

type fakeTable struct {
	ns, name string
	schema   []Field
	rows     [][]element.Ele
}

func (t *fakeTable) Namespace() string { return t.ns }
func (t *fakeTable) TableName() string { return t.name }
func (t *fakeTable) Schema() []Field   { return t.schema }
func (t *fakeTable) Data(ctx context.Context) (*RecordBatch, error) {
	columns := make([][]element.Ele, len(t.schema))
	for _, row := range t.rows {
		for c, v := range row {
			columns[c] = append(columns[c], v)
		}
	}
	return NewRecordBatch(t.schema, columns)
}

func TestCatalogEnableDuplicateTableErrors(t *testing.T) {
	c := NewCatalog()
	p := &fakeTable{ns: "metrics", name: "cpu", schema: []Field{{Name: "v", Kind: element.KindI64}}}
	if err := c.Enable(FromTable(p)); err != nil {
		t.Fatalf("first Enable: %v", err)
	}
	if err := c.Enable(FromTable(p)); err == nil {
		t.Fatalf("expected duplicate-table error on second Enable")
	}
}

func TestCatalogNamespaces(t *testing.T) {
	c := NewCatalog()
	_ = c.Enable(FromTable(&fakeTable{ns: "metrics", name: "cpu", schema: []Field{{Name: "v", Kind: element.KindI64}}}))
	_ = c.Enable(FromTable(&fakeTable{ns: "python", name: "foo", schema: []Field{{Name: "v", Kind: element.KindI64}}}))
	got := c.Namespaces()
	if len(got) != 2 || got[0] != "metrics" || got[1] != "python" {
		t.Fatalf("Namespaces() = %v", got)
	}
}

func TestRecordBatchRoundtrip(t *testing.T) {
	fields := []Field{{Name: "a", Kind: element.KindI64}, {Name: "b", Kind: element.KindI64}}
	cols := [][]element.Ele{
		{element.I64(1), element.I64(3), element.I64(5)},
		{element.I64(2), element.I64(4), element.I64(6)},
	}
	b, err := NewRecordBatch(fields, cols)
	if err != nil {
		t.Fatalf("NewRecordBatch: %v", err)
	}
	if b.NumRows() != 3 {
		t.Fatalf("NumRows() = %d, want 3", b.NumRows())
	}
	row := b.Row(1)
	if v, _ := row[0].I64(); v != 3 {
		t.Fatalf("row 1 col 0 = %v, want 3", v)
	}
}

func TestRecordBatchMismatchedColumnLength(t *testing.T) {
	fields := []Field{{Name: "a", Kind: element.KindI64}, {Name: "b", Kind: element.KindI64}}
	cols := [][]element.Ele{
		{element.I64(1)},
		{element.I64(2), element.I64(4)},
	}
	if _, err := NewRecordBatch(fields, cols); err == nil {
		t.Fatalf("expected error for mismatched column lengths")
	}
}

func TestParseRONQuery(t *testing.T) {
	req, err := ParseQueryRequest(`Query(expr: "SELECT 1", opts: None)`)
	if err != nil {
		t.Fatalf("ParseQueryRequest: %v", err)
	}
	if req.Expr != "SELECT 1" {
		t.Fatalf("Expr = %q", req.Expr)
	}
	if req.Opts != nil {
		t.Fatalf("Opts = %v, want nil", req.Opts)
	}
}

func TestParseRONQueryWrappedInMessage(t *testing.T) {
	req, err := ParseQueryRequest(`Message(Query(expr: "SHOW TABLES", opts: None))`)
	if err != nil {
		t.Fatalf("ParseQueryRequest: %v", err)
	}
	if req.Expr != "SHOW TABLES" {
		t.Fatalf("Expr = %q", req.Expr)
	}
}

func TestEncodeQueryReplyRONNil(t *testing.T) {
	got := EncodeQueryReplyRON(nil, nil)
	want := `Message(Nil)`
	if got != want {
		t.Fatalf("EncodeQueryReplyRON = %q, want %q", got, want)
	}
}

func TestEncodeQueryReplyRONDataFrame(t *testing.T) {
	b, _ := NewRecordBatch(
		[]Field{{Name: "a", Kind: element.KindI64}},
		[][]element.Ele{{element.I64(1), element.I64(2)}},
	)
	got := EncodeQueryReplyRON(b, nil)
	if !strings.Contains(got, "DataFrame") || !strings.Contains(got, `"a"`) {
		t.Fatalf("EncodeQueryReplyRON = %q", got)
	}
}

func TestSplitStatements(t *testing.T) {
	got := splitStatements(`SET a=1; SET b=2 ;  SELECT * FROM t  `)
	want := []string{"SET a=1", "SET b=2", "SELECT * FROM t"}
	if len(got) != len(want) {
		t.Fatalf("splitStatements = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("statement %d = %q, want %q", i, got[i], want[i])
		}
	}
}
