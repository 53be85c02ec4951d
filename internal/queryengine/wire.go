package queryengine

import (
	"fmt"

	"github.com/oriys/probe/internal/element"
)

// QueryRequest is the decoded body of a POST /query request: `Query(expr:
// "...", opts: None)`.
type QueryRequest struct {
	Expr string
	Opts map[string]string
}

// ParseQueryRequest decodes a RON-encoded `Message(Query(...))` or bare
// `Query(...)` body.
func ParseQueryRequest(body string) (QueryRequest, error) {
	v, err := ParseRON(body)
	if err != nil {
		return QueryRequest{}, err
	}
	if v.Ident == "Message" && len(v.Positional) == 1 {
		v = v.Positional[0]
	}
	if v.Ident != "Query" {
		return QueryRequest{}, fmt.Errorf("queryengine: expected Query(...), got %q", v.Ident)
	}
	exprVal, ok := v.Field("expr")
	if !ok || !exprVal.IsString {
		return QueryRequest{}, fmt.Errorf("queryengine: Query.expr missing or not a string")
	}
	req := QueryRequest{Expr: exprVal.String}
	if optsVal, ok := v.Field("opts"); ok && optsVal.Ident != "None" {
		req.Opts = make(map[string]string)
		for k, fv := range optsVal.Fields {
			req.Opts[k] = fv.String
		}
	}
	return req, nil
}

// EncodeQueryReplyRON encodes a query result as `Message(QueryDataFormat)`:
// Nil when df is nil, DataFrame(<batch>) otherwise, or Error("...") for a
// failed query.
func EncodeQueryReplyRON(df *RecordBatch, queryErr error) string {
	if queryErr != nil {
		return Call("Message", Call("Error", Str(queryErr.Error()))).Encode()
	}
	if df == nil {
		return Call("Message", Unit("Nil")).Encode()
	}
	return Call("Message", Call("DataFrame", recordBatchToRON(df))).Encode()
}

func recordBatchToRON(b *RecordBatch) RonValue {
	fields := make(map[string]RonValue)
	var order []string

	schema := make([]RonValue, len(b.Fields))
	for i, f := range b.Fields {
		schema[i] = StructCall("Field", []string{"name", "kind"}, map[string]RonValue{
			"name": Str(f.Name),
			"kind": Str(f.Kind.String()),
		})
	}
	fields["schema"] = ArrayOf(schema...)
	order = append(order, "schema")

	cols := make([]RonValue, len(b.Columns))
	for i, col := range b.Columns {
		vals := make([]RonValue, len(col))
		for j, e := range col {
			vals[j] = eleToRON(e)
		}
		cols[i] = ArrayOf(vals...)
	}
	fields["columns"] = ArrayOf(cols...)
	order = append(order, "columns")

	return StructCall("RecordBatch", order, fields)
}

func eleToRON(e element.Ele) RonValue {
	if e.IsNil() {
		return Unit("None")
	}
	switch e.Kind() {
	case element.KindBool:
		v, _ := e.Bool()
		return Bool(v)
	case element.KindI32:
		v, _ := e.I32()
		return Num(float64(v))
	case element.KindI64:
		v, _ := e.I64()
		return Num(float64(v))
	case element.KindF32:
		v, _ := e.F32()
		return Num(float64(v))
	case element.KindF64:
		v, _ := e.F64()
		return Num(v)
	case element.KindDateTime:
		v, _ := e.DateTime()
		return Num(float64(v))
	default:
		return Str(e.String())
	}
}
