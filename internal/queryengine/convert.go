package queryengine

import (
	"fmt"
	"time"

	"github.com/dolthub/go-mysql-server/sql"
	"github.com/dolthub/go-mysql-server/sql/types"

	"github.com/oriys/probe/internal/element"
)

// kindFromSQLType maps a go-mysql-server column type back to the Element
// kind used to box scan results, the inverse of sqlType.
func kindFromSQLType(t sql.Type) element.Kind {
	switch t {
	case types.Boolean:
		return element.KindBool
	case types.Int32:
		return element.KindI32
	case types.Int64:
		return element.KindI64
	case types.Float32:
		return element.KindF32
	case types.Float64:
		return element.KindF64
	case types.Timestamp, types.Datetime:
		return element.KindDateTime
	default:
		return element.KindText
	}
}

// anyToEle boxes a raw driver-level scan value (as returned by a
// go-mysql-server RowIter) into an Element of the given kind. A nil value
// always becomes the nil Element regardless of kind.
func anyToEle(v any, kind element.Kind) element.Ele {
	if v == nil {
		return element.Nil
	}
	switch kind {
	case element.KindBool:
		if b, ok := v.(bool); ok {
			return element.Bool(b)
		}
	case element.KindI32:
		switch n := v.(type) {
		case int32:
			return element.I32(n)
		case int64:
			return element.I32(int32(n))
		case int:
			return element.I32(int32(n))
		}
	case element.KindI64:
		switch n := v.(type) {
		case int64:
			return element.I64(n)
		case int32:
			return element.I64(int64(n))
		case int:
			return element.I64(int64(n))
		}
	case element.KindF32:
		switch n := v.(type) {
		case float32:
			return element.F32(n)
		case float64:
			return element.F32(float32(n))
		}
	case element.KindF64:
		switch n := v.(type) {
		case float64:
			return element.F64(n)
		case float32:
			return element.F64(float64(n))
		}
	case element.KindDateTime:
		if t, ok := v.(time.Time); ok {
			return element.DateTimeFrom(t)
		}
	}
	if s, ok := v.(string); ok {
		return element.Text(s)
	}
	return element.Text(fmt.Sprint(v))
}
