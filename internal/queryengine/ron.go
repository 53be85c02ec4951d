package queryengine

import (
	"fmt"
	"strconv"
	"strings"
)

// RON (Rusty Object Notation) has no Go library anywhere in the retrieval
// pack or the wider ecosystem, so the wire codec below hand-rolls the
// small subset the control plane actually needs: unit idents (`Nil`),
// tuple/struct calls (`Name(a, b)` / `Name(field: value, ...)`), strings,
// numbers, bools, `None`/`Some(v)`, and arrays.

// RonValue is the generic parse tree for one RON value.
type RonValue struct {
	Ident      string // call/unit name, or "" for a bare literal
	Positional []RonValue
	Fields     map[string]RonValue // non-nil only for "Name(k: v, ...)" calls
	fieldOrder []string
	String     string
	Number     float64
	Bool       bool
	IsNumber   bool
	IsBool     bool
	IsString   bool
	Array      []RonValue
	IsArray    bool
}

// Str builds a string literal RonValue.
func Str(s string) RonValue { return RonValue{IsString: true, String: s} }

// Num builds a numeric literal RonValue.
func Num(n float64) RonValue { return RonValue{IsNumber: true, Number: n} }

// Bool builds a boolean literal RonValue.
func Bool(b bool) RonValue { return RonValue{IsBool: true, Bool: b} }

// Unit builds a bare identifier (unit enum variant), e.g. `Nil`.
func Unit(name string) RonValue { return RonValue{Ident: name} }

// Call builds a tuple-style call, e.g. `DataFrame(<v>)`.
func Call(name string, args ...RonValue) RonValue {
	return RonValue{Ident: name, Positional: args}
}

// StructCall builds a named-field call, e.g. `Query(expr: "...", opts: None)`.
// keys gives field order (RON is order-sensitive on output, not on parse).
func StructCall(name string, keys []string, fields map[string]RonValue) RonValue {
	return RonValue{Ident: name, Fields: fields, fieldOrder: keys}
}

// ArrayOf builds a RON array literal.
func ArrayOf(items ...RonValue) RonValue { return RonValue{IsArray: true, Array: items} }

// Encode renders a RonValue to its textual RON form.
func (v RonValue) Encode() string {
	var b strings.Builder
	v.encodeTo(&b)
	return b.String()
}

func (v RonValue) encodeTo(b *strings.Builder) {
	switch {
	case v.IsString:
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(strings.ReplaceAll(v.String, `\`, `\\`), `"`, `\"`))
		b.WriteByte('"')
	case v.IsNumber:
		b.WriteString(strconv.FormatFloat(v.Number, 'g', -1, 64))
	case v.IsBool:
		if v.Bool {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case v.IsArray:
		b.WriteByte('[')
		for i, item := range v.Array {
			if i > 0 {
				b.WriteString(", ")
			}
			item.encodeTo(b)
		}
		b.WriteByte(']')
	case v.Fields != nil:
		b.WriteString(v.Ident)
		b.WriteByte('(')
		for i, k := range v.fieldOrder {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(k)
			b.WriteString(": ")
			v.Fields[k].encodeTo(b)
		}
		b.WriteByte(')')
	case len(v.Positional) > 0:
		b.WriteString(v.Ident)
		b.WriteByte('(')
		for i, p := range v.Positional {
			if i > 0 {
				b.WriteString(", ")
			}
			p.encodeTo(b)
		}
		b.WriteByte(')')
	default:
		b.WriteString(v.Ident)
	}
}

// ParseRON parses the RON subset described above.
func ParseRON(s string) (RonValue, error) {
	p := &ronParser{input: s}
	p.skipSpace()
	v, err := p.parseValue()
	if err != nil {
		return RonValue{}, err
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		return RonValue{}, fmt.Errorf("queryengine: trailing input at offset %d: %q", p.pos, p.input[p.pos:])
	}
	return v, nil
}

type ronParser struct {
	input string
	pos   int
}

func (p *ronParser) skipSpace() {
	for p.pos < len(p.input) {
		switch p.input[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *ronParser) peek() byte {
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *ronParser) parseValue() (RonValue, error) {
	p.skipSpace()
	if p.pos >= len(p.input) {
		return RonValue{}, fmt.Errorf("queryengine: unexpected end of RON input")
	}
	switch c := p.peek(); {
	case c == '"':
		return p.parseString()
	case c == '[':
		return p.parseArray()
	case c == '-' || (c >= '0' && c <= '9'):
		return p.parseNumber()
	default:
		return p.parseIdentOrCall()
	}
}

func (p *ronParser) parseString() (RonValue, error) {
	p.pos++ // opening quote
	var b strings.Builder
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c == '"' {
			p.pos++
			return Str(b.String()), nil
		}
		if c == '\\' && p.pos+1 < len(p.input) {
			p.pos++
			b.WriteByte(p.input[p.pos])
			p.pos++
			continue
		}
		b.WriteByte(c)
		p.pos++
	}
	return RonValue{}, fmt.Errorf("queryengine: unterminated string literal")
}

func (p *ronParser) parseNumber() (RonValue, error) {
	start := p.pos
	if p.peek() == '-' {
		p.pos++
	}
	for p.pos < len(p.input) && (isDigit(p.input[p.pos]) || p.input[p.pos] == '.') {
		p.pos++
	}
	n, err := strconv.ParseFloat(p.input[start:p.pos], 64)
	if err != nil {
		return RonValue{}, fmt.Errorf("queryengine: invalid number %q: %w", p.input[start:p.pos], err)
	}
	return Num(n), nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func (p *ronParser) parseArray() (RonValue, error) {
	p.pos++ // '['
	var items []RonValue
	p.skipSpace()
	if p.peek() == ']' {
		p.pos++
		return ArrayOf(items...), nil
	}
	for {
		v, err := p.parseValue()
		if err != nil {
			return RonValue{}, err
		}
		items = append(items, v)
		p.skipSpace()
		if p.peek() == ',' {
			p.pos++
			p.skipSpace()
			continue
		}
		if p.peek() == ']' {
			p.pos++
			return ArrayOf(items...), nil
		}
		return RonValue{}, fmt.Errorf("queryengine: expected ',' or ']' in array at offset %d", p.pos)
	}
}

func (p *ronParser) parseIdentOrCall() (RonValue, error) {
	start := p.pos
	for p.pos < len(p.input) && isIdentByte(p.input[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		return RonValue{}, fmt.Errorf("queryengine: unexpected character %q at offset %d", p.input[p.pos], p.pos)
	}
	ident := p.input[start:p.pos]

	switch ident {
	case "true":
		return Bool(true), nil
	case "false":
		return Bool(false), nil
	case "None":
		return Unit("None"), nil
	}

	p.skipSpace()
	if p.peek() != '(' {
		return Unit(ident), nil
	}
	p.pos++ // '('
	p.skipSpace()
	if p.peek() == ')' {
		p.pos++
		return Call(ident), nil
	}

	// Decide named-field vs positional by probing for "ident:" ahead.
	if p.looksLikeNamedField() {
		fields := make(map[string]RonValue)
		var order []string
		for {
			p.skipSpace()
			keyStart := p.pos
			for p.pos < len(p.input) && isIdentByte(p.input[p.pos]) {
				p.pos++
			}
			key := p.input[keyStart:p.pos]
			p.skipSpace()
			if p.peek() != ':' {
				return RonValue{}, fmt.Errorf("queryengine: expected ':' after field %q", key)
			}
			p.pos++
			val, err := p.parseValue()
			if err != nil {
				return RonValue{}, err
			}
			fields[key] = val
			order = append(order, key)
			p.skipSpace()
			if p.peek() == ',' {
				p.pos++
				p.skipSpace()
				if p.peek() == ')' {
					p.pos++
					break
				}
				continue
			}
			if p.peek() == ')' {
				p.pos++
				break
			}
			return RonValue{}, fmt.Errorf("queryengine: expected ',' or ')' after field %q", key)
		}
		return StructCall(ident, order, fields), nil
	}

	var args []RonValue
	for {
		val, err := p.parseValue()
		if err != nil {
			return RonValue{}, err
		}
		args = append(args, val)
		p.skipSpace()
		if p.peek() == ',' {
			p.pos++
			p.skipSpace()
			continue
		}
		if p.peek() == ')' {
			p.pos++
			break
		}
		return RonValue{}, fmt.Errorf("queryengine: expected ',' or ')' in call %q", ident)
	}
	return Call(ident, args...), nil
}

// looksLikeNamedField scans ahead (without consuming) for "ident :" before
// any comma/paren/quote, to distinguish `Name(a, b)` from
// `Name(field: value)` without backtracking the whole parse.
func (p *ronParser) looksLikeNamedField() bool {
	i := p.pos
	for i < len(p.input) && isIdentByte(p.input[i]) {
		i++
	}
	if i == p.pos {
		return false
	}
	for i < len(p.input) && (p.input[i] == ' ' || p.input[i] == '\t') {
		i++
	}
	return i < len(p.input) && p.input[i] == ':'
}

func isIdentByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// Field looks up a named field, returning the zero RonValue and false if
// absent (used when decoding optional struct fields like Query.opts).
func (v RonValue) Field(name string) (RonValue, bool) {
	if v.Fields == nil {
		return RonValue{}, false
	}
	f, ok := v.Fields[name]
	return f, ok
}
