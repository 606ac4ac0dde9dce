package types

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ValueKind discriminates the variants of Value.
type ValueKind int

const (
	// StringKind is a quoted string literal.
	StringKind ValueKind = iota
	// BoolKind is a bare true/false literal.
	BoolKind
	// NumberKind is an integer or decimal literal.
	NumberKind
	// ListKind is an ordered sequence of values.
	ListKind
	// MapKind is a string-keyed object of values.
	MapKind
	// ReferenceKind is an unresolved symbolic expression. It is kept
	// opaque: evaluation only ever checks it for presence, never for
	// meaning.
	ReferenceKind
)

// Value is a tagged union over the literal shapes a configuration
// attribute can take. Only the fields matching Kind are meaningful; a
// ReferenceKind value stores its raw source text in Str.
type Value struct {
	Kind ValueKind
	Str  string
	Bool bool
	Num  float64
	List []Value
	Map  map[string]Value
}

// String returns a String value.
func String(s string) Value { return Value{Kind: StringKind, Str: s} }

// Boolean returns a Bool value.
func Boolean(b bool) Value { return Value{Kind: BoolKind, Bool: b} }

// Number returns a Number value.
func Number(n float64) Value { return Value{Kind: NumberKind, Num: n} }

// ListOf returns a List value.
func ListOf(items ...Value) Value { return Value{Kind: ListKind, List: items} }

// MapOf returns a Map value.
func MapOf(m map[string]Value) Value { return Value{Kind: MapKind, Map: m} }

// Reference returns an opaque Reference value carrying the raw
// expression text.
func Reference(raw string) Value { return Value{Kind: ReferenceKind, Str: raw} }

// Equal reports deep, type-sensitive equality. A String "true" never
// equals Bool true. References compare unequal to everything, including
// other references: equality against an unresolved expression cannot be
// proven.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case StringKind:
		return v.Str == other.Str
	case BoolKind:
		return v.Bool == other.Bool
	case NumberKind:
		return v.Num == other.Num
	case ListKind:
		if len(v.List) != len(other.List) {
			return false
		}
		for i := range v.List {
			if !v.List[i].Equal(other.List[i]) {
				return false
			}
		}
		return true
	case MapKind:
		if len(v.Map) != len(other.Map) {
			return false
		}
		for k, val := range v.Map {
			ov, ok := other.Map[k]
			if !ok || !val.Equal(ov) {
				return false
			}
		}
		return true
	case ReferenceKind:
		return false
	}
	return false
}

// Literal renders the value in configuration-literal form, primarily
// for violation messages. Map keys are sorted so messages are stable.
func (v Value) Literal() string {
	switch v.Kind {
	case StringKind:
		return strconv.Quote(v.Str)
	case BoolKind:
		return strconv.FormatBool(v.Bool)
	case NumberKind:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case ListKind:
		parts := make([]string, len(v.List))
		for i, item := range v.List {
			parts[i] = item.Literal()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case MapKind:
		keys := make([]string, 0, len(v.Map))
		for k := range v.Map {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s = %s", k, v.Map[k].Literal())
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case ReferenceKind:
		return v.Str
	}
	return "<invalid>"
}

// Interface converts the value into plain Go types suitable for JSON
// encoding or handing to an external evaluator. References surface as
// their raw expression text.
func (v Value) Interface() interface{} {
	switch v.Kind {
	case StringKind, ReferenceKind:
		return v.Str
	case BoolKind:
		return v.Bool
	case NumberKind:
		return v.Num
	case ListKind:
		out := make([]interface{}, len(v.List))
		for i, item := range v.List {
			out[i] = item.Interface()
		}
		return out
	case MapKind:
		out := make(map[string]interface{}, len(v.Map))
		for k, item := range v.Map {
			out[k] = item.Interface()
		}
		return out
	}
	return nil
}

// Strings returns the string elements of a List value. A scalar String
// is treated as a one-element list. Non-string elements are skipped.
func (v Value) Strings() []string {
	switch v.Kind {
	case StringKind:
		return []string{v.Str}
	case ListKind:
		out := make([]string, 0, len(v.List))
		for _, item := range v.List {
			if item.Kind == StringKind {
				out = append(out, item.Str)
			}
		}
		return out
	}
	return nil
}
