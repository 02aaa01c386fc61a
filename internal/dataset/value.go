package dataset

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Kind is the inferred type of a column or cell
type Kind int

const (
	// KindNull marks an empty cell
	KindNull Kind = iota
	// KindInt is a whole-number cell or column
	KindInt
	// KindFloat is a floating-point cell or column
	KindFloat
	// KindString is a text cell or column
	KindString
)

// String returns the kind name used in API payloads
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the kind by name
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// IsNumeric reports whether the kind holds numbers
func (k Kind) IsNumeric() bool {
	return k == KindInt || k == KindFloat
}

// Value is a single typed cell
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
}

// Null returns an empty cell
func Null() Value { return Value{kind: KindNull} }

// Int returns an integer cell
func Int(v int64) Value { return Value{kind: KindInt, i: v} }

// Float returns a floating-point cell. NaN and ±Inf are stored as Null.
func Float(v float64) Value {
	if !isFinite(v) {
		return Null()
	}
	return Value{kind: KindFloat, f: v}
}

// String returns a text cell
func String(v string) Value { return Value{kind: KindString, s: v} }

// Kind returns the cell kind
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the cell is empty
func (v Value) IsNull() bool { return v.kind == KindNull }

// Float64 returns the numeric value of the cell. Text cells that parse as numbers
// are accepted; everything else reports false.
func (v Value) Float64() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64)
		if err != nil || !isFinite(f) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// String renders the cell as text
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindString:
		return v.s
	default:
		return ""
	}
}

// Equal compares two cells by kind and content
func (v Value) Equal(other Value) bool {
	return v == other
}

// MarshalJSON writes numbers as JSON numbers and empty cells as null
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindInt:
		return []byte(strconv.FormatInt(v.i, 10)), nil
	case KindFloat:
		return []byte(strconv.FormatFloat(v.f, 'f', -1, 64)), nil
	case KindString:
		return json.Marshal(v.s)
	default:
		return []byte("null"), nil
	}
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
