package dataset

import (
	"strconv"
	"strings"
)

// nullTokens are cell contents read as missing values
var nullTokens = map[string]struct{}{
	"":     {},
	"NA":   {},
	"N/A":  {},
	"NaN":  {},
	"nan":  {},
	"null": {},
	"NULL": {},
	"None": {},
}

func isNullToken(s string) bool {
	_, ok := nullTokens[s]
	return ok
}

// InferKind classifies a column from its raw cells.
//
// All non-missing cells integers -> KindInt, or KindFloat when any cell is missing.
// All non-missing cells numeric -> KindFloat. A column with no values at all is KindFloat.
// Non-finite numbers such as "inf" count as missing.
// Anything else is KindString.
func InferKind(cells []string) Kind {
	allInt := true
	allNumeric := true
	hasNull := false

	for _, raw := range cells {
		cell := strings.TrimSpace(raw)
		if isNullToken(cell) {
			hasNull = true
			continue
		}
		if _, err := strconv.ParseInt(cell, 10, 64); err == nil {
			continue
		}
		allInt = false
		f, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			allNumeric = false
			break
		}
		if !isFinite(f) {
			hasNull = true
		}
	}

	switch {
	case !allNumeric:
		return KindString
	case allInt && !hasNull:
		return KindInt
	default:
		return KindFloat
	}
}

// ParseCell converts a raw cell into a Value of the given column kind
func ParseCell(raw string, kind Kind) Value {
	cell := strings.TrimSpace(raw)
	switch kind {
	case KindInt:
		if isNullToken(cell) {
			return Null()
		}
		i, err := strconv.ParseInt(cell, 10, 64)
		if err != nil {
			return Null()
		}
		return Int(i)
	case KindFloat:
		if isNullToken(cell) {
			return Null()
		}
		f, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return Null()
		}
		return Float(f)
	default:
		if cell == "" {
			return Null()
		}
		return String(cell)
	}
}
