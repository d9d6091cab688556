package models

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// NumberKind tags the variant held by a Number.
type NumberKind int

const (
	// NumberOpaque is free text that did not parse as a number (including "").
	NumberOpaque NumberKind = iota
	// NumberInteger is a number with no fractional part.
	NumberInteger
	// NumberDecimal is a number with a non-zero fractional part.
	NumberDecimal
)

// Number is the best-effort typed value of the Número column.
type Number struct {
	kind  NumberKind
	value float64
	raw   string
}

// ParseNumber normalizes s. Both '.' and ',' are accepted as the decimal
// separator; anything that does not parse is kept verbatim.
func ParseNumber(s string) Number {
	candidate := strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	f, err := strconv.ParseFloat(candidate, 64)
	if candidate == "" || err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return Number{kind: NumberOpaque, raw: s}
	}
	if f == 0 {
		f = 0 // drop the sign of -0
	}
	if f == math.Trunc(f) {
		return Number{kind: NumberInteger, value: f}
	}
	return Number{kind: NumberDecimal, value: f}
}

// Kind returns the variant tag.
func (n Number) Kind() NumberKind { return n.kind }

// Float returns the numeric value and whether the number is numeric at all.
func (n Number) Float() (float64, bool) {
	return n.value, n.kind != NumberOpaque
}

// IsZero reports whether the number holds no value.
func (n Number) IsZero() bool {
	return n.kind == NumberOpaque && n.raw == ""
}

// String renders the stored/display form.
func (n Number) String() string {
	switch n.kind {
	case NumberInteger:
		return strconv.FormatFloat(n.value, 'f', 0, 64)
	case NumberDecimal:
		return strconv.FormatFloat(n.value, 'f', -1, 64)
	default:
		return n.raw
	}
}

// MarshalJSON encodes the display form.
func (n Number) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.String())
}

// UnmarshalJSON parses a string or a JSON number.
func (n *Number) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var f json.Number
		if err := json.Unmarshal(data, &f); err != nil {
			return err
		}
		s = f.String()
	}
	*n = ParseNumber(s)
	return nil
}
