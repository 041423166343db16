package tablequery

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Number is a decoded numeric parameter.
//
// It carries float64 semantics so that a value which is present but not
// numeric can be represented: such values decode to NaN. NaN and infinities
// marshal to JSON null.
type Number float64

// NaN returns the invalid-number marker.
func NaN() Number { return Number(math.NaN()) }

// Valid reports whether n is a finite number.
func (n Number) Valid() bool {
	f := float64(n)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Int returns n as an int when it is finite and integral.
func (n Number) Int() (int, bool) {
	if !n.Valid() {
		return 0, false
	}
	f := float64(n)
	if f != math.Trunc(f) || f > math.MaxInt || f < math.MinInt {
		return 0, false
	}
	return int(f), true
}

// IntOr returns n as an int, or def when n is not a valid integer.
func (n Number) IntOr(def int) int {
	if v, ok := n.Int(); ok {
		return v
	}
	return def
}

// String formats n the way a browser prints a number.
func (n Number) String() string {
	f := float64(n)
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// MarshalJSON implements json.Marshaler.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(n))
}

// UnmarshalJSON implements json.Unmarshaler. null decodes to NaN.
func (n *Number) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*n = NaN()
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*n = Number(f)
	return nil
}

var decimalLiteral = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// ParseNumber converts s with the rules of JavaScript's Number(): surrounding
// whitespace is ignored, the empty string is 0, 0x/0o/0b prefixes select a
// radix and Infinity is accepted. Anything else that is not a decimal literal
// is NaN.
func ParseNumber(s string) Number {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	switch s {
	case "Infinity", "+Infinity":
		return Number(math.Inf(1))
	case "-Infinity":
		return Number(math.Inf(-1))
	}

	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			v, err := strconv.ParseUint(s[2:], base, 64)
			if err != nil {
				return NaN()
			}
			return Number(v)
		}
	}

	if !decimalLiteral.MatchString(s) {
		return NaN()
	}
	// Overflow yields ±Inf with ErrRange, which is what a browser produces too.
	f, _ := strconv.ParseFloat(s, 64)
	return Number(f)
}
