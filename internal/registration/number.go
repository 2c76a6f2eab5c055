package registration

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Number is the tagged result of coercing form text to a number.
// Valid is false when the text was empty (the field was not provided).
type Number struct {
	Value float64
	Valid bool
}

// NumberError reports a numeric field whose text could not be coerced.
type NumberError struct {
	Field string
	Value string
}

func (e *NumberError) Error() string {
	return fmt.Sprintf("Invalid number in field %s: %q", e.Field, e.Value)
}

// ParseNumber coerces raw to a finite number. Surrounding whitespace is
// ignored and blank input yields an invalid (absent) Number without error.
func ParseNumber(field, raw string) (Number, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Number{}, nil
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Number{}, &NumberError{Field: field, Value: raw}
	}

	return Number{Value: v, Valid: true}, nil
}

// Int returns the value as a whole number. "21.0" is accepted, "21.5" is not.
func (n Number) Int(field string) (int, error) {
	if n.Value != math.Trunc(n.Value) || math.Abs(n.Value) > math.MaxInt32 {
		return 0, &NumberError{Field: field, Value: strconv.FormatFloat(n.Value, 'f', -1, 64)}
	}
	return int(n.Value), nil
}
