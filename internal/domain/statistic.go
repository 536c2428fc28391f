package domain

import (
	"encoding/json"
	"fmt"
	"math"
)

// Statistic is a numeric result that may be undefined, e.g. a lift over a
// zero baseline or a test with too few observations. The zero value is
// undefined with no reason.
type Statistic struct {
	value   float64
	defined bool
	reason  string
}

// Defined wraps a computed value. NaN and infinities are not accepted as
// values and become undefined.
func Defined(v float64) Statistic {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Undefined("non-finite value")
	}
	return Statistic{value: v, defined: true}
}

func Undefined(reason string) Statistic {
	return Statistic{reason: reason}
}

// Value returns the value and whether it is defined.
func (s Statistic) Value() (float64, bool) {
	return s.value, s.defined
}

func (s Statistic) IsDefined() bool {
	return s.defined
}

func (s Statistic) Reason() string {
	return s.reason
}

// Format renders the value with the given verb, or "undefined".
func (s Statistic) Format(verb string) string {
	if !s.defined {
		return "undefined"
	}
	return fmt.Sprintf(verb, s.value)
}

func (s Statistic) String() string {
	if !s.defined {
		if s.reason == "" {
			return "undefined"
		}
		return "undefined (" + s.reason + ")"
	}
	return fmt.Sprintf("%g", s.value)
}

// MarshalJSON emits the number, or null when undefined.
func (s Statistic) MarshalJSON() ([]byte, error) {
	if !s.defined {
		return []byte("null"), nil
	}
	return json.Marshal(s.value)
}
