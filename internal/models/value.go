// internal/models/value.go
package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// NotAvailable is the label used for values the vendor did not report.
const NotAvailable = "N/A"

// Value is an optional nutrition figure. The zero Value is absent.
type Value struct {
	number  float64
	present bool
}

// Number returns a present Value.
func Number(f float64) Value {
	return Value{number: f, present: true}
}

// Absent returns a Value carrying no number.
func Absent() Value {
	return Value{}
}

// Float64 returns the number and whether it is present.
func (v Value) Float64() (float64, bool) {
	return v.number, v.present
}

// IsPresent reports whether the value carries a number.
func (v Value) IsPresent() bool {
	return v.present
}

// Or returns the number, or fallback when absent.
func (v Value) Or(fallback float64) float64 {
	if !v.present {
		return fallback
	}
	return v.number
}

func (v Value) String() string {
	if !v.present {
		return NotAvailable
	}
	return strconv.FormatFloat(v.number, 'f', -1, 64)
}

// MarshalJSON emits the number, or null when absent.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.present {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(v.number, 'f', -1, 64)), nil
}

// UnmarshalJSON accepts numbers, numeric strings, null and "N/A".
// Anything that does not parse as a number decodes to an absent Value.
func (v *Value) UnmarshalJSON(data []byte) error {
	*v = Value{}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	raw := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		raw = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	*v = Number(f)
	return nil
}
