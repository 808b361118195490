package reportapi

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value is a tagged metric value: either a number or free text. Parsed
// metrics keep their numeric form when the raw token looks like a number
// and fall back to the original text otherwise, so consumers branch on
// IsNumber instead of re-parsing strings.
type Value struct {
	num   float64
	text  string
	isNum bool
}

// Number wraps a numeric metric value.
func Number(v float64) Value {
	return Value{num: v, isNum: true}
}

// Text wraps a non-numeric metric value.
func Text(s string) Value {
	return Value{text: s}
}

// IsNumber reports whether the value carries a number.
func (v Value) IsNumber() bool {
	return v.isNum
}

// Float returns the numeric form and whether it is valid.
func (v Value) Float() (float64, bool) {
	return v.num, v.isNum
}

// Text returns the textual form. Numbers format as their display string.
func (v Value) Text() string {
	return v.String()
}

// String renders the value for display. Numbers use the shortest exact
// decimal form.
func (v Value) String() string {
	if v.isNum {
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	}
	return v.text
}

// Value returns the underlying float64 or string for serialization.
func (v Value) Value() any {
	if v.isNum {
		return v.num
	}
	return v.text
}

// MarshalJSON encodes the value as a bare JSON number or string.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Value())
}

// UnmarshalJSON decodes a JSON scalar through the same coercion rules
// applied to parsed metrics.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = Coerce(raw)
	return nil
}

// Coerce maps a decoded JSON scalar to a Value. Numeric-looking strings
// become numbers; everything else keeps its textual form. NaN and infinities
// stay text so encoded output remains valid JSON. Coercion is idempotent:
// Coerce(v.Value()) yields v.
func Coerce(raw any) Value {
	switch val := raw.(type) {
	case nil:
		return Text("null")
	case bool:
		if val {
			return Text("true")
		}
		return Text("false")
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return Text(strconv.FormatFloat(val, 'f', -1, 64))
		}
		return Number(val)
	case float32:
		return Coerce(float64(val))
	case int:
		return Number(float64(val))
	case int64:
		return Number(float64(val))
	case json.Number:
		return coerceString(val.String())
	case string:
		return coerceString(val)
	case Value:
		return val
	default:
		return Text(fmt.Sprintf("%v", raw))
	}
}

func coerceString(s string) Value {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Text(s)
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return Text(s)
	}
	return Number(f)
}
