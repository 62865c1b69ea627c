package metric

import (
	"encoding/json"
	"strconv"
)

// Value is a decoded reading. It is comparable, so two values decoded from the
// same raw text compare equal with ==.
type Value struct {
	kind Kind
	f    float64
	i    int64
	s    string
}

// FloatValue wraps a numeric reading already scaled to engineering units.
func FloatValue(f float64) Value { return Value{kind: KindNumeric, f: f} }

// IntValue wraps an integer reading.
func IntValue(i int64) Value { return Value{kind: KindInteger, i: i} }

// StringValue wraps a text reading.
func StringValue(s string) Value { return Value{kind: KindString, s: s} }

// EnumValue wraps a decoded enum code and its label.
func EnumValue(code int64, label string) Value { return Value{kind: KindEnum, i: code, s: label} }

func (v Value) Kind() Kind { return v.kind }

// Float returns the reading as float64. Strings yield 0.
func (v Value) Float() float64 {
	switch v.kind {
	case KindNumeric:
		return v.f
	case KindInteger, KindEnum:
		return float64(v.i)
	default:
		return 0
	}
}

// Int returns the reading truncated to int64. Strings yield 0.
func (v Value) Int() int64 {
	switch v.kind {
	case KindNumeric:
		return int64(v.f)
	case KindInteger, KindEnum:
		return v.i
	default:
		return 0
	}
}

// String returns the text of a string reading, the label of an enum reading,
// or the decimal form of a number.
func (v Value) String() string {
	switch v.kind {
	case KindString, KindEnum:
		return v.s
	case KindInteger:
		return strconv.FormatInt(v.i, 10)
	default:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	}
}

func (v Value) LoadStatus() LoadStatus { return LoadStatusFrom(v.Int()) }

func (v Value) PowerState() PowerState { return PowerStateFrom(v.Int()) }

// MarshalJSON encodes numbers as JSON numbers and strings/enums as strings.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumeric:
		return json.Marshal(v.f)
	case KindInteger:
		return json.Marshal(v.i)
	default:
		return json.Marshal(v.s)
	}
}
