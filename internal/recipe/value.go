// internal/recipe/value.go
package recipe

import (
	"strconv"
)

// ValueKind is the type tag of a step property.
type ValueKind uint8

const (
	KindNone ValueKind = iota
	KindInt
	KindFloat
	KindText
)

func (k ValueKind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	default:
		return "none"
	}
}

// Value is one typed property value: int32, float32 or text.
// The zero Value has KindNone.
type Value struct {
	kind ValueKind
	i    int32
	f    float32
	s    string
}

func Int(v int32) Value     { return Value{kind: KindInt, i: v} }
func Float(v float32) Value { return Value{kind: KindFloat, f: v} }
func Text(v string) Value   { return Value{kind: KindText, s: v} }

func (v Value) Kind() ValueKind { return v.kind }

// IsNumeric reports whether the value is an int or a float.
func (v Value) IsNumeric() bool { return v.kind == KindInt || v.kind == KindFloat }

// Int32 returns the integer value; floats truncate toward zero, others read as 0.
func (v Value) Int32() int32 {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return int32(v.f)
	}
	return 0
}

// Float32 returns the float value; ints convert, others read as 0.
func (v Value) Float32() float32 {
	switch v.kind {
	case KindFloat:
		return v.f
	case KindInt:
		return float32(v.i)
	}
	return 0
}

// Float64 is the common numeric representation used for comparisons.
func (v Value) Float64() float64 {
	switch v.kind {
	case KindFloat:
		return float64(v.f)
	case KindInt:
		return float64(v.i)
	}
	return 0
}

// Str returns the text value, or "" for non-text kinds.
func (v Value) Str() string {
	if v.kind == KindText {
		return v.s
	}
	return ""
}

func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(int64(v.i), 10)
	case KindFloat:
		return strconv.FormatFloat(float64(v.f), 'g', -1, 32)
	case KindText:
		return strconv.Quote(v.s)
	default:
		return "<none>"
	}
}
