package lang

import (
	"math"
	"reflect"
	"strconv"
)

type numberKind uint8

const (
	int32Kind numberKind = iota
	int64Kind
	floatKind
)

// Number is the engine's numeric view of a value: an integral number with
// 32- or 64-bit width, or a 64-bit floating number.
type Number struct {
	kind numberKind
	i    int64
	f    float64
}

// Int32 returns a 32-bit integral Number.
func Int32(v int32) Number { return Number{kind: int32Kind, i: int64(v)} }

// Int64 returns a 64-bit integral Number.
func Int64(v int64) Number { return Number{kind: int64Kind, i: v} }

// Float returns a floating Number.
func Float(v float64) Number { return Number{kind: floatKind, f: v} }

// IsIntegral reports whether n is integral.
func (n Number) IsIntegral() bool { return n.kind != floatKind }

// IsWide reports whether n is a 64-bit integral.
func (n Number) IsWide() bool { return n.kind == int64Kind }

// Int returns n as an int64, truncating a floating value.
func (n Number) Int() int64 {
	if n.kind == floatKind {
		return int64(n.f)
	}

	return n.i
}

// Float64 returns n as a float64.
func (n Number) Float64() float64 {
	if n.kind == floatKind {
		return n.f
	}

	return float64(n.i)
}

// Value returns n as the Go value the engine produces for it: int32, int64
// or float64.
func (n Number) Value() any {
	switch n.kind {
	case int32Kind:
		return int32(n.i)
	case int64Kind:
		return n.i
	default:
		return n.f
	}
}

// String formats n in its shortest exact textual form.
func (n Number) String() string {
	if n.kind == floatKind {
		return formatFloat(n.f)
	}

	return strconv.FormatInt(n.i, 10)
}

// IsZero reports whether n is zero or NaN.
func (n Number) IsZero() bool {
	if n.kind == floatKind {
		return n.f == 0 || math.IsNaN(n.f)
	}

	return n.i == 0
}

// Cmp compares two numbers by value.
func (n Number) Cmp(o Number) int {
	if n.IsIntegral() && o.IsIntegral() {
		switch {
		case n.i < o.i:
			return -1
		case n.i > o.i:
			return 1
		}

		return 0
	}

	a, b := n.Float64(), o.Float64()

	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}

	return 0
}

// integral returns the result of an integral operation with the width rule:
// 64-bit iff either operand is 64-bit, otherwise truncated to 32 bits.
func integral(a, b Number, v int64) Number {
	if a.kind == int64Kind || b.kind == int64Kind {
		return Int64(v)
	}

	return Int32(int32(v))
}

// Add returns a + b.
func (n Number) Add(o Number) Number {
	if n.IsIntegral() && o.IsIntegral() {
		return integral(n, o, n.i+o.i)
	}

	return Float(n.Float64() + o.Float64())
}

// Sub returns a - b.
func (n Number) Sub(o Number) Number {
	if n.IsIntegral() && o.IsIntegral() {
		return integral(n, o, n.i-o.i)
	}

	return Float(n.Float64() - o.Float64())
}

// Mul returns a * b.
func (n Number) Mul(o Number) Number {
	if n.IsIntegral() && o.IsIntegral() {
		return integral(n, o, n.i*o.i)
	}

	return Float(n.Float64() * o.Float64())
}

// Div returns a / b. Integral division by zero fails with
// [ErrInvalidOperands].
func (n Number) Div(o Number) (Number, error) {
	if n.IsIntegral() && o.IsIntegral() {
		if o.i == 0 {
			return Number{}, ErrInvalidOperands.Wrap(errDivideByZero)
		}

		return integral(n, o, n.i/o.i), nil
	}

	return Float(n.Float64() / o.Float64()), nil
}

// Mod returns the remainder of a / b.
func (n Number) Mod(o Number) (Number, error) {
	if n.IsIntegral() && o.IsIntegral() {
		if o.i == 0 {
			return Number{}, ErrInvalidOperands.Wrap(errDivideByZero)
		}

		return integral(n, o, n.i%o.i), nil
	}

	return Float(math.Mod(n.Float64(), o.Float64())), nil
}

// Neg returns -n.
func (n Number) Neg() Number {
	switch n.kind {
	case int32Kind:
		return Int32(-int32(n.i))
	case int64Kind:
		return Int64(-n.i)
	default:
		return Float(-n.f)
	}
}

var errDivideByZero = NewError("division by zero")

// numberOf returns the numeric view of v. Host integer types of 32 bits or
// less map to 32-bit integrals, wider ones to 64-bit integrals.
func numberOf(v any) (Number, bool) {
	switch x := v.(type) {
	case int32:
		return Int32(x), true
	case int64:
		return Int64(x), true
	case float64:
		return Float(x), true
	case int:
		return Int64(int64(x)), true
	case Char:
		return Int32(int32(x)), true
	case Number:
		return x, true
	case nil, bool, string:
		return Number{}, false
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Int8, reflect.Int16, reflect.Int32:
		return Int32(int32(rv.Int())), true
	case reflect.Int, reflect.Int64:
		return Int64(rv.Int()), true
	case reflect.Uint8, reflect.Uint16:
		return Int32(int32(rv.Uint())), true
	case reflect.Uint, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Int64(int64(rv.Uint())), true
	case reflect.Float32, reflect.Float64:
		return Float(rv.Float()), true
	default:
		return Number{}, false
	}
}

// parseIntegral converts an integral literal to its value. Literals that fit
// in 32 bits are 32-bit unless wide is set.
func parseIntegral(text string, wide bool) (Number, error) {
	u, err := strconv.ParseUint(text, 0, 64)
	if err != nil {
		return Number{}, err
	}

	if u > math.MaxInt64 {
		return Number{}, strconv.ErrRange
	}

	if !wide && u <= math.MaxInt32 {
		return Int32(int32(u)), nil
	}

	return Int64(int64(u)), nil
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case math.IsNaN(f):
		return "NaN"
	}

	s := strconv.FormatFloat(f, 'f', -1, 64)
	if f == math.Trunc(f) && math.Abs(f) < 1e21 {
		s += ".0"
	}

	return s
}
