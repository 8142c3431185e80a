package lang

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestAdd(t *testing.T) {
	tests := []struct {
		name string
		a, b any
		want any
	}{
		{"int32", int32(1), int32(2), int32(3)},
		{"widen to int64", int32(1), int64(2), int64(3)},
		{"host int", 1, int32(2), int64(3)},
		{"float", int32(1), 0.5, 1.5},
		{"text and number", "a", 5, "a5"},
		{"number and text", 5, "a", "5a"},
		{"null and text", nil, "a", "nulla"},
		{"chars concatenate", Char('a'), Char('b'), "ab"},
		{"char and number", Char('a'), int32(1), int32(98)},
		{"lists", []any{1}, []any{2}, []any{1, 2}},
		{"list and map", []any{1}, map[string]any{"k": 2}, []any{1, Pair{Key: "k", Value: 2}}},
		{"maps merge", map[string]any{"a": 1, "b": 1}, map[string]any{"b": 2}, map[string]any{"a": 1, "b": 2}},
		{"map and pairs", map[string]int{"a": 1}, []any{Pair{Key: "b", Value: 2}}, map[string]int{"a": 1, "b": 2}},
		{"map widens", map[string]int{"a": 1}, []any{Pair{Key: 1, Value: "x"}}, map[any]any{"a": 1, 1: "x"}},
		{"numerically equal keys", map[any]any{int32(1): "a"}, map[any]any{int64(1): "b"}, map[any]any{int32(1): "b"}},
		{"float key replaces integral", map[any]any{int64(2): "a", "k": 0}, []any{Pair{Key: 2.0, Value: "b"}}, map[any]any{int64(2): "b", "k": 0}},
		{"widened keys", map[int32]string{1: "a"}, []any{Pair{Key: int64(1), Value: 2}}, map[any]any{int32(1): 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Add(tt.a, tt.b)
			if err != nil {
				t.Fatalf("Add failed: %v", err)
			}

			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Add(%v, %v) = %#v, want %#v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestAdd_Sets(t *testing.T) {
	got, err := Add(NewSet(1, 2), []any{2, 3})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	set, ok := got.(*Set)
	if !ok {
		t.Fatalf("Add = %T, want *Set", got)
	}

	if !set.Equal(NewSet(1, 2, 3)) {
		t.Errorf("Add = %v, want {1, 2, 3}", set)
	}

	if set.String() != "{1, 2, 3}" {
		t.Errorf("String() = %q", set.String())
	}
}

func TestSubtract(t *testing.T) {
	tests := []struct {
		name string
		a, b any
		want any
	}{
		{"numbers", int32(5), int32(3), int32(2)},
		{"map minus keys", map[string]any{"a": 1, "b": 2}, []any{"a"}, map[string]any{"b": 2}},
		{"map minus map", map[string]any{"a": 1, "b": 2}, map[string]any{"b": 0}, map[string]any{"a": 1}},
		{"list minus list", []any{1, 2, 3, 2}, []any{int32(2)}, []any{1, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Subtract(tt.a, tt.b)
			if err != nil {
				t.Fatalf("Subtract failed: %v", err)
			}

			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Subtract = %#v, want %#v", got, tt.want)
			}
		})
	}

	set, err := Subtract(NewSet(1, 2, 3), []any{2.0})
	if err != nil || !set.(*Set).Equal(NewSet(1, 3)) {
		t.Errorf("Subtract(set) = %v, %v", set, err)
	}
}

func TestInvalidOperands(t *testing.T) {
	tests := []struct {
		name string
		fn   func() (any, error)
	}{
		{"add bool", func() (any, error) { return Add(true, 1) }},
		{"subtract text", func() (any, error) { return Subtract("a", 1) }},
		{"divide by zero", func() (any, error) { return Divide(int32(1), int32(0)) }},
		{"modulo by zero", func() (any, error) { return Modulo(int64(1), 0) }},
		{"negate text", func() (any, error) { return Negate("a") }},
		{"complement float", func() (any, error) { return Complement(1.5) }},
		{"shift float", func() (any, error) { return Shift("<<", 1.5, 1) }},
		{"bitwise mixed", func() (any, error) { return Bitwise("&", true, 1) }},
		{"index null", func() (any, error) { return Index(nil, 0) }},
		{"index by text", func() (any, error) { return Index([]any{1}, "a") }},
		{"huge range", func() (any, error) { return Range(0, math.MaxInt32, false) }},
		{"range spanning int64", func() (any, error) { return Range(int64(-math.MaxInt64), int64(math.MaxInt64), false) }},
		{"descending range spanning int64", func() (any, error) { return Range(int64(math.MaxInt64), int64(math.MinInt64), true) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.fn(); !errors.Is(err, ErrInvalidOperands) {
				t.Errorf("error = %v, want %v", err, ErrInvalidOperands)
			}
		})
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name     string
		a, b     any
		equality bool
		want     int
		wantErr  bool
	}{
		{"numbers", int32(1), 2.5, false, -1, false},
		{"text", "b", "a", false, 1, false},
		{"char and text", Char('a'), "a", false, 0, false},
		{"booleans", false, true, false, -1, false},
		{"nulls", nil, nil, false, 0, false},
		{"null ordering", nil, 1, false, 0, true},
		{"unrelated ordering", 1, "a", false, 0, true},
		{"unrelated equality", 1, "a", true, 1, false},
		{"lists equal", []any{1, "a"}, []int32{1}, true, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compare(tt.a, tt.b, tt.equality)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Compare error = %v, wantErr %v", err, tt.wantErr)
			}

			if err == nil && got != tt.want {
				t.Errorf("Compare = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		a, b any
		want bool
	}{
		{int32(1), int64(1), true},
		{int32(1), 1.0, true},
		{"a", "a", true},
		{[]any{int32(1), "x"}, []any{int64(1), "x"}, true},
		{map[string]any{"a": 1}, map[any]any{"a": int32(1)}, true},
		{NewSet(1, 2), NewSet(2.0, 1), true},
		{Pair{Key: "k", Value: 1}, Pair{Key: "k", Value: int32(1)}, true},
		{nil, 0, false},
		{[]any{1}, []any{1, 2}, false},
	}

	for _, tt := range tests {
		if got := Equal(tt.a, tt.b); got != tt.want {
			t.Errorf("Equal(%#v, %#v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestToBoolean(t *testing.T) {
	tests := []struct {
		v    any
		want bool
	}{
		{nil, false},
		{false, false},
		{true, true},
		{int32(0), false},
		{int64(2), true},
		{0.0, false},
		{math.NaN(), false},
		{"", true},
		{"false", true},
		{Char(0), false},
		{[]any{}, true},
	}

	for _, tt := range tests {
		if got := ToBoolean(tt.v); got != tt.want {
			t.Errorf("ToBoolean(%#v) = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		v    any
		want string
	}{
		{nil, "null"},
		{int32(7), "7"},
		{2.0, "2.0"},
		{0.25, "0.25"},
		{math.Inf(1), "Infinity"},
		{[]any{1, "a", nil}, "[1, a, null]"},
		{map[string]any{"b": 2, "a": 1}, "{a: 1, b: 2}"},
		{Pair{Key: "k", Value: true}, "k: true"},
		{Char('z'), "z"},
	}

	for _, tt := range tests {
		if got := Format(tt.v); got != tt.want {
			t.Errorf("Format(%#v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestIndex(t *testing.T) {
	m := map[any]any{int32(1): "one", "k": "v"}

	tests := []struct {
		name string
		v    any
		key  any
		want any
	}{
		{"numeric key of other width", m, int64(1), "one"},
		{"text key", m, "k", "v"},
		{"missing key", m, "x", nil},
		{"typed map", map[string]int{"a": 1}, "a", 1},
		{"negative", []string{"a", "b"}, -2, "a"},
		{"set position", NewSet("x", "y"), 1, "y"},
		{"text", "héllo", 1, Char('é')},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Index(tt.v, tt.key)
			if err != nil {
				t.Fatalf("Index failed: %v", err)
			}

			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Index = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestRange(t *testing.T) {
	tests := []struct {
		a, b      any
		exclusive bool
		want      []any
	}{
		{int32(1), int32(3), false, []any{int32(1), int32(2), int32(3)}},
		{int32(3), int32(1), false, []any{int32(3), int32(2), int32(1)}},
		{int32(1), int32(3), true, []any{int32(1), int32(2)}},
		{int32(2), int32(2), true, []any{}},
		{int64(0), int32(1), false, []any{int64(0), int64(1)}},
	}

	for _, tt := range tests {
		got, err := Range(tt.a, tt.b, tt.exclusive)
		if err != nil {
			t.Fatalf("Range failed: %v", err)
		}

		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Range(%v, %v, %v) = %#v, want %#v", tt.a, tt.b, tt.exclusive, got, tt.want)
		}
	}
}
