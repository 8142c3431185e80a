package lang

import (
	"reflect"
	"slices"
	"testing"
)

func TestBuiltins_Text(t *testing.T) {
	tests := []struct {
		source string
		want   any
	}{
		{`"hello".capitalize()`, "Hello"},
		{`"  pad  ".trim()`, "pad"},
		{`"ABC".toLowerCase()`, "abc"},
		{`"a,b".split(",")`, []any{"a", "b"}},
		{`"hello".substring(1, 3)`, "el"},
		{`"hello".substring(3)`, "lo"},
		{`"hello".replace("l", "L")`, "heLLo"},
		{`"hello".indexOf("ll")`, int32(2)},
		{`"hello".startsWith("he")`, true},
		{`"hello".endsWith("x")`, false},
		{`"ab".toList()`, []any{Char('a'), Char('b')}},
		{`"héllo".length`, int32(5)},
		{`"".isEmpty`, true},
		{`s.toString()`, "hi"},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			got, ctx := evaluate(t, tt.source, testData())

			if errs := ctx.Errors(); len(errs) != 0 {
				t.Fatalf("Evaluate(%q) recorded errors: %v", tt.source, errs)
			}

			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Evaluate(%q) = %#v, want %#v", tt.source, got, tt.want)
			}
		})
	}
}

func TestBuiltins_Collections(t *testing.T) {
	tests := []struct {
		source string
		want   any
	}{
		{"words.containsKey('one')", true},
		{"words.containsValue(3)", false},
		{"words.contains('two')", true},
		{"list.first", 1},
		{"list.indexOf(3)", int32(2)},
		{"list.get(0)", 1},
		{"[].first", nil},
		{"{3, 1}.toList().size()", int32(2)},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			got, ctx := evaluate(t, tt.source, testData())

			if errs := ctx.Errors(); len(errs) != 0 {
				t.Fatalf("Evaluate(%q) recorded errors: %v", tt.source, errs)
			}

			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Evaluate(%q) = %#v, want %#v", tt.source, got, tt.want)
			}
		})
	}
}

func TestBuiltinMethods(t *testing.T) {
	all := BuiltinMethods(nil)
	if len(all) != len(builtins) {
		t.Fatalf("BuiltinMethods(nil) returned %d methods, want %d", len(all), len(builtins))
	}

	if !slices.IsSortedFunc(all, func(a, b BuiltinMethod) int {
		if a.Name != b.Name {
			if a.Name < b.Name {
				return -1
			}

			return 1
		}

		return a.Params - b.Params
	}) {
		t.Error("BuiltinMethods(nil) is not sorted")
	}

	names := func(ms []BuiltinMethod) []string {
		out := make([]string, len(ms))
		for i, m := range ms {
			out[i] = m.Name
		}

		return out
	}

	str := names(BuiltinMethods(reflect.TypeFor[string]()))
	for _, want := range []string{"toUpperCase", "substring", "size"} {
		if !slices.Contains(str, want) {
			t.Errorf("string methods %v missing %q", str, want)
		}
	}

	if slices.Contains(str, "keys") {
		t.Errorf("string methods %v include %q", str, "keys")
	}

	m := names(BuiltinMethods(reflect.TypeFor[map[string]int]()))
	if !slices.Contains(m, "keys") || slices.Contains(m, "toUpperCase") {
		t.Errorf("map methods = %v", m)
	}

	for _, b := range BuiltinMethods(reflect.TypeFor[[]int]()) {
		if b.Name == "size" && !b.Property {
			t.Error("size is not reported as a property")
		}
	}
}
