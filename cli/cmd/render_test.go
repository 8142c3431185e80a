package cmd

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/ardnew/tmplexpr/lang"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name   string
		format string
		value  any
		want   string
	}{
		{"native text", outputNative, "hello", "hello\n"},
		{"native null", outputNative, nil, "null\n"},
		{"native list", outputNative, []any{int32(1), "a"}, "[1, a]\n"},
		{"json scalar", outputJSON, int32(3), "3\n"},
		{"json char", outputJSON, lang.Char('x'), "\"x\"\n"},
		{"json set", outputJSON, lang.NewSet(int32(1), int32(2), int32(1)), "[\n  1,\n  2\n]\n"},
		{"json map", outputJSON, map[string]any{"a": true}, "{\n  \"a\": true\n}\n"},
		{"yaml map", outputYAML, map[string]any{"a": "b"}, "a: b\n"},
		{"yaml list", outputYAML, []any{"x", "y"}, "- x\n- y\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			if err := render(&buf, tt.format, tt.value); err != nil {
				t.Fatalf("render() failed: %v", err)
			}

			if got := buf.String(); got != tt.want {
				t.Errorf("render() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRender_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer

	if err := render(&buf, "xml", 1); !errors.Is(err, ErrUnknownOutput) {
		t.Errorf("render(xml) error = %v, want %v", err, ErrUnknownOutput)
	}

	if buf.Len() != 0 {
		t.Errorf("render(xml) wrote %q", buf.String())
	}
}

func TestExport(t *testing.T) {
	n := 7

	tests := []struct {
		name  string
		value any
		want  any
	}{
		{"nil", nil, nil},
		{"char", lang.Char('é'), "é"},
		{"pair", lang.Pair{Key: "k", Value: lang.Char('v')}, map[string]any{"key": "k", "value": "v"}},
		{"set", lang.NewSet("a", "b"), []any{"a", "b"}},
		{"expression", lang.MustCompile("a + 1"), "a + 1"},
		{"error", errors.New("boom"), "boom"},
		{"bytes", []byte("raw"), "raw"},
		{"int keyed map", map[int32]any{1: lang.Char('a')}, map[string]any{"1": "a"}},
		{"typed slice", []int{1, 2}, []any{1, 2}},
		{"array", [2]string{"x", "y"}, []any{"x", "y"}},
		{"nested", map[string]any{"l": []any{lang.Char('z')}}, map[string]any{"l": []any{"z"}}},
		{"pointer to scalar", &n, 7},
		{"nil pointer", (*int)(nil), nil},
		{"number", int64(5), int64(5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := export(tt.value); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("export(%#v) = %#v, want %#v", tt.value, got, tt.want)
			}
		})
	}
}

func TestExport_Func(t *testing.T) {
	got, ok := export(func() {}).(string)
	if !ok || got == "" {
		t.Errorf("export(func) = %#v, want text", got)
	}
}
