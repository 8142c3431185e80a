package cli

import (
	"reflect"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
)

func resolveFlag(t *testing.T, doc, name string) any {
	t.Helper()

	r, err := resolve(baseConfig)(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("resolve() failed: %v", err)
	}

	if err := r.Validate(nil); err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}

	v, err := r.Resolve(nil, nil, &kong.Flag{Value: &kong.Value{Name: name}})
	if err != nil {
		t.Fatalf("Resolve(%q) failed: %v", name, err)
	}

	return v
}

func TestResolve(t *testing.T) {
	const doc = `
config:
  log-level: debug
  max_backreach: 4
  ratio: 0.5
  define:
    - greet="hi"
    - two=2
  no-host: true
other:
  policy: root
`

	tests := []struct {
		flag string
		want any
	}{
		{"log-level", "debug"},
		{"max-backreach", "4"},
		{"ratio", "0.5"},
		{"define", []any{`greet="hi"`, "two=2"}},
		{"no-host", true},
		{"policy", nil},
		{"missing", nil},
	}

	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			if got := resolveFlag(t, doc, tt.flag); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Resolve(%q) = %#v, want %#v", tt.flag, got, tt.want)
			}
		})
	}
}

func TestResolve_NoSection(t *testing.T) {
	for name, doc := range map[string]string{
		"empty":       "",
		"invalid":     "config: [unterminated\n",
		"not mapping": "config: 3\n",
		"sequence":    "- a\n- b\n",
	} {
		t.Run(name, func(t *testing.T) {
			if got := resolveFlag(t, doc, "log-level"); got != nil {
				t.Errorf("Resolve() = %#v, want nil", got)
			}
		})
	}
}

func TestFlagText(t *testing.T) {
	tests := []struct {
		in   any
		want any
	}{
		{uint64(7), "7"},
		{int64(-7), "-7"},
		{3, "3"},
		{2.25, "2.25"},
		{"text", "text"},
		{false, false},
		{[]any{uint64(1), "a"}, []any{"1", "a"}},
	}

	for _, tt := range tests {
		if got := flagText(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("flagText(%#v) = %#v, want %#v", tt.in, got, tt.want)
		}
	}
}
