package repl

import (
	"strings"
	"testing"
)

func TestEncodeVars(t *testing.T) {
	got, err := encodeVars(nil)
	if err != nil || string(got) != "{}\n" {
		t.Errorf("encodeVars(nil) = %q, %v", got, err)
	}

	got, err = encodeVars(map[string]any{"greeting": "hello"})
	if err != nil {
		t.Fatalf("encodeVars() failed: %v", err)
	}

	if !strings.Contains(string(got), "greeting: hello") {
		t.Errorf("encodeVars() = %q, want greeting binding", got)
	}
}

func TestDecodeVars(t *testing.T) {
	vars, err := decodeVars([]byte("greeting: hello\nnested:\n  key: value\n"))
	if err != nil {
		t.Fatalf("decodeVars() failed: %v", err)
	}

	if vars["greeting"] != "hello" {
		t.Errorf("greeting = %v, want hello", vars["greeting"])
	}

	if _, ok := vars["nested"].(map[string]any); !ok {
		t.Errorf("nested = %T, want map[string]any", vars["nested"])
	}

	if _, err := decodeVars([]byte("- not\n- a mapping\n")); err == nil {
		t.Error("decodeVars() of a sequence succeeded, want error")
	}

	empty, err := decodeVars([]byte("{}"))
	if err != nil || empty == nil || len(empty) != 0 {
		t.Errorf("decodeVars({}) = %v, %v", empty, err)
	}
}

func TestConfirm(t *testing.T) {
	tests := map[string]bool{
		"\n":    true,
		"y\n":   true,
		"Yes\n": true,
		"n\n":   false,
		" NO\n": false,
		"":      false,
	}

	for in, want := range tests {
		if got := confirm(strings.NewReader(in)); got != want {
			t.Errorf("confirm(%q) = %v, want %v", in, got, want)
		}
	}
}
