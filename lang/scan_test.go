package lang

import (
	"errors"
	"reflect"
	"regexp"
	"testing"
)

func TestScanner_Literals(t *testing.T) {
	tests := []struct {
		input string
		want  any
	}{
		{"42", int32(42)},
		{"42L", int64(42)},
		{"0xff", int32(255)},
		{"0x7fffffffffffffff", int64(1<<63 - 1)},
		{"1_000", int32(1000)},
		{"2147483647", int32(2147483647)},
		{"2147483648", int64(2147483648)},
		{"3.25", 3.25},
		{".5", 0.5},
		{"1e3", 1000.0},
		{"2.5e-1", 0.25},
		{"1.5f", 1.5},
		{"2d", 2.0},
		{`"plain"`, "plain"},
		{`'single'`, "single"},
		{`"tab\there"`, "tab\there"},
		{`"quote\"d"`, `quote"d`},
		{`"\x41B"`, "AB"},
		{`"\u{1F600}"`, "\U0001F600"},
		{`"😀"`, "\U0001F600"},
		{"true", true},
		{"false", false},
		{"null", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			s := scanner{input: tt.input}

			tok, err := s.next(true)
			if err != nil {
				t.Fatalf("next() failed: %v", err)
			}

			if tok.kind != tokenLiteral {
				t.Fatalf("kind = %v, want literal", tok.kind)
			}

			if !reflect.DeepEqual(tok.value, tt.want) {
				t.Errorf("value = %#v, want %#v", tok.value, tt.want)
			}

			if end, _ := s.next(false); end.kind != tokenEnd {
				t.Errorf("trailing token %q", end.text)
			}
		})
	}
}

func TestScanner_Pattern(t *testing.T) {
	s := scanner{input: `~/a\/b\d+/`}

	tok, err := s.next(true)
	if err != nil {
		t.Fatalf("next() failed: %v", err)
	}

	re, ok := tok.value.(*regexp.Regexp)
	if !ok {
		t.Fatalf("value = %T, want *regexp.Regexp", tok.value)
	}

	if got := re.String(); got != `a/b\d+` {
		t.Errorf("pattern = %q, want %q", got, `a/b\d+`)
	}
}

func TestScanner_Identifiers(t *testing.T) {
	tests := []struct {
		input     string
		kind      tokenKind
		text      string
		signature string
		backreach int
	}{
		{"name", tokenIdent, "name", "", 0},
		{"$x_1", tokenIdent, "$x_1", "", 0},
		{"call(", tokenCall, "call", "", 0},
		{"`odd name`", tokenIdent, "odd name", "", 0},
		{"`fmt:string,int`(", tokenCall, "fmt", "string,int", 0},
		{"../up", tokenIdent, "up", "", 1},
		{"../../up(", tokenCall, "up", "", 2},
		{".", tokenScope, ".", "", 0},
		{"../.", tokenScope, ".", "", 1},
		{"[:]", tokenEmptyMap, "[:]", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			s := scanner{input: tt.input}

			tok, err := s.next(true)
			if err != nil {
				t.Fatalf("next() failed: %v", err)
			}

			if tok.kind != tt.kind || tok.text != tt.text ||
				tok.signature != tt.signature || tok.backreach != tt.backreach {
				t.Errorf("token = %+v", tok)
			}
		})
	}
}

func TestScanner_Operators_LongestMatch(t *testing.T) {
	tests := []string{"..<", "..", ">>>", ">>", "<=>", "<=", "==~", "==", "?.", "?[", "??", "?:", "?"}

	for _, want := range tests {
		s := scanner{input: want + " 1"}

		tok, err := s.next(false)
		if err != nil {
			t.Fatalf("next(%q) failed: %v", want, err)
		}

		if tok.kind != tokenOperator || tok.text != want {
			t.Errorf("next(%q) = %q", want, tok.text)
		}
	}
}

func TestScanner_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unterminated string", `"abc`},
		{"bad escape", `"\q"`},
		{"short hex escape", `"\x4"`},
		{"unterminated pattern", `~/abc`},
		{"bad pattern", `~/(/`},
		{"identifier after number", "12abc"},
		{"integral overflow", "9223372036854775808"},
		{"unterminated quoted identifier", "`abc"},
		{"empty quoted identifier", "``"},
		{"backreach before literal", "../1"},
		{"unexpected character", "#"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := scanner{input: tt.input}

			_, err := s.next(true)

			var se *SyntaxError
			if !errors.As(err, &se) || !errors.Is(err, ErrSyntax) {
				t.Fatalf("next(%q) error = %v, want SyntaxError", tt.input, err)
			}
		})
	}
}

func TestIsIdentifier(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"user", true},
		{"_private", true},
		{"$ref", true},
		{"x1", true},
		{"ünïcode", true},
		{"", false},
		{"1x", false},
		{"a-b", false},
		{"a.b", false},
		{"null", false},
		{"true", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsIdentifier(tt.name); got != tt.want {
				t.Errorf("IsIdentifier(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}
