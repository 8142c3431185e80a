package cmd

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ardnew/tmplexpr/lang"
)

func TestCheck_Run(t *testing.T) {
	c := &Check{Scope: testScope(), Expr: []string{"1 + 2", "user.older(4)"}}

	var out bytes.Buffer

	if err := c.run(context.Background(), &out); err != nil {
		t.Fatalf("run() failed: %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"1 + 2\n",
		"  constant: true",
		"  value:    3",
		"user.older(4)\n",
		"  constant: false",
		"IDENTIFIER",
		"older",
		"method",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("run() output missing %q:\n%s", want, got)
		}
	}
}

func TestCheck_Run_Failures(t *testing.T) {
	c := &Check{Scope: testScope(), Expr: []string{"1 +", "a", "(b"}}

	var out bytes.Buffer

	err := c.run(context.Background(), &out)
	if !errors.Is(err, ErrCheckFailed) {
		t.Fatalf("run() error = %v, want %v", err, ErrCheckFailed)
	}

	if strings.Count(out.String(), lang.ErrSyntax.Error()) < 2 {
		t.Errorf("run() output does not report two syntax errors:\n%s", out.String())
	}
}

func TestDescribe_NoIdentifiers(t *testing.T) {
	got := describe(lang.MustCompile(`"a" + "b"`))

	if strings.Contains(got, "IDENTIFIER") {
		t.Errorf("describe() rendered an identifier table:\n%s", got)
	}

	if !strings.Contains(got, "value:    ab") {
		t.Errorf("describe() = %q, want folded value", got)
	}
}

func TestIndent(t *testing.T) {
	if got := indent("a\nb\n"); got != "  a\n  b" {
		t.Errorf("indent() = %q, want %q", got, "  a\n  b")
	}
}
