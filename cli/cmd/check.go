package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/ardnew/tmplexpr/lang"
)

// Check compiles each expression without evaluating it and describes the
// result: its static category, whether it folded to a constant, and the
// identifiers it references. Syntax errors are printed with the offending
// source position marked.
type Check struct {
	Scope `embed:""`

	Expr []string `arg:"" help:"Expression(s) to compile" name:"expr"`
}

// Run executes the check command.
func (c *Check) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	return c.run(ctx, os.Stdout)
}

func (c *Check) run(ctx context.Context, w io.Writer) error {
	env, err := c.Environment(ctx)
	if err != nil {
		return err
	}

	failed := 0

	for _, source := range c.Expr {
		expr, err := env.Compile(ctx, source)
		if err != nil {
			failed++

			var syntax *lang.SyntaxError
			if errors.As(err, &syntax) {
				err = syntax
			}

			fmt.Fprintf(w, "%s\n%s\n\n", source, indent(err.Error()))

			continue
		}

		fmt.Fprintf(w, "%s\n%s\n", source, indent(describe(expr)))
	}

	if failed > 0 {
		return ErrCheckFailed.With(
			slog.Int("failed", failed),
			slog.Int("total", len(c.Expr)),
		)
	}

	return nil
}

// describe summarizes a compiled expression.
func describe(expr *lang.Expression) string {
	var b strings.Builder

	fmt.Fprintf(&b, "category: %s\n", expr.Category())
	fmt.Fprintf(&b, "constant: %t\n", expr.IsConstant())

	if expr.IsConstant() {
		fmt.Fprintf(&b, "value:    %s\n", lang.Format(expr.Evaluate(nil)))
	}

	ids := expr.Identifiers()
	if len(ids) == 0 {
		return b.String()
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("IDENTIFIER", "KIND", "PARAMS", "SIGNATURE")

	for _, id := range ids {
		kind, params := "field", "-"
		if id.IsMethod() {
			kind, params = "method", strconv.Itoa(id.Params())
		}

		t.Row(id.Name(), kind, params, strings.Join(id.Signature(), ","))
	}

	b.WriteString(t.Render())
	b.WriteByte('\n')

	return b.String()
}

func indent(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, line := range lines {
		lines[i] = "  " + line
	}

	return strings.Join(lines, "\n")
}
