package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ardnew/tmplexpr/lang"
	"github.com/ardnew/tmplexpr/log"
	"github.com/ardnew/tmplexpr/metrics"
)

// Eval evaluates each expression against the data frames and prints the
// results, one per line.
type Eval struct {
	Scope `embed:""`

	Output  string   `default:"native" enum:"native,json,yaml" help:"Result format (${enum})" short:"o"`
	Metrics bool     `help:"Write evaluation metrics to stderr in the Prometheus text format"`
	Expr    []string `arg:"" help:"Expression(s) to evaluate" name:"expr"`
}

// Run executes the eval command.
func (e *Eval) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	return e.run(ctx, os.Stdout, os.Stderr)
}

func (e *Eval) run(ctx context.Context, stdout, stderr io.Writer) error {
	var opts []lang.Option

	reg := prometheus.NewRegistry()

	if e.Metrics {
		opts = append(opts, lang.WithObserver(metrics.New(reg)))
	}

	env, err := e.Environment(ctx, opts...)
	if err != nil {
		return err
	}

	for _, source := range e.Expr {
		result, err := env.Evaluate(ctx, source)
		if err != nil {
			return err
		}

		log.DebugContext(ctx, "evaluated",
			slog.String("source", source),
			slog.String("output", e.Output),
		)

		if err := render(stdout, e.Output, result); err != nil {
			return err
		}
	}

	if e.Metrics {
		return metrics.WriteText(stderr, reg)
	}

	return nil
}
