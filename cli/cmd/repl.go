package cmd

import (
	"context"

	"github.com/ardnew/tmplexpr/cli/cmd/repl"
	"github.com/ardnew/tmplexpr/log"
)

// Repl starts an interactive session against the data frames.
type Repl struct {
	Scope `embed:""`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	env, err := r.Environment(ctx)
	if err != nil {
		return err
	}

	var cacheDir string
	if ktx := kongContextFrom(ctx); ktx != nil {
		cacheDir = ktx.Model.Vars()[CacheIdentifier]
	}

	return repl.Run(ctx, env, cacheDir, log.Default())
}
