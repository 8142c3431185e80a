package cmd

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/ardnew/tmplexpr/lang"
	"github.com/ardnew/tmplexpr/log"
)

// Scope holds the flags that build the evaluation environment shared by
// eval, check and repl.
type Scope struct {
	Var          []string `help:"Bind NAME=VALUE as text in the innermost frame"       placeholder:"NAME=VALUE" short:"v"`
	Define       []string `help:"Define a named expression, callable as NAME(args...)" placeholder:"NAME=EXPR"  short:"D"`
	Policy       string   `default:"full"            enum:"${policyEnum}" help:"Frames searched for a bare identifier (${enum})"`
	MaxBackreach int      `default:"${maxBackreach}"                      help:"Deepest explicit ../ backreach"`
	NoHost       bool     `help:"Omit the host frame (env, file, path, mung, platform, ...)"`
}

// Environment is the scope stack, named expressions and access policy that
// expressions are compiled and evaluated against.
type Environment struct {
	frames  []any // root first; the last frame holds the variables
	named   map[string]*lang.Expression
	policy  lang.AccessPolicy
	options []lang.Option
	cache   *lang.Cache
	logger  log.Logger
}

// Environment builds the environment described by s: the host frame unless
// disabled, then the data files held by ctx in order, then the variables.
// Options are applied to every compilation.
func (s *Scope) Environment(ctx context.Context, opts ...lang.Option) (*Environment, error) {
	policy, ok := lang.ParseAccessPolicy(s.Policy)
	if !ok {
		return nil, ErrInvalidFlag.With(slog.String("policy", s.Policy))
	}

	logger := log.Default()

	env := &Environment{
		named:  map[string]*lang.Expression{},
		policy: policy,
		cache:  new(lang.Cache),
		logger: logger,
		options: append([]lang.Option{
			lang.WithMaxBackreach(s.MaxBackreach),
			lang.WithLogger(logger),
		}, opts...),
	}

	if !s.NoHost {
		env.frames = append(env.frames, lang.HostFrame(nil))
	}

	data, err := loadFrames(ctx, dataFilesFrom(ctx))
	if err != nil {
		return nil, err
	}

	env.frames = append(env.frames, data...)

	vars := make(map[string]any, len(s.Var))

	for _, binding := range s.Var {
		name, value, ok := strings.Cut(binding, "=")
		if !ok || !lang.IsIdentifier(name) {
			return nil, ErrInvalidFlag.With(slog.String("var", binding))
		}

		vars[name] = value
	}

	env.frames = append(env.frames, vars)

	for _, def := range s.Define {
		name, source, ok := strings.Cut(def, "=")
		if !ok {
			return nil, ErrInvalidFlag.With(slog.String("define", def))
		}

		if err := env.Define(ctx, strings.TrimSpace(name), source); err != nil {
			return nil, err
		}
	}

	logger.DebugContext(ctx, "environment ready",
		slog.Int("frames", len(env.frames)),
		slog.Int("named", len(env.named)),
		slog.String("policy", policy.String()),
	)

	return env, nil
}

func (e *Environment) compileOptions() []lang.Option {
	return append(slices.Clip(e.options), lang.WithNamedExpressions(e.named))
}

// Compile compiles source, reusing an earlier compilation of the same
// source with the same named expressions.
func (e *Environment) Compile(ctx context.Context, source string) (*lang.Expression, error) {
	expr, err := e.cache.Compile(ctx, source, e.compileOptions()...)
	if err != nil {
		return nil, ErrCompile.Wrap(err)
	}

	return expr, nil
}

// Context returns a fresh evaluation context holding the scope stack.
func (e *Environment) Context(ctx context.Context) *lang.Context {
	c := lang.NewContext(e.frames[0],
		lang.WithAccessPolicy(e.policy),
		lang.WithContextLogger(e.logger),
		lang.WithBaseContext(ctx),
	)

	for _, frame := range e.frames[1:] {
		c.PushScope(frame)
	}

	return c
}

// Evaluate compiles and evaluates source.
func (e *Environment) Evaluate(ctx context.Context, source string) (any, error) {
	expr, err := e.Compile(ctx, source)
	if err != nil {
		return nil, err
	}

	v, err := expr.Run(e.Context(ctx))
	if err != nil {
		return nil, ErrEvaluate.Wrap(err).With(slog.String("source", source))
	}

	return v, nil
}

// Lookup evaluates a member path such as "user.address" without caching,
// logging or observing it. It reports false if the path cannot be resolved.
func (e *Environment) Lookup(ctx context.Context, path string) (any, bool) {
	expr, err := lang.Compile(ctx, path,
		lang.WithMaxBackreach(lang.DefaultMaxBackreach),
		lang.WithNamedExpressions(e.named),
	)
	if err != nil {
		return nil, false
	}

	c := lang.NewContext(e.frames[0], lang.WithAccessPolicy(e.policy))
	for _, frame := range e.frames[1:] {
		c.PushScope(frame)
	}

	v, err := expr.Run(c)

	return v, err == nil
}

// Define compiles source and makes it callable as name. Named expressions
// defined earlier may be referenced.
func (e *Environment) Define(ctx context.Context, name, source string) error {
	if !lang.IsIdentifier(name) {
		return ErrDefine.With(slog.String("name", name))
	}

	expr, err := e.Compile(ctx, source)
	if err != nil {
		return ErrDefine.Wrap(err).With(slog.String("name", name))
	}

	named := maps.Clone(e.named)
	named[name] = expr
	e.named = named

	return nil
}

// Named returns the named expressions.
func (e *Environment) Named() map[string]*lang.Expression { return maps.Clone(e.named) }

// Frames returns the scope stack, root first.
func (e *Environment) Frames() []any { return slices.Clone(e.frames) }

// Vars returns the innermost frame holding the variable bindings.
func (e *Environment) Vars() map[string]any {
	vars, _ := e.frames[len(e.frames)-1].(map[string]any)

	return vars
}

// SetVars replaces the innermost frame.
func (e *Environment) SetVars(vars map[string]any) {
	if vars == nil {
		vars = map[string]any{}
	}

	e.frames[len(e.frames)-1] = vars
}

// Policy returns the access policy.
func (e *Environment) Policy() lang.AccessPolicy { return e.policy }

// SetPolicy changes the access policy for later evaluations.
func (e *Environment) SetPolicy(p lang.AccessPolicy) { e.policy = p }
