package repl

import (
	"context"
	"maps"
	"strings"

	"github.com/ardnew/tmplexpr/lang"
)

type server struct {
	Host string
	Port int
}

func (s server) Addr() string { return s.Host }

func (s server) Join(parts ...string) string { return strings.Join(parts, s.Host) }

// fakeEnv resolves member paths by walking nested maps and struct fields.
type fakeEnv struct {
	root   map[string]any
	vars   map[string]any
	named  map[string]*lang.Expression
	policy lang.AccessPolicy
}

func newFakeEnv() *fakeEnv {
	return &fakeEnv{
		root: map[string]any{
			"server": map[string]any{
				"http":  map[string]any{"host": "localhost", "port": 8080},
				"https": map[string]any{"host": "example.com"},
			},
			"backend": server{Host: "db", Port: 5432},
			"join":    func(sep string, parts ...string) string { return strings.Join(parts, sep) },
			"cwd":     func() string { return "/" },
			"name":    "tmplexpr",
		},
		vars:   map[string]any{"greeting": "hello"},
		named:  map[string]*lang.Expression{"double": lang.MustCompile(". * 2")},
		policy: lang.PolicyFull,
	}
}

func (e *fakeEnv) Evaluate(ctx context.Context, source string) (any, error) {
	expr, err := lang.Compile(ctx, source, lang.WithNamedExpressions(e.named))
	if err != nil {
		return nil, err
	}

	c := lang.NewContext(e.root, lang.WithAccessPolicy(e.policy))
	c.PushScope(e.vars)

	return expr.Run(c)
}

func (e *fakeEnv) Lookup(ctx context.Context, path string) (any, bool) {
	v, err := e.Evaluate(ctx, path)

	return v, err == nil && v != nil
}

func (e *fakeEnv) Define(ctx context.Context, name, source string) error {
	expr, err := lang.Compile(ctx, source)
	if err != nil {
		return err
	}

	e.named[name] = expr

	return nil
}

func (e *fakeEnv) Named() map[string]*lang.Expression { return maps.Clone(e.named) }

func (e *fakeEnv) Frames() []any { return []any{e.root, e.vars} }

func (e *fakeEnv) Vars() map[string]any { return e.vars }

func (e *fakeEnv) SetVars(vars map[string]any) { e.vars = vars }

func (e *fakeEnv) Policy() lang.AccessPolicy { return e.policy }

func (e *fakeEnv) SetPolicy(p lang.AccessPolicy) { e.policy = p }
