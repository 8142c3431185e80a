package lang

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/ardnew/tmplexpr/log"
)

//go:generate go tool stringer --linecomment --type AccessPolicy --output context_string.go

// AccessPolicy controls how far a search-mode identifier resolution walks
// the scope stack.
type AccessPolicy uint8

const (
	// PolicyCurrent searches only the innermost frame.
	PolicyCurrent AccessPolicy = iota // current
	// PolicyCurrentAndRoot searches the innermost frame, then the root frame.
	PolicyCurrentAndRoot // current-and-root
	// PolicyFull searches every frame from the innermost outward.
	PolicyFull // full
)

// DefaultAccessPolicy is the policy of a new Context.
const DefaultAccessPolicy = PolicyFull

// ParseAccessPolicy parses the textual form of an AccessPolicy.
func ParseAccessPolicy(s string) (AccessPolicy, bool) {
	for p := PolicyCurrent; p <= PolicyFull; p++ {
		if p.String() == s {
			return p, true
		}
	}

	switch s {
	case "root":
		return PolicyCurrentAndRoot, true
	}

	return DefaultAccessPolicy, false
}

// LoopIndex describes the position of the current iteration of an
// enclosing loop.
type LoopIndex struct {
	Index int
	Count int
}

// First reports whether this is the first iteration.
func (l LoopIndex) First() bool { return l.Index == 0 }

// Last reports whether this is the last iteration.
func (l LoopIndex) Last() bool { return l.Index == l.Count-1 }

// maxCallDepth bounds nested named-expression invocation.
const maxCallDepth = 256

// Context is the evaluation-time state: the scope stack with the root frame
// at the bottom, loop-index metadata, output indentation, the access policy,
// and the sink of diagnostics recorded by failed evaluations.
//
// A Context must not be used by more than one goroutine at a time.
type Context struct {
	base     context.Context
	logger   log.Logger
	scopes   []any
	loops    []LoopIndex
	failures []error
	indent   string
	policy   AccessPolicy
	depth    int
}

// ContextOption configures a Context.
type ContextOption func(*Context)

// WithAccessPolicy sets the initial access policy.
func WithAccessPolicy(p AccessPolicy) ContextOption {
	return func(c *Context) { c.policy = p }
}

// WithContextLogger sets the logger that records diagnostics.
func WithContextLogger(logger log.Logger) ContextOption {
	return func(c *Context) { c.logger = logger }
}

// WithBaseContext sets the context passed to the logger.
func WithBaseContext(ctx context.Context) ContextOption {
	return func(c *Context) { c.base = ctx }
}

// NewContext returns a Context whose scope stack holds only root.
func NewContext(root any, opts ...ContextOption) *Context {
	c := &Context{
		base:   log.DefaultContextProvider(),
		scopes: []any{root},
		policy: DefaultAccessPolicy,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// PushScope makes v the innermost scope frame.
func (c *Context) PushScope(v any) { c.scopes = append(c.scopes, v) }

// PopScope removes and returns the innermost scope frame. The root frame is
// never removed.
func (c *Context) PopScope() any {
	if len(c.scopes) <= 1 {
		return nil
	}

	v := c.scopes[len(c.scopes)-1]
	c.scopes = c.scopes[:len(c.scopes)-1]

	return v
}

// CurrentScope returns the innermost scope frame.
func (c *Context) CurrentScope() any { return c.scopes[len(c.scopes)-1] }

// Root returns the root frame.
func (c *Context) Root() any { return c.scopes[0] }

// Depth returns the number of frames on the scope stack, root included.
func (c *Context) Depth() int { return len(c.scopes) }

// Scope returns the frame n levels out from the innermost.
func (c *Context) Scope(n int) (any, bool) {
	i := len(c.scopes) - 1 - n
	if n < 0 || i < 0 {
		return nil, false
	}

	return c.scopes[i], true
}

// SetAccessPolicy changes the access policy for later evaluations.
func (c *Context) SetAccessPolicy(p AccessPolicy) { c.policy = p }

// AccessPolicy returns the active access policy.
func (c *Context) AccessPolicy() AccessPolicy { return c.policy }

// PushIndex enters a loop iteration.
func (c *Context) PushIndex(l LoopIndex) { c.loops = append(c.loops, l) }

// PopIndex leaves the innermost loop iteration.
func (c *Context) PopIndex() (LoopIndex, bool) {
	if len(c.loops) == 0 {
		return LoopIndex{}, false
	}

	l := c.loops[len(c.loops)-1]
	c.loops = c.loops[:len(c.loops)-1]

	return l, true
}

// Index returns the innermost loop iteration.
func (c *Context) Index() (LoopIndex, bool) {
	if len(c.loops) == 0 {
		return LoopIndex{}, false
	}

	return c.loops[len(c.loops)-1], true
}

// Indent returns the current output indentation.
func (c *Context) Indent() string { return c.indent }

// SetIndent sets the current output indentation.
func (c *Context) SetIndent(s string) { c.indent = s }

// Errors returns the recorded diagnostics as messages, oldest first.
func (c *Context) Errors() []string {
	out := make([]string, len(c.failures))
	for i, err := range c.failures {
		out[i] = err.Error()
	}

	return out
}

// Failures returns the recorded diagnostics, oldest first.
func (c *Context) Failures() []error { return slices.Clone(c.failures) }

// ClearErrors discards the recorded diagnostics.
func (c *Context) ClearErrors() { c.failures = c.failures[:0] }

func (c *Context) record(e *Expression, err error) {
	c.failures = append(c.failures, err)

	c.logger.DebugContext(c.base, "evaluation failed",
		slog.String("expression", e.source),
		slog.Any("error", err),
	)
}

// state is the per-evaluation storage of one Expression.
type state struct {
	ctx    *Context
	expr   *Expression
	locals []any
}

// resolve applies a scope-relative reference.
func (st *state) resolve(ref *reference, args []any) any {
	c := st.ctx

	if ref.backreach >= 0 {
		frame, ok := c.Scope(ref.backreach)
		if !ok {
			fail(ErrBackreach.With(
				slog.String("identifier", ref.id.String()),
				slog.Int("backreach", ref.backreach),
				slog.Int("depth", c.Depth()),
			))
		}

		v, res := ref.id.access(st, frame, args)

		switch res {
		case lookupFound:
			return v
		case lookupAbsent:
			return nil
		}

		fail(notFound(ref, c))
	}

	absent := false

	for _, frame := range st.frames() {
		v, res := ref.id.access(st, frame, args)

		switch res {
		case lookupFound:
			return v
		case lookupAbsent:
			absent = true
		}
	}

	if absent {
		return nil
	}

	fail(notFound(ref, c))

	return nil
}

// frames returns the frames searched under the active policy, innermost
// first.
func (st *state) frames() []any {
	s := st.ctx.scopes
	inner := len(s) - 1

	switch st.ctx.policy {
	case PolicyCurrent:
		return s[inner:]
	case PolicyCurrentAndRoot:
		if inner == 0 {
			return s[:1]
		}

		return []any{s[inner], s[0]}
	}

	out := make([]any, 0, len(s))
	for i := inner; i >= 0; i-- {
		out = append(out, s[i])
	}

	return out
}

// member applies a receiver-relative reference.
func (st *state) member(ref *reference, recv any, args []any) any {
	if recv == nil {
		fail(notFound(ref, st.ctx).With(slog.String("receiver", "null")))
	}

	v, res := ref.id.access(st, recv, args)

	switch res {
	case lookupFound:
		return v
	case lookupAbsent:
		return nil
	}

	fail(notFound(ref, st.ctx).With(slog.String("receiver", typeName(recv))))

	return nil
}

// invoke evaluates a named expression. A call pushes its arguments as one
// frame: a single argument as itself, several as a []any.
func (st *state) invoke(e *Expression, args []any, call bool) any {
	c := st.ctx
	if c.depth >= maxCallDepth {
		fail(ErrCallDepth.With(
			slog.String("expression", e.source),
			slog.Int("depth", c.depth),
		))
	}

	c.depth++
	defer func() { c.depth-- }()

	if call && len(args) > 0 {
		if len(args) == 1 {
			c.PushScope(args[0])
		} else {
			c.PushScope(slices.Clone(args))
		}

		defer c.PopScope()
	}

	return e.eval(&state{ctx: c, expr: e, locals: make([]any, e.locals)})
}

func notFound(ref *reference, c *Context) *Error {
	kind := ErrFieldNotFound
	if ref.id.IsMethod() {
		kind = ErrMethodNotFound
	}

	return kind.Wrap(errors.New(ref.id.String())).With(
		slog.String("identifier", ref.id.String()),
		slog.Int("backreach", ref.backreach),
		slog.String("policy", c.policy.String()),
	)
}
