package lang

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/zeebo/xxh3"

	"github.com/ardnew/tmplexpr/log"
)

// Expression is a compiled template expression. It is immutable after
// compilation and may be evaluated concurrently against distinct Contexts.
type Expression struct {
	source      string
	identifiers []*Identifier
	eval        evaluator
	category    Category
	constant    bool
	locals      int

	logger   log.Logger
	observer Observer
}

// Compile compiles text into an Expression.
//
// A failure is returned as a *[SyntaxError] whose Unwrap is [ErrSyntax], or
// [ErrBackreachTooDeep] when an explicit backreach exceeds the configured
// limit.
func Compile(ctx context.Context, text string, opts ...Option) (*Expression, error) {
	o := makeOptions(opts...)

	start := time.Now()

	e, err := compile(text, &o)

	elapsed := time.Since(start)
	o.observer.Compiled(text, elapsed, err)

	if err != nil {
		o.logger.TraceContext(ctx, "compile failed",
			slog.String("source", text),
			slog.Any("error", err),
		)

		return nil, err
	}

	o.logger.TraceContext(ctx, "compile complete",
		slog.String("source", text),
		slog.String("category", e.category.String()),
		slog.Int("identifiers", len(e.identifiers)),
		slog.Int("locals", e.locals),
		slog.Bool("constant", e.constant),
		slog.Duration("elapsed", elapsed),
	)

	return e, nil
}

func compile(text string, o *options) (*Expression, error) {
	c := newCompiler(text, o)

	root, err := c.compile()
	if err != nil {
		return nil, err
	}

	return &Expression{
		source:      text,
		identifiers: c.idents,
		eval:        root.eval,
		category:    root.category,
		constant:    root.constant,
		locals:      len(c.locals),
		logger:      o.logger,
		observer:    o.observer,
	}, nil
}

// MustCompile is like [Compile] but panics if the text cannot be compiled.
func MustCompile(text string, opts ...Option) *Expression {
	e, err := Compile(context.Background(), text, opts...)
	if err != nil {
		panic(err)
	}

	return e
}

// Source returns the text the expression was compiled from.
func (e *Expression) Source() string { return e.source }

// String returns the source text.
func (e *Expression) String() string { return e.source }

// Identifiers returns the distinct identifiers the expression references.
// A call is listed when its argument list closes.
func (e *Expression) Identifiers() []*Identifier { return slices.Clone(e.identifiers) }

// Category returns the statically known category of the result.
func (e *Expression) Category() Category { return e.category }

// IsConstant reports whether the result was computed at compile time.
func (e *Expression) IsConstant() bool { return e.constant }

// Equal reports whether e and o were compiled from the same text.
func (e *Expression) Equal(o *Expression) bool {
	if e == nil || o == nil {
		return e == o
	}

	return e.source == o.source
}

// Key returns a hash of the source text. Expressions that are Equal have
// the same Key.
func (e *Expression) Key() uint64 { return xxh3.HashString(e.source) }

// Evaluate evaluates the expression against c. A runtime failure records
// one diagnostic in c and yields nil.
func (e *Expression) Evaluate(c *Context) any {
	v, _ := e.Run(c)

	return v
}

// Run is like [Expression.Evaluate] but also returns the recorded failure.
func (e *Expression) Run(c *Context) (result any, err error) {
	if c == nil {
		c = NewContext(nil)
	}

	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			switch x := r.(type) {
			case evalError:
				err = x.err
			case error:
				err = ErrHostCall.Wrap(x)
			default:
				err = ErrHostCall.Wrap(fmt.Errorf("%v", x))
			}

			result = nil

			c.record(e, err)
		}

		e.observer.Evaluated(e.source, time.Since(start), err)

		e.logger.TraceContext(c.base, "evaluate",
			slog.String("source", e.source),
			slog.String("result", typeName(result)),
			slog.Bool("failed", err != nil),
		)
	}()

	return e.eval(&state{ctx: c, expr: e, locals: make([]any, e.locals)}), nil
}
