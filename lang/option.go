package lang

import (
	"maps"
	"slices"

	"github.com/ardnew/tmplexpr/log"
)

// DefaultMaxBackreach is the default limit on explicit "../" backreach.
// Users may modify this before compiling to change the default.
var DefaultMaxBackreach = 8

// optionsKey holds the compile options that affect the compiled result.
// This type is gob-encodable for cache key hashing.
type optionsKey struct {
	MaxBackreach int
	Named        []namedKey
}

type namedKey struct {
	Name   string
	Source string
}

// options holds the complete compile configuration.
type options struct {
	key      optionsKey
	named    map[string]*Expression
	logger   log.Logger
	observer Observer
}

// Option configures expression compilation.
type Option func(*options)

// WithMaxBackreach sets the deepest explicit backreach ("../" groups) an
// expression may use.
func WithMaxBackreach(n int) Option {
	return func(o *options) {
		o.key.MaxBackreach = n
	}
}

// WithNamedExpressions makes the given expressions callable by name.
// A call name(args...) evaluates the named expression with the arguments
// pushed as a new scope frame; a bare name evaluates it in the current scope.
func WithNamedExpressions(named map[string]*Expression) Option {
	return func(o *options) {
		o.named = named
		o.key.Named = o.key.Named[:0]

		for _, name := range slices.Sorted(maps.Keys(named)) {
			o.key.Named = append(o.key.Named, namedKey{
				Name:   name,
				Source: named[name].Source(),
			})
		}
	}
}

// WithLogger sets the structured logger for trace-level debugging.
// If not provided, the logger is zero-valued and all logging is a no-op.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithObserver registers an Observer notified of compilation, evaluation
// and accessor resolution events.
func WithObserver(observer Observer) Option {
	return func(o *options) {
		o.observer = observer
	}
}

// makeOptions returns the defaults overridden by opts.
func makeOptions(opts ...Option) options {
	o := options{
		key:      optionsKey{MaxBackreach: DefaultMaxBackreach},
		observer: nopObserver{},
	}

	for _, opt := range opts {
		opt(&o)
	}

	if o.observer == nil {
		o.observer = nopObserver{}
	}

	return o
}
