package log

import (
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Defaults for the boolean settings.
const (
	DefaultCaller = false
	DefaultPretty = true
)

// config is the state behind a Logger. Copies share nothing but the output
// writer; the mutex serializes updates made through [Config].
type config struct {
	mutex      *sync.RWMutex
	output     io.Writer
	formatTime FormatTime
	level      Level
	format     Format
	caller     bool
	pretty     bool
}

// Option modifies a logger configuration.
type Option func(config) config

func (c config) with(opts ...Option) config {
	for _, opt := range opts {
		c = opt(c)
	}

	return c
}

// makeConfig returns the default configuration writing to w, modified by
// opts.
func makeConfig(w io.Writer, opts ...Option) config {
	return config{mutex: new(sync.RWMutex)}.with(WithDefaults(w)).with(opts...)
}

// clone returns a copy of c with its own mutex, modified by opts.
func (c config) clone(opts ...Option) config {
	c.mutex = new(sync.RWMutex)

	return c.with(opts...)
}

// set wraps a field assignment as an Option that holds the write lock.
func set(assign func(*config)) Option {
	return func(c config) config {
		if c.mutex == nil {
			c.mutex = new(sync.RWMutex)
		}

		c.mutex.Lock()
		assign(&c)
		c.mutex.Unlock()

		return c
	}
}

func orDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}

	return w
}

// replaceAttr rewrites the built-in time and level attributes. Timestamps
// use the configured layout and trace records are labeled TRACE rather than
// DEBUG-4.
func (c config) replaceAttr(_ []string, a slog.Attr) slog.Attr {
	switch v := a.Value.Any().(type) {
	case time.Time:
		if a.Key != slog.TimeKey {
			break
		}

		s := c.formatTime(v)
		if s == "" {
			return slog.Attr{}
		}

		a.Value = slog.StringValue(s)

	case slog.Level:
		if a.Key == slog.LevelKey {
			a.Value = slog.StringValue(strings.ToUpper(Level(v).String()))
		}
	}

	return a
}

func (c config) handler() slog.Handler {
	opts := &slog.HandlerOptions{
		AddSource:   c.caller,
		Level:       slog.Level(c.level),
		ReplaceAttr: c.replaceAttr,
	}

	if c.format != FormatText && c.format != FormatJSON {
		return slog.DiscardHandler
	}

	if c.pretty {
		return newPrettyHandler(c.output, opts, c.format, c.formatTime)
	}

	if c.format == FormatJSON {
		return slog.NewJSONHandler(c.output, opts)
	}

	return slog.NewTextHandler(c.output, opts)
}

// WithDefaults resets every setting to its default and writes to w. A nil
// w discards output.
func WithDefaults(w io.Writer) Option {
	return set(func(c *config) {
		c.output = orDiscard(w)
		c.formatTime = timeFormatter(DefaultTimeLayout)
		c.level = DefaultLevel
		c.format = DefaultFormat
		c.caller = DefaultCaller
		c.pretty = DefaultPretty
	})
}

// WithOutput sets the writer records go to. A nil w discards output.
func WithOutput(w io.Writer) Option {
	return set(func(c *config) { c.output = orDiscard(w) })
}

// WithLevel sets the least severe level that is written.
func WithLevel(level Level) Option {
	return set(func(c *config) { c.level = level })
}

// WithFormat selects the text or JSON handler.
func WithFormat(format Format) Option {
	return set(func(c *config) { c.format = format })
}

// WithTimeLayout sets the timestamp layout.
//
// The layout may name a layout from the [time] package, ignoring case and
// punctuation ("RFC3339", "rfc-3339-nano", "kitchen"), or be one of "ms",
// "us", "ns" or "none". Other layouts are passed to [time.Time.Format]
// unchanged. An empty layout omits timestamps.
func WithTimeLayout(layout string) Option {
	f := timeFormatter(layout)

	return set(func(c *config) { c.formatTime = f })
}

// WithCaller includes the source location of each logging call.
func WithCaller(enable bool) Option {
	return set(func(c *config) { c.caller = enable })
}

// WithPretty colorizes output with lipgloss. Pretty JSON is indented one
// attribute per line.
func WithPretty(enable bool) Option {
	return set(func(c *config) { c.pretty = enable })
}
