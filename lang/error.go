package lang

import (
	"errors"
	"log/slog"
	"slices"
	"unicode/utf8"

	"github.com/expr-lang/expr/file"
)

// Failure classes. Every error returned or recorded by this package matches
// one of these with [errors.Is].
var (
	ErrSyntax           = NewError("syntax error")
	ErrBackreachTooDeep = NewError("backreach too deep")
	ErrBackreach        = NewError("backreach beyond scope stack")
	ErrFieldNotFound    = NewError("field not found")
	ErrMethodNotFound   = NewError("method not found")
	ErrInvalidOperands  = NewError("invalid operands")
	ErrHostCall         = NewError("host call failed")
	ErrCallDepth        = NewError("named expression call depth exceeded")
	ErrReadInput        = NewError("failed to read input")
)

// Error is a failure class with an optional cause and log attributes. It
// logs as a group via [slog.LogValuer].
//
// Errors derived from a class with [Error.Wrap] or [Error.With] still match
// that class with [errors.Is], whatever their cause.
type Error struct {
	msg   string
	err   error
	attrs []slog.Attr
	root  *Error
}

// NewError returns a new failure class.
func NewError(msg string) *Error { return &Error{msg: msg} }

// WrapError returns err as an *Error, wrapping it only if it is not one
// already.
func WrapError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}

	return &Error{err: err}
}

func (e *Error) Error() string {
	switch {
	case e.err == nil:
		return e.msg
	case e.msg == "":
		return e.err.Error()
	default:
		return e.msg + ": " + e.err.Error()
	}
}

func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is the class e was derived from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)

	return ok && e.class() == t.class()
}

func (e *Error) class() *Error {
	if e.root == nil {
		return e
	}

	return e.root
}

func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.Any("cause", e.err))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap returns a copy of e caused by err.
func (e *Error) Wrap(err error) *Error {
	c := e.derive()
	c.err = err

	return c
}

// With returns a copy of e carrying attrs in addition to its own.
func (e *Error) With(attrs ...slog.Attr) *Error {
	c := e.derive()
	c.attrs = append(slices.Clip(e.attrs), attrs...)

	return c
}

func (e *Error) derive() *Error {
	return &Error{msg: e.msg, err: e.err, attrs: e.attrs, root: e.class()}
}

// SyntaxError reports expression text that could not be compiled.
// Offset is the byte offset into Source where the problem was detected.
type SyntaxError struct {
	Source  string
	Offset  int
	Message string

	kind *Error
}

func newSyntaxError(kind *Error, source string, offset int, msg string) *SyntaxError {
	return &SyntaxError{
		Source:  source,
		Offset:  max(0, min(offset, len(source))),
		Message: msg,
		kind:    kind,
	}
}

// Error implements the error interface. The message includes the line and
// column of the offending token followed by a snippet of the source with a
// caret marking the position.
func (e *SyntaxError) Error() string {
	from := utf8.RuneCountInString(e.Source[:e.Offset])

	fe := &file.Error{
		Location: file.Location{From: from, To: from + 1},
		Message:  e.kind.msg + ": " + e.Message,
	}

	return fe.Bind(file.NewSource(e.Source)).Error()
}

// Unwrap returns the sentinel describing the class of failure, either
// [ErrSyntax] or [ErrBackreachTooDeep].
func (e *SyntaxError) Unwrap() error { return e.kind }

// LogValue implements slog.LogValuer.
func (e *SyntaxError) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("error", e.kind.msg),
		slog.String("reason", e.Message),
		slog.Int("offset", e.Offset),
		slog.String("source", e.Source),
	)
}

// evalError is the panic payload used to unwind a failed evaluation back to
// the Expression boundary.
type evalError struct{ err error }

// fail aborts the current evaluation with err.
func fail(err error) {
	panic(evalError{err: err})
}
