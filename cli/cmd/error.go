package cmd

import "github.com/ardnew/tmplexpr/lang"

// Error is a command failure class. Errors derived from one with Wrap or
// With match it with [errors.Is], and log their attributes as a group.
type Error = lang.Error

// NewError returns a new command failure class.
func NewError(msg string) *Error { return lang.NewError(msg) }

var (
	ErrJSONMarshal   = NewError("marshal JSON")
	ErrYAMLMarshal   = NewError("marshal YAML")
	ErrWriteConfig   = NewError("write configuration file")
	ErrFileExists    = NewError("file exists (use --force to overwrite)")
	ErrReadData      = NewError("read data file")
	ErrDecodeData    = NewError("decode data file")
	ErrInvalidFlag   = NewError("invalid flag value")
	ErrDefine        = NewError("define named expression")
	ErrCompile       = NewError("compile expression")
	ErrEvaluate      = NewError("evaluate expression")
	ErrCheckFailed   = NewError("expressions failed to compile")
	ErrUnknownOutput = NewError("unknown output format")
)
