package log

//go:generate go tool stringer --linecomment --type Level,Format --output config_string.go

import (
	"iter"
	"log/slog"
	"slices"
	"strings"
)

// Level is the severity of a log record. It extends [slog.Level] with
// [LevelTrace], used for per-expression compile and evaluate records.
type Level slog.Level

const (
	LevelTrace Level = Level(slog.LevelDebug - 4) // trace
	LevelDebug Level = Level(slog.LevelDebug)     // debug
	LevelInfo  Level = Level(slog.LevelInfo)      // info
	LevelWarn  Level = Level(slog.LevelWarn)      // warn
	LevelError Level = Level(slog.LevelError)     // error
)

// DefaultLevel is the level of a logger configured without [WithLevel].
const DefaultLevel = LevelWarn

var levels = []Level{LevelTrace, LevelDebug, LevelInfo, LevelWarn, LevelError}

// Levels yields the name of each level, least severe first.
func Levels() iter.Seq[string] { return names(levels) }

// ParseLevel parses a level name, ignoring case. Besides "trace", any name
// accepted by [slog.Level.UnmarshalText] is valid, including offsets such as
// "info+2". Anything else yields [DefaultLevel].
func ParseLevel(s string) Level {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, LevelTrace.String()) {
		return LevelTrace
	}

	var l slog.Level
	if l.UnmarshalText([]byte(s)) != nil {
		return DefaultLevel
	}

	return Level(l)
}

// Format selects the slog handler that renders records.
type Format int

const (
	FormatText Format = iota // text
	FormatJSON               // json
)

// DefaultFormat is the format of a logger configured without [WithFormat].
const DefaultFormat = FormatText

var formats = []Format{FormatText, FormatJSON}

// Formats yields the name of each format.
func Formats() iter.Seq[string] { return names(formats) }

// ParseFormat parses a format name, ignoring case. Anything unrecognized
// yields [DefaultFormat].
func ParseFormat(s string) Format {
	s = strings.TrimSpace(s)

	i := slices.IndexFunc(formats, func(f Format) bool {
		return strings.EqualFold(s, f.String())
	})
	if i < 0 {
		return DefaultFormat
	}

	return formats[i]
}

func names[T interface{ String() string }](values []T) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, v := range values {
			if !yield(v.String()) {
				return
			}
		}
	}
}
