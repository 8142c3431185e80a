// Package log is a small structured logger over [log/slog] shared by the
// expression engine and the command line.
//
// A [Logger] is a value; its zero value discards everything, so packages
// that accept one as an option need no nil checks:
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithFormat(log.FormatJSON),
//		log.WithTimeLayout("RFC3339Nano"),
//		log.WithCaller(true))
//
//	logger = logger.With(slog.String("source", "user.name"))
//	logger.DebugContext(ctx, "compile complete", slog.Int("identifiers", 1))
//
// Attributes are always [slog.Attr] values.
//
// # Levels
//
// [LevelTrace] sits below [LevelDebug] and carries per-evaluation detail:
// accessor resolution, cache hits and recorded diagnostics. The remaining
// levels match slog. [ParseLevel] accepts the level names and slog offsets
// such as "info+2".
//
// # Default logger
//
// The package-level functions ([Info], [DebugContext], ...) write to a
// default logger that [Config] reconfigures in place. The command line
// applies its --log-* flags this way before parsing completes.
//
// # Formats
//
// [FormatText] and [FormatJSON] select the slog handler. With pretty
// output enabled, keys and values are colorized with lipgloss by type;
// nothing is colorized when the output is not a color terminal.
package log
