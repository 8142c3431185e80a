// Package cli contains the command line interface for tmplexpr.
//
// # Usage
//
//	tmplexpr [flags] [eval] EXPR...
//	tmplexpr check EXPR...
//	tmplexpr repl
//	tmplexpr init [--force]
//
// Data files given with -d are decoded (YAML, or JSON by extension) and
// pushed as scope frames in order, beneath a frame of --var bindings and
// above the host frame (file, path, env, mung, platform, ...). An identifier
// is searched for from the innermost frame outward under the --policy.
//
//	tmplexpr -d users.yaml 'users[0].name.toUpperCase()'
//	tmplexpr --var who=world '"hello, " + who'
//	tmplexpr --define 'sq=. * .' 'sq(12)'
//
// # Configuration
//
// Flag defaults are read from the "config" mapping of config.yaml in the
// user configuration directory, which "tmplexpr init" writes from the
// current flag values.
//
// # Logging Options
//
//   - --log-level: minimum level (trace, debug, info, warn, error)
//   - --log-format: output format (text, json)
//   - --log-time-layout: timestamp layout
//   - --log-caller: include caller information
//   - --log-pretty: colorized output on terminals
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o tmplexpr .
//
//   - --pprof-mode: profile kind (allocs, block, clock, cpu, goroutine, heap,
//     mem, mutex, thread, trace)
//   - --pprof-dir: output directory (default: the user cache directory)
package cli
