// Package profile wraps [github.com/pkg/profile] so the tmplexpr command can
// profile a single run of the expression engine.
//
// Profiling is compiled in only with the "pprof" build tag:
//
//	go build -tags pprof -o tmplexpr .
//	tmplexpr --pprof-mode=cpu eval 'items.join(",")' -d data.yaml
//
// Without the tag, [Modes] is empty and [Run.Start] is a no-op. Profiles
// are written beneath a subdirectory named for the command, and each file
// is named for its mode (eval/cpu.pprof, check/mem.pprof, ...) to be read
// with go tool pprof.
package profile

// Tag is the build tag required to enable pprof profiling.
const Tag = `pprof`
