package profile

import (
	"path/filepath"
	"strings"
)

// Run describes the profile of one tmplexpr command.
type Run struct {
	Mode    string // one of Modes(); empty disables profiling
	Dir     string // parent directory of every profile
	Command string // subcommand path, e.g. "eval"
	Quiet   bool   // suppress the profiler's own log output
}

// Stopper ends a profile and flushes it to disk.
type Stopper interface{ Stop() }

// Start starts the profile described by r. The result is a no-op when the
// mode is empty or unknown, or when built without the pprof tag.
func (r Run) Start() Stopper {
	if r.Mode == "" {
		return ignore{}
	}

	return start(r.Mode, r.Path(), r.Quiet)
}

// Path is the directory the profile is written to. Each command profiles
// into its own subdirectory of Dir so that runs of different commands do
// not overwrite each other.
func (r Run) Path() string {
	name, _, _ := strings.Cut(strings.TrimSpace(r.Command), " ")
	if name == "" || r.Dir == "" {
		return r.Dir
	}

	return filepath.Join(r.Dir, name)
}

type ignore struct{}

func (ignore) Stop() {}
