//go:build pprof

package profile

import (
	"slices"

	"github.com/pkg/profile"
)

type mode struct {
	name string
	opt  func(*profile.Profile)
}

var modes = []mode{
	{"allocs", profile.MemProfileAllocs},
	{"block", profile.BlockProfile},
	{"clock", profile.ClockProfile},
	{"cpu", profile.CPUProfile},
	{"goroutine", profile.GoroutineProfile},
	{"heap", profile.MemProfileHeap},
	{"mem", profile.MemProfile},
	{"mutex", profile.MutexProfile},
	{"thread", profile.ThreadcreationProfile},
	{"trace", profile.TraceProfile},
}

// Modes returns the names of the supported profiles, sorted.
func Modes() []string {
	names := make([]string, len(modes))
	for i, m := range modes {
		names[i] = m.name
	}

	return names
}

func start(name, path string, quiet bool) Stopper {
	i := slices.IndexFunc(modes, func(m mode) bool { return m.name == name })
	if i < 0 {
		return ignore{}
	}

	opts := []func(*profile.Profile){modes[i].opt, profile.NoShutdownHook}

	if path != "" {
		opts = append(opts, profile.ProfilePath(path))
	}

	if quiet {
		opts = append(opts, profile.Quiet)
	}

	return profile.Start(opts...)
}
