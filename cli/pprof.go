//go:build pprof

package cli

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/tmplexpr/log"
	"github.com/ardnew/tmplexpr/profile"
)

type pprofConfig struct {
	Mode string `default:""            enum:",${pprofModeEnum}" help:"Profile the command" placeholder:"${enum}" short:"p"`
	Dir  string `default:"${pprofDir}" help:"Directory for profiles, one subdirectory per command" type:"path"`
}

func (pprofConfig) vars() kong.Vars {
	return kong.Vars{
		"pprofModeEnum": strings.Join(profile.Modes(), ","),
		"pprofDir":      filepath.Join(cacheDir(), profile.Tag),
	}
}

func (pprofConfig) group() kong.Group {
	return kong.Group{Key: "pprof", Title: "Profiling (pprof)"}
}

// start profiles command if a mode was selected. The returned func stops
// the profile and writes it.
func (f pprofConfig) start(ctx context.Context, command string) func() {
	run := profile.Run{Mode: f.Mode, Dir: f.Dir, Command: command, Quiet: true}
	if run.Mode == "" {
		return func() {}
	}

	attrs := []slog.Attr{
		slog.String("mode", run.Mode),
		slog.String("command", command),
		slog.String("path", run.Path()),
	}

	log.DebugContext(ctx, "profile start", attrs...)

	p := run.Start()

	return func() {
		p.Stop()
		log.DebugContext(ctx, "profile written", attrs...)
	}
}
