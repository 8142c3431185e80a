package cli

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/ardnew/tmplexpr/cli/cmd"
	"github.com/ardnew/tmplexpr/pkg"
)

// CLI is the top-level command-line interface for tmplexpr.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Version kong.VersionFlag `help:"Print version and exit" short:"V"`

	Data []string `help:"Data file(s) pushed as scope frames in order, or '-' for stdin (YAML or JSON)" name:"data" placeholder:"FILE" short:"d" type:"existingfile"`

	Init  cmd.Init  `cmd:"" help:"Write the current flag values to the configuration file"`
	Check cmd.Check `cmd:"" help:"Compile expressions and describe them without evaluating"`
	Repl  cmd.Repl  `cmd:"" help:"Evaluate expressions interactively"`

	Eval cmd.Eval `cmd:"" default:"withargs" help:"Evaluate expressions against the data frames"`
}

// Run executes the tmplexpr CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	err := mkdirAllRequired()
	if err != nil {
		return err
	}

	configBase := configPath(baseConfig)

	vars := kong.Vars{
		cmd.ConfigIdentifier: configBase + ".yaml",
		cmd.CacheIdentifier:  cacheDir(),
		"version":            pkg.Version,
	}.
		CloneWith(cmd.Vars()).
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Logging flags take effect before kong reports anything.
	cli.Log.scan(args)

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group()},
		),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				NoExpandSubcommands: true,
			}),
		kong.Configuration(kong.JSON, configBase+".json"),
		kong.Configuration(resolve(baseConfig), configBase+".yaml"),
		vars,
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	ctx = cmd.WithContext(ctx, ktx)
	ctx = cmd.WithDataFiles(ctx, cli.Data)

	defer cli.Log.start(ctx)()

	// No-op unless built with tag pprof and a mode is selected.
	defer cli.Pprof.start(ctx, ktx.Command())()

	return ktx.Run(&cli)
}
