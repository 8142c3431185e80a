package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/tmplexpr/log"
	"github.com/ardnew/tmplexpr/profile"
)

// Init writes the current values of the global flags to the configuration
// file, under the "config" key read back on every run.
type Init struct {
	Force bool `help:"Overwrite existing configuration file" short:"f"`
}

// Run executes the init command.
func (i *Init) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	ktx := kongContextFrom(ctx)

	confPath, ok := ktx.Model.Vars()[ConfigIdentifier]
	if !ok {
		panic("internal error: configuration path undefined")
	}

	_, err = os.Stat(confPath)
	if err == nil && !i.Force {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			Wrap(ErrFileExists)
	}

	data, err := yaml.MarshalWithOptions(
		map[string]any{ConfigIdentifier: i.buildConfig(ctx)},
		yaml.Indent(len(outputIndent)),
	)
	if err != nil {
		return ErrYAMLMarshal.Wrap(err)
	}

	if err := os.WriteFile(confPath, data, 0o600); err != nil {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			Wrap(err)
	}

	log.DebugContext(ctx, "initialized configuration file",
		slog.String("path", confPath),
	)

	return nil
}

// buildConfig maps each global flag to its current value, skipping help,
// version, profiling and unset flags.
func (i *Init) buildConfig(ctx context.Context) map[string]any {
	ktx := kongContextFrom(ctx)

	prefixIgnore := []string{"help", "version", profile.Tag}

	conf := make(map[string]any)

	for _, flag := range ktx.Model.Flags {
		if flag.Hidden || slices.ContainsFunc(prefixIgnore, func(s string) bool {
			return strings.HasPrefix(flag.Name, s)
		}) {
			continue
		}

		if val := flagValue(ktx, flag); val != nil {
			conf[flag.Name] = val
		}
	}

	return conf
}

// flagValue returns the configuration value of flag, or nil if unset.
func flagValue(ktx *kong.Context, flag *kong.Flag) any {
	switch v := ktx.FlagValue(flag).(type) {
	case nil:
		return nil

	case bool, int, int64, uint, uint64, float64:
		return v

	case string:
		if v == "" {
			return nil
		}

		return v

	case []string:
		if len(v) == 0 {
			return nil
		}

		return v

	case fmt.Stringer:
		return v.String()

	default:
		if s := fmt.Sprint(v); s != "" {
			return s
		}

		return nil
	}
}
