// Package cmd implements the tmplexpr subcommands: eval, check, repl and
// init.
package cmd

import (
	"strconv"

	"github.com/alecthomas/kong"

	"github.com/ardnew/tmplexpr/lang"
)

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path to
	// the configuration file. It is also the top-level key of that file.
	ConfigIdentifier = "config"
)

// Vars returns the kong variables referenced by the subcommand flags.
func Vars() kong.Vars {
	return kong.Vars{
		"maxBackreach": strconv.Itoa(lang.DefaultMaxBackreach),
		"policyEnum":   "current,root,full",
	}
}
