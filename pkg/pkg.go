// Package pkg holds the identity of the tmplexpr module: its name, version
// and authors.
package pkg

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var version string

// Version is the semantic version of the module embedded at build time.
var Version = strings.TrimSpace(version)

const (
	// Name is the canonical command and module identifier. It appears in help
	// text and in the default configuration and cache paths.
	Name = "tmplexpr"
	// Description is a short summary used in help output.
	Description = "Compile and evaluate template expressions against structured data"
)

// AuthorInfo represents an individual author's name and email address.
type AuthorInfo struct {
	Name  string
	Email string
}

// Author lists the primary author(s) of the project.
var Author = []AuthorInfo{
	{"ardnew", "andrew@ardnew.com"},
}
