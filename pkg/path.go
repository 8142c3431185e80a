package pkg

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

// Prefix returns the base name used for the configuration and cache
// directories.
//
// It is the base name of the executable without extension, except:
//   - "__debug_bin<N>" (the dlv default output) becomes [Name]
//   - leading dots are removed
var Prefix = sync.OnceValue(
	func() string {
		exe, err := os.Executable()
		if err != nil {
			exe = os.Args[0]
		}

		return executablePrefix(exe)
	},
)

var prefixRules = []struct {
	rex *regexp.Regexp
	rep string
}{
	{regexp.MustCompile(`^__debug_bin\d*$`), Name},
	{regexp.MustCompile(`^\.+`), ""},
}

func executablePrefix(path string) string {
	base := filepath.Base(path)
	id := strings.TrimSuffix(base, filepath.Ext(base))

	for _, rule := range prefixRules {
		id = rule.rex.ReplaceAllString(id, rule.rep)
	}

	if id == "" {
		return Name
	}

	return id
}
