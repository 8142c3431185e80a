package cli

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/ardnew/tmplexpr/pkg"
)

// baseConfig is the base name of the configuration file and the top-level
// key holding flag defaults within it.
const baseConfig = "config"

var defaultDirMode os.FileMode = 0o700

// userDir returns the directory chosen by locate, falling back to fallback
// beneath the home directory and then to the working directory.
func userDir(locate func() (string, error), fallback string) string {
	dir, err := locate()
	if err != nil {
		dir, err = os.UserHomeDir()
		if err == nil {
			dir = filepath.Join(dir, fallback)
		} else if dir, err = os.Getwd(); err != nil {
			dir = "."
		}
	}

	return filepath.Join(dir, pkg.Prefix())
}

// configDir returns the configuration directory path.
var configDir = sync.OnceValue(func() string {
	return userDir(os.UserConfigDir, ".config")
})

// cacheDir returns the directory for transient files such as REPL history
// and profiles.
var cacheDir = sync.OnceValue(func() string {
	return userDir(os.UserCacheDir, ".cache")
})

// configPath joins elem onto the configuration directory.
func configPath(elem ...string) string {
	return filepath.Join(append([]string{configDir()}, elem...)...)
}

// mkdirAllRequired creates the configuration and cache directories.
func mkdirAllRequired() error {
	for _, dir := range []string{configDir(), cacheDir()} {
		if err := os.MkdirAll(dir, defaultDirMode); err != nil {
			return err
		}
	}

	return nil
}
