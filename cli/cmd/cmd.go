package cmd

import (
	"context"
	"os"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"
)

// contextKey is used to store a [kong.Context] value in [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

type dataFilesKey struct{}

// dataFile names one data source. Path is the resolved file path, or empty
// for stdin.
type dataFile struct {
	Name string
	Path string
}

// IsStdin reports whether f reads standard input.
func (f dataFile) IsStdin() bool { return f.Path == "" }

// fileKey uniquely identifies a file by its device and inode numbers.
// This handles deduplication across symlinks, absolute/relative paths, and
// special device files.
type fileKey struct {
	dev uint64
	ino uint64
}

// stdinSource is the special source indicator for reading from stdin.
const stdinSource = "-"

// WithDataFiles returns a new context.Context holding the data files named
// by sources.
//
// A file named more than once (through symlinks, relative paths, or as the
// device behind stdin) is kept at its first position. All occurrences of "-"
// are replaced with a single stdin source placed last.
func WithDataFiles(ctx context.Context, sources []string) context.Context {
	return context.WithValue(ctx, dataFilesKey{}, buildDataFiles(sources))
}

func dataFilesFrom(ctx context.Context) []dataFile {
	files, _ := ctx.Value(dataFilesKey{}).([]dataFile)

	return files
}

func buildDataFiles(sources []string) []dataFile {
	if len(sources) == 0 {
		return nil
	}

	files := make([]dataFile, 0, len(sources))
	seen := make(map[fileKey]struct{})

	stdinKey, stdinOK := statKey(os.Stdin.Stat())

	hasStdin := false

	for _, src := range sources {
		if src == stdinSource {
			hasStdin = true

			continue
		}

		path, key, ok := resolveFile(src)
		if !ok {
			// Kept so that opening it reports the failure.
			files = append(files, dataFile{Name: src, Path: src})

			continue
		}

		if stdinOK && key == stdinKey {
			hasStdin = true

			continue
		}

		if _, dup := seen[key]; dup {
			continue
		}

		seen[key] = struct{}{}
		files = append(files, dataFile{Name: src, Path: path})
	}

	if hasStdin {
		files = append(files, dataFile{Name: stdinSource})
	}

	return files
}

// resolveFile returns the symlink-free absolute path of path and its
// device/inode key.
func resolveFile(path string) (string, fileKey, bool) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fileKey{}, false
	}

	resolved, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		return "", fileKey{}, false
	}

	key, ok := statKey(os.Stat(resolved))
	if !ok {
		return "", fileKey{}, false
	}

	return resolved, key, true
}

// statKey creates a fileKey from the result of a stat call.
// Returns false if the underlying Sys() data is not of type *syscall.Stat_t.
func statKey(info os.FileInfo, err error) (key fileKey, ok bool) {
	if err != nil {
		return key, false
	}

	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return key, false
	}

	return fileKey{dev: uint64(stat.Dev), ino: stat.Ino}, true
}
