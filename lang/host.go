package lang

// This file defines the host frame: a read-only map of system information
// and helper functions that a caller may place beneath its own data on the
// scope stack. The map is built once per process and cloned on every call.

import (
	"bufio"
	"maps"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/ardnew/mung"
)

var (
	hostOnce  sync.Once
	hostCache map[string]any
)

// HostFrame returns a frame describing the host system. Process
// environment variables are read from environ, or os.Environ when environ
// is nil, and exposed under "env".
//
//	target.os, target.arch     GNU/LLVM naming, e.g. "x86_64"
//	platform.os, platform.arch Go naming, e.g. "amd64"
//	hostname, user, shell, cwd()
//	file.exists(p), file.isDir(p), file.isRegular(p), file.isSymlink(p)
//	path.abs(p), path.cat(p...), path.rel(from, to)
//	mung.prefix(list, p...), mung.prefixExisting(list, p...)
func HostFrame(environ []string) map[string]any {
	hostOnce.Do(func() {
		hostCache = map[string]any{
			"target":   hostTarget(),
			"platform": hostPlatform(),
			"hostname": hostName(),
			"user":     hostUser(),
			"shell":    hostShell(),
			"cwd":      hostCwd,
			"file": map[string]any{
				"exists":    fileExists,
				"isDir":     fileIsDir,
				"isRegular": fileIsRegular,
				"isSymlink": fileIsSymlink,
			},
			"path": map[string]any{
				"abs": pathAbs,
				"cat": pathCat,
				"rel": pathRel,
			},
			"mung": map[string]any{
				"prefix":         mungPrefix,
				"prefixExisting": mungPrefixExisting,
			},
		}
	})

	frame := maps.Clone(hostCache)
	frame["env"] = environMap(environ)

	return frame
}

// HostFrameKeys returns the keys of the map found at the dot-separated path
// within frame, or nil if the path does not name a map.
func HostFrameKeys(frame map[string]any, path string) []string {
	var current any = frame

	if path != "" {
		for seg := range strings.SplitSeq(path, ".") {
			m, ok := current.(map[string]any)
			if !ok {
				return nil
			}

			if current, ok = m[seg]; !ok {
				return nil
			}
		}
	}

	switch m := current.(type) {
	case map[string]any:
		return slices.Sorted(maps.Keys(m))
	case map[string]string:
		return slices.Sorted(maps.Keys(m))
	}

	return nil
}

// hostTarget returns the host target using GNU GCC/LLVM naming conventions.
func hostTarget() map[string]any {
	p := hostPlatform()
	goos, arch := p["os"].(string), p["arch"].(string)

	switch arch {
	case "386":
		arch = "i386"
	case "amd64":
		arch = "x86_64"
	case "arm":
		if arm, ok := os.LookupEnv("GOARM"); ok {
			arm, _, _ = strings.Cut(arm, ",")
			switch strings.TrimSpace(arm) {
			case "5", "6", "7":
				arch = "armv" + arm
			}
		}
	case "arm64":
		if goos != "darwin" {
			arch = "aarch64"
		}
	case "mipsle":
		arch = "mipsel"
	}

	return map[string]any{"os": goos, "arch": arch}
}

// hostPlatform returns the host target using Go conventions.
func hostPlatform() map[string]any {
	o, ok := os.LookupEnv("GOHOSTOS")
	if !ok {
		if o, ok = os.LookupEnv("GOOS"); !ok {
			o = runtime.GOOS
		}
	}

	a, ok := os.LookupEnv("GOHOSTARCH")
	if !ok {
		if a, ok = os.LookupEnv("GOARCH"); !ok {
			a = runtime.GOARCH
		}
	}

	return map[string]any{"os": o, "arch": a}
}

func hostName() string {
	hostname, err := os.Hostname()
	if err != nil {
		return ""
	}

	return hostname
}

func hostUser() map[string]any {
	u, err := user.Current()
	if err != nil {
		return nil
	}

	return map[string]any{
		"name":     u.Username,
		"fullName": u.Name,
		"uid":      u.Uid,
		"gid":      u.Gid,
		"home":     u.HomeDir,
	}
}

func hostShell() string {
	if shell, ok := os.LookupEnv("SHELL"); ok {
		return shell
	}

	u, err := user.Current()
	if err != nil || u.Username == "" {
		return ""
	}

	f, err := os.Open("/etc/passwd")
	if err != nil {
		return ""
	}

	defer f.Close()

	s := bufio.NewScanner(f)
	for s.Scan() {
		e := strings.Split(s.Text(), ":")
		if len(e) > 6 && e[0] == u.Username {
			return e[6]
		}
	}

	return ""
}

func hostCwd() string {
	cwd, err := os.Getwd()
	if err != nil {
		return pathAbs(".")
	}

	return cwd
}

func fileExists(path string) bool {
	_, err := os.Stat(path)

	return !os.IsNotExist(err)
}

func fileIsDir(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.IsDir()
}

func fileIsRegular(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.Mode().IsRegular()
}

func fileIsSymlink(path string) bool {
	info, err := os.Lstat(path)

	return err == nil && info.Mode()&os.ModeSymlink != 0
}

func pathAbs(path string) string {
	p, err := filepath.Abs(path)
	if err != nil {
		return path
	}

	return p
}

func pathCat(elem ...string) string {
	return filepath.Join(elem...)
}

func pathRel(from, to string) string {
	p, err := filepath.Rel(pathAbs(from), pathAbs(to))
	if err != nil {
		return pathCat(from, to)
	}

	return p
}

// mungPrefix prepends each of prefix to the path list, removing duplicates.
func mungPrefix(list string, prefix ...string) string {
	return mung.Make(
		mung.WithSubjectItems(list),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(prefix...),
	).String()
}

// mungPrefixExisting is like mungPrefix but keeps only existing paths.
func mungPrefixExisting(list string, prefix ...string) string {
	return mung.Make(
		mung.WithSubjectItems(list),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(prefix...),
		mung.WithFilter(fileExists),
	).String()
}

// environMap converts "KEY=VALUE" entries to a map. If environ is nil,
// os.Environ is used.
func environMap(environ []string) map[string]string {
	if environ == nil {
		environ = os.Environ()
	}

	out := make(map[string]string, len(environ))

	for _, entry := range environ {
		if key, value, ok := strings.Cut(entry, "="); ok {
			out[key] = value
		}
	}

	return out
}
