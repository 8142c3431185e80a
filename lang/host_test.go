package lang

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestHostFrame(t *testing.T) {
	frame := HostFrame([]string{"HOME=/home/test", "EMPTY=", "BROKEN"})

	env, ok := frame["env"].(map[string]string)
	if !ok {
		t.Fatalf("env = %T", frame["env"])
	}

	if env["HOME"] != "/home/test" || len(env) != 2 {
		t.Errorf("env = %v", env)
	}

	// Each call gets its own copy.
	frame["hostname"] = "changed"
	if HostFrame(nil)["hostname"] == "changed" {
		t.Error("HostFrame returned a shared map")
	}
}

func TestHostFrame_Expressions(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")

	if err := os.WriteFile(file, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	sep := string(os.PathListSeparator)
	root := map[string]any{"dir": dir, "file": file, "sep": sep}

	tests := []struct {
		source string
		want   any
	}{
		{"../file.exists(file)", true},
		{"../file.isDir(dir)", true},
		{"../file.isRegular(file)", true},
		{"../file.isSymlink(file)", false},
		{`../path.cat("a", "b")`, filepath.Join("a", "b")},
		{`../mung.prefixExisting("", dir, dir + "/missing").contains("missing")`, false},
		{`../mung.prefixExisting("", dir).contains(dir)`, true},
		{`../env.HOME`, "/h"},
		{"../platform.os.size() > 0", true},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			ctx := NewContext(HostFrame([]string{"HOME=/h"}))
			ctx.PushScope(root)

			got := MustCompile(tt.source).Evaluate(ctx)
			if errs := ctx.Errors(); len(errs) != 0 {
				t.Fatalf("errors: %v", errs)
			}

			if got != tt.want {
				t.Errorf("%s = %#v, want %#v", tt.source, got, tt.want)
			}
		})
	}
}

func TestHostFrame_MungPrefix(t *testing.T) {
	sep := string(os.PathListSeparator)

	got := mungPrefix("b"+sep+"c", "a")
	if !strings.HasPrefix(got, "a"+sep) || !strings.Contains(got, "c") {
		t.Errorf("mungPrefix = %q, want a prefixed list", got)
	}
}

func TestHostFrameKeys(t *testing.T) {
	frame := HostFrame([]string{"B=1", "A=2"})

	if got := HostFrameKeys(frame, "env"); !slices.Equal(got, []string{"A", "B"}) {
		t.Errorf("env keys = %v", got)
	}

	if got := HostFrameKeys(frame, "path"); strings.Join(got, ",") != "abs,cat,rel" {
		t.Errorf("path keys = %v", got)
	}

	if got := HostFrameKeys(frame, "hostname"); got != nil {
		t.Errorf("hostname keys = %v, want nil", got)
	}

	if got := HostFrameKeys(frame, ""); !slices.Contains(got, "mung") {
		t.Errorf("root keys = %v", got)
	}
}
