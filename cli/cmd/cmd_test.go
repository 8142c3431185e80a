package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	return path
}

func TestBuildDataFiles(t *testing.T) {
	dir := t.TempDir()

	a := writeFile(t, dir, "a.yaml", "a: 1\n")
	b := writeFile(t, dir, "b.json", `{"b": 2}`)

	link := filepath.Join(dir, "link.yaml")
	if err := os.Symlink(a, link); err != nil {
		t.Fatal(err)
	}

	missing := filepath.Join(dir, "missing.yaml")

	resolvedA, err := filepath.EvalSymlinks(a)
	if err != nil {
		t.Fatal(err)
	}

	resolvedB, err := filepath.EvalSymlinks(b)
	if err != nil {
		t.Fatal(err)
	}

	got := buildDataFiles([]string{"-", a, b, link, missing, a, "-"})

	want := []dataFile{
		{Name: a, Path: resolvedA},
		{Name: b, Path: resolvedB},
		{Name: missing, Path: missing},
		{Name: stdinSource},
	}

	if len(got) != len(want) {
		t.Fatalf("buildDataFiles() = %+v, want %+v", got, want)
	}

	for i := range want {
		if got[i] != want[i] {
			t.Errorf("buildDataFiles()[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}

	if !got[len(got)-1].IsStdin() {
		t.Error("stdin is not the last data file")
	}
}

func TestBuildDataFiles_Empty(t *testing.T) {
	if got := buildDataFiles(nil); got != nil {
		t.Errorf("buildDataFiles(nil) = %+v, want nil", got)
	}
}

func TestWithDataFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.yaml", "a: 1\n")

	ctx := WithDataFiles(context.Background(), []string{a})

	files := dataFilesFrom(ctx)
	if len(files) != 1 || files[0].Name != a {
		t.Errorf("dataFilesFrom() = %+v, want one file named %q", files, a)
	}

	if got := dataFilesFrom(context.Background()); got != nil {
		t.Errorf("dataFilesFrom(empty) = %+v, want nil", got)
	}
}

func TestKongContextFrom_Missing(t *testing.T) {
	if ktx := kongContextFrom(context.Background()); ktx != nil {
		t.Errorf("kongContextFrom(empty) = %v, want nil", ktx)
	}
}
