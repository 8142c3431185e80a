package pkg

import (
	"os"
	"slices"
	"strings"
	"testing"
)

func TestVersion(t *testing.T) {
	buf, err := os.ReadFile("VERSION")
	if err != nil {
		t.Fatalf("read VERSION: %v", err)
	}

	if want := strings.TrimSpace(string(buf)); Version != want {
		t.Errorf("Version = %q, want %q", Version, want)
	}

	if strings.ContainsAny(Version, " \n") {
		t.Errorf("Version %q contains whitespace", Version)
	}
}

func TestAuthor(t *testing.T) {
	if !slices.ContainsFunc(Author, func(a AuthorInfo) bool {
		return a.Name == "ardnew" && strings.Contains(a.Email, "@")
	}) {
		t.Errorf("Author = %v, want an entry for ardnew", Author)
	}
}

func TestExecutablePrefix(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/usr/local/bin/tmplexpr", "tmplexpr"},
		{"/tmp/__debug_bin1234", Name},
		{"/home/u/.tmplexpr", "tmplexpr"},
		{"/opt/...", Name},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := executablePrefix(tt.path); got != tt.want {
				t.Errorf("executablePrefix(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}
