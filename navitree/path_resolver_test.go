package navitree

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func setupResolverTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, name := range []string{"index.md", "docs/a.md", "docs/my file.md"} {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("# x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestResolveLinkPath(t *testing.T) {
	root := setupResolverTree(t)
	index := filepath.Join(root, "index.md")
	docA := filepath.Join(root, "docs", "a.md")

	tests := []struct {
		name   string
		url    string
		source string
		want   string
	}{
		{name: "sibling", url: "docs/a.md", source: index, want: docA},
		{name: "parent", url: "../index.md", source: docA, want: index},
		{name: "fragment dropped", url: "docs/a.md#section", source: index, want: docA},
		{name: "same document anchor", url: "#top", source: docA, want: docA},
		{name: "escaped space", url: "my%20file.md", source: docA, want: filepath.Join(root, "docs", "my file.md")},
		{name: "source is a directory", url: "a.md", source: filepath.Join(root, "docs"), want: docA},
		{name: "absolute", url: docA, source: index, want: docA},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveLinkPath(tt.url, tt.source, []string{root})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestResolveLinkPath_Errors(t *testing.T) {
	root := setupResolverTree(t)
	docA := filepath.Join(root, "docs", "a.md")

	tests := []struct {
		name    string
		url     string
		roots   []string
		wantErr error
	}{
		{name: "http", url: "http://example.com/a.md", wantErr: ErrExternalLink},
		{name: "https", url: "https://example.com/a.md", wantErr: ErrExternalLink},
		{name: "outside roots", url: "../../../../etc/passwd", roots: []string{root}, wantErr: ErrOutsideRoots},
		{name: "outside narrower root", url: "../index.md", roots: []string{filepath.Join(root, "docs")}, wantErr: ErrOutsideRoots},
		{name: "missing", url: "missing.md", roots: []string{root}, wantErr: ErrFileNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveLinkPath(tt.url, docA, tt.roots)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestResolveLinkPath_NoRoots(t *testing.T) {
	root := setupResolverTree(t)

	got, err := ResolveLinkPath("../index.md", filepath.Join(root, "docs", "a.md"), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != filepath.Join(root, "index.md") {
		t.Errorf("got %s", got)
	}
}
