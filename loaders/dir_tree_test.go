package loaders

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/boolean-maybe/navitree/navitree"
)

func writeFiles(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, name := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func childTexts(n *navitree.Node) []string {
	var out []string
	for _, c := range n.Children() {
		out = append(out, c.Text)
	}
	return out
}

func TestDirTree_Root(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "README.md")

	loader := &DirTree{}
	root, err := loader.Root(dir)
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	if !root.Container || root.Text != filepath.Base(dir) || root.Source != dir {
		t.Errorf("Root = %+v", root)
	}
	if root.Loaded() {
		t.Error("children should load lazily")
	}

	file, err := loader.Root(filepath.Join(dir, "README.md"))
	if err != nil {
		t.Fatal(err)
	}
	if file.Container {
		t.Error("a file root should be a leaf")
	}

	if _, err := loader.Root(filepath.Join(dir, "missing")); err == nil {
		t.Error("missing root should fail")
	}
}

func TestDirTree_LoadChildren(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir,
		"b.md", "A.md", "zeta/z.md", "alpha/a.md",
		".hidden", ".notes/n.md",
		"node_modules/pkg/index.js",
	)

	tests := []struct {
		name   string
		loader *DirTree
		want   []string
	}{
		{name: "defaults", loader: &DirTree{}, want: []string{"alpha", "zeta", "A.md", "b.md"}},
		{name: "everything", loader: &DirTree{ShowHidden: true, ShowVendored: true}, want: []string{".notes", "alpha", "node_modules", "zeta", ".hidden", "A.md", "b.md"}},
		{name: "vendored", loader: &DirTree{ShowVendored: true}, want: []string{"alpha", "node_modules", "zeta", "A.md", "b.md"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, err := tt.loader.Root(dir)
			if err != nil {
				t.Fatal(err)
			}
			if got := childTexts(root); !slices.Equal(got, tt.want) {
				t.Errorf("children = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDirTree_NestedPaths(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "docs/guide/intro.md")

	root, err := (&DirTree{}).Root(dir)
	if err != nil {
		t.Fatal(err)
	}
	tree := navitree.NewTree()
	tree.AddRoot(root)

	want := filepath.Join(dir, "docs", "guide", "intro.md")
	n := tree.FindNodeBySource(want)
	if n == nil {
		t.Fatal("FindNodeBySource should load directories on the way")
	}
	if n.Source != want || n.Container {
		t.Errorf("node = %+v", n)
	}
	if got := tree.PathForNode(n); !got.Equal(navitree.NodePath{filepath.Base(dir), "docs", "guide", "intro.md"}) {
		t.Errorf("PathForNode = %v", got)
	}
}
