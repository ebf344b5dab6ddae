package loaders

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/boolean-maybe/navitree/navitree"
	"github.com/go-enry/go-enry/v2"
)

// DirTree builds tree nodes from the local file system. Directories become
// container nodes whose children are read on first expansion.
type DirTree struct {
	// ShowHidden includes dot files and directories.
	ShowHidden bool
	// ShowVendored includes paths go-enry classifies as vendored
	// (node_modules, third_party, ...).
	ShowVendored bool
}

// Root creates the top-level node for dir. The node text is the base name of
// the absolute path.
func (t *DirTree) Root(dir string) (*navitree.Node, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to stat root: %w", err)
	}

	name := filepath.Base(abs)
	if !info.IsDir() {
		return navitree.NewNode(name, abs), nil
	}
	return navitree.NewContainerNode(name, abs, t), nil
}

// LoadChildren implements navitree.ChildLoader.
func (t *DirTree) LoadChildren(n *navitree.Node) ([]*navitree.Node, error) {
	entries, err := os.ReadDir(n.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	// directories first, then by name
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].IsDir() != entries[j].IsDir() {
			return entries[i].IsDir()
		}
		return strings.ToLower(entries[i].Name()) < strings.ToLower(entries[j].Name())
	})

	children := make([]*navitree.Node, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if !t.ShowHidden && strings.HasPrefix(name, ".") {
			continue
		}
		if !t.ShowVendored && isVendored(name, e.IsDir()) {
			continue
		}
		path := filepath.Join(n.Source, name)
		if e.IsDir() {
			children = append(children, navitree.NewContainerNode(name, path, t))
		} else {
			children = append(children, navitree.NewNode(name, path))
		}
	}
	return children, nil
}

// isVendored checks a single path element; directory names get a trailing
// slash so go-enry's directory patterns apply.
func isVendored(name string, dir bool) bool {
	if dir {
		name += "/"
	}
	return enry.IsVendor(name)
}
