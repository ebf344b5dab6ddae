package navitree

import (
	"log"
	"path/filepath"
	"slices"
	"strings"
)

// ChildLoader lazily produces the children of a node.
type ChildLoader interface {
	LoadChildren(n *Node) ([]*Node, error)
}

// ChildLoaderFunc adapts a function to ChildLoader.
type ChildLoaderFunc func(n *Node) ([]*Node, error)

// LoadChildren calls f.
func (f ChildLoaderFunc) LoadChildren(n *Node) ([]*Node, error) { return f(n) }

// Node is an entry of the browsed tree.
type Node struct {
	// Text is the label shown in the tree and the segment used in NodePath.
	Text string
	// Source is where the node content comes from (file path or URL).
	Source string
	// Container marks nodes that may have children.
	Container bool

	parent   *Node
	children []*Node
	loaded   bool
	loader   ChildLoader
}

// NewNode creates a leaf node.
func NewNode(text, source string) *Node {
	return &Node{Text: text, Source: source, loaded: true}
}

// NewContainerNode creates a node whose children are produced on first access
// by loader. A nil loader gives a container with no children.
func NewContainerNode(text, source string, loader ChildLoader) *Node {
	return &Node{Text: text, Source: source, Container: true, loader: loader, loaded: loader == nil}
}

// Parent returns the parent node, nil for the tree root.
func (n *Node) Parent() *Node { return n.parent }

// Loaded reports whether the children have been produced.
func (n *Node) Loaded() bool { return n.loaded }

// Children returns the children, loading them first if needed. Load failures
// are logged and give no children; a later call retries.
func (n *Node) Children() []*Node {
	if err := n.EnsureChildren(); err != nil {
		log.Printf("Tree: failed to load children of %q: %v", n.Text, err)
	}
	return n.children
}

// EnsureChildren runs the child loader once.
func (n *Node) EnsureChildren() error {
	if n.loaded {
		return nil
	}
	children, err := n.loader.LoadChildren(n)
	if err != nil {
		return err
	}
	for _, c := range children {
		c.parent = n
	}
	n.children = children
	n.loaded = true
	return nil
}

// AddChild appends c to n.
func (n *Node) AddChild(c *Node) {
	c.parent = n
	n.children = append(n.children, c)
}

// RemoveChild detaches c from n and reports whether it was a child.
func (n *Node) RemoveChild(c *Node) bool {
	i := slices.Index(n.children, c)
	if i < 0 {
		return false
	}
	n.children = slices.Delete(n.children, i, i+1)
	c.parent = nil
	return true
}

// Child returns the first child with the given text.
func (n *Node) Child(text string) *Node {
	for _, c := range n.Children() {
		if c.Text == text {
			return c
		}
	}
	return nil
}

// Tree is the browsed hierarchy. Its root is invisible; top-level entries are
// the root's children.
type Tree struct {
	root *Node
}

// NewTree creates an empty tree.
func NewTree() *Tree {
	return &Tree{root: &Node{Container: true, loaded: true}}
}

// Root returns the invisible root node.
func (t *Tree) Root() *Node { return t.root }

// AddRoot adds a top-level node.
func (t *Tree) AddRoot(n *Node) { t.root.AddChild(n) }

// Remove detaches n and its subtree from the tree.
func (t *Tree) Remove(n *Node) bool {
	if n == nil || n.parent == nil {
		return false
	}
	return n.parent.RemoveChild(n)
}

// FindNodeByPath walks the tree along path, loading children as needed.
// When the full path does not exist, it returns nil, or the deepest node
// found along the way if bestMatch is set.
func (t *Tree) FindNodeByPath(path NodePath, bestMatch bool) *Node {
	if path == nil {
		return nil
	}
	node := t.root
	best := node
	for _, segment := range path {
		next := node.Child(segment)
		if next == nil {
			if bestMatch {
				return best
			}
			return nil
		}
		node = next
		best = node
	}
	return node
}

// PathForNode returns the texts of n and its ancestors below the root.
// It returns nil for nil and for the root itself.
func (t *Tree) PathForNode(n *Node) NodePath {
	if n == nil {
		return nil
	}
	var path NodePath
	for node := n; node != nil && node != t.root; node = node.parent {
		path = append(path, node.Text)
	}
	slices.Reverse(path)
	return path
}

// SourceRoots returns the local file system sources of the top-level nodes.
func (t *Tree) SourceRoots() []string {
	var roots []string
	for _, top := range t.root.children {
		if top.Source != "" && !isHTTPURL(top.Source) {
			roots = append(roots, top.Source)
		}
	}
	return roots
}

// FindNodeBySource locates the node for a file system path below one of the
// top-level nodes. Node texts are expected to match file names.
func (t *Tree) FindNodeBySource(source string) *Node {
	for _, top := range t.root.Children() {
		if top.Source == "" || isHTTPURL(top.Source) {
			continue
		}
		rel, ok := relativeTo(source, top.Source)
		if !ok {
			continue
		}
		if rel == "." {
			return top
		}
		path := append(NodePath{top.Text}, strings.Split(filepath.ToSlash(rel), "/")...)
		if n := t.FindNodeByPath(path, false); n != nil {
			return n
		}
	}
	return nil
}

// Resolve maps every path to a node and drops the ones that no longer exist.
func (t *Tree) Resolve(paths []NodePath) []*Node {
	nodes := make([]*Node, 0, len(paths))
	for _, p := range paths {
		if n := t.FindNodeByPath(p, false); n != nil && n != t.root {
			nodes = append(nodes, n)
		}
	}
	return nodes
}
