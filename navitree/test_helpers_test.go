package navitree

import (
	"errors"
	"strings"
	"time"
)

// fakeClock is a manually advanced clock for coalescing tests.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type testLoc struct {
	value string
}

func (l testLoc) Equal(other testLoc) bool { return l.value == other.value }

func values(locs []testLoc) []string {
	out := make([]string, 0, len(locs))
	for _, l := range locs {
		out = append(out, l.value)
	}
	return out
}

// lineRenderer splits markdown into lines without styling.
type lineRenderer struct {
	calls int
}

func (r *lineRenderer) Render(markdown string, _ int) ([]string, error) {
	r.calls++
	return strings.Split(markdown, "\n"), nil
}

// errorRenderer always fails, used for testing error handling.
type errorRenderer struct {
	err error
}

func (r errorRenderer) Render(markdown string, _ int) ([]string, error) {
	return strings.Split(markdown, "\n"), r.err
}

var errRenderFailed = errors.New("render failed")

// mapProvider serves content by node source.
type mapProvider map[string]string

func (p mapProvider) FetchContent(n *Node) (string, error) {
	content, ok := p[n.Source]
	if !ok {
		return "", errors.New("no content for " + n.Source)
	}
	return content, nil
}

// newTestTree builds:
//
//	docs/
//	  a.md
//	  b.md
//	  guide/
//	    c.md
//	notes/
//	  n.md
func newTestTree() *Tree {
	tree := NewTree()

	docs := NewContainerNode("docs", "/docs", nil)
	docs.AddChild(NewNode("a.md", "/docs/a.md"))
	docs.AddChild(NewNode("b.md", "/docs/b.md"))
	guide := NewContainerNode("guide", "/docs/guide", nil)
	guide.AddChild(NewNode("c.md", "/docs/guide/c.md"))
	docs.AddChild(guide)

	notes := NewContainerNode("notes", "/notes", nil)
	notes.AddChild(NewNode("n.md", "/notes/n.md"))

	tree.AddRoot(docs)
	tree.AddRoot(notes)
	return tree
}

func mustFind(tree *Tree, path ...string) *Node {
	n := tree.FindNodeByPath(NodePath(path), false)
	if n == nil {
		panic("test tree has no node " + strings.Join(path, "/"))
	}
	return n
}

func testContent() mapProvider {
	return mapProvider{
		"/docs/a.md":       "# A\n\nsee [b](b.md)",
		"/docs/b.md":       "# B",
		"/docs/guide/c.md": "# C\n\n[one](x.md)\n[two](y.md)",
		"/notes/n.md":      "# N",
	}
}

// newTestDocument returns a document over newTestTree driven by clock.
func newTestDocument(clock *fakeClock) (*Document, *Tree) {
	tree := newTestTree()
	d := NewDocument(DocumentOptions{
		Tree:     tree,
		Provider: testContent(),
		Renderer: &lineRenderer{},
		Clock:    clock.Now,
	})
	return d, tree
}
