package navitree

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

func TestDocument_NewDocument(t *testing.T) {
	d := NewDocument(DocumentOptions{})

	if d.Title() != "(none)" {
		t.Errorf("Title = %q, want (none)", d.Title())
	}
	if d.CanGoBack() || d.CanGoForward() {
		t.Error("new document should have no history")
	}
	if d.SelectedLink() != nil {
		t.Error("new document should have no selected link")
	}
}

func TestDocument_ShowRecordsHistory(t *testing.T) {
	clock := newFakeClock()
	d, tree := newTestDocument(clock)

	if err := d.Show([]*Node{mustFind(tree, "docs", "a.md")}, true); err != nil {
		t.Fatalf("Show: %v", err)
	}
	if d.Title() != "a.md" {
		t.Errorf("Title = %q, want a.md", d.Title())
	}
	if got := strings.Join(d.Lines(), "\n"); got != "# A\n\nsee [b](b.md)" {
		t.Errorf("Lines = %q", got)
	}
	if d.CanGoBack() {
		t.Error("first page should not create a back entry")
	}

	clock.Advance(time.Second)
	if err := d.Show([]*Node{mustFind(tree, "docs", "b.md")}, true); err != nil {
		t.Fatalf("Show: %v", err)
	}
	if !d.CanGoBack() {
		t.Fatal("second page should create a back entry")
	}

	ok, err := d.NavigateHistory(false)
	if err != nil || !ok {
		t.Fatalf("NavigateHistory(back) = %v, %v", ok, err)
	}
	if d.Title() != "a.md" {
		t.Errorf("after back Title = %q, want a.md", d.Title())
	}
	if !d.CanGoForward() {
		t.Error("after back there should be a forward entry")
	}

	ok, err = d.NavigateHistory(true)
	if err != nil || !ok {
		t.Fatalf("NavigateHistory(forward) = %v, %v", ok, err)
	}
	if d.Title() != "b.md" {
		t.Errorf("after forward Title = %q, want b.md", d.Title())
	}
}

func TestDocument_ShowWithoutHistory(t *testing.T) {
	clock := newFakeClock()
	d, tree := newTestDocument(clock)

	_ = d.Show([]*Node{mustFind(tree, "docs", "a.md")}, true)
	clock.Advance(time.Second)
	_ = d.Show([]*Node{mustFind(tree, "docs", "b.md")}, false)

	if d.CanGoBack() {
		t.Error("Show without addToHistory should not record")
	}
}

func TestDocument_QuickNavigationsCoalesce(t *testing.T) {
	clock := newFakeClock()
	d, tree := newTestDocument(clock)

	_ = d.Show([]*Node{mustFind(tree, "docs", "a.md")}, true)
	clock.Advance(time.Second)
	_ = d.Show([]*Node{mustFind(tree, "docs", "b.md")}, true)
	clock.Advance(50 * time.Millisecond)
	_ = d.Show([]*Node{mustFind(tree, "notes", "n.md")}, true)

	back := d.History().BackEntries()
	if len(back) != 1 || !back[0].Equal(Location{Nodes: []NodePath{{"docs", "a.md"}}}) {
		t.Errorf("back = %v, want only a.md", back)
	}
	cur, _ := d.History().Current()
	if !cur.Equal(Location{Nodes: []NodePath{{"notes", "n.md"}}}) {
		t.Errorf("current = %v, want n.md", cur)
	}
}

func TestDocument_BackRestoresViewState(t *testing.T) {
	clock := newFakeClock()
	d, tree := newTestDocument(clock)

	_ = d.Show([]*Node{mustFind(tree, "docs", "a.md")}, true)
	d.ScrollTo(2)
	if !d.MoveToNextLink() {
		t.Fatal("a.md has a link")
	}

	clock.Advance(time.Second)
	_ = d.Show([]*Node{mustFind(tree, "docs", "b.md")}, true)
	if d.ScrollOffset() != 0 || d.SelectedLink() != nil {
		t.Error("a new page should start at the top without a selected link")
	}

	if _, err := d.NavigateHistory(false); err != nil {
		t.Fatal(err)
	}
	if d.ScrollOffset() != 2 {
		t.Errorf("ScrollOffset = %d, want 2", d.ScrollOffset())
	}
	if link := d.SelectedLink(); link == nil || link.URL != "b.md" {
		t.Errorf("SelectedLink = %v, want b.md", link)
	}
}

func TestDocument_NavigateSkipsVanishedNodes(t *testing.T) {
	clock := newFakeClock()
	d, tree := newTestDocument(clock)

	for _, path := range [][]string{{"docs", "a.md"}, {"notes", "n.md"}, {"docs", "b.md"}} {
		clock.Advance(time.Second)
		_ = d.Show([]*Node{mustFind(tree, path...)}, true)
	}
	tree.Remove(mustFind(tree, "notes"))

	ok, err := d.NavigateHistory(false)
	if err != nil || !ok {
		t.Fatalf("NavigateHistory = %v, %v", ok, err)
	}
	if d.Title() != "a.md" {
		t.Errorf("Title = %q, want a.md (n.md is gone)", d.Title())
	}
	if d.CanGoBack() {
		t.Error("stale entry should have been dropped")
	}
}

func TestDocument_NavigateWithOnlyStaleEntries(t *testing.T) {
	clock := newFakeClock()
	d, tree := newTestDocument(clock)

	_ = d.Show([]*Node{mustFind(tree, "notes", "n.md")}, true)
	clock.Advance(time.Second)
	_ = d.Show([]*Node{mustFind(tree, "docs", "a.md")}, true)
	tree.Remove(mustFind(tree, "notes"))

	ok, err := d.NavigateHistory(false)
	if err != nil || ok {
		t.Errorf("NavigateHistory = %v, %v; want false, nil", ok, err)
	}
	if d.Title() != "a.md" {
		t.Errorf("Title = %q, want a.md", d.Title())
	}
}

func TestDocument_MultipleNodes(t *testing.T) {
	d, tree := newTestDocument(newFakeClock())

	nodes := []*Node{mustFind(tree, "docs", "a.md"), mustFind(tree, "docs", "b.md"), mustFind(tree, "notes", "n.md")}
	if err := d.Show(nodes, true); err != nil {
		t.Fatal(err)
	}

	if d.Title() != "a.md (+2 more)" {
		t.Errorf("Title = %q", d.Title())
	}
	if got := len(d.SelectedNodes()); got != 3 {
		t.Errorf("SelectedNodes = %d, want 3", got)
	}
	if !slices.Contains(d.Lines(), "---") {
		t.Error("pages should be separated by a rule")
	}
}

func TestDocument_FetchErrorShowsErrorSection(t *testing.T) {
	d, tree := newTestDocument(newFakeClock())

	// no content registered for the guide directory
	if err := d.Show([]*Node{mustFind(tree, "docs", "guide")}, true); err != nil {
		t.Fatalf("fetch errors should not fail Show: %v", err)
	}
	if len(d.Lines()) == 0 || d.Lines()[0] != "# Error" {
		t.Errorf("Lines = %v, want an error section", d.Lines())
	}
}

func TestDocument_RenderError(t *testing.T) {
	tree := newTestTree()
	d := NewDocument(DocumentOptions{Tree: tree, Provider: testContent(), Renderer: errorRenderer{err: errRenderFailed}})

	err := d.Show([]*Node{mustFind(tree, "docs", "b.md")}, true)
	if !errors.Is(err, errRenderFailed) {
		t.Errorf("Show error = %v, want errRenderFailed", err)
	}
	if len(d.Lines()) == 0 {
		t.Error("raw lines should still be shown on render failure")
	}
}

func TestDocument_LinkCycling(t *testing.T) {
	d, tree := newTestDocument(newFakeClock())
	_ = d.Show([]*Node{mustFind(tree, "docs", "guide", "c.md")}, true)

	want := []string{"x.md", "y.md", "x.md"}
	for i, url := range want {
		if !d.MoveToNextLink() {
			t.Fatal("MoveToNextLink = false")
		}
		if got := d.SelectedLink().URL; got != url {
			t.Errorf("step %d: link = %q, want %q", i, got, url)
		}
	}

	d.MoveToPreviousLink()
	if got := d.SelectedLink().URL; got != "y.md" {
		t.Errorf("previous wrap: link = %q, want y.md", got)
	}

	_ = d.Show([]*Node{mustFind(tree, "docs", "b.md")}, true)
	if d.MoveToNextLink() {
		t.Error("page without links should not select one")
	}
}

func TestDocument_ScrollIsClamped(t *testing.T) {
	d, tree := newTestDocument(newFakeClock())
	_ = d.Show([]*Node{mustFind(tree, "docs", "a.md")}, true)

	d.ScrollTo(100)
	if d.ScrollOffset() != len(d.Lines())-1 {
		t.Errorf("ScrollOffset = %d, want %d", d.ScrollOffset(), len(d.Lines())-1)
	}
	d.ScrollTo(-5)
	if d.ScrollOffset() != 0 {
		t.Errorf("ScrollOffset = %d, want 0", d.ScrollOffset())
	}
}

func TestDocument_SetWidthRerenders(t *testing.T) {
	tree := newTestTree()
	r := &lineRenderer{}
	d := NewDocument(DocumentOptions{Tree: tree, Provider: testContent(), Renderer: r})
	_ = d.Show([]*Node{mustFind(tree, "docs", "a.md")}, true)

	calls := r.calls
	_ = d.SetWidth(40)
	_ = d.SetWidth(40)
	if r.calls != calls+1 {
		t.Errorf("renderer called %d times, want 1 for a width change", r.calls-calls)
	}
	if d.Width() != 40 {
		t.Errorf("Width = %d, want 40", d.Width())
	}
}

func TestDocument_FollowLink(t *testing.T) {
	root := filepath.Join(t.TempDir(), "site")
	files := map[string]string{
		"index.md":       "# Index\n\n[guide](docs/guide.md#intro)\n[web](https://example.com)\n[missing](nope.md)",
		"docs/guide.md":  "# Guide\n\n[back](../index.md)",
		"docs/extra.txt": "plain",
	}
	for name, content := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	tree := NewTree()
	top := NewContainerNode("site", root, nil)
	index := NewNode("index.md", filepath.Join(root, "index.md"))
	docs := NewContainerNode("docs", filepath.Join(root, "docs"), nil)
	docs.AddChild(NewNode("guide.md", filepath.Join(root, "docs", "guide.md")))
	top.AddChild(index)
	top.AddChild(docs)
	tree.AddRoot(top)

	clock := newFakeClock()
	d := NewDocument(DocumentOptions{
		Tree: tree,
		Provider: ContentProviderFunc(func(n *Node) (string, error) {
			data, err := os.ReadFile(n.Source)
			return string(data), err
		}),
		Renderer: &lineRenderer{},
		Clock:    clock.Now,
	})

	if err := d.Show([]*Node{index}, true); err != nil {
		t.Fatal(err)
	}
	links := d.Links()
	if len(links) != 3 {
		t.Fatalf("Links = %v, want 3", links)
	}

	clock.Advance(time.Second)
	d.MoveToNextLink()
	followed, err := d.FollowSelectedLink()
	if err != nil || !followed {
		t.Fatalf("FollowSelectedLink = %v, %v", followed, err)
	}
	if d.Title() != "guide.md" {
		t.Errorf("Title = %q, want guide.md", d.Title())
	}
	if !d.CanGoBack() {
		t.Error("following a link should record history")
	}

	if err := d.FollowLink(links[1]); !errors.Is(err, ErrExternalLink) {
		t.Errorf("external link error = %v, want ErrExternalLink", err)
	}
	if err := d.FollowLink(links[2]); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("missing link error = %v, want ErrFileNotFound", err)
	}

	// exists on disk but the tree has no node for it
	err = d.FollowLink(Link{URL: "extra.txt", Source: filepath.Join(root, "docs", "guide.md")})
	if !errors.Is(err, ErrLinkNotInTree) {
		t.Errorf("untracked file error = %v, want ErrLinkNotInTree", err)
	}
}

func TestDocument_SaveAndLoad(t *testing.T) {
	clock := newFakeClock()
	d, tree := newTestDocument(clock)
	d.Name = "Doc0"

	_ = d.Show([]*Node{mustFind(tree, "docs", "a.md")}, true)
	clock.Advance(time.Second)
	_ = d.Show([]*Node{mustFind(tree, "docs", "b.md")}, true)
	clock.Advance(time.Second)
	_ = d.Show([]*Node{mustFind(tree, "docs", "guide", "c.md")}, true)
	d.MoveToNextLink()
	if _, err := d.NavigateHistory(false); err != nil {
		t.Fatal(err)
	}

	el, err := d.Save("Document")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if el.SelectElement("history") == nil {
		t.Fatal("saved document should carry its history")
	}

	restored := NewDocument(DocumentOptions{Tree: tree, Provider: testContent(), Renderer: &lineRenderer{}, Clock: clock.Now})
	if err := restored.LoadDocument(el); err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	if restored.Name != "Doc0" || restored.Title() != "b.md" {
		t.Errorf("restored %s, want Doc0:b.md", restored)
	}
	if len(restored.Lines()) != 0 {
		t.Error("content should not be fetched before Activate")
	}

	ok, err := restored.Activate()
	if err != nil || !ok {
		t.Fatalf("Activate = %v, %v", ok, err)
	}
	if len(restored.Lines()) == 0 {
		t.Error("Activate should fetch the content")
	}
	if !restored.CanGoBack() || !restored.CanGoForward() {
		t.Fatal("restored document should be able to go both ways")
	}

	if _, err := restored.NavigateHistory(true); err != nil {
		t.Fatal(err)
	}
	if restored.Title() != "c.md" {
		t.Errorf("forward Title = %q, want c.md", restored.Title())
	}
	if link := restored.SelectedLink(); link == nil || link.URL != "x.md" {
		t.Errorf("forward should restore the selected link, got %v", link)
	}
}

func TestDocument_LoadWithBrokenHistory(t *testing.T) {
	clock := newFakeClock()
	d, tree := newTestDocument(clock)
	_ = d.Show([]*Node{mustFind(tree, "docs", "a.md")}, true)
	clock.Advance(time.Second)
	_ = d.Show([]*Node{mustFind(tree, "docs", "b.md")}, true)

	el, err := d.Save("Document")
	if err != nil {
		t.Fatal(err)
	}
	el.SelectElement("history").SelectElement("back").CreateElement("entry").CreateAttr("scroll", "NaN")

	restored := NewDocument(DocumentOptions{Tree: tree, Provider: testContent()})
	if err := restored.LoadDocument(el); err != nil {
		t.Fatalf("broken history should not fail the document: %v", err)
	}
	if restored.CanGoBack() {
		t.Error("broken history should be dropped")
	}
	if cur, ok := restored.History().Current(); !ok || !cur.Equal(Location{Nodes: []NodePath{{"docs", "b.md"}}}) {
		t.Errorf("current = %v,%v want the shown page", cur, ok)
	}
}

func TestDocument_ActivateVanished(t *testing.T) {
	d, tree := newTestDocument(newFakeClock())
	_ = d.Show([]*Node{mustFind(tree, "notes", "n.md")}, true)
	tree.Remove(mustFind(tree, "notes"))

	ok, err := d.Activate()
	if ok || err != nil {
		t.Errorf("Activate = %v, %v; want false, nil", ok, err)
	}
}
