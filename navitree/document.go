package navitree

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/beevik/etree"
)

// ErrLinkNotInTree is returned when a link target exists but is not part of
// the browsed tree.
var ErrLinkNotInTree = errors.New("link target is not in the tree")

const (
	documentNameAttr  = "name"
	documentTitleAttr = "title"
	documentHistory   = "history"
)

// DocumentOptions configures a Document.
type DocumentOptions struct {
	Tree       *Tree
	Provider   ContentProvider
	Renderer   Renderer
	HistoryMax int
	// Clock drives history coalescing; nil means time.Now.
	Clock func() time.Time
}

// Document is one open view of the tree: the selected nodes, their rendered
// content, and the back/forward history of what the view showed before.
type Document struct {
	// Name identifies the document in a saved session.
	Name string

	title    string
	selected []NodePath
	view     ViewState
	shown    bool

	markdown string
	lines    []string
	links    []Link
	width    int

	history *NavigationHistory[Location]

	tree     *Tree
	provider ContentProvider
	renderer Renderer
}

// NewDocument creates an empty document.
func NewDocument(opts DocumentOptions) *Document {
	renderer := opts.Renderer
	if renderer == nil {
		renderer = NewANSIRenderer("dark")
	}
	tree := opts.Tree
	if tree == nil {
		tree = NewTree()
	}
	hmax := opts.HistoryMax
	if hmax <= 0 {
		hmax = 50
	}

	return &Document{
		title:    noneTitle,
		view:     ViewState{SelectedLink: -1},
		history:  NewNavigationHistory[Location](hmax).WithClock(opts.Clock),
		tree:     tree,
		provider: opts.Provider,
		renderer: renderer,
	}
}

const noneTitle = "(none)"

// Title returns the tab title.
func (d *Document) Title() string { return d.title }

// SelectedNodes returns the paths of the shown nodes.
func (d *Document) SelectedNodes() []NodePath { return d.Location().Nodes }

// Lines returns the rendered page.
func (d *Document) Lines() []string { return d.lines }

// Links returns the links of the shown page.
func (d *Document) Links() []Link { return d.links }

// ScrollOffset returns the index of the first visible line.
func (d *Document) ScrollOffset() int { return d.view.ScrollOffset }

// History exposes the navigation history, mainly for inspection.
func (d *Document) History() *NavigationHistory[Location] { return d.history }

// CanGoBack returns true if there is a previous location.
func (d *Document) CanGoBack() bool { return d.history.CanGoBack() }

// CanGoForward returns true if there is a next location.
func (d *Document) CanGoForward() bool { return d.history.CanGoForward() }

// Location snapshots what the document shows now.
func (d *Document) Location() Location {
	return Location{Nodes: d.selected, View: d.view}.Clone()
}

// SelectedLink returns a copy of the selected link, or nil if none.
func (d *Document) SelectedLink() *Link {
	i := d.view.SelectedLink
	if i < 0 || i >= len(d.links) {
		return nil
	}
	link := d.links[i]
	return &link
}

// Show replaces the shown nodes. With addToHistory the new location is
// recorded so the previous one can be returned to.
func (d *Document) Show(nodes []*Node, addToHistory bool) error {
	if addToHistory && d.shown && len(d.selected) > 0 {
		// keep the view state of the page being left
		d.history.UpdateCurrent(d.Location())
	}

	d.selected = make([]NodePath, 0, len(nodes))
	for _, n := range nodes {
		d.selected = append(d.selected, d.tree.PathForNode(n))
	}
	d.title = titleFor(nodes)
	d.view = ViewState{SelectedLink: -1}

	if addToHistory && len(d.selected) > 0 {
		d.history.Record(d.Location(), RecordOptions{})
	}

	return d.load(nodes)
}

func titleFor(nodes []*Node) string {
	switch len(nodes) {
	case 0:
		return noneTitle
	case 1:
		return nodes[0].Text
	default:
		return fmt.Sprintf("%s (+%d more)", nodes[0].Text, len(nodes)-1)
	}
}

func (d *Document) load(nodes []*Node) error {
	d.shown = true
	d.markdown, d.links = fetchPage(d.provider, nodes)
	return d.render()
}

func (d *Document) render() error {
	if d.markdown == "" {
		d.lines = nil
		return nil
	}
	lines, err := d.renderer.Render(d.markdown, d.width)
	d.lines = lines
	d.clampScroll()
	if err != nil {
		return fmt.Errorf("render %q: %w", d.title, err)
	}
	return nil
}

// Width returns the wrap width, 0 means no wrapping.
func (d *Document) Width() int { return d.width }

// SetWidth updates the wrap width and re-renders when it changed.
func (d *Document) SetWidth(cols int) error {
	if cols < 0 {
		cols = 0
	}
	if cols == d.width {
		return nil
	}
	d.width = cols
	return d.render()
}

// ScrollTo moves the first visible line to offset.
func (d *Document) ScrollTo(offset int) {
	d.view.ScrollOffset = offset
	d.clampScroll()
}

func (d *Document) clampScroll() {
	if d.view.ScrollOffset >= len(d.lines) {
		d.view.ScrollOffset = len(d.lines) - 1
	}
	if d.view.ScrollOffset < 0 {
		d.view.ScrollOffset = 0
	}
}

// MoveToNextLink selects the next link, wrapping around.
func (d *Document) MoveToNextLink() bool {
	if len(d.links) == 0 {
		return false
	}
	d.view.SelectedLink = (d.view.SelectedLink + 1) % len(d.links)
	return true
}

// MoveToPreviousLink selects the previous link, wrapping around.
func (d *Document) MoveToPreviousLink() bool {
	if len(d.links) == 0 {
		return false
	}
	if d.view.SelectedLink <= 0 {
		d.view.SelectedLink = len(d.links) - 1
	} else {
		d.view.SelectedLink--
	}
	return true
}

// FollowSelectedLink follows the selected link, if any.
func (d *Document) FollowSelectedLink() (bool, error) {
	link := d.SelectedLink()
	if link == nil {
		return false, nil
	}
	return true, d.FollowLink(*link)
}

// FollowLink shows the tree node a link points to and records it in history.
func (d *Document) FollowLink(link Link) error {
	if link.IsExternal() {
		return fmt.Errorf("%s: %w", link.URL, ErrExternalLink)
	}
	path, err := ResolveLinkPath(link.URL, link.Source, d.tree.SourceRoots())
	if err != nil {
		return fmt.Errorf("resolve %q: %w", link.URL, err)
	}
	node := d.tree.FindNodeBySource(path)
	if node == nil {
		return fmt.Errorf("%s: %w", path, ErrLinkNotInTree)
	}
	return d.Show([]*Node{node}, true)
}

// NavigateHistory steps back (or forward) to the nearest location whose
// nodes still exist and shows it. History entries whose nodes all vanished
// from the tree are dropped. It reports whether a step was made.
func (d *Document) NavigateHistory(forward bool) (bool, error) {
	can, step := d.history.CanGoBack, d.history.GoBack
	if forward {
		can, step = d.history.CanGoForward, d.history.GoForward
	}
	if !can() {
		return false, nil
	}

	if d.shown && len(d.selected) > 0 {
		d.history.UpdateCurrent(d.Location())
	}

	if n := d.history.RemoveAll(d.isStale); n > 0 {
		log.Printf("Document: dropped %d stale history entries from %q", n, d.title)
	}
	if !can() {
		return false, nil
	}

	loc, err := step()
	if err != nil {
		return false, err
	}
	return true, d.restore(loc)
}

func (d *Document) isStale(loc Location) bool {
	return len(loc.Nodes) > 0 && len(d.tree.Resolve(loc.Nodes)) == 0
}

// restore shows loc without recording it and reapplies its view state.
func (d *Document) restore(loc Location) error {
	err := d.Show(d.tree.Resolve(loc.Nodes), false)
	d.view = loc.View
	d.clampScroll()
	if d.view.SelectedLink >= len(d.links) {
		d.view.SelectedLink = -1
	}
	return err
}

// Activate resolves the stored selection against the tree and shows it if it
// was not shown yet. It returns false when a non-empty selection no longer
// resolves.
func (d *Document) Activate() (bool, error) {
	nodes := d.tree.Resolve(d.selected)
	if len(nodes) == 0 && len(d.selected) > 0 {
		return false, nil
	}
	if d.shown {
		return true, nil
	}
	return true, d.restore(d.Location())
}

// Forget drops every history entry matching pred.
func (d *Document) Forget(pred func(Location) bool) int {
	return d.history.RemoveAll(pred)
}

// Save writes the document, including its history, as an element named tag.
func (d *Document) Save(tag string) (*etree.Element, error) {
	el := EncodeLocation(d.Location(), tag)
	el.CreateAttr(documentNameAttr, d.Name)
	el.CreateAttr(documentTitleAttr, d.title)

	if len(d.selected) > 0 {
		d.history.UpdateCurrent(d.Location())
	}
	historyEl, err := d.history.Save(documentHistory, EncodeLocation)
	if err != nil {
		return nil, fmt.Errorf("save document %q: %w", d.Name, err)
	}
	if historyEl != nil {
		el.AddChild(historyEl)
	}
	return el, nil
}

// LoadDocument restores a document written by Save. The content is not
// fetched until Activate. A history that cannot be decoded is logged and
// replaced by an empty one.
func (d *Document) LoadDocument(el *etree.Element) error {
	loc, err := DecodeLocation(el)
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}

	d.Name = el.SelectAttrValue(documentNameAttr, "")
	d.title = el.SelectAttrValue(documentTitleAttr, noneTitle)
	d.selected = loc.Nodes
	d.view = loc.View
	d.shown = false

	if err := d.history.Load(el.SelectElement(documentHistory), DecodeLocation); err != nil {
		log.Printf("Document: could not restore history of %q: %v", d.Name, err)
		d.history = NewNavigationHistory[Location](d.history.maxSize).WithClock(d.history.now)
	}
	if _, ok := d.history.Current(); !ok && len(d.selected) > 0 {
		d.history.UpdateCurrent(d.Location())
	}
	return nil
}

// String describes the document for logs.
func (d *Document) String() string {
	return d.Name + ":" + d.title + " back=" + strconv.Itoa(d.history.BackStackSize()) +
		" forward=" + strconv.Itoa(d.history.ForwardStackSize())
}
