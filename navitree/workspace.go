package navitree

import (
	"fmt"
	"log"
	"slices"

	"github.com/beevik/etree"
)

// OpenDocumentsTag is the session component holding the open documents.
const OpenDocumentsTag = "OpenDocuments"

const documentTag = "Document"

// Workspace is the browser state behind the UI: the tree, the open documents
// and which one is active. It must only be used from the UI goroutine.
type Workspace struct {
	tree    *Tree
	docs    []*Document
	active  int
	docOpts DocumentOptions
}

// NewWorkspace creates a workspace without documents. opts is used for every
// document opened later; its Tree is created when nil.
func NewWorkspace(opts DocumentOptions) *Workspace {
	if opts.Tree == nil {
		opts.Tree = NewTree()
	}
	return &Workspace{tree: opts.Tree, active: -1, docOpts: opts}
}

// Tree returns the browsed tree.
func (w *Workspace) Tree() *Tree { return w.tree }

// Documents returns the open documents in tab order.
func (w *Workspace) Documents() []*Document { return slices.Clone(w.docs) }

// ActiveIndex returns the index of the active document, -1 if none.
func (w *Workspace) ActiveIndex() int { return w.active }

// Active returns the active document or nil.
func (w *Workspace) Active() *Document {
	if w.active < 0 || w.active >= len(w.docs) {
		return nil
	}
	return w.docs[w.active]
}

// OpenDocument appends a new empty document and makes it active.
func (w *Workspace) OpenDocument() *Document {
	d := NewDocument(w.docOpts)
	w.docs = append(w.docs, d)
	w.active = len(w.docs) - 1
	return d
}

// CloseDocument closes the document at i. The document to its left becomes
// active when the active one is closed.
func (w *Workspace) CloseDocument(i int) bool {
	if i < 0 || i >= len(w.docs) {
		return false
	}
	w.docs = slices.Delete(w.docs, i, i+1)
	switch {
	case len(w.docs) == 0:
		w.active = -1
	case i < w.active, i == w.active && w.active > 0:
		w.active--
	}
	return true
}

// ActivateDocument makes document i active. A document whose nodes are gone
// from the tree is closed and false is returned.
func (w *Workspace) ActivateDocument(i int) (bool, error) {
	if i < 0 || i >= len(w.docs) {
		return false, nil
	}
	d := w.docs[i]
	ok, err := d.Activate()
	if !ok {
		log.Printf("Workspace: closing %s, its nodes are no longer available", d)
		w.CloseDocument(i)
		return false, err
	}
	w.active = i
	return true, err
}

// CycleDocument activates the next (delta 1) or previous (delta -1) document.
func (w *Workspace) CycleDocument(delta int) (bool, error) {
	n := len(w.docs)
	if n == 0 {
		return false, nil
	}
	return w.ActivateDocument(((w.active+delta)%n + n) % n)
}

// SelectNodes shows nodes in the active document, or in a new one when
// newDocument is set or nothing is open, recording the navigation.
func (w *Workspace) SelectNodes(nodes []*Node, newDocument bool) error {
	d := w.Active()
	if d == nil || newDocument {
		d = w.OpenDocument()
	}
	return d.Show(nodes, true)
}

// Back steps the active document back in its history.
func (w *Workspace) Back() (bool, error) {
	if d := w.Active(); d != nil {
		return d.NavigateHistory(false)
	}
	return false, nil
}

// Forward steps the active document forward in its history.
func (w *Workspace) Forward() (bool, error) {
	if d := w.Active(); d != nil {
		return d.NavigateHistory(true)
	}
	return false, nil
}

// AddRoot adds a top-level node to the tree.
func (w *Workspace) AddRoot(n *Node) { w.tree.AddRoot(n) }

// UnloadRoot removes the top-level node called text and forgets every history
// entry that refers to it.
func (w *Workspace) UnloadRoot(text string) bool {
	top := w.tree.Root().Child(text)
	if top == nil {
		return false
	}
	w.tree.Remove(top)

	prefix := NodePath{text}
	for _, d := range w.docs {
		if n := d.Forget(func(loc Location) bool { return loc.References(prefix) }); n > 0 {
			log.Printf("Workspace: forgot %d history entries of %s referring to %q", n, d, text)
		}
	}
	return true
}

// SaveSession stores the open documents that show something, named Doc0,
// Doc1, ... in tab order, and the active tree path.
func (w *Workspace) SaveSession(s *SessionSettings, activeTreePath NodePath) error {
	docsEl := etree.NewElement(OpenDocumentsTag)
	s.ActiveDocument = -1

	n := 0
	for i, d := range w.docs {
		if len(d.selected) == 0 {
			d.Name = ""
			continue
		}
		d.Name = fmt.Sprintf("Doc%d", n)
		el, err := d.Save(documentTag)
		if err != nil {
			return fmt.Errorf("save session: %w", err)
		}
		docsEl.AddChild(el)
		if i == w.active {
			s.ActiveDocument = n
		}
		n++
	}

	s.ActiveTreeViewPath = activeTreePath
	return s.SaveSettings(docsEl)
}

// RestoreSession reopens the documents stored by SaveSession. Documents that
// cannot be decoded or whose nodes vanished are skipped.
func (w *Workspace) RestoreSession(s *SessionSettings) error {
	docsEl := s.GetSettings(OpenDocumentsTag)
	if docsEl == nil {
		return nil
	}

	restored := make([]*Document, 0)
	for i, el := range docsEl.SelectElements(documentTag) {
		d := NewDocument(w.docOpts)
		if err := d.LoadDocument(el); err != nil {
			log.Printf("Workspace: skipping saved document %d: %v", i, err)
			continue
		}
		restored = append(restored, d)
	}
	w.docs = append(w.docs, restored...)

	if len(w.docs) == 0 {
		return nil
	}

	want := len(w.docs) - len(restored) + s.ActiveDocument
	if s.ActiveDocument < 0 || want >= len(w.docs) {
		want = len(w.docs) - 1
	}
	for len(w.docs) > 0 {
		if want >= len(w.docs) {
			want = len(w.docs) - 1
		}
		ok, err := w.ActivateDocument(want)
		if err != nil {
			log.Printf("Workspace: restoring document %d: %v", want, err)
		}
		if ok {
			return nil
		}
	}
	w.active = -1
	return nil
}
