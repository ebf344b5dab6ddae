package tview

import (
	"fmt"
	"strings"

	nav "github.com/boolean-maybe/navitree/navitree"
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
	"github.com/rivo/tview"
)

const maxTabTitleWidth = 24

// Browser is the whole screen: the tree on the left, tabs, the active
// document and a status bar on the right.
type Browser struct {
	*tview.Flex

	ws       *nav.Workspace
	tree     *TreePane
	document *DocumentView
	tabs     *tview.TextView
	status   *tview.TextView

	message string
	focus   func(tview.Primitive)
}

// NewBrowser lays out a browser over ws.
func NewBrowser(ws *nav.Workspace) *Browser {
	b := &Browser{
		ws:       ws,
		tree:     NewTreePane(ws.Tree()),
		document: NewDocumentView(ws),
		tabs:     tview.NewTextView().SetDynamicColors(true).SetWrap(false),
		status:   tview.NewTextView().SetDynamicColors(true).SetWrap(false),
	}

	b.tree.SetBorder(true).SetTitle(" tree ")
	b.tree.SetChangeHandler(b.onTreeChange)
	b.document.SetStateChangedHandler(b.onStateChanged)
	b.document.SetLinkFollowedHandler(b.revealActive)
	b.document.SetErrorHandler(b.showError)

	right := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(b.tabs, 1, 0, false).
		AddItem(b.document, 0, 1, false)

	body := tview.NewFlex().
		AddItem(b.tree, 0, 1, true).
		AddItem(right, 0, 3, false)

	b.Flex = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(body, 0, 1, true).
		AddItem(b.status, 1, 0, false)

	b.Flex.SetInputCapture(b.captureKeys)
	b.onStateChanged()
	return b
}

// SetFocusFunc lets the browser move focus between its panes, usually
// tview.Application.SetFocus.
func (b *Browser) SetFocusFunc(focus func(tview.Primitive)) *Browser {
	b.focus = focus
	return b
}

// Tree returns the tree pane.
func (b *Browser) Tree() *TreePane { return b.tree }

// Document returns the document pane.
func (b *Browser) Document() *DocumentView { return b.document }

// Reveal selects path in the tree without navigating.
func (b *Browser) Reveal(path nav.NodePath) bool { return b.tree.Reveal(path) }

// Sync refreshes every pane from the workspace.
func (b *Browser) Sync() {
	b.document.Refresh()
	b.onStateChanged()
}

func (b *Browser) onTreeChange(n *nav.Node) {
	if d := b.ws.Active(); d != nil {
		sel := d.SelectedNodes()
		if len(sel) == 1 && sel[0].Equal(b.ws.Tree().PathForNode(n)) {
			return
		}
	}
	if err := b.ws.SelectNodes([]*nav.Node{n}, false); err != nil {
		b.showError(err)
	}
	b.message = ""
	b.document.Refresh()
	b.onStateChanged()
}

func (b *Browser) openInNewDocument() {
	n := b.tree.CurrentNode()
	if n == nil {
		return
	}
	if err := b.ws.SelectNodes([]*nav.Node{n}, true); err != nil {
		b.showError(err)
	}
	b.document.Refresh()
	b.onStateChanged()
}

func (b *Browser) closeDocument() {
	b.ws.CloseDocument(b.ws.ActiveIndex())
	if _, err := b.ws.ActivateDocument(b.ws.ActiveIndex()); err != nil {
		b.showError(err)
	}
	b.Sync()
	b.revealActive()
}

func (b *Browser) cycleDocument(delta int) {
	if _, err := b.ws.CycleDocument(delta); err != nil {
		b.showError(err)
	}
	b.Sync()
	b.revealActive()
}

func (b *Browser) navigate(forward bool) {
	if b.document.Navigate(forward) {
		b.revealActive()
	}
}

func (b *Browser) revealActive() {
	if d := b.ws.Active(); d != nil {
		if sel := d.SelectedNodes(); len(sel) > 0 {
			b.tree.Reveal(sel[0])
		}
	}
}

func (b *Browser) captureKeys(event *tcell.EventKey) *tcell.EventKey {
	alt := event.Modifiers()&tcell.ModAlt != 0

	switch event.Key() {
	case tcell.KeyLeft:
		if alt {
			b.navigate(false)
			return nil
		}
	case tcell.KeyRight:
		if alt {
			b.navigate(true)
			return nil
		}
	case tcell.KeyCtrlT:
		b.openInNewDocument()
		return nil
	case tcell.KeyCtrlW:
		b.closeDocument()
		return nil
	case tcell.KeyCtrlN:
		b.cycleDocument(1)
		return nil
	case tcell.KeyCtrlP:
		b.cycleDocument(-1)
		return nil
	case tcell.KeyTab:
		if b.tree.HasFocus() {
			b.setFocus(b.document)
			return nil
		}
	case tcell.KeyEscape:
		if b.document.HasFocus() {
			b.setFocus(b.tree)
			return nil
		}
	case tcell.KeyRune:
		switch event.Rune() {
		case '[':
			b.navigate(false)
			return nil
		case ']':
			b.navigate(true)
			return nil
		}
	}
	return event
}

func (b *Browser) setFocus(p tview.Primitive) {
	if b.focus != nil {
		b.focus(p)
	}
}

func (b *Browser) showError(err error) {
	b.message = err.Error()
	b.onStateChanged()
}

func (b *Browser) onStateChanged() {
	b.tabs.SetText(b.tabBar())
	b.status.SetText(b.statusLine())
}

func (b *Browser) tabBar() string {
	var sb strings.Builder
	for i, d := range b.ws.Documents() {
		title := tview.Escape(runewidth.Truncate(d.Title(), maxTabTitleWidth, "…"))
		if i == b.ws.ActiveIndex() {
			fmt.Fprintf(&sb, "[black:white] %s [-:-]", title)
		} else {
			fmt.Fprintf(&sb, "[gray] %s [-]", title)
		}
		sb.WriteString("|")
	}
	return sb.String()
}

func (b *Browser) statusLine() string {
	arrow := func(enabled bool, glyph string) string {
		if enabled {
			return "[white]" + glyph + "[-]"
		}
		return "[gray]" + glyph + "[-]"
	}

	d := b.ws.Active()
	canBack, canForward := false, false
	title := "navitree"
	link := ""
	if d != nil {
		canBack, canForward = d.CanGoBack(), d.CanGoForward()
		title = d.Title()
		if l := d.SelectedLink(); l != nil {
			link = " | Link: [aqua]" + tview.Escape(runewidth.Truncate(l.URL, 40, "…")) + "[-]"
		}
	}

	status := fmt.Sprintf(" [yellow]%s[-] | Back:%s Fwd:%s%s",
		tview.Escape(runewidth.Truncate(title, 32, "…")),
		arrow(canBack, "◀"), arrow(canForward, "▶"), link)
	if b.message != "" {
		status += " | [red]" + tview.Escape(b.message) + "[-]"
	} else {
		status += " | [gray]Tab/Esc focus  [ ] back/fwd  ^T new tab  ^W close  q quit[-]"
	}
	return status
}
