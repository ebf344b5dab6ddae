package tview

import (
	"errors"
	"hash/fnv"
	"strings"

	nav "github.com/boolean-maybe/navitree/navitree"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// DocumentView is a TextView that shows the active document of a workspace.
// It keeps TextView paging and adds link cycling, link activation and
// back/forward keys.
type DocumentView struct {
	*tview.TextView

	ws *nav.Workspace

	// shown tracks which document and content the TextView holds.
	shown     *nav.Document
	shownHash uint64

	onStateChanged func()
	onLinkFollowed func()
	onError        func(error)
}

// NewDocumentView creates a view over the active document of ws.
func NewDocumentView(ws *nav.Workspace) *DocumentView {
	textView := tview.NewTextView()
	textView.SetBorder(false)
	textView.SetDynamicColors(true)
	textView.SetWrap(false)
	textView.SetWordWrap(false)

	return &DocumentView{TextView: textView, ws: ws}
}

// SetStateChangedHandler sets a callback for selection, scroll and history changes.
func (v *DocumentView) SetStateChangedHandler(handler func()) *DocumentView {
	v.onStateChanged = handler
	return v
}

// SetLinkFollowedHandler sets a callback run after Enter followed a link.
func (v *DocumentView) SetLinkFollowedHandler(handler func()) *DocumentView {
	v.onLinkFollowed = handler
	return v
}

// SetErrorHandler sets a callback for errors caused by key presses.
func (v *DocumentView) SetErrorHandler(handler func(error)) *DocumentView {
	v.onError = handler
	return v
}

// Refresh reloads the TextView from the active document if it changed and
// moves to the document's scroll offset.
func (v *DocumentView) Refresh() {
	d := v.ws.Active()
	if d == nil {
		v.shown, v.shownHash = nil, 0
		v.SetText("")
		return
	}

	lines := d.Lines()
	hash := hashLines(lines)
	if d != v.shown || hash != v.shownHash {
		v.SetText(tview.TranslateANSI(strings.Join(lines, "\n")))
		v.shown, v.shownHash = d, hash
	}
	v.ScrollTo(d.ScrollOffset(), 0)
}

// Draw re-renders the document when the view width changed, then draws.
func (v *DocumentView) Draw(screen tcell.Screen) {
	if d := v.ws.Active(); d != nil {
		_, _, width, _ := v.GetInnerRect()
		if width > 0 && width != d.Width() {
			if err := d.SetWidth(width); err != nil {
				v.fireError(err)
			}
			v.Refresh()
		}
	}
	v.TextView.Draw(screen)
}

// InputHandler returns the input handler for this component.
func (v *DocumentView) InputHandler() func(event *tcell.EventKey, setFocus func(p tview.Primitive)) {
	base := v.TextView.InputHandler()
	return v.WrapInputHandler(func(event *tcell.EventKey, setFocus func(p tview.Primitive)) {
		d := v.ws.Active()
		if d == nil {
			base(event, setFocus)
			return
		}

		switch event.Key() {
		case tcell.KeyTab:
			if d.MoveToNextLink() {
				v.fireStateChanged()
			}
			return
		case tcell.KeyBacktab:
			if d.MoveToPreviousLink() {
				v.fireStateChanged()
			}
			return
		case tcell.KeyEnter:
			followed, err := d.FollowSelectedLink()
			if err != nil {
				v.fireError(err)
			}
			if followed && err == nil {
				v.Refresh()
				if v.onLinkFollowed != nil {
					v.onLinkFollowed()
				}
				v.fireStateChanged()
			}
			return
		}

		base(event, setFocus)

		if row, _ := v.GetScrollOffset(); row != d.ScrollOffset() {
			d.ScrollTo(row)
			v.fireStateChanged()
		}
	})
}

// Navigate steps the active document through its history and refreshes.
func (v *DocumentView) Navigate(forward bool) bool {
	step := v.ws.Back
	if forward {
		step = v.ws.Forward
	}
	moved, err := step()
	if err != nil {
		v.fireError(err)
	}
	if moved {
		v.Refresh()
		v.fireStateChanged()
	}
	return moved
}

func (v *DocumentView) fireStateChanged() {
	if v.onStateChanged != nil {
		v.onStateChanged()
	}
}

func (v *DocumentView) fireError(err error) {
	if v.onError != nil && err != nil && !errors.Is(err, nav.ErrOutOfRange) {
		v.onError(err)
	}
}

// hashLines computes a fast hash of the line slice for change detection.
func hashLines(lines []string) uint64 {
	h := fnv.New64a()
	for _, l := range lines {
		_, _ = h.Write([]byte(l))
		_, _ = h.Write([]byte{'\n'})
	}
	return h.Sum64()
}
