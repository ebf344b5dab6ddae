package navitree

import (
	"errors"
	"fmt"
	"time"

	"github.com/beevik/etree"
)

// Element names used by the persisted history.
const (
	historyCurrentTag = "current"
	historyBackTag    = "back"
	historyForwardTag = "forward"
	historyEntryTag   = "entry"
)

var (
	// ErrInvalidArgument is returned when Save or Load is called without a
	// required argument.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrMalformedHistory is returned when a persisted history cannot be decoded.
	ErrMalformedHistory = errors.New("malformed history")
)

// Save writes the history into a new element called name. Each location is
// written by encode, which receives the element tag to use. Save returns nil
// when there is nothing to go back or forward to.
//
// Layout:
//
//	<name>
//	  <current .../>
//	  <back><entry .../>...</back>
//	  <forward><entry .../>...</forward>
//	</name>
func (h *NavigationHistory[T]) Save(name string, encode func(loc T, tag string) *etree.Element) (*etree.Element, error) {
	if name == "" {
		return nil, fmt.Errorf("save history: empty element name: %w", ErrInvalidArgument)
	}
	if encode == nil {
		return nil, fmt.Errorf("save history: nil encoder: %w", ErrInvalidArgument)
	}

	if len(h.backStack) == 0 && len(h.forwardStack) == 0 {
		return nil, nil
	}

	root := etree.NewElement(name)
	if h.hasCurrent {
		el := encode(h.current, historyCurrentTag)
		if el == nil {
			return nil, fmt.Errorf("save history: encoder returned nil for current: %w", ErrInvalidArgument)
		}
		root.AddChild(el)
	}

	for _, stack := range []struct {
		tag     string
		entries []T
	}{
		{historyBackTag, h.backStack},
		{historyForwardTag, h.forwardStack},
	} {
		parent := root.CreateElement(stack.tag)
		for i, loc := range stack.entries {
			el := encode(loc, historyEntryTag)
			if el == nil {
				return nil, fmt.Errorf("save history: encoder returned nil for %s entry %d: %w", stack.tag, i, ErrInvalidArgument)
			}
			parent.AddChild(el)
		}
	}

	return root, nil
}

// Load replaces the history with the content of el, decoding each location
// with decode. A nil el leaves the history unchanged. A missing back or
// forward element is read as an empty stack. The history is only modified
// when every entry decodes.
func (h *NavigationHistory[T]) Load(el *etree.Element, decode func(*etree.Element) (T, error)) error {
	if decode == nil {
		return fmt.Errorf("load history: nil decoder: %w", ErrInvalidArgument)
	}
	if el == nil {
		return nil
	}

	var (
		current    T
		hasCurrent bool
	)
	if currentEl := el.SelectElement(historyCurrentTag); currentEl != nil {
		loc, err := decode(currentEl)
		if err != nil {
			return fmt.Errorf("load history: %s: %w: %w", historyCurrentTag, ErrMalformedHistory, err)
		}
		current, hasCurrent = loc, true
	}

	back, err := decodeStack(el, historyBackTag, decode)
	if err != nil {
		return err
	}
	forward, err := decodeStack(el, historyForwardTag, decode)
	if err != nil {
		return err
	}

	if hasCurrent {
		h.current, h.hasCurrent = current, true
	}
	h.backStack = h.trim(back)
	h.forwardStack = h.trim(forward)
	// the first navigation after a restore always creates an entry
	h.lastNavigation = time.Time{}
	return nil
}

func decodeStack[T any](parent *etree.Element, tag string, decode func(*etree.Element) (T, error)) ([]T, error) {
	stackEl := parent.SelectElement(tag)
	if stackEl == nil {
		return make([]T, 0), nil
	}

	entries := stackEl.SelectElements(historyEntryTag)
	out := make([]T, 0, len(entries))
	for i, entryEl := range entries {
		loc, err := decode(entryEl)
		if err != nil {
			return nil, fmt.Errorf("load history: %s entry %d: %w: %w", tag, i, ErrMalformedHistory, err)
		}
		out = append(out, loc)
	}
	return out, nil
}
