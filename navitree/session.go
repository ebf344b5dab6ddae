package navitree

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// SessionSettingsTag is the element name of a saved session.
const SessionSettingsTag = "SessionSettings"

const (
	sessionTreePathTag  = "ActiveTreeViewPath"
	sessionTreeNodeTag  = "Node"
	sessionActiveDocTag = "ActiveDocument"
	sessionRootsTag     = "Roots"
	sessionRootTag      = "Root"
	sessionComponents   = "Components"
)

// SessionSettings is the per-session state: loaded at startup, saved at exit.
// Components store their own state as named elements.
type SessionSettings struct {
	ActiveTreeViewPath NodePath
	ActiveDocument     int
	Roots              []string

	components []*etree.Element
}

// NewSessionSettings returns empty settings.
func NewSessionSettings() *SessionSettings {
	return &SessionSettings{ActiveDocument: -1}
}

// LoadSessionSettings reads settings written by Element. A nil element gives
// empty settings. Values that cannot be parsed fall back to their defaults.
func LoadSessionSettings(el *etree.Element) *SessionSettings {
	s := NewSessionSettings()
	if el == nil {
		return s
	}

	if pathEl := el.SelectElement(sessionTreePathTag); pathEl != nil {
		s.ActiveTreeViewPath = NodePath{}
		for _, n := range pathEl.SelectElements(sessionTreeNodeTag) {
			s.ActiveTreeViewPath = append(s.ActiveTreeViewPath, n.Text())
		}
	}

	if docEl := el.SelectElement(sessionActiveDocTag); docEl != nil {
		if n, err := strconv.Atoi(strings.TrimSpace(docEl.Text())); err == nil {
			s.ActiveDocument = n
		}
	}

	if rootsEl := el.SelectElement(sessionRootsTag); rootsEl != nil {
		for _, r := range rootsEl.SelectElements(sessionRootTag) {
			if text := strings.TrimSpace(r.Text()); text != "" {
				s.Roots = append(s.Roots, text)
			}
		}
	}

	if compEl := el.SelectElement(sessionComponents); compEl != nil {
		for _, c := range compEl.ChildElements() {
			s.components = append(s.components, c.Copy())
		}
	}
	return s
}

// GetSettings returns the component element called name, or nil.
func (s *SessionSettings) GetSettings(name string) *etree.Element {
	for _, c := range s.components {
		if c.Tag == name {
			return c
		}
	}
	return nil
}

// SaveSettings stores el, replacing a previous component with the same name.
func (s *SessionSettings) SaveSettings(el *etree.Element) error {
	if el == nil {
		return fmt.Errorf("save settings: nil element: %w", ErrInvalidArgument)
	}
	for i, c := range s.components {
		if c.Tag == el.Tag {
			s.components[i] = el
			return nil
		}
	}
	s.components = append(s.components, el)
	return nil
}

// Element serializes the settings.
func (s *SessionSettings) Element() *etree.Element {
	el := etree.NewElement(SessionSettingsTag)

	if s.ActiveTreeViewPath != nil {
		pathEl := el.CreateElement(sessionTreePathTag)
		for _, segment := range s.ActiveTreeViewPath {
			pathEl.CreateElement(sessionTreeNodeTag).SetText(segment)
		}
	}

	el.CreateElement(sessionActiveDocTag).SetText(strconv.Itoa(s.ActiveDocument))

	if len(s.Roots) > 0 {
		rootsEl := el.CreateElement(sessionRootsTag)
		for _, r := range s.Roots {
			rootsEl.CreateElement(sessionRootTag).SetText(r)
		}
	}

	compEl := el.CreateElement(sessionComponents)
	for _, c := range s.components {
		compEl.AddChild(c.Copy())
	}
	return el
}
