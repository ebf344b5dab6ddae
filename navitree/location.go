package navitree

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// ErrMalformedLocation is returned when a persisted location cannot be decoded.
var ErrMalformedLocation = errors.New("malformed location")

// NodePath identifies a tree node by the texts of its ancestors, starting
// below the root.
type NodePath []string

// String joins the path segments with "/".
func (p NodePath) String() string { return strings.Join(p, "/") }

// Equal reports whether both paths name the same node.
func (p NodePath) Equal(other NodePath) bool { return slices.Equal(p, other) }

// HasPrefix reports whether p is prefix or a descendant of prefix.
func (p NodePath) HasPrefix(prefix NodePath) bool {
	return len(prefix) <= len(p) && slices.Equal(p[:len(prefix)], prefix)
}

// ViewState captures where the reader was inside a shown document.
type ViewState struct {
	ScrollOffset int
	SelectedLink int // -1 means none
}

// Location is a navigation history record: the nodes a document showed and
// the view state at the time.
type Location struct {
	Nodes []NodePath
	View  ViewState
}

// Equal compares the shown nodes only; two visits to the same nodes are the
// same place regardless of scroll position.
func (l Location) Equal(other Location) bool {
	return slices.EqualFunc(l.Nodes, other.Nodes, NodePath.Equal)
}

// References reports whether any shown node is prefix or lies below it.
func (l Location) References(prefix NodePath) bool {
	for _, p := range l.Nodes {
		if p.HasPrefix(prefix) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of l.
func (l Location) Clone() Location {
	nodes := make([]NodePath, len(l.Nodes))
	for i, p := range l.Nodes {
		nodes[i] = slices.Clone(p)
	}
	return Location{Nodes: nodes, View: l.View}
}

const (
	locationNodeTag    = "node"
	locationSegmentTag = "p"
	locationPathAttr   = "path"
	locationScrollAttr = "scroll"
	locationLinkAttr   = "link"
)

// EncodeLocation writes loc as an element named tag. Paths whose segments
// are non-empty and contain no "/" are stored in a single path attribute,
// others as one <p> element per segment.
func EncodeLocation(loc Location, tag string) *etree.Element {
	el := etree.NewElement(tag)
	if loc.View.ScrollOffset != 0 {
		el.CreateAttr(locationScrollAttr, strconv.Itoa(loc.View.ScrollOffset))
	}
	if loc.View.SelectedLink >= 0 {
		el.CreateAttr(locationLinkAttr, strconv.Itoa(loc.View.SelectedLink))
	}
	for _, p := range loc.Nodes {
		el.AddChild(encodeNodePath(p, locationNodeTag))
	}
	return el
}

func encodeNodePath(p NodePath, tag string) *etree.Element {
	el := etree.NewElement(tag)
	// an empty segment or one containing "/" cannot survive the joined form
	if !slices.ContainsFunc(p, func(s string) bool { return s == "" || strings.Contains(s, "/") }) {
		el.CreateAttr(locationPathAttr, p.String())
		return el
	}
	for _, segment := range p {
		el.CreateElement(locationSegmentTag).SetText(segment)
	}
	return el
}

// DecodeLocation is the inverse of EncodeLocation.
func DecodeLocation(el *etree.Element) (Location, error) {
	loc := Location{View: ViewState{SelectedLink: -1}}
	if el == nil {
		return loc, fmt.Errorf("nil element: %w", ErrMalformedLocation)
	}

	var err error
	if loc.View.ScrollOffset, err = intAttr(el, locationScrollAttr, 0); err != nil {
		return loc, err
	}
	if loc.View.SelectedLink, err = intAttr(el, locationLinkAttr, -1); err != nil {
		return loc, err
	}

	for i, nodeEl := range el.SelectElements(locationNodeTag) {
		p, err := decodeNodePath(nodeEl)
		if err != nil {
			return loc, fmt.Errorf("node %d: %w", i, err)
		}
		loc.Nodes = append(loc.Nodes, p)
	}
	return loc, nil
}

func decodeNodePath(el *etree.Element) (NodePath, error) {
	if attr := el.SelectAttr(locationPathAttr); attr != nil {
		if attr.Value == "" {
			return NodePath{}, nil
		}
		return NodePath(strings.Split(attr.Value, "/")), nil
	}
	segments := el.SelectElements(locationSegmentTag)
	if len(segments) == 0 {
		return nil, fmt.Errorf("node has neither %q attribute nor <%s> children: %w", locationPathAttr, locationSegmentTag, ErrMalformedLocation)
	}
	p := make(NodePath, 0, len(segments))
	for _, s := range segments {
		p = append(p, s.Text())
	}
	return p, nil
}

func intAttr(el *etree.Element, key string, dflt int) (int, error) {
	attr := el.SelectAttr(key)
	if attr == nil {
		return dflt, nil
	}
	n, err := strconv.Atoi(attr.Value)
	if err != nil {
		return dflt, fmt.Errorf("attribute %s=%q: %w", key, attr.Value, ErrMalformedLocation)
	}
	return n, nil
}
