package navitree

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Link is a markdown link found in a shown document.
type Link struct {
	Text string
	URL  string
	// Source is the Source of the node whose content contained the link.
	Source string
}

// IsExternal reports whether the link points to the web.
func (l Link) IsExternal() bool { return isHTTPURL(l.URL) }

// ExtractLinks returns the links of markdown in document order.
func ExtractLinks(markdown, source string) []Link {
	src := []byte(markdown)
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var links []Link
	_ = ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch n := node.(type) {
		case *ast.Link:
			links = append(links, Link{
				Text:   inlineText(n, src),
				URL:    string(n.Destination),
				Source: source,
			})
			return ast.WalkSkipChildren, nil
		case *ast.AutoLink:
			url := string(n.URL(src))
			links = append(links, Link{Text: url, URL: url, Source: source})
		}
		return ast.WalkContinue, nil
	})

	return links
}

func inlineText(n ast.Node, src []byte) string {
	var b strings.Builder
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		if t, ok := child.(*ast.Text); ok {
			b.Write(t.Segment.Value(src))
			continue
		}
		b.WriteString(inlineText(child, src))
	}
	return b.String()
}
