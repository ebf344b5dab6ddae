package navitree

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoProvider is returned when a document has no ContentProvider.
	ErrNoProvider = errors.New("no content provider")
	// ErrEmptyContent is returned when the fetched content is empty.
	ErrEmptyContent = errors.New("content is empty")
)

// ContentProvider produces the markdown shown for a node.
type ContentProvider interface {
	FetchContent(n *Node) (string, error)
}

// ContentProviderFunc adapts a function to ContentProvider.
type ContentProviderFunc func(n *Node) (string, error)

// FetchContent calls f.
func (f ContentProviderFunc) FetchContent(n *Node) (string, error) { return f(n) }

const nodeSeparator = "\n\n---\n\n"

// fetchPage concatenates the content of nodes. Nodes that fail to load are
// shown as an error section instead of failing the whole page.
func fetchPage(provider ContentProvider, nodes []*Node) (string, []Link) {
	if len(nodes) == 0 {
		return "", nil
	}

	var (
		b     strings.Builder
		links []Link
	)
	for i, n := range nodes {
		content, err := fetchNode(provider, n)
		if err != nil {
			content = errorMarkdown(n, err)
		}
		if i > 0 {
			b.WriteString(nodeSeparator)
		}
		b.WriteString(content)
		links = append(links, ExtractLinks(content, n.Source)...)
	}
	return b.String(), links
}

func fetchNode(provider ContentProvider, n *Node) (string, error) {
	if provider == nil {
		return "", ErrNoProvider
	}
	content, err := provider.FetchContent(n)
	if err != nil {
		return "", fmt.Errorf("fetch content for %q: %w", n.Text, err)
	}
	if content == "" {
		return "", ErrEmptyContent
	}
	return content, nil
}

func errorMarkdown(n *Node, err error) string {
	return "# Error\n\nFailed to load `" + n.Text + "`:\n\n```\n" + err.Error() + "\n```"
}
