package loaders

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/boolean-maybe/navitree/navitree"
	"github.com/go-enry/go-enry/v2"
)

// maxFileSize caps how much of a file is shown.
const maxFileSize = 1 << 20

// FileHTTP implements navitree.ContentProvider for nodes backed by local files,
// directories or HTTP(S) URLs.
type FileHTTP struct {
	// Client is used for HTTP(S) requests; if nil, http.DefaultClient is used.
	Client *http.Client
}

// FetchContent implements navitree.ContentProvider. Markdown is returned
// unchanged; other text is wrapped in a fenced code block tagged with its
// detected language; directories become a list of links to their children.
func (f *FileHTTP) FetchContent(n *navitree.Node) (string, error) {
	src := n.Source
	if src == "" {
		return "# " + n.Text + "\n", nil
	}

	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		data, err := f.fetchFromWeb(src)
		if err != nil {
			return "", err
		}
		return toMarkdown(src, data), nil
	}

	if n.Container {
		return directoryListing(n), nil
	}

	data, err := fetchFromLocal(src)
	if err != nil {
		return "", err
	}
	return toMarkdown(src, data), nil
}

func (f *FileHTTP) fetchFromWeb(url string) (body []byte, err error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close response body: %w", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned non-200 status: %d", resp.StatusCode)
	}

	body, err = io.ReadAll(io.LimitReader(resp.Body, maxFileSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

func fetchFromLocal(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read local file: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxFileSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read local file: %w", err)
	}
	return data, nil
}

func toMarkdown(name string, data []byte) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".md" || ext == ".markdown" {
		return string(data)
	}
	if enry.IsBinary(data) {
		return fmt.Sprintf("# %s\n\n*Binary file, %d bytes.*\n", filepath.Base(name), len(data))
	}

	lang := strings.ToLower(enry.GetLanguage(filepath.Base(name), data))
	fence := "```"
	for strings.Contains(string(data), fence) {
		fence += "`"
	}
	return fmt.Sprintf("# %s\n\n%s%s\n%s\n%s\n", filepath.Base(name), fence, lang, strings.TrimRight(string(data), "\n"), fence)
}

// directoryListing links every child by its file name so the links resolve
// relative to the directory.
func directoryListing(n *navitree.Node) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", n.Text)
	children := n.Children()
	if len(children) == 0 {
		b.WriteString("*Empty directory.*\n")
		return b.String()
	}
	for _, c := range children {
		suffix := ""
		if c.Container {
			suffix = "/"
		}
		fmt.Fprintf(&b, "- [%s%s](%s)\n", c.Text, suffix, escapeLinkTarget(c.Text))
	}
	return b.String()
}

// escapeLinkTarget percent-encodes a child name so it survives link
// resolution, which cuts at '#' and decodes escapes.
func escapeLinkTarget(name string) string {
	return strings.NewReplacer("(", "%28", ")", "%29").Replace(url.PathEscape(name))
}
