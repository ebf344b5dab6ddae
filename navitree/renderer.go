package navitree

import (
	"hash/fnv"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Renderer renders markdown into display lines. width 0 means no wrapping.
type Renderer interface {
	Render(markdown string, width int) ([]string, error)
}

// ANSIStyleRenderer renders markdown to ANSI using glamour.
type ANSIStyleRenderer struct {
	glamourStyle ansi.StyleConfig
}

func uintPtr(v uint) *uint {
	return &v
}

// NewANSIRenderer creates a renderer with the specified style.
// styleName can be "dark", "light", or "auto".
// "auto" uses COLORFGBG environment variable to detect terminal background.
func NewANSIRenderer(styleName string) *ANSIStyleRenderer {
	var style ansi.StyleConfig

	switch styleName {
	case "light":
		style = styles.LightStyleConfig
	case "auto":
		style = detectStyleFromEnvironment()
	case "dark":
		fallthrough
	default:
		style = styles.DarkStyleConfig
	}

	// Always clear margins for consistent rendering
	style.Document.Margin = uintPtr(0)
	style.CodeBlock.Margin = uintPtr(0)

	return &ANSIStyleRenderer{glamourStyle: style}
}

// detectStyleFromEnvironment detects terminal theme using COLORFGBG.
// Format: "foreground;background" (e.g., "15;0")
// Background >= 8 indicates light background, < 8 indicates dark.
// Defaults to dark on parse errors or missing variable.
func detectStyleFromEnvironment() ansi.StyleConfig {
	colorfgbg := os.Getenv("COLORFGBG")
	if colorfgbg == "" {
		return styles.DarkStyleConfig
	}

	parts := strings.Split(colorfgbg, ";")
	if len(parts) < 2 {
		return styles.DarkStyleConfig
	}

	bg, err := strconv.Atoi(strings.TrimSpace(parts[len(parts)-1]))
	if err != nil {
		return styles.DarkStyleConfig
	}

	if bg >= 8 {
		return styles.LightStyleConfig
	}
	return styles.DarkStyleConfig
}

// Render implements Renderer. On failure the raw markdown lines are returned
// together with the error so callers can still show something.
func (r *ANSIStyleRenderer) Render(markdown string, width int) ([]string, error) {
	tr, err := glamour.NewTermRenderer(
		glamour.WithStyles(r.glamourStyle),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return strings.Split(markdown, "\n"), err
	}

	out, err := tr.Render(markdown)
	if err != nil {
		return strings.Split(markdown, "\n"), err
	}

	return strings.Split(strings.TrimRight(out, "\n"), "\n"), nil
}

var ansiSGRPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// StripANSI removes SGR escape sequences from s.
func StripANSI(s string) string {
	return ansiSGRPattern.ReplaceAllString(s, "")
}

type renderKey struct {
	width int
	hash  uint64
}

// CachingRenderer memoizes another renderer's output in an LRU cache.
type CachingRenderer struct {
	next  Renderer
	cache *lru.Cache[renderKey, []string]
}

// NewCachingRenderer wraps next with a cache holding up to size pages.
// size <= 0 disables caching and returns a renderer that always delegates.
func NewCachingRenderer(next Renderer, size int) (*CachingRenderer, error) {
	r := &CachingRenderer{next: next}
	if size <= 0 {
		return r, nil
	}
	cache, err := lru.New[renderKey, []string](size)
	if err != nil {
		return nil, err
	}
	r.cache = cache
	return r, nil
}

// Render implements Renderer. Failed renders are not cached.
func (r *CachingRenderer) Render(markdown string, width int) ([]string, error) {
	if r.cache == nil {
		return r.next.Render(markdown, width)
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(markdown))
	key := renderKey{width: width, hash: h.Sum64()}

	if lines, ok := r.cache.Get(key); ok {
		return lines, nil
	}

	lines, err := r.next.Render(markdown, width)
	if err != nil {
		return lines, err
	}
	r.cache.Add(key, lines)
	return lines, nil
}

// Purge drops every cached page.
func (r *CachingRenderer) Purge() {
	if r.cache != nil {
		r.cache.Purge()
	}
}

// Len returns the number of cached pages.
func (r *CachingRenderer) Len() int {
	if r.cache == nil {
		return 0
	}
	return r.cache.Len()
}
