package navitree

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrOutsideRoots is returned when a link resolves to a path outside every browsed root.
	ErrOutsideRoots = errors.New("path outside browsed roots")
	// ErrFileNotFound is returned when a link target doesn't exist.
	ErrFileNotFound = errors.New("file not found")
	// ErrExternalLink is returned when a link points to the web instead of the tree.
	ErrExternalLink = errors.New("external link")
)

// ResolveLinkPath resolves a markdown link found in the content of source to
// an absolute file system path.
//
// Resolution order:
// 1. HTTP/HTTPS URL -> ErrExternalLink
// 2. fragment ("#section") is dropped and %-escapes are decoded
// 3. absolute paths are used as-is, relative ones are joined with the directory of source
// 4. the result must lie inside one of roots (when roots are given)
// 5. the result must exist
func ResolveLinkPath(linkURL, source string, roots []string) (string, error) {
	if isHTTPURL(linkURL) {
		return "", ErrExternalLink
	}

	target, _, _ := strings.Cut(linkURL, "#")
	if target == "" {
		// same-document anchor
		return filepath.Clean(source), nil
	}
	if unescaped, err := url.PathUnescape(target); err == nil {
		target = unescaped
	}

	var candidate string
	if filepath.IsAbs(target) {
		candidate = filepath.Clean(target)
	} else {
		base := source
		if info, err := os.Stat(source); err != nil || !info.IsDir() {
			base = filepath.Dir(source)
		}
		candidate = filepath.Clean(filepath.Join(base, target))
	}

	if len(roots) > 0 && !withinAny(candidate, roots) {
		return "", ErrOutsideRoots
	}

	if _, err := os.Stat(candidate); err != nil {
		return "", ErrFileNotFound
	}
	return candidate, nil
}

func isHTTPURL(link string) bool {
	return strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://")
}

func withinAny(path string, roots []string) bool {
	for _, root := range roots {
		if root == "" {
			continue
		}
		if _, ok := relativeTo(path, root); ok {
			return true
		}
	}
	return false
}

// relativeTo returns path relative to root when path is root or below it.
func relativeTo(path, root string) (string, bool) {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil {
		return "", false
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return rel, true
}
