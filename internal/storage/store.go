// Package storage persists navitree session settings and configuration.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/beevik/etree"
)

// ErrClosed is returned by a store used after Close.
var ErrClosed = errors.New("store closed")

// Store keeps named settings sections. Each section is one XML element whose
// tag is the section name.
type Store interface {
	// Load returns the section called name, or nil if it was never saved.
	Load(ctx context.Context, name string) (*etree.Element, error)
	// Save replaces the section named after el's tag.
	Save(ctx context.Context, el *etree.Element) error
	Close() error
}

// Open returns the store for backend ("file" or "sqlite") inside dir.
func Open(backend, dir string) (Store, error) {
	switch backend {
	case "", BackendFile:
		return NewFileStore(dir)
	case BackendSQLite:
		return OpenSQLiteStore(dir)
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}

// Store backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

func marshalSection(el *etree.Element) (string, error) {
	doc := etree.NewDocument()
	doc.SetRoot(el.Copy())
	return doc.WriteToString()
}

func unmarshalSection(name, text string) (*etree.Element, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(text); err != nil {
		return nil, fmt.Errorf("parsing section %q: %w", name, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("section %q has no root element", name)
	}
	return root, nil
}
