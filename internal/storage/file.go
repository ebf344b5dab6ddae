package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/beevik/etree"
)

const (
	settingsFileName = "navitree.xml"
	settingsRootTag  = "NavitreeSettings"
)

// FileStore keeps all sections as children of one XML file.
type FileStore struct {
	path   string
	closed bool
}

// NewFileStore creates a store backed by navitree.xml inside dir.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating settings dir: %w", err)
	}
	return &FileStore{path: filepath.Join(dir, settingsFileName)}, nil
}

// Path returns the settings file location.
func (s *FileStore) Path() string { return s.path }

// Load implements Store.
func (s *FileStore) Load(ctx context.Context, name string) (*etree.Element, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	el := doc.Root().SelectElement(name)
	if el == nil {
		return nil, nil
	}
	return el.Copy(), nil
}

// Save implements Store. The file is rewritten through a temporary file so a
// crash never leaves a truncated settings file behind.
func (s *FileStore) Save(ctx context.Context, el *etree.Element) error {
	if s.closed {
		return ErrClosed
	}
	if el == nil {
		return errors.New("save: nil section")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	doc, err := s.read()
	if err != nil {
		return err
	}
	root := doc.Root()
	if old := root.SelectElement(el.Tag); old != nil {
		root.RemoveChild(old)
	}
	root.AddChild(el.Copy())
	doc.Indent(2)

	tmp, err := os.CreateTemp(filepath.Dir(s.path), settingsFileName+".*")
	if err != nil {
		return fmt.Errorf("creating temp settings file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := doc.WriteTo(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("writing settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing settings file: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *FileStore) Close() error {
	s.closed = true
	return nil
}

// read loads the settings document, creating an empty one when the file does
// not exist yet.
func (s *FileStore) read() (*etree.Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(s.path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			doc.SetRoot(etree.NewElement(settingsRootTag))
			return doc, nil
		}
		return nil, fmt.Errorf("reading settings: %w", err)
	}
	if doc.Root() == nil {
		doc.SetRoot(etree.NewElement(settingsRootTag))
	}
	return doc, nil
}
