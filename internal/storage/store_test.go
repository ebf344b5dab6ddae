package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/beevik/etree"
)

func section(tag, value string) *etree.Element {
	el := etree.NewElement(tag)
	el.CreateElement("Value").SetText(value)
	return el
}

func sectionValue(el *etree.Element) string {
	if el == nil {
		return ""
	}
	v := el.SelectElement("Value")
	if v == nil {
		return ""
	}
	return v.Text()
}

func TestStores(t *testing.T) {
	for _, backend := range []string{BackendFile, BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			dir := t.TempDir()
			ctx := context.Background()

			s, err := Open(backend, dir)
			if err != nil {
				t.Fatalf("Open: %v", err)
			}

			el, err := s.Load(ctx, "Missing")
			if err != nil || el != nil {
				t.Errorf("Load(missing) = %v, %v; want nil, nil", el, err)
			}

			if err := s.Save(ctx, section("SessionSettings", "one")); err != nil {
				t.Fatalf("Save: %v", err)
			}
			if err := s.Save(ctx, section("Other", "keep")); err != nil {
				t.Fatalf("Save: %v", err)
			}
			if err := s.Save(ctx, section("SessionSettings", "two")); err != nil {
				t.Fatalf("Save: %v", err)
			}

			el, err = s.Load(ctx, "SessionSettings")
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if got := sectionValue(el); got != "two" {
				t.Errorf("SessionSettings = %q, want two", got)
			}

			if err := s.Save(ctx, nil); err == nil {
				t.Error("Save(nil) should fail")
			}
			if err := s.Close(); err != nil {
				t.Fatalf("Close: %v", err)
			}
			if _, err := s.Load(ctx, "Other"); !errors.Is(err, ErrClosed) {
				t.Errorf("Load after Close error = %v, want ErrClosed", err)
			}

			// sections survive reopening
			reopened, err := Open(backend, dir)
			if err != nil {
				t.Fatalf("reopen: %v", err)
			}
			defer reopened.Close()

			el, err = reopened.Load(ctx, "Other")
			if err != nil {
				t.Fatal(err)
			}
			if got := sectionValue(el); got != "keep" {
				t.Errorf("Other = %q, want keep", got)
			}
		})
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	if _, err := Open("postgres", t.TempDir()); err == nil {
		t.Error("unknown backend should fail")
	}
}

func TestFileStore_Layout(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Save(context.Background(), section("SessionSettings", "x")); err != nil {
		t.Fatal(err)
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromFile(filepath.Join(dir, "navitree.xml")); err != nil {
		t.Fatalf("settings file not written: %v", err)
	}
	if doc.Root().Tag != "NavitreeSettings" || doc.Root().SelectElement("SessionSettings") == nil {
		t.Errorf("unexpected layout: root %q", doc.Root().Tag)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("temporary files left behind: %d entries", len(entries))
	}
}

func TestFileStore_LoadReturnsCopy(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := s.Save(ctx, section("A", "1")); err != nil {
		t.Fatal(err)
	}

	el, err := s.Load(ctx, "A")
	if err != nil {
		t.Fatal(err)
	}
	if el.Parent() != nil {
		t.Error("loaded section should be detached from the settings document")
	}
}

func TestFileStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "navitree.xml"), []byte("<unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load(context.Background(), "A"); err == nil {
		t.Error("corrupt settings file should fail to load")
	}
}

func TestFileStore_CanceledContext(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Save(ctx, section("A", "1")); !errors.Is(err, context.Canceled) {
		t.Errorf("Save error = %v, want context.Canceled", err)
	}
}

func TestSQLiteStore_Path(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenSQLiteStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if s.Path() != filepath.Join(dir, "navitree.db") {
		t.Errorf("Path = %s", s.Path())
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close = %v, want nil", err)
	}
}
