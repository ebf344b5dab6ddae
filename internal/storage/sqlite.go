package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/beevik/etree"
	_ "modernc.org/sqlite"
)

const sqliteFileName = "navitree.db"

// SQLiteStore keeps each section as a row of the settings table.
type SQLiteStore struct {
	conn *sql.DB
	path string
}

// OpenSQLiteStore opens (or creates) navitree.db in dir.
func OpenSQLiteStore(dir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	return openSQLite(filepath.Join(dir, sqliteFileName))
}

func openSQLite(dbPath string) (*SQLiteStore, error) {
	dsn := dbPath +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=synchronous(NORMAL)"

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &SQLiteStore{conn: conn, path: dbPath}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Path returns the database file location.
func (s *SQLiteStore) Path() string { return s.path }

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS settings (
		section    TEXT     PRIMARY KEY,
		xml        TEXT     NOT NULL,
		updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
	);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// Load implements Store.
func (s *SQLiteStore) Load(ctx context.Context, name string) (*etree.Element, error) {
	if s.conn == nil {
		return nil, ErrClosed
	}

	var text string
	err := s.conn.QueryRowContext(ctx, `SELECT xml FROM settings WHERE section = ?`, name).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading section %q: %w", name, err)
	}
	return unmarshalSection(name, text)
}

// Save implements Store.
func (s *SQLiteStore) Save(ctx context.Context, el *etree.Element) error {
	if s.conn == nil {
		return ErrClosed
	}
	if el == nil {
		return errors.New("save: nil section")
	}

	text, err := marshalSection(el)
	if err != nil {
		return fmt.Errorf("encoding section %q: %w", el.Tag, err)
	}

	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO settings (section, xml, updated_at) VALUES (?, ?, datetime('now'))
		ON CONFLICT(section) DO UPDATE SET xml = excluded.xml, updated_at = excluded.updated_at`,
		el.Tag, text)
	if err != nil {
		return fmt.Errorf("saving section %q: %w", el.Tag, err)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}
