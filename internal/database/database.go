// Package database keeps the SQLite search index of published articles
// and the history of pipeline builds.
package database

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// connPragmas are applied by the driver to every pooled connection.
var connPragmas = []string{
	"journal_mode(WAL)",
	"foreign_keys(1)",
	"busy_timeout(5000)",
}

// DB is the index handle shared by the CLI commands and the pipeline.
type DB struct {
	conn *sql.DB
	path string
}

// Open opens the index at path, creating parent directories and bringing
// the schema up to date.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("opening index %s: %w", path, err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("opening index %s: %w", path, err)
	}
	if err := migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrating index schema: %w", err)
	}
	return &DB{conn: conn, path: path}, nil
}

func dsn(path string) string {
	q := url.Values{"_pragma": connPragmas}
	return path + "?" + q.Encode()
}

// Close releases the index.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Path is the file the index lives in.
func (db *DB) Path() string {
	return db.path
}
