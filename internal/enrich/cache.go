// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Cache memoizes raw extraction responses in SQLite, keyed by a content hash
// of the payload and query. Extraction runs at temperature zero, so a cached
// response is as good as a fresh one; the cache only avoids re-billing the
// service on repeated runs. Ranked results are never stored — every run
// recomputes scoring and ordering from scratch.
type Cache struct {
	db *sql.DB
}

// OpenCache opens or creates the cache database at path, creating parent
// directories as needed.
func OpenCache(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	const schema = `
		CREATE TABLE IF NOT EXISTS extractions (
			key        TEXT PRIMARY KEY,
			response   BLOB NOT NULL,
			created_at TIMESTAMP NOT NULL
		);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Get returns the cached response for key, if present.
func (c *Cache) Get(key string) ([]byte, bool) {
	var response []byte
	err := c.db.QueryRow(`SELECT response FROM extractions WHERE key = ?`, key).Scan(&response)
	if err != nil {
		return nil, false
	}
	return response, true
}

// Put stores the response for key, replacing any previous entry.
func (c *Cache) Put(key string, response []byte) error {
	_, err := c.db.Exec(
		`INSERT OR REPLACE INTO extractions (key, response, created_at) VALUES (?, ?, ?)`,
		key, response, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

// Close releases the database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}
