package fetch

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Cache is a persistent source cache backed by SQLite, keyed by identity.
// It survives sessions, so a fetcher in front of it only touches the
// network for identities it has never seen.
type Cache struct {
	db *sql.DB
}

// NewCache opens a SQLite cache at dbPath with WAL mode enabled, creating
// the schema when missing.
func NewCache(dbPath string) (*Cache, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	if _, err := db.Exec(cacheDDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create cache schema: %w", err)
	}
	return &Cache{db: db}, nil
}

const cacheDDL = `
CREATE TABLE IF NOT EXISTS sources (
  identity     TEXT PRIMARY KEY,
  text         TEXT NOT NULL,
  fetched_at   TIMESTAMP
);
`

// Close closes the underlying database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the cached text for identity, reporting whether it was
// present.
func (c *Cache) Get(identity string) (string, bool, error) {
	var text string
	err := c.db.QueryRow("SELECT text FROM sources WHERE identity = ?", identity).Scan(&text)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cache get: %w", err)
	}
	return text, true, nil
}

// Put stores text under identity, replacing any previous entry.
func (c *Cache) Put(identity, text string) error {
	_, err := c.db.Exec(
		"INSERT OR REPLACE INTO sources (identity, text, fetched_at) VALUES (?, ?, ?)",
		identity, text, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}
