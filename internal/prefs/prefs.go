// Package prefs persists UI preferences in a local SQLite database under a
// fixed key. Only preferences survive restarts; document content never does.
package prefs

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/datascope/backend/internal/models"
)

// prefsKey is the fixed row key the UI settings live under.
const prefsKey = "ui"

// Store is a SQLite-backed preference store.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the preference database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening preference store: %w", err)
	}
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS preferences (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating preferences table: %w", err)
	}
	return &Store{db: db}, nil
}

// Get returns the stored preferences, or the defaults when none are saved.
func (s *Store) Get() (models.Preferences, error) {
	var raw string
	err := s.db.QueryRow(`SELECT value FROM preferences WHERE key = ?`, prefsKey).Scan(&raw)
	if err == sql.ErrNoRows {
		return models.DefaultPreferences(), nil
	}
	if err != nil {
		return models.Preferences{}, fmt.Errorf("reading preferences: %w", err)
	}

	p := models.DefaultPreferences()
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		// A corrupt row falls back to defaults rather than blocking the UI.
		return models.DefaultPreferences(), nil
	}
	return p, nil
}

// Put replaces the stored preferences wholesale.
func (s *Store) Put(p models.Preferences) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO preferences (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, prefsKey, string(raw))
	if err != nil {
		return fmt.Errorf("writing preferences: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
