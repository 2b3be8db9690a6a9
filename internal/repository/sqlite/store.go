// Package sqlite stores snapshots in an on-device SQLite database,
// one JSON document per collection. The storage keys are carried over
// from earlier releases so existing databases keep working.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/jwalitptl/medintern-api/internal/model"
)

const (
	keyCases       = "med_cases"
	keyMedications = "med_vademecum"
	keyPathologies = "med_pathologies"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	key        TEXT PRIMARY KEY,
	doc        TEXT NOT NULL,
	updated_at DATETIME NOT NULL
);`

// Store is a SnapshotStore backed by a single SQLite file.
type Store struct {
	db *sqlx.DB
}

// New opens (or creates) the database at path and ensures the schema.
func New(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Load reads all three collections. Keys that were never written
// resolve to empty collections rather than errors.
func (s *Store) Load(ctx context.Context) (*model.Snapshot, error) {
	snap := model.NewSnapshot()

	if err := s.loadDoc(ctx, keyCases, &snap.Cases); err != nil {
		return nil, err
	}
	if err := s.loadDoc(ctx, keyMedications, &snap.Medications); err != nil {
		return nil, err
	}
	if err := s.loadDoc(ctx, keyPathologies, &snap.Pathologies); err != nil {
		return nil, err
	}

	return snap, nil
}

func (s *Store) loadDoc(ctx context.Context, key string, dest interface{}) error {
	var doc string
	err := s.db.GetContext(ctx, &doc, "SELECT doc FROM snapshots WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(doc), dest); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

// Save writes all three collections in one transaction so a reader
// never observes one collection updated without the others.
func (s *Store) Save(ctx context.Context, snap *model.Snapshot) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	docs := []struct {
		key  string
		data interface{}
	}{
		{keyCases, snap.Cases},
		{keyMedications, snap.Medications},
		{keyPathologies, snap.Pathologies},
	}

	for _, d := range docs {
		doc, err := json.Marshal(d.data)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", d.key, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO snapshots (key, doc, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT(key) DO UPDATE SET doc = excluded.doc, updated_at = excluded.updated_at`,
			d.key, string(doc), now,
		); err != nil {
			return fmt.Errorf("failed to save %s: %w", d.key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
