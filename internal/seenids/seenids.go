// Package seenids implements the board adapter's durable dedup store: a
// set of board-item ids already processed, backed by a single-table
// sqlite database (`ids(id INTEGER PRIMARY KEY)`), via database/sql and
// github.com/mattn/go-sqlite3.
package seenids

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// Store is a durable set of integer item ids.
type Store struct {
	db *sql.DB
}

// Open opens (creating if absent) the sqlite database at path and
// ensures the ids table exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("seenids: opening %s: %w", path, err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS ids (id INTEGER PRIMARY KEY)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("seenids: creating table: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Exists returns the subset of ids already present in the store.
func (s *Store) Exists(ids []int64) (map[int64]bool, error) {
	present := make(map[int64]bool, len(ids))
	if len(ids) == 0 {
		return present, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	query := fmt.Sprintf("SELECT id FROM ids WHERE id IN (%s)", strings.Join(placeholders, ","))

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("seenids: querying existing ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("seenids: scanning id: %w", err)
		}
		present[id] = true
	}
	return present, rows.Err()
}

// Insert upserts ids into the store; inserting an id already present is
// a no-op.
func (s *Store) Insert(ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("seenids: starting transaction: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO ids (id) VALUES (?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("seenids: preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, id := range ids {
		if _, err := stmt.Exec(id); err != nil {
			tx.Rollback()
			return fmt.Errorf("seenids: inserting id %d: %w", id, err)
		}
	}
	return tx.Commit()
}
