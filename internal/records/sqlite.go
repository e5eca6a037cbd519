package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS collections (
	name       TEXT PRIMARY KEY,
	body       TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

// SQLiteStore keeps every collection as one JSON row in the collections table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates the collections table if it does not exist.
func NewSQLiteStore(ctx context.Context, db *sql.DB) (*SQLiteStore, error) {
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return nil, fmt.Errorf("records: create sqlite schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Name() string { return "sqlite" }

func (s *SQLiteStore) Read(ctx context.Context, name string) ([]Record, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM collections WHERE name = ?`, name).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		_, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO collections (name, body, updated_at) VALUES (?, '[]', ?)`,
			name, time.Now().UTC().Format(time.RFC3339Nano))
		if err != nil {
			return nil, storageErr("initialize", name, err)
		}
		return []Record{}, nil
	}
	if err != nil {
		return nil, storageErr("read", name, err)
	}
	return decodeCollection(name, []byte(body))
}

func (s *SQLiteStore) Write(ctx context.Context, name string, recs []Record) error {
	if err := checkName(name); err != nil {
		return err
	}
	b, err := encodeCollection(recs)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO collections (name, body, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		name, string(b), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return storageErr("write", name, err)
	}
	return nil
}
