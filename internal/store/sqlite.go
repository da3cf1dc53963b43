package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// SQLiteStore keeps snapshots in a single rooms table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "create database directory")
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS rooms (
			code TEXT PRIMARY KEY,
			state BLOB NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "create rooms table")
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Load(ctx context.Context, code string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, "SELECT state FROM rooms WHERE code = ?", code).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load room %s", code)
	}
	return data, nil
}

func (s *SQLiteStore) Save(ctx context.Context, code string, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rooms (code, state, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at
	`, code, data, time.Now().UTC())
	return errors.Wrapf(err, "save room %s", code)
}

func (s *SQLiteStore) Remove(ctx context.Context, code string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM rooms WHERE code = ?", code)
	return errors.Wrapf(err, "remove room %s", code)
}

func (s *SQLiteStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT code FROM rooms ORDER BY code")
	if err != nil {
		return nil, errors.Wrap(err, "list rooms")
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, errors.Wrap(err, "scan room code")
		}
		codes = append(codes, code)
	}
	return codes, errors.Wrap(rows.Err(), "list rooms")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
