package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const documentKey = "config"

// SQLiteBackend stores the document in a single row of the state table.
type SQLiteBackend struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and ensures the
// schema exists. ":memory:" is accepted for tests.
func OpenSQLite(path string) (*SQLiteBackend, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("state: sqlite path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("state: open sqlite %s: %w", path, err)
	}
	// One writer keeps ":memory:" databases on a single connection.
	db.SetMaxOpenConns(1)

	backend := &SQLiteBackend{db: db}
	if err := backend.configure(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := backend.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return backend, nil
}

func (b *SQLiteBackend) configure() error {
	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := b.db.Exec(pragma); err != nil {
			return fmt.Errorf("state: %s: %w", pragma, err)
		}
	}
	return nil
}

func (b *SQLiteBackend) migrate() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS state (
		key TEXT PRIMARY KEY,
		document TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);`
	if _, err := b.db.Exec(schema); err != nil {
		return fmt.Errorf("state: migrate: %w", err)
	}
	return nil
}

// Load implements Backend.
func (b *SQLiteBackend) Load(ctx context.Context) (ConfigState, bool, error) {
	var document string
	err := b.db.QueryRowContext(ctx, `SELECT document FROM state WHERE key = ?`, documentKey).Scan(&document)
	if errors.Is(err, sql.ErrNoRows) {
		return ConfigState{}, false, nil
	}
	if err != nil {
		return ConfigState{}, false, fmt.Errorf("state: query document: %w", err)
	}
	state, err := decode([]byte(document))
	if err != nil {
		return ConfigState{}, false, err
	}
	return state, true, nil
}

// Save implements Backend.
func (b *SQLiteBackend) Save(ctx context.Context, state ConfigState) error {
	data, err := encode(state)
	if err != nil {
		return fmt.Errorf("state: encode document: %w", err)
	}
	_, err = b.db.ExecContext(ctx, `
		INSERT INTO state (key, document, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET document = excluded.document, updated_at = excluded.updated_at`,
		documentKey, string(data), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("state: upsert document: %w", err)
	}
	return nil
}

// Close implements Backend.
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}
