package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const privateDirPerm = 0o700

// SQLiteStore persists the settings record in a single-row SQLite table
// keyed by option name. The proxy has no host options table to lean on, so
// it carries its own tiny one.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the settings database in dir.
func NewSQLiteStore(dir string) (*SQLiteStore, error) {
	dir = filepath.Clean(dir)
	if dir == "" || dir == "." {
		return nil, fmt.Errorf("settings dir is required")
	}
	if err := os.MkdirAll(dir, privateDirPerm); err != nil {
		return nil, fmt.Errorf("create settings dir: %w", err)
	}

	dbPath := filepath.Join(dir, "stripemeta.db")
	dsn := dbPath + "?" + url.Values{
		"_pragma": []string{
			"busy_timeout(30000)",
			"journal_mode(WAL)",
			"synchronous(NORMAL)",
		},
	}.Encode()

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open settings db: %w", err)
	}
	// Single writer; the record is read-mostly.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, errors.Join(err, fmt.Errorf("close settings db after schema init failure: %w", closeErr))
		}
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS options (
			option_name  TEXT PRIMARY KEY,
			option_value TEXT NOT NULL,
			updated_at   INTEGER NOT NULL DEFAULT (unixepoch())
		)`)
	if err != nil {
		return fmt.Errorf("init settings schema: %w", err)
	}
	return nil
}

// Load reads the settings record, returning nil when none has been saved.
func (s *SQLiteStore) Load(ctx context.Context) (*Settings, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT option_value FROM options WHERE option_name = ?`, OptionName,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	var out Settings
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode settings record: %w", err)
	}
	return &out, nil
}

// Save replaces the settings record wholesale.
func (s *SQLiteStore) Save(ctx context.Context, in *Settings) error {
	if in == nil {
		in = &Settings{}
	}
	raw, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode settings record: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO options (option_name, option_value, updated_at)
		VALUES (?, ?, unixepoch())
		ON CONFLICT(option_name) DO UPDATE SET
			option_value = excluded.option_value,
			updated_at   = excluded.updated_at`,
		OptionName, string(raw))
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
