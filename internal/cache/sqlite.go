package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	// SQLite driver
	_ "modernc.org/sqlite"
)

var tableName = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// OpenSQLite opens (creating if needed) the database file used by SQLiteStore.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return db, nil
}

// SQLiteStore keeps one row per key. A row created by Seed has a NULL
// payload and a zero stamp. Stamps are unix seconds, as in FileStore.
type SQLiteStore struct {
	db    *sql.DB
	table string
}

// NewSQLiteStore binds a store to table, creating it if absent.
func NewSQLiteStore(db *sql.DB, table string) (*SQLiteStore, error) {
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	s := &SQLiteStore{db: db, table: table}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS ` + table + ` (
		key TEXT PRIMARY KEY,
		payload TEXT,
		updated_at INTEGER NOT NULL DEFAULT 0
	)`); err != nil {
		return nil, fmt.Errorf("create table %s: %w", table, err)
	}
	return s, nil
}

func (s *SQLiteStore) ReadPayload(key string) (string, error) {
	var payload sql.NullString
	err := s.db.QueryRow(`SELECT payload FROM `+s.table+` WHERE key = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !payload.Valid) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return payload.String, nil
}

func (s *SQLiteStore) WritePayload(key, payload string) error {
	_, err := s.db.Exec(`INSERT INTO `+s.table+` (key, payload, updated_at) VALUES (?, ?, 0)
		ON CONFLICT(key) DO UPDATE SET payload = excluded.payload`, key, payload)
	return err
}

func (s *SQLiteStore) ReadStamp(key string) (time.Time, error) {
	var sec int64
	err := s.db.QueryRow(`SELECT updated_at FROM `+s.table+` WHERE key = ?`, key).Scan(&sec)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, ErrNotFound
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(sec, 0).UTC(), nil
}

func (s *SQLiteStore) WriteStamp(key string, t time.Time) error {
	_, err := s.db.Exec(`INSERT INTO `+s.table+` (key, updated_at) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET updated_at = excluded.updated_at`, key, t.Unix())
	return err
}

func (s *SQLiteStore) Seed(keys []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	for _, k := range keys {
		if _, err := tx.Exec(`INSERT OR IGNORE INTO `+s.table+` (key, updated_at) VALUES (?, 0)`, k); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}
