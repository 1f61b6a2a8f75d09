// Package store implements the provider contract on a local SQLite database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"gpad/internal/provider"
)

const settingSyncDelay = "sync_delay"

type Store struct {
	db          *sql.DB
	lockTimeout time.Duration
	now         func() time.Time
}

type OpenOptions struct {
	BusyTimeout time.Duration
	LockTimeout time.Duration
}

var (
	_ provider.Provider = (*Store)(nil)
	_ provider.Replica  = (*Store)(nil)
)

func Open(path string) (*Store, error) {
	return OpenWithOptions(path, OpenOptions{})
}

func OpenWithOptions(path string, opts OpenOptions) (*Store, error) {
	busy := opts.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}
	dsn := fmt.Sprintf("file:%s?_busy_timeout=%d&_foreign_keys=on&_journal_mode=WAL", path, busy.Milliseconds())
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	lock := opts.LockTimeout
	if lock <= 0 {
		lock = 2 * time.Second
	}
	return &Store{db: db, lockTimeout: lock, now: time.Now}, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) SetLockTimeout(timeout time.Duration) {
	s.lockTimeout = timeout
}

func (s *Store) Init(ctx context.Context) error {
	if _, err := s.execContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	version, err := s.schemaVersion(ctx)
	if err != nil {
		return err
	}
	if version > schemaVersion {
		return fmt.Errorf("database schema %d is newer than supported %d", version, schemaVersion)
	}
	if version != schemaVersion {
		return s.setSchemaVersion(ctx, schemaVersion)
	}
	return nil
}

func (s *Store) schemaVersion(ctx context.Context) (int, error) {
	var v int
	err := s.queryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return v, nil
}

func (s *Store) setSchemaVersion(ctx context.Context, v int) error {
	return s.inTx(ctx, "schema-version", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM schema_version"); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, "INSERT INTO schema_version(version) VALUES(?)", v)
		return err
	})
}

func (s *Store) GetSyncDelay(ctx context.Context) (int64, error) {
	raw, err := s.setting(ctx, settingSyncDelay)
	if errors.Is(err, sql.ErrNoRows) {
		return provider.DefaultSyncDelay, nil
	}
	if err != nil {
		return 0, err
	}
	delay, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return provider.DefaultSyncDelay, nil
	}
	return delay, nil
}

func (s *Store) SetSyncDelay(ctx context.Context, delay int64) error {
	if delay == 0 || delay < provider.SyncDelayManual {
		return fmt.Errorf("sync delay %d: %w", delay, provider.ErrInvalid)
	}
	return s.setSetting(ctx, settingSyncDelay, strconv.FormatInt(delay, 10))
}

func (s *Store) setting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.queryRowContext(ctx, "SELECT value FROM settings WHERE key=?", key).Scan(&value)
	return value, err
}

func (s *Store) setSetting(ctx context.Context, key, value string) error {
	_, err := s.execContext(ctx, `
		INSERT INTO settings(key, value) VALUES(?, ?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value
	`, key, value)
	return err
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
