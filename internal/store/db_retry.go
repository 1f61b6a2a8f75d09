package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/mattn/go-sqlite3"
)

type rowScanner interface {
	Scan(dest ...any) error
}

type retryRow struct {
	ctx     context.Context
	query   func() *sql.Row
	timeout time.Duration
	text    string
	args    []any
	caller  string
}

func (r retryRow) Scan(dest ...any) error {
	start := time.Now()
	for attempt := 0; ; attempt++ {
		err := r.query().Scan(dest...)
		if err == nil || !isSQLiteBusy(err) {
			slog.Debug("sql query row done", "duration_ms", time.Since(start).Milliseconds(), "attempts", attempt+1, "err", err)
			return err
		}
		slog.Debug("sql query row busy", "query", r.text, "args", r.args, "caller", r.caller, "attempt", attempt+1, "err", err)
		if stop, reason := shouldStopRetry(r.ctx, start, r.timeout); stop {
			slog.Debug("sql query row done", "duration_ms", time.Since(start).Milliseconds(), "attempts", attempt+1, "err", err, "reason", reason)
			if reason == "context" {
				return r.ctx.Err()
			}
			return err
		}
		time.Sleep(retryDelay(attempt))
	}
}

func (s *Store) queryRowContext(ctx context.Context, query string, args ...any) rowScanner {
	caller := callerOf(2)
	slog.Debug("sql query", "query", query, "args", args, "caller", caller)
	return retryRow{
		ctx:     ctx,
		query:   func() *sql.Row { return s.db.QueryRowContext(ctx, query, args...) },
		timeout: s.lockTimeout,
		text:    query,
		args:    args,
		caller:  caller,
	}
}

func (s *Store) execContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	slog.Debug("sql exec", "query", query, "args", args)
	var res sql.Result
	err := s.retry(ctx, "sql exec", func() error {
		var err error
		res, err = s.db.ExecContext(ctx, query, args...)
		return err
	})
	return res, err
}

func (s *Store) queryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	slog.Debug("sql query", "query", query, "args", args)
	var rows *sql.Rows
	err := s.retry(ctx, "sql query", func() error {
		var err error
		rows, err = s.db.QueryContext(ctx, query, args...)
		return err
	})
	return rows, err
}

// retry runs fn until it succeeds, fails with a non-busy error, or the lock
// timeout elapses.
func (s *Store) retry(ctx context.Context, op string, fn func() error) error {
	start := time.Now()
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil || !isSQLiteBusy(err) {
			slog.Debug(op+" done", "duration_ms", time.Since(start).Milliseconds(), "attempts", attempt+1, "err", err)
			return err
		}
		if stop, reason := shouldStopRetry(ctx, start, s.lockTimeout); stop {
			slog.Debug(op+" done", "duration_ms", time.Since(start).Milliseconds(), "attempts", attempt+1, "err", err, "reason", reason)
			if reason == "context" {
				return ctx.Err()
			}
			return err
		}
		time.Sleep(retryDelay(attempt))
	}
}

func shouldStopRetry(ctx context.Context, start time.Time, timeout time.Duration) (bool, string) {
	if timeout <= 0 {
		return true, "no-timeout"
	}
	if ctx.Err() != nil {
		return true, "context"
	}
	if time.Since(start) >= timeout {
		return true, "timeout"
	}
	return false, ""
}

func retryDelay(attempt int) time.Duration {
	delay := time.Duration(attempt+1) * 40 * time.Millisecond
	if delay > 300*time.Millisecond {
		delay = 300 * time.Millisecond
	}
	return delay
}

func isSQLiteBusy(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked
	}
	return false
}

func callerOf(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "unknown"
	}
	return file + ":" + fmt.Sprint(line)
}

// inTx runs fn inside a transaction, retrying the whole transaction while
// SQLite reports the database as busy.
func (s *Store) inTx(ctx context.Context, name string, fn func(tx *sql.Tx) error) error {
	return s.retry(ctx, "sql tx "+name, func() error {
		start := time.Now()
		slog.Debug("sql tx begin", "op", name)
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			slog.Error("sql tx begin failed", "op", name, "err", err)
			return err
		}
		if err := fn(tx); err != nil {
			s.rollbackTx(tx, name, start)
			return err
		}
		err = tx.Commit()
		slog.Debug("sql tx commit", "op", name, "duration_ms", time.Since(start).Milliseconds(), "err", err)
		return err
	})
}

func (s *Store) rollbackTx(tx *sql.Tx, name string, start time.Time) {
	err := tx.Rollback()
	if err == nil || errors.Is(err, sql.ErrTxDone) {
		slog.Debug("sql tx rollback", "op", name, "duration_ms", time.Since(start).Milliseconds())
		return
	}
	slog.Warn("sql tx rollback failed", "op", name, "duration_ms", time.Since(start).Milliseconds(), "err", err)
}
