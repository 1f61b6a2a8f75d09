package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"gpad/internal/models"
	"gpad/internal/provider"
)

const defaultNotebookName = "Default"

const notebookColumns = "id, guid, name, is_default, updated_at, action"

func scanNotebook(row rowScanner) (models.Notebook, error) {
	var (
		nb        models.Notebook
		isDefault int
		updated   int64
		action    int
	)
	if err := row.Scan(&nb.ID, &nb.GUID, &nb.Name, &isDefault, &updated, &action); err != nil {
		return models.Notebook{}, err
	}
	nb.Default = isDefault != 0
	nb.UpdatedAt = fromMillis(updated)
	nb.Action = models.Action(action)
	return nb, nil
}

func (s *Store) ListNotebooks(ctx context.Context) ([]models.Notebook, error) {
	return s.listNotebooks(ctx, "WHERE action != ?", int(models.ActionDelete))
}

func (s *Store) SyncNotebooks(ctx context.Context) ([]models.Notebook, error) {
	return s.listNotebooks(ctx, "")
}

func (s *Store) listNotebooks(ctx context.Context, where string, args ...any) ([]models.Notebook, error) {
	rows, err := s.queryContext(ctx, "SELECT "+notebookColumns+" FROM notebooks "+where+" ORDER BY name, id", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notebooks := []models.Notebook{}
	for rows.Next() {
		nb, err := scanNotebook(rows)
		if err != nil {
			return nil, err
		}
		notebooks = append(notebooks, nb)
	}
	return notebooks, rows.Err()
}

func (s *Store) GetNotebook(ctx context.Context, id int64) (models.Notebook, error) {
	nb, err := scanNotebook(s.queryRowContext(ctx,
		"SELECT "+notebookColumns+" FROM notebooks WHERE id=? AND action != ?", id, int(models.ActionDelete)))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Notebook{}, fmt.Errorf("notebook %d: %w", id, provider.ErrNotFound)
	}
	return nb, err
}

func (s *Store) CreateNotebook(ctx context.Context, name string) (models.Notebook, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Notebook{}, fmt.Errorf("notebook name required: %w", provider.ErrInvalid)
	}
	var id int64
	err := s.inTx(ctx, "create-notebook", func(tx *sql.Tx) error {
		var err error
		id, err = insertNotebook(ctx, tx, uuid.NewString(), name, false, toMillis(s.now()), models.ActionCreate)
		return err
	})
	if err != nil {
		return models.Notebook{}, err
	}
	return s.GetNotebook(ctx, id)
}

func insertNotebook(ctx context.Context, tx *sql.Tx, guid, name string, isDefault bool, updated int64, action models.Action) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO notebooks(guid, name, is_default, updated_at, action)
		VALUES(?, ?, ?, ?, ?)
	`, guid, name, boolInt(isDefault), updated, int(action))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) UpdateNotebook(ctx context.Context, notebook models.Notebook) (models.Notebook, error) {
	name := strings.TrimSpace(notebook.Name)
	if name == "" {
		return models.Notebook{}, fmt.Errorf("notebook name required: %w", provider.ErrInvalid)
	}
	current, err := s.GetNotebook(ctx, notebook.ID)
	if err != nil {
		return models.Notebook{}, err
	}
	_, err = s.execContext(ctx, "UPDATE notebooks SET name=?, updated_at=?, action=? WHERE id=?",
		name, toMillis(s.now()), int(changedAction(current.Action)), notebook.ID)
	if err != nil {
		return models.Notebook{}, err
	}
	return s.GetNotebook(ctx, notebook.ID)
}

// DeleteNotebook removes the notebook and every note in it. Records that were
// never synced are dropped, the rest are kept as tombstones until sync
// purges them.
func (s *Store) DeleteNotebook(ctx context.Context, id int64) error {
	current, err := s.GetNotebook(ctx, id)
	if err != nil {
		return err
	}
	return s.inTx(ctx, "delete-notebook", func(tx *sql.Tx) error {
		if current.Action == models.ActionCreate {
			_, err := tx.ExecContext(ctx, "DELETE FROM notebooks WHERE id=?", id)
			return err
		}
		now := toMillis(s.now())
		if _, err := tx.ExecContext(ctx, "DELETE FROM notes WHERE notebook_id=? AND action=?", id, int(models.ActionCreate)); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "UPDATE notes SET action=?, updated_at=? WHERE notebook_id=?", int(models.ActionDelete), now, id); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, "UPDATE notebooks SET action=?, updated_at=? WHERE id=?", int(models.ActionDelete), now, id)
		return err
	})
}

func (s *Store) GetNotebookNotesCount(ctx context.Context, id int64) (int, error) {
	if _, err := s.GetNotebook(ctx, id); err != nil {
		return 0, err
	}
	var count int
	err := s.queryRowContext(ctx, "SELECT COUNT(*) FROM notes WHERE notebook_id=? AND action != ?", id, int(models.ActionDelete)).Scan(&count)
	return count, err
}

func (s *Store) PutNotebook(ctx context.Context, notebook models.Notebook) error {
	if strings.TrimSpace(notebook.GUID) == "" || strings.TrimSpace(notebook.Name) == "" {
		return fmt.Errorf("notebook guid and name required: %w", provider.ErrInvalid)
	}
	updated := toMillis(notebook.UpdatedAt)
	if updated == 0 {
		updated = toMillis(s.now())
	}
	_, err := s.execContext(ctx, `
		INSERT INTO notebooks(guid, name, is_default, updated_at, action)
		VALUES(?, ?, ?, ?, ?)
		ON CONFLICT(guid) DO UPDATE SET
			name=excluded.name,
			is_default=excluded.is_default,
			updated_at=excluded.updated_at,
			action=excluded.action
	`, notebook.GUID, notebook.Name, boolInt(notebook.Default), updated, int(models.ActionNone))
	return err
}

func (s *Store) PurgeNotebook(ctx context.Context, guid string) error {
	_, err := s.execContext(ctx, "DELETE FROM notebooks WHERE guid=?", guid)
	return err
}

// defaultNotebookID returns the notebook used for notes created without one,
// creating it on first use.
func (s *Store) defaultNotebookID(ctx context.Context, tx *sql.Tx) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, "SELECT id FROM notebooks WHERE is_default=1 AND action != ? ORDER BY id LIMIT 1", int(models.ActionDelete)).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}
	return insertNotebook(ctx, tx, uuid.NewString(), defaultNotebookName, true, toMillis(s.now()), models.ActionCreate)
}

func changedAction(current models.Action) models.Action {
	if current == models.ActionCreate {
		return models.ActionCreate
	}
	return models.ActionChange
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
