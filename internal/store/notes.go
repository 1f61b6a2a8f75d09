package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"gpad/internal/models"
	"gpad/internal/provider"
)

const noteSelect = `
	SELECT notes.id, notes.guid, notes.title, notes.content, notes.notebook_id, notebooks.guid,
		notes.created_at, notes.updated_at, notes.place, notes.action
	FROM notes
	JOIN notebooks ON notebooks.id = notes.notebook_id
`

func scanNote(row rowScanner) (models.Note, error) {
	var (
		n       models.Note
		created int64
		updated int64
		action  int
	)
	if err := row.Scan(&n.ID, &n.GUID, &n.Title, &n.Content, &n.Notebook, &n.NotebookGUID, &created, &updated, &n.Place, &action); err != nil {
		return models.Note{}, err
	}
	n.Created = fromMillis(created)
	n.Updated = fromMillis(updated)
	n.Action = models.Action(action)
	return n, nil
}

func (s *Store) CreateNote(ctx context.Context, note models.Note) (models.Note, error) {
	var id int64
	err := s.inTx(ctx, "create-note", func(tx *sql.Tx) error {
		notebookID := note.Notebook
		if notebookID <= 0 {
			var err error
			notebookID, err = s.defaultNotebookID(ctx, tx)
			if err != nil {
				return err
			}
		} else if err := requireLiveNotebook(ctx, tx, notebookID); err != nil {
			return err
		}
		now := toMillis(s.now())
		created := toMillis(note.Created)
		if created == 0 {
			created = now
		}
		updated := toMillis(note.Updated)
		if updated == 0 {
			updated = now
		}
		guid := strings.TrimSpace(note.GUID)
		if guid == "" {
			guid = uuid.NewString()
		}
		res, err := tx.ExecContext(ctx, `
			INSERT INTO notes(guid, title, content, notebook_id, created_at, updated_at, place, action)
			VALUES(?, ?, ?, ?, ?, ?, ?, ?)
		`, guid, note.Title, note.Content, notebookID, created, updated, note.Place, int(models.ActionCreate))
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		if err != nil {
			return err
		}
		return writeNoteChildren(ctx, tx, id, note)
	})
	if err != nil {
		return models.Note{}, err
	}
	return s.GetNote(ctx, id)
}

func (s *Store) GetNote(ctx context.Context, id int64) (models.Note, error) {
	return s.loadNote(ctx, "notes.id=?", id)
}

func (s *Store) GetNoteByGUID(ctx context.Context, guid string) (models.Note, error) {
	return s.loadNote(ctx, "notes.guid=?", guid)
}

func (s *Store) loadNote(ctx context.Context, where string, arg any) (models.Note, error) {
	note, err := scanNote(s.queryRowContext(ctx, noteSelect+" WHERE "+where+" AND notes.action != ?", arg, int(models.ActionDelete)))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Note{}, fmt.Errorf("note %v: %w", arg, provider.ErrNotFound)
	}
	if err != nil {
		return models.Note{}, err
	}
	if err := s.loadNoteChildren(ctx, &note); err != nil {
		return models.Note{}, err
	}
	return note, nil
}

func (s *Store) UpdateNote(ctx context.Context, note models.Note) (models.Note, error) {
	current, err := s.GetNote(ctx, note.ID)
	if err != nil {
		return models.Note{}, err
	}
	err = s.inTx(ctx, "update-note", func(tx *sql.Tx) error {
		notebookID := note.Notebook
		if notebookID <= 0 {
			notebookID = current.Notebook
		} else if err := requireLiveNotebook(ctx, tx, notebookID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE notes SET title=?, content=?, notebook_id=?, updated_at=?, place=?, action=? WHERE id=?
		`, note.Title, note.Content, notebookID, toMillis(s.now()), note.Place, int(changedAction(current.Action)), note.ID); err != nil {
			return err
		}
		return writeNoteChildren(ctx, tx, note.ID, note)
	})
	if err != nil {
		return models.Note{}, err
	}
	return s.GetNote(ctx, note.ID)
}

func (s *Store) DeleteNote(ctx context.Context, id int64) error {
	current, err := s.GetNote(ctx, id)
	if err != nil {
		return err
	}
	if current.Action == models.ActionCreate {
		_, err = s.execContext(ctx, "DELETE FROM notes WHERE id=?", id)
		return err
	}
	_, err = s.execContext(ctx, "UPDATE notes SET action=?, updated_at=? WHERE id=?", int(models.ActionDelete), toMillis(s.now()), id)
	return err
}

func (s *Store) ListNotebookNotes(ctx context.Context, id int64) ([]models.Note, error) {
	if _, err := s.GetNotebook(ctx, id); err != nil {
		return nil, err
	}
	return s.listNotes(ctx, "WHERE notes.notebook_id=? AND notes.action != ? ORDER BY notes.updated_at DESC, notes.id", id, int(models.ActionDelete))
}

func (s *Store) SyncNotes(ctx context.Context) ([]models.Note, error) {
	return s.listNotes(ctx, "ORDER BY notes.id")
}

func (s *Store) listNotes(ctx context.Context, tail string, args ...any) ([]models.Note, error) {
	rows, err := s.queryContext(ctx, noteSelect+" "+tail, args...)
	if err != nil {
		return nil, err
	}
	notes := []models.Note{}
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()
	for i := range notes {
		if err := s.loadNoteChildren(ctx, &notes[i]); err != nil {
			return nil, err
		}
	}
	return notes, nil
}

func (s *Store) PutNote(ctx context.Context, note models.Note) error {
	if strings.TrimSpace(note.GUID) == "" {
		return fmt.Errorf("note guid required: %w", provider.ErrInvalid)
	}
	return s.inTx(ctx, "put-note", func(tx *sql.Tx) error {
		var notebookID int64
		err := tx.QueryRowContext(ctx, "SELECT id FROM notebooks WHERE guid=?", note.NotebookGUID).Scan(&notebookID)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("note %s: unknown notebook %q: %w", note.GUID, note.NotebookGUID, provider.ErrInvalid)
		}
		if err != nil {
			return err
		}
		updated := toMillis(note.Updated)
		if updated == 0 {
			updated = toMillis(s.now())
		}
		created := toMillis(note.Created)
		if created == 0 {
			created = updated
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO notes(guid, title, content, notebook_id, created_at, updated_at, place, action)
			VALUES(?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(guid) DO UPDATE SET
				title=excluded.title,
				content=excluded.content,
				notebook_id=excluded.notebook_id,
				created_at=excluded.created_at,
				updated_at=excluded.updated_at,
				place=excluded.place,
				action=excluded.action
		`, note.GUID, note.Title, note.Content, notebookID, created, updated, note.Place, int(models.ActionNone)); err != nil {
			return err
		}
		var id int64
		if err := tx.QueryRowContext(ctx, "SELECT id FROM notes WHERE guid=?", note.GUID).Scan(&id); err != nil {
			return err
		}
		return writeNoteChildren(ctx, tx, id, note)
	})
}

func (s *Store) PurgeNote(ctx context.Context, guid string) error {
	_, err := s.execContext(ctx, "DELETE FROM notes WHERE guid=?", guid)
	return err
}

func requireLiveNotebook(ctx context.Context, tx *sql.Tx, id int64) error {
	var found int64
	err := tx.QueryRowContext(ctx, "SELECT id FROM notebooks WHERE id=? AND action != ?", id, int(models.ActionDelete)).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("notebook %d: %w", id, provider.ErrNotFound)
	}
	return err
}

// writeNoteChildren replaces the tags and resources of a note.
func writeNoteChildren(ctx context.Context, tx *sql.Tx, noteID int64, note models.Note) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM note_tags WHERE note_id=?", noteID); err != nil {
		return err
	}
	for _, tag := range note.Tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, "INSERT OR IGNORE INTO tags(name) VALUES(?)", tag); err != nil {
			return err
		}
		var tagID int64
		if err := tx.QueryRowContext(ctx, "SELECT id FROM tags WHERE name=?", tag).Scan(&tagID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "INSERT OR IGNORE INTO note_tags(note_id, tag_id) VALUES(?, ?)", noteID, tagID); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM resources WHERE note_id=?", noteID); err != nil {
		return err
	}
	for _, res := range note.Resources {
		hash := res.Hash
		if hash == "" && len(res.Data) > 0 {
			sum := sha256.Sum256(res.Data)
			hash = hex.EncodeToString(sum[:])
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO resources(note_id, file_name, mime, hash, data)
			VALUES(?, ?, ?, ?, ?)
		`, noteID, res.FileName, res.Mime, hash, res.Data); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) loadNoteChildren(ctx context.Context, note *models.Note) error {
	rows, err := s.queryContext(ctx, `
		SELECT tags.name
		FROM note_tags
		JOIN tags ON tags.id = note_tags.tag_id
		WHERE note_tags.note_id=?
		ORDER BY tags.name
	`, note.ID)
	if err != nil {
		return err
	}
	note.Tags = []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return err
		}
		note.Tags = append(note.Tags, name)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	rows, err = s.queryContext(ctx, "SELECT id, file_name, mime, hash, data FROM resources WHERE note_id=? ORDER BY id", note.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	note.Resources = nil
	for rows.Next() {
		var res models.Resource
		if err := rows.Scan(&res.ID, &res.FileName, &res.Mime, &res.Hash, &res.Data); err != nil {
			return err
		}
		note.Resources = append(note.Resources, res)
	}
	return rows.Err()
}
