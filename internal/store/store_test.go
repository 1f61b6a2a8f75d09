package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"gpad/internal/models"
	"gpad/internal/provider"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "gpad.sqlite"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := s.Init(context.Background()); err != nil {
		s.Close()
		t.Fatalf("init store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNotebookCRUD(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	nb, err := s.CreateNotebook(ctx, "test")
	if err != nil {
		t.Fatalf("create notebook: %v", err)
	}
	if nb.GUID == "" || nb.Name != "test" || nb.Action != models.ActionCreate {
		t.Fatalf("unexpected notebook %+v", nb)
	}

	nb.Name = "renamed"
	updated, err := s.UpdateNotebook(ctx, nb)
	if err != nil {
		t.Fatalf("update notebook: %v", err)
	}
	if updated.Name != "renamed" {
		t.Fatalf("expected renamed notebook, got %q", updated.Name)
	}
	if updated.Action != models.ActionCreate {
		t.Fatalf("unsynced notebook should stay in create state, got %s", updated.Action)
	}

	list, err := s.ListNotebooks(ctx)
	if err != nil {
		t.Fatalf("list notebooks: %v", err)
	}
	if len(list) != 1 || list[0].ID != nb.ID {
		t.Fatalf("expected one notebook, got %+v", list)
	}

	if err := s.DeleteNotebook(ctx, nb.ID); err != nil {
		t.Fatalf("delete notebook: %v", err)
	}
	if _, err := s.GetNotebook(ctx, nb.ID); !errors.Is(err, provider.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestCreateNotebookRejectsEmptyName(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.CreateNotebook(context.Background(), "  "); !errors.Is(err, provider.ErrInvalid) {
		t.Fatalf("expected invalid error, got %v", err)
	}
}

func TestStoreAllowsDuplicateNotebookNames(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if _, err := s.CreateNotebook(ctx, "same"); err != nil {
		t.Fatalf("create first: %v", err)
	}
	if _, err := s.CreateNotebook(ctx, "same"); err != nil {
		t.Fatalf("create second: %v", err)
	}
	list, err := s.ListNotebooks(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected two notebooks, got %d", len(list))
	}
}

func TestNoteCRUDAndCounts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	nb, err := s.CreateNotebook(ctx, "test")
	if err != nil {
		t.Fatalf("create notebook: %v", err)
	}

	note := models.NewNote(nb.ID, "New note", "New note content")
	note.Tags = []string{"work", "home", "work"}
	note.Resources = []models.Resource{{FileName: "a.txt", Mime: "text/plain", Data: []byte("hello")}}
	created, err := s.CreateNote(ctx, note)
	if err != nil {
		t.Fatalf("create note: %v", err)
	}
	if created.ID <= 0 || created.GUID == "" {
		t.Fatalf("expected stored note, got %+v", created)
	}
	if created.Created.IsZero() || created.Updated.IsZero() {
		t.Fatalf("expected timestamps, got %+v", created)
	}
	if len(created.Tags) != 2 || created.Tags[0] != "home" || created.Tags[1] != "work" {
		t.Fatalf("unexpected tags %v", created.Tags)
	}
	if len(created.Resources) != 1 || created.Resources[0].Hash == "" {
		t.Fatalf("expected hashed resource, got %+v", created.Resources)
	}
	if created.NotebookGUID != nb.GUID {
		t.Fatalf("expected notebook guid %q, got %q", nb.GUID, created.NotebookGUID)
	}

	byGUID, err := s.GetNoteByGUID(ctx, created.GUID)
	if err != nil {
		t.Fatalf("get by guid: %v", err)
	}
	if byGUID.ID != created.ID {
		t.Fatalf("expected id %d, got %d", created.ID, byGUID.ID)
	}

	count, err := s.GetNotebookNotesCount(ctx, nb.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected count 1, got %d", count)
	}

	created.Title = "Changed"
	created.Tags = []string{"work"}
	updated, err := s.UpdateNote(ctx, created)
	if err != nil {
		t.Fatalf("update note: %v", err)
	}
	if updated.Title != "Changed" || len(updated.Tags) != 1 {
		t.Fatalf("unexpected update %+v", updated)
	}

	tags, err := s.ListTags(ctx)
	if err != nil {
		t.Fatalf("list tags: %v", err)
	}
	counts := map[string]int{}
	for _, tag := range tags {
		counts[tag.Name] = tag.Count
	}
	if counts["work"] != 1 || counts["home"] != 0 {
		t.Fatalf("unexpected tag counts %v", counts)
	}

	if err := s.DeleteNote(ctx, created.ID); err != nil {
		t.Fatalf("delete note: %v", err)
	}
	if _, err := s.GetNote(ctx, created.ID); !errors.Is(err, provider.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreateNoteWithoutNotebookUsesDefault(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	note, err := s.CreateNote(ctx, models.NewNote(models.NoneID, "loose", "body"))
	if err != nil {
		t.Fatalf("create note: %v", err)
	}
	nb, err := s.GetNotebook(ctx, note.Notebook)
	if err != nil {
		t.Fatalf("get default notebook: %v", err)
	}
	if !nb.Default || nb.Name != defaultNotebookName {
		t.Fatalf("expected default notebook, got %+v", nb)
	}
}

func TestCreateNoteUnknownNotebook(t *testing.T) {
	s := openTestStore(t)
	_, err := s.CreateNote(context.Background(), models.NewNote(999, "t", "c"))
	if !errors.Is(err, provider.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteSyncedNotebookLeavesTombstones(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	nb := models.Notebook{GUID: "nb-1", Name: "synced"}
	if err := s.PutNotebook(ctx, nb); err != nil {
		t.Fatalf("put notebook: %v", err)
	}
	if err := s.PutNote(ctx, models.Note{GUID: "note-1", Title: "t", Content: "c", NotebookGUID: "nb-1"}); err != nil {
		t.Fatalf("put note: %v", err)
	}
	list, err := s.ListNotebooks(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("list notebooks: %v %+v", err, list)
	}
	if err := s.DeleteNotebook(ctx, list[0].ID); err != nil {
		t.Fatalf("delete notebook: %v", err)
	}

	all, err := s.SyncNotebooks(ctx)
	if err != nil {
		t.Fatalf("sync notebooks: %v", err)
	}
	if len(all) != 1 || all[0].Action != models.ActionDelete {
		t.Fatalf("expected notebook tombstone, got %+v", all)
	}
	notes, err := s.SyncNotes(ctx)
	if err != nil {
		t.Fatalf("sync notes: %v", err)
	}
	if len(notes) != 1 || notes[0].Action != models.ActionDelete {
		t.Fatalf("expected note tombstone, got %+v", notes)
	}

	if err := s.PurgeNotebook(ctx, "nb-1"); err != nil {
		t.Fatalf("purge: %v", err)
	}
	notes, err = s.SyncNotes(ctx)
	if err != nil {
		t.Fatalf("sync notes: %v", err)
	}
	if len(notes) != 0 {
		t.Fatalf("expected cascade purge, got %+v", notes)
	}
}

func TestPutNoteRequiresKnownNotebook(t *testing.T) {
	s := openTestStore(t)
	err := s.PutNote(context.Background(), models.Note{GUID: "n", NotebookGUID: "missing"})
	if !errors.Is(err, provider.ErrInvalid) {
		t.Fatalf("expected invalid, got %v", err)
	}
}

func TestSyncDelaySetting(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	delay, err := s.GetSyncDelay(ctx)
	if err != nil {
		t.Fatalf("get delay: %v", err)
	}
	if delay != provider.DefaultSyncDelay {
		t.Fatalf("expected default delay, got %d", delay)
	}
	for _, want := range []int64{3600000, provider.SyncDelayManual, 600000} {
		if err := s.SetSyncDelay(ctx, want); err != nil {
			t.Fatalf("set delay %d: %v", want, err)
		}
		got, err := s.GetSyncDelay(ctx)
		if err != nil {
			t.Fatalf("get delay: %v", err)
		}
		if got != want {
			t.Fatalf("expected %d, got %d", want, got)
		}
	}
	if err := s.SetSyncDelay(ctx, 0); !errors.Is(err, provider.ErrInvalid) {
		t.Fatalf("expected invalid for zero delay, got %v", err)
	}
}

func TestInitIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("second init: %v", err)
	}
}
