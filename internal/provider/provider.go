// Package provider defines the contract between the front ends and the
// service that owns note storage and sync.
package provider

import (
	"context"
	"errors"

	"gpad/internal/models"
)

var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid request")
)

// SyncDelayManual disables scheduled sync.
const SyncDelayManual int64 = -1

// DefaultSyncDelay is used when no delay has been stored.
const DefaultSyncDelay int64 = 5 * 60 * 1000

type Provider interface {
	ListNotebooks(ctx context.Context) ([]models.Notebook, error)
	GetNotebook(ctx context.Context, id int64) (models.Notebook, error)
	CreateNotebook(ctx context.Context, name string) (models.Notebook, error)
	UpdateNotebook(ctx context.Context, notebook models.Notebook) (models.Notebook, error)
	DeleteNotebook(ctx context.Context, id int64) error
	GetNotebookNotesCount(ctx context.Context, id int64) (int, error)
	ListNotebookNotes(ctx context.Context, id int64) ([]models.Note, error)

	GetSyncDelay(ctx context.Context) (int64, error)
	SetSyncDelay(ctx context.Context, delay int64) error

	CreateNote(ctx context.Context, note models.Note) (models.Note, error)
	GetNote(ctx context.Context, id int64) (models.Note, error)
	GetNoteByGUID(ctx context.Context, guid string) (models.Note, error)
	UpdateNote(ctx context.Context, note models.Note) (models.Note, error)
	DeleteNote(ctx context.Context, id int64) error

	ListTags(ctx context.Context) ([]models.Tag, error)
}

// Replica is the record-level view of a provider used by sync. Records are
// matched by guid and carry their pending sync action.
type Replica interface {
	SyncNotebooks(ctx context.Context) ([]models.Notebook, error)
	PutNotebook(ctx context.Context, notebook models.Notebook) error
	PurgeNotebook(ctx context.Context, guid string) error
	SyncNotes(ctx context.Context) ([]models.Note, error)
	PutNote(ctx context.Context, note models.Note) error
	PurgeNote(ctx context.Context, guid string) error
}
