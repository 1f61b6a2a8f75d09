// Package editor binds a note's title and content to an editing surface.
package editor

import (
	"context"
	"fmt"

	"gpad/internal/content"
	"gpad/internal/models"
)

const DefaultNoteScheme = "evernote"

// NoteService is the part of the provider the editor needs.
type NoteService interface {
	GetNoteByGUID(ctx context.Context, guid string) (models.Note, error)
	UpdateNote(ctx context.Context, note models.Note) (models.Note, error)
}

// Host opens notes and external links on behalf of the editor.
type Host interface {
	Open(note models.Note) error
	OpenURL(link string) error
}

type Option func(*Editor)

// WithNoteScheme sets the URL scheme of internal note links.
func WithNoteScheme(scheme string) Option {
	return func(e *Editor) {
		if scheme != "" {
			e.scheme = scheme
		}
	}
}

type Editor struct {
	note    models.Note
	title   string
	content string
	loaded  string
	notes   NoteService
	host    Host
	scheme  string
}

func New(note models.Note, notes NoteService, host Host, opts ...Option) *Editor {
	e := &Editor{
		notes:  notes,
		host:   host,
		scheme: DefaultNoteScheme,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.load(note)
	return e
}

func (e *Editor) load(note models.Note) {
	e.note = note
	e.title = note.Title
	e.content = prepareContent(note.Content)
	e.loaded = e.content
}

func (e *Editor) Title() string {
	return e.title
}

func (e *Editor) SetTitle(title string) {
	e.title = title
}

func (e *Editor) Content() string {
	return e.content
}

// SetContent stores repaired content with bare URLs turned into links.
func (e *Editor) SetContent(value string) {
	e.content = prepareContent(value)
}

func prepareContent(value string) string {
	return content.SetLinks(content.Sanitize(value))
}

// Note returns the edited note without saving it.
func (e *Editor) Note() models.Note {
	note := e.note
	note.Title = e.title
	note.Content = e.content
	return note
}

// Dirty reports whether the title or content were edited since the note was
// loaded. Content is compared after preparation, so opening a note with bare
// URLs or repairable markup does not count as an edit.
func (e *Editor) Dirty() bool {
	return e.title != e.note.Title || e.content != e.loaded
}

// Save writes the note through the provider when it changed.
func (e *Editor) Save(ctx context.Context) (bool, error) {
	if !e.Dirty() {
		return false, nil
	}
	updated, err := e.notes.UpdateNote(ctx, e.Note())
	if err != nil {
		return false, fmt.Errorf("save note %d: %w", e.note.ID, err)
	}
	e.load(updated)
	return true, nil
}

// LinkClicked opens internal note links by guid and hands every other link
// to the host.
func (e *Editor) LinkClicked(ctx context.Context, link string) error {
	guid, ok := content.NoteLinkGUID(link, e.scheme)
	if !ok {
		return e.host.OpenURL(link)
	}
	note, err := e.notes.GetNoteByGUID(ctx, guid)
	if err != nil {
		return fmt.Errorf("resolve note link %q: %w", guid, err)
	}
	return e.host.Open(note)
}
