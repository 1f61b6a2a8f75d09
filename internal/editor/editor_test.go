package editor

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"gpad/internal/models"
	"gpad/internal/provider"
	"gpad/internal/store"
)

var contents = []string{
	"<ul><li>23</li><li>567</li></ul>",
	"<p>123</p>\u00a0\u00a0ok",
	"<p>\u00a0\u00a0123</p><p>\u00a0\u00a0\u00a0\u00a0ok</p>",
	"<p>hello, i'am fat</p>",
	"<ul><li>1</li><li><ul><li>2</li><li>3</li></ul></li><li>4</li></ul>",
}

var changingContents = []struct {
	prev    string
	current string
}{
	{"<p>< a b cd</p>", "<p>&lt; a b cd</p>"},
	{"> a b cd", "&gt; a b cd"},
	{"<p>ok</p><a b cd", "<p>ok</p>"},
}

var titles = []string{
	"&lt;&lt;ok ok ok",
	strings.Repeat("verybigtitle", 50),
	"ok<p asdasd",
}

type fakeHost struct {
	opened []models.Note
	urls   []string
}

func (h *fakeHost) Open(note models.Note) error {
	h.opened = append(h.opened, note)
	return nil
}

func (h *fakeHost) OpenURL(link string) error {
	h.urls = append(h.urls, link)
	return nil
}

type lookupService struct {
	NoteService
	guids []string
	note  models.Note
	err   error
}

func (s *lookupService) GetNoteByGUID(_ context.Context, guid string) (models.Note, error) {
	s.guids = append(s.guids, guid)
	return s.note, s.err
}

func newTestNote(t *testing.T) (*store.Store, models.Note) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "gpad.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	ctx := context.Background()
	require.NoError(t, s.Init(ctx))
	nb, err := s.CreateNotebook(ctx, "test")
	require.NoError(t, err)
	note, err := s.CreateNote(ctx, models.NewNote(nb.ID, "New note", "New note content"))
	require.NoError(t, err)
	return s, note
}

func TestContentNoChange(t *testing.T) {
	s, note := newTestNote(t)
	e := New(note, s, &fakeHost{})
	require.Equal(t, "New note content", e.Content())
	for _, c := range contents {
		e.SetContent(c)
		require.Equal(t, c, e.Content())
	}
}

func TestContentChanging(t *testing.T) {
	s, note := newTestNote(t)
	e := New(note, s, &fakeHost{})
	for _, tc := range changingContents {
		e.SetContent(tc.prev)
		require.Equal(t, tc.current, e.Content())
	}
}

func TestTitleNoChange(t *testing.T) {
	s, note := newTestNote(t)
	e := New(note, s, &fakeHost{})
	require.Equal(t, "New note", e.Title())
	for _, title := range titles {
		e.SetTitle(title)
		require.Equal(t, title, e.Title())
	}
	require.Len(t, titles[1], 600)
}

func TestNotBrokenNoteLinks(t *testing.T) {
	s, note := newTestNote(t)
	link := `<a href="evernote:///view/123/123/123/">note link</a>`
	note.Content = link
	e := New(note, s, &fakeHost{})
	require.Equal(t, link, e.Content())
}

func TestContentAutoLinks(t *testing.T) {
	s, note := newTestNote(t)
	e := New(note, s, &fakeHost{})
	e.SetContent("https://github.com/nvbn/")
	require.Equal(t, `<a href="https://github.com/nvbn/">https://github.com/nvbn/</a>`, e.Content())
}

func TestOpenNoteLinks(t *testing.T) {
	_, note := newTestNote(t)
	host := &fakeHost{}
	service := &lookupService{note: models.Note{ID: 123}}
	e := New(note, service, host)

	require.NoError(t, e.LinkClicked(context.Background(), "evernote:///view/123/123/guid/123/"))
	require.Equal(t, []string{"guid"}, service.guids)
	require.Len(t, host.opened, 1)
	require.Equal(t, int64(123), host.opened[0].ID)
	require.Empty(t, host.urls)
}

func TestOpenNoteLinksAgainstStore(t *testing.T) {
	s, note := newTestNote(t)
	host := &fakeHost{}
	e := New(note, s, host)

	require.NoError(t, e.LinkClicked(context.Background(), "evernote:///view/1/2/"+note.GUID+"/3/"))
	require.Len(t, host.opened, 1)
	require.Equal(t, note.ID, host.opened[0].ID)
}

func TestCustomNoteScheme(t *testing.T) {
	_, note := newTestNote(t)
	host := &fakeHost{}
	service := &lookupService{note: models.Note{ID: 7}}
	e := New(note, service, host, WithNoteScheme("gpad"))

	require.NoError(t, e.LinkClicked(context.Background(), "evernote:///view/1/2/guid/3/"))
	require.Empty(t, service.guids)
	require.Equal(t, []string{"evernote:///view/1/2/guid/3/"}, host.urls)

	require.NoError(t, e.LinkClicked(context.Background(), "gpad:///view/1/2/guid/3/"))
	require.Equal(t, []string{"guid"}, service.guids)
}

func TestExternalLinksGoToHost(t *testing.T) {
	_, note := newTestNote(t)
	host := &fakeHost{}
	service := &lookupService{}
	e := New(note, service, host)

	require.NoError(t, e.LinkClicked(context.Background(), "https://github.com/nvbn/"))
	require.Equal(t, []string{"https://github.com/nvbn/"}, host.urls)
	require.Empty(t, service.guids)
}

func TestUnknownNoteLink(t *testing.T) {
	_, note := newTestNote(t)
	host := &fakeHost{}
	service := &lookupService{err: provider.ErrNotFound}
	e := New(note, service, host)

	err := e.LinkClicked(context.Background(), "evernote:///view/1/2/missing/3/")
	require.True(t, errors.Is(err, provider.ErrNotFound))
	require.Empty(t, host.opened)
}

func TestSaveOnlyWhenDirty(t *testing.T) {
	s, note := newTestNote(t)
	ctx := context.Background()
	e := New(note, s, &fakeHost{})
	require.False(t, e.Dirty())

	saved, err := e.Save(ctx)
	require.NoError(t, err)
	require.False(t, saved)

	e.SetTitle("Renamed")
	e.SetContent("<p>body</p>")
	require.True(t, e.Dirty())
	saved, err = e.Save(ctx)
	require.NoError(t, err)
	require.True(t, saved)
	require.False(t, e.Dirty())

	stored, err := s.GetNote(ctx, note.ID)
	require.NoError(t, err)
	require.Equal(t, "Renamed", stored.Title)
	require.Equal(t, "<p>body</p>", stored.Content)
}

type recordingService struct {
	NoteService
	updates []models.Note
}

func (s *recordingService) UpdateNote(_ context.Context, note models.Note) (models.Note, error) {
	s.updates = append(s.updates, note)
	return note, nil
}

func TestOpeningPreparedContentIsNotAnEdit(t *testing.T) {
	service := &recordingService{}
	e := New(models.Note{ID: 1, Title: "links", Content: "see http://x.y/"}, service, &fakeHost{})
	require.Equal(t, `see <a href="http://x.y/">http://x.y/</a>`, e.Content())
	require.False(t, e.Dirty())

	saved, err := e.Save(context.Background())
	require.NoError(t, err)
	require.False(t, saved)
	require.Empty(t, service.updates)

	e.SetContent("see http://x.y/ again")
	require.True(t, e.Dirty())
	saved, err = e.Save(context.Background())
	require.NoError(t, err)
	require.True(t, saved)
	require.Len(t, service.updates, 1)
	require.False(t, e.Dirty())
}
