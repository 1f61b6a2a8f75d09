// Package rpc carries the provider contract over HTTP/JSON between the
// provider daemon and its clients.
package rpc

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"gpad/internal/models"
	"gpad/internal/provider"
	"gpad/internal/syncer"
)

const maxBodyBytes = 32 << 20

// Backend is everything the daemon serves.
type Backend interface {
	provider.Provider
	provider.Replica
}

type Hooks struct {
	// RunSync runs one synchronization on demand.
	RunSync func(ctx context.Context) (syncer.Report, error)
	// SyncDelayChanged is called after a new delay was stored.
	SyncDelayChanged func(delay int64)
}

type Server struct {
	backend Backend
	token   string
	hooks   Hooks
	mux     *http.ServeMux
}

func NewServer(backend Backend, token string, hooks Hooks) *Server {
	s := &Server{
		backend: backend,
		token:   strings.TrimSpace(token),
		hooks:   hooks,
		mux:     http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.logRequests(s.requireToken(s.mux))
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /notebooks", s.handleListNotebooks)
	s.mux.HandleFunc("POST /notebooks", s.handleCreateNotebook)
	s.mux.HandleFunc("GET /notebooks/{id}", s.handleGetNotebook)
	s.mux.HandleFunc("PUT /notebooks/{id}", s.handleUpdateNotebook)
	s.mux.HandleFunc("DELETE /notebooks/{id}", s.handleDeleteNotebook)
	s.mux.HandleFunc("GET /notebooks/{id}/count", s.handleNotebookCount)
	s.mux.HandleFunc("GET /notebooks/{id}/notes", s.handleNotebookNotes)

	s.mux.HandleFunc("GET /settings/sync-delay", s.handleGetSyncDelay)
	s.mux.HandleFunc("PUT /settings/sync-delay", s.handleSetSyncDelay)

	s.mux.HandleFunc("POST /notes", s.handleCreateNote)
	s.mux.HandleFunc("GET /notes/{id}", s.handleGetNote)
	s.mux.HandleFunc("PUT /notes/{id}", s.handleUpdateNote)
	s.mux.HandleFunc("DELETE /notes/{id}", s.handleDeleteNote)
	s.mux.HandleFunc("GET /notes/guid/{guid}", s.handleGetNoteByGUID)

	s.mux.HandleFunc("GET /tags", s.handleListTags)

	s.mux.HandleFunc("GET /sync/notebooks", s.handleSyncNotebooks)
	s.mux.HandleFunc("PUT /sync/notebooks", s.handlePutNotebook)
	s.mux.HandleFunc("DELETE /sync/notebooks/{guid}", s.handlePurgeNotebook)
	s.mux.HandleFunc("GET /sync/notes", s.handleSyncNotes)
	s.mux.HandleFunc("PUT /sync/notes", s.handlePutNote)
	s.mux.HandleFunc("DELETE /sync/notes/{guid}", s.handlePurgeNote)
	s.mux.HandleFunc("POST /sync/run", s.handleRunSync)
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	if s.token == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(s.token)) != 1 {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status  int
	capture bool
	body    bytes.Buffer
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	if r.capture {
		r.body.Write(p)
	}
	return r.ResponseWriter.Write(p)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		debug := slog.Default().Enabled(r.Context(), slog.LevelDebug)
		if debug && r.Body != nil {
			body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
			if err == nil {
				r.Body = io.NopCloser(bytes.NewReader(body))
				slog.Debug("rpc request", "method", r.Method, "path", r.URL.Path, "body", string(body))
			}
		}
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK, capture: debug}
		next.ServeHTTP(rec, r)
		if debug {
			slog.Debug("rpc response", "method", r.Method, "path", r.URL.Path, "status", rec.status, "body", rec.body.String())
		}
		level := slog.LevelInfo
		if rec.status >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		slog.Log(r.Context(), level, "rpc", "method", r.Method, "path", r.URL.Path, "status", rec.status, "duration_ms", time.Since(start).Milliseconds())
	})
}

type errorBody struct {
	Error string `json:"error"`
}

type nameBody struct {
	Name string `json:"name"`
}

type delayBody struct {
	Delay int64 `json:"delay"`
}

type countBody struct {
	Count int `json:"count"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("rpc encode response", "err", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorBody{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, provider.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, provider.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, syncer.ErrSyncBusy):
		return http.StatusConflict
	case errors.Is(err, syncer.ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, syncer.ErrNoRemote):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return errors.Join(provider.ErrInvalid, err)
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return 0, errors.Join(provider.ErrInvalid, err)
	}
	return id, nil
}

func (s *Server) handleListNotebooks(w http.ResponseWriter, r *http.Request) {
	notebooks, err := s.backend.ListNotebooks(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notebooks)
}

func (s *Server) handleCreateNotebook(w http.ResponseWriter, r *http.Request) {
	var body nameBody
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	nb, err := s.backend.CreateNotebook(r.Context(), body.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, nb)
}

func (s *Server) handleGetNotebook(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	nb, err := s.backend.GetNotebook(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nb)
}

func (s *Server) handleUpdateNotebook(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var nb models.Notebook
	if err := decode(r, &nb); err != nil {
		writeError(w, err)
		return
	}
	nb.ID = id
	updated, err := s.backend.UpdateNotebook(r.Context(), nb)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteNotebook(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.backend.DeleteNotebook(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleNotebookCount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	count, err := s.backend.GetNotebookNotesCount(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, countBody{Count: count})
}

func (s *Server) handleNotebookNotes(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	notes, err := s.backend.ListNotebookNotes(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

func (s *Server) handleGetSyncDelay(w http.ResponseWriter, r *http.Request) {
	delay, err := s.backend.GetSyncDelay(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, delayBody{Delay: delay})
}

func (s *Server) handleSetSyncDelay(w http.ResponseWriter, r *http.Request) {
	var body delayBody
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	if err := s.backend.SetSyncDelay(r.Context(), body.Delay); err != nil {
		writeError(w, err)
		return
	}
	if s.hooks.SyncDelayChanged != nil {
		s.hooks.SyncDelayChanged(body.Delay)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	var note models.Note
	if err := decode(r, &note); err != nil {
		writeError(w, err)
		return
	}
	created, err := s.backend.CreateNote(r.Context(), note)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetNote(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	note, err := s.backend.GetNote(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (s *Server) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var note models.Note
	if err := decode(r, &note); err != nil {
		writeError(w, err)
		return
	}
	note.ID = id
	updated, err := s.backend.UpdateNote(r.Context(), note)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.backend.DeleteNote(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetNoteByGUID(w http.ResponseWriter, r *http.Request) {
	note, err := s.backend.GetNoteByGUID(r.Context(), r.PathValue("guid"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.backend.ListTags(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

func (s *Server) handleSyncNotebooks(w http.ResponseWriter, r *http.Request) {
	notebooks, err := s.backend.SyncNotebooks(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notebooks)
}

func (s *Server) handlePutNotebook(w http.ResponseWriter, r *http.Request) {
	var nb models.Notebook
	if err := decode(r, &nb); err != nil {
		writeError(w, err)
		return
	}
	if err := s.backend.PutNotebook(r.Context(), nb); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePurgeNotebook(w http.ResponseWriter, r *http.Request) {
	if err := s.backend.PurgeNotebook(r.Context(), r.PathValue("guid")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSyncNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := s.backend.SyncNotes(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

func (s *Server) handlePutNote(w http.ResponseWriter, r *http.Request) {
	var note models.Note
	if err := decode(r, &note); err != nil {
		writeError(w, err)
		return
	}
	if err := s.backend.PutNote(r.Context(), note); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePurgeNote(w http.ResponseWriter, r *http.Request) {
	if err := s.backend.PurgeNote(r.Context(), r.PathValue("guid")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRunSync(w http.ResponseWriter, r *http.Request) {
	if s.hooks.RunSync == nil {
		writeError(w, syncer.ErrNoRemote)
		return
	}
	report, err := s.hooks.RunSync(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
