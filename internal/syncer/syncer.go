// Package syncer reconciles the local store with a remote provider and
// schedules that work according to the stored sync delay.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gpad/internal/models"
	"gpad/internal/provider"
)

var (
	ErrSyncBusy      = errors.New("sync already in progress")
	ErrNotAuthorized = errors.New("not authorized: no auth token")
	ErrNoRemote      = errors.New("no remote configured")
)

var syncLock = make(chan struct{}, 1)

// Acquire takes the process-wide sync lock. The returned function releases it.
func Acquire(timeout time.Duration) (func(), error) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case syncLock <- struct{}{}:
		return func() { <-syncLock }, nil
	case <-timer.C:
		return nil, ErrSyncBusy
	}
}

type Report struct {
	NotebooksPushed  int `json:"notebooks_pushed"`
	NotebooksPulled  int `json:"notebooks_pulled"`
	NotebooksDeleted int `json:"notebooks_deleted"`
	NotesPushed      int `json:"notes_pushed"`
	NotesPulled      int `json:"notes_pulled"`
	NotesDeleted     int `json:"notes_deleted"`
}

func (r Report) Empty() bool {
	return r == Report{}
}

type TokenSource interface {
	HasToken() (bool, error)
}

type Syncer struct {
	local       provider.Replica
	remote      provider.Replica
	auth        TokenSource
	lockTimeout time.Duration
}

// New returns a syncer. remote may be nil, in which case Run fails with
// ErrNoRemote; auth may be nil to skip the token check.
func New(local, remote provider.Replica, auth TokenSource, lockTimeout time.Duration) *Syncer {
	return &Syncer{local: local, remote: remote, auth: auth, lockTimeout: lockTimeout}
}

func (s *Syncer) Run(ctx context.Context) (Report, error) {
	if s.remote == nil {
		return Report{}, ErrNoRemote
	}
	if s.auth != nil {
		ok, err := s.auth.HasToken()
		if err != nil {
			return Report{}, fmt.Errorf("check auth token: %w", err)
		}
		if !ok {
			return Report{}, ErrNotAuthorized
		}
	}
	release, err := Acquire(s.lockTimeout)
	if err != nil {
		return Report{}, err
	}
	defer release()

	start := time.Now()
	report, err := Reconcile(ctx, s.local, s.remote)
	if err != nil {
		slog.Warn("sync failed", "duration_ms", time.Since(start).Milliseconds(), "err", err)
		return report, err
	}
	slog.Info("sync done",
		"duration_ms", time.Since(start).Milliseconds(),
		"notebooks_pushed", report.NotebooksPushed,
		"notebooks_pulled", report.NotebooksPulled,
		"notebooks_deleted", report.NotebooksDeleted,
		"notes_pushed", report.NotesPushed,
		"notes_pulled", report.NotesPulled,
		"notes_deleted", report.NotesDeleted,
	)
	return report, nil
}

// Reconcile makes local and remote agree. Notebooks go first so that notes
// always find their notebook on the other side. Local deletions of notebooks
// always win; notes are settled last-writer-wins on their update time.
func Reconcile(ctx context.Context, local, remote provider.Replica) (Report, error) {
	var report Report
	if err := reconcileNotebooks(ctx, local, remote, &report); err != nil {
		return report, fmt.Errorf("sync notebooks: %w", err)
	}
	if err := reconcileNotes(ctx, local, remote, &report); err != nil {
		return report, fmt.Errorf("sync notes: %w", err)
	}
	return report, nil
}

func reconcileNotebooks(ctx context.Context, local, remote provider.Replica, report *Report) error {
	localAll, err := local.SyncNotebooks(ctx)
	if err != nil {
		return err
	}
	remoteAll, err := remote.SyncNotebooks(ctx)
	if err != nil {
		return err
	}
	remoteByGUID := make(map[string]models.Notebook, len(remoteAll))
	for _, nb := range remoteAll {
		remoteByGUID[nb.GUID] = nb
	}
	seen := make(map[string]bool, len(localAll))

	for _, l := range localAll {
		seen[l.GUID] = true
		r, onRemote := remoteByGUID[l.GUID]
		remoteLive := onRemote && r.Action != models.ActionDelete
		switch l.Action {
		case models.ActionDelete:
			if onRemote {
				if err := remote.PurgeNotebook(ctx, l.GUID); err != nil {
					return err
				}
			}
			if err := local.PurgeNotebook(ctx, l.GUID); err != nil {
				return err
			}
			report.NotebooksDeleted++
		case models.ActionCreate, models.ActionChange:
			if l.Action == models.ActionChange && remoteLive && r.UpdatedAt.After(l.UpdatedAt) {
				if err := local.PutNotebook(ctx, r); err != nil {
					return err
				}
				report.NotebooksPulled++
				continue
			}
			if err := remote.PutNotebook(ctx, l); err != nil {
				return err
			}
			if err := local.PutNotebook(ctx, l); err != nil {
				return err
			}
			report.NotebooksPushed++
		default:
			if !remoteLive {
				if err := local.PurgeNotebook(ctx, l.GUID); err != nil {
					return err
				}
				report.NotebooksDeleted++
				continue
			}
			if notebookChanged(l, r) {
				if err := local.PutNotebook(ctx, r); err != nil {
					return err
				}
				report.NotebooksPulled++
			}
		}
	}

	for _, r := range remoteAll {
		if seen[r.GUID] || r.Action == models.ActionDelete {
			continue
		}
		if err := local.PutNotebook(ctx, r); err != nil {
			return err
		}
		report.NotebooksPulled++
	}
	return nil
}

func reconcileNotes(ctx context.Context, local, remote provider.Replica, report *Report) error {
	localAll, err := local.SyncNotes(ctx)
	if err != nil {
		return err
	}
	remoteAll, err := remote.SyncNotes(ctx)
	if err != nil {
		return err
	}
	remoteByGUID := make(map[string]models.Note, len(remoteAll))
	for _, n := range remoteAll {
		remoteByGUID[n.GUID] = n
	}
	seen := make(map[string]bool, len(localAll))

	for _, l := range localAll {
		seen[l.GUID] = true
		r, onRemote := remoteByGUID[l.GUID]
		remoteLive := onRemote && r.Action != models.ActionDelete
		remoteNewer := remoteLive && r.Updated.After(l.Updated)
		switch l.Action {
		case models.ActionDelete:
			if remoteNewer {
				if err := local.PutNote(ctx, r); err != nil {
					return err
				}
				report.NotesPulled++
				continue
			}
			if onRemote {
				if err := remote.PurgeNote(ctx, l.GUID); err != nil {
					return err
				}
			}
			if err := local.PurgeNote(ctx, l.GUID); err != nil {
				return err
			}
			report.NotesDeleted++
		case models.ActionCreate, models.ActionChange:
			if l.Action == models.ActionChange && remoteNewer {
				if err := local.PutNote(ctx, r); err != nil {
					return err
				}
				report.NotesPulled++
				continue
			}
			if err := remote.PutNote(ctx, l); err != nil {
				return err
			}
			if err := local.PutNote(ctx, l); err != nil {
				return err
			}
			report.NotesPushed++
		default:
			if !remoteLive {
				if err := local.PurgeNote(ctx, l.GUID); err != nil {
					return err
				}
				report.NotesDeleted++
				continue
			}
			if noteChanged(l, r) {
				if err := local.PutNote(ctx, r); err != nil {
					return err
				}
				report.NotesPulled++
			}
		}
	}

	for _, r := range remoteAll {
		if seen[r.GUID] || r.Action == models.ActionDelete {
			continue
		}
		if err := local.PutNote(ctx, r); err != nil {
			return err
		}
		report.NotesPulled++
	}
	return nil
}

func notebookChanged(a, b models.Notebook) bool {
	return a.Name != b.Name || a.Default != b.Default || !a.UpdatedAt.Equal(b.UpdatedAt)
}

func noteChanged(a, b models.Note) bool {
	return a.Title != b.Title ||
		a.Content != b.Content ||
		a.NotebookGUID != b.NotebookGUID ||
		a.Place != b.Place ||
		!a.Updated.Equal(b.Updated)
}
