// Package management is the toolkit-free model behind the settings dialog:
// sync delay, authorization and notebook administration.
package management

import (
	"context"
	"fmt"
	"strings"

	"gpad/internal/models"
)

const (
	labelAuthorize       = "Authorise"
	labelRemoveAuthorize = "Remove Authorisation"

	promptEnterName    = "Enter notebook name:"
	promptNameExists   = "Notebook with this name already exists. Enter notebook name:"
	promptNameRequired = "Notebook name must not be empty. Enter notebook name:"
)

type Provider interface {
	ListNotebooks(ctx context.Context) ([]models.Notebook, error)
	CreateNotebook(ctx context.Context, name string) (models.Notebook, error)
	UpdateNotebook(ctx context.Context, notebook models.Notebook) (models.Notebook, error)
	DeleteNotebook(ctx context.Context, id int64) error
	GetNotebookNotesCount(ctx context.Context, id int64) (int, error)
	GetSyncDelay(ctx context.Context) (int64, error)
	SetSyncDelay(ctx context.Context, delay int64) error
}

type Authorizer interface {
	HasToken() (bool, error)
	SetToken(token string) error
	RemoveToken() error
}

// UI asks the user for input. Prompt returns ok=false when the user cancels.
type UI interface {
	Prompt(title, label string) (value string, ok bool, err error)
	Confirm(title, message string) (bool, error)
}

type Notifier interface {
	Notify(message string)
}

type NotifierFunc func(message string)

func (f NotifierFunc) Notify(message string) { f(message) }

type Manager struct {
	provider Provider
	auth     Authorizer
	ui       UI
	notify   Notifier
	state    State
}

func New(provider Provider, auth Authorizer, ui UI, notify Notifier) *Manager {
	if notify == nil {
		notify = NotifierFunc(func(string) {})
	}
	return &Manager{
		provider: provider,
		auth:     auth,
		ui:       ui,
		notify:   notify,
		state:    State{Delays: SyncDelays(), SelectedDelay: -1},
	}
}

// State returns the view computed by the last Refresh.
func (m *Manager) State() State {
	return m.state
}

// Refresh re-reads the sync delay, the auth state and, when authorized, the
// notebooks.
func (m *Manager) Refresh(ctx context.Context) (State, error) {
	delay, err := m.provider.GetSyncDelay(ctx)
	if err != nil {
		return m.state, fmt.Errorf("get sync delay: %w", err)
	}
	authorized, err := m.auth.HasToken()
	if err != nil {
		return m.state, fmt.Errorf("check auth token: %w", err)
	}
	state := State{
		Delays:        SyncDelays(),
		SelectedDelay: DelayIndex(delay),
		Authorized:    authorized,
	}
	if !authorized {
		state.AuthLabel = labelAuthorize
		state.NotebookTabEnabled = false
		m.state = state
		return state, nil
	}
	state.AuthLabel = labelRemoveAuthorize
	state.NotebookTabEnabled = true
	rows, err := m.notebookRows(ctx)
	if err != nil {
		return m.state, err
	}
	state.Notebooks = rows
	m.state = state
	return state, nil
}

func (m *Manager) notebookRows(ctx context.Context) ([]NotebookRow, error) {
	notebooks, err := m.provider.ListNotebooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list notebooks: %w", err)
	}
	rows := make([]NotebookRow, 0, len(notebooks))
	for _, nb := range notebooks {
		count, err := m.provider.GetNotebookNotesCount(ctx, nb.ID)
		if err != nil {
			return nil, fmt.Errorf("count notes of notebook %d: %w", nb.ID, err)
		}
		rows = append(rows, Row(nb, count))
	}
	return rows, nil
}

// SetSyncDelay stores the delay of the selector entry at index.
func (m *Manager) SetSyncDelay(ctx context.Context, index int) error {
	delays := SyncDelays()
	if index < 0 || index >= len(delays) {
		return fmt.Errorf("sync delay index %d out of range", index)
	}
	if err := m.provider.SetSyncDelay(ctx, delays[index].Delay); err != nil {
		return fmt.Errorf("set sync delay: %w", err)
	}
	m.state.SelectedDelay = index
	return nil
}

func (m *Manager) CreateNotebook(ctx context.Context) (bool, error) {
	name, ok, err := m.newNotebookName(ctx, "Create new notebook", "")
	if err != nil || !ok {
		return false, err
	}
	if _, err := m.provider.CreateNotebook(ctx, name); err != nil {
		return false, fmt.Errorf("create notebook: %w", err)
	}
	m.notify.Notify(fmt.Sprintf("Notebook %q created!", name))
	_, err = m.Refresh(ctx)
	return true, err
}

func (m *Manager) RenameNotebook(ctx context.Context, notebook models.Notebook) (bool, error) {
	name, ok, err := m.newNotebookName(ctx, "Change notebook name", notebook.Name)
	if err != nil || !ok {
		return false, err
	}
	notebook.Name = name
	if _, err := m.provider.UpdateNotebook(ctx, notebook); err != nil {
		return false, fmt.Errorf("rename notebook: %w", err)
	}
	m.notify.Notify(fmt.Sprintf("Notebook %q renamed!", name))
	_, err = m.Refresh(ctx)
	return true, err
}

// DeleteNotebook removes the notebook and its notes after the user confirms.
func (m *Manager) DeleteNotebook(ctx context.Context, notebook models.Notebook) (bool, error) {
	ok, err := m.ui.Confirm(
		"You try to delete a notebook",
		"Are you sure want to delete this notebook and notes in it?",
	)
	if err != nil || !ok {
		return false, err
	}
	if err := m.provider.DeleteNotebook(ctx, notebook.ID); err != nil {
		return false, fmt.Errorf("delete notebook: %w", err)
	}
	m.notify.Notify(fmt.Sprintf("Notebook %q deleted!", notebook.Name))
	_, err = m.Refresh(ctx)
	return true, err
}

func (m *Manager) Authorize(ctx context.Context, token string) error {
	if err := m.auth.SetToken(token); err != nil {
		return fmt.Errorf("store auth token: %w", err)
	}
	m.notify.Notify("Authorised!")
	_, err := m.Refresh(ctx)
	return err
}

func (m *Manager) RemoveAuthorization(ctx context.Context) error {
	if err := m.auth.RemoveToken(); err != nil {
		return fmt.Errorf("remove auth token: %w", err)
	}
	m.notify.Notify("Authorisation removed!")
	_, err := m.Refresh(ctx)
	return err
}

// newNotebookName prompts until the user enters a name no other notebook
// uses, or cancels. exclude is the notebook's own current name.
func (m *Manager) newNotebookName(ctx context.Context, title, exclude string) (string, bool, error) {
	notebooks, err := m.provider.ListNotebooks(ctx)
	if err != nil {
		return "", false, fmt.Errorf("list notebooks: %w", err)
	}
	taken := make(map[string]bool, len(notebooks))
	for _, nb := range notebooks {
		taken[nb.Name] = true
	}
	delete(taken, exclude)

	name, ok, err := m.ui.Prompt(title, promptEnterName)
	for err == nil && ok {
		// the store keeps names trimmed, so collisions are checked the same way
		name = strings.TrimSpace(name)
		switch {
		case name == "":
			name, ok, err = m.ui.Prompt(title, promptNameRequired)
		case taken[name]:
			name, ok, err = m.ui.Prompt(title, promptNameExists)
		default:
			return name, true, nil
		}
	}
	return "", false, err
}
