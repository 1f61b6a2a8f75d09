package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gpad/internal/models"
	"gpad/internal/provider"
	"gpad/internal/syncer"
)

// ErrUnauthorized is returned when the daemon rejects the bearer token.
var ErrUnauthorized = errors.New("rpc token rejected")

// Client talks to a provider daemon. It implements both the provider and
// the replica contract, so it can stand in as the remote side of a sync.
type Client struct {
	base  string
	token string
	http  *http.Client
}

var (
	_ provider.Provider = (*Client)(nil)
	_ provider.Replica  = (*Client)(nil)
)

func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		base:  strings.TrimRight(baseURL, "/"),
		token: strings.TrimSpace(token),
		http:  &http.Client{Timeout: timeout},
	}
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	var payload []byte
	if in != nil {
		var err error
		payload, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	slog.Debug("rpc call", "method", method, "path", path, "body", string(payload))
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%s %s: read response: %w", method, path, err)
	}
	slog.Debug("rpc reply", "method", method, "path", path, "status", resp.StatusCode, "body", string(raw))
	if resp.StatusCode >= 300 {
		return responseError(resp.StatusCode, raw)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

func responseError(status int, raw []byte) error {
	var body errorBody
	msg := strings.TrimSpace(string(raw))
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		msg = body.Error
	}
	var sentinel error
	switch status {
	case http.StatusNotFound:
		sentinel = provider.ErrNotFound
	case http.StatusBadRequest:
		sentinel = provider.ErrInvalid
	case http.StatusUnauthorized:
		sentinel = ErrUnauthorized
	case http.StatusConflict:
		sentinel = syncer.ErrSyncBusy
	case http.StatusForbidden:
		sentinel = syncer.ErrNotAuthorized
	case http.StatusServiceUnavailable:
		sentinel = syncer.ErrNoRemote
	default:
		return fmt.Errorf("rpc status %d: %s", status, msg)
	}
	return fmt.Errorf("%s: %w", msg, sentinel)
}

func idPath(prefix string, id int64) string {
	return prefix + "/" + strconv.FormatInt(id, 10)
}

func (c *Client) ListNotebooks(ctx context.Context) ([]models.Notebook, error) {
	var out []models.Notebook
	err := c.do(ctx, http.MethodGet, "/notebooks", nil, &out)
	return out, err
}

func (c *Client) GetNotebook(ctx context.Context, id int64) (models.Notebook, error) {
	var out models.Notebook
	err := c.do(ctx, http.MethodGet, idPath("/notebooks", id), nil, &out)
	return out, err
}

func (c *Client) CreateNotebook(ctx context.Context, name string) (models.Notebook, error) {
	var out models.Notebook
	err := c.do(ctx, http.MethodPost, "/notebooks", nameBody{Name: name}, &out)
	return out, err
}

func (c *Client) UpdateNotebook(ctx context.Context, notebook models.Notebook) (models.Notebook, error) {
	var out models.Notebook
	err := c.do(ctx, http.MethodPut, idPath("/notebooks", notebook.ID), notebook, &out)
	return out, err
}

func (c *Client) DeleteNotebook(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, idPath("/notebooks", id), nil, nil)
}

func (c *Client) GetNotebookNotesCount(ctx context.Context, id int64) (int, error) {
	var out countBody
	err := c.do(ctx, http.MethodGet, idPath("/notebooks", id)+"/count", nil, &out)
	return out.Count, err
}

func (c *Client) ListNotebookNotes(ctx context.Context, id int64) ([]models.Note, error) {
	var out []models.Note
	err := c.do(ctx, http.MethodGet, idPath("/notebooks", id)+"/notes", nil, &out)
	return out, err
}

func (c *Client) GetSyncDelay(ctx context.Context) (int64, error) {
	var out delayBody
	err := c.do(ctx, http.MethodGet, "/settings/sync-delay", nil, &out)
	return out.Delay, err
}

func (c *Client) SetSyncDelay(ctx context.Context, delay int64) error {
	return c.do(ctx, http.MethodPut, "/settings/sync-delay", delayBody{Delay: delay}, nil)
}

func (c *Client) CreateNote(ctx context.Context, note models.Note) (models.Note, error) {
	var out models.Note
	err := c.do(ctx, http.MethodPost, "/notes", note, &out)
	return out, err
}

func (c *Client) GetNote(ctx context.Context, id int64) (models.Note, error) {
	var out models.Note
	err := c.do(ctx, http.MethodGet, idPath("/notes", id), nil, &out)
	return out, err
}

func (c *Client) GetNoteByGUID(ctx context.Context, guid string) (models.Note, error) {
	var out models.Note
	err := c.do(ctx, http.MethodGet, "/notes/guid/"+url.PathEscape(guid), nil, &out)
	return out, err
}

func (c *Client) UpdateNote(ctx context.Context, note models.Note) (models.Note, error) {
	var out models.Note
	err := c.do(ctx, http.MethodPut, idPath("/notes", note.ID), note, &out)
	return out, err
}

func (c *Client) DeleteNote(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, idPath("/notes", id), nil, nil)
}

func (c *Client) ListTags(ctx context.Context) ([]models.Tag, error) {
	var out []models.Tag
	err := c.do(ctx, http.MethodGet, "/tags", nil, &out)
	return out, err
}

func (c *Client) SyncNotebooks(ctx context.Context) ([]models.Notebook, error) {
	var out []models.Notebook
	err := c.do(ctx, http.MethodGet, "/sync/notebooks", nil, &out)
	return out, err
}

func (c *Client) PutNotebook(ctx context.Context, notebook models.Notebook) error {
	return c.do(ctx, http.MethodPut, "/sync/notebooks", notebook, nil)
}

func (c *Client) PurgeNotebook(ctx context.Context, guid string) error {
	return c.do(ctx, http.MethodDelete, "/sync/notebooks/"+url.PathEscape(guid), nil, nil)
}

func (c *Client) SyncNotes(ctx context.Context) ([]models.Note, error) {
	var out []models.Note
	err := c.do(ctx, http.MethodGet, "/sync/notes", nil, &out)
	return out, err
}

func (c *Client) PutNote(ctx context.Context, note models.Note) error {
	return c.do(ctx, http.MethodPut, "/sync/notes", note, nil)
}

func (c *Client) PurgeNote(ctx context.Context, guid string) error {
	return c.do(ctx, http.MethodDelete, "/sync/notes/"+url.PathEscape(guid), nil, nil)
}

// RunSync asks the daemon to synchronize with its remote now.
func (c *Client) RunSync(ctx context.Context) (syncer.Report, error) {
	var out syncer.Report
	err := c.do(ctx, http.MethodPost, "/sync/run", nil, &out)
	return out, err
}
