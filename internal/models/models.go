package models

import "time"

// NoneID marks a record that has not been stored yet.
const NoneID int64 = -1

type Action int

const (
	ActionNone Action = iota
	ActionCreate
	ActionChange
	ActionDelete
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionCreate:
		return "create"
	case ActionChange:
		return "change"
	case ActionDelete:
		return "delete"
	}
	return "unknown"
}

type Notebook struct {
	ID        int64     `json:"id"`
	GUID      string    `json:"guid"`
	Name      string    `json:"name"`
	Default   bool      `json:"default"`
	UpdatedAt time.Time `json:"updated_at"`
	Action    Action    `json:"action"`
}

type Note struct {
	ID           int64      `json:"id"`
	GUID         string     `json:"guid"`
	Title        string     `json:"title"`
	Content      string     `json:"content"`
	Tags         []string   `json:"tags"`
	Notebook     int64      `json:"notebook"`
	NotebookGUID string     `json:"notebook_guid,omitempty"`
	Created      time.Time  `json:"created"`
	Updated      time.Time  `json:"updated"`
	Place        string     `json:"place"`
	Resources    []Resource `json:"resources,omitempty"`
	Action       Action     `json:"action"`
}

// NewNote returns an unsaved note in the given notebook.
func NewNote(notebook int64, title, content string) Note {
	return Note{
		ID:       NoneID,
		Title:    title,
		Content:  content,
		Tags:     []string{},
		Notebook: notebook,
	}
}

type Tag struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type Resource struct {
	ID       int64  `json:"id"`
	FileName string `json:"file_name"`
	Mime     string `json:"mime"`
	Hash     string `json:"hash"`
	Data     []byte `json:"data,omitempty"`
}
