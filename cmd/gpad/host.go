package main

import (
	"fmt"
	"io"
	"strings"

	"gpad/internal/models"
)

// printHost is the editor host of the command line: opening a note or a
// link prints it.
type printHost struct {
	out io.Writer
}

func (h printHost) Open(note models.Note) error {
	printNote(h.out, note)
	return nil
}

func (h printHost) OpenURL(link string) error {
	_, err := fmt.Fprintf(h.out, "open %s\n", link)
	return err
}

func printNote(w io.Writer, note models.Note) {
	fmt.Fprintf(w, "#%d %s\n", note.ID, note.Title)
	fmt.Fprintf(w, "guid: %s\n", note.GUID)
	fmt.Fprintf(w, "notebook: %d\n", note.Notebook)
	if len(note.Tags) > 0 {
		fmt.Fprintf(w, "tags: %s\n", strings.Join(note.Tags, ", "))
	}
	if !note.Updated.IsZero() {
		fmt.Fprintf(w, "updated: %s\n", note.Updated.Local().Format("2006-01-02 15:04"))
	}
	for _, res := range note.Resources {
		fmt.Fprintf(w, "resource: %s (%s)\n", res.FileName, res.Mime)
	}
	fmt.Fprintf(w, "\n%s\n", note.Content)
}
