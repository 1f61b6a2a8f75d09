package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"gpad/internal/content"
	"gpad/internal/editor"
	"gpad/internal/models"
)

var (
	noteNotebook int64
	noteTitle    string
	editTitle    string
	noteContent  string
	noteTags     []string
)

var noteCmd = &cobra.Command{
	Use:   "note",
	Short: "Create, show and edit notes",
}

var noteCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a note; content is read from stdin when --content is \"-\"",
	Args:  exactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := contentFlag(cmd)
		if err != nil {
			return err
		}
		note := models.NewNote(noteNotebook, "", "")
		note.Tags = noteTags
		e := newEditor(note)
		e.SetTitle(noteTitle)
		e.SetContent(body)
		created, err := current.client.CreateNote(cmd.Context(), e.Note())
		if err != nil {
			return err
		}
		fmt.Fprintf(current.out, "note %d created\n", created.ID)
		return nil
	},
}

var noteShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a note",
	Args:  exactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		note, err := current.client.GetNote(cmd.Context(), id)
		if err != nil {
			return err
		}
		printNote(current.out, note)
		return nil
	},
}

var noteListCmd = &cobra.Command{
	Use:   "list <notebook-id>",
	Short: "List the notes of a notebook",
	Args:  exactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		notes, err := current.client.ListNotebookNotes(cmd.Context(), id)
		if err != nil {
			return err
		}
		for _, note := range notes {
			fmt.Fprintf(current.out, "%4d  %s\n", note.ID, note.Title)
		}
		return nil
	},
}

var noteEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change the title or content of a note",
	Args:  exactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		note, err := current.client.GetNote(cmd.Context(), id)
		if err != nil {
			return err
		}
		e := newEditor(note)
		if cmd.Flags().Changed("title") {
			e.SetTitle(editTitle)
		}
		if cmd.Flags().Changed("content") {
			body, err := contentFlag(cmd)
			if err != nil {
				return err
			}
			e.SetContent(body)
		}
		saved, err := e.Save(cmd.Context())
		if err != nil {
			return err
		}
		if saved {
			fmt.Fprintf(current.out, "note %d saved\n", id)
		} else {
			fmt.Fprintf(current.out, "note %d unchanged\n", id)
		}
		return nil
	},
}

var noteImportCmd = &cobra.Command{
	Use:   "import <file.md|pattern>...",
	Short: "Create notes from markdown files; patterns may use ** to recurse",
	Args:  minArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := expandImportPaths(args)
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			return usageError{fmt.Errorf("no files match %s", strings.Join(args, " "))}
		}
		for _, path := range paths {
			created, err := importNote(cmd.Context(), path)
			if err != nil {
				return fmt.Errorf("import %s: %w", path, err)
			}
			fmt.Fprintf(current.out, "note %d imported from %s\n", created.ID, path)
		}
		return nil
	},
}

func importNote(ctx context.Context, path string) (models.Note, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return models.Note{}, err
	}
	md, err := content.FromMarkdown(src)
	if err != nil {
		return models.Note{}, err
	}
	title := md.Title
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	note := models.NewNote(noteNotebook, title, md.HTML)
	note.Tags = noteTags
	return current.client.CreateNote(ctx, note)
}

// expandImportPaths resolves glob patterns, keeping plain paths as given.
// The result is sorted with duplicates removed.
func expandImportPaths(args []string) ([]string, error) {
	seen := make(map[string]bool)
	var paths []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}
	for _, arg := range args {
		if !strings.ContainsAny(arg, "*?[{") {
			add(arg)
			continue
		}
		matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
		if err != nil {
			return nil, usageError{fmt.Errorf("bad pattern %q: %w", arg, err)}
		}
		for _, m := range matches {
			add(m)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

var noteOpenLinkCmd = &cobra.Command{
	Use:   "open-link <note-id> <url>",
	Short: "Follow a link as if it was clicked inside a note",
	Args:  exactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		note, err := current.client.GetNote(cmd.Context(), id)
		if err != nil {
			return err
		}
		return newEditor(note).LinkClicked(cmd.Context(), args[1])
	},
}

var noteDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a note",
	Args:  exactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		ok, err := current.ui.Confirm("You try to delete a note", "Are you sure want to delete this note?")
		if err != nil || !ok {
			return err
		}
		if err := current.client.DeleteNote(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Fprintf(current.out, "note %d deleted\n", id)
		return nil
	},
}

func newEditor(note models.Note) *editor.Editor {
	return editor.New(note, current.client, printHost{out: current.out}, editor.WithNoteScheme(current.cfg.NoteScheme))
}

func contentFlag(cmd *cobra.Command) (string, error) {
	if noteContent != "-" {
		return noteContent, nil
	}
	raw, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read content: %w", err)
	}
	return strings.TrimRight(string(raw), "\n"), nil
}

func init() {
	for _, c := range []*cobra.Command{noteCreateCmd, noteImportCmd} {
		c.Flags().Int64Var(&noteNotebook, "notebook", models.NoneID, "Notebook id (default notebook when omitted)")
		c.Flags().StringSliceVar(&noteTags, "tag", nil, "Tag to attach, repeatable")
	}
	noteCreateCmd.Flags().StringVar(&noteTitle, "title", "New note", "Note title")
	noteCreateCmd.Flags().StringVar(&noteContent, "content", "", "Note content, \"-\" reads stdin")
	noteEditCmd.Flags().StringVar(&editTitle, "title", "", "New title")
	noteEditCmd.Flags().StringVar(&noteContent, "content", "", "New content, \"-\" reads stdin")
	noteCmd.AddCommand(noteCreateCmd, noteShowCmd, noteListCmd, noteEditCmd, noteImportCmd, noteOpenLinkCmd, noteDeleteCmd)
	rootCmd.AddCommand(noteCmd)
}
