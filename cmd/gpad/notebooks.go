package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"gpad/internal/management"
	"gpad/internal/models"
)

var errNotAuthorised = errors.New("notebook management needs authorisation, run \"gpad auth login\" first")

var notebooksCmd = &cobra.Command{
	Use:     "notebooks",
	Aliases: []string{"nb"},
	Short:   "List and manage notebooks",
}

var notebooksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notebooks with their note counts",
	Args:  exactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := openManager(cmd.Context())
		if err != nil {
			return err
		}
		printNotebookRows(m.State().Notebooks)
		return nil
	},
}

var notebooksCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a notebook, asking for a unique name",
	Args:  exactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := openManager(cmd.Context())
		if err != nil {
			return err
		}
		_, err = m.CreateNotebook(cmd.Context())
		return err
	},
}

var notebooksRenameCmd = &cobra.Command{
	Use:   "rename <id>",
	Short: "Rename a notebook, asking for a unique name",
	Args:  exactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := openManager(cmd.Context())
		if err != nil {
			return err
		}
		nb, err := notebookArg(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		_, err = m.RenameNotebook(cmd.Context(), nb)
		return err
	},
}

var notebooksDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a notebook and every note in it",
	Args:  exactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := openManager(cmd.Context())
		if err != nil {
			return err
		}
		nb, err := notebookArg(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		_, err = m.DeleteNotebook(cmd.Context(), nb)
		return err
	},
}

// openManager refreshes the management view and refuses notebook commands
// while no auth token is stored.
func openManager(ctx context.Context) (*management.Manager, error) {
	m := current.manager()
	state, err := m.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	if !state.NotebookTabEnabled {
		return nil, errNotAuthorised
	}
	return m, nil
}

func notebookArg(ctx context.Context, raw string) (models.Notebook, error) {
	id, err := parseID(raw)
	if err != nil {
		return models.Notebook{}, err
	}
	return current.client.GetNotebook(ctx, id)
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, usageError{fmt.Errorf("invalid id %q", raw)}
	}
	return id, nil
}

func printNotebookRows(rows []management.NotebookRow) {
	if len(rows) == 0 {
		fmt.Fprintln(current.out, "no notebooks")
		return
	}
	for _, row := range rows {
		marker := ""
		if row.Notebook.Default {
			marker = " (default)"
		}
		fmt.Fprintf(current.out, "%4d  %s%s  %s\n", row.Notebook.ID, row.Name, marker, row.Summary)
	}
}

func init() {
	notebooksCmd.AddCommand(notebooksListCmd, notebooksCreateCmd, notebooksRenameCmd, notebooksDeleteCmd)
	rootCmd.AddCommand(notebooksCmd)
}
