package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Ask the provider to sync with the remote service now",
	Args:  exactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := current.client.RunSync(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(current.out, "notebooks: %d pushed, %d pulled, %d deleted\n",
			report.NotebooksPushed, report.NotebooksPulled, report.NotebooksDeleted)
		fmt.Fprintf(current.out, "notes: %d pushed, %d pulled, %d deleted\n",
			report.NotesPushed, report.NotesPulled, report.NotesDeleted)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show authorisation, sync delay and notebooks",
	Args:  exactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := current.manager().Refresh(cmd.Context())
		if err != nil {
			return err
		}
		auth := "not authorised"
		if state.Authorized {
			auth = "authorised"
		}
		delay := "custom"
		if state.SelectedDelay >= 0 {
			delay = state.Delays[state.SelectedDelay].Label
		}
		fmt.Fprintf(current.out, "provider: %s\n", current.cfg.RPCURL())
		fmt.Fprintf(current.out, "auth: %s\n", auth)
		fmt.Fprintf(current.out, "sync delay: %s\n", delay)
		if state.NotebookTabEnabled {
			printNotebookRows(state.Notebooks)
		}
		return nil
	},
}

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List tags with their note counts",
	Args:  exactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		tags, err := current.client.ListTags(cmd.Context())
		if err != nil {
			return err
		}
		for _, tag := range tags {
			fmt.Fprintf(current.out, "%s (%d)\n", tag.Name, tag.Count)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd, statusCmd, tagsCmd)
}
