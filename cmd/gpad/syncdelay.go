package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"gpad/internal/management"
)

var syncDelayCmd = &cobra.Command{
	Use:   "sync-delay",
	Short: "Show or change how often the provider syncs",
}

var syncDelayGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show the sync delay options and the current one",
	Args:  exactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := current.manager().Refresh(cmd.Context())
		if err != nil {
			return err
		}
		for i, opt := range state.Delays {
			marker := " "
			if i == state.SelectedDelay {
				marker = "*"
			}
			fmt.Fprintf(current.out, "%s %d  %s\n", marker, i, opt.Label)
		}
		return nil
	},
}

var syncDelaySetCmd = &cobra.Command{
	Use:   "set <index|label>",
	Short: "Select a sync delay by index or label",
	Args:  exactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := delayChoice(args[0])
		if err != nil {
			return err
		}
		m := current.manager()
		if err := m.SetSyncDelay(cmd.Context(), index); err != nil {
			return err
		}
		fmt.Fprintf(current.out, "sync delay set to %s\n", management.SyncDelays()[index].Label)
		return nil
	},
}

func delayChoice(raw string) (int, error) {
	delays := management.SyncDelays()
	if i, err := strconv.Atoi(raw); err == nil && i >= 0 && i < len(delays) {
		return i, nil
	}
	for i, opt := range delays {
		if strings.EqualFold(opt.Label, strings.TrimSpace(raw)) {
			return i, nil
		}
	}
	return 0, usageError{fmt.Errorf("unknown sync delay %q", raw)}
}

func init() {
	syncDelayCmd.AddCommand(syncDelayGetCmd, syncDelaySetCmd)
	rootCmd.AddCommand(syncDelayCmd)
}
