package management

import (
	"fmt"

	"gpad/internal/models"
	"gpad/internal/provider"
)

type DelayOption struct {
	Label string
	Delay int64
}

// SyncDelays lists the selectable sync intervals in display order.
func SyncDelays() []DelayOption {
	delays := make([]DelayOption, 0, 6)
	for _, minutes := range []int64{5, 10, 15, 30} {
		delays = append(delays, DelayOption{
			Label: fmt.Sprintf("%d minutes", minutes),
			Delay: minutes * 60 * 1000,
		})
	}
	delays = append(delays,
		DelayOption{Label: "One hour", Delay: 3600000},
		DelayOption{Label: "Manual", Delay: provider.SyncDelayManual},
	)
	return delays
}

// DelayIndex returns the selector index for delay, or -1.
func DelayIndex(delay int64) int {
	for i, opt := range SyncDelays() {
		if opt.Delay == delay {
			return i
		}
	}
	return -1
}

type State struct {
	Delays             []DelayOption
	SelectedDelay      int
	Authorized         bool
	AuthLabel          string
	NotebookTabEnabled bool
	Notebooks          []NotebookRow
}

type NotebookAction struct {
	Label   string
	Enabled bool
}

type NotebookRow struct {
	Notebook models.Notebook
	Name     string
	Summary  string
	Actions  []NotebookAction
}

// Row maps a notebook and its note count to its display record.
func Row(notebook models.Notebook, count int) NotebookRow {
	return NotebookRow{
		Notebook: notebook,
		Name:     notebook.Name,
		Summary:  fmt.Sprintf("Contains %d notes", count),
		Actions: []NotebookAction{
			{Label: "Change Name", Enabled: true},
			{Label: "Remove Notebook", Enabled: true},
		},
	}
}
