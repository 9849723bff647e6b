package main

import (
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"agentforge/internal/store"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent generation runs",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of runs to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.ListRuns(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		pterm.Info.Println("No runs recorded yet")
		return nil
	}

	rows := pterm.TableData{{"When", "Agent", "State", "Attempts", "Artifact"}}
	for _, run := range runs {
		rows = append(rows, []string{
			run.CreatedAt.Local().Format(time.DateTime),
			run.AgentName,
			run.State,
			pterm.Sprintf("%d", run.Attempts),
			run.ArtifactPath,
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}
