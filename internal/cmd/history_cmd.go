package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:          "history",
	Short:        "Show recent pipeline runs",
	GroupID:      groupSetup,
	Args:         cobra.NoArgs,
	RunE:         runHistory,
	SilenceUsage: true,
}

var historyShowCmd = &cobra.Command{
	Use:          "show <run-id>",
	Short:        "Show the steps of one run",
	Args:         cobra.ExactArgs(1),
	RunE:         runHistoryShow,
	SilenceUsage: true,
}

func init() {
	historyCmd.AddCommand(historyShowCmd)
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().Int("limit", 20, "Maximum number of runs to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	app, err := newAppContext()
	if err != nil {
		return err
	}

	store, err := app.historyStore()
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.ListRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	for _, run := range runs {
		started := time.UnixMilli(run.StartedAt).Format("2006-01-02 15:04:05")
		fmt.Printf("%s  %s%-9s%s  %.2fs  %s\n",
			started, statusColor(run.Status), run.Status, colorReset,
			float64(run.DurationMs)/1000, run.Pipeline)
		fmt.Printf("  %sid: %s%s\n", colorDim, run.ID, colorReset)
	}
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	app, err := newAppContext()
	if err != nil {
		return err
	}

	store, err := app.historyStore()
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.GetRun(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Printf("%s%s%s  %s%s%s  %.2fs\n", colorBold, run.Pipeline, colorReset,
		statusColor(run.Status), run.Status, colorReset, float64(run.DurationMs)/1000)

	steps, err := store.GetSteps(cmd.Context(), run.ID)
	if err != nil {
		return err
	}
	for _, step := range steps {
		fmt.Printf("  %s%-9s%s  %s/%s  exit=%d  %.2fs\n",
			statusColor(step.Status), step.Status, colorReset,
			step.Job, step.Step, step.ExitCode, float64(step.DurationMs)/1000)
	}
	return nil
}

func statusColor(status string) string {
	switch status {
	case "success":
		return colorGreen
	case "error":
		return colorRed
	case "cancelled":
		return colorYellow
	default:
		return colorDim
	}
}
