package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/vintner-cli/vintner/internal/pipeline"
	"github.com/vintner-cli/vintner/internal/wrapper"
)

var winecfgCmd = &cobra.Command{
	Use:          "winecfg <wrapper>",
	Short:        "Open the Wine configuration tool for a wrapper",
	GroupID:      groupWrappers,
	Args:         cobra.ExactArgs(1),
	RunE:         runWinecfg,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(winecfgCmd)
}

// runWinecfg spawns winecfg attached to the terminal instead of going
// through the pipeline runner, so the tool stays interactive.
func runWinecfg(cmd *cobra.Command, args []string) error {
	app, err := newAppContext()
	if err != nil {
		return err
	}

	w, err := app.wrapperStore().Load(args[0])
	if err != nil {
		return err
	}

	reg, err := app.registry()
	if err != nil {
		return err
	}
	template, err := reg.Resolve("winecfg")
	if err != nil {
		return err
	}

	values := wrapper.Env(w, app.enginesDir())
	statements := pipeline.SplitStatements(pipeline.Expand(template, values))
	if len(statements) == 0 {
		return fmt.Errorf("winecfg script is empty")
	}

	env := pipeline.NewEnvironment(values)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	shell := pipeline.NewShellAdapter()
	for _, stmt := range statements {
		// The terminal's stdin is handed to the child directly, so the
		// tool stays interactive without a forwarding goroutine.
		proc, err := shell.Spawn(ctx, pipeline.Command{
			Statement:   stmt,
			Shell:       app.cfg.Run.Shell,
			Env:         env.Slice(),
			Stdin:       os.Stdin,
			GracePeriod: time.Duration(app.cfg.Run.GracePeriodMs) * time.Millisecond,
		}, os.Stdout)
		if err != nil {
			return err
		}

		res, err := proc.Wait(ctx)
		if err != nil {
			return err
		}
		if res.Failed() {
			return &ExitError{
				Code:    ExitStepFailed,
				Message: fmt.Sprintf("winecfg exited with code %d", res.ExitCode),
			}
		}
	}
	return nil
}
