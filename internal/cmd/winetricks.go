package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/vintner-cli/vintner/internal/pipeline"
	"github.com/vintner-cli/vintner/internal/wrapper"
)

var winetricksCmd = &cobra.Command{
	Use:          "winetricks <wrapper> <verb>...",
	Short:        "Run winetricks verbs inside a wrapper's prefix",
	GroupID:      groupWrappers,
	Args:         cobra.MinimumNArgs(2),
	RunE:         runWinetricks,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(winetricksCmd)
}

func runWinetricks(cmd *cobra.Command, args []string) error {
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
	p, err := wrapper.WinetricksPipeline(w, args[1:], reg)
	if err != nil {
		return err
	}

	env := wrapper.Env(w, app.enginesDir())
	env["WINETRICKS_BIN"] = app.cfg.Wine.WinetricksBin

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	return executePipeline(ctx, app, p, pipeline.RunnerConfig{Env: env}, w.Name)
}
