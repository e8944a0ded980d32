package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/vintner-cli/vintner/internal/pipeline"
	"github.com/vintner-cli/vintner/internal/wrapper"
)

var createCmd = &cobra.Command{
	Use:          "create <name>",
	Short:        "Create a new wrapper app",
	GroupID:      groupWrappers,
	Args:         cobra.ExactArgs(1),
	RunE:         runCreate,
	SilenceUsage: true,
}

var listCmd = &cobra.Command{
	Use:          "list",
	Short:        "List wrapper apps",
	GroupID:      groupWrappers,
	Args:         cobra.NoArgs,
	RunE:         runList,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(listCmd)

	createCmd.Flags().String("engine", "", "Engine to install (default: configured or newest)")
	createCmd.Flags().String("program", "", "Windows path of the program to wrap")
	createCmd.Flags().Bool("skip-pipeline", false, "Create the bundle without running the setup pipeline")
}

func runCreate(cmd *cobra.Command, args []string) error {
	app, err := newAppContext()
	if err != nil {
		return err
	}

	engineName, _ := cmd.Flags().GetString("engine")
	eng, err := app.engineManager().Default(orDefault(engineName, app.cfg.Wine.DefaultEngine))
	if err != nil {
		return err
	}

	program, _ := cmd.Flags().GetString("program")
	w, err := app.wrapperStore().Create(wrapper.Wrapper{
		Name:    args[0],
		Engine:  eng.Name,
		Program: program,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Created %s (engine %s)\n", w.Path, eng.Name)

	if skip, _ := cmd.Flags().GetBool("skip-pipeline"); skip {
		return nil
	}

	reg, err := app.registry()
	if err != nil {
		return err
	}
	p, err := wrapper.CreatePipeline(w, reg)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	return executePipeline(ctx, app, p, pipeline.RunnerConfig{
		Env: wrapper.Env(w, app.enginesDir()),
	}, w.Name)
}

func runList(cmd *cobra.Command, args []string) error {
	app, err := newAppContext()
	if err != nil {
		return err
	}

	wrappers, err := app.wrapperStore().List()
	if err != nil {
		return err
	}
	if len(wrappers) == 0 {
		fmt.Println("No wrappers found.")
		fmt.Printf("Create one with: vintner create <name>\n")
		return nil
	}

	for _, w := range wrappers {
		fmt.Printf("%s%s%s  engine=%s", colorBold, w.Name, colorReset, w.Engine)
		if w.Program != "" {
			fmt.Printf("  program=%s", w.Program)
		}
		fmt.Println()
	}
	return nil
}

func orDefault(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
