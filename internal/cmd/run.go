package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vintner-cli/vintner/internal/pipeline"
	"github.com/vintner-cli/vintner/internal/wrapper"
)

var runCmd = &cobra.Command{
	Use:          "run <pipeline.yml>",
	Short:        "Execute a pipeline file",
	GroupID:      groupWrappers,
	Args:         cobra.ExactArgs(1),
	RunE:         runPipelineFile,
	SilenceUsage: true,
}

var validateCmd = &cobra.Command{
	Use:          "validate <pipeline.yml>",
	Short:        "Validate a pipeline file without executing",
	GroupID:      groupWrappers,
	Args:         cobra.ExactArgs(1),
	RunE:         validatePipelineFile,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)

	runCmd.Flags().StringSlice("var", nil, "Set template variable (key=value)")
	runCmd.Flags().String("workdir", "", "Working directory for steps")
	runCmd.Flags().String("wrapper", "", "Run against a wrapper's environment")
}

func runPipelineFile(cmd *cobra.Command, args []string) error {
	app, err := newAppContext()
	if err != nil {
		return err
	}

	def, err := loadPipelineDef(args[0])
	if err != nil {
		return err
	}

	reg, err := app.registry()
	if err != nil {
		return err
	}

	p, err := pipeline.Build(def, reg)
	if err != nil {
		return err
	}

	env := map[string]string{}
	if name, _ := cmd.Flags().GetString("wrapper"); name != "" {
		w, err := app.wrapperStore().Load(name)
		if err != nil {
			return err
		}
		for k, v := range wrapper.Env(w, app.enginesDir()) {
			env[k] = v
		}
	}
	vars, _ := cmd.Flags().GetStringSlice("var")
	for k, v := range parseVarFlags(vars) {
		env[k] = v
	}

	workdir, _ := cmd.Flags().GetString("workdir")
	wrapperName, _ := cmd.Flags().GetString("wrapper")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	return executePipeline(ctx, app, p, pipeline.RunnerConfig{
		WorkDir: workdir,
		Env:     env,
	}, wrapperName)
}

func validatePipelineFile(cmd *cobra.Command, args []string) error {
	if _, err := loadPipelineDef(args[0]); err != nil {
		return err
	}
	fmt.Printf("%s is valid\n", args[0])
	return nil
}

// loadPipelineDef reads, parses, and validates a pipeline file.
func loadPipelineDef(path string) (*pipeline.PipelineDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pipeline file: %w", err)
	}

	def, err := pipeline.ParsePipeline(data)
	if err != nil {
		return nil, &ExitError{Code: ExitValidationError, Message: fmt.Sprintf("parsing pipeline: %v", err)}
	}

	if errs := pipeline.Validate(def); len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(os.Stderr, "validation error: %s\n", e)
		}
		return nil, &ExitError{
			Code:    ExitValidationError,
			Message: fmt.Sprintf("pipeline validation failed with %d errors", len(errs)),
		}
	}
	return def, nil
}

// parseVarFlags turns --var key=value flags into a map. Malformed entries
// without "=" are ignored.
func parseVarFlags(vars []string) map[string]string {
	out := make(map[string]string, len(vars))
	for _, v := range vars {
		key, value, ok := strings.Cut(v, "=")
		if !ok || key == "" {
			continue
		}
		out[key] = value
	}
	return out
}
