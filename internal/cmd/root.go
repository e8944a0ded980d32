// Package cmd implements the vintner command line interface.
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

const (
	groupWrappers = "wrappers"
	groupEngines  = "engines"
	groupSetup    = "setup"
)

var rootCmd = &cobra.Command{
	Use:   "vintner",
	Short: "Manage Wine wrapper apps",
	Long: `vintner - build and manage Wine wrapper apps
  - create self-contained .app wrappers with their own prefix and engine
  - run configuration pipelines with live progress`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: groupWrappers, Title: "Wrapper Commands:"},
		&cobra.Group{ID: groupEngines, Title: "Engine Commands:"},
		&cobra.Group{ID: groupSetup, Title: "Setup Commands:"},
	)
}

// setupLogging installs the default slog logger at the configured level.
// Logs go to stderr so pipeline output on stdout stays clean.
func setupLogging(level string) {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
}
