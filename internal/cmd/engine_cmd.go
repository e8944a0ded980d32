package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var engineCmd = &cobra.Command{
	Use:     "engine",
	Short:   "Manage Wine engines",
	GroupID: groupEngines,
}

var engineListCmd = &cobra.Command{
	Use:          "list",
	Short:        "List installed engines",
	Args:         cobra.NoArgs,
	RunE:         runEngineList,
	SilenceUsage: true,
}

var engineInstallCmd = &cobra.Command{
	Use:          "install <archive.tar.gz>",
	Short:        "Install an engine archive",
	Args:         cobra.ExactArgs(1),
	RunE:         runEngineInstall,
	SilenceUsage: true,
}

func init() {
	engineCmd.AddCommand(engineListCmd)
	engineCmd.AddCommand(engineInstallCmd)
	rootCmd.AddCommand(engineCmd)
}

func runEngineList(cmd *cobra.Command, args []string) error {
	app, err := newAppContext()
	if err != nil {
		return err
	}

	engines, err := app.engineManager().List()
	if err != nil {
		return err
	}
	if len(engines) == 0 {
		fmt.Println("No engines installed.")
		fmt.Printf("Install one with: vintner engine install <archive.tar.gz>\n")
		return nil
	}

	defaultName := app.cfg.Wine.DefaultEngine
	for _, e := range engines {
		marker := " "
		if e.Name == defaultName {
			marker = "*"
		}
		fmt.Printf("%s %s%s%s  %.1f MB\n", marker, colorBold, e.Name, colorReset,
			float64(e.Size)/(1024*1024))
	}
	return nil
}

func runEngineInstall(cmd *cobra.Command, args []string) error {
	app, err := newAppContext()
	if err != nil {
		return err
	}

	e, err := app.engineManager().Install(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Installed %s to %s\n", e.Name, e.Path)
	return nil
}
