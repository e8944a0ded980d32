package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var scriptsCmd = &cobra.Command{
	Use:          "scripts",
	Short:        "List available named scripts",
	GroupID:      groupSetup,
	Args:         cobra.NoArgs,
	RunE:         runScripts,
	SilenceUsage: true,
}

var scriptsShowCmd = &cobra.Command{
	Use:          "show <id>",
	Short:        "Print a script template",
	Args:         cobra.ExactArgs(1),
	RunE:         runScriptsShow,
	SilenceUsage: true,
}

func init() {
	scriptsCmd.AddCommand(scriptsShowCmd)
	rootCmd.AddCommand(scriptsCmd)
}

func runScripts(cmd *cobra.Command, args []string) error {
	app, err := newAppContext()
	if err != nil {
		return err
	}

	reg, err := app.registry()
	if err != nil {
		return err
	}

	for _, entry := range reg.List() {
		origin := "user"
		if entry.Builtin {
			origin = "builtin"
		}
		fmt.Printf("%s%s%s  %s(%s)%s  %s\n", colorBold, entry.ID, colorReset,
			colorDim, origin, colorReset, entry.Script.Description)
	}
	return nil
}

func runScriptsShow(cmd *cobra.Command, args []string) error {
	app, err := newAppContext()
	if err != nil {
		return err
	}

	reg, err := app.registry()
	if err != nil {
		return err
	}

	template, err := reg.Resolve(args[0])
	if err != nil {
		return err
	}
	fmt.Print(template)
	return nil
}
