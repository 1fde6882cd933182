package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	var configPath string

	root := &cobra.Command{
		Use:           "cctrack",
		Short:         "Track assistant token usage per project and split the bill",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default $CCTRACK_CONFIG)")

	root.AddCommand(
		newHookCmd(&configPath),
		newReportCmd(&configPath),
		newExpensesCmd(&configPath),
		newDashboardCmd(&configPath),
		newProjectsCmd(&configPath),
		newRequirementsCmd(&configPath),
		newImportCmd(&configPath),
		newMCPCmd(&configPath),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
