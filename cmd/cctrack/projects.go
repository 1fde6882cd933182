package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jrhoades1/claude-tracking/pkg/models"
	"github.com/jrhoades1/claude-tracking/pkg/registry"
)

func newProjectsCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List registered project codes",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			if !a.registry.Exists() {
				fmt.Fprintln(os.Stderr, "Registry missing; rebuilt from the usage log.")
			}
			entries := registry.Sorted(a.engine.Tenants(cmd.Context()))
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No projects registered.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PROJECT\tLAST SEEN\tLOCATION")
			for _, e := range entries {
				seen := "-"
				if !e.LastSeen.IsZero() {
					seen = e.LastSeen.Format(models.DateLayout)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", e.Code, seen, e.Location)
			}
			return w.Flush()
		},
	}
}
