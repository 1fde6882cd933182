package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jrhoades1/claude-tracking/pkg/mcp"
)

func newMCPCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve usage reports over MCP on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			return mcp.New(a.engine, version).Run(cmd.Context(), os.Stdin, os.Stdout)
		},
	}
}
