package main

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jrhoades1/claude-tracking/pkg/models"
	"github.com/jrhoades1/claude-tracking/pkg/requirements"
)

func newRequirementsCmd(configPath *string) *cobra.Command {
	var (
		project string
		status  string
		detail  bool
	)

	cmd := &cobra.Command{
		Use:   "requirements",
		Short: "List requirement documents across projects by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			reg := a.engine.Tenants(cmd.Context())
			if project != "" {
				entry, ok := reg[project]
				if !ok {
					return fmt.Errorf("unknown project %q", project)
				}
				reg = models.Registry{project: entry}
			}

			all, errs := requirements.Collect(reg)
			for _, err := range errs {
				log.WithError(err).Warn("requirement skipped")
			}
			fmt.Fprint(cmd.OutOrStdout(), requirements.Text(all, status, detail))
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "restrict to one project code")
	cmd.Flags().StringVar(&status, "status", "", "only show requirements with this status")
	cmd.Flags().BoolVar(&detail, "detail", false, "list titles and priorities")
	return cmd
}
