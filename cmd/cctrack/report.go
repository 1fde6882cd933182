package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jrhoades1/claude-tracking/pkg/ledger"
	"github.com/jrhoades1/claude-tracking/pkg/models"
	"github.com/jrhoades1/claude-tracking/pkg/report"
)

func resolvePeriod(month string) (models.Period, error) {
	if month == "" {
		return models.CurrentPeriod(), nil
	}
	return models.ParsePeriod(month)
}

func newReportCmd(configPath *string) *cobra.Command {
	var (
		month    string
		all      bool
		project  string
		markdown bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show usage and allocated cost per project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if all && month != "" {
				return fmt.Errorf("--all and --month are mutually exclusive")
			}
			q := ledger.Query{Tenant: project}
			if !all {
				p, err := resolvePeriod(month)
				if err != nil {
					return err
				}
				q.Period = &p
			}

			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			rep, err := a.engine.BuildReport(cmd.Context(), q)
			if err != nil {
				return err
			}
			out := report.Text(rep)
			if markdown {
				out = report.Markdown(rep)
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "billing month YYYY-MM (default current month)")
	cmd.Flags().BoolVar(&all, "all", false, "report every recorded session")
	cmd.Flags().StringVar(&project, "project", "", "restrict to one project code")
	cmd.Flags().BoolVar(&markdown, "markdown", false, "render as the dashboard Markdown")
	return cmd
}

func newExpensesCmd(configPath *string) *cobra.Command {
	var month, project string

	cmd := &cobra.Command{
		Use:   "expenses",
		Short: "Show project expenses due in a month",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := resolvePeriod(month)
			if err != nil {
				return err
			}
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			fmt.Fprint(cmd.OutOrStdout(), report.Expenses(p.ShortLabel(), a.engine.Expenses(cmd.Context(), p, project)))
			return nil
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "billing month YYYY-MM (default current month)")
	cmd.Flags().StringVar(&project, "project", "", "restrict to one project code")
	return cmd
}
