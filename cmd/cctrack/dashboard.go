package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newDashboardCmd(configPath *string) *cobra.Command {
	var watch, publishing bool

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Regenerate the Markdown spend dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			publishing = publishing || a.cfg.Dashboard.Publish
			d := a.dashboard(publishing)
			if err := d.Update(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Dashboard updated: %s\n", a.cfg.Dashboard.Readme)
			if !watch {
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			log.WithField("debounce", a.cfg.Dashboard.Debounce).Info("watching usage data")
			if err := d.Watch(ctx, a.watchedFiles(), a.cfg.Dashboard.Debounce); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "keep running and regenerate when usage data changes")
	cmd.Flags().BoolVar(&publishing, "publish", false, "commit and push the dashboard after writing it")
	return cmd
}
