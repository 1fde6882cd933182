package main

import (
	"context"
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jrhoades1/claude-tracking/pkg/hook"
)

// newHookCmd logs one session from a Stop hook event on stdin. It always
// exits zero so a tracking failure never breaks the assistant session.
func newHookCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "hook",
		Short: "Record a session from a Stop hook event read on stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*configPath)
			if err != nil {
				fmt.Fprintln(os.Stderr, "cctrack hook:", err)
				return nil
			}
			defer a.Close()

			if a.cfg.Dashboard.UpdateOnLog {
				a.engine.AfterLog(a.dashboard(a.cfg.Dashboard.Publish))
			}

			payload, err := hook.ReadPayload(cmd.InOrStdin())
			if err != nil {
				// The empty payload is still logged so the firing is visible.
				log.WithError(err).Warn("hook: unreadable event")
			}
			rec, err := payload.Record(time.Now())
			if err != nil {
				log.WithFields(log.Fields{"session": rec.SessionID, "tenant": rec.TenantCode}).
					WithError(err).Warn("hook: usage incomplete")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()
			if err := a.engine.LogSession(ctx, rec); err != nil {
				log.WithField("session", rec.SessionID).WithError(err).Error("hook: session not logged")
				return nil
			}
			log.WithFields(log.Fields{
				"session": rec.SessionID,
				"tenant":  rec.TenantCode,
				"tokens":  rec.InputTokens + rec.OutputTokens,
			}).Info("session logged")
			return nil
		},
	}
}
