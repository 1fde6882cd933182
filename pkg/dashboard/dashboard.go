// Package dashboard regenerates the Markdown spend dashboard.
package dashboard

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"

	"github.com/jrhoades1/claude-tracking/pkg/ledger"
	"github.com/jrhoades1/claude-tracking/pkg/models"
	"github.com/jrhoades1/claude-tracking/pkg/publish"
	"github.com/jrhoades1/claude-tracking/pkg/report"
)

// ReportBuilder produces the report the dashboard renders.
type ReportBuilder interface {
	BuildReport(ctx context.Context, q ledger.Query) (*ledger.Report, error)
}

// Dashboard writes the README for the current month and optionally
// publishes it.
type Dashboard struct {
	builder   ReportBuilder
	path      string
	publisher publish.Publisher
	now       func() time.Time
}

// New returns a dashboard writing to path. publisher may be nil.
func New(b ReportBuilder, path string, publisher publish.Publisher) *Dashboard {
	return &Dashboard{
		builder:   b,
		path:      path,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Render returns the dashboard for p without writing it.
func (d *Dashboard) Render(ctx context.Context, p models.Period) (string, error) {
	rep, err := d.builder.BuildReport(ctx, ledger.Query{Period: &p})
	if err != nil {
		return "", fmt.Errorf("dashboard: %w", err)
	}
	return report.Markdown(rep), nil
}

// Update regenerates the README for the current month, then publishes.
func (d *Dashboard) Update(ctx context.Context) error {
	content, err := d.Render(ctx, models.PeriodOf(d.now()))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(d.path), 0o755); err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}
	if err := os.WriteFile(d.path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("dashboard: write %s: %w", d.path, err)
	}
	log.WithField("path", d.path).Debug("dashboard written")

	if d.publisher == nil {
		return nil
	}
	if err := d.publisher.Publish(ctx); err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}

// Watch regenerates the dashboard whenever one of the watched files changes,
// waiting for debounce of quiet before each update. It blocks until ctx is
// cancelled. Update failures are logged and the watch continues.
func (d *Dashboard) Watch(ctx context.Context, files []string, debounce time.Duration) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("dashboard watch: %w", err)
	}
	defer watcher.Close()

	// Watch directories so files replaced by rename keep being observed.
	wanted := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return fmt.Errorf("dashboard watch: %w", err)
		}
		wanted[abs] = true
		wanted[abs+"-wal"] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("dashboard watch: %w", err)
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("dashboard watch %s: %w", dir, err)
		}
	}

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !wanted[filepath.Clean(event.Name)] {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("dashboard watch error")
		case <-timer.C:
			if err := d.Update(ctx); err != nil {
				log.WithError(err).Warn("dashboard update failed")
			} else {
				log.WithField("path", d.path).Info("dashboard regenerated")
			}
		}
	}
}
