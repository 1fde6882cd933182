// Package ledger orchestrates session logging and report building.
package ledger

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jrhoades1/claude-tracking/pkg/models"
	"github.com/jrhoades1/claude-tracking/pkg/registry"
	"github.com/jrhoades1/claude-tracking/pkg/store"
)

// Updater is notified after a session has been logged.
type Updater interface {
	Update(ctx context.Context) error
}

// Engine appends usage, maintains the registry and builds reports.
type Engine struct {
	store        store.UsageStore
	registry     registry.Registry
	pricing      models.Pricing
	expenseFiles []string
	afterLog     Updater
	now          func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithExpenseFiles sets the file names searched for tenant expense documents.
func WithExpenseFiles(names []string) Option {
	return func(e *Engine) { e.expenseFiles = names }
}

// WithClock overrides the report timestamp clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an Engine.
func New(st store.UsageStore, reg registry.Registry, pricing models.Pricing, opts ...Option) *Engine {
	e := &Engine{
		store:        st,
		registry:     reg,
		pricing:      pricing,
		expenseFiles: []string{"billing.json"},
		now:          func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// AfterLog registers u to run once each session is logged.
func (e *Engine) AfterLog(u Updater) {
	e.afterLog = u
}

// Pricing returns the pricing the engine allocates with.
func (e *Engine) Pricing() models.Pricing {
	return e.pricing
}

// LogSession appends rec, then refreshes the registry, then runs the
// after-log updater. Only the append can fail the call; later steps are
// best effort and only logged.
func (e *Engine) LogSession(ctx context.Context, rec models.SessionUsageRecord) error {
	if err := e.store.Append(ctx, rec); err != nil {
		return fmt.Errorf("log session: %w", err)
	}
	fields := log.Fields{"tenant": rec.Tenant(), "session": rec.SessionID}
	log.WithFields(fields).Debug("session logged")

	if err := e.registry.Upsert(ctx, rec.Tenant(), rec.Location); err != nil {
		log.WithFields(fields).WithError(err).Warn("registry update failed")
	}

	if e.afterLog != nil {
		if err := e.afterLog.Update(ctx); err != nil {
			log.WithFields(fields).WithError(err).Warn("dashboard update failed")
		}
	}
	return nil
}

// Tenants loads the registry, treating an unavailable registry as empty.
func (e *Engine) Tenants(ctx context.Context) models.Registry {
	reg, err := e.registry.Load(ctx)
	if err != nil {
		log.WithError(err).Warn("registry unavailable")
		return models.Registry{}
	}
	return reg
}

// Records returns the raw records matching f.
func (e *Engine) Records(ctx context.Context, f store.Filter) ([]models.SessionUsageRecord, error) {
	recs, err := store.Collect(e.store.Scan(ctx, f))
	if err != nil {
		return nil, fmt.Errorf("records: %w", err)
	}
	return recs, nil
}
