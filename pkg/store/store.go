// Package store persists session usage records in an append-only log.
package store

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/jrhoades1/claude-tracking/pkg/config"
	"github.com/jrhoades1/claude-tracking/pkg/models"
)

// ErrInvalidRecord is returned by Append for records with negative token counts.
var ErrInvalidRecord = errors.New("invalid usage record")

// UsageStore is an append-only ledger of session usage.
type UsageStore interface {
	// Append durably writes one record.
	Append(ctx context.Context, rec models.SessionUsageRecord) error
	// Scan yields the records matching f in append order. The sequence can
	// be ranged over repeatedly; a missing store yields nothing.
	Scan(ctx context.Context, f Filter) iter.Seq2[models.SessionUsageRecord, error]
	// Close releases resources.
	Close() error
}

// Filter restricts a scan. The zero Filter matches everything ("all time").
type Filter struct {
	Period *models.Period
	Tenant string
}

// Month returns a filter for a single period.
func Month(p models.Period) Filter {
	return Filter{Period: &p}
}

// Match reports whether rec passes the filter.
func (f Filter) Match(rec models.SessionUsageRecord) bool {
	if f.Period != nil && !f.Period.Contains(rec.Date) {
		return false
	}
	if f.Tenant != "" && rec.Tenant() != f.Tenant {
		return false
	}
	return true
}

// Open returns the store selected by cfg.Driver.
func Open(cfg config.StoreConfig) (UsageStore, error) {
	switch cfg.Driver {
	case "", "sqlite":
		return NewSQLiteStore(cfg.SQLitePath)
	case "csv":
		return NewCSVStore(cfg.CSVPath), nil
	default:
		return nil, fmt.Errorf("store: unknown driver %q", cfg.Driver)
	}
}

// Collect drains a scan into a slice.
func Collect(seq iter.Seq2[models.SessionUsageRecord, error]) ([]models.SessionUsageRecord, error) {
	var out []models.SessionUsageRecord
	for rec, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Copy appends every record from src matching f into dst and returns the count.
func Copy(ctx context.Context, dst, src UsageStore, f Filter) (int, error) {
	n := 0
	for rec, err := range src.Scan(ctx, f) {
		if err != nil {
			return n, fmt.Errorf("copy: %w", err)
		}
		if err := dst.Append(ctx, rec); err != nil {
			return n, fmt.Errorf("copy: %w", err)
		}
		n++
	}
	return n, nil
}
