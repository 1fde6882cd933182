// Package registry maintains the tenant code → location mapping.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/jrhoades1/claude-tracking/pkg/models"
	"github.com/jrhoades1/claude-tracking/pkg/store"
)

// Registry records where each tenant's sessions run.
type Registry interface {
	// Upsert sets the tenant's location and refreshes its last-seen date.
	Upsert(ctx context.Context, code, location string) error
	// Load returns every known tenant.
	Load(ctx context.Context) (models.Registry, error)
}

// entry is the on-disk shape of one tenant in projects.json.
type entry struct {
	Cwd      string `json:"cwd"`
	LastSeen string `json:"last_seen"`
}

// FileRegistry keeps the registry as a JSON document. When the document is
// absent or unreadable the mapping is rebuilt from the usage log.
type FileRegistry struct {
	path  string
	usage store.UsageStore
	now   func() time.Time
	mu    sync.Mutex
}

// Option configures a FileRegistry.
type Option func(*FileRegistry)

// WithClock overrides the clock used for last-seen dates.
func WithClock(now func() time.Time) Option {
	return func(r *FileRegistry) { r.now = now }
}

// New returns a registry backed by the document at path. usage may be nil,
// in which case a missing document loads as empty.
func New(path string, usage store.UsageStore, opts ...Option) *FileRegistry {
	r := &FileRegistry{
		path:  path,
		usage: usage,
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Upsert reads the document, updates one tenant and rewrites the whole file.
func (r *FileRegistry) Upsert(ctx context.Context, code, location string) error {
	if code == "" {
		code = models.UnknownTenant
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, err := r.Load(ctx)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", code, err)
	}
	reg[code] = models.TenantEntry{
		Code:     code,
		Location: location,
		LastSeen: truncateDay(r.now()),
	}
	if err := r.write(reg); err != nil {
		return fmt.Errorf("upsert %s: %w", code, err)
	}
	return nil
}

// Load returns the document's contents, or a mapping reconstructed from the
// usage log when the document is missing or malformed.
func (r *FileRegistry) Load(ctx context.Context) (models.Registry, error) {
	reg, err := r.read()
	if err == nil {
		return reg, nil
	}
	if r.usage == nil {
		return models.Registry{}, nil
	}
	return Rebuild(ctx, r.usage)
}

func (r *FileRegistry) read() (models.Registry, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, err
	}
	var doc map[string]entry
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse registry: %w", err)
	}
	reg := make(models.Registry, len(doc))
	for code, e := range doc {
		te := models.TenantEntry{Code: code, Location: e.Cwd}
		if d, err := time.Parse(models.DateLayout, e.LastSeen); err == nil {
			te.LastSeen = d
		}
		reg[code] = te
	}
	return reg, nil
}

// write replaces the document via a temp file and rename so readers never
// observe a partial file.
func (r *FileRegistry) write(reg models.Registry) error {
	doc := make(map[string]entry, len(reg))
	for code, e := range reg {
		last := ""
		if !e.LastSeen.IsZero() {
			last = e.LastSeen.Format(models.DateLayout)
		}
		doc[code] = entry{Cwd: e.Location, LastSeen: last}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("write registry: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".projects-*.json")
	if err != nil {
		return fmt.Errorf("write registry: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write registry: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("write registry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write registry: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("write registry: %w", err)
	}
	return nil
}

// Rebuild derives a registry from the full usage log, keeping the location
// and date of the most recent record per tenant.
func Rebuild(ctx context.Context, usage store.UsageStore) (models.Registry, error) {
	type seen struct {
		models.TenantEntry
		time string
	}
	latest := make(map[string]seen)
	for rec, err := range usage.Scan(ctx, store.Filter{}) {
		if err != nil {
			return nil, fmt.Errorf("rebuild registry: %w", err)
		}
		code := rec.Tenant()
		prev, ok := latest[code]
		if ok && (rec.Date.Before(prev.LastSeen) ||
			(rec.Date.Equal(prev.LastSeen) && rec.Time < prev.time)) {
			continue
		}
		latest[code] = seen{
			TenantEntry: models.TenantEntry{Code: code, Location: rec.Location, LastSeen: rec.Date},
			time:        rec.Time,
		}
	}
	reg := make(models.Registry, len(latest))
	for code, s := range latest {
		reg[code] = s.TenantEntry
	}
	return reg, nil
}

// Exists reports whether the document is present on disk.
func (r *FileRegistry) Exists() bool {
	_, err := os.Stat(r.path)
	return !errors.Is(err, fs.ErrNotExist)
}

// Sorted returns the registry entries ordered by code.
func Sorted(reg models.Registry) []models.TenantEntry {
	out := make([]models.TenantEntry, 0, len(reg))
	for _, e := range reg {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
