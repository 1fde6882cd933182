package dashboard

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrhoades1/claude-tracking/pkg/config"
	"github.com/jrhoades1/claude-tracking/pkg/ledger"
	"github.com/jrhoades1/claude-tracking/pkg/models"
	"github.com/jrhoades1/claude-tracking/pkg/publish"
	"github.com/jrhoades1/claude-tracking/pkg/registry"
	"github.com/jrhoades1/claude-tracking/pkg/store"
)

type fakePublisher struct {
	calls int
	err   error
}

func (f *fakePublisher) Publish(_ context.Context) error {
	f.calls++
	return f.err
}

func newDashboard(t *testing.T, pub *fakePublisher) (*Dashboard, string, store.UsageStore) {
	t.Helper()
	dir := t.TempDir()
	st := store.NewCSVStore(filepath.Join(dir, "sessions.csv"))
	eng := ledger.New(st, registry.New(filepath.Join(dir, "projects.json"), st), config.DefaultPricing())
	var p publish.Publisher
	if pub != nil {
		p = pub
	}
	d := New(eng, filepath.Join(dir, "README.md"), p)
	d.now = func() time.Time { return time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC) }
	return d, dir, st
}

func TestUpdateWritesReadme(t *testing.T) {
	pub := &fakePublisher{}
	d, dir, st := newDashboard(t, pub)
	require.NoError(t, st.Append(context.Background(), models.SessionUsageRecord{
		Date: time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC), TenantCode: "ACME", InputTokens: 5,
	}))

	require.NoError(t, d.Update(context.Background()))
	data, err := os.ReadFile(filepath.Join(dir, "README.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "**February 2026**")
	assert.Contains(t, string(data), "| ACME | 1 |")
	assert.Equal(t, 1, pub.calls)
}

func TestUpdateWithoutPublisher(t *testing.T) {
	d, dir, _ := newDashboard(t, nil)
	require.NoError(t, d.Update(context.Background()))
	data, err := os.ReadFile(filepath.Join(dir, "README.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "_No sessions recorded this month._")
}

func TestUpdateReportsPublishFailure(t *testing.T) {
	d, _, _ := newDashboard(t, &fakePublisher{err: errors.New("offline")})
	assert.ErrorContains(t, d.Update(context.Background()), "offline")
}

func TestWatchRegeneratesOnChange(t *testing.T) {
	d, dir, st := newDashboard(t, nil)
	csvPath := filepath.Join(dir, "sessions.csv")
	readme := filepath.Join(dir, "README.md")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Watch(ctx, []string{csvPath}, 50*time.Millisecond) }()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, st.Append(context.Background(), models.SessionUsageRecord{
		Date: time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC), TenantCode: "WATCHED", InputTokens: 1,
	}))

	assert.Eventually(t, func() bool {
		data, err := os.ReadFile(readme)
		return err == nil && len(data) > 0 && strings.Contains(string(data), "WATCHED")
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}
