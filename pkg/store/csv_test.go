package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrhoades1/claude-tracking/pkg/config"
	"github.com/jrhoades1/claude-tracking/pkg/models"
)

func TestCSVHeaderWrittenOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "sessions.csv")
	s := NewCSVStore(path)
	ctx := context.Background()

	for _, r := range sampleRecords() {
		require.NoError(t, s.Append(ctx, r))
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, strings.Join(CSVHeader, ","), lines[0])
	assert.Equal(t, 1, strings.Count(string(data), "session_id"))
}

func TestCSVScanFilters(t *testing.T) {
	s := NewCSVStore(filepath.Join(t.TempDir(), "sessions.csv"))
	ctx := context.Background()
	for _, r := range sampleRecords() {
		require.NoError(t, s.Append(ctx, r))
	}

	all, err := Collect(s.Scan(ctx, Filter{}))
	require.NoError(t, err)
	assert.Equal(t, sampleRecords(), all)

	feb, err := Collect(s.Scan(ctx, Month(models.Period{Year: 2026, Month: time.February})))
	require.NoError(t, err)
	assert.Len(t, feb, 3)

	acme, err := Collect(s.Scan(ctx, Filter{Tenant: "ACME"}))
	require.NoError(t, err)
	assert.Len(t, acme, 2)
}

func TestCSVMissingFileIsEmpty(t *testing.T) {
	s := NewCSVStore(filepath.Join(t.TempDir(), "absent.csv"))
	recs, err := Collect(s.Scan(context.Background(), Filter{}))
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestCSVReadsLegacyBlankCounts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.csv")
	legacy := strings.Join(CSVHeader, ",") + "\n" +
		"2026-02-03,10:00:00,ACME,C:\\Users\\me\\acme,abc,12,,3,\n"
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0644))

	recs, err := Collect(NewCSVStore(path).Scan(context.Background(), Filter{}))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, int64(12), recs[0].InputTokens)
	assert.Equal(t, int64(0), recs[0].OutputTokens)
	assert.Equal(t, int64(3), recs[0].CacheWriteTokens)
}

func TestCSVBadCountIsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.csv")
	bad := strings.Join(CSVHeader, ",") + "\n2026-02-03,10:00:00,ACME,/p,abc,twelve,0,0,0\n"
	require.NoError(t, os.WriteFile(path, []byte(bad), 0644))

	_, err := Collect(NewCSVStore(path).Scan(context.Background(), Filter{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input_tokens")
}

func TestCopyCSVIntoSQLite(t *testing.T) {
	dir := t.TempDir()
	src := NewCSVStore(filepath.Join(dir, "sessions.csv"))
	ctx := context.Background()
	for _, r := range sampleRecords() {
		require.NoError(t, src.Append(ctx, r))
	}

	dst, err := Open(config.StoreConfig{Driver: "sqlite", SQLitePath: filepath.Join(dir, "sessions.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = dst.Close() })

	n, err := Copy(ctx, dst, src, Filter{})
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	got, err := Collect(dst.Scan(ctx, Filter{}))
	require.NoError(t, err)
	assert.Equal(t, sampleRecords(), got)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(config.StoreConfig{Driver: "mongo"})
	assert.Error(t, err)
}
