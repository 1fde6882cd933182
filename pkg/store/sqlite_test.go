package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrhoades1/claude-tracking/pkg/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func day(s string) time.Time {
	d, err := time.Parse(models.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func sampleRecords() []models.SessionUsageRecord {
	return []models.SessionUsageRecord{
		{Date: day("2026-01-31"), Time: "23:59:00", TenantCode: "ACME", SessionID: "s1", Location: "/p/acme", InputTokens: 10, OutputTokens: 5},
		{Date: day("2026-02-01"), Time: "08:00:00", TenantCode: "ACME", SessionID: "s2", Location: "/p/acme", InputTokens: 100, OutputTokens: 50, CacheWriteTokens: 7, CacheReadTokens: 9},
		{Date: day("2026-02-14"), Time: "12:30:00", TenantCode: "GLOBEX", SessionID: "s3", Location: "/p/globex", InputTokens: 300, OutputTokens: 100},
		{Date: day("2026-02-28"), Time: "18:00:00", TenantCode: "", SessionID: "s4", Location: "/tmp", InputTokens: 1},
		{Date: day("2026-03-01"), Time: "00:00:01", TenantCode: "GLOBEX", SessionID: "s5", Location: "/p/globex", InputTokens: 2},
	}
}

func TestAppendAndScan(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, r := range sampleRecords() {
		if err := s.Append(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	all, err := Collect(s.Scan(ctx, Filter{}))
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 5 {
		t.Fatalf("expected 5 records, got %d", len(all))
	}
	if all[1] != sampleRecords()[1] {
		t.Errorf("round trip mismatch: %+v", all[1])
	}

	feb, err := Collect(s.Scan(ctx, Month(models.Period{Year: 2026, Month: time.February})))
	if err != nil {
		t.Fatal(err)
	}
	if len(feb) != 3 {
		t.Fatalf("expected 3 February records, got %d", len(feb))
	}
	for _, r := range feb {
		if r.Date.Month() != time.February {
			t.Errorf("record outside period: %v", r.Date)
		}
	}
}

func TestScanTenantFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, r := range sampleRecords() {
		require.NoError(t, s.Append(ctx, r))
	}

	globex, err := Collect(s.Scan(ctx, Filter{Tenant: "GLOBEX"}))
	require.NoError(t, err)
	assert.Len(t, globex, 2)

	unknown, err := Collect(s.Scan(ctx, Filter{Tenant: models.UnknownTenant}))
	require.NoError(t, err)
	require.Len(t, unknown, 1)
	assert.Equal(t, "s4", unknown[0].SessionID)
}

func TestScanIsRestartable(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, r := range sampleRecords() {
		require.NoError(t, s.Append(ctx, r))
	}

	seq := s.Scan(ctx, Filter{})
	first, err := Collect(seq)
	require.NoError(t, err)
	second, err := Collect(seq)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// Breaking out early must not leave the connection busy.
	for range seq {
		break
	}
	third, err := Collect(seq)
	require.NoError(t, err)
	assert.Len(t, third, 5)
}

func TestAppendRejectsNegativeTokens(t *testing.T) {
	s := newTestStore(t)
	err := s.Append(context.Background(), models.SessionUsageRecord{Date: day("2026-02-01"), TenantCode: "X", InputTokens: -1})
	assert.True(t, errors.Is(err, ErrInvalidRecord))
}

func TestEmptyStoreScansEmpty(t *testing.T) {
	s := newTestStore(t)
	recs, err := Collect(s.Scan(context.Background(), Filter{}))
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestMigrationIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s1, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	_ = s1.Close()

	s2, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatal("second NewSQLiteStore() failed:", err)
	}
	_ = s2.Close()
}

func TestAppendSurfacesDriverError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	s := fromDB(db)
	t.Cleanup(func() { _ = s.Close() })

	mock.ExpectExec("INSERT INTO sessions").WillReturnError(errors.New("disk I/O error"))

	err = s.Append(context.Background(), sampleRecords()[0])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk I/O error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScanSurfacesQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	s := fromDB(db)
	t.Cleanup(func() { _ = s.Close() })

	mock.ExpectQuery("SELECT date").WillReturnError(errors.New("database is locked"))

	_, err = Collect(s.Scan(context.Background(), Filter{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database is locked")
}

func TestScanRejectsBadDate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	s := fromDB(db)
	t.Cleanup(func() { _ = s.Close() })

	rows := sqlmock.NewRows([]string{"date", "time_utc", "project_code", "cwd", "session_id",
		"input_tokens", "output_tokens", "cache_creation_tokens", "cache_read_tokens"}).
		AddRow("02/01/2026", "10:00:00", "ACME", "/p", "s", 1, 1, 0, 0)
	mock.ExpectQuery("SELECT date").WillReturnRows(rows)

	_, err = Collect(s.Scan(context.Background(), Filter{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad date")
}
