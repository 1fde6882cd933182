package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jrhoades1/claude-tracking/pkg/models"
)

// CSVHeader is the fixed column set of the legacy sessions.csv log.
var CSVHeader = []string{
	"date",
	"time_utc",
	"project_code",
	"cwd",
	"session_id",
	"input_tokens",
	"output_tokens",
	"cache_creation_tokens",
	"cache_read_tokens",
}

// CSVStore implements UsageStore over an append-only CSV file. The header is
// written once, when the file is created.
type CSVStore struct {
	path string
	mu   sync.Mutex
}

// NewCSVStore returns a store for path. The file is created on first append.
func NewCSVStore(path string) *CSVStore {
	return &CSVStore{path: path}
}

// Append writes one row and syncs the file before returning.
func (s *CSVStore) Append(_ context.Context, rec models.SessionUsageRecord) error {
	if !rec.Valid() {
		return fmt.Errorf("append usage for %s: %w", rec.Tenant(), ErrInvalidRecord)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("append usage: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("append usage: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("append usage: %w", err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(CSVHeader); err != nil {
			return fmt.Errorf("append usage: write header: %w", err)
		}
	}
	if err := w.Write(toRow(rec)); err != nil {
		return fmt.Errorf("append usage: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("append usage: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("append usage: sync: %w", err)
	}
	return nil
}

func toRow(rec models.SessionUsageRecord) []string {
	return []string{
		rec.Date.Format(models.DateLayout),
		rec.Time,
		rec.TenantCode,
		rec.Location,
		rec.SessionID,
		strconv.FormatInt(rec.InputTokens, 10),
		strconv.FormatInt(rec.OutputTokens, 10),
		strconv.FormatInt(rec.CacheWriteTokens, 10),
		strconv.FormatInt(rec.CacheReadTokens, 10),
	}
}

// Scan reads the file from the top on every call.
func (s *CSVStore) Scan(_ context.Context, f Filter) iter.Seq2[models.SessionUsageRecord, error] {
	return func(yield func(models.SessionUsageRecord, error) bool) {
		file, err := os.Open(s.path)
		if errors.Is(err, fs.ErrNotExist) {
			return
		}
		if err != nil {
			yield(models.SessionUsageRecord{}, fmt.Errorf("scan usage: %w", err))
			return
		}
		defer file.Close()

		r := csv.NewReader(file)
		r.FieldsPerRecord = -1
		header, err := r.Read()
		if err == io.EOF {
			return
		}
		if err != nil {
			yield(models.SessionUsageRecord{}, fmt.Errorf("scan usage: read header: %w", err))
			return
		}
		cols := make(map[string]int, len(header))
		for i, name := range header {
			cols[strings.TrimSpace(name)] = i
		}

		line := 1
		for {
			row, err := r.Read()
			if err == io.EOF {
				return
			}
			line++
			if err != nil {
				yield(models.SessionUsageRecord{}, fmt.Errorf("scan usage: line %d: %w", line, err))
				return
			}
			rec, err := fromRow(cols, row)
			if err != nil {
				yield(models.SessionUsageRecord{}, fmt.Errorf("scan usage: line %d: %w", line, err))
				return
			}
			if !f.Match(rec) {
				continue
			}
			if !yield(rec, nil) {
				return
			}
		}
	}
}

func fromRow(cols map[string]int, row []string) (models.SessionUsageRecord, error) {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	count := func(name string) (int64, error) {
		v := field(name)
		if v == "" {
			return 0, nil
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("column %s: %w", name, err)
		}
		return n, nil
	}

	var rec models.SessionUsageRecord
	date, err := time.Parse(models.DateLayout, field("date"))
	if err != nil {
		return rec, fmt.Errorf("column date: %w", err)
	}
	rec.Date = date
	rec.Time = field("time_utc")
	rec.TenantCode = field("project_code")
	rec.Location = field("cwd")
	rec.SessionID = field("session_id")
	if rec.InputTokens, err = count("input_tokens"); err != nil {
		return rec, err
	}
	if rec.OutputTokens, err = count("output_tokens"); err != nil {
		return rec, err
	}
	if rec.CacheWriteTokens, err = count("cache_creation_tokens"); err != nil {
		return rec, err
	}
	if rec.CacheReadTokens, err = count("cache_read_tokens"); err != nil {
		return rec, err
	}
	return rec, nil
}

// Close is a no-op; the file is opened per call.
func (s *CSVStore) Close() error { return nil }
