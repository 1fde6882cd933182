package store

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jrhoades1/claude-tracking/pkg/models"
)

// SQLiteStore implements UsageStore with a SQLite database.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL,
		time_utc TEXT NOT NULL,
		project_code TEXT NOT NULL,
		cwd TEXT NOT NULL,
		session_id TEXT NOT NULL,
		input_tokens INTEGER NOT NULL,
		output_tokens INTEGER NOT NULL,
		cache_creation_tokens INTEGER NOT NULL,
		cache_read_tokens INTEGER NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_date ON sessions(date)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_project ON sessions(project_code, date)`,
}

// NewSQLiteStore opens (creating if needed) the database at path and runs auto-migration.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, fmt.Errorf("open usage db: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(trimmed), 0o755); err != nil {
		return nil, fmt.Errorf("open usage db: create directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", trimmed)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open usage db: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate usage db: %w", err)
		}
	}

	return fromDB(db), nil
}

func fromDB(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Append stores a usage record.
func (s *SQLiteStore) Append(ctx context.Context, rec models.SessionUsageRecord) error {
	if !rec.Valid() {
		return fmt.Errorf("append usage for %s: %w", rec.Tenant(), ErrInvalidRecord)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (date, time_utc, project_code, cwd, session_id,
			input_tokens, output_tokens, cache_creation_tokens, cache_read_tokens)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Date.Format(models.DateLayout), rec.Time, rec.TenantCode, rec.Location, rec.SessionID,
		rec.InputTokens, rec.OutputTokens, rec.CacheWriteTokens, rec.CacheReadTokens,
	)
	if err != nil {
		return fmt.Errorf("append usage: %w", err)
	}
	return nil
}

// Scan yields records matching f ordered by insertion.
func (s *SQLiteStore) Scan(ctx context.Context, f Filter) iter.Seq2[models.SessionUsageRecord, error] {
	return func(yield func(models.SessionUsageRecord, error) bool) {
		query := `SELECT date, time_utc, project_code, cwd, session_id,
			input_tokens, output_tokens, cache_creation_tokens, cache_read_tokens
			FROM sessions WHERE 1=1`
		var args []any
		if f.Period != nil {
			query += ` AND date >= ? AND date < ?`
			args = append(args,
				f.Period.Start().Format(models.DateLayout),
				f.Period.Add(1).Start().Format(models.DateLayout))
		}
		if f.Tenant != "" {
			if f.Tenant == models.UnknownTenant {
				query += ` AND (project_code = ? OR project_code = '')`
			} else {
				query += ` AND project_code = ?`
			}
			args = append(args, f.Tenant)
		}
		query += ` ORDER BY id`

		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			yield(models.SessionUsageRecord{}, fmt.Errorf("scan usage: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var r models.SessionUsageRecord
			var date string
			if err := rows.Scan(&date, &r.Time, &r.TenantCode, &r.Location, &r.SessionID,
				&r.InputTokens, &r.OutputTokens, &r.CacheWriteTokens, &r.CacheReadTokens); err != nil {
				yield(models.SessionUsageRecord{}, fmt.Errorf("scan usage row: %w", err))
				return
			}
			r.Date, err = time.Parse(models.DateLayout, date)
			if err != nil {
				yield(models.SessionUsageRecord{}, fmt.Errorf("scan usage row: bad date %q: %w", date, err))
				return
			}
			if !yield(r, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(models.SessionUsageRecord{}, fmt.Errorf("scan usage: %w", err))
		}
	}
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
