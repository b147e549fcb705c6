package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/codeforge-ai/codeforge/internal/usage"
)

// SQLiteStore implements usage.Store using modernc.org/sqlite (pure Go, no
// CGO).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens or creates a SQLite database at dsn.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite pragmas: %w", err)
	}
	// One writer at a time; a single connection also keeps :memory:
	// databases alive across calls.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(time.Hour)
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS usage_records (
			id TEXT PRIMARY KEY,
			timestamp TEXT NOT NULL,
			provider_id TEXT NOT NULL,
			model_id TEXT NOT NULL,
			task_type TEXT NOT NULL DEFAULT '',
			input_tokens INTEGER NOT NULL DEFAULT 0,
			output_tokens INTEGER NOT NULL DEFAULT 0,
			cost_usd REAL NOT NULL DEFAULT 0,
			success INTEGER NOT NULL DEFAULT 1
		)`,
		`CREATE INDEX IF NOT EXISTS idx_usage_records_timestamp ON usage_records(timestamp)`,
	}
	for _, q := range queries {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) AppendUsage(ctx context.Context, r usage.Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO usage_records (id, timestamp, provider_id, model_id, task_type, input_tokens, output_tokens, cost_usd, success)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Timestamp.UTC().Format(time.RFC3339Nano), r.ProviderID, r.ModelID, r.TaskType,
		r.InputTokens, r.OutputTokens, r.CostUSD, r.Success)
	return err
}

// ListUsage returns every record, oldest first.
func (s *SQLiteStore) ListUsage(ctx context.Context) ([]usage.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, timestamp, provider_id, model_id, task_type, input_tokens, output_tokens, cost_usd, success
		 FROM usage_records ORDER BY timestamp ASC, rowid ASC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []usage.Record
	for rows.Next() {
		var (
			r  usage.Record
			ts string
		)
		if err := rows.Scan(&r.ID, &ts, &r.ProviderID, &r.ModelID, &r.TaskType,
			&r.InputTokens, &r.OutputTokens, &r.CostUSD, &r.Success); err != nil {
			return nil, err
		}
		if r.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("parse timestamp %q: %w", ts, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ClearUsage(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM usage_records`)
	return err
}
