package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/codeforge-ai/codeforge/internal/usage"
)

// DB is the subset of pgx used by PostgresStore. *pgxpool.Pool satisfies it.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements usage.Store on PostgreSQL.
type PostgresStore struct {
	db    DB
	close func()
}

// NewPostgres connects a pgx pool to dsn.
func NewPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PostgresStore{db: pool, close: pool.Close}, nil
}

// NewPostgresWithDB wraps an existing connection, e.g. a transaction or a
// mock pool.
func NewPostgresWithDB(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS usage_records (
			id            TEXT PRIMARY KEY,
			ts            TIMESTAMPTZ NOT NULL,
			provider_id   TEXT NOT NULL,
			model_id      TEXT NOT NULL,
			task_type     TEXT NOT NULL DEFAULT '',
			input_tokens  INTEGER NOT NULL DEFAULT 0,
			output_tokens INTEGER NOT NULL DEFAULT 0,
			cost_usd      DOUBLE PRECISION NOT NULL DEFAULT 0,
			success       BOOLEAN NOT NULL DEFAULT TRUE
		);
		CREATE INDEX IF NOT EXISTS idx_usage_records_ts ON usage_records (ts);`)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	if s.close != nil {
		s.close()
	}
	return nil
}

func (s *PostgresStore) AppendUsage(ctx context.Context, r usage.Record) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO usage_records (id, ts, provider_id, model_id, task_type, input_tokens, output_tokens, cost_usd, success)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		r.ID, r.Timestamp, r.ProviderID, r.ModelID, r.TaskType,
		r.InputTokens, r.OutputTokens, r.CostUSD, r.Success)
	if err != nil {
		return fmt.Errorf("insert usage record: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListUsage(ctx context.Context) ([]usage.Record, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, ts, provider_id, model_id, task_type, input_tokens, output_tokens, cost_usd, success
		 FROM usage_records ORDER BY ts ASC`)
	if err != nil {
		return nil, fmt.Errorf("query usage records: %w", err)
	}
	defer rows.Close()

	var out []usage.Record
	for rows.Next() {
		var r usage.Record
		if err := rows.Scan(&r.ID, &r.Timestamp, &r.ProviderID, &r.ModelID, &r.TaskType,
			&r.InputTokens, &r.OutputTokens, &r.CostUSD, &r.Success); err != nil {
			return nil, fmt.Errorf("scan usage record: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ClearUsage(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM usage_records`); err != nil {
		return fmt.Errorf("clear usage records: %w", err)
	}
	return nil
}
