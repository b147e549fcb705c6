package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/codeforge-ai/codeforge/internal/usage"
)

// Kind names the backend dsn selects: "memory" for an empty DSN,
// "postgres" for postgres:// or postgresql:// URLs, "sqlite" otherwise.
func Kind(dsn string) string {
	switch {
	case dsn == "":
		return "memory"
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "postgres"
	}
	return "sqlite"
}

// Open returns the usage store selected by dsn. postgres:// and
// postgresql:// URLs open a PostgreSQL pool; anything else is treated as a
// SQLite DSN. The schema is migrated before returning.
func Open(ctx context.Context, dsn string) (usage.Store, error) {
	var (
		s   usage.Store
		err error
	)
	if Kind(dsn) == "postgres" {
		s, err = NewPostgres(ctx, dsn)
	} else {
		s, err = NewSQLite(dsn)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("migrate usage store: %w", err)
	}
	return s, nil
}
