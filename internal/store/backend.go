package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/MKhiriev/notero-sync/internal/logger"
)

// NewStateBackend picks a backend from the storage configuration. An empty
// DSN selects the JSON file backend at stateFile; otherwise the DSN scheme
// chooses the database driver.
//
// Supported schemes:
//   - postgres:// or postgresql:// — PostgreSQL via pgx
//   - sqlite:// or sqlite3://      — local SQLite file
func NewStateBackend(ctx context.Context, dsn, stateFile string, log *logger.Logger) (StateBackend, error) {
	if dsn == "" {
		return NewFileBackend(stateFile, log), nil
	}

	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		db, err := NewConnectPostgres(ctx, dsn, log)
		if err != nil {
			return nil, err
		}
		return NewSQLBackend(db, log)

	case strings.HasPrefix(dsn, "sqlite://"), strings.HasPrefix(dsn, "sqlite3://"):
		path := strings.TrimPrefix(strings.TrimPrefix(dsn, "sqlite://"), "sqlite3://")
		db, err := NewConnectSQLite(ctx, path, log)
		if err != nil {
			return nil, err
		}
		return NewSQLBackend(db, log)
	}

	return nil, fmt.Errorf("%w: %s", ErrUnsupportedDSN, dsn)
}
