package store

import (
	"database/sql"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/notero-sync/internal/logger"
	"github.com/MKhiriev/notero-sync/migrations"
)

// DB wraps a database/sql connection together with the placeholder style the
// driver expects and an optional retryability classifier.
type DB struct {
	*sql.DB
	builder            sq.StatementBuilderType
	errorClassificator ErrorClassificator
	logger             *logger.Logger
	dialect            string
}

func (db *DB) Migrate() error {
	return migrations.Migrate(db.DB, db.dialect)
}
