package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/notero-sync/internal/logger"
	"github.com/MKhiriev/notero-sync/models"
)

// sqlBackend persists the state document in a relational database. Each Save
// replaces the stored document inside a single transaction, so readers never
// observe a half-written state.
type sqlBackend struct {
	db     *DB
	logger *logger.Logger
}

// NewSQLBackend wraps an open connection and runs pending migrations.
func NewSQLBackend(db *DB, log *logger.Logger) (StateBackend, error) {
	if err := db.Migrate(); err != nil {
		log.Err(err).Str("func", "NewSQLBackend").Msg("failed to run migrations")
		return nil, err
	}
	return &sqlBackend{db: db, logger: log}, nil
}

func (b *sqlBackend) Load(ctx context.Context) (*StateDocument, error) {
	doc := NewStateDocument()

	if err := b.loadSyncStates(ctx, doc); err != nil {
		return nil, err
	}
	if err := b.loadNoteStates(ctx, doc); err != nil {
		return nil, err
	}
	if err := b.loadCollections(ctx, doc); err != nil {
		return nil, err
	}
	if err := b.loadPollCursor(ctx, doc); err != nil {
		return nil, err
	}

	return doc, nil
}

func (b *sqlBackend) loadSyncStates(ctx context.Context, doc *StateDocument) error {
	query, args, err := b.db.buildSelectSyncStatesQuery()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	for rows.Next() {
		var st models.SyncState
		var snapshot string

		scanErr := rows.Scan(
			&st.NotionPageID,
			&st.ZoteroItemKey,
			&st.ZoteroLibraryType,
			&st.ZoteroLibraryID,
			&st.LastZoteroVersion,
			&snapshot,
			&st.LastSyncedAt,
			&st.Deleted,
		)
		if scanErr != nil {
			return fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}

		if snapshot != "" {
			if err = json.Unmarshal([]byte(snapshot), &st.PropertySnapshot); err != nil {
				return fmt.Errorf("decode property snapshot for page %s: %w", st.NotionPageID, err)
			}
		}

		doc.SyncStates[st.NotionPageID] = st
	}

	return rows.Err()
}

func (b *sqlBackend) loadNoteStates(ctx context.Context, doc *StateDocument) error {
	query, args, err := b.db.buildSelectNoteStatesQuery()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	for rows.Next() {
		var st models.NoteSyncState

		scanErr := rows.Scan(
			&st.NotionBlockID,
			&st.ZoteroNoteKey,
			&st.ZoteroParentKey,
			&st.ZoteroLibraryID,
			&st.ContentHash,
			&st.LastSyncedAt,
		)
		if scanErr != nil {
			return fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}

		doc.NoteStates[st.NotionBlockID] = st
	}

	return rows.Err()
}

func (b *sqlBackend) loadCollections(ctx context.Context, doc *StateDocument) error {
	query, args, err := b.db.buildSelectCollectionsQuery()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			libraryType string
			libraryID   int64
			key         string
			name        string
			refreshedAt time.Time
		)

		scanErr := rows.Scan(&libraryType, &libraryID, &key, &name, &refreshedAt)
		if scanErr != nil {
			return fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}

		cacheKey := libraryKey(libraryType, libraryID)
		existing, ok := doc.Collections[cacheKey]
		if !ok {
			existing = models.CollectionCache{
				LibraryType: libraryType,
				LibraryID:   libraryID,
				RefreshedAt: refreshedAt,
				Names:       make(map[string]string),
			}
		}
		existing.Names[key] = name
		doc.Collections[cacheKey] = existing
	}

	return rows.Err()
}

func (b *sqlBackend) loadPollCursor(ctx context.Context, doc *StateDocument) error {
	query, args, err := b.db.buildSelectPollCursorQuery()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var cursor string
	err = b.db.QueryRowContext(ctx, query, args...).Scan(&cursor)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	doc.LastPolled = cursor
	return nil
}

func (b *sqlBackend) Save(ctx context.Context, doc *StateDocument) error {
	err := b.save(ctx, doc)
	if err == nil {
		return nil
	}

	// One retry for transient failures (connection loss, deadlock rollback).
	if b.db.errorClassificator != nil && b.db.errorClassificator.Classify(err) == Retryable {
		b.logger.Warn().Err(err).Str("func", "sqlBackend.Save").Msg("retrying state save after transient error")
		return b.save(ctx, doc)
	}

	return err
}

func (b *sqlBackend) save(ctx context.Context, doc *StateDocument) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	for _, table := range []string{"sync_state", "note_sync_state", "collection_cache", "poll_cursor"} {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("%w: clear %s: %w", ErrExecutingStatement, table, err)
		}
	}

	for _, st := range doc.SyncStates {
		snapshot, encErr := json.Marshal(st.PropertySnapshot)
		if encErr != nil {
			return fmt.Errorf("encode property snapshot for page %s: %w", st.NotionPageID, encErr)
		}

		query, args, buildErr := b.db.buildInsertSyncStateQuery(st, string(snapshot))
		if buildErr != nil {
			return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, buildErr)
		}
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
		}
	}

	for _, st := range doc.NoteStates {
		query, args, buildErr := b.db.buildInsertNoteStateQuery(st)
		if buildErr != nil {
			return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, buildErr)
		}
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
		}
	}

	for _, cache := range doc.Collections {
		for key, name := range cache.Names {
			query, args, buildErr := b.db.buildInsertCollectionQuery(cache.LibraryType, cache.LibraryID, key, name, cache.RefreshedAt)
			if buildErr != nil {
				return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, buildErr)
			}
			if _, err = tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
			}
		}
	}

	if doc.LastPolled != "" {
		query, args, buildErr := b.db.buildInsertPollCursorQuery(doc.LastPolled)
		if buildErr != nil {
			return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, buildErr)
		}
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}

	return nil
}

func (b *sqlBackend) Close() error {
	return b.db.Close()
}
