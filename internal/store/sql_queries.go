// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"time"

	"github.com/MKhiriev/notero-sync/models"
)

var syncStateColumns = []string{
	"notion_page_id",
	"zotero_item_key",
	"zotero_library_type",
	"zotero_library_id",
	"last_zotero_version",
	"property_snapshot",
	"last_synced_at",
	"deleted",
}

var noteStateColumns = []string{
	"notion_block_id",
	"zotero_note_key",
	"zotero_parent_key",
	"zotero_library_id",
	"content_hash",
	"last_synced_at",
}

var collectionColumns = []string{
	"library_type",
	"library_id",
	"collection_key",
	"collection_name",
	"refreshed_at",
}

func (db *DB) buildSelectSyncStatesQuery() (string, []any, error) {
	return db.builder.
		Select(syncStateColumns...).
		From("sync_state").
		ToSql()
}

func (db *DB) buildSelectNoteStatesQuery() (string, []any, error) {
	return db.builder.
		Select(noteStateColumns...).
		From("note_sync_state").
		ToSql()
}

func (db *DB) buildSelectCollectionsQuery() (string, []any, error) {
	return db.builder.
		Select(collectionColumns...).
		From("collection_cache").
		ToSql()
}

func (db *DB) buildSelectPollCursorQuery() (string, []any, error) {
	return db.builder.
		Select("last_polled_at").
		From("poll_cursor").
		Where("id = ?", 1).
		ToSql()
}

func (db *DB) buildInsertSyncStateQuery(st models.SyncState, snapshot string) (string, []any, error) {
	return db.builder.
		Insert("sync_state").
		Columns(syncStateColumns...).
		Values(
			st.NotionPageID,
			st.ZoteroItemKey,
			st.ZoteroLibraryType,
			st.ZoteroLibraryID,
			st.LastZoteroVersion,
			snapshot,
			st.LastSyncedAt,
			st.Deleted,
		).
		ToSql()
}

func (db *DB) buildInsertNoteStateQuery(st models.NoteSyncState) (string, []any, error) {
	return db.builder.
		Insert("note_sync_state").
		Columns(noteStateColumns...).
		Values(
			st.NotionBlockID,
			st.ZoteroNoteKey,
			st.ZoteroParentKey,
			st.ZoteroLibraryID,
			st.ContentHash,
			st.LastSyncedAt,
		).
		ToSql()
}

func (db *DB) buildInsertCollectionQuery(libraryType string, libraryID int64, key, name string, refreshedAt time.Time) (string, []any, error) {
	return db.builder.
		Insert("collection_cache").
		Columns(collectionColumns...).
		Values(libraryType, libraryID, key, name, refreshedAt).
		ToSql()
}

func (db *DB) buildInsertPollCursorQuery(ts string) (string, []any, error) {
	return db.builder.
		Insert("poll_cursor").
		Columns("id", "last_polled_at").
		Values(1, ts).
		ToSql()
}
