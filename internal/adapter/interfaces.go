// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter provides transport-layer clients for the two external
// collaborators of the sync engine: the Notion document workspace and the
// Zotero reference library.
//
// Both implementations are HTTP/REST clients built on resty. Pagination is
// handled internally — every listing method returns a complete result set.
// Transport-level failures are mapped to the sentinel errors in errors.go so
// callers can use [errors.Is] for transport-agnostic handling
// (e.g. [ErrVersionConflict] for 412, [ErrNotFound] for 404).
package adapter

import (
	"context"

	"github.com/MKhiriev/notero-sync/models"
)

// NotionAdapter is the read-only view of the document workspace the sync
// engine needs.
type NotionAdapter interface {
	// GetPage fetches a single page including its raw properties.
	GetPage(ctx context.Context, pageID string) (models.Page, error)

	// GetPageProperties fetches a page and returns its parsed, typed
	// property values.
	GetPageProperties(ctx context.Context, pageID string) (models.PageProperties, error)

	// GetBlockChildren returns all child blocks of a page or block,
	// following pagination. When recursive is true, blocks that have
	// children carry them fully populated.
	GetBlockChildren(ctx context.Context, blockID string, recursive bool) ([]models.Block, error)

	// QueryAllPages returns every page of the configured database.
	QueryAllPages(ctx context.Context, databaseID string) ([]models.Page, error)

	// QueryPagesChangedSince returns pages whose last_edited_time is on or
	// after the given RFC 3339 timestamp.
	QueryPagesChangedSince(ctx context.Context, databaseID string, since string) ([]models.Page, error)
}

// ZoteroAdapter covers every reference-library operation the reconciler,
// note engine and bootstrap importer perform. Writes are conditioned on the
// version the caller read earlier; a mismatch surfaces as
// [ErrVersionConflict].
type ZoteroAdapter interface {
	// GetItem fetches one item with its current library version.
	GetItem(ctx context.Context, libraryType string, libraryID int64, itemKey string) (models.ZoteroItem, error)

	// PatchItem applies a partial update conditioned on version and returns
	// the item's new version.
	PatchItem(ctx context.Context, libraryType string, libraryID int64, itemKey string, patch models.ItemPatch, version int64) (int64, error)

	// CreateNote creates a child note with the given HTML content on the
	// parent item and returns the created note item.
	CreateNote(ctx context.Context, libraryType string, libraryID int64, parentKey, noteHTML string, tags []models.Tag) (models.ZoteroItem, error)

	// DeleteItem deletes an item, conditioned on version.
	DeleteItem(ctx context.Context, libraryType string, libraryID int64, itemKey string, version int64) error

	// GetChildren lists child items of an item, optionally filtered by item
	// type ("note", "attachment"; empty for all).
	GetChildren(ctx context.Context, libraryType string, libraryID int64, itemKey, itemType string) ([]models.ZoteroItem, error)

	// GetCollections lists every collection of a library, following
	// pagination.
	GetCollections(ctx context.Context, libraryType string, libraryID int64) ([]models.Collection, error)

	// CreateItem creates a new item from a raw data payload (used when
	// copying an item into another library) and returns the created item.
	CreateItem(ctx context.Context, libraryType string, libraryID int64, data map[string]any) (models.ZoteroItem, error)

	// UploadAttachment stores a local file as an imported-file attachment
	// under the given parent item.
	UploadAttachment(ctx context.Context, libraryType string, libraryID int64, parentKey, path string) error
}
