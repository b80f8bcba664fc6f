package models

import "time"

// SyncState is the durable record of the last known common state between a
// Notion page and the Zotero item it mirrors. PropertySnapshot is the common
// ancestor used by three-way merges: it always holds values that were, at
// some point, simultaneously true on both sides.
type SyncState struct {
	NotionPageID      string           `json:"notion_page_id"`
	ZoteroItemKey     string           `json:"zotero_item_key"`
	ZoteroLibraryType string           `json:"zotero_library_type"`
	ZoteroLibraryID   int64            `json:"zotero_library_id"`
	LastZoteroVersion int64            `json:"last_zotero_version"`
	PropertySnapshot  PropertySnapshot `json:"property_snapshot"`
	LastSyncedAt      time.Time        `json:"last_synced_at"`

	// Deleted marks the Zotero item as confirmed gone. Deleted records are
	// skipped by reconciliation and never resurrected automatically.
	Deleted bool `json:"deleted"`
}

// TargetRef returns the reference of the mirrored library item.
func (s SyncState) TargetRef() ItemRef {
	return ItemRef{
		LibraryType: s.ZoteroLibraryType,
		LibraryID:   s.ZoteroLibraryID,
		ItemKey:     s.ZoteroItemKey,
	}
}

// NoteSyncState tracks a single Notion content block that has been mirrored
// as a Zotero child note. It exists if and only if a note was created from
// that block and has not been orphan-deleted.
type NoteSyncState struct {
	NotionBlockID   string    `json:"notion_block_id"`
	ZoteroNoteKey   string    `json:"zotero_note_key"`
	ZoteroParentKey string    `json:"zotero_parent_key"`
	ZoteroLibraryID int64     `json:"zotero_library_id"`
	ContentHash     string    `json:"content_hash"`
	LastSyncedAt    time.Time `json:"last_synced_at"`
}
