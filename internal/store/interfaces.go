// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"

	"github.com/MKhiriev/notero-sync/models"
)

// StateDocument is the full persisted state of the reconciler: every tracked
// page mapping, every tracked note block, the collection name cache and the
// incremental poll cursor. Backends load and save it wholesale; partial
// updates never touch disk on their own.
type StateDocument struct {
	SyncStates map[string]models.SyncState     `json:"sync_states"`
	NoteStates map[string]models.NoteSyncState `json:"note_states"`

	// Collections is keyed by "<libraryType>/<libraryID>".
	Collections map[string]models.CollectionCache `json:"collections,omitempty"`

	LastPolled string `json:"last_polled_at,omitempty"`
}

// NewStateDocument returns an empty document with all maps allocated.
func NewStateDocument() *StateDocument {
	return &StateDocument{
		SyncStates:  make(map[string]models.SyncState),
		NoteStates:  make(map[string]models.NoteSyncState),
		Collections: make(map[string]models.CollectionCache),
	}
}

// normalize allocates any nil maps after decoding from an older or
// hand-edited state file.
func (d *StateDocument) normalize() {
	if d.SyncStates == nil {
		d.SyncStates = make(map[string]models.SyncState)
	}
	if d.NoteStates == nil {
		d.NoteStates = make(map[string]models.NoteSyncState)
	}
	if d.Collections == nil {
		d.Collections = make(map[string]models.CollectionCache)
	}
}

// StateBackend persists a [StateDocument]. Implementations must treat the
// document as a single unit: Load returns an empty document when nothing has
// been persisted yet, and Save replaces whatever was stored before.
type StateBackend interface {
	Load(ctx context.Context) (*StateDocument, error)
	Save(ctx context.Context, doc *StateDocument) error
	Close() error
}
