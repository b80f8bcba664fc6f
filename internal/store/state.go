package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/MKhiriev/notero-sync/internal/logger"
	"github.com/MKhiriev/notero-sync/models"
)

// Store is the in-memory view of the reconciler state. All reads and writes
// go through it; the underlying [StateBackend] is only touched by [Store.Save],
// which persists the whole document at once.
//
// Store is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	doc     *StateDocument
	backend StateBackend
	logger  *logger.Logger
}

// NewStore loads the persisted document from backend and wraps it.
func NewStore(ctx context.Context, backend StateBackend, log *logger.Logger) (*Store, error) {
	doc, err := backend.Load(ctx)
	if err != nil {
		log.Err(err).Str("func", "NewStore").Msg("failed to load persisted state")
		return nil, fmt.Errorf("load state: %w", err)
	}
	doc.normalize()

	log.Debug().
		Str("func", "NewStore").
		Int("sync_states", len(doc.SyncStates)).
		Int("note_states", len(doc.NoteStates)).
		Msg("state loaded")

	return &Store{doc: doc, backend: backend, logger: log}, nil
}

// GetSyncState returns the tracked mapping for a Notion page.
// Returns [ErrSyncStateNotFound] when the page is not tracked.
func (s *Store) GetSyncState(pageID string) (models.SyncState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.doc.SyncStates[pageID]
	if !ok {
		return models.SyncState{}, ErrSyncStateNotFound
	}
	return st, nil
}

// UpsertSyncState stores or replaces the mapping for st.NotionPageID.
func (s *Store) UpsertSyncState(st models.SyncState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc.SyncStates[st.NotionPageID] = st
}

// MarkDeleted flags a tracked page whose Zotero item no longer exists.
// Deleted records remain in the document but are skipped by future cycles.
func (s *Store) MarkDeleted(pageID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.doc.SyncStates[pageID]
	if !ok {
		return
	}
	st.Deleted = true
	s.doc.SyncStates[pageID] = st
}

// AllSyncStates returns a copy of every tracked mapping, including deleted ones.
func (s *Store) AllSyncStates() []models.SyncState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.SyncState, 0, len(s.doc.SyncStates))
	for _, st := range s.doc.SyncStates {
		out = append(out, st)
	}
	return out
}

// GetNoteState returns the tracking record for a Notion block.
// Returns [ErrNoteStateNotFound] when the block has not been mirrored.
func (s *Store) GetNoteState(blockID string) (models.NoteSyncState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.doc.NoteStates[blockID]
	if !ok {
		return models.NoteSyncState{}, ErrNoteStateNotFound
	}
	return st, nil
}

// NoteStatesForParent returns every tracked note whose Zotero parent is itemKey.
func (s *Store) NoteStatesForParent(itemKey string) []models.NoteSyncState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.NoteSyncState
	for _, st := range s.doc.NoteStates {
		if st.ZoteroParentKey == itemKey {
			out = append(out, st)
		}
	}
	return out
}

// UpsertNoteState stores or replaces the tracking record for st.NotionBlockID.
func (s *Store) UpsertNoteState(st models.NoteSyncState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc.NoteStates[st.NotionBlockID] = st
}

// DeleteNoteState drops the tracking record for a block, typically after the
// source block disappeared and the orphaned note was handled.
func (s *Store) DeleteNoteState(blockID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.doc.NoteStates, blockID)
}

// libraryKey builds the cache key for one library. Type is part of the key:
// a users and a groups library may share the same numeric id.
func libraryKey(libraryType string, libraryID int64) string {
	return fmt.Sprintf("%s/%d", libraryType, libraryID)
}

// CollectionsFor returns the cached collection names for a library, or false
// when no cache entry exists.
func (s *Store) CollectionsFor(libraryType string, libraryID int64) (models.CollectionCache, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.doc.Collections[libraryKey(libraryType, libraryID)]
	return c, ok
}

// ReplaceCollections overwrites the cached collection names for a library.
func (s *Store) ReplaceCollections(libraryType string, libraryID int64, cache models.CollectionCache) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cache.LibraryType = libraryType
	cache.LibraryID = libraryID
	s.doc.Collections[libraryKey(libraryType, libraryID)] = cache
}

// PollCursor returns the last-polled timestamp in Notion's ISO 8601 form,
// or an empty string when no incremental cycle has completed yet.
func (s *Store) PollCursor() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.doc.LastPolled
}

// SetPollCursor records the timestamp at which the last completed cycle started.
func (s *Store) SetPollCursor(ts string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc.LastPolled = ts
}

// Counts reports the number of tracked pages and tracked note blocks.
func (s *Store) Counts() (pages int, notes int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.doc.SyncStates), len(s.doc.NoteStates)
}

// Save persists the whole document through the backend.
func (s *Store) Save(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.backend.Save(ctx, s.doc); err != nil {
		s.logger.Err(err).Str("func", "Store.Save").Msg("failed to persist state")
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}
