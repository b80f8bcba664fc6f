package sync

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/MKhiriev/notero-sync/internal/adapter"
	"github.com/MKhiriev/notero-sync/internal/logger"
	"github.com/MKhiriev/notero-sync/internal/notion"
	"github.com/MKhiriev/notero-sync/internal/store"
	"github.com/MKhiriev/notero-sync/models"
)

// NoteEngine mirrors the content blocks under a designated marker heading as
// child notes of the mirrored library item. Each direct child block of the
// section becomes one note; a block with children contributes the children
// as the note content.
type NoteEngine struct {
	notion adapter.NotionAdapter
	zotero adapter.ZoteroAdapter
	store  *store.Store
	logger *logger.Logger

	heading       string
	originTag     string
	deleteOrphans bool
}

func NewNoteEngine(n adapter.NotionAdapter, z adapter.ZoteroAdapter, st *store.Store, heading, originTag string, deleteOrphans bool, log *logger.Logger) *NoteEngine {
	return &NoteEngine{
		notion:        n,
		zotero:        z,
		store:         st,
		logger:        log,
		heading:       heading,
		originTag:     originTag,
		deleteOrphans: deleteOrphans,
	}
}

// SyncNotes reconciles the notes of one record. The page's note section is
// extracted, each block fingerprinted, and notes are created or overwritten
// only when the fingerprint changed. Tracked blocks that disappeared from
// the page are deleted on the library side only when orphan deletion is
// enabled; otherwise they are reported and left alone.
func (n *NoteEngine) SyncNotes(ctx context.Context, pageID string, ref models.ItemRef) error {
	blocks, err := n.notion.GetBlockChildren(ctx, pageID, true)
	if err != nil {
		return err
	}

	section, found := noteSection(blocks, n.heading)
	if !found {
		// No marker heading on the page: there is nothing to mirror, and
		// tracked notes stay untouched. A deleted or renamed heading must
		// not turn every mirrored note into an orphan.
		n.logger.Debug().
			Str("func", "NoteEngine.SyncNotes").
			Str("page_id", pageID).
			Msg("note heading absent, tracked notes left alone")
		return nil
	}

	seen := make(map[string]bool, len(section))

	for _, block := range section {
		content := []models.Block{block}
		if len(block.Children) > 0 {
			content = block.Children
		}
		seen[block.ID] = true

		hash := notion.ComputeBlocksHash(content)

		state, stateErr := n.store.GetNoteState(block.ID)
		if errors.Is(stateErr, store.ErrNoteStateNotFound) {
			if err = n.createNote(ctx, ref, block.ID, content, hash); err != nil {
				return err
			}
			continue
		}

		if state.ContentHash == hash {
			continue
		}

		if err = n.overwriteNote(ctx, ref, state, content, hash); err != nil {
			return err
		}
	}

	n.handleOrphans(ctx, ref, seen)
	return nil
}

func (n *NoteEngine) createNote(ctx context.Context, ref models.ItemRef, blockID string, content []models.Block, hash string) error {
	html := notion.BlocksToHTML(content)
	note, err := n.zotero.CreateNote(ctx, ref.LibraryType, ref.LibraryID, ref.ItemKey, html, []models.Tag{{Tag: n.originTag}})
	if err != nil {
		return err
	}

	n.logger.Info().
		Str("func", "NoteEngine.createNote").
		Str("block_id", blockID).
		Str("note_key", note.Key).
		Msg("note created")

	n.store.UpsertNoteState(models.NoteSyncState{
		NotionBlockID:   blockID,
		ZoteroNoteKey:   note.Key,
		ZoteroParentKey: ref.ItemKey,
		ZoteroLibraryID: ref.LibraryID,
		ContentHash:     hash,
		LastSyncedAt:    time.Now().UTC(),
	})
	return nil
}

func (n *NoteEngine) overwriteNote(ctx context.Context, ref models.ItemRef, state models.NoteSyncState, content []models.Block, hash string) error {
	html := notion.BlocksToHTML(content)

	note, err := n.zotero.GetItem(ctx, ref.LibraryType, ref.LibraryID, state.ZoteroNoteKey)
	if errors.Is(err, adapter.ErrNotFound) {
		// The note was deleted on the library side; recreate it from the
		// still-present source block.
		n.store.DeleteNoteState(state.NotionBlockID)
		return n.createNote(ctx, ref, state.NotionBlockID, content, hash)
	}
	if err != nil {
		return err
	}

	patch := models.ItemPatch{Note: &html}
	if _, err = n.zotero.PatchItem(ctx, ref.LibraryType, ref.LibraryID, state.ZoteroNoteKey, patch, note.Version); err != nil {
		return err
	}

	n.logger.Info().
		Str("func", "NoteEngine.overwriteNote").
		Str("block_id", state.NotionBlockID).
		Str("note_key", state.ZoteroNoteKey).
		Msg("note content updated")

	state.ContentHash = hash
	state.LastSyncedAt = time.Now().UTC()
	n.store.UpsertNoteState(state)
	return nil
}

// handleOrphans deals with tracked blocks that no longer appear in the note
// section. Deletion failures are logged and left for the next cycle; they
// never fail the record.
func (n *NoteEngine) handleOrphans(ctx context.Context, ref models.ItemRef, seen map[string]bool) {
	for _, state := range n.store.NoteStatesForParent(ref.ItemKey) {
		if seen[state.NotionBlockID] {
			continue
		}

		if !n.deleteOrphans {
			n.logger.Warn().
				Str("func", "NoteEngine.handleOrphans").
				Str("block_id", state.NotionBlockID).
				Str("note_key", state.ZoteroNoteKey).
				Msg("source block gone, note kept (orphan deletion disabled)")
			continue
		}

		note, err := n.zotero.GetItem(ctx, ref.LibraryType, ref.LibraryID, state.ZoteroNoteKey)
		if errors.Is(err, adapter.ErrNotFound) {
			n.store.DeleteNoteState(state.NotionBlockID)
			continue
		}
		if err != nil {
			n.logger.Err(err).
				Str("func", "NoteEngine.handleOrphans").
				Str("note_key", state.ZoteroNoteKey).
				Msg("failed to fetch orphaned note")
			continue
		}

		if err = n.zotero.DeleteItem(ctx, ref.LibraryType, ref.LibraryID, state.ZoteroNoteKey, note.Version); err != nil {
			n.logger.Err(err).
				Str("func", "NoteEngine.handleOrphans").
				Str("note_key", state.ZoteroNoteKey).
				Msg("failed to delete orphaned note")
			continue
		}

		n.logger.Info().
			Str("func", "NoteEngine.handleOrphans").
			Str("block_id", state.NotionBlockID).
			Str("note_key", state.ZoteroNoteKey).
			Msg("orphaned note deleted")
		n.store.DeleteNoteState(state.NotionBlockID)
	}
}

// noteSection returns the blocks under the first top-level heading whose
// trimmed text equals marker. The section ends at the next heading of equal
// or higher level; deeper headings are part of the content. found
// distinguishes an empty section (heading present, no content) from a page
// without the heading at all.
func noteSection(blocks []models.Block, marker string) (section []models.Block, found bool) {
	for i, block := range blocks {
		level := block.HeadingLevel()
		if level == 0 || strings.TrimSpace(block.PlainText()) != marker {
			continue
		}

		for _, next := range blocks[i+1:] {
			if l := next.HeadingLevel(); l > 0 && l <= level {
				break
			}
			section = append(section, next)
		}
		return section, true
	}
	return nil, false
}
