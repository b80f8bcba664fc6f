package sync

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/notero-sync/internal/adapter"
	"github.com/MKhiriev/notero-sync/internal/logger"
	"github.com/MKhiriev/notero-sync/internal/store"
	"github.com/MKhiriev/notero-sync/models"
)

const (
	testItemKey = "ABCD2345"
	testItemURI = "https://www.zotero.org/groups/483726/items/ABCD2345"
	testLibrary = int64(483726)
)

func newTestEngine(t *testing.T) (*Engine, *fakeZotero, *store.Store) {
	t.Helper()

	st := newMemStore(t)
	z := newFakeZotero()
	resolver := NewCollectionResolver(z, st, logger.Nop())

	return NewEngine(&fakeNotion{}, z, st, resolver, "notion", logger.Nop()), z, st
}

func newMemStore(t *testing.T) *store.Store {
	t.Helper()

	backend := store.NewFileBackend(filepath.Join(t.TempDir(), "state.json"), logger.Nop())
	st, err := store.NewStore(context.Background(), backend, logger.Nop())
	require.NoError(t, err)
	return st
}

func trackedState(snapshot models.PropertySnapshot) models.SyncState {
	return models.SyncState{
		NotionPageID:      "page-1",
		ZoteroItemKey:     testItemKey,
		ZoteroLibraryType: "groups",
		ZoteroLibraryID:   testLibrary,
		LastZoteroVersion: 40,
		PropertySnapshot:  snapshot,
		LastSyncedAt:      time.Now().UTC(),
	}
}

// ── scalar policy ────────────────────────────────────────────────────────────

func TestEngine_ScalarDocumentWins(t *testing.T) {
	e, z, st := newTestEngine(t)

	st.UpsertSyncState(trackedState(models.PropertySnapshot{
		PropTags:     models.ListValue([]string{"notion"}),
		PropAbstract: models.ScalarValue("x"),
	}))
	z.items[testItemKey] = models.ZoteroItem{
		Key:     testItemKey,
		Version: 41,
		Data: models.ItemData{
			Tags:         models.ListToTags([]string{"notion"}),
			AbstractNote: "x",
		},
	}

	page := relevantPage("page-1", testItemURI, map[string]models.Property{
		PropTags:     multiSelectProp("notion"),
		PropAbstract: richTextProp("y"),
	})

	out, err := e.SyncPage(context.Background(), page)
	require.NoError(t, err)
	assert.True(t, out.Written)
	assert.Empty(t, out.Conflicts)

	require.Len(t, z.patches, 1)
	require.NotNil(t, z.patches[0].Patch.AbstractNote)
	assert.Equal(t, "y", *z.patches[0].Patch.AbstractNote)
	assert.Equal(t, int64(41), z.patches[0].Version)

	got, err := st.GetSyncState("page-1")
	require.NoError(t, err)
	assert.Equal(t, "y", got.PropertySnapshot[PropAbstract].Text)
	assert.Greater(t, got.LastZoteroVersion, int64(41))
}

func TestEngine_ScalarConflictLibraryWins(t *testing.T) {
	e, z, st := newTestEngine(t)

	st.UpsertSyncState(trackedState(models.PropertySnapshot{
		PropTags:     models.ListValue([]string{"notion"}),
		PropAbstract: models.ScalarValue("x"),
	}))
	z.items[testItemKey] = models.ZoteroItem{
		Key:     testItemKey,
		Version: 41,
		Data: models.ItemData{
			Tags:         models.ListToTags([]string{"notion"}),
			AbstractNote: "z",
		},
	}

	page := relevantPage("page-1", testItemURI, map[string]models.Property{
		PropTags:     multiSelectProp("notion"),
		PropAbstract: richTextProp("y"),
	})

	out, err := e.SyncPage(context.Background(), page)
	require.NoError(t, err)

	// Library value wins: nothing staged, conflict reported.
	assert.False(t, out.Written)
	assert.Empty(t, z.patches)
	assert.Equal(t, []string{PropAbstract}, out.Conflicts)

	// Snapshot still advances to the document values.
	got, err := st.GetSyncState("page-1")
	require.NoError(t, err)
	assert.Equal(t, "y", got.PropertySnapshot[PropAbstract].Text)
}

func TestEngine_ScalarDocumentSilent(t *testing.T) {
	e, z, st := newTestEngine(t)

	st.UpsertSyncState(trackedState(models.PropertySnapshot{
		PropTags:     models.ListValue([]string{"notion"}),
		PropAbstract: models.ScalarValue("x"),
	}))
	// Library changed the abstract; the document didn't. No write happens —
	// the library is authoritative when the document is silent.
	z.items[testItemKey] = models.ZoteroItem{
		Key:     testItemKey,
		Version: 41,
		Data: models.ItemData{
			Tags:         models.ListToTags([]string{"notion"}),
			AbstractNote: "library edit",
		},
	}

	page := relevantPage("page-1", testItemURI, map[string]models.Property{
		PropTags:     multiSelectProp("notion"),
		PropAbstract: richTextProp("x"),
	})

	out, err := e.SyncPage(context.Background(), page)
	require.NoError(t, err)
	assert.False(t, out.Written)
	assert.Empty(t, out.Conflicts)
	assert.Empty(t, z.patches)
}

// ── tag merge ────────────────────────────────────────────────────────────────

func TestEngine_TagMergeBothSidesAdd(t *testing.T) {
	e, z, st := newTestEngine(t)

	st.UpsertSyncState(trackedState(models.PropertySnapshot{
		PropTags: models.ListValue([]string{"a", "notion"}),
	}))
	z.items[testItemKey] = models.ZoteroItem{
		Key:     testItemKey,
		Version: 41,
		Data:    models.ItemData{Tags: models.ListToTags([]string{"a", "c", "notion"})},
	}

	page := relevantPage("page-1", testItemURI, map[string]models.Property{
		PropTags: multiSelectProp("a", "b", "notion"),
	})

	out, err := e.SyncPage(context.Background(), page)
	require.NoError(t, err)
	assert.True(t, out.Written)

	require.Len(t, z.patches, 1)
	require.NotNil(t, z.patches[0].Patch.Tags)
	assert.Equal(t, []string{"a", "c", "notion", "b"}, models.TagsToList(*z.patches[0].Patch.Tags))
}

func TestEngine_SnapshotAdvanceOnNoop(t *testing.T) {
	e, z, st := newTestEngine(t)

	st.UpsertSyncState(trackedState(models.PropertySnapshot{
		PropTags: models.ListValue([]string{"a", "notion"}),
	}))
	// The library added "c" on its own; the merged result equals the current
	// library tags, so no write is needed.
	z.items[testItemKey] = models.ZoteroItem{
		Key:     testItemKey,
		Version: 41,
		Data:    models.ItemData{Tags: models.ListToTags([]string{"a", "c", "notion"})},
	}

	page := relevantPage("page-1", testItemURI, map[string]models.Property{
		PropTags: multiSelectProp("a", "notion"),
	})

	out, err := e.SyncPage(context.Background(), page)
	require.NoError(t, err)
	assert.False(t, out.Written)
	assert.Empty(t, z.patches)

	// The snapshot still catches up with the current document values and
	// the version is refreshed from the read.
	got, err := st.GetSyncState("page-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "notion"}, got.PropertySnapshot[PropTags].List)
	assert.Equal(t, int64(41), got.LastZoteroVersion)
}

// ── failure policy ───────────────────────────────────────────────────────────

func TestEngine_VersionConflictLeavesSnapshotUntouched(t *testing.T) {
	e, z, st := newTestEngine(t)

	st.UpsertSyncState(trackedState(models.PropertySnapshot{
		PropTags:     models.ListValue([]string{"notion"}),
		PropAbstract: models.ScalarValue("x"),
	}))
	z.items[testItemKey] = models.ZoteroItem{
		Key:     testItemKey,
		Version: 41,
		Data: models.ItemData{
			Tags:         models.ListToTags([]string{"notion"}),
			AbstractNote: "x",
		},
	}
	z.patchErr = adapter.ErrVersionConflict

	page := relevantPage("page-1", testItemURI, map[string]models.Property{
		PropTags:     multiSelectProp("notion"),
		PropAbstract: richTextProp("y"),
	})

	out, err := e.SyncPage(context.Background(), page)
	require.NoError(t, err)
	assert.True(t, out.VersionConflict)
	assert.False(t, out.Written)

	// The stale snapshot stays: the next cycle re-reads and retries.
	got, err := st.GetSyncState("page-1")
	require.NoError(t, err)
	assert.Equal(t, "x", got.PropertySnapshot[PropAbstract].Text)
	assert.Equal(t, int64(40), got.LastZoteroVersion)
}

func TestEngine_ItemGoneMarksDeleted(t *testing.T) {
	e, z, st := newTestEngine(t)

	st.UpsertSyncState(trackedState(nil))
	z.getErr[testItemKey] = adapter.ErrNotFound

	page := relevantPage("page-1", testItemURI, nil)

	out, err := e.SyncPage(context.Background(), page)
	require.NoError(t, err)
	assert.True(t, out.Skipped)
	assert.Equal(t, "target record gone", out.SkipReason)

	got, err := st.GetSyncState("page-1")
	require.NoError(t, err)
	assert.True(t, got.Deleted)

	// A deleted record is skipped on the next pass without touching the API.
	z.getErr = map[string]error{}
	out, err = e.SyncPage(context.Background(), page)
	require.NoError(t, err)
	assert.True(t, out.Skipped)
	assert.Equal(t, "target record deleted", out.SkipReason)
}

func TestEngine_SkipsUntrackedAndIrrelevantPages(t *testing.T) {
	e, z, _ := newTestEngine(t)

	tests := []struct {
		name   string
		page   models.Page
		reason string
	}{
		{
			name:   "not bootstrapped",
			page:   relevantPage("page-9", testItemURI, nil),
			reason: "not bootstrapped",
		},
		{
			name: "not relevant",
			page: models.Page{ID: "page-1", Properties: map[string]models.Property{
				PropRelevance: selectProp("No"),
				PropZoteroURI: urlProp(testItemURI),
			}},
			reason: "not relevant",
		},
		{
			name: "no cross-reference",
			page: models.Page{ID: "page-1", Properties: map[string]models.Property{
				PropRelevance: selectProp("Highly"),
			}},
			reason: "unresolvable cross-reference",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := e.SyncPage(context.Background(), tt.page)
			require.NoError(t, err)
			assert.True(t, out.Skipped)
			assert.Equal(t, tt.reason, out.SkipReason)
			assert.Empty(t, z.patches)
		})
	}
}
