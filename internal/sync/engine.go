// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package sync

import (
	"context"
	"errors"
	"time"

	"github.com/MKhiriev/notero-sync/internal/adapter"
	"github.com/MKhiriev/notero-sync/internal/logger"
	"github.com/MKhiriev/notero-sync/internal/notion"
	"github.com/MKhiriev/notero-sync/internal/store"
	"github.com/MKhiriev/notero-sync/models"
)

// Outcome is the per-record result of one reconciliation pass.
type Outcome struct {
	PageID  string
	Ref     models.ItemRef
	Tracked bool

	Written         bool
	Conflicts       []string
	VersionConflict bool

	Skipped    bool
	SkipReason string
}

// Engine reconciles the syncable properties of one mirrored record at a
// time: fetch both sides, merge per field against the snapshot ancestor,
// stage a single conditional write, then advance the snapshot.
type Engine struct {
	notion   adapter.NotionAdapter
	zotero   adapter.ZoteroAdapter
	store    *store.Store
	resolver *CollectionResolver
	logger   *logger.Logger

	originTag string
}

func NewEngine(n adapter.NotionAdapter, z adapter.ZoteroAdapter, st *store.Store, resolver *CollectionResolver, originTag string, log *logger.Logger) *Engine {
	return &Engine{
		notion:    n,
		zotero:    z,
		store:     st,
		resolver:  resolver,
		logger:    log,
		originTag: originTag,
	}
}

// SyncPage reconciles one page against its mirrored library item. A returned
// error means a transport failure worth counting against the cycle; policy
// outcomes (skips, field conflicts, version conflicts) are reported through
// the Outcome instead.
func (e *Engine) SyncPage(ctx context.Context, page models.Page) (Outcome, error) {
	out := Outcome{PageID: page.ID}
	props := notion.ExtractPageProperties(page.Properties)

	if !PageRelevant(props) {
		return e.skip(out, "not relevant"), nil
	}

	if _, ok := PageItemRef(props); !ok {
		e.logger.Warn().
			Str("func", "Engine.SyncPage").
			Str("page_id", page.ID).
			Msg("page has no resolvable cross-reference")
		return e.skip(out, "unresolvable cross-reference"), nil
	}

	state, err := e.store.GetSyncState(page.ID)
	if errors.Is(err, store.ErrSyncStateNotFound) {
		return e.skip(out, "not bootstrapped"), nil
	}
	if state.Deleted {
		return e.skip(out, "target record deleted"), nil
	}

	// Reconciliation targets the tracked mirror, not whatever the page URI
	// points at: the URI references the source library the item was copied
	// from during bootstrap.
	ref := state.TargetRef()
	out.Ref = ref

	item, err := e.zotero.GetItem(ctx, ref.LibraryType, ref.LibraryID, ref.ItemKey)
	if errors.Is(err, adapter.ErrNotFound) {
		e.markGone(page.ID, ref)
		return e.skip(out, "target record gone"), nil
	}
	if err != nil {
		return out, err
	}

	patch, docKeys, conflicts, err := e.stage(ctx, props, state.PropertySnapshot, item, ref)
	if err != nil {
		return out, err
	}
	out.Conflicts = conflicts

	newVersion := item.Version
	if !patch.Empty() {
		newVersion, err = e.zotero.PatchItem(ctx, ref.LibraryType, ref.LibraryID, ref.ItemKey, patch, item.Version)
		switch {
		case errors.Is(err, adapter.ErrVersionConflict):
			// The item changed mid-cycle; the merge base is stale now.
			// Leave the snapshot untouched and let the next cycle retry.
			e.logger.Warn().
				Str("func", "Engine.SyncPage").
				Str("page_id", page.ID).
				Str("item_key", ref.ItemKey).
				Msg("version conflict, record deferred to next cycle")
			out.VersionConflict = true
			return out, nil
		case errors.Is(err, adapter.ErrNotFound):
			e.markGone(page.ID, ref)
			return e.skip(out, "target record gone"), nil
		case err != nil:
			return out, err
		}
		out.Written = true
	}

	// The new common ancestor: current document-side values. This runs on
	// no-op cycles too, so a snapshot that drifted only on the library side
	// catches up and the next diff stays correct.
	state.LastZoteroVersion = newVersion
	state.PropertySnapshot = buildSnapshot(props, docKeys)
	state.LastSyncedAt = time.Now().UTC()
	e.store.UpsertSyncState(state)

	out.Tracked = true
	return out, nil
}

// stage computes the patch covering every changed field. It returns the
// staged patch, the page's collection names resolved to keys, and the names
// of scalar fields that conflicted.
func (e *Engine) stage(ctx context.Context, props models.PageProperties, snapshot models.PropertySnapshot, item models.ZoteroItem, ref models.ItemRef) (models.ItemPatch, []string, []string, error) {
	var patch models.ItemPatch
	var conflicts []string

	// Tags: three-way, origin marker always kept.
	docTags := props.ListOf(PropTags)
	theirTags := models.TagsToList(item.Data.Tags)
	mergedTags := ThreeWayMerge(snapshot[PropTags].List, docTags, theirTags, []string{e.originTag})
	if !equalAsSets(mergedTags, theirTags) {
		tags := models.ListToTags(mergedTags)
		patch.Tags = &tags
	}

	// Collections: three-way over stable keys, never display names, so the
	// merge stays correct across renames.
	docKeys, err := e.resolver.NamesToKeys(ctx, ref.LibraryType, ref.LibraryID, props.ListOf(PropCollections))
	if err != nil {
		return models.ItemPatch{}, nil, nil, err
	}
	mergedKeys := ThreeWayMerge(snapshot[PropCollections].List, docKeys, item.Data.Collections, nil)
	if !equalAsSets(mergedKeys, item.Data.Collections) {
		keys := mergedKeys
		patch.Collections = &keys
	}

	// Scalars: document wins only when the library side is unchanged.
	for _, field := range syncableFields {
		if field.Strategy != strategyScalar {
			continue
		}

		d := props.Scalar(field.Name)
		b := snapshot[field.Name].Text
		t := scalarOf(item.Data, field.Name)

		switch {
		case d == b:
			// Document silent: the library side is authoritative.
		case t == b:
			stageScalar(&patch, field.Name, d)
		case d == t:
			// Both sides arrived at the same value independently.
		default:
			e.logger.Warn().
				Str("func", "Engine.stage").
				Str("item_key", ref.ItemKey).
				Str("field", field.Name).
				Msg("both sides changed since last sync, library value kept")
			conflicts = append(conflicts, field.Name)
		}
	}

	return patch, docKeys, conflicts, nil
}

func (e *Engine) markGone(pageID string, ref models.ItemRef) {
	e.logger.Warn().
		Str("func", "Engine.markGone").
		Str("page_id", pageID).
		Str("item_key", ref.ItemKey).
		Msg("mirrored item no longer exists, record marked deleted")
	e.store.MarkDeleted(pageID)
}

func (e *Engine) skip(out Outcome, reason string) Outcome {
	out.Skipped = true
	out.SkipReason = reason
	return out
}

func scalarOf(data models.ItemData, field string) string {
	switch field {
	case PropAbstract:
		return data.AbstractNote
	case PropShortTitle:
		return data.ShortTitle
	case PropExtra:
		return data.Extra
	}
	return ""
}

func stageScalar(patch *models.ItemPatch, field, value string) {
	v := value
	switch field {
	case PropAbstract:
		patch.AbstractNote = &v
	case PropShortTitle:
		patch.ShortTitle = &v
	case PropExtra:
		patch.Extra = &v
	}
}

// buildSnapshot captures the current document-side values of every syncable
// field. Collection memberships are recorded as resolved keys.
func buildSnapshot(props models.PageProperties, collectionKeys []string) models.PropertySnapshot {
	snapshot := make(models.PropertySnapshot, len(syncableFields))
	for _, field := range syncableFields {
		switch {
		case field.Name == PropCollections:
			snapshot[field.Name] = models.ListValue(collectionKeys)
		case field.Strategy == strategyThreeWay:
			snapshot[field.Name] = models.ListValue(props.ListOf(field.Name))
		default:
			snapshot[field.Name] = models.ScalarValue(props.Scalar(field.Name))
		}
	}
	return snapshot
}
