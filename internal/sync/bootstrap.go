// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package sync

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/MKhiriev/notero-sync/internal/adapter"
	"github.com/MKhiriev/notero-sync/internal/logger"
	"github.com/MKhiriev/notero-sync/internal/notion"
	"github.com/MKhiriev/notero-sync/internal/store"
	"github.com/MKhiriev/notero-sync/internal/utils"
	"github.com/MKhiriev/notero-sync/models"
)

// relationSameAs is the Zotero relation predicate used as the back-reference
// marker from a source item to its copy in the target group.
const relationSameAs = "owl:sameAs"

// copyStripFields are dropped when an item is copied across libraries:
// they are library-specific and must be assigned fresh by the target.
var copyStripFields = map[string]bool{
	"key":          true,
	"version":      true,
	"collections":  true,
	"relations":    true,
	"dateAdded":    true,
	"dateModified": true,
}

type importStatus int

const (
	importSkipped importStatus = iota
	importCreated
	importMirrored
)

// Importer runs the one-time baseline pass: for every eligible page it
// ensures a mirrored item exists in the target group and seeds the initial
// SyncState snapshot the reconciliation engine depends on.
type Importer struct {
	notion   adapter.NotionAdapter
	zotero   adapter.ZoteroAdapter
	store    *store.Store
	resolver *CollectionResolver
	logger   *logger.Logger

	databaseID string
	groupID    int64
}

func NewImporter(n adapter.NotionAdapter, z adapter.ZoteroAdapter, st *store.Store, resolver *CollectionResolver, databaseID string, groupID int64, log *logger.Logger) *Importer {
	return &Importer{
		notion:     n,
		zotero:     z,
		store:      st,
		resolver:   resolver,
		logger:     log,
		databaseID: databaseID,
		groupID:    groupID,
	}
}

// Run walks every page of the database and mirrors the eligible ones.
// Individual page failures are counted as skips; only listing the database
// itself is fatal.
func (i *Importer) Run(ctx context.Context) (models.BootstrapSummary, error) {
	var summary models.BootstrapSummary

	pages, err := i.notion.QueryAllPages(ctx, i.databaseID)
	if err != nil {
		i.logger.Err(err).Str("func", "Importer.Run").Msg("failed to query database pages")
		return summary, fmt.Errorf("query pages: %w", err)
	}

	for _, page := range pages {
		status, attached := i.importPage(ctx, page)

		switch status {
		case importCreated:
			summary.Created++
		case importMirrored:
			summary.AlreadyMirrored++
		default:
			summary.Skipped++
		}
		if attached {
			summary.AttachedFiles++
		}
	}

	// Collections may have appeared in the group during the pass; make the
	// next reconciliation cycle see them immediately.
	if _, err = i.resolver.Refresh(ctx, "groups", i.groupID); err != nil {
		i.logger.Warn().Err(err).Str("func", "Importer.Run").Msg("collection cache refresh failed")
	}

	i.logger.Info().
		Str("func", "Importer.Run").
		Int("created", summary.Created).
		Int("already_mirrored", summary.AlreadyMirrored).
		Int("attached_files", summary.AttachedFiles).
		Int("skipped", summary.Skipped).
		Msg("bootstrap pass finished")

	return summary, nil
}

func (i *Importer) importPage(ctx context.Context, page models.Page) (importStatus, bool) {
	log := i.logger.With().Str("func", "Importer.importPage").Str("page_id", page.ID).Logger()
	props := notion.ExtractPageProperties(page.Properties)

	if !PageRelevant(props) {
		return importSkipped, false
	}

	sourceRef, ok := PageItemRef(props)
	if !ok {
		log.Warn().Msg("page has no resolvable cross-reference")
		return importSkipped, false
	}

	if _, err := i.store.GetSyncState(page.ID); err == nil {
		return importMirrored, false
	}

	source, err := i.zotero.GetItem(ctx, sourceRef.LibraryType, sourceRef.LibraryID, sourceRef.ItemKey)
	if err != nil {
		log.Warn().Err(err).Str("item_key", sourceRef.ItemKey).Msg("source item not fetchable")
		return importSkipped, false
	}

	status := importMirrored
	target, found := i.findMirror(ctx, source)
	if !found {
		target, err = i.copyItem(ctx, sourceRef, source)
		if err != nil {
			log.Err(err).Str("item_key", sourceRef.ItemKey).Msg("failed to copy item into group")
			return importSkipped, false
		}
		status = importCreated
		log.Info().Str("item_key", target.Key).Msg("item mirrored into group")
	}

	attached := i.attachFile(ctx, props, target.Key)

	keys, err := i.resolver.NamesToKeys(ctx, "groups", i.groupID, props.ListOf(PropCollections))
	if err != nil {
		log.Warn().Err(err).Msg("collection resolution failed, snapshot seeded without folder keys")
		keys = nil
	}

	i.store.UpsertSyncState(models.SyncState{
		NotionPageID:      page.ID,
		ZoteroItemKey:     target.Key,
		ZoteroLibraryType: "groups",
		ZoteroLibraryID:   i.groupID,
		LastZoteroVersion: target.Version,
		PropertySnapshot:  buildSnapshot(props, keys),
		LastSyncedAt:      time.Now().UTC(),
	})

	return status, attached
}

// findMirror follows the source item's back-reference relations into the
// target group. A stale or unresolvable back-reference counts as "not yet
// mirrored" — the caller creates a fresh copy, never overwrites.
func (i *Importer) findMirror(ctx context.Context, source models.ZoteroItem) (models.ZoteroItem, bool) {
	for _, uri := range source.Data.Relations[relationSameAs] {
		ref, ok := utils.ParseZoteroURI(uri)
		if !ok || ref.LibraryType != "groups" || ref.LibraryID != i.groupID {
			continue
		}

		item, err := i.zotero.GetItem(ctx, ref.LibraryType, ref.LibraryID, ref.ItemKey)
		if err == nil {
			return item, true
		}
		if !errors.Is(err, adapter.ErrNotFound) {
			i.logger.Warn().Err(err).
				Str("func", "Importer.findMirror").
				Str("item_key", ref.ItemKey).
				Msg("back-referenced item not fetchable, treating as unmirrored")
		}
	}
	return models.ZoteroItem{}, false
}

// copyItem creates a copy of the source item in the target group and writes
// the back-reference relation onto the source.
func (i *Importer) copyItem(ctx context.Context, sourceRef models.ItemRef, source models.ZoteroItem) (models.ZoteroItem, error) {
	data := make(map[string]any, len(source.Raw))
	for field, value := range source.Raw {
		if copyStripFields[field] {
			continue
		}
		data[field] = value
	}

	created, err := i.zotero.CreateItem(ctx, "groups", i.groupID, data)
	if err != nil {
		return models.ZoteroItem{}, err
	}

	// The back-reference makes future bootstrap runs find the copy instead
	// of creating another. Failure here is not fatal: the SyncState still
	// prevents a duplicate for this installation.
	relations := make(map[string]models.StringList, len(source.Data.Relations)+1)
	for predicate, values := range source.Data.Relations {
		relations[predicate] = values
	}
	targetURI := fmt.Sprintf("http://zotero.org/groups/%d/items/%s", i.groupID, created.Key)
	relations[relationSameAs] = append(relations[relationSameAs], targetURI)

	patch := models.ItemPatch{Relations: &relations}
	if _, err = i.zotero.PatchItem(ctx, sourceRef.LibraryType, sourceRef.LibraryID, sourceRef.ItemKey, patch, source.Version); err != nil {
		i.logger.Warn().Err(err).
			Str("func", "Importer.copyItem").
			Str("item_key", sourceRef.ItemKey).
			Msg("failed to write back-reference on source item")
	}

	return created, nil
}

// attachFile uploads the page's local PDF to the mirrored item unless one is
// already attached. Reports whether a new attachment was made.
func (i *Importer) attachFile(ctx context.Context, props models.PageProperties, itemKey string) bool {
	path := props.Scalar(PropFilePath)
	if path == "" {
		return false
	}
	if _, err := os.Stat(path); err != nil {
		i.logger.Warn().
			Str("func", "Importer.attachFile").
			Str("path", path).
			Msg("file path does not exist, attachment skipped")
		return false
	}

	children, err := i.zotero.GetChildren(ctx, "groups", i.groupID, itemKey, "attachment")
	if err != nil {
		i.logger.Warn().Err(err).
			Str("func", "Importer.attachFile").
			Str("item_key", itemKey).
			Msg("failed to list attachments")
		return false
	}
	for _, child := range children {
		if child.Data.ContentType == "application/pdf" {
			return false
		}
	}

	if err = i.zotero.UploadAttachment(ctx, "groups", i.groupID, itemKey, path); err != nil {
		i.logger.Err(err).
			Str("func", "Importer.attachFile").
			Str("item_key", itemKey).
			Msg("attachment upload failed")
		return false
	}

	i.logger.Info().
		Str("func", "Importer.attachFile").
		Str("item_key", itemKey).
		Str("path", path).
		Msg("file attached")
	return true
}
