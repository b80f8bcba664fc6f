package sync

import (
	"context"
	"fmt"

	"github.com/MKhiriev/notero-sync/models"
)

// fakeNotion is a test implementation of adapter.NotionAdapter backed by
// in-memory fixtures.
type fakeNotion struct {
	pages  []models.Page
	blocks map[string][]models.Block

	queryErr     error
	changedCalls []string
	allCalls     int

	// gate, when set, blocks query calls until closed.
	gate chan struct{}
}

func (f *fakeNotion) GetPage(_ context.Context, pageID string) (models.Page, error) {
	for _, p := range f.pages {
		if p.ID == pageID {
			return p, nil
		}
	}
	return models.Page{}, fmt.Errorf("page %s not in fixture", pageID)
}

func (f *fakeNotion) GetPageProperties(ctx context.Context, pageID string) (models.PageProperties, error) {
	page, err := f.GetPage(ctx, pageID)
	if err != nil {
		return nil, err
	}
	props := make(models.PageProperties)
	for name, prop := range page.Properties {
		if prop.Type == "select" && prop.Select != nil {
			props[name] = models.ScalarValue(prop.Select.Name)
		}
	}
	return props, nil
}

func (f *fakeNotion) GetBlockChildren(_ context.Context, blockID string, _ bool) ([]models.Block, error) {
	return f.blocks[blockID], nil
}

func (f *fakeNotion) QueryAllPages(_ context.Context, _ string) ([]models.Page, error) {
	f.allCalls++
	if f.gate != nil {
		<-f.gate
	}
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.pages, nil
}

func (f *fakeNotion) QueryPagesChangedSince(_ context.Context, _ string, since string) ([]models.Page, error) {
	f.changedCalls = append(f.changedCalls, since)
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.pages, nil
}

type patchCall struct {
	ItemKey string
	Patch   models.ItemPatch
	Version int64
}

type noteCall struct {
	ParentKey string
	HTML      string
	Tags      []models.Tag
}

// fakeZotero is a test implementation of adapter.ZoteroAdapter. Items live in
// a map keyed by item key; calls are recorded for assertions.
type fakeZotero struct {
	items    map[string]models.ZoteroItem
	children map[string][]models.ZoteroItem

	collections    []models.Collection
	collectionsErr error

	getErr    map[string]error
	patchErr  error
	createErr error

	patches     []patchCall
	notes       []noteCall
	created     []map[string]any
	deleted     []string
	uploads     []string
	nextVersion int64
	noteSeq     int
}

func newFakeZotero() *fakeZotero {
	return &fakeZotero{
		items:       make(map[string]models.ZoteroItem),
		children:    make(map[string][]models.ZoteroItem),
		getErr:      make(map[string]error),
		nextVersion: 100,
	}
}

func (f *fakeZotero) GetItem(_ context.Context, _ string, _ int64, itemKey string) (models.ZoteroItem, error) {
	if err := f.getErr[itemKey]; err != nil {
		return models.ZoteroItem{}, err
	}
	item, ok := f.items[itemKey]
	if !ok {
		return models.ZoteroItem{}, fmt.Errorf("item %s not in fixture", itemKey)
	}
	return item, nil
}

func (f *fakeZotero) PatchItem(_ context.Context, _ string, _ int64, itemKey string, patch models.ItemPatch, version int64) (int64, error) {
	if f.patchErr != nil {
		return 0, f.patchErr
	}
	f.patches = append(f.patches, patchCall{ItemKey: itemKey, Patch: patch, Version: version})
	f.nextVersion++
	return f.nextVersion, nil
}

func (f *fakeZotero) CreateNote(_ context.Context, _ string, _ int64, parentKey, noteHTML string, tags []models.Tag) (models.ZoteroItem, error) {
	f.notes = append(f.notes, noteCall{ParentKey: parentKey, HTML: noteHTML, Tags: tags})
	f.noteSeq++
	key := fmt.Sprintf("NOTE%04d", f.noteSeq)
	note := models.ZoteroItem{Key: key, Version: f.nextVersion, Data: models.ItemData{ItemType: "note", Note: noteHTML}}
	f.items[key] = note
	return note, nil
}

func (f *fakeZotero) DeleteItem(_ context.Context, _ string, _ int64, itemKey string, _ int64) error {
	f.deleted = append(f.deleted, itemKey)
	delete(f.items, itemKey)
	return nil
}

func (f *fakeZotero) GetChildren(_ context.Context, _ string, _ int64, itemKey, _ string) ([]models.ZoteroItem, error) {
	return f.children[itemKey], nil
}

func (f *fakeZotero) GetCollections(_ context.Context, _ string, _ int64) ([]models.Collection, error) {
	if f.collectionsErr != nil {
		return nil, f.collectionsErr
	}
	return f.collections, nil
}

func (f *fakeZotero) CreateItem(_ context.Context, _ string, _ int64, data map[string]any) (models.ZoteroItem, error) {
	if f.createErr != nil {
		return models.ZoteroItem{}, f.createErr
	}
	f.created = append(f.created, data)
	key := fmt.Sprintf("COPY%04d", len(f.created))
	item := models.ZoteroItem{Key: key, Version: f.nextVersion}
	f.items[key] = item
	return item, nil
}

func (f *fakeZotero) UploadAttachment(_ context.Context, _ string, _ int64, parentKey, path string) error {
	f.uploads = append(f.uploads, parentKey+":"+path)
	return nil
}

// Page fixture helpers.

func selectProp(value string) models.Property {
	return models.Property{Type: "select", Select: &models.SelectOption{Name: value}}
}

func urlProp(value string) models.Property {
	return models.Property{Type: "url", URL: &value}
}

func richTextProp(value string) models.Property {
	return models.Property{Type: "rich_text", RichText: []models.RichText{{PlainText: value}}}
}

func multiSelectProp(values ...string) models.Property {
	opts := make([]models.SelectOption, 0, len(values))
	for _, v := range values {
		opts = append(opts, models.SelectOption{Name: v})
	}
	return models.Property{Type: "multi_select", MultiSelect: opts}
}

func relevantPage(id, uri string, extra map[string]models.Property) models.Page {
	props := map[string]models.Property{
		PropRelevance: selectProp("Yes"),
		PropZoteroURI: urlProp(uri),
	}
	for name, prop := range extra {
		props[name] = prop
	}
	return models.Page{ID: id, Properties: props}
}

func paragraphBlock(id, text string) models.Block {
	return models.Block{
		ID:        id,
		Type:      models.BlockParagraph,
		Paragraph: &models.BlockText{RichText: []models.RichText{{PlainText: text}}},
	}
}

func headingBlock(id string, level int, text string) models.Block {
	b := models.Block{ID: id}
	payload := &models.BlockText{RichText: []models.RichText{{PlainText: text}}}
	switch level {
	case 1:
		b.Type = models.BlockHeading1
		b.Heading1 = payload
	case 2:
		b.Type = models.BlockHeading2
		b.Heading2 = payload
	default:
		b.Type = models.BlockHeading3
		b.Heading3 = payload
	}
	return b
}
