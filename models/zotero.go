package models

import "encoding/json"

// Tag is a single Zotero tag in API format.
type Tag struct {
	Tag string `json:"tag"`
}

// TagsToList flattens Zotero tag objects to their names.
func TagsToList(tags []Tag) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, t.Tag)
	}
	return out
}

// ListToTags converts tag names to Zotero tag objects.
func ListToTags(names []string) []Tag {
	out := make([]Tag, 0, len(names))
	for _, n := range names {
		out = append(out, Tag{Tag: n})
	}
	return out
}

// StringList unmarshals a JSON value that is either a single string or an
// array of strings. Zotero relation values come in both shapes.
type StringList []string

func (s *StringList) UnmarshalJSON(b []byte) error {
	var one string
	if err := json.Unmarshal(b, &one); err == nil {
		*s = StringList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return err
	}
	*s = StringList(many)
	return nil
}

// ItemData is the typed view of a Zotero item's data the reconciler works
// with. Bibliographic metadata fields stay untyped in ZoteroItem.Raw; they
// are never merged.
type ItemData struct {
	Key          string                `json:"key,omitempty"`
	Version      int64                 `json:"version,omitempty"`
	ItemType     string                `json:"itemType,omitempty"`
	Tags         []Tag                 `json:"tags,omitempty"`
	Collections  []string              `json:"collections,omitempty"`
	AbstractNote string                `json:"abstractNote,omitempty"`
	ShortTitle   string                `json:"shortTitle,omitempty"`
	Extra        string                `json:"extra,omitempty"`
	Note         string                `json:"note,omitempty"`
	ContentType  string                `json:"contentType,omitempty"`
	Relations    map[string]StringList `json:"relations,omitempty"`
}

// ZoteroItem is a Zotero item together with its library version. Raw keeps
// the complete data payload so cross-library copies preserve fields the
// typed view does not model.
type ZoteroItem struct {
	Key     string
	Version int64
	Data    ItemData
	Raw     map[string]json.RawMessage
}

// ItemPatch is a partial update of a Zotero item. Nil fields are omitted
// from the PATCH body; the write is conditioned on the version the caller
// read earlier.
type ItemPatch struct {
	Tags         *[]Tag                 `json:"tags,omitempty"`
	Collections  *[]string              `json:"collections,omitempty"`
	AbstractNote *string                `json:"abstractNote,omitempty"`
	ShortTitle   *string                `json:"shortTitle,omitempty"`
	Extra        *string                `json:"extra,omitempty"`
	Note         *string                `json:"note,omitempty"`
	Relations    *map[string]StringList `json:"relations,omitempty"`
}

// Empty reports whether the patch stages no fields at all.
func (p ItemPatch) Empty() bool {
	return p.Tags == nil && p.Collections == nil && p.AbstractNote == nil &&
		p.ShortTitle == nil && p.Extra == nil && p.Note == nil && p.Relations == nil
}

// Collection is one Zotero collection: a stable key and its display name.
type Collection struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}
