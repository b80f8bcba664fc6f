package models

import "fmt"

// ItemRef is a parsed reference to a Zotero item: the library scope
// ("users" or "groups"), the numeric library id and the item key.
type ItemRef struct {
	LibraryType string `json:"library_type"`
	LibraryID   int64  `json:"library_id"`
	ItemKey     string `json:"item_key"`
}

// LibraryPrefix returns the API path prefix for the referenced library,
// e.g. "groups/483726".
func (r ItemRef) LibraryPrefix() string {
	return fmt.Sprintf("%s/%d", r.LibraryType, r.LibraryID)
}

// ItemPath returns the API path of the referenced item,
// e.g. "groups/483726/items/A5X7AKTH".
func (r ItemRef) ItemPath() string {
	return fmt.Sprintf("%s/items/%s", r.LibraryPrefix(), r.ItemKey)
}
