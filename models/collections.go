package models

import "time"

// CollectionCache is the cached folder map of one Zotero library: collection
// key → display name. The cache is rebuilt wholesale on expiry, never patched
// incrementally, to avoid drift from stale partial updates.
type CollectionCache struct {
	LibraryType string            `json:"library_type"`
	LibraryID   int64             `json:"library_id"`
	RefreshedAt time.Time         `json:"refreshed_at"`
	Names       map[string]string `json:"names"`
}

// KeyByName returns the key of the collection with the given display name.
func (c CollectionCache) KeyByName(name string) (string, bool) {
	for key, n := range c.Names {
		if n == name {
			return key, true
		}
	}
	return "", false
}
