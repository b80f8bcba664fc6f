package utils

import (
	"regexp"
	"strconv"

	"github.com/MKhiriev/notero-sync/models"
)

// zoteroURIRe matches Zotero item URIs anywhere inside a string, e.g.
// "https://www.zotero.org/groups/483726/items/A5X7AKTH".
var zoteroURIRe = regexp.MustCompile(`https?://(?:www\.)?zotero\.org/(users|groups)/(\d+)/items/([A-Z0-9]+)`)

// ParseZoteroURI extracts a Zotero item reference from an opaque
// cross-reference string. The URI may be embedded in surrounding text.
// Returns false when no valid reference is found.
func ParseZoteroURI(uri string) (models.ItemRef, bool) {
	m := zoteroURIRe.FindStringSubmatch(uri)
	if m == nil {
		return models.ItemRef{}, false
	}

	libraryID, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return models.ItemRef{}, false
	}

	return models.ItemRef{
		LibraryType: m[1],
		LibraryID:   libraryID,
		ItemKey:     m[3],
	}, true
}
