package sync

import (
	"strings"

	"github.com/MKhiriev/notero-sync/internal/utils"
	"github.com/MKhiriev/notero-sync/models"
)

// Well-known Notion property names.
const (
	PropRelevance   = "Relevant?"
	PropZoteroURI   = "Zotero URI"
	PropFilePath    = "File Path"
	PropTags        = "Tags"
	PropCollections = "Collections"
	PropAbstract    = "Abstract"
	PropShortTitle  = "Short Title"
	PropExtra       = "Extra"
)

// mergeStrategy selects how a syncable field is reconciled.
type mergeStrategy int

const (
	// strategyThreeWay merges unordered collections through [ThreeWayMerge].
	strategyThreeWay mergeStrategy = iota

	// strategyScalar applies the scalar conflict policy: the document side
	// wins only when the library side is unchanged since the snapshot.
	strategyScalar
)

// fieldSpec declares one syncable field: the Notion property it is read from
// and the reconciliation strategy. Fields outside this map are never merged.
type fieldSpec struct {
	Name     string
	Strategy mergeStrategy
}

// syncableFields is the closed set of reconciled fields. Bibliographic
// metadata (title, authors, date) is deliberately absent: the library side
// is authoritative for it.
var syncableFields = []fieldSpec{
	{Name: PropTags, Strategy: strategyThreeWay},
	{Name: PropCollections, Strategy: strategyThreeWay},
	{Name: PropAbstract, Strategy: strategyScalar},
	{Name: PropShortTitle, Strategy: strategyScalar},
	{Name: PropExtra, Strategy: strategyScalar},
}

// relevantValues are the select values that make a page eligible for syncing.
var relevantValues = map[string]bool{
	"Yes":    true,
	"Highly": true,
}

// PageRelevant reports whether a page passes the relevance gate.
func PageRelevant(props models.PageProperties) bool {
	return relevantValues[strings.TrimSpace(props.Scalar(PropRelevance))]
}

// PageItemRef parses the page's cross-reference property into an item
// reference. ok is false when the property is absent or unparseable.
func PageItemRef(props models.PageProperties) (models.ItemRef, bool) {
	return utils.ParseZoteroURI(props.Scalar(PropZoteroURI))
}
