// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package sync

import "sort"

// ThreeWayMerge reconciles an unordered collection field edited on both sides
// since a common ancestor. base is the last-synchronized value, ours the
// current document-side value, theirs the current library-side value.
// preserve entries are always present in the result.
//
// Both sides' deltas are additive: an item disappears only when one side
// removed it and the other did not touch it. The result keeps theirs'
// relative order for retained items; newly introduced items are appended in
// lexicographic order so repeated merges produce identical output.
func ThreeWayMerge(base, ours, theirs, preserve []string) []string {
	baseSet := toSet(base)
	oursSet := toSet(ours)

	oursAdded := make(map[string]bool)
	for item := range oursSet {
		if !baseSet[item] {
			oursAdded[item] = true
		}
	}
	oursRemoved := make(map[string]bool)
	for item := range baseSet {
		if !oursSet[item] {
			oursRemoved[item] = true
		}
	}

	result := make([]string, 0, len(theirs)+len(oursAdded)+len(preserve))
	seen := make(map[string]bool)

	// Start from theirs, dropping what we removed.
	for _, item := range theirs {
		if seen[item] || oursRemoved[item] {
			continue
		}
		seen[item] = true
		result = append(result, item)
	}

	// Append our additions and forced entries, sorted for stable output.
	var added []string
	for item := range oursAdded {
		if !seen[item] {
			seen[item] = true
			added = append(added, item)
		}
	}
	for _, item := range preserve {
		if !seen[item] {
			seen[item] = true
			added = append(added, item)
		}
	}
	sort.Strings(added)

	return append(result, added...)
}

// equalAsSets reports whether two lists contain the same items, ignoring
// order and duplicates.
func equalAsSets(a, b []string) bool {
	as, bs := toSet(a), toSet(b)
	if len(as) != len(bs) {
		return false
	}
	for item := range as {
		if !bs[item] {
			return false
		}
	}
	return true
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}
