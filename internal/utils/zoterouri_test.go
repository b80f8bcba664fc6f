// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package utils

import (
	"testing"

	"github.com/MKhiriev/notero-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseZoteroURI(t *testing.T) {
	tests := []struct {
		name    string
		uri     string
		want    models.ItemRef
		wantOK  bool
	}{
		{
			name:   "group URI with www",
			uri:    "https://www.zotero.org/groups/483726/items/A5X7AKTH",
			want:   models.ItemRef{LibraryType: "groups", LibraryID: 483726, ItemKey: "A5X7AKTH"},
			wantOK: true,
		},
		{
			name:   "user URI without www",
			uri:    "https://zotero.org/users/12345/items/ABCD1234",
			want:   models.ItemRef{LibraryType: "users", LibraryID: 12345, ItemKey: "ABCD1234"},
			wantOK: true,
		},
		{
			name:   "embedded in text",
			uri:    "See https://www.zotero.org/groups/100/items/KEY12345 for details",
			want:   models.ItemRef{LibraryType: "groups", LibraryID: 100, ItemKey: "KEY12345"},
			wantOK: true,
		},
		{
			name:   "http scheme",
			uri:    "http://zotero.org/groups/999/items/ZZZZ0000",
			want:   models.ItemRef{LibraryType: "groups", LibraryID: 999, ItemKey: "ZZZZ0000"},
			wantOK: true,
		},
		{name: "unrelated URL", uri: "https://google.com", wantOK: false},
		{name: "not a URL", uri: "not a url", wantOK: false},
		{name: "empty", uri: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseZoteroURI(tt.uri)
			require.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestItemRef_Paths(t *testing.T) {
	ref := models.ItemRef{LibraryType: "groups", LibraryID: 483726, ItemKey: "A5X7AKTH"}

	assert.Equal(t, "groups/483726", ref.LibraryPrefix())
	assert.Equal(t, "groups/483726/items/A5X7AKTH", ref.ItemPath())
}
