package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/notero-sync/models"
)

func newZoteroServer(t *testing.T, handler http.HandlerFunc) ZoteroAdapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewZoteroClient(ZoteroClientConfig{BaseURL: srv.URL, APIKey: "zkey"})
}

func TestZoteroClient_GetItem(t *testing.T) {
	client := newZoteroServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/groups/483726/items/ABCD2345", r.URL.Path)
		assert.Equal(t, "zkey", r.Header.Get("Zotero-API-Key"))

		w.Header().Set(versionHeader, "57")
		w.Write([]byte(`{
			"key": "ABCD2345",
			"version": 56,
			"data": {
				"key": "ABCD2345",
				"itemType": "journalArticle",
				"abstractNote": "on things",
				"tags": [{"tag": "go"}]
			}
		}`))
	})

	item, err := client.GetItem(context.Background(), "groups", 483726, "ABCD2345")
	require.NoError(t, err)
	assert.Equal(t, "ABCD2345", item.Key)
	// The Last-Modified-Version header wins over the body version.
	assert.Equal(t, int64(57), item.Version)
	assert.Equal(t, "on things", item.Data.AbstractNote)
	assert.Equal(t, []models.Tag{{Tag: "go"}}, item.Data.Tags)
	assert.Contains(t, item.Raw, "itemType")
}

func TestZoteroClient_PatchItem(t *testing.T) {
	client := newZoteroServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "41", r.Header.Get(unmodifiedHeader))

		var patch map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&patch))
		assert.Equal(t, "new abstract", patch["abstractNote"])
		assert.NotContains(t, patch, "tags")

		w.Header().Set(versionHeader, "42")
		w.WriteHeader(http.StatusNoContent)
	})

	abstract := "new abstract"
	version, err := client.PatchItem(context.Background(), "groups", 483726, "ABCD2345",
		models.ItemPatch{AbstractNote: &abstract}, 41)
	require.NoError(t, err)
	assert.Equal(t, int64(42), version)
}

func TestZoteroClient_PatchItem_VersionConflict(t *testing.T) {
	client := newZoteroServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(versionHeader, "44")
		w.WriteHeader(http.StatusPreconditionFailed)
	})

	_, err := client.PatchItem(context.Background(), "groups", 483726, "ABCD2345", models.ItemPatch{}, 41)
	assert.ErrorIs(t, err, ErrVersionConflict)
}

func TestZoteroClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{name: "not found", status: http.StatusNotFound, wantErr: ErrNotFound},
		{name: "unauthorized", status: http.StatusUnauthorized, wantErr: ErrUnauthorized},
		{name: "forbidden", status: http.StatusForbidden, wantErr: ErrUnauthorized},
		{name: "precondition failed", status: http.StatusPreconditionFailed, wantErr: ErrVersionConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newZoteroServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})

			_, err := client.GetItem(context.Background(), "groups", 483726, "ABCD2345")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestZoteroClient_CreateNote(t *testing.T) {
	client := newZoteroServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/groups/483726/items", r.URL.Path)

		var payload []map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Len(t, payload, 1)
		assert.Equal(t, "note", payload[0]["itemType"])
		assert.Equal(t, "ABCD2345", payload[0]["parentItem"])
		assert.Equal(t, "<p>hello</p>", payload[0]["note"])

		fmt.Fprint(w, `{"successful": {"0": {
			"key": "NOTE0001",
			"version": 12,
			"data": {"itemType": "note", "note": "<p>hello</p>"}
		}}}`)
	})

	note, err := client.CreateNote(context.Background(), "groups", 483726, "ABCD2345",
		"<p>hello</p>", []models.Tag{{Tag: "notion"}})
	require.NoError(t, err)
	assert.Equal(t, "NOTE0001", note.Key)
	assert.Equal(t, int64(12), note.Version)
	assert.Equal(t, "<p>hello</p>", note.Data.Note)
}

func TestZoteroClient_CreateItem_Rejected(t *testing.T) {
	client := newZoteroServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"failed": {"0": {"message": "itemType is required"}}}`)
	})

	_, err := client.CreateItem(context.Background(), "groups", 483726, map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "itemType is required")
}

func TestZoteroClient_GetChildren_FiltersItemType(t *testing.T) {
	client := newZoteroServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/groups/483726/items/ABCD2345/children", r.URL.Path)
		assert.Equal(t, "attachment", r.URL.Query().Get("itemType"))

		fmt.Fprint(w, `[{"key": "ATCH0001", "version": 3, "data": {"itemType": "attachment", "contentType": "application/pdf"}}]`)
	})

	children, err := client.GetChildren(context.Background(), "groups", 483726, "ABCD2345", "attachment")
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "ATCH0001", children[0].Key)
	assert.Equal(t, "application/pdf", children[0].Data.ContentType)
}

func TestZoteroClient_GetCollections_Pagination(t *testing.T) {
	first := make([]string, zoteroPageSize)
	for i := range first {
		first[i] = fmt.Sprintf(`{"key": "COLL%04d", "data": {"name": "Folder %d"}}`, i, i)
	}

	client := newZoteroServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("start") {
		case "0":
			fmt.Fprintf(w, "[%s]", strings.Join(first, ","))
		case "100":
			fmt.Fprint(w, `[{"key": "COLLLAST", "data": {"name": "The Last Folder"}}]`)
		default:
			t.Errorf("unexpected start %s", r.URL.Query().Get("start"))
		}
	})

	collections, err := client.GetCollections(context.Background(), "groups", 483726)
	require.NoError(t, err)
	require.Len(t, collections, zoteroPageSize+1)
	assert.Equal(t, models.Collection{Key: "COLLLAST", Name: "The Last Folder"}, collections[zoteroPageSize])
}

func TestZoteroClient_ResolvesUserLibraryID(t *testing.T) {
	keyCalls := 0
	client := newZoteroServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/keys/zkey":
			keyCalls++
			fmt.Fprint(w, `{"userID": 12345}`)
		case "/users/12345/items/ABCD2345":
			fmt.Fprint(w, `{"key": "ABCD2345", "version": 1, "data": {}}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})

	_, err := client.GetItem(context.Background(), "users", 0, "ABCD2345")
	require.NoError(t, err)

	// The resolved id is cached across calls.
	_, err = client.GetItem(context.Background(), "users", 0, "ABCD2345")
	require.NoError(t, err)
	assert.Equal(t, 1, keyCalls)
}

func TestZoteroClient_UploadAttachment_AlreadyStored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paper.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 fake"), 0o600))

	client := newZoteroServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/groups/483726/items":
			fmt.Fprint(w, `{"successful": {"0": {"key": "ATCH0001", "version": 5, "data": {"itemType": "attachment"}}}}`)
		case r.URL.Path == "/groups/483726/items/ATCH0001/file":
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "paper.pdf", r.Form.Get("filename"))
			// Identical file already stored server-side.
			fmt.Fprint(w, `{"exists": 1}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	err := client.UploadAttachment(context.Background(), "groups", 483726, "ABCD2345", path)
	require.NoError(t, err)
}
