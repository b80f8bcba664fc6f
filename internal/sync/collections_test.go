package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/notero-sync/internal/logger"
	"github.com/MKhiriev/notero-sync/models"
)

func newTestResolver(t *testing.T) (*CollectionResolver, *fakeZotero) {
	t.Helper()

	z := newFakeZotero()
	z.collections = []models.Collection{
		{Key: "COLL1111", Name: "Reading List"},
		{Key: "COLL2222", Name: "Archive"},
	}

	r := NewCollectionResolver(z, newMemStore(t), logger.Nop())
	return r, z
}

func TestCollectionResolver_NamesToKeys(t *testing.T) {
	r, _ := newTestResolver(t)

	keys, err := r.NamesToKeys(context.Background(), "groups", testLibrary, []string{"Reading List", "No Such Folder", "Archive"})
	require.NoError(t, err)
	assert.Equal(t, []string{"COLL1111", "COLL2222"}, keys)
}

func TestCollectionResolver_KeysToNames(t *testing.T) {
	r, _ := newTestResolver(t)

	names, err := r.KeysToNames(context.Background(), "groups", testLibrary, []string{"COLL2222", "GONE9999"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Archive"}, names)
}

func TestCollectionResolver_EmptyInputSkipsAPI(t *testing.T) {
	r, z := newTestResolver(t)
	z.collectionsErr = errors.New("should not be called")

	keys, err := r.NamesToKeys(context.Background(), "groups", testLibrary, nil)
	require.NoError(t, err)
	assert.Nil(t, keys)
}

func TestCollectionResolver_CacheRespectsTTL(t *testing.T) {
	r, z := newTestResolver(t)

	base := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return base }

	_, err := r.NamesToKeys(context.Background(), "groups", testLibrary, []string{"Archive"})
	require.NoError(t, err)

	// Inside the TTL the cache is trusted even though the API changed.
	z.collections = []models.Collection{{Key: "COLL3333", Name: "Archive"}}
	r.now = func() time.Time { return base.Add(collectionCacheTTL / 2) }

	keys, err := r.NamesToKeys(context.Background(), "groups", testLibrary, []string{"Archive"})
	require.NoError(t, err)
	assert.Equal(t, []string{"COLL2222"}, keys)

	// Past the TTL the whole map is rebuilt.
	r.now = func() time.Time { return base.Add(collectionCacheTTL + time.Second) }

	keys, err = r.NamesToKeys(context.Background(), "groups", testLibrary, []string{"Archive"})
	require.NoError(t, err)
	assert.Equal(t, []string{"COLL3333"}, keys)
}

func TestCollectionResolver_RefreshSwapsWholeCache(t *testing.T) {
	r, z := newTestResolver(t)

	_, err := r.Refresh(context.Background(), "groups", testLibrary)
	require.NoError(t, err)

	z.collections = []models.Collection{{Key: "COLL4444", Name: "New Home"}}
	cache, err := r.Refresh(context.Background(), "groups", testLibrary)
	require.NoError(t, err)

	assert.Len(t, cache.Names, 1)
	_, kept := cache.Names["COLL1111"]
	assert.False(t, kept)
}

func TestCollectionResolver_APIFailurePropagates(t *testing.T) {
	r, z := newTestResolver(t)
	z.collectionsErr = errors.New("api down")

	_, err := r.NamesToKeys(context.Background(), "groups", testLibrary, []string{"Archive"})
	assert.Error(t, err)
}
