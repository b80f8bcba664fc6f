package sync

import (
	"context"
	"time"

	"github.com/MKhiriev/notero-sync/internal/adapter"
	"github.com/MKhiriev/notero-sync/internal/logger"
	"github.com/MKhiriev/notero-sync/internal/store"
	"github.com/MKhiriev/notero-sync/models"
)

// collectionCacheTTL bounds how long a library's folder map is trusted before
// it is rebuilt wholesale.
const collectionCacheTTL = 10 * time.Minute

// CollectionResolver translates between human-entered collection names
// (document side) and stable collection keys (library side). The cache is
// refreshed lazily before each translation batch and swapped whole, so a
// racing refresh is harmless.
type CollectionResolver struct {
	zotero adapter.ZoteroAdapter
	store  *store.Store
	logger *logger.Logger

	// now is overridable in tests.
	now func() time.Time
}

func NewCollectionResolver(zotero adapter.ZoteroAdapter, st *store.Store, log *logger.Logger) *CollectionResolver {
	return &CollectionResolver{
		zotero: zotero,
		store:  st,
		logger: log,
		now:    time.Now,
	}
}

// ensureCache returns a fresh-enough folder map for the library, rebuilding
// it from the API when the cached one is missing or expired.
func (r *CollectionResolver) ensureCache(ctx context.Context, libraryType string, libraryID int64) (models.CollectionCache, error) {
	cache, ok := r.store.CollectionsFor(libraryType, libraryID)
	if ok && r.now().Sub(cache.RefreshedAt) < collectionCacheTTL {
		return cache, nil
	}
	return r.Refresh(ctx, libraryType, libraryID)
}

// Refresh rebuilds the folder map for a library unconditionally.
func (r *CollectionResolver) Refresh(ctx context.Context, libraryType string, libraryID int64) (models.CollectionCache, error) {
	collections, err := r.zotero.GetCollections(ctx, libraryType, libraryID)
	if err != nil {
		r.logger.Err(err).
			Str("func", "CollectionResolver.Refresh").
			Int64("library_id", libraryID).
			Msg("failed to list collections")
		return models.CollectionCache{}, err
	}

	cache := models.CollectionCache{
		RefreshedAt: r.now(),
		Names:       make(map[string]string, len(collections)),
	}
	for _, c := range collections {
		cache.Names[c.Key] = c.Name
	}

	r.store.ReplaceCollections(libraryType, libraryID, cache)
	return cache, nil
}

// NamesToKeys resolves display names to stable keys. Unresolvable names are
// dropped with a warning — partial folder sync beats blocking the record.
func (r *CollectionResolver) NamesToKeys(ctx context.Context, libraryType string, libraryID int64, names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, nil
	}

	cache, err := r.ensureCache(ctx, libraryType, libraryID)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(names))
	for _, name := range names {
		key, ok := cache.KeyByName(name)
		if !ok {
			r.logger.Warn().
				Str("func", "CollectionResolver.NamesToKeys").
				Int64("library_id", libraryID).
				Str("collection", name).
				Msg("unresolvable collection name dropped")
			continue
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// KeysToNames resolves stable keys to display names, dropping unknown keys
// with a warning.
func (r *CollectionResolver) KeysToNames(ctx context.Context, libraryType string, libraryID int64, keys []string) ([]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	cache, err := r.ensureCache(ctx, libraryType, libraryID)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(keys))
	for _, key := range keys {
		name, ok := cache.Names[key]
		if !ok {
			r.logger.Warn().
				Str("func", "CollectionResolver.KeysToNames").
				Int64("library_id", libraryID).
				Str("collection_key", key).
				Msg("unknown collection key dropped")
			continue
		}
		names = append(names, name)
	}
	return names, nil
}
