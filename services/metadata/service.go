package metadata

import (
	"context"
	"path/filepath"
	"strconv"

	"github.com/spf13/afero"

	"lifeboard/models"
)

// Service wraps the TMDB client with a TTL file cache. It is the only
// component that talks to the content provider; everything above it consumes
// tagged ContentItem values.
type Service struct {
	tmdb  *tmdbClient
	cache *fileCache
}

// NewService creates a metadata service caching responses under cacheDir.
func NewService(tmdbAPIKey, language, cacheDir string, ttlHours int) *Service {
	// Dedicated subdirectory so the cache can be cleared without touching
	// other data stored alongside it (users, settings, logs).
	metadataCacheDir := filepath.Join(cacheDir, "metadata")
	return &Service{
		tmdb:  newTMDBClient(tmdbAPIKey, language, nil),
		cache: newFileCache(afero.NewOsFs(), metadataCacheDir, ttlHours),
	}
}

// UpdateAPIKey swaps provider credentials and clears cached payloads so
// fresh data is fetched with the new key.
func (s *Service) UpdateAPIKey(tmdbAPIKey, language string) {
	s.tmdb = newTMDBClient(tmdbAPIKey, language, nil)
	_ = s.cache.clear()
}

// ClearCache removes all cached metadata files.
func (s *Service) ClearCache() error {
	return s.cache.clear()
}

// Configured reports whether the provider can be queried at all.
func (s *Service) Configured() bool {
	return s.tmdb.isConfigured()
}

// Popular returns globally popular titles of one kind.
func (s *Service) Popular(ctx context.Context, kind models.MediaKind, page int) ([]models.ContentItem, error) {
	key := cacheKey("tmdb", "popular", string(kind), strconv.Itoa(page))
	var cached []models.ContentItem
	if ok, _ := s.cache.get(key, &cached); ok && len(cached) > 0 {
		return cached, nil
	}

	items, err := s.tmdb.popular(ctx, kind, page)
	if err != nil {
		return nil, err
	}
	if len(items) > 0 {
		_ = s.cache.set(key, items)
	}
	return items, nil
}

// Trending returns the weekly trending window for one kind.
func (s *Service) Trending(ctx context.Context, kind models.MediaKind) ([]models.ContentItem, error) {
	key := cacheKey("tmdb", "trending", string(kind), "week")
	var cached []models.ContentItem
	if ok, _ := s.cache.get(key, &cached); ok && len(cached) > 0 {
		return cached, nil
	}

	items, err := s.tmdb.trending(ctx, kind)
	if err != nil {
		return nil, err
	}
	if len(items) > 0 {
		_ = s.cache.set(key, items)
	}
	return items, nil
}

// Discover returns titles matching the given genres, popularity-ordered.
func (s *Service) Discover(ctx context.Context, kind models.MediaKind, genreIDs []int64) ([]models.ContentItem, error) {
	parts := []string{"tmdb", "discover", string(kind)}
	for _, id := range genreIDs {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	key := cacheKey(parts...)
	var cached []models.ContentItem
	if ok, _ := s.cache.get(key, &cached); ok && len(cached) > 0 {
		return cached, nil
	}

	items, err := s.tmdb.discover(ctx, kind, genreIDs)
	if err != nil {
		return nil, err
	}
	if len(items) > 0 {
		_ = s.cache.set(key, items)
	}
	return items, nil
}

// SimilarTo returns the provider's recommended-from-seed list.
func (s *Service) SimilarTo(ctx context.Context, kind models.MediaKind, seedID int64) ([]models.ContentItem, error) {
	key := cacheKey("tmdb", "recommendations", string(kind), strconv.FormatInt(seedID, 10))
	var cached []models.ContentItem
	if ok, _ := s.cache.get(key, &cached); ok && len(cached) > 0 {
		return cached, nil
	}

	items, err := s.tmdb.recommendations(ctx, kind, seedID)
	if err != nil {
		return nil, err
	}
	if len(items) > 0 {
		_ = s.cache.set(key, items)
	}
	return items, nil
}

// Search looks up titles by free-text query. Results are not cached; queries
// are too varied for the hit rate to matter.
func (s *Service) Search(ctx context.Context, kind models.MediaKind, query string, page int) ([]models.ContentItem, error) {
	return s.tmdb.search(ctx, kind, query, page)
}
