package recommendations

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/sourcegraph/conc/iter"

	"lifeboard/models"
)

var (
	// ErrDataUnavailable means the persisted library or exclusion markers
	// could not be read. A partial exclusion set must never be used: it
	// could leak already-owned titles back into a batch.
	ErrDataUnavailable = errors.New("library data unavailable")

	// ErrAllStrategiesFailed is returned only when every strategy that ran
	// hit a provider error and nothing at all was collected.
	ErrAllStrategiesFailed = errors.New("all recommendation strategies failed")
)

// Provider is the slice of the metadata service the selector needs.
type Provider interface {
	Popular(ctx context.Context, kind models.MediaKind, page int) ([]models.ContentItem, error)
	Trending(ctx context.Context, kind models.MediaKind) ([]models.ContentItem, error)
	Discover(ctx context.Context, kind models.MediaKind, genreIDs []int64) ([]models.ContentItem, error)
	SimilarTo(ctx context.Context, kind models.MediaKind, seedID int64) ([]models.ContentItem, error)
}

type libraryStore interface {
	Refs(ctx context.Context, userID string) ([]models.ContentRef, error)
	HighlyRated(ctx context.Context, userID string, threshold float64) ([]models.LibraryEntry, error)
}

type exclusionStore interface {
	Refs(ctx context.Context, userID string) ([]models.ContentRef, error)
}

const maxSeeds = 3

// Service builds recommendation batches by running ranked strategies against
// the content provider until a fixed quota is filled. Strategies run strictly
// in priority order; overflow lands in a bounded buffer the client consumes
// for instant replacements.
type Service struct {
	provider Provider
	library  libraryStore
	excluded exclusionStore

	quota           int
	bufferCap       int
	ratingThreshold float64

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewService creates a recommendation service. bufferMultiplier bounds the
// overflow buffer at bufferMultiplier*quota items.
func NewService(provider Provider, library libraryStore, excluded exclusionStore, quota, bufferMultiplier int, ratingThreshold float64) *Service {
	if quota <= 0 {
		quota = 24
	}
	if bufferMultiplier <= 0 {
		bufferMultiplier = 2
	}
	if ratingThreshold <= 0 {
		ratingThreshold = 4.0
	}
	return &Service{
		provider:        provider,
		library:         library,
		excluded:        excluded,
		quota:           quota,
		bufferCap:       bufferMultiplier * quota,
		ratingThreshold: ratingThreshold,
		rng:             rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetRandSource replaces the sampling source used for seed selection.
func (s *Service) SetRandSource(src rand.Source) {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	s.rng = rand.New(src)
}

// BuildExclusionSet returns the union of the user's library identities, the
// user's not-interested markers and any extra refs supplied by the caller.
// Read failures propagate: no partial set is ever returned.
func (s *Service) BuildExclusionSet(ctx context.Context, userID string, extra []models.ContentRef) (map[string]struct{}, error) {
	libraryRefs, err := s.library.Refs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: library refs: %v", ErrDataUnavailable, err)
	}
	excludedRefs, err := s.excluded.Refs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: not-interested refs: %v", ErrDataUnavailable, err)
	}

	set := make(map[string]struct{}, len(libraryRefs)+len(excludedRefs)+len(extra))
	for _, ref := range libraryRefs {
		set[ref.Key()] = struct{}{}
	}
	for _, ref := range excludedRefs {
		set[ref.Key()] = struct{}{}
	}
	for _, ref := range extra {
		set[ref.Key()] = struct{}{}
	}
	return set, nil
}

// Batch builds a full recommendation batch for the user. With qualifying
// highly-rated entries the pipeline starts at seed similarity; without any
// it starts directly at trending/popular and the batch is tagged
// popular_fallback.
func (s *Service) Batch(ctx context.Context, userID string, filter models.MediaFilter) (models.RecommendationBatch, error) {
	excluded, err := s.BuildExclusionSet(ctx, userID, nil)
	if err != nil {
		return models.RecommendationBatch{}, err
	}
	seeds, err := s.library.HighlyRated(ctx, userID, s.ratingThreshold)
	if err != nil {
		return models.RecommendationBatch{}, fmt.Errorf("%w: highly rated: %v", ErrDataUnavailable, err)
	}

	col := newCollector(s.quota, s.bufferCap, excluded)
	basis := &models.RecommendationBasis{
		HighRatedCount: len(seeds),
		TopGenres:      []int64{},
		StrategiesUsed: []string{},
	}

	type strategy struct {
		name string
		run  func(context.Context) ([]models.ContentItem, error)
	}

	var strategies []strategy
	method := models.MethodPopularFallback
	if len(seeds) > 0 {
		method = models.MethodPersonalized
		topGenres := topGenres(seeds, 3)
		basis.TopGenres = topGenres
		strategies = append(strategies,
			strategy{models.StrategySimilarToRated, func(ctx context.Context) ([]models.ContentItem, error) {
				return s.similarToRated(ctx, seeds, filter)
			}},
			strategy{models.StrategyGenreDiscovery, func(ctx context.Context) ([]models.ContentItem, error) {
				return s.genreDiscovery(ctx, topGenres, filter)
			}},
		)
	}
	strategies = append(strategies,
		strategy{models.StrategyTrending, func(ctx context.Context) ([]models.ContentItem, error) {
			return s.trending(ctx, filter)
		}},
		strategy{models.StrategyPopular, func(ctx context.Context) ([]models.ContentItem, error) {
			return s.popular(ctx, filter)
		}},
	)

	var ran, failed int
	for _, strat := range strategies {
		if col.full() {
			break
		}
		ran++
		items, err := strat.run(ctx)
		if err != nil {
			failed++
			log.Printf("[recommendations] strategy %s failed for user %s: %v", strat.name, userID, err)
			continue
		}
		if col.addAll(items) > 0 {
			basis.StrategiesUsed = append(basis.StrategiesUsed, strat.name)
		}
	}

	if ran > 0 && failed == ran && col.empty() {
		return models.RecommendationBatch{}, ErrAllStrategiesFailed
	}

	return models.RecommendationBatch{
		Recommendations: col.recommendations,
		Buffer:          col.buffer,
		Method:          method,
		BasedOn:         basis,
	}, nil
}

// Single returns one recommendation excluding the user's library, the user's
// not-interested markers and the caller-supplied refs. Used by the
// replacement service once its buffer runs dry. Returns nil when no strategy
// produced a candidate.
func (s *Service) Single(ctx context.Context, userID string, filter models.MediaFilter, extra []models.ContentRef) (*models.ContentItem, error) {
	excluded, err := s.BuildExclusionSet(ctx, userID, extra)
	if err != nil {
		return nil, err
	}

	// A single replacement never goes back through the personalized
	// strategies; trending and popular are cheap and already cached.
	for _, run := range []func(context.Context) ([]models.ContentItem, error){
		func(ctx context.Context) ([]models.ContentItem, error) { return s.trending(ctx, filter) },
		func(ctx context.Context) ([]models.ContentItem, error) { return s.popular(ctx, filter) },
	} {
		items, err := run(ctx)
		if err != nil {
			log.Printf("[recommendations] single fetch strategy failed for user %s: %v", userID, err)
			continue
		}
		for _, item := range items {
			if _, seen := excluded[item.Key()]; seen {
				continue
			}
			found := item
			return &found, nil
		}
	}
	return nil, nil
}

func (s *Service) similarToRated(ctx context.Context, seeds []models.LibraryEntry, filter models.MediaFilter) ([]models.ContentItem, error) {
	picked := s.sampleSeeds(seeds, maxSeeds)

	lists := iter.Map(picked, func(seed *models.LibraryEntry) []models.ContentItem {
		items, err := s.provider.SimilarTo(ctx, seed.Kind, seed.ContentID)
		if err != nil {
			log.Printf("[recommendations] similar-to fetch failed for %s %d: %v", seed.Kind, seed.ContentID, err)
			return nil
		}
		return items
	})

	merged := interleave(lists)
	if len(merged) == 0 {
		return nil, fmt.Errorf("no similar titles produced from %d seeds", len(picked))
	}
	return filterKind(merged, filter), nil
}

func (s *Service) genreDiscovery(ctx context.Context, genreIDs []int64, filter models.MediaFilter) ([]models.ContentItem, error) {
	if len(genreIDs) == 0 {
		return nil, nil
	}
	return s.perKind(ctx, filter, func(ctx context.Context, kind models.MediaKind) ([]models.ContentItem, error) {
		return s.provider.Discover(ctx, kind, genreIDs)
	})
}

func (s *Service) trending(ctx context.Context, filter models.MediaFilter) ([]models.ContentItem, error) {
	return s.perKind(ctx, filter, s.provider.Trending)
}

func (s *Service) popular(ctx context.Context, filter models.MediaFilter) ([]models.ContentItem, error) {
	return s.perKind(ctx, filter, func(ctx context.Context, kind models.MediaKind) ([]models.ContentItem, error) {
		return s.provider.Popular(ctx, kind, 1)
	})
}

// perKind queries one kind directly, or both kinds interleaved when the
// filter is unconstrained. With both kinds, one side failing degrades to the
// other side's results alone.
func (s *Service) perKind(ctx context.Context, filter models.MediaFilter, fetch func(context.Context, models.MediaKind) ([]models.ContentItem, error)) ([]models.ContentItem, error) {
	kinds := kindsFor(filter)
	if len(kinds) == 1 {
		return fetch(ctx, kinds[0])
	}

	var lists [][]models.ContentItem
	var lastErr error
	for _, kind := range kinds {
		items, err := fetch(ctx, kind)
		if err != nil {
			lastErr = err
			log.Printf("[recommendations] %s fetch failed: %v", kind, err)
			continue
		}
		lists = append(lists, items)
	}
	if len(lists) == 0 {
		return nil, lastErr
	}
	return interleave(lists), nil
}

// sampleSeeds picks up to n entries at random without replacement.
func (s *Service) sampleSeeds(seeds []models.LibraryEntry, n int) []models.LibraryEntry {
	if len(seeds) <= n {
		picked := make([]models.LibraryEntry, len(seeds))
		copy(picked, seeds)
		return picked
	}
	s.rngMu.Lock()
	indices := s.rng.Perm(len(seeds))[:n]
	s.rngMu.Unlock()

	picked := make([]models.LibraryEntry, 0, n)
	for _, i := range indices {
		picked = append(picked, seeds[i])
	}
	return picked
}

// topGenres tallies genre frequency across the seed set and returns the n
// most frequent ids. Equal counts break toward the lower genre id so the
// selection is stable across runs.
func topGenres(seeds []models.LibraryEntry, n int) []int64 {
	counts := make(map[int64]int)
	for _, seed := range seeds {
		for _, id := range seed.GenreIDs {
			counts[id]++
		}
	}
	ids := make([]int64, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if counts[ids[i]] != counts[ids[j]] {
			return counts[ids[i]] > counts[ids[j]]
		}
		return ids[i] < ids[j]
	})
	if len(ids) > n {
		ids = ids[:n]
	}
	return ids
}

func kindsFor(filter models.MediaFilter) []models.MediaKind {
	switch filter {
	case models.MediaFilterMovie:
		return []models.MediaKind{models.MediaKindMovie}
	case models.MediaFilterTV:
		return []models.MediaKind{models.MediaKindTV}
	default:
		return []models.MediaKind{models.MediaKindMovie, models.MediaKindTV}
	}
}

func filterKind(items []models.ContentItem, filter models.MediaFilter) []models.ContentItem {
	if filter == models.MediaFilterAll {
		return items
	}
	kept := items[:0:0]
	for _, item := range items {
		if filter.Matches(item.Kind) {
			kept = append(kept, item)
		}
	}
	return kept
}

// interleave merges lists round-robin, preserving each list's internal order.
func interleave(lists [][]models.ContentItem) []models.ContentItem {
	total := 0
	for _, list := range lists {
		total += len(list)
	}
	merged := make([]models.ContentItem, 0, total)
	for i := 0; len(merged) < total; i++ {
		for _, list := range lists {
			if i < len(list) {
				merged = append(merged, list[i])
			}
		}
	}
	return merged
}

// collector accumulates unique, non-excluded items: first into the visible
// list up to quota, then into the buffer up to its cap.
type collector struct {
	quota     int
	bufferCap int
	excluded  map[string]struct{}
	seen      map[string]struct{}

	recommendations []models.ContentItem
	buffer          []models.ContentItem
}

func newCollector(quota, bufferCap int, excluded map[string]struct{}) *collector {
	return &collector{
		quota:           quota,
		bufferCap:       bufferCap,
		excluded:        excluded,
		seen:            make(map[string]struct{}),
		recommendations: make([]models.ContentItem, 0, quota),
		buffer:          make([]models.ContentItem, 0, bufferCap),
	}
}

// addAll feeds items through the exclusion and dedupe filters and returns
// how many were accepted.
func (c *collector) addAll(items []models.ContentItem) int {
	accepted := 0
	for _, item := range items {
		if c.saturated() {
			break
		}
		key := item.Key()
		if _, dup := c.seen[key]; dup {
			continue
		}
		if _, skip := c.excluded[key]; skip {
			continue
		}
		c.seen[key] = struct{}{}
		if len(c.recommendations) < c.quota {
			c.recommendations = append(c.recommendations, item)
		} else {
			c.buffer = append(c.buffer, item)
		}
		accepted++
	}
	return accepted
}

func (c *collector) full() bool {
	return len(c.recommendations) >= c.quota
}

func (c *collector) saturated() bool {
	return c.full() && len(c.buffer) >= c.bufferCap
}

func (c *collector) empty() bool {
	return len(c.recommendations) == 0 && len(c.buffer) == 0
}
