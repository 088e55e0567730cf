package recommendations

import (
	"context"
	"errors"

	"lifeboard/models"
)

// ErrNotInBatch means the id being replaced is not in the visible list.
var ErrNotInBatch = errors.New("content is not in the current batch")

// SingleFetcher supplies one replacement candidate excluding the given refs.
// In the running system this is Service.Single behind an HTTP round trip.
type SingleFetcher interface {
	Single(ctx context.Context, userID string, filter models.MediaFilter, extra []models.ContentRef) (*models.ContentItem, error)
}

// Replacer swaps a consumed recommendation for a fresh one. While the batch
// buffer holds candidates the swap is purely local; only an empty buffer
// costs a network round trip.
type Replacer struct {
	fetcher SingleFetcher
	userID  string
	filter  models.MediaFilter
}

// NewReplacer creates a replacer bound to one user and media filter, the
// same pair the batch was fetched with.
func NewReplacer(fetcher SingleFetcher, userID string, filter models.MediaFilter) *Replacer {
	return &Replacer{fetcher: fetcher, userID: userID, filter: filter}
}

// Replace removes the given item from batch.Recommendations and splices a
// replacement into its slot. Buffer-backed swaps happen synchronously and
// shrink the buffer by one. With an empty buffer a single-item fetch runs
// instead; if it produces nothing the list shrinks by one and Replace
// returns nil.
func (r *Replacer) Replace(ctx context.Context, batch *models.RecommendationBatch, remove models.ContentRef) (*models.ContentItem, error) {
	idx := indexOf(batch.Recommendations, remove)
	if idx < 0 {
		return nil, ErrNotInBatch
	}

	if len(batch.Buffer) > 0 {
		replacement := batch.Buffer[0]
		batch.Buffer = batch.Buffer[1:]
		batch.Recommendations[idx] = replacement
		return &replacement, nil
	}

	// Exclude everything still on screen plus the item being removed so
	// the fetch cannot hand back a duplicate.
	extra := make([]models.ContentRef, 0, len(batch.Recommendations)+1)
	for _, item := range batch.Recommendations {
		extra = append(extra, item.Ref())
	}
	extra = append(extra, remove)

	replacement, err := r.fetcher.Single(ctx, r.userID, r.filter, extra)
	if err != nil {
		return nil, err
	}
	if replacement == nil {
		batch.Recommendations = append(batch.Recommendations[:idx], batch.Recommendations[idx+1:]...)
		return nil, nil
	}
	batch.Recommendations[idx] = *replacement
	return replacement, nil
}

func indexOf(items []models.ContentItem, ref models.ContentRef) int {
	for i, item := range items {
		if item.Ref() == ref {
			return i
		}
	}
	return -1
}
