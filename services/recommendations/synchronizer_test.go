package recommendations_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"lifeboard/models"
	"lifeboard/services/recommendations"
)

type fakeRefetcher struct {
	batch models.RecommendationBatch
	err   error
	calls int
}

func (f *fakeRefetcher) Batch(ctx context.Context, userID string, filter models.MediaFilter) (models.RecommendationBatch, error) {
	f.calls++
	return f.batch, f.err
}

func newSynchronizer(fetcher *fakeFetcher, refetch *fakeRefetcher, batch models.RecommendationBatch) *recommendations.Synchronizer {
	replacer := recommendations.NewReplacer(fetcher, "default", models.MediaFilterMovie)
	return recommendations.NewSynchronizer(replacer, refetch, "default", models.MediaFilterMovie, batch)
}

func TestApplyConfirmsOptimisticReplacement(t *testing.T) {
	fetcher := &fakeFetcher{}
	refetch := &fakeRefetcher{}
	sync := newSynchronizer(fetcher, refetch, sampleBatch(4, 2))

	remove := models.ContentRef{ID: 101, Kind: models.MediaKindMovie}
	mutated := false

	result, err := sync.Apply(context.Background(), remove, func(ctx context.Context) error {
		mutated = true
		return nil
	})
	require.NoError(t, err)
	require.True(t, mutated)
	require.Equal(t, recommendations.StateConfirmed, result.State)
	require.NotNil(t, result.Replacement)
	require.Equal(t, int64(500), result.Replacement.ID)
	require.Zero(t, refetch.calls)

	batch := sync.Batch()
	require.Len(t, batch.Recommendations, 4)
	require.Len(t, batch.Buffer, 1)
	require.False(t, batch.Contains(remove))
}

func TestApplyEmptyBufferReplacesAfterConfirm(t *testing.T) {
	item := movie(900)
	fetcher := &fakeFetcher{item: &item}
	sync := newSynchronizer(fetcher, &fakeRefetcher{}, sampleBatch(3, 0))

	remove := models.ContentRef{ID: 100, Kind: models.MediaKindMovie}

	result, err := sync.Apply(context.Background(), remove, func(ctx context.Context) error { return nil })
	require.NoError(t, err)
	require.Equal(t, recommendations.StateConfirmed, result.State)
	require.NotNil(t, result.Replacement)
	require.Equal(t, int64(900), result.Replacement.ID)

	// The fetch happens only after the mutation succeeded.
	require.Equal(t, 1, fetcher.calls)
	require.Len(t, sync.Batch().Recommendations, 3)
}

func TestApplyEmptyBufferFetchFailureShortensList(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("provider down")}
	sync := newSynchronizer(fetcher, &fakeRefetcher{}, sampleBatch(3, 0))

	remove := models.ContentRef{ID: 101, Kind: models.MediaKindMovie}

	result, err := sync.Apply(context.Background(), remove, func(ctx context.Context) error { return nil })
	require.NoError(t, err)
	require.Equal(t, recommendations.StateConfirmed, result.State)
	require.Nil(t, result.Replacement)

	batch := sync.Batch()
	require.Len(t, batch.Recommendations, 2)
	require.False(t, batch.Contains(remove))
}

func TestApplyMutationFailureRollsBackWithRefetch(t *testing.T) {
	serverBatch := sampleBatch(4, 4)
	refetch := &fakeRefetcher{batch: serverBatch}
	sync := newSynchronizer(&fakeFetcher{}, refetch, sampleBatch(4, 2))

	remove := models.ContentRef{ID: 102, Kind: models.MediaKindMovie}

	result, err := sync.Apply(context.Background(), remove, func(ctx context.Context) error {
		return errors.New("simulated 500")
	})
	require.Error(t, err)
	require.Equal(t, recommendations.StateRolledBack, result.State)
	require.True(t, result.Refetched)
	require.Equal(t, 1, refetch.calls)

	// The optimistic splice is gone: the cache holds the server build.
	batch := sync.Batch()
	require.Len(t, batch.Recommendations, 4)
	require.Len(t, batch.Buffer, 4)
	require.True(t, batch.Contains(remove))
}

func TestApplyMutationAndRefetchFailureRestoresSnapshot(t *testing.T) {
	refetch := &fakeRefetcher{err: errors.New("server offline")}
	original := sampleBatch(4, 2)
	sync := newSynchronizer(&fakeFetcher{}, refetch, original)

	remove := models.ContentRef{ID: 102, Kind: models.MediaKindMovie}

	result, err := sync.Apply(context.Background(), remove, func(ctx context.Context) error {
		return errors.New("simulated 500")
	})
	require.Error(t, err)
	require.Equal(t, recommendations.StateRolledBack, result.State)
	require.False(t, result.Refetched)

	// Pre-action snapshot comes back so the user never sees the
	// unconfirmed splice.
	batch := sync.Batch()
	require.Len(t, batch.Recommendations, 4)
	require.Len(t, batch.Buffer, 2)
	require.True(t, batch.Contains(remove))
}

func TestRefreshOverwritesLocalState(t *testing.T) {
	refetch := &fakeRefetcher{batch: sampleBatch(2, 1)}
	sync := newSynchronizer(&fakeFetcher{}, refetch, sampleBatch(4, 2))

	require.NoError(t, sync.Refresh(context.Background()))
	require.Len(t, sync.Batch().Recommendations, 2)
	require.Equal(t, recommendations.StateIdle, sync.State())
}
