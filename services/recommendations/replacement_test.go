package recommendations_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"lifeboard/models"
	"lifeboard/services/recommendations"
)

type fakeFetcher struct {
	item  *models.ContentItem
	err   error
	calls int
	extra []models.ContentRef
}

func (f *fakeFetcher) Single(ctx context.Context, userID string, filter models.MediaFilter, extra []models.ContentRef) (*models.ContentItem, error) {
	f.calls++
	f.extra = extra
	return f.item, f.err
}

func sampleBatch(recCount, bufCount int64) models.RecommendationBatch {
	return models.RecommendationBatch{
		Recommendations: movies(100, recCount),
		Buffer:          movies(500, bufCount),
		Method:          models.MethodPersonalized,
	}
}

func TestReplaceFromBufferIsLocal(t *testing.T) {
	fetcher := &fakeFetcher{}
	replacer := recommendations.NewReplacer(fetcher, "default", models.MediaFilterMovie)

	batch := sampleBatch(5, 3)
	remove := models.ContentRef{ID: 102, Kind: models.MediaKindMovie}

	replacement, err := replacer.Replace(context.Background(), &batch, remove)
	require.NoError(t, err)
	require.NotNil(t, replacement)
	require.Equal(t, int64(500), replacement.ID)

	require.Len(t, batch.Recommendations, 5)
	require.Equal(t, int64(500), batch.Recommendations[2].ID)
	require.Len(t, batch.Buffer, 2)
	require.Zero(t, fetcher.calls, "buffer-backed replacement must not hit the network")
}

func TestReplaceEmptyBufferFetchesSingle(t *testing.T) {
	item := movie(900)
	fetcher := &fakeFetcher{item: &item}
	replacer := recommendations.NewReplacer(fetcher, "default", models.MediaFilterMovie)

	batch := sampleBatch(3, 0)
	remove := models.ContentRef{ID: 101, Kind: models.MediaKindMovie}

	replacement, err := replacer.Replace(context.Background(), &batch, remove)
	require.NoError(t, err)
	require.Equal(t, int64(900), replacement.ID)
	require.Equal(t, int64(900), batch.Recommendations[1].ID)
	require.Equal(t, 1, fetcher.calls)

	// The fetch must exclude everything still visible plus the removed id.
	excluded := map[int64]bool{}
	for _, ref := range fetcher.extra {
		excluded[ref.ID] = true
	}
	for _, id := range []int64{100, 101, 102} {
		require.True(t, excluded[id], "fetch must exclude id %d", id)
	}
}

func TestReplaceEmptyBufferNoSupplyShrinksList(t *testing.T) {
	fetcher := &fakeFetcher{}
	replacer := recommendations.NewReplacer(fetcher, "default", models.MediaFilterMovie)

	batch := sampleBatch(3, 0)
	remove := models.ContentRef{ID: 102, Kind: models.MediaKindMovie}

	replacement, err := replacer.Replace(context.Background(), &batch, remove)
	require.NoError(t, err)
	require.Nil(t, replacement)
	require.Len(t, batch.Recommendations, 2)
	for _, item := range batch.Recommendations {
		require.NotEqual(t, int64(102), item.ID)
	}
}

func TestReplaceUnknownID(t *testing.T) {
	replacer := recommendations.NewReplacer(&fakeFetcher{}, "default", models.MediaFilterMovie)

	batch := sampleBatch(3, 1)
	_, err := replacer.Replace(context.Background(), &batch, models.ContentRef{ID: 999, Kind: models.MediaKindMovie})
	require.ErrorIs(t, err, recommendations.ErrNotInBatch)
	require.Len(t, batch.Recommendations, 3)
	require.Len(t, batch.Buffer, 1)
}

func TestReplaceFetchErrorLeavesBatchIntact(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("provider down")}
	replacer := recommendations.NewReplacer(fetcher, "default", models.MediaFilterMovie)

	batch := sampleBatch(3, 0)
	_, err := replacer.Replace(context.Background(), &batch, models.ContentRef{ID: 101, Kind: models.MediaKindMovie})
	require.Error(t, err)
	require.Len(t, batch.Recommendations, 3)
}
