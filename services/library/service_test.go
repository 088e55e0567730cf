package library_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"lifeboard/internal/database"
	"lifeboard/models"
	"lifeboard/services/library"
)

func newTestService(t *testing.T) *library.Service {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return library.NewService(db.Connection())
}

func upsert(id int64, status string) models.LibraryUpsert {
	return models.LibraryUpsert{
		ContentID:   id,
		MediaType:   "movie",
		Title:       "Title",
		GenreIDs:    []int64{28, 12},
		WatchStatus: status,
	}
}

func TestAddAndListRoundTrip(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	entry, err := svc.Add(ctx, "default", upsert(603, "will_watch"))
	require.NoError(t, err)
	require.Equal(t, models.WatchStatusWillWatch, entry.WatchStatus)
	require.Nil(t, entry.WatchedDate)

	entries, err := svc.List(ctx, "default", models.MediaFilterAll, "")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, int64(603), entries[0].ContentID)
	require.Equal(t, []int64{28, 12}, entries[0].GenreIDs)
}

func TestAddDuplicateReturnsConflictWithExisting(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, err := svc.Add(ctx, "default", upsert(603, "will_watch"))
	require.NoError(t, err)

	_, err = svc.Add(ctx, "default", upsert(603, "watched"))
	var conflict *library.ConflictError
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, first.ContentID, conflict.Existing.ContentID)
	require.Equal(t, models.WatchStatusWillWatch, conflict.Existing.WatchStatus)

	// Still exactly one entry.
	entries, err := svc.List(ctx, "default", models.MediaFilterAll, "")
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestAddWatchedSetsWatchedDate(t *testing.T) {
	svc := newTestService(t)

	entry, err := svc.Add(context.Background(), "default", upsert(603, "watched"))
	require.NoError(t, err)
	require.NotNil(t, entry.WatchedDate)
}

func TestUpdateRejectsInvalidRating(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, "default", upsert(603, "watched"))
	require.NoError(t, err)

	for _, rating := range []float64{0.0, 0.25, 4.3, 5.5, -1} {
		r := rating
		_, err = svc.Update(ctx, "default", models.LibraryUpdate{
			ContentID:  603,
			MediaType:  "movie",
			UserRating: &r,
		})
		require.ErrorIs(t, err, library.ErrInvalidRating, "rating %v", rating)
	}

	valid := 4.5
	entry, err := svc.Update(ctx, "default", models.LibraryUpdate{
		ContentID:  603,
		MediaType:  "movie",
		UserRating: &valid,
	})
	require.NoError(t, err)
	require.Equal(t, 4.5, *entry.UserRating)
}

func TestRemoveSoftDeletesAndReAddRevives(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, "default", upsert(603, "will_watch"))
	require.NoError(t, err)

	removed, err := svc.Remove(ctx, "default", models.MediaKindMovie, 603)
	require.NoError(t, err)
	require.True(t, removed)

	entries, err := svc.List(ctx, "default", models.MediaFilterAll, "")
	require.NoError(t, err)
	require.Empty(t, entries)

	// Re-adding revives the row instead of conflicting.
	entry, err := svc.Add(ctx, "default", upsert(603, "watched"))
	require.NoError(t, err)
	require.Equal(t, models.WatchStatusWatched, entry.WatchStatus)

	entries, err = svc.List(ctx, "default", models.MediaFilterAll, "")
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestHighlyRatedFiltersByThreshold(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	ratings := map[int64]float64{603: 4.5, 604: 4.0, 605: 3.5}
	for id, rating := range ratings {
		_, err := svc.Add(ctx, "default", upsert(id, "watched"))
		require.NoError(t, err)
		r := rating
		_, err = svc.Update(ctx, "default", models.LibraryUpdate{
			ContentID:  id,
			MediaType:  "movie",
			UserRating: &r,
		})
		require.NoError(t, err)
	}

	rated, err := svc.HighlyRated(ctx, "default", 4.0)
	require.NoError(t, err)
	require.Len(t, rated, 2)
	for _, entry := range rated {
		require.GreaterOrEqual(t, *entry.UserRating, 4.0)
	}
}

func TestRefsIncludeAllStatuses(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for id, status := range map[int64]string{1: "will_watch", 2: "watched", 3: "watch_again"} {
		_, err := svc.Add(ctx, "default", upsert(id, status))
		require.NoError(t, err)
	}

	refs, err := svc.Refs(ctx, "default")
	require.NoError(t, err)
	require.Len(t, refs, 3)
}
