package moods_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"lifeboard/internal/database"
	"lifeboard/models"
	"lifeboard/services/moods"
)

func newTestService(t *testing.T) *moods.Service {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return moods.NewService(db.Connection())
}

func TestUpsertReplacesSameDayEntry(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, err := svc.Upsert(ctx, "default", models.MoodUpsert{Date: "2026-08-30", Score: 2, Note: "rough morning"})
	require.NoError(t, err)

	second, err := svc.Upsert(ctx, "default", models.MoodUpsert{Date: "2026-08-30", Score: 4, Note: "better after lunch"})
	require.NoError(t, err)
	require.Equal(t, 4, second.Score)
	require.Equal(t, "better after lunch", second.Note)
	require.Equal(t, first.Date, second.Date)

	list, err := svc.List(ctx, "default", "2026-08-01", "2026-08-31")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, 4, list[0].Score)
}

func TestUpsertValidatesScoreAndDate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Upsert(ctx, "default", models.MoodUpsert{Date: "2026-08-30", Score: 0})
	require.ErrorIs(t, err, moods.ErrInvalidScore)

	_, err = svc.Upsert(ctx, "default", models.MoodUpsert{Date: "2026-08-30", Score: 6})
	require.ErrorIs(t, err, moods.ErrInvalidScore)

	_, err = svc.Upsert(ctx, "default", models.MoodUpsert{Date: "30/08/2026", Score: 3})
	require.ErrorIs(t, err, moods.ErrInvalidDate)
}

func TestUpsertDefaultsToToday(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	entry, err := svc.Upsert(ctx, "default", models.MoodUpsert{Score: 3})
	require.NoError(t, err)
	require.NotEmpty(t, entry.Date)

	got, err := svc.Get(ctx, "default", entry.Date)
	require.NoError(t, err)
	require.Equal(t, 3, got.Score)
}

func TestListRangeIsInclusiveAndNewestFirst(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, day := range []string{"2026-08-10", "2026-08-12", "2026-08-14"} {
		_, err := svc.Upsert(ctx, "default", models.MoodUpsert{Date: day, Score: 3})
		require.NoError(t, err)
	}

	list, err := svc.List(ctx, "default", "2026-08-10", "2026-08-12")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "2026-08-12", list[0].Date)
	require.Equal(t, "2026-08-10", list[1].Date)
}

func TestDeleteRemovesEntry(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Upsert(ctx, "default", models.MoodUpsert{Date: "2026-08-30", Score: 5})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "default", "2026-08-30"))
	require.ErrorIs(t, svc.Delete(ctx, "default", "2026-08-30"), moods.ErrNotFound)

	_, err = svc.Get(ctx, "default", "2026-08-30")
	require.ErrorIs(t, err, moods.ErrNotFound)
}
