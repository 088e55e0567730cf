package habits_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"lifeboard/internal/database"
	"lifeboard/models"
	"lifeboard/services/habits"
)

func newTestService(t *testing.T) *habits.Service {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return habits.NewService(db.Connection())
}

func TestCreateDefaultsToDaily(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	habit, err := svc.Create(ctx, "default", "Morning run", "")
	require.NoError(t, err)
	require.Equal(t, models.HabitDaily, habit.Frequency)

	weekly, err := svc.Create(ctx, "default", "Meal prep", models.HabitWeekly)
	require.NoError(t, err)
	require.Equal(t, models.HabitWeekly, weekly.Frequency)

	_, err = svc.Create(ctx, "default", "Nope", "hourly")
	require.ErrorIs(t, err, habits.ErrInvalidFrequency)

	_, err = svc.Create(ctx, "default", "   ", "")
	require.ErrorIs(t, err, habits.ErrNameRequired)
}

func TestMarkDayIsIdempotent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	habit, err := svc.Create(ctx, "default", "Read", "")
	require.NoError(t, err)

	first, err := svc.MarkDay(ctx, "default", habit.ID, "2026-08-30")
	require.NoError(t, err)

	second, err := svc.MarkDay(ctx, "default", habit.ID, "2026-08-30")
	require.NoError(t, err)
	require.Equal(t, first.CreatedAt, second.CreatedAt)

	entries, err := svc.Entries(ctx, "default", habit.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestMarkDayValidatesDate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	habit, err := svc.Create(ctx, "default", "Stretch", "")
	require.NoError(t, err)

	_, err = svc.MarkDay(ctx, "default", habit.ID, "30-08-2026")
	require.ErrorIs(t, err, habits.ErrInvalidDate)

	_, err = svc.MarkDay(ctx, "default", "missing", "2026-08-30")
	require.ErrorIs(t, err, habits.ErrNotFound)
}

func TestUnmarkDay(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	habit, err := svc.Create(ctx, "default", "Meditate", "")
	require.NoError(t, err)

	_, err = svc.MarkDay(ctx, "default", habit.ID, "2026-08-30")
	require.NoError(t, err)

	removed, err := svc.UnmarkDay(ctx, "default", habit.ID, "2026-08-30")
	require.NoError(t, err)
	require.True(t, removed)

	removed, err = svc.UnmarkDay(ctx, "default", habit.ID, "2026-08-30")
	require.NoError(t, err)
	require.False(t, removed)
}

func TestDeleteHidesHabitAndHistory(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	habit, err := svc.Create(ctx, "default", "Journal", "")
	require.NoError(t, err)

	_, err = svc.MarkDay(ctx, "default", habit.ID, "2026-08-29")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "default", habit.ID))

	list, err := svc.List(ctx, "default")
	require.NoError(t, err)
	require.Empty(t, list)

	_, err = svc.Entries(ctx, "default", habit.ID)
	require.ErrorIs(t, err, habits.ErrNotFound)
}
