package tasks_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"lifeboard/internal/database"
	"lifeboard/models"
	"lifeboard/services/tasks"
)

func newTestService(t *testing.T) *tasks.Service {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return tasks.NewService(db.Connection())
}

func intPtr(v int) *int { return &v }

func TestListOrdersByEisenhowerScore(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	low, err := svc.Create(ctx, "default", models.TaskUpsert{Title: "Low", Importance: intPtr(1), Urgency: intPtr(1)})
	require.NoError(t, err)
	high, err := svc.Create(ctx, "default", models.TaskUpsert{Title: "High", Importance: intPtr(3), Urgency: intPtr(3)})
	require.NoError(t, err)
	mid, err := svc.Create(ctx, "default", models.TaskUpsert{Title: "Mid", Importance: intPtr(2), Urgency: intPtr(2)})
	require.NoError(t, err)

	list, err := svc.List(ctx, "default")
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, high.ID, list[0].ID)
	require.Equal(t, mid.ID, list[1].ID)
	require.Equal(t, low.ID, list[2].ID)
}

func TestCompletedTasksSinkBelowOpenOnes(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	urgent, err := svc.Create(ctx, "default", models.TaskUpsert{Title: "Urgent", Importance: intPtr(3), Urgency: intPtr(3)})
	require.NoError(t, err)
	casual, err := svc.Create(ctx, "default", models.TaskUpsert{Title: "Casual"})
	require.NoError(t, err)

	done, err := svc.Toggle(ctx, "default", urgent.ID)
	require.NoError(t, err)
	require.True(t, done.Done())

	list, err := svc.List(ctx, "default")
	require.NoError(t, err)
	require.Equal(t, casual.ID, list[0].ID)
	require.Equal(t, urgent.ID, list[1].ID)

	// Toggling again reopens it.
	reopened, err := svc.Toggle(ctx, "default", urgent.ID)
	require.NoError(t, err)
	require.False(t, reopened.Done())
}

func TestCreateValidatesPriority(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "default", models.TaskUpsert{Title: "Bad", Importance: intPtr(4)})
	require.ErrorIs(t, err, tasks.ErrInvalidPriority)

	_, err = svc.Create(ctx, "default", models.TaskUpsert{Title: ""})
	require.ErrorIs(t, err, tasks.ErrTitleRequired)
}

func TestUpdatePatchesOnlySetFields(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	task, err := svc.Create(ctx, "default", models.TaskUpsert{Title: "Original", Importance: intPtr(2), Urgency: intPtr(3)})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, "default", task.ID, models.TaskUpsert{Urgency: intPtr(1)})
	require.NoError(t, err)
	require.Equal(t, "Original", updated.Title)
	require.Equal(t, 2, updated.Importance)
	require.Equal(t, 1, updated.Urgency)
}

func TestDeleteHidesTask(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	task, err := svc.Create(ctx, "default", models.TaskUpsert{Title: "Gone"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "default", task.ID))
	require.ErrorIs(t, svc.Delete(ctx, "default", task.ID), tasks.ErrNotFound)

	list, err := svc.List(ctx, "default")
	require.NoError(t, err)
	require.Empty(t, list)
}
