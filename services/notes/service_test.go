package notes_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"lifeboard/internal/database"
	"lifeboard/models"
	"lifeboard/services/notes"
)

func newTestService(t *testing.T) *notes.Service {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return notes.NewService(db.Connection())
}

func strPtr(v string) *string { return &v }

func TestSearchMatchesTitleAndContent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "default", models.NoteUpsert{Title: "Grocery list", Content: strPtr("eggs, milk, coffee")})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "default", models.NoteUpsert{Title: "Trip ideas", Content: strPtr("Lisbon in October")})
	require.NoError(t, err)

	byTitle, err := svc.List(ctx, "default", "grocery")
	require.NoError(t, err)
	require.Len(t, byTitle, 1)
	require.Equal(t, "Grocery list", byTitle[0].Title)

	byContent, err := svc.List(ctx, "default", "LISBON")
	require.NoError(t, err)
	require.Len(t, byContent, 1)
	require.Equal(t, "Trip ideas", byContent[0].Title)

	all, err := svc.List(ctx, "default", "")
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestSearchTreatsWildcardsAsLiterals(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "default", models.NoteUpsert{Title: "Budget", Content: strPtr("save 20% of income")})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "default", models.NoteUpsert{Title: "Reading", Content: strPtr("20 pages a day")})
	require.NoError(t, err)

	found, err := svc.List(ctx, "default", "20%")
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "Budget", found[0].Title)
}

func TestUpdateBumpsOrdering(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, "default", models.NoteUpsert{Title: "First"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "default", models.NoteUpsert{Title: "Second"})
	require.NoError(t, err)

	// Touching the older note moves it back to the top of the list.
	_, err = svc.Update(ctx, "default", first.ID, models.NoteUpsert{Content: strPtr("now with content")})
	require.NoError(t, err)

	list, err := svc.List(ctx, "default", "")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, first.ID, list[0].ID)
	require.Equal(t, "now with content", list[0].Content)
	require.Equal(t, "First", list[0].Title)
}

func TestDeleteAndValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "default", models.NoteUpsert{Title: "  "})
	require.ErrorIs(t, err, notes.ErrTitleRequired)

	note, err := svc.Create(ctx, "default", models.NoteUpsert{Title: "Temp"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "default", note.ID))
	require.ErrorIs(t, svc.Delete(ctx, "default", note.ID), notes.ErrNotFound)

	_, err = svc.Get(ctx, "default", note.ID)
	require.ErrorIs(t, err, notes.ErrNotFound)
}
