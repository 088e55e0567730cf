package decisions_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"lifeboard/internal/database"
	"lifeboard/models"
	"lifeboard/services/decisions"
)

func newTestService(t *testing.T) *decisions.Service {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return decisions.NewService(db.Connection())
}

func TestRankWeightedAverage(t *testing.T) {
	decision := models.Decision{
		Criteria: []models.DecisionCriterion{
			{ID: "price", Weight: 3},
			{ID: "quality", Weight: 1},
		},
		Options: []models.DecisionOption{
			{ID: "a", Name: "A", Position: 0, Scores: map[string]float64{"price": 8, "quality": 4}},
			{ID: "b", Name: "B", Position: 1, Scores: map[string]float64{"price": 5, "quality": 10}},
		},
	}

	results := decisions.Rank(decision)
	require.Len(t, results, 2)

	// A: (3*8 + 1*4) / 4 = 7.0; B: (3*5 + 1*10) / 4 = 6.25.
	require.Equal(t, "a", results[0].OptionID)
	require.InDelta(t, 7.0, results[0].Total, 1e-9)
	require.Equal(t, 1, results[0].Rank)
	require.InDelta(t, 6.25, results[1].Total, 1e-9)
	require.Equal(t, 2, results[1].Rank)
}

func TestRankTiesKeepOptionOrder(t *testing.T) {
	decision := models.Decision{
		Criteria: []models.DecisionCriterion{{ID: "c", Weight: 2}},
		Options: []models.DecisionOption{
			{ID: "first", Name: "First", Position: 0, Scores: map[string]float64{"c": 5}},
			{ID: "second", Name: "Second", Position: 1, Scores: map[string]float64{"c": 5}},
		},
	}

	results := decisions.Rank(decision)
	require.Equal(t, "first", results[0].OptionID)
	require.Equal(t, "second", results[1].OptionID)
}

func TestRankUnscoredCriteriaCountAsZero(t *testing.T) {
	decision := models.Decision{
		Criteria: []models.DecisionCriterion{
			{ID: "c1", Weight: 1},
			{ID: "c2", Weight: 1},
		},
		Options: []models.DecisionOption{
			{ID: "a", Name: "A", Scores: map[string]float64{"c1": 10}},
		},
	}

	results := decisions.Rank(decision)
	require.InDelta(t, 5.0, results[0].Total, 1e-9)
}

func TestMatrixLifecycle(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	decision, err := svc.Create(ctx, "default", "New laptop", "")
	require.NoError(t, err)

	price, err := svc.AddCriterion(ctx, "default", decision.ID, "Price", 3)
	require.NoError(t, err)
	battery, err := svc.AddCriterion(ctx, "default", decision.ID, "Battery", 1)
	require.NoError(t, err)

	air, err := svc.AddOption(ctx, "default", decision.ID, "Air")
	require.NoError(t, err)
	pro, err := svc.AddOption(ctx, "default", decision.ID, "Pro")
	require.NoError(t, err)

	require.NoError(t, svc.SetScore(ctx, "default", decision.ID, air.ID, price.ID, 9))
	require.NoError(t, svc.SetScore(ctx, "default", decision.ID, air.ID, battery.ID, 7))
	require.NoError(t, svc.SetScore(ctx, "default", decision.ID, pro.ID, price.ID, 5))
	require.NoError(t, svc.SetScore(ctx, "default", decision.ID, pro.ID, battery.ID, 10))

	results, err := svc.Results(ctx, "default", decision.ID)
	require.NoError(t, err)
	require.Len(t, results, 2)
	// Air: (27+7)/4 = 8.5; Pro: (15+10)/4 = 6.25.
	require.Equal(t, air.ID, results[0].OptionID)
	require.InDelta(t, 8.5, results[0].Total, 1e-9)

	// Re-scoring replaces the previous value.
	require.NoError(t, svc.SetScore(ctx, "default", decision.ID, air.ID, price.ID, 1))
	results, err = svc.Results(ctx, "default", decision.ID)
	require.NoError(t, err)
	require.Equal(t, pro.ID, results[0].OptionID)

	// Removing a criterion drops it from the math.
	require.NoError(t, svc.RemoveCriterion(ctx, "default", decision.ID, price.ID))
	loaded, err := svc.Get(ctx, "default", decision.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Criteria, 1)
}

func TestValidationErrors(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "default", "", "")
	require.ErrorIs(t, err, decisions.ErrNameRequired)

	decision, err := svc.Create(ctx, "default", "Choice", "")
	require.NoError(t, err)

	_, err = svc.AddCriterion(ctx, "default", decision.ID, "Weightless", 0)
	require.ErrorIs(t, err, decisions.ErrInvalidWeight)

	option, err := svc.AddOption(ctx, "default", decision.ID, "Opt")
	require.NoError(t, err)
	criterion, err := svc.AddCriterion(ctx, "default", decision.ID, "C", 1)
	require.NoError(t, err)

	require.ErrorIs(t, svc.SetScore(ctx, "default", decision.ID, option.ID, criterion.ID, 11), decisions.ErrInvalidScore)
	require.ErrorIs(t, svc.SetScore(ctx, "default", decision.ID, "missing", criterion.ID, 5), decisions.ErrNotFound)
}
