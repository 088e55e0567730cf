package decisions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"lifeboard/models"
)

var (
	ErrUserIDRequired = errors.New("user id is required")
	ErrNameRequired   = errors.New("name is required")
	ErrInvalidWeight  = errors.New("criterion weight must be positive")
	ErrInvalidScore   = errors.New("scores must be between 0 and 10")
	ErrNotFound       = errors.New("decision not found")
)

// Service stores weighted decision matrices and computes their rankings.
type Service struct {
	db *sql.DB
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// Create stores a new empty decision.
func (s *Service) Create(ctx context.Context, userID, name, description string) (models.Decision, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return models.Decision{}, ErrUserIDRequired
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Decision{}, ErrNameRequired
	}

	decision := models.Decision{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Criteria:    []models.DecisionCriterion{},
		Options:     []models.DecisionOption{},
		CreatedAt:   time.Now().UTC(),
	}
	decision.UpdatedAt = decision.CreatedAt

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO decisions (id, user_id, name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		decision.ID, userID, decision.Name, decision.Description,
		decision.CreatedAt.Format(time.RFC3339Nano), decision.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return models.Decision{}, fmt.Errorf("insert decision: %w", err)
	}
	return decision, nil
}

// Delete removes a decision and, through the schema's cascades, its
// criteria, options and scores.
func (s *Service) Delete(ctx context.Context, userID, decisionID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrUserIDRequired
	}

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM decisions WHERE user_id = ? AND id = ?`,
		userID, decisionID,
	)
	if err != nil {
		return fmt.Errorf("delete decision: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns the user's decisions without criteria or options loaded.
func (s *Service) List(ctx context.Context, userID string) ([]models.Decision, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrUserIDRequired
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, created_at, updated_at FROM decisions
		WHERE user_id = ? ORDER BY updated_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	list := make([]models.Decision, 0)
	for rows.Next() {
		var d models.Decision
		var created, updated string
		if err := rows.Scan(&d.ID, &d.Name, &d.Description, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		d.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		d.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
		list = append(list, d)
	}
	return list, rows.Err()
}

// Get returns a decision with criteria and options fully loaded. Criteria
// and options come back in their stored positions.
func (s *Service) Get(ctx context.Context, userID, decisionID string) (models.Decision, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return models.Decision{}, ErrUserIDRequired
	}

	var decision models.Decision
	var created, updated string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, created_at, updated_at FROM decisions
		WHERE user_id = ? AND id = ?`,
		userID, decisionID,
	).Scan(&decision.ID, &decision.Name, &decision.Description, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Decision{}, ErrNotFound
	}
	if err != nil {
		return models.Decision{}, fmt.Errorf("scan decision: %w", err)
	}
	decision.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	decision.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)

	decision.Criteria, err = s.criteria(ctx, decisionID)
	if err != nil {
		return models.Decision{}, err
	}
	decision.Options, err = s.options(ctx, decisionID)
	if err != nil {
		return models.Decision{}, err
	}
	return decision, nil
}

// AddCriterion appends a weighted axis to the matrix.
func (s *Service) AddCriterion(ctx context.Context, userID, decisionID, name string, weight float64) (models.DecisionCriterion, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.DecisionCriterion{}, ErrNameRequired
	}
	if weight <= 0 {
		return models.DecisionCriterion{}, ErrInvalidWeight
	}
	if _, err := s.Get(ctx, userID, decisionID); err != nil {
		return models.DecisionCriterion{}, err
	}

	criterion := models.DecisionCriterion{
		ID:     uuid.NewString(),
		Name:   name,
		Weight: weight,
	}
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position), -1) + 1 FROM decision_criteria WHERE decision_id = ?`,
		decisionID,
	).Scan(&criterion.Position)
	if err != nil {
		return models.DecisionCriterion{}, fmt.Errorf("next criterion position: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO decision_criteria (id, decision_id, name, weight, position) VALUES (?, ?, ?, ?, ?)`,
		criterion.ID, decisionID, criterion.Name, criterion.Weight, criterion.Position,
	)
	if err != nil {
		return models.DecisionCriterion{}, fmt.Errorf("insert criterion: %w", err)
	}
	return criterion, s.touch(ctx, decisionID)
}

// RemoveCriterion deletes an axis and its scores.
func (s *Service) RemoveCriterion(ctx context.Context, userID, decisionID, criterionID string) error {
	if _, err := s.Get(ctx, userID, decisionID); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM decision_criteria WHERE decision_id = ? AND id = ?`,
		decisionID, criterionID,
	)
	if err != nil {
		return fmt.Errorf("delete criterion: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return s.touch(ctx, decisionID)
}

// AddOption appends a candidate to the matrix.
func (s *Service) AddOption(ctx context.Context, userID, decisionID, name string) (models.DecisionOption, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.DecisionOption{}, ErrNameRequired
	}
	if _, err := s.Get(ctx, userID, decisionID); err != nil {
		return models.DecisionOption{}, err
	}

	option := models.DecisionOption{
		ID:     uuid.NewString(),
		Name:   name,
		Scores: map[string]float64{},
	}
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position), -1) + 1 FROM decision_options WHERE decision_id = ?`,
		decisionID,
	).Scan(&option.Position)
	if err != nil {
		return models.DecisionOption{}, fmt.Errorf("next option position: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO decision_options (id, decision_id, name, position) VALUES (?, ?, ?, ?)`,
		option.ID, decisionID, option.Name, option.Position,
	)
	if err != nil {
		return models.DecisionOption{}, fmt.Errorf("insert option: %w", err)
	}
	return option, s.touch(ctx, decisionID)
}

// RemoveOption deletes a candidate and its scores.
func (s *Service) RemoveOption(ctx context.Context, userID, decisionID, optionID string) error {
	if _, err := s.Get(ctx, userID, decisionID); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM decision_options WHERE decision_id = ? AND id = ?`,
		decisionID, optionID,
	)
	if err != nil {
		return fmt.Errorf("delete option: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return s.touch(ctx, decisionID)
}

// SetScore records how an option fares on one criterion, replacing any
// previous score for the pair.
func (s *Service) SetScore(ctx context.Context, userID, decisionID, optionID, criterionID string, score float64) error {
	if score < 0 || score > 10 {
		return ErrInvalidScore
	}
	decision, err := s.Get(ctx, userID, decisionID)
	if err != nil {
		return err
	}
	if !hasOption(decision, optionID) || !hasCriterion(decision, criterionID) {
		return ErrNotFound
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO decision_scores (option_id, criterion_id, score) VALUES (?, ?, ?)
		ON CONFLICT (option_id, criterion_id) DO UPDATE SET score = excluded.score`,
		optionID, criterionID, score,
	)
	if err != nil {
		return fmt.Errorf("upsert score: %w", err)
	}
	return s.touch(ctx, decisionID)
}

// Results computes the ranked matrix. Each option's total is the weighted
// average of its scores over the sum of all criterion weights; unscored
// criteria count as zero. Equal totals share their order by option position,
// earliest added first.
func (s *Service) Results(ctx context.Context, userID, decisionID string) ([]models.DecisionResult, error) {
	decision, err := s.Get(ctx, userID, decisionID)
	if err != nil {
		return nil, err
	}
	return Rank(decision), nil
}

// Rank computes a decision's weighted ranking without touching storage.
func Rank(decision models.Decision) []models.DecisionResult {
	var weightTotal float64
	for _, criterion := range decision.Criteria {
		weightTotal += criterion.Weight
	}

	results := make([]models.DecisionResult, 0, len(decision.Options))
	for _, option := range decision.Options {
		var weighted float64
		for _, criterion := range decision.Criteria {
			weighted += criterion.Weight * option.Scores[criterion.ID]
		}
		total := 0.0
		if weightTotal > 0 {
			total = weighted / weightTotal
		}
		results = append(results, models.DecisionResult{
			OptionID: option.ID,
			Name:     option.Name,
			Total:    total,
		})
	}

	// Options arrive position-ordered, so the stable sort keeps ties in
	// the order the options were added.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Total > results[j].Total
	})
	for i := range results {
		results[i].Rank = i + 1
	}
	return results
}

func (s *Service) criteria(ctx context.Context, decisionID string) ([]models.DecisionCriterion, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, weight, position FROM decision_criteria
		WHERE decision_id = ? ORDER BY position ASC`,
		decisionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query criteria: %w", err)
	}
	defer rows.Close()

	criteria := make([]models.DecisionCriterion, 0)
	for rows.Next() {
		var c models.DecisionCriterion
		if err := rows.Scan(&c.ID, &c.Name, &c.Weight, &c.Position); err != nil {
			return nil, fmt.Errorf("scan criterion: %w", err)
		}
		criteria = append(criteria, c)
	}
	return criteria, rows.Err()
}

func (s *Service) options(ctx context.Context, decisionID string) ([]models.DecisionOption, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, position FROM decision_options
		WHERE decision_id = ? ORDER BY position ASC`,
		decisionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query options: %w", err)
	}
	defer rows.Close()

	options := make([]models.DecisionOption, 0)
	for rows.Next() {
		var o models.DecisionOption
		if err := rows.Scan(&o.ID, &o.Name, &o.Position); err != nil {
			return nil, fmt.Errorf("scan option: %w", err)
		}
		o.Scores = map[string]float64{}
		options = append(options, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	scoreRows, err := s.db.QueryContext(ctx,
		`SELECT ds.option_id, ds.criterion_id, ds.score FROM decision_scores ds
		JOIN decision_options o ON o.id = ds.option_id WHERE o.decision_id = ?`,
		decisionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query scores: %w", err)
	}
	defer scoreRows.Close()

	byID := make(map[string]*models.DecisionOption, len(options))
	for i := range options {
		byID[options[i].ID] = &options[i]
	}
	for scoreRows.Next() {
		var optionID, criterionID string
		var score float64
		if err := scoreRows.Scan(&optionID, &criterionID, &score); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		if option, ok := byID[optionID]; ok {
			option.Scores[criterionID] = score
		}
	}
	return options, scoreRows.Err()
}

func (s *Service) touch(ctx context.Context, decisionID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE decisions SET updated_at = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano), decisionID,
	)
	if err != nil {
		return fmt.Errorf("touch decision: %w", err)
	}
	return nil
}

func hasOption(decision models.Decision, optionID string) bool {
	for _, option := range decision.Options {
		if option.ID == optionID {
			return true
		}
	}
	return false
}

func hasCriterion(decision models.Decision, criterionID string) bool {
	for _, criterion := range decision.Criteria {
		if criterion.ID == criterionID {
			return true
		}
	}
	return false
}
