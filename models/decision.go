package models

import "time"

// Decision is a weighted multi-criteria decision matrix: a set of options
// scored against weighted criteria.
type Decision struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Criteria    []DecisionCriterion `json:"criteria,omitempty"`
	Options     []DecisionOption    `json:"options,omitempty"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

// DecisionCriterion is one weighted axis of a decision. Weights are positive
// and need not sum to anything; results normalize over the weight total.
type DecisionCriterion struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Weight   float64 `json:"weight"`
	Position int     `json:"position"`
}

// DecisionOption is one candidate being evaluated. Scores map criterion ID
// to the 0-10 score given for that axis; unscored criteria count as zero.
type DecisionOption struct {
	ID       string             `json:"id"`
	Name     string             `json:"name"`
	Position int                `json:"position"`
	Scores   map[string]float64 `json:"scores,omitempty"`
}

// DecisionResult is one ranked row of the computed matrix.
type DecisionResult struct {
	OptionID string  `json:"optionId"`
	Name     string  `json:"name"`
	Total    float64 `json:"total"` // weighted average over all criteria
	Rank     int     `json:"rank"`
}
