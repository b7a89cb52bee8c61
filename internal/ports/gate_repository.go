package ports

import (
	"context"
	"errors"
)

var ErrCriterionNotFound = errors.New("gate criterion not found")

// GateCriterion is a configured pass/fail rule for a gate.
type GateCriterion struct {
	CriterionID    uint64
	ProgramID      uint64
	GateType       string
	Name           string
	Description    string
	CriteriaType   string
	Operator       string
	Threshold      string
	SeverityFilter []string
	IsBlocking     bool
	IsActive       bool
	SortOrder      int
	CreatedAt      string
	UpdatedAt      string
}

// GateEvaluation is one immutable outcome row. Rows are only ever inserted,
// or removed via cascade when the owning criterion is deleted.
type GateEvaluation struct {
	EvaluationID uint64
	CriterionID  uint64
	RunID        string
	EntityType   string
	EntityID     string
	ActualValue  string
	IsPassed     bool
	EvaluatedAt  string
	EvaluatedBy  string
	Notes        string
}

type GateCriterionUpdate struct {
	Name           string
	Description    string
	CriteriaType   string
	Operator       string
	Threshold      string
	SeverityFilter []string
	IsBlocking     bool
	IsActive       bool
	SortOrder      int
	UpdatedAt      string
}

type GateRepository interface {
	CreateCriterion(ctx context.Context, criterion GateCriterion) (GateCriterion, error)
	GetCriterion(ctx context.Context, criterionID uint64) (GateCriterion, error)
	UpdateCriterion(ctx context.Context, criterionID uint64, update GateCriterionUpdate) error
	// DeleteCriterion removes the criterion and cascades to its evaluations.
	DeleteCriterion(ctx context.Context, criterionID uint64) error
	// ListCriteria returns criteria for (program, gate type) ordered by
	// (sort_order, criterion_id) ascending. activeOnly filters is_active.
	ListCriteria(ctx context.Context, programID uint64, gateType string, activeOnly bool) ([]GateCriterion, error)
	ListProgramCriteria(ctx context.Context, programID uint64) ([]GateCriterion, error)

	AppendEvaluation(ctx context.Context, evaluation GateEvaluation) (GateEvaluation, error)
	// ListEvaluations returns the full trail for an entity, newest first.
	ListEvaluations(ctx context.Context, entityType string, entityID string) ([]GateEvaluation, error)
}
