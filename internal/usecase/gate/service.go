package gate

import (
	"time"

	"stagegate/internal/ports"
)

// Service implements gate criteria administration, evaluation runs, and the
// history/scorecard reads.
type Service struct {
	repo      ports.GateRepository
	uow       ports.UnitOfWork
	resolver  ports.MetricResolver
	publisher ports.EventPublisher
}

func NewService(repo ports.GateRepository, uow ports.UnitOfWork, resolver ports.MetricResolver, publisher ports.EventPublisher) *Service {
	return &Service{
		repo:      repo,
		uow:       uow,
		resolver:  resolver,
		publisher: publisher,
	}
}

type CriterionInput struct {
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
}

type Criterion struct {
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

type EvaluateInput struct {
	ProgramID   uint64
	GateType    string
	EntityType  string
	EntityID    string
	EvaluatedBy string
	// CustomValues feeds criteria of type "custom", keyed by criterion name.
	CustomValues map[string]float64
}

type CriterionResult struct {
	CriterionID  uint64
	Name         string
	CriteriaType string
	Operator     string
	Threshold    string
	Actual       string
	IsPassed     bool
	IsBlocking   bool
}

type EvaluationResult struct {
	RunID       string
	ProgramID   uint64
	GateType    string
	EntityType  string
	EntityID    string
	CanProceed  bool
	AllPassed   bool
	PassedCount int
	TotalCount  int
	Results     []CriterionResult
	Summary     string
	EvaluatedAt string
}

type EvaluationLogItem struct {
	EvaluationID uint64
	CriterionID  uint64
	RunID        string
	ActualValue  string
	IsPassed     bool
	EvaluatedAt  string
	EvaluatedBy  string
	Notes        string
}

type Scorecard struct {
	EntityType string
	EntityID   string
	Status     string
	CanProceed bool
	Results    []CriterionResult
}

func nowUTCString() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
