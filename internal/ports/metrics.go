package ports

import "context"

// MetricQuery asks for the measured value behind one criterion.
type MetricQuery struct {
	CriteriaType   string
	EntityType     string
	EntityID       string
	SeverityFilter []string
	// CustomValues carries caller-supplied measurements for criteria_type
	// "custom", keyed by criterion name.
	CustomValues map[string]float64
	CriterionName string
}

// MetricResolver resolves a criterion's actual value from surrounding
// system state. Implementations must not fail a gate run for a missing
// measurement; return 0 and let the comparison decide.
type MetricResolver interface {
	Resolve(ctx context.Context, query MetricQuery) (float64, error)
}
