package gate

import (
	"context"
	"errors"
	"strings"

	gatedomain "stagegate/internal/domain/gate"
	"stagegate/internal/errs"
)

// GetHistory returns the full evaluation trail for one entity, newest first.
func (s *Service) GetHistory(ctx context.Context, entityTypeRaw string, entityID string) ([]EvaluationLogItem, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return nil, errors.New("gate repository is required")
	}

	entityType, err := gatedomain.ParseEntityType(entityTypeRaw)
	if err != nil {
		return nil, errs.AsKind(err, errs.KindInvalid)
	}

	rows, err := s.repo.ListEvaluations(ctx, string(entityType), strings.TrimSpace(entityID))
	if err != nil {
		return nil, err
	}

	items := make([]EvaluationLogItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, EvaluationLogItem{
			EvaluationID: row.EvaluationID,
			CriterionID:  row.CriterionID,
			RunID:        row.RunID,
			ActualValue:  row.ActualValue,
			IsPassed:     row.IsPassed,
			EvaluatedAt:  row.EvaluatedAt,
			EvaluatedBy:  row.EvaluatedBy,
			Notes:        row.Notes,
		})
	}
	return items, nil
}

// GetScorecard deduplicates the trail down to the most recent row per
// criterion and recomputes the verdict with the same blocking logic as
// Evaluate. Criteria deleted since their last run drop out via the cascade,
// so every surviving row still has its rule.
func (s *Service) GetScorecard(ctx context.Context, entityTypeRaw string, entityID string) (Scorecard, error) {
	if ctx == nil {
		return Scorecard{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return Scorecard{}, errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return Scorecard{}, errors.New("gate repository is required")
	}

	entityType, err := gatedomain.ParseEntityType(entityTypeRaw)
	if err != nil {
		return Scorecard{}, errs.AsKind(err, errs.KindInvalid)
	}
	entityID = strings.TrimSpace(entityID)

	rows, err := s.repo.ListEvaluations(ctx, string(entityType), entityID)
	if err != nil {
		return Scorecard{}, err
	}

	// Rows are newest first; the first row seen per criterion is its latest.
	seen := make(map[uint64]struct{}, len(rows))
	outcomes := make([]gatedomain.Outcome, 0, len(rows))
	for _, row := range rows {
		if _, ok := seen[row.CriterionID]; ok {
			continue
		}
		seen[row.CriterionID] = struct{}{}

		criterion, err := s.repo.GetCriterion(ctx, row.CriterionID)
		if err != nil {
			return Scorecard{}, err
		}

		actual, _ := gatedomain.ParseThreshold(row.ActualValue)
		outcomes = append(outcomes, gatedomain.Outcome{
			CriterionID: criterion.CriterionID,
			Name:        criterion.Name,
			Type:        gatedomain.CriteriaType(criterion.CriteriaType),
			Operator:    gatedomain.Operator(criterion.Operator),
			Threshold:   criterion.Threshold,
			Actual:      actual,
			Passed:      row.IsPassed,
			Blocking:    criterion.IsBlocking,
		})
	}

	status := gatedomain.ScorecardFrom(outcomes)
	verdict := gatedomain.Aggregate(outcomes)

	return Scorecard{
		EntityType: string(entityType),
		EntityID:   entityID,
		Status:     string(status),
		CanProceed: verdict.CanProceed,
		Results:    criterionResults(outcomes),
	}, nil
}
