package gate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"stagegate/internal/bootstrap/logging"
	gatedomain "stagegate/internal/domain/gate"
	"stagegate/internal/errs"
	"stagegate/internal/ports"
)

// Evaluate runs every active criterion for (program, gate type) against one
// entity and persists the full decision trail. Each invocation appends a new
// set of evaluation rows; history grows on purpose.
func (s *Service) Evaluate(ctx context.Context, input EvaluateInput) (EvaluationResult, error) {
	if ctx == nil {
		return EvaluationResult{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return EvaluationResult{}, errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return EvaluationResult{}, errors.New("gate repository is required")
	}
	if s.uow == nil {
		return EvaluationResult{}, errors.New("unit of work is required")
	}
	if s.resolver == nil {
		return EvaluationResult{}, errors.New("metric resolver is required")
	}

	gateType, err := gatedomain.ParseGateType(input.GateType)
	if err != nil {
		return EvaluationResult{}, errs.AsKind(err, errs.KindInvalid)
	}
	entityType, err := gatedomain.ParseEntityType(input.EntityType)
	if err != nil {
		return EvaluationResult{}, errs.AsKind(err, errs.KindInvalid)
	}
	entityID := strings.TrimSpace(input.EntityID)
	if entityID == "" {
		return EvaluationResult{}, errs.Invalidf("entity id is required")
	}

	runID := uuid.NewString()
	evaluatedAt := nowUTCString()
	result := EvaluationResult{
		RunID:       runID,
		ProgramID:   input.ProgramID,
		GateType:    string(gateType),
		EntityType:  string(entityType),
		EntityID:    entityID,
		EvaluatedAt: evaluatedAt,
	}

	var outcomes []gatedomain.Outcome
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		criteria, err := s.repo.ListCriteria(txCtx, input.ProgramID, string(gateType), true)
		if err != nil {
			return err
		}

		outcomes = make([]gatedomain.Outcome, 0, len(criteria))
		for _, criterion := range criteria {
			outcome, err := s.evaluateCriterion(txCtx, criterion, input, entityType, entityID)
			if err != nil {
				return err
			}

			if _, err := s.repo.AppendEvaluation(txCtx, ports.GateEvaluation{
				CriterionID: criterion.CriterionID,
				RunID:       runID,
				EntityType:  string(entityType),
				EntityID:    entityID,
				ActualValue: gatedomain.FormatMetric(outcome.Actual),
				IsPassed:    outcome.Passed,
				EvaluatedAt: evaluatedAt,
				EvaluatedBy: strings.TrimSpace(input.EvaluatedBy),
				Notes:       outcome.Note(),
			}); err != nil {
				return err
			}

			outcomes = append(outcomes, outcome)
		}
		return nil
	}); err != nil {
		return EvaluationResult{}, err
	}

	verdict := gatedomain.Aggregate(outcomes)
	result.CanProceed = verdict.CanProceed
	result.AllPassed = verdict.AllPassed
	result.PassedCount = verdict.PassedCount
	result.TotalCount = verdict.TotalCount
	result.Summary = verdict.Summary
	result.Results = criterionResults(outcomes)

	s.publishBestEffort(ctx, "gate.evaluated", result)
	return result, nil
}

func (s *Service) evaluateCriterion(
	ctx context.Context,
	criterion ports.GateCriterion,
	input EvaluateInput,
	entityType gatedomain.EntityType,
	entityID string,
) (gatedomain.Outcome, error) {
	actual, err := s.resolver.Resolve(ctx, ports.MetricQuery{
		CriteriaType:   criterion.CriteriaType,
		EntityType:     string(entityType),
		EntityID:       entityID,
		SeverityFilter: criterion.SeverityFilter,
		CustomValues:   input.CustomValues,
		CriterionName:  criterion.Name,
	})
	if err != nil {
		return gatedomain.Outcome{}, errs.Wrapf(err, "resolve metric for criterion %d", criterion.CriterionID)
	}

	threshold, ok := gatedomain.ParseThreshold(criterion.Threshold)
	if !ok {
		// Availability over strictness: a misconfigured threshold degrades
		// to 0 and the run continues.
		logging.Warn(ctx, "criterion threshold unparsable, using 0",
			slog.Uint64("criterion_id", criterion.CriterionID),
			slog.String("threshold", criterion.Threshold),
		)
	}

	operator := gatedomain.Operator(criterion.Operator)
	return gatedomain.Outcome{
		CriterionID: criterion.CriterionID,
		Name:        criterion.Name,
		Type:        gatedomain.CriteriaType(criterion.CriteriaType),
		Operator:    operator,
		Threshold:   criterion.Threshold,
		Actual:      actual,
		Passed:      operator.Compare(actual, threshold),
		Blocking:    criterion.IsBlocking,
	}, nil
}

func criterionResults(outcomes []gatedomain.Outcome) []CriterionResult {
	results := make([]CriterionResult, 0, len(outcomes))
	for _, o := range outcomes {
		results = append(results, CriterionResult{
			CriterionID:  o.CriterionID,
			Name:         o.Name,
			CriteriaType: string(o.Type),
			Operator:     string(o.Operator),
			Threshold:    strings.TrimSpace(o.Threshold),
			Actual:       gatedomain.FormatMetric(o.Actual),
			IsPassed:     o.Passed,
			IsBlocking:   o.Blocking,
		})
	}
	return results
}

func (s *Service) publishBestEffort(ctx context.Context, subject string, payload any) {
	if s.publisher == nil {
		return
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		logging.Warn(ctx, "encode audit event failed", slog.Any("err", errs.Loggable(err)))
		return
	}
	if err := s.publisher.Publish(ctx, subject, raw); err != nil {
		logging.Warn(ctx, "publish audit event failed", slog.String("subject", subject), slog.Any("err", errs.Loggable(err)))
	}
}
