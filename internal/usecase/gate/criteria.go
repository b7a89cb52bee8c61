package gate

import (
	"context"
	"errors"
	"strings"

	gatedomain "stagegate/internal/domain/gate"
	"stagegate/internal/errs"
	"stagegate/internal/ports"
)

// CreateCriterion validates the rule against the closed enumerations and
// stores it. Thresholds are kept as strings and only parsed at evaluation
// time, matching the evaluator's degrade-to-zero policy.
func (s *Service) CreateCriterion(ctx context.Context, input CriterionInput) (Criterion, error) {
	if ctx == nil {
		return Criterion{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return Criterion{}, errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return Criterion{}, errors.New("gate repository is required")
	}

	normalized, err := normalizeCriterionInput(input)
	if err != nil {
		return Criterion{}, err
	}

	now := nowUTCString()
	created, err := s.repo.CreateCriterion(ctx, ports.GateCriterion{
		ProgramID:      normalized.ProgramID,
		GateType:       normalized.GateType,
		Name:           normalized.Name,
		Description:    normalized.Description,
		CriteriaType:   normalized.CriteriaType,
		Operator:       normalized.Operator,
		Threshold:      normalized.Threshold,
		SeverityFilter: normalized.SeverityFilter,
		IsBlocking:     normalized.IsBlocking,
		IsActive:       normalized.IsActive,
		SortOrder:      normalized.SortOrder,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return Criterion{}, err
	}
	return mapCriterion(created), nil
}

func (s *Service) UpdateCriterion(ctx context.Context, criterionID uint64, input CriterionInput) (Criterion, error) {
	if ctx == nil {
		return Criterion{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return Criterion{}, errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return Criterion{}, errors.New("gate repository is required")
	}

	normalized, err := normalizeCriterionInput(input)
	if err != nil {
		return Criterion{}, err
	}

	if err := s.repo.UpdateCriterion(ctx, criterionID, ports.GateCriterionUpdate{
		Name:           normalized.Name,
		Description:    normalized.Description,
		CriteriaType:   normalized.CriteriaType,
		Operator:       normalized.Operator,
		Threshold:      normalized.Threshold,
		SeverityFilter: normalized.SeverityFilter,
		IsBlocking:     normalized.IsBlocking,
		IsActive:       normalized.IsActive,
		SortOrder:      normalized.SortOrder,
		UpdatedAt:      nowUTCString(),
	}); err != nil {
		if errors.Is(err, ports.ErrCriterionNotFound) {
			return Criterion{}, errs.NotFoundf("criterion %d not found", criterionID)
		}
		return Criterion{}, err
	}

	updated, err := s.repo.GetCriterion(ctx, criterionID)
	if err != nil {
		return Criterion{}, err
	}
	return mapCriterion(updated), nil
}

// DeleteCriterion drops the rule and its evaluation history in one
// transaction (orphaned audit rows would reference a rule that no longer
// exists).
func (s *Service) DeleteCriterion(ctx context.Context, criterionID uint64) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return errors.New("gate repository is required")
	}
	if s.uow == nil {
		return errors.New("unit of work is required")
	}

	err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		return s.repo.DeleteCriterion(txCtx, criterionID)
	})
	if errors.Is(err, ports.ErrCriterionNotFound) {
		return errs.NotFoundf("criterion %d not found", criterionID)
	}
	return err
}

func (s *Service) ListCriteria(ctx context.Context, programID uint64, gateTypeRaw string) ([]Criterion, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return nil, errors.New("gate repository is required")
	}

	var rows []ports.GateCriterion
	var err error
	if strings.TrimSpace(gateTypeRaw) == "" {
		rows, err = s.repo.ListProgramCriteria(ctx, programID)
	} else {
		var gateType gatedomain.GateType
		gateType, err = gatedomain.ParseGateType(gateTypeRaw)
		if err != nil {
			return nil, errs.AsKind(err, errs.KindInvalid)
		}
		rows, err = s.repo.ListCriteria(ctx, programID, string(gateType), false)
	}
	if err != nil {
		return nil, err
	}

	items := make([]Criterion, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapCriterion(row))
	}
	return items, nil
}

func normalizeCriterionInput(input CriterionInput) (CriterionInput, error) {
	gateType, err := gatedomain.ParseGateType(input.GateType)
	if err != nil {
		return CriterionInput{}, errs.AsKind(err, errs.KindInvalid)
	}
	criteriaType, err := gatedomain.ParseCriteriaType(input.CriteriaType)
	if err != nil {
		return CriterionInput{}, errs.AsKind(err, errs.KindInvalid)
	}
	operator, err := gatedomain.ParseOperator(input.Operator)
	if err != nil {
		return CriterionInput{}, errs.AsKind(err, errs.KindInvalid)
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return CriterionInput{}, errs.AsKind(gatedomain.ErrCriterionNameRequired, errs.KindInvalid)
	}

	out := input
	out.GateType = string(gateType)
	out.CriteriaType = string(criteriaType)
	out.Operator = string(operator)
	out.Name = name
	out.Threshold = strings.TrimSpace(input.Threshold)
	return out, nil
}

func mapCriterion(row ports.GateCriterion) Criterion {
	return Criterion{
		CriterionID:    row.CriterionID,
		ProgramID:      row.ProgramID,
		GateType:       row.GateType,
		Name:           row.Name,
		Description:    row.Description,
		CriteriaType:   row.CriteriaType,
		Operator:       row.Operator,
		Threshold:      row.Threshold,
		SeverityFilter: row.SeverityFilter,
		IsBlocking:     row.IsBlocking,
		IsActive:       row.IsActive,
		SortOrder:      row.SortOrder,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}
