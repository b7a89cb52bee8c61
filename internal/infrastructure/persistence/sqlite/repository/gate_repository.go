package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"stagegate/internal/errs"
	"stagegate/internal/infrastructure/persistence/sqlite/model"
	"stagegate/internal/ports"
)

type GateRepository struct {
	db *gorm.DB
}

func NewGateRepository(db *gorm.DB) *GateRepository {
	return &GateRepository{db: db}
}

func (r *GateRepository) dbFromContext(ctx context.Context) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	tx := ports.TxFromContext(ctx)
	if tx == nil {
		return r.db.WithContext(ctx), nil
	}

	gormTx, ok := tx.(*gorm.DB)
	if !ok || gormTx == nil {
		return nil, fmt.Errorf("invalid tx in context: %T", tx)
	}
	return gormTx.WithContext(ctx), nil
}

func (r *GateRepository) CreateCriterion(ctx context.Context, criterion ports.GateCriterion) (ports.GateCriterion, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.GateCriterion{}, err
	}

	row, err := criterionRow(criterion)
	if err != nil {
		return ports.GateCriterion{}, err
	}
	row.CriterionID = 0

	if err := db.Create(&row).Error; err != nil {
		return ports.GateCriterion{}, errs.Wrap(err, "insert gate criterion")
	}
	return mapCriterion(row)
}

func (r *GateRepository) GetCriterion(ctx context.Context, criterionID uint64) (ports.GateCriterion, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.GateCriterion{}, err
	}

	var row model.GateCriterion
	if err := db.First(&row, "criterion_id = ?", criterionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.GateCriterion{}, ports.ErrCriterionNotFound
		}
		return ports.GateCriterion{}, errs.Wrap(err, "query gate criterion")
	}
	return mapCriterion(row)
}

func (r *GateRepository) UpdateCriterion(ctx context.Context, criterionID uint64, update ports.GateCriterionUpdate) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	filterJSON, err := marshalSeverityFilter(update.SeverityFilter)
	if err != nil {
		return err
	}

	result := db.Model(&model.GateCriterion{}).
		Where("criterion_id = ?", criterionID).
		Updates(map[string]any{
			"name":                 update.Name,
			"description":          update.Description,
			"criteria_type":        update.CriteriaType,
			"operator":             update.Operator,
			"threshold":            update.Threshold,
			"severity_filter_json": filterJSON,
			"is_blocking":          update.IsBlocking,
			"is_active":            update.IsActive,
			"sort_order":           update.SortOrder,
			"updated_at":           update.UpdatedAt,
		})
	if result.Error != nil {
		return errs.Wrap(result.Error, "update gate criterion")
	}
	if result.RowsAffected == 0 {
		return ports.ErrCriterionNotFound
	}
	return nil
}

// DeleteCriterion removes the rule and its whole evaluation history so no
// audit row is left referencing a deleted rule.
func (r *GateRepository) DeleteCriterion(ctx context.Context, criterionID uint64) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	result := db.Delete(&model.GateCriterion{}, "criterion_id = ?", criterionID)
	if result.Error != nil {
		return errs.Wrap(result.Error, "delete gate criterion")
	}
	if result.RowsAffected == 0 {
		return ports.ErrCriterionNotFound
	}

	if err := db.Delete(&model.GateEvaluation{}, "criterion_id = ?", criterionID).Error; err != nil {
		return errs.Wrap(err, "delete criterion evaluations")
	}
	return nil
}

func (r *GateRepository) ListCriteria(ctx context.Context, programID uint64, gateType string, activeOnly bool) ([]ports.GateCriterion, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.GateCriterion{}).
		Where("program_id = ? AND gate_type = ?", programID, gateType)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var rows []model.GateCriterion
	if err := query.Order("sort_order asc, criterion_id asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query gate criteria")
	}
	return mapCriteria(rows)
}

func (r *GateRepository) ListProgramCriteria(ctx context.Context, programID uint64) ([]ports.GateCriterion, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.GateCriterion
	if err := db.
		Where("program_id = ?", programID).
		Order("gate_type asc, sort_order asc, criterion_id asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query program criteria")
	}
	return mapCriteria(rows)
}

func (r *GateRepository) AppendEvaluation(ctx context.Context, evaluation ports.GateEvaluation) (ports.GateEvaluation, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.GateEvaluation{}, err
	}

	row := model.GateEvaluation{
		CriterionID: evaluation.CriterionID,
		RunID:       evaluation.RunID,
		EntityType:  evaluation.EntityType,
		EntityID:    evaluation.EntityID,
		ActualValue: evaluation.ActualValue,
		IsPassed:    evaluation.IsPassed,
		EvaluatedAt: evaluation.EvaluatedAt,
		EvaluatedBy: evaluation.EvaluatedBy,
		Notes:       evaluation.Notes,
	}
	if err := db.Create(&row).Error; err != nil {
		return ports.GateEvaluation{}, errs.Wrap(err, "insert gate evaluation")
	}
	return mapEvaluation(row), nil
}

func (r *GateRepository) ListEvaluations(ctx context.Context, entityType string, entityID string) ([]ports.GateEvaluation, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.GateEvaluation
	if err := db.
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("evaluated_at desc, evaluation_id desc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query gate evaluations")
	}

	items := make([]ports.GateEvaluation, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapEvaluation(row))
	}
	return items, nil
}

func criterionRow(criterion ports.GateCriterion) (model.GateCriterion, error) {
	filterJSON, err := marshalSeverityFilter(criterion.SeverityFilter)
	if err != nil {
		return model.GateCriterion{}, err
	}

	return model.GateCriterion{
		CriterionID:        criterion.CriterionID,
		ProgramID:          criterion.ProgramID,
		GateType:           criterion.GateType,
		Name:               criterion.Name,
		Description:        criterion.Description,
		CriteriaType:       criterion.CriteriaType,
		Operator:           criterion.Operator,
		Threshold:          criterion.Threshold,
		SeverityFilterJSON: filterJSON,
		IsBlocking:         criterion.IsBlocking,
		IsActive:           criterion.IsActive,
		SortOrder:          criterion.SortOrder,
		CreatedAt:          criterion.CreatedAt,
		UpdatedAt:          criterion.UpdatedAt,
	}, nil
}

func mapCriteria(rows []model.GateCriterion) ([]ports.GateCriterion, error) {
	items := make([]ports.GateCriterion, 0, len(rows))
	for _, row := range rows {
		item, err := mapCriterion(row)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func mapCriterion(row model.GateCriterion) (ports.GateCriterion, error) {
	filter, err := unmarshalSeverityFilter(row.SeverityFilterJSON)
	if err != nil {
		return ports.GateCriterion{}, errs.Wrapf(err, "decode severity filter for criterion %d", row.CriterionID)
	}

	return ports.GateCriterion{
		CriterionID:    row.CriterionID,
		ProgramID:      row.ProgramID,
		GateType:       row.GateType,
		Name:           row.Name,
		Description:    row.Description,
		CriteriaType:   row.CriteriaType,
		Operator:       row.Operator,
		Threshold:      row.Threshold,
		SeverityFilter: filter,
		IsBlocking:     row.IsBlocking,
		IsActive:       row.IsActive,
		SortOrder:      row.SortOrder,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}, nil
}

func mapEvaluation(row model.GateEvaluation) ports.GateEvaluation {
	return ports.GateEvaluation{
		EvaluationID: row.EvaluationID,
		CriterionID:  row.CriterionID,
		RunID:        row.RunID,
		EntityType:   row.EntityType,
		EntityID:     row.EntityID,
		ActualValue:  row.ActualValue,
		IsPassed:     row.IsPassed,
		EvaluatedAt:  row.EvaluatedAt,
		EvaluatedBy:  row.EvaluatedBy,
		Notes:        row.Notes,
	}
}

func marshalSeverityFilter(filter []string) (string, error) {
	if len(filter) == 0 {
		return "[]", nil
	}
	raw, err := json.Marshal(filter)
	if err != nil {
		return "", errs.Wrap(err, "encode severity filter")
	}
	return string(raw), nil
}

func unmarshalSeverityFilter(raw string) ([]string, error) {
	if raw == "" || raw == "[]" {
		return nil, nil
	}
	var filter []string
	if err := json.Unmarshal([]byte(raw), &filter); err != nil {
		return nil, err
	}
	return filter, nil
}
