package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"stagegate/internal/errs"
	"stagegate/internal/infrastructure/persistence/sqlite/model"
	"stagegate/internal/ports"
)

type SignoffRepository struct {
	db *gorm.DB
}

func NewSignoffRepository(db *gorm.DB) *SignoffRepository {
	return &SignoffRepository{db: db}
}

func (r *SignoffRepository) dbFromContext(ctx context.Context) (*gorm.DB, error) {
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

func (r *SignoffRepository) Append(ctx context.Context, record ports.SignoffRecord) (ports.SignoffRecord, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.SignoffRecord{}, err
	}

	row := model.SignoffRecord{
		TenantID:             record.TenantID,
		ProgramID:            record.ProgramID,
		EntityType:           record.EntityType,
		EntityID:             record.EntityID,
		Action:               record.Action,
		ApproverID:           record.ApproverID,
		ApproverNameSnapshot: record.ApproverNameSnapshot,
		Comment:              record.Comment,
		OverrideReason:       record.OverrideReason,
		IsOverride:           record.IsOverride,
		ApproverIP:           record.ApproverIP,
		CreatedAt:            record.CreatedAt,
	}
	if err := db.Create(&row).Error; err != nil {
		return ports.SignoffRecord{}, errs.Wrap(err, "append signoff record")
	}
	return mapSignoff(row), nil
}

func (r *SignoffRepository) ListByEntity(ctx context.Context, tenantID uint64, programID uint64, entityType string, entityID string) ([]ports.SignoffRecord, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.SignoffRecord
	if err := db.
		Where("tenant_id = ? AND program_id = ? AND entity_type = ? AND entity_id = ?",
			tenantID, programID, entityType, entityID).
		Order("created_at asc, record_id asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query signoff history")
	}

	items := make([]ports.SignoffRecord, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapSignoff(row))
	}
	return items, nil
}

func (r *SignoffRepository) Latest(ctx context.Context, tenantID uint64, programID uint64, entityType string, entityID string) (ports.SignoffRecord, bool, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.SignoffRecord{}, false, err
	}

	var row model.SignoffRecord
	err = db.
		Where("tenant_id = ? AND program_id = ? AND entity_type = ? AND entity_id = ?",
			tenantID, programID, entityType, entityID).
		Order("created_at desc, record_id desc").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.SignoffRecord{}, false, nil
		}
		return ports.SignoffRecord{}, false, errs.Wrap(err, "query latest signoff")
	}
	return mapSignoff(row), true, nil
}

// ListLatestByProgram relies on record_id being monotonically increasing: the
// max record_id per entity is the latest record by (created_at, id).
func (r *SignoffRepository) ListLatestByProgram(ctx context.Context, tenantID uint64, programID uint64, entityType string) ([]ports.SignoffRecord, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	sub := db.Model(&model.SignoffRecord{}).
		Select("max(record_id)").
		Where("tenant_id = ? AND program_id = ?", tenantID, programID).
		Group("entity_type, entity_id")

	query := db.Model(&model.SignoffRecord{}).Where("record_id IN (?)", sub)
	if entityType != "" {
		query = query.Where("entity_type = ?", entityType)
	}

	var rows []model.SignoffRecord
	if err := query.Order("entity_type asc, entity_id asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query latest signoffs per entity")
	}

	items := make([]ports.SignoffRecord, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapSignoff(row))
	}
	return items, nil
}

func mapSignoff(row model.SignoffRecord) ports.SignoffRecord {
	return ports.SignoffRecord{
		RecordID:             row.RecordID,
		TenantID:             row.TenantID,
		ProgramID:            row.ProgramID,
		EntityType:           row.EntityType,
		EntityID:             row.EntityID,
		Action:               row.Action,
		ApproverID:           row.ApproverID,
		ApproverNameSnapshot: row.ApproverNameSnapshot,
		Comment:              row.Comment,
		OverrideReason:       row.OverrideReason,
		IsOverride:           row.IsOverride,
		ApproverIP:           row.ApproverIP,
		CreatedAt:            row.CreatedAt,
	}
}
