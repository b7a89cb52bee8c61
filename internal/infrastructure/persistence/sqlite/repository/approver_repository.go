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

// ApproverRepository implements ports.ActorDirectory over the approvers table.
type ApproverRepository struct {
	db *gorm.DB
}

func NewApproverRepository(db *gorm.DB) *ApproverRepository {
	return &ApproverRepository{db: db}
}

func (r *ApproverRepository) dbFromContext(ctx context.Context) (*gorm.DB, error) {
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

func (r *ApproverRepository) Lookup(ctx context.Context, approverID string) (ports.Approver, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.Approver{}, err
	}

	var row model.Approver
	if err := db.First(&row, "approver_id = ?", approverID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Approver{}, ports.ErrApproverNotFound
		}
		return ports.Approver{}, errs.Wrap(err, "query approver")
	}

	return ports.Approver{
		ApproverID:  row.ApproverID,
		DisplayName: row.DisplayName,
		Email:       row.Email,
		CreatedAt:   row.CreatedAt,
	}, nil
}

func (r *ApproverRepository) Register(ctx context.Context, approver ports.Approver) (ports.Approver, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.Approver{}, err
	}

	row := model.Approver{
		ApproverID:  approver.ApproverID,
		DisplayName: approver.DisplayName,
		Email:       approver.Email,
		CreatedAt:   approver.CreatedAt,
	}
	if err := db.Save(&row).Error; err != nil {
		return ports.Approver{}, errs.Wrap(err, "save approver")
	}
	return approver, nil
}

func (r *ApproverRepository) Remove(ctx context.Context, approverID string) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	result := db.Delete(&model.Approver{}, "approver_id = ?", approverID)
	if result.Error != nil {
		return errs.Wrap(result.Error, "delete approver")
	}
	if result.RowsAffected == 0 {
		return ports.ErrApproverNotFound
	}
	return nil
}
