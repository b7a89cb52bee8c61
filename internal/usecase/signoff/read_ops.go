package signoff

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"stagegate/internal/bootstrap/logging"
	signoffdomain "stagegate/internal/domain/signoff"
	"stagegate/internal/errs"
)

// IsApproved is the integration point other subsystems call before allowing a
// transition: true iff the entity has history and its latest action approves.
func (s *Service) IsApproved(ctx context.Context, tenantID uint64, programID uint64, entityTypeRaw string, entityID string) (bool, error) {
	if ctx == nil {
		return false, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return false, errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return false, errors.New("signoff repository is required")
	}

	entityType, err := signoffdomain.ParseEntityType(entityTypeRaw)
	if err != nil {
		return false, errs.AsKind(err, errs.KindInvalid)
	}

	latest, found, err := s.repo.Latest(ctx, tenantID, programID, string(entityType), strings.TrimSpace(entityID))
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	return signoffdomain.Action(latest.Action).Approves(), nil
}

// GetHistory returns the chronological trail for one entity.
func (s *Service) GetHistory(ctx context.Context, tenantID uint64, programID uint64, entityTypeRaw string, entityID string) ([]Record, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return nil, errors.New("signoff repository is required")
	}

	entityType, err := signoffdomain.ParseEntityType(entityTypeRaw)
	if err != nil {
		return nil, errs.AsKind(err, errs.KindInvalid)
	}

	rows, err := s.repo.ListByEntity(ctx, tenantID, programID, string(entityType), strings.TrimSpace(entityID))
	if err != nil {
		return nil, err
	}

	items := make([]Record, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapRecord(row))
	}
	return items, nil
}

// GetPending lists entities whose latest record exists but does not approve.
// Entities that never entered the workflow have no record and are absent:
// they are not started, not pending.
func (s *Service) GetPending(ctx context.Context, tenantID uint64, programID uint64, entityTypeRaw string) ([]PendingItem, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return nil, errors.New("signoff repository is required")
	}

	entityTypeFilter := ""
	if strings.TrimSpace(entityTypeRaw) != "" {
		entityType, err := signoffdomain.ParseEntityType(entityTypeRaw)
		if err != nil {
			return nil, errs.AsKind(err, errs.KindInvalid)
		}
		entityTypeFilter = string(entityType)
	}

	latest, err := s.repo.ListLatestByProgram(ctx, tenantID, programID, entityTypeFilter)
	if err != nil {
		return nil, err
	}

	items := make([]PendingItem, 0)
	for _, row := range latest {
		if signoffdomain.Action(row.Action).Approves() {
			continue
		}
		items = append(items, PendingItem{
			EntityType:            row.EntityType,
			EntityID:              row.EntityID,
			LastAction:            row.Action,
			LastActor:             row.ApproverID,
			LastActorNameSnapshot: row.ApproverNameSnapshot,
			LastChangedAt:         row.CreatedAt,
		})
	}
	return items, nil
}

// GetSummary rolls latest states up per entity type. Override approvals count
// toward both the override and approved totals.
func (s *Service) GetSummary(ctx context.Context, tenantID uint64, programID uint64) (map[string]TypeSummary, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return nil, errors.New("signoff repository is required")
	}

	latest, err := s.repo.ListLatestByProgram(ctx, tenantID, programID, "")
	if err != nil {
		return nil, err
	}

	entries := make([]signoffdomain.Entry, 0, len(latest))
	for _, row := range latest {
		entries = append(entries, signoffdomain.Entry{
			ID:         row.RecordID,
			EntityType: signoffdomain.EntityType(row.EntityType),
			EntityID:   row.EntityID,
			Action:     signoffdomain.Action(row.Action),
			CreatedAt:  row.CreatedAt,
		})
	}

	summary := signoffdomain.Summarize(signoffdomain.LatestByEntity(entries))
	out := make(map[string]TypeSummary, len(summary))
	for entityType, tally := range summary {
		out[string(entityType)] = TypeSummary{
			Total:    tally.Total,
			Approved: tally.Approved,
			Revoked:  tally.Revoked,
			Override: tally.Override,
		}
	}
	return out, nil
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
