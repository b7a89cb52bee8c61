package signoff

import (
	"context"
	"errors"
	"strings"

	signoffdomain "stagegate/internal/domain/signoff"
	"stagegate/internal/errs"
	"stagegate/internal/ports"
)

// Approve appends an 'approved' or 'override_approved' record. Re-approving
// an already-approved entity is allowed and simply appends: every approval is
// a new audit fact, not a state mutation.
func (s *Service) Approve(ctx context.Context, input ApproveInput) (Record, error) {
	if ctx == nil {
		return Record{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return Record{}, errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return Record{}, errors.New("signoff repository is required")
	}

	if input.TenantID == 0 {
		return Record{}, errs.AsKind(signoffdomain.ErrTenantRequired, errs.KindInvalid)
	}
	entityType, err := signoffdomain.ParseEntityType(input.EntityType)
	if err != nil {
		return Record{}, errs.AsKind(err, errs.KindInvalid)
	}
	entityID := strings.TrimSpace(input.EntityID)
	if entityID == "" {
		return Record{}, errs.AsKind(signoffdomain.ErrEntityIDRequired, errs.KindInvalid)
	}

	approverID := strings.TrimSpace(input.ApproverID)
	if err := signoffdomain.ValidateApproval(approverID, strings.TrimSpace(input.Caller.RequestorID), input.IsOverride, input.OverrideReason); err != nil {
		switch {
		case errors.Is(err, signoffdomain.ErrSelfApproval):
			return Record{}, errs.AsKind(err, errs.KindUnprocessable)
		default:
			return Record{}, errs.AsKind(err, errs.KindInvalid)
		}
	}

	action := signoffdomain.ActionApproved
	overrideReason := ""
	if input.IsOverride {
		action = signoffdomain.ActionOverrideApproved
		overrideReason = strings.TrimSpace(input.OverrideReason)
	}

	record := ports.SignoffRecord{
		TenantID:             input.TenantID,
		ProgramID:            input.ProgramID,
		EntityType:           string(entityType),
		EntityID:             entityID,
		Action:               string(action),
		ApproverID:           approverID,
		ApproverNameSnapshot: s.snapshotName(ctx, approverID),
		Comment:              strings.TrimSpace(input.Comment),
		OverrideReason:       overrideReason,
		IsOverride:           input.IsOverride,
		ApproverIP:           strings.TrimSpace(input.Caller.SourceIP),
		CreatedAt:            nowUTCString(),
	}

	appended, err := s.appendInTx(ctx, record)
	if err != nil {
		return Record{}, err
	}

	s.publishBestEffort(ctx, "signoff."+string(action), appended)
	return appended, nil
}

// snapshotName resolves the approver's display name at write time so the
// trail survives later removal of the account. Unknown ids fall back to the
// id string; the write must not fail because the directory is incomplete.
func (s *Service) snapshotName(ctx context.Context, approverID string) string {
	if s.directory == nil {
		return approverID
	}

	approver, err := s.directory.Lookup(ctx, approverID)
	if err != nil {
		return approverID
	}
	if strings.TrimSpace(approver.DisplayName) == "" {
		return approverID
	}
	return approver.DisplayName
}

func (s *Service) appendInTx(ctx context.Context, record ports.SignoffRecord) (Record, error) {
	var appended ports.SignoffRecord
	run := func(txCtx context.Context) error {
		var err error
		appended, err = s.repo.Append(txCtx, record)
		return err
	}

	var err error
	if s.uow != nil {
		err = s.uow.WithTx(ctx, run)
	} else {
		err = run(ctx)
	}
	if err != nil {
		return Record{}, err
	}
	return mapRecord(appended), nil
}

func mapRecord(row ports.SignoffRecord) Record {
	return Record{
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
