package signoff

import (
	"context"
	"errors"
	"strings"

	signoffdomain "stagegate/internal/domain/signoff"
	"stagegate/internal/errs"
	"stagegate/internal/ports"
)

// Revoke appends a 'revoked' record. Unlike approval, revocation demands
// prior history and rejects a repeat: revoking again must come with a fresh
// justification for why the first revocation was not enough, and the ledger
// refuses to record a no-op.
func (s *Service) Revoke(ctx context.Context, input RevokeInput) (Record, error) {
	if ctx == nil {
		return Record{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return Record{}, errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return Record{}, errors.New("signoff repository is required")
	}
	if s.uow == nil {
		return Record{}, errors.New("unit of work is required")
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
	reason := strings.TrimSpace(input.Reason)
	revokerID := strings.TrimSpace(input.RevokerID)

	var appended ports.SignoffRecord
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		latest, found, err := s.repo.Latest(txCtx, input.TenantID, input.ProgramID, string(entityType), entityID)
		if err != nil {
			return err
		}

		if err := signoffdomain.ValidateRevocation(reason, signoffdomain.Action(latest.Action), found); err != nil {
			switch {
			case errors.Is(err, signoffdomain.ErrNoSignoffHistory):
				return errs.NotFoundf("no sign-off record found for %s/%s", entityType, entityID)
			case errors.Is(err, signoffdomain.ErrAlreadyRevoked):
				return errs.AsKind(err, errs.KindConflict)
			default:
				return errs.AsKind(err, errs.KindInvalid)
			}
		}

		appended, err = s.repo.Append(txCtx, ports.SignoffRecord{
			TenantID:             input.TenantID,
			ProgramID:            input.ProgramID,
			EntityType:           string(entityType),
			EntityID:             entityID,
			Action:               string(signoffdomain.ActionRevoked),
			ApproverID:           revokerID,
			ApproverNameSnapshot: s.snapshotName(txCtx, revokerID),
			Comment:              reason,
			IsOverride:           false,
			ApproverIP:           strings.TrimSpace(input.Caller.SourceIP),
			CreatedAt:            nowUTCString(),
		})
		return err
	}); err != nil {
		return Record{}, err
	}

	record := mapRecord(appended)
	s.publishBestEffort(ctx, "signoff.revoked", record)
	return record, nil
}
