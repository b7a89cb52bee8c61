package signoff

import "errors"

var (
	ErrInvalidEntityType      = errors.New("invalid sign-off entity type")
	ErrTenantRequired         = errors.New("tenant id is required")
	ErrEntityIDRequired       = errors.New("entity id is required")
	ErrApproverRequired       = errors.New("approver id is required")
	ErrOverrideReasonRequired = errors.New("override_reason is required when is_override=true")
	ErrSelfApproval           = errors.New("self-approval is not permitted")
	ErrRevokeReasonRequired   = errors.New("revoke reason is required")
	ErrNoSignoffHistory       = errors.New("no sign-off record found")
	ErrAlreadyRevoked         = errors.New("entity is already in revoked state")
)
