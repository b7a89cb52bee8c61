package signoff

import (
	"fmt"
	"strings"
)

// EntityType is the closed set of approvable artifacts. Sign-off records are
// deliberately polymorphic: no foreign key to the artifact, so the trail
// outlives the artifact's own lifecycle.
type EntityType string

const (
	EntityWorkshop           EntityType = "workshop"
	EntityProcessLevel       EntityType = "process_level"
	EntityFunctionalSpec     EntityType = "functional_spec"
	EntityTechnicalSpec      EntityType = "technical_spec"
	EntityTestCycle          EntityType = "test_cycle"
	EntityUAT                EntityType = "uat"
	EntityExploreRequirement EntityType = "explore_requirement"
	EntityBacklogItem        EntityType = "backlog_item"
	EntityHypercareExit      EntityType = "hypercare_exit"
)

var entityTypes = map[EntityType]struct{}{
	EntityWorkshop:           {},
	EntityProcessLevel:       {},
	EntityFunctionalSpec:     {},
	EntityTechnicalSpec:      {},
	EntityTestCycle:          {},
	EntityUAT:                {},
	EntityExploreRequirement: {},
	EntityBacklogItem:        {},
	EntityHypercareExit:      {},
}

func ParseEntityType(raw string) (EntityType, error) {
	et := EntityType(strings.TrimSpace(raw))
	if _, ok := entityTypes[et]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidEntityType, raw)
	}
	return et, nil
}

// Action is what one ledger record asserts about its entity.
type Action string

const (
	ActionApproved         Action = "approved"
	ActionRevoked          Action = "revoked"
	ActionOverrideApproved Action = "override_approved"
)

// Approves reports whether the action leaves the entity in an approved state.
// Override approvals count as approvals everywhere.
func (a Action) Approves() bool {
	return a == ActionApproved || a == ActionOverrideApproved
}

// ValidateApproval enforces the write-side rules for approve requests:
// override requires a justification, and self-approval is rejected unless
// explicitly overridden. The override escape hatch exists for small teams and
// flags itself in the ledger for later review.
func ValidateApproval(approverID string, requestorID string, isOverride bool, overrideReason string) error {
	if strings.TrimSpace(approverID) == "" {
		return ErrApproverRequired
	}
	if isOverride && strings.TrimSpace(overrideReason) == "" {
		return ErrOverrideReasonRequired
	}
	if !isOverride && requestorID != "" && requestorID == approverID {
		return ErrSelfApproval
	}
	return nil
}

// ValidateRevocation enforces the write-side rules for revoke requests given
// the latest recorded action for the entity (empty when no history exists).
func ValidateRevocation(reason string, latest Action, hasHistory bool) error {
	if strings.TrimSpace(reason) == "" {
		return ErrRevokeReasonRequired
	}
	if !hasHistory {
		return ErrNoSignoffHistory
	}
	if latest == ActionRevoked {
		return ErrAlreadyRevoked
	}
	return nil
}
