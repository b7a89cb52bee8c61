package signoff

import (
	"errors"
	"testing"
)

func TestParseEntityType(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"workshop", "functional_spec", "hypercare_exit", "uat"} {
		if _, err := ParseEntityType(raw); err != nil {
			t.Errorf("ParseEntityType(%q) = %v", raw, err)
		}
	}
	if _, err := ParseEntityType("invoice"); !errors.Is(err, ErrInvalidEntityType) {
		t.Fatalf("unknown entity type: err = %v", err)
	}
}

func TestValidateApprovalSelfApprovalGuard(t *testing.T) {
	t.Parallel()

	if err := ValidateApproval("7", "7", false, ""); !errors.Is(err, ErrSelfApproval) {
		t.Fatalf("self-approval must be rejected, got %v", err)
	}
	// The override escape hatch bypasses the guard when justified.
	if err := ValidateApproval("7", "7", true, "sole reviewer available"); err != nil {
		t.Fatalf("override self-approval: %v", err)
	}
	// No requestor known: the guard cannot fire.
	if err := ValidateApproval("7", "", false, ""); err != nil {
		t.Fatalf("approval without requestor: %v", err)
	}
}

func TestValidateApprovalOverrideReason(t *testing.T) {
	t.Parallel()

	if err := ValidateApproval("7", "9", true, "   "); !errors.Is(err, ErrOverrideReasonRequired) {
		t.Fatalf("override without reason must be rejected, got %v", err)
	}
	if err := ValidateApproval("", "9", false, ""); !errors.Is(err, ErrApproverRequired) {
		t.Fatalf("missing approver must be rejected, got %v", err)
	}
}

func TestValidateRevocation(t *testing.T) {
	t.Parallel()

	if err := ValidateRevocation("", ActionApproved, true); !errors.Is(err, ErrRevokeReasonRequired) {
		t.Fatalf("empty reason: err = %v", err)
	}
	if err := ValidateRevocation("scope changed", "", false); !errors.Is(err, ErrNoSignoffHistory) {
		t.Fatalf("no history: err = %v", err)
	}
	if err := ValidateRevocation("scope changed", ActionRevoked, true); !errors.Is(err, ErrAlreadyRevoked) {
		t.Fatalf("double revoke: err = %v", err)
	}
	if err := ValidateRevocation("scope changed", ActionApproved, true); err != nil {
		t.Fatalf("valid revoke: %v", err)
	}
	if err := ValidateRevocation("scope changed", ActionOverrideApproved, true); err != nil {
		t.Fatalf("revoke after override approval: %v", err)
	}
}

func TestLatestByEntityOrdering(t *testing.T) {
	t.Parallel()

	entries := []Entry{
		{ID: 1, EntityType: EntityWorkshop, EntityID: "42", Action: ActionApproved, CreatedAt: "2026-01-01T10:00:00Z"},
		{ID: 2, EntityType: EntityWorkshop, EntityID: "42", Action: ActionRevoked, CreatedAt: "2026-01-02T10:00:00Z"},
		{ID: 3, EntityType: EntityWorkshop, EntityID: "42", Action: ActionApproved, CreatedAt: "2026-01-03T10:00:00Z"},
	}

	latest := LatestByEntity(entries)
	got := latest[EntityKey{EntityType: EntityWorkshop, EntityID: "42"}]
	if got.Action != ActionApproved || got.ID != 3 {
		t.Fatalf("latest = %+v, want record 3 approved", got)
	}

	// Same instant: id breaks the tie.
	tied := LatestByEntity([]Entry{
		{ID: 10, EntityType: EntityUAT, EntityID: "u1", Action: ActionApproved, CreatedAt: "2026-01-01T10:00:00Z"},
		{ID: 11, EntityType: EntityUAT, EntityID: "u1", Action: ActionRevoked, CreatedAt: "2026-01-01T10:00:00Z"},
	})
	if tied[EntityKey{EntityType: EntityUAT, EntityID: "u1"}].Action != ActionRevoked {
		t.Fatal("id tie-break must pick the higher id")
	}
}

func TestPendingExcludesApprovedAndNeverStarted(t *testing.T) {
	t.Parallel()

	latest := LatestByEntity([]Entry{
		{ID: 1, EntityType: EntityWorkshop, EntityID: "a", Action: ActionApproved, CreatedAt: "2026-01-01T00:00:00Z"},
		{ID: 2, EntityType: EntityWorkshop, EntityID: "b", Action: ActionRevoked, CreatedAt: "2026-01-01T00:00:00Z"},
		{ID: 3, EntityType: EntityTestCycle, EntityID: "c", Action: ActionOverrideApproved, CreatedAt: "2026-01-01T00:00:00Z"},
	})

	pending := Pending(latest)
	if len(pending) != 1 {
		t.Fatalf("pending = %+v, want exactly the revoked workshop", pending)
	}
	if pending[0].EntityID != "b" {
		t.Fatalf("pending entity = %q, want b", pending[0].EntityID)
	}
}

func TestSummarizeCountsOverrideAsApproved(t *testing.T) {
	t.Parallel()

	latest := LatestByEntity([]Entry{
		{ID: 1, EntityType: EntityWorkshop, EntityID: "a", Action: ActionApproved, CreatedAt: "2026-01-01T00:00:00Z"},
		{ID: 2, EntityType: EntityWorkshop, EntityID: "b", Action: ActionApproved, CreatedAt: "2026-01-01T00:00:00Z"},
		{ID: 3, EntityType: EntityWorkshop, EntityID: "c", Action: ActionApproved, CreatedAt: "2026-01-01T00:00:00Z"},
		{ID: 4, EntityType: EntityWorkshop, EntityID: "d", Action: ActionRevoked, CreatedAt: "2026-01-01T00:00:00Z"},
		{ID: 5, EntityType: EntityUAT, EntityID: "u", Action: ActionOverrideApproved, CreatedAt: "2026-01-01T00:00:00Z"},
	})

	summary := Summarize(latest)

	workshops := summary[EntityWorkshop]
	if workshops.Total != 4 || workshops.Approved != 3 || workshops.Revoked != 1 || workshops.Override != 0 {
		t.Fatalf("workshop tally = %+v", workshops)
	}

	uat := summary[EntityUAT]
	if uat.Total != 1 || uat.Approved != 1 || uat.Override != 1 {
		t.Fatalf("uat tally = %+v, override must count as approved", uat)
	}
}
