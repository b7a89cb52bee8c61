package signoff

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	signoffdomain "stagegate/internal/domain/signoff"
	"stagegate/internal/errs"
	"stagegate/internal/infrastructure/persistence/sqlite/model"
	sqliterepo "stagegate/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "stagegate/internal/infrastructure/persistence/sqlite/uow"
	"stagegate/internal/ports"
)

func setupService(t *testing.T) (*Service, ports.ActorDirectory) {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "stagegate.sqlite")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&model.SignoffRecord{}, &model.Approver{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	directory := sqliterepo.NewApproverRepository(db)
	svc := NewService(
		sqliterepo.NewSignoffRepository(db),
		sqliteuow.NewUnitOfWork(db),
		directory,
		nil,
	)
	return svc, directory
}

func approveInput(entityID string, approverID string, requestorID string) ApproveInput {
	return ApproveInput{
		TenantID:   1,
		ProgramID:  1,
		EntityType: "workshop",
		EntityID:   entityID,
		ApproverID: approverID,
		Caller:     Caller{RequestorID: requestorID, SourceIP: "10.0.0.7"},
	}
}

func TestApproveAppendsRecord(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	record, err := svc.Approve(ctx, approveInput("ws-1", "alice", "bob"))
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if record.Action != "approved" {
		t.Fatalf("action = %q", record.Action)
	}
	if record.ApproverIP != "10.0.0.7" {
		t.Fatalf("approver ip = %q", record.ApproverIP)
	}

	ok, err := svc.IsApproved(ctx, 1, 1, "workshop", "ws-1")
	if err != nil {
		t.Fatalf("is approved: %v", err)
	}
	if !ok {
		t.Fatal("entity with latest approved must report approved")
	}
}

func TestApproveRejectsSelfApproval(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.Approve(context.Background(), approveInput("ws-1", "alice", "alice"))
	if errs.KindOf(err) != errs.KindUnprocessable {
		t.Fatalf("self approval: err = %v, want unprocessable", err)
	}
}

func TestApproveOverrideRequiresReason(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	input := approveInput("ws-1", "alice", "alice")
	input.IsOverride = true
	if _, err := svc.Approve(ctx, input); errs.KindOf(err) != errs.KindInvalid {
		t.Fatalf("override without reason: err = %v", err)
	}

	input.OverrideReason = "deadline waiver signed by steering committee"
	record, err := svc.Approve(ctx, input)
	if err != nil {
		t.Fatalf("override approve: %v", err)
	}
	if record.Action != "override_approved" || !record.IsOverride {
		t.Fatalf("record = %+v", record)
	}
}

func TestApproveValidation(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	input := approveInput("ws-1", "alice", "bob")
	input.TenantID = 0
	if _, err := svc.Approve(ctx, input); errs.KindOf(err) != errs.KindInvalid {
		t.Fatalf("missing tenant: err = %v", err)
	}

	input = approveInput("ws-1", "alice", "bob")
	input.EntityType = "purchase_order"
	if _, err := svc.Approve(ctx, input); errs.KindOf(err) != errs.KindInvalid {
		t.Fatalf("unknown entity type: err = %v", err)
	}

	input = approveInput("  ", "alice", "bob")
	if _, err := svc.Approve(ctx, input); errs.KindOf(err) != errs.KindInvalid {
		t.Fatalf("blank entity id: err = %v", err)
	}

	input = approveInput("ws-1", "", "bob")
	if _, err := svc.Approve(ctx, input); errs.KindOf(err) != errs.KindInvalid {
		t.Fatalf("blank approver: err = %v", err)
	}
}

func TestNameSnapshotSurvivesDirectoryRemoval(t *testing.T) {
	svc, directory := setupService(t)
	ctx := context.Background()

	if _, err := directory.Register(ctx, ports.Approver{ApproverID: "alice", DisplayName: "Alice Zhang", Email: "alice@example.com"}); err != nil {
		t.Fatalf("register approver: %v", err)
	}

	record, err := svc.Approve(ctx, approveInput("ws-1", "alice", "bob"))
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if record.ApproverNameSnapshot != "Alice Zhang" {
		t.Fatalf("snapshot = %q", record.ApproverNameSnapshot)
	}

	if err := directory.Remove(ctx, "alice"); err != nil {
		t.Fatalf("remove approver: %v", err)
	}

	history, err := svc.GetHistory(ctx, 1, 1, "workshop", "ws-1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if history[0].ApproverNameSnapshot != "Alice Zhang" {
		t.Fatalf("snapshot after removal = %q", history[0].ApproverNameSnapshot)
	}
}

func TestUnknownApproverSnapshotsID(t *testing.T) {
	svc, _ := setupService(t)

	record, err := svc.Approve(context.Background(), approveInput("ws-1", "ghost", "bob"))
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if record.ApproverNameSnapshot != "ghost" {
		t.Fatalf("snapshot = %q, want fallback to id", record.ApproverNameSnapshot)
	}
}

func TestRevokeLifecycle(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	// Revoking an entity with no history is not found.
	_, err := svc.Revoke(ctx, RevokeInput{
		TenantID: 1, ProgramID: 1, EntityType: "workshop", EntityID: "ws-1",
		RevokerID: "carol", Reason: "scope changed",
	})
	if errs.KindOf(err) != errs.KindNotFound {
		t.Fatalf("revoke without history: err = %v", err)
	}

	if _, err := svc.Approve(ctx, approveInput("ws-1", "alice", "bob")); err != nil {
		t.Fatalf("approve: %v", err)
	}

	record, err := svc.Revoke(ctx, RevokeInput{
		TenantID: 1, ProgramID: 1, EntityType: "workshop", EntityID: "ws-1",
		RevokerID: "carol", Reason: "scope changed",
	})
	if err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if record.Action != "revoked" || record.Comment != "scope changed" {
		t.Fatalf("record = %+v", record)
	}

	ok, err := svc.IsApproved(ctx, 1, 1, "workshop", "ws-1")
	if err != nil {
		t.Fatalf("is approved: %v", err)
	}
	if ok {
		t.Fatal("revoked entity must not report approved")
	}

	// A second revocation is a no-op the ledger refuses to record.
	_, err = svc.Revoke(ctx, RevokeInput{
		TenantID: 1, ProgramID: 1, EntityType: "workshop", EntityID: "ws-1",
		RevokerID: "carol", Reason: "still not ready",
	})
	if errs.KindOf(err) != errs.KindConflict {
		t.Fatalf("double revoke: err = %v, want conflict", err)
	}
	if !errors.Is(err, signoffdomain.ErrAlreadyRevoked) {
		t.Fatalf("double revoke must preserve the sentinel: %v", err)
	}

	// Re-approval after revocation appends and flips the state back.
	if _, err := svc.Approve(ctx, approveInput("ws-1", "alice", "bob")); err != nil {
		t.Fatalf("re-approve: %v", err)
	}
	ok, err = svc.IsApproved(ctx, 1, 1, "workshop", "ws-1")
	if err != nil {
		t.Fatalf("is approved: %v", err)
	}
	if !ok {
		t.Fatal("re-approved entity must report approved")
	}

	history, err := svc.GetHistory(ctx, 1, 1, "workshop", "ws-1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("history rows = %d, want 3 (approve, revoke, approve)", len(history))
	}
}

func TestRevokeRequiresReason(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	if _, err := svc.Approve(ctx, approveInput("ws-1", "alice", "bob")); err != nil {
		t.Fatalf("approve: %v", err)
	}

	_, err := svc.Revoke(ctx, RevokeInput{
		TenantID: 1, ProgramID: 1, EntityType: "workshop", EntityID: "ws-1",
		RevokerID: "carol", Reason: "  ",
	})
	if errs.KindOf(err) != errs.KindInvalid {
		t.Fatalf("blank reason: err = %v", err)
	}
}

func TestPendingSkipsApprovedAndUntouched(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	if _, err := svc.Approve(ctx, approveInput("ws-1", "alice", "bob")); err != nil {
		t.Fatalf("approve ws-1: %v", err)
	}
	if _, err := svc.Approve(ctx, approveInput("ws-2", "alice", "bob")); err != nil {
		t.Fatalf("approve ws-2: %v", err)
	}
	if _, err := svc.Revoke(ctx, RevokeInput{
		TenantID: 1, ProgramID: 1, EntityType: "workshop", EntityID: "ws-2",
		RevokerID: "carol", Reason: "rework needed",
	}); err != nil {
		t.Fatalf("revoke ws-2: %v", err)
	}

	pending, err := svc.GetPending(ctx, 1, 1, "")
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending = %d items, want only the revoked entity", len(pending))
	}
	if pending[0].EntityID != "ws-2" || pending[0].LastAction != "revoked" {
		t.Fatalf("pending[0] = %+v", pending[0])
	}

	// Filter by type; untouched types are simply empty.
	pending, err = svc.GetPending(ctx, 1, 1, "uat")
	if err != nil {
		t.Fatalf("pending uat: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("pending uat = %d items, want 0", len(pending))
	}

	if _, err := svc.GetPending(ctx, 1, 1, "purchase_order"); errs.KindOf(err) != errs.KindInvalid {
		t.Fatal("unknown type filter must be rejected")
	}
}

func TestSummaryCountsLatestStatePerType(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	// Four workshops: two approved, one override approved, one revoked.
	for _, id := range []string{"ws-1", "ws-2"} {
		if _, err := svc.Approve(ctx, approveInput(id, "alice", "bob")); err != nil {
			t.Fatalf("approve %s: %v", id, err)
		}
	}
	override := approveInput("ws-3", "dan", "dan")
	override.IsOverride = true
	override.OverrideReason = "blocker accepted by sponsor"
	if _, err := svc.Approve(ctx, override); err != nil {
		t.Fatalf("override approve ws-3: %v", err)
	}
	if _, err := svc.Approve(ctx, approveInput("ws-4", "alice", "bob")); err != nil {
		t.Fatalf("approve ws-4: %v", err)
	}
	if _, err := svc.Revoke(ctx, RevokeInput{
		TenantID: 1, ProgramID: 1, EntityType: "workshop", EntityID: "ws-4",
		RevokerID: "carol", Reason: "follow-up actions open",
	}); err != nil {
		t.Fatalf("revoke ws-4: %v", err)
	}

	uat := approveInput("uat-1", "alice", "bob")
	uat.EntityType = "uat"
	if _, err := svc.Approve(ctx, uat); err != nil {
		t.Fatalf("approve uat-1: %v", err)
	}

	summary, err := svc.GetSummary(ctx, 1, 1)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}

	workshops := summary["workshop"]
	if workshops.Total != 4 || workshops.Approved != 3 || workshops.Revoked != 1 || workshops.Override != 1 {
		t.Fatalf("workshop summary = %+v", workshops)
	}
	if got := summary["uat"]; got.Total != 1 || got.Approved != 1 {
		t.Fatalf("uat summary = %+v", got)
	}
}

func TestTenantIsolation(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	if _, err := svc.Approve(ctx, approveInput("ws-1", "alice", "bob")); err != nil {
		t.Fatalf("approve: %v", err)
	}

	ok, err := svc.IsApproved(ctx, 2, 1, "workshop", "ws-1")
	if err != nil {
		t.Fatalf("is approved: %v", err)
	}
	if ok {
		t.Fatal("another tenant must not see the approval")
	}
}
