package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"stagegate/internal/infrastructure/persistence/sqlite/model"
	"stagegate/internal/ports"
)

func setupSignoffRepository(t *testing.T) *SignoffRepository {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "stagegate.sqlite")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	if err := db.AutoMigrate(&model.SignoffRecord{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return NewSignoffRepository(db)
}

func appendRecord(t *testing.T, repo *SignoffRepository, entityType string, entityID string, action string) ports.SignoffRecord {
	t.Helper()

	record, err := repo.Append(context.Background(), ports.SignoffRecord{
		TenantID:             1,
		ProgramID:            1,
		EntityType:           entityType,
		EntityID:             entityID,
		Action:               action,
		ApproverID:           "7",
		ApproverNameSnapshot: "Alex Kim",
		ApproverIP:           "10.0.0.1",
		CreatedAt:            time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		t.Fatalf("append %s/%s %s: %v", entityType, entityID, action, err)
	}
	return record
}

func TestLatestFollowsAppendOrder(t *testing.T) {
	repo := setupSignoffRepository(t)
	ctx := context.Background()

	appendRecord(t, repo, "workshop", "42", "approved")
	appendRecord(t, repo, "workshop", "42", "revoked")
	appendRecord(t, repo, "workshop", "42", "approved")

	latest, found, err := repo.Latest(ctx, 1, 1, "workshop", "42")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if !found {
		t.Fatal("found = false, want true")
	}
	if latest.Action != "approved" {
		t.Fatalf("latest action = %q, want approved", latest.Action)
	}

	history, err := repo.ListByEntity(ctx, 1, 1, "workshop", "42")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("history rows = %d, want 3 (append-only)", len(history))
	}
	for i := 1; i < len(history); i++ {
		if history[i].RecordID <= history[i-1].RecordID {
			t.Fatalf("history not ascending: %d then %d", history[i-1].RecordID, history[i].RecordID)
		}
	}
}

func TestLatestNoHistory(t *testing.T) {
	repo := setupSignoffRepository(t)

	_, found, err := repo.Latest(context.Background(), 1, 1, "workshop", "nope")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if found {
		t.Fatal("found = true for entity with no records")
	}
}

func TestLatestIsTenantScoped(t *testing.T) {
	repo := setupSignoffRepository(t)
	ctx := context.Background()

	record := ports.SignoffRecord{
		TenantID:             2,
		ProgramID:            1,
		EntityType:           "workshop",
		EntityID:             "42",
		Action:               "approved",
		ApproverNameSnapshot: "Other Tenant",
		CreatedAt:            time.Now().UTC().Format(time.RFC3339Nano),
	}
	if _, err := repo.Append(ctx, record); err != nil {
		t.Fatalf("append: %v", err)
	}

	_, found, err := repo.Latest(ctx, 1, 1, "workshop", "42")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if found {
		t.Fatal("tenant 1 must not see tenant 2 records")
	}
}

func TestListLatestByProgram(t *testing.T) {
	repo := setupSignoffRepository(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		appendRecord(t, repo, "workshop", fmt.Sprintf("w%d", i), "approved")
	}
	appendRecord(t, repo, "workshop", "w3", "approved")
	appendRecord(t, repo, "workshop", "w3", "revoked")
	appendRecord(t, repo, "uat", "u1", "override_approved")

	latest, err := repo.ListLatestByProgram(ctx, 1, 1, "")
	if err != nil {
		t.Fatalf("list latest: %v", err)
	}
	if len(latest) != 5 {
		t.Fatalf("latest rows = %d, want 5 distinct entities", len(latest))
	}

	var revoked int
	for _, record := range latest {
		if record.EntityID == "w3" {
			if record.Action != "revoked" {
				t.Fatalf("w3 latest = %q, want revoked", record.Action)
			}
			revoked++
		}
	}
	if revoked != 1 {
		t.Fatalf("w3 appears %d times in latest set, want 1", revoked)
	}

	workshopsOnly, err := repo.ListLatestByProgram(ctx, 1, 1, "workshop")
	if err != nil {
		t.Fatalf("list latest workshops: %v", err)
	}
	if len(workshopsOnly) != 4 {
		t.Fatalf("workshop latest rows = %d, want 4", len(workshopsOnly))
	}
}
