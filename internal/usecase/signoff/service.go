package signoff

import (
	"time"

	"stagegate/internal/ports"
)

// Service implements the append-only sign-off ledger: approvals, revocations,
// and the derived current-state reads.
type Service struct {
	repo      ports.SignoffRepository
	uow       ports.UnitOfWork
	directory ports.ActorDirectory
	publisher ports.EventPublisher
}

func NewService(repo ports.SignoffRepository, uow ports.UnitOfWork, directory ports.ActorDirectory, publisher ports.EventPublisher) *Service {
	return &Service{
		repo:      repo,
		uow:       uow,
		directory: directory,
		publisher: publisher,
	}
}

// Caller is the request-boundary identity passed into every write. The
// engine never touches transport state itself.
type Caller struct {
	RequestorID string
	SourceIP    string
}

type ApproveInput struct {
	TenantID       uint64
	ProgramID      uint64
	EntityType     string
	EntityID       string
	ApproverID     string
	Comment        string
	IsOverride     bool
	OverrideReason string
	Caller         Caller
}

type RevokeInput struct {
	TenantID   uint64
	ProgramID  uint64
	EntityType string
	EntityID   string
	RevokerID  string
	Reason     string
	Caller     Caller
}

type Record struct {
	RecordID             uint64
	TenantID             uint64
	ProgramID            uint64
	EntityType           string
	EntityID             string
	Action               string
	ApproverID           string
	ApproverNameSnapshot string
	Comment              string
	OverrideReason       string
	IsOverride           bool
	ApproverIP           string
	CreatedAt            string
}

type PendingItem struct {
	EntityType            string
	EntityID              string
	LastAction            string
	LastActor             string
	LastActorNameSnapshot string
	LastChangedAt         string
}

type TypeSummary struct {
	Total    int
	Approved int
	Revoked  int
	Override int
}

func nowUTCString() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
