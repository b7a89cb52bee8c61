package ports

import "context"

// SignoffRecord is one immutable ledger entry. There is no update or delete
// path; the repository only appends and reads.
type SignoffRecord struct {
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

type SignoffRepository interface {
	Append(ctx context.Context, record SignoffRecord) (SignoffRecord, error)
	// ListByEntity returns the chronological trail for one entity, ordered
	// by (created_at, record_id) ascending.
	ListByEntity(ctx context.Context, tenantID uint64, programID uint64, entityType string, entityID string) ([]SignoffRecord, error)
	// Latest returns the authoritative record for one entity and false when
	// the entity has no history.
	Latest(ctx context.Context, tenantID uint64, programID uint64, entityType string, entityID string) (SignoffRecord, bool, error)
	// ListLatestByProgram returns the latest record per entity across a
	// program, optionally narrowed to one entity type.
	ListLatestByProgram(ctx context.Context, tenantID uint64, programID uint64, entityType string) ([]SignoffRecord, error)
}
