package model

type SignoffRecord struct {
	RecordID             uint64 `gorm:"column:record_id;primaryKey;autoIncrement"`
	TenantID             uint64 `gorm:"column:tenant_id;not null;index:idx_signoffs_scope"`
	ProgramID            uint64 `gorm:"column:program_id;not null;index:idx_signoffs_scope"`
	EntityType           string `gorm:"column:entity_type;type:text;not null;index:idx_signoffs_scope"`
	EntityID             string `gorm:"column:entity_id;type:text;not null;index:idx_signoffs_scope"`
	Action               string `gorm:"column:action;type:text;not null"`
	ApproverID           string `gorm:"column:approver_id;type:text"`
	ApproverNameSnapshot string `gorm:"column:approver_name_snapshot;type:text;not null"`
	Comment              string `gorm:"column:comment;type:text;not null"`
	OverrideReason       string `gorm:"column:override_reason;type:text;not null"`
	IsOverride           bool   `gorm:"column:is_override;not null;default:0"`
	ApproverIP           string `gorm:"column:approver_ip;type:text;not null"`
	CreatedAt            string `gorm:"column:created_at;type:text;not null;index"`
}

func (SignoffRecord) TableName() string {
	return "signoff_records"
}
