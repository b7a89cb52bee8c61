package model

type GateCriterion struct {
	CriterionID        uint64 `gorm:"column:criterion_id;primaryKey;autoIncrement"`
	ProgramID          uint64 `gorm:"column:program_id;not null;index:idx_criteria_program_gate"`
	GateType           string `gorm:"column:gate_type;type:text;not null;index:idx_criteria_program_gate"`
	Name               string `gorm:"column:name;type:text;not null"`
	Description        string `gorm:"column:description;type:text;not null"`
	CriteriaType       string `gorm:"column:criteria_type;type:text;not null"`
	Operator           string `gorm:"column:operator;type:text;not null"`
	Threshold          string `gorm:"column:threshold;type:text;not null"`
	SeverityFilterJSON string `gorm:"column:severity_filter_json;type:text;not null"`
	IsBlocking         bool   `gorm:"column:is_blocking;not null;default:0"`
	IsActive           bool   `gorm:"column:is_active;not null;default:1"`
	SortOrder          int    `gorm:"column:sort_order;not null;default:0"`
	CreatedAt          string `gorm:"column:created_at;type:text;not null"`
	UpdatedAt          string `gorm:"column:updated_at;type:text;not null"`
}

func (GateCriterion) TableName() string {
	return "gate_criteria"
}
