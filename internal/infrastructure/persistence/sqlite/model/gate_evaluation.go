package model

type GateEvaluation struct {
	EvaluationID uint64 `gorm:"column:evaluation_id;primaryKey;autoIncrement"`
	CriterionID  uint64 `gorm:"column:criterion_id;not null;index"`
	RunID        string `gorm:"column:run_id;type:text;not null;index"`
	EntityType   string `gorm:"column:entity_type;type:text;not null;index:idx_evaluations_entity"`
	EntityID     string `gorm:"column:entity_id;type:text;not null;index:idx_evaluations_entity"`
	ActualValue  string `gorm:"column:actual_value;type:text;not null"`
	IsPassed     bool   `gorm:"column:is_passed;not null"`
	EvaluatedAt  string `gorm:"column:evaluated_at;type:text;not null"`
	EvaluatedBy  string `gorm:"column:evaluated_by;type:text;not null"`
	Notes        string `gorm:"column:notes;type:text;not null"`
}

func (GateEvaluation) TableName() string {
	return "gate_evaluations"
}
