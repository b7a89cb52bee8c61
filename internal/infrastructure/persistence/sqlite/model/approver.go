package model

type Approver struct {
	ApproverID  string `gorm:"column:approver_id;primaryKey;type:text"`
	DisplayName string `gorm:"column:display_name;type:text;not null"`
	Email       string `gorm:"column:email;type:text;not null"`
	CreatedAt   string `gorm:"column:created_at;type:text;not null"`
}

func (Approver) TableName() string {
	return "approvers"
}
