package model

import "time"

// CreditLimit 学期学分上限表 — 对应 credit_limits
type CreditLimit struct {
	SemesterNumber int       `gorm:"type:smallint;primaryKey"          json:"semester_number"`
	MaxCredits     int       `gorm:"type:smallint;not null"            json:"max_credits"`
	UpdatedAt      time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	UpdatedBy      *string   `gorm:"type:uuid"                         json:"updated_by,omitempty"`
}

func (CreditLimit) TableName() string { return "credit_limits" }
