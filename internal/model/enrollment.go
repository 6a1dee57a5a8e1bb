package model

import "time"

// 选课状态
const (
	EnrollmentEnrolled = "enrolled"
	EnrollmentDropped  = "dropped"
)

// StudentEnrollment 学生选课表 — 对应 student_enrollments，(student_id, subject_id) 唯一
type StudentEnrollment struct {
	EnrollmentID string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"enrollment_id"`
	StudentID    string     `gorm:"type:uuid;not null"                             json:"student_id"`
	SubjectID    string     `gorm:"type:uuid;not null"                             json:"subject_id"`
	Status       string     `gorm:"type:varchar(20);not null;default:'enrolled'"   json:"status"` // enrolled | dropped
	EnrolledAt   time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"enrolled_at"`
	DroppedAt    *time.Time `json:"dropped_at,omitempty"`
	BaseModel

	// 关联
	Subject *Subject `gorm:"foreignKey:SubjectID;references:SubjectID" json:"subject,omitempty"`
}

func (StudentEnrollment) TableName() string { return "student_enrollments" }
