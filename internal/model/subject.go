package model

import "time"

// 课程类型
const (
	CourseTypeTheory       = "Theory"
	CourseTypeLab          = "Lab"
	CourseTypeLabCumTheory = "Lab-cum-Theory"
)

// Subject 课程表 — 对应 subjects
type Subject struct {
	SubjectID      string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"subject_id"`
	CourseCode     string  `gorm:"type:varchar(20);not null"                      json:"course_code"`
	CourseName     string  `gorm:"type:varchar(200);not null"                     json:"course_name"`
	Semester       int     `gorm:"type:smallint;not null"                         json:"semester"`
	Credits        int     `gorm:"type:smallint;not null;default:0"               json:"credits"`
	CourseType     string  `gorm:"type:varchar(20);not null"                      json:"course_type"` // Theory | Lab | Lab-cum-Theory
	MinTheoryHours int     `gorm:"type:smallint;not null;default:0"               json:"min_theory_hours"`
	MinLabHours    int     `gorm:"type:smallint;not null;default:0"               json:"min_lab_hours"`
	MaxCapacity    int     `gorm:"not null;default:0"                             json:"max_capacity"`
	InstructorID   *string `gorm:"type:uuid"                                      json:"instructor_id,omitempty"` // faculty.faculty_id
	Department     string  `gorm:"type:varchar(100);not null;default:''"          json:"department"`
	VersionedModel

	// 关联
	Instructor    *Faculty              `gorm:"foreignKey:InstructorID;references:FacultyID" json:"instructor,omitempty"`
	Prerequisites []SubjectPrerequisite `gorm:"foreignKey:SubjectID"                         json:"prerequisites,omitempty"`
}

func (Subject) TableName() string { return "subjects" }

// SubjectPrerequisite 先修课关系表 — 对应 subject_prerequisites
type SubjectPrerequisite struct {
	SubjectID      string    `gorm:"type:uuid;primaryKey"               json:"subject_id"`
	PrerequisiteID string    `gorm:"type:uuid;primaryKey"               json:"prerequisite_id"`
	CreatedAt      time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (SubjectPrerequisite) TableName() string { return "subject_prerequisites" }
