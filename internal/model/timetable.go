package model

import (
	"time"

	"gorm.io/datatypes"
)

// 课表状态
const (
	TimetableDraft     = "draft"
	TimetablePublished = "published"
	TimetableArchived  = "archived"
)

// UnplacedEntry 未排入的课次
type UnplacedEntry struct {
	SubjectID    string `json:"subject_id"`
	SubjectCode  string `json:"subject_code"`
	SessionIndex int    `json:"session_index"`
	Kind         string `json:"kind"`
	Reason       string `json:"reason"`
}

// GenerationStats 排课运行统计
type GenerationStats struct {
	Sessions        int   `json:"sessions"`
	Placed          int   `json:"placed"`
	Backtracks      int   `json:"backtracks"`
	Nodes           int   `json:"nodes"`
	BudgetExhausted bool  `json:"budget_exhausted"`
	ElapsedMS       int64 `json:"elapsed_ms"`
	Relaxed         bool  `json:"relaxed"`
}

// Timetable 课表表 — 对应 timetables，同一时刻至多一份 published
type Timetable struct {
	TimetableID    string                              `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"timetable_id"`
	Name           string                              `gorm:"type:varchar(100);not null"                     json:"name"`
	AcademicYear   string                              `gorm:"type:varchar(20);not null;default:''"           json:"academic_year"`
	Status         string                              `gorm:"type:varchar(20);not null;default:'draft'"      json:"status"` // draft | published | archived
	CatalogVersion int64                               `gorm:"not null"                                       json:"catalog_version"`
	PublishedAt    *time.Time                          `json:"published_at,omitempty"`
	ArchivedAt     *time.Time                          `json:"archived_at,omitempty"`
	Unplaced       datatypes.JSONType[[]UnplacedEntry] `gorm:"type:jsonb;not null"                            json:"unplaced"`
	Warnings       datatypes.JSONType[[]string]        `gorm:"type:jsonb;not null"                            json:"warnings"`
	Stats          datatypes.JSONType[GenerationStats] `gorm:"type:jsonb;not null"                            json:"stats"`
	BaseModel

	// 关联
	Slots []TimetableSlot `gorm:"foreignKey:TimetableID" json:"slots,omitempty"`
}

func (Timetable) TableName() string { return "timetables" }

// TimetableSlot 课表明细表 — 对应 timetable_slots
type TimetableSlot struct {
	SlotID       string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"slot_id"`
	TimetableID  string    `gorm:"type:uuid;not null"                             json:"timetable_id"`
	SubjectID    string    `gorm:"type:uuid;not null"                             json:"subject_id"`
	RoomID       string    `gorm:"type:uuid;not null"                             json:"room_id"`
	InstructorID string    `gorm:"type:uuid;not null"                             json:"instructor_id"` // faculty.faculty_id
	DayOfWeek    int       `gorm:"type:smallint;not null"                         json:"day_of_week"`   // 1=周一 … 5=周五
	Period       int       `gorm:"type:smallint;not null"                         json:"period"`        // 0..7，4 为午休
	SessionIndex int       `gorm:"type:smallint;not null;default:0"               json:"session_index"`
	SlotType     string    `gorm:"type:varchar(10);not null"                      json:"slot_type"` // theory | lab
	StartTime    string    `gorm:"type:varchar(5);not null"                       json:"start_time"`
	EndTime      string    `gorm:"type:varchar(5);not null"                       json:"end_time"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	// 关联
	Subject    *Subject `gorm:"foreignKey:SubjectID;references:SubjectID"     json:"subject,omitempty"`
	Room       *Room    `gorm:"foreignKey:RoomID;references:RoomID"           json:"room,omitempty"`
	Instructor *Faculty `gorm:"foreignKey:InstructorID;references:FacultyID"  json:"instructor,omitempty"`
}

func (TimetableSlot) TableName() string { return "timetable_slots" }
