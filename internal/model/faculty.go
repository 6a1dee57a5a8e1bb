package model

import "gorm.io/datatypes"

// DayAvailability 某天的工作时段，时间格式 HH:MM
type DayAvailability struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	Available bool   `json:"available"`
}

// WeeklyAvailability 以小写英文星期为键，如 "monday"
type WeeklyAvailability map[string]DayAvailability

// DefaultAvailability 周一至周五 09:00-17:00
func DefaultAvailability() WeeklyAvailability {
	w := make(WeeklyAvailability, 5)
	for _, day := range []string{"monday", "tuesday", "wednesday", "thursday", "friday"} {
		w[day] = DayAvailability{Start: "09:00", End: "17:00", Available: true}
	}
	return w
}

// Faculty 教师表 — 对应 faculty，与一个 staff 账号一一对应
type Faculty struct {
	FacultyID       string                                 `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"faculty_id"`
	UserID          string                                 `gorm:"type:uuid;not null"                             json:"user_id"`
	Name            string                                 `gorm:"type:varchar(100);not null"                     json:"name"`
	Email           string                                 `gorm:"type:varchar(255);not null"                     json:"email"`
	Phone           string                                 `gorm:"type:varchar(30);not null;default:''"           json:"phone"`
	Department      string                                 `gorm:"type:varchar(100);not null;default:''"          json:"department"`
	MaxHoursPerWeek int                                    `gorm:"type:smallint;not null;default:40"              json:"max_hours_per_week"`
	Availability    datatypes.JSONType[WeeklyAvailability] `gorm:"type:jsonb;not null"                            json:"availability"`
	SoftDeleteModel

	// 关联
	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

func (Faculty) TableName() string { return "faculty" }
