package dto

// ── 教师模块 DTO ──

// DayAvailability 某天工作时段
type DayAvailability struct {
	Start     string `json:"start"     binding:"required,len=5"`
	End       string `json:"end"       binding:"required,len=5"`
	Available bool   `json:"available"`
}

// CreateFacultyRequest 创建教师请求，同时创建 staff 登录账号
type CreateFacultyRequest struct {
	Username        string                     `json:"username"           binding:"required,min=3,max=50"`
	Name            string                     `json:"name"               binding:"required,min=2,max=100"`
	Email           string                     `json:"email"              binding:"required,email"`
	Phone           string                     `json:"phone"              binding:"omitempty,max=30"`
	Department      string                     `json:"department"         binding:"omitempty,max=100"`
	MaxHoursPerWeek int                        `json:"max_hours_per_week" binding:"omitempty,min=0,max=168"`
	Availability    map[string]DayAvailability `json:"availability"       binding:"omitempty,dive,keys,oneof=monday tuesday wednesday thursday friday,endkeys"`
}

// UpdateFacultyRequest 更新教师请求
type UpdateFacultyRequest struct {
	Name            *string                    `json:"name"               binding:"omitempty,min=2,max=100"`
	Email           *string                    `json:"email"              binding:"omitempty,email"`
	Phone           *string                    `json:"phone"              binding:"omitempty,max=30"`
	Department      *string                    `json:"department"         binding:"omitempty,max=100"`
	MaxHoursPerWeek *int                       `json:"max_hours_per_week" binding:"omitempty,min=0,max=168"`
	Availability    map[string]DayAvailability `json:"availability"       binding:"omitempty,dive,keys,oneof=monday tuesday wednesday thursday friday,endkeys"`
}

// FacultyResponse 教师信息响应
type FacultyResponse struct {
	ID              string                     `json:"id"`
	UserID          string                     `json:"user_id"`
	Username        string                     `json:"username,omitempty"`
	Name            string                     `json:"name"`
	Email           string                     `json:"email"`
	Phone           string                     `json:"phone"`
	Department      string                     `json:"department"`
	MaxHoursPerWeek int                        `json:"max_hours_per_week"`
	Availability    map[string]DayAvailability `json:"availability"`
	CreatedAt       string                     `json:"created_at"`
	UpdatedAt       string                     `json:"updated_at"`
}

// CreateFacultyResponse 创建教师响应，临时密码仅返回一次
type CreateFacultyResponse struct {
	Faculty      *FacultyResponse `json:"faculty"`
	TempPassword string           `json:"temp_password"`
}

// FacultyBrief 教师简要信息
type FacultyBrief struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Department string `json:"department,omitempty"`
}
