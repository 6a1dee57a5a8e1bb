package dto

// ── 课程模块 DTO ──

// CreateSubjectRequest 创建课程请求
type CreateSubjectRequest struct {
	CourseCode      string   `json:"course_code"      binding:"required,min=1,max=20"`
	CourseName      string   `json:"course_name"      binding:"required,min=1,max=200"`
	Semester        int      `json:"semester"         binding:"required,min=1,max=8"`
	Credits         int      `json:"credits"          binding:"min=0,max=30"`
	CourseType      string   `json:"course_type"      binding:"required,oneof=Theory Lab Lab-cum-Theory"`
	MinTheoryHours  int      `json:"min_theory_hours" binding:"min=0,max=35"`
	MinLabHours     int      `json:"min_lab_hours"    binding:"min=0,max=35"`
	MaxCapacity     int      `json:"max_capacity"     binding:"min=0,max=10000"`
	InstructorID    *string  `json:"instructor_id"    binding:"omitempty,uuid"`
	Department      string   `json:"department"       binding:"omitempty,max=100"`
	PrerequisiteIDs []string `json:"prerequisite_ids" binding:"omitempty,dive,uuid"`
}

// UpdateSubjectRequest 更新课程请求，Version 用于乐观锁
type UpdateSubjectRequest struct {
	CourseCode      *string   `json:"course_code"      binding:"omitempty,min=1,max=20"`
	CourseName      *string   `json:"course_name"      binding:"omitempty,min=1,max=200"`
	Semester        *int      `json:"semester"         binding:"omitempty,min=1,max=8"`
	Credits         *int      `json:"credits"          binding:"omitempty,min=0,max=30"`
	CourseType      *string   `json:"course_type"      binding:"omitempty,oneof=Theory Lab Lab-cum-Theory"`
	MinTheoryHours  *int      `json:"min_theory_hours" binding:"omitempty,min=0,max=35"`
	MinLabHours     *int      `json:"min_lab_hours"    binding:"omitempty,min=0,max=35"`
	MaxCapacity     *int      `json:"max_capacity"     binding:"omitempty,min=0,max=10000"`
	InstructorID    *string   `json:"instructor_id"    binding:"omitempty"` // 传空串表示取消指定
	Department      *string   `json:"department"       binding:"omitempty,max=100"`
	PrerequisiteIDs *[]string `json:"prerequisite_ids" binding:"omitempty,dive,uuid"`
	Version         int       `json:"version"          binding:"required,min=1"`
}

// SubjectListRequest 课程列表查询参数
type SubjectListRequest struct {
	Semester   int    `form:"semester"   binding:"omitempty,min=1,max=8"`
	Department string `form:"department" binding:"omitempty,max=100"`
}

// SubjectResponse 课程信息响应
type SubjectResponse struct {
	ID              string        `json:"id"`
	CourseCode      string        `json:"course_code"`
	CourseName      string        `json:"course_name"`
	Semester        int           `json:"semester"`
	Credits         int           `json:"credits"`
	CourseType      string        `json:"course_type"`
	MinTheoryHours  int           `json:"min_theory_hours"`
	MinLabHours     int           `json:"min_lab_hours"`
	MaxCapacity     int           `json:"max_capacity"`
	Department      string        `json:"department"`
	Instructor      *FacultyBrief `json:"instructor,omitempty"`
	PrerequisiteIDs []string      `json:"prerequisite_ids"`
	Version         int           `json:"version"`
	CreatedAt       string        `json:"created_at"`
	UpdatedAt       string        `json:"updated_at"`
}

// CourseSummary 课程概览（GET /subjects/summary）
type CourseSummary struct {
	ID           string `json:"id"`
	CourseCode   string `json:"course_code"`
	CourseName   string `json:"course_name"`
	Semester     int    `json:"semester"`
	Credits      int    `json:"credits"`
	CourseType   string `json:"course_type"`
	Instructor   string `json:"instructor_name"`
	WeeklyHours  int    `json:"weekly_hours"`
	EnrolledSize int64  `json:"enrolled_count"`
}
