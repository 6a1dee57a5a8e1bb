package dto

// ── 选课模块 DTO ──

// AvailableSubjectResponse 可选课程
type AvailableSubjectResponse struct {
	ID             string `json:"id"`
	CourseCode     string `json:"course_code"`
	CourseName     string `json:"course_name"`
	Semester       int    `json:"semester"`
	Credits        int    `json:"credits"`
	CourseType     string `json:"course_type"`
	MaxCapacity    int    `json:"max_capacity"`
	InstructorName string `json:"instructor_name,omitempty"`
	EnrolledCount  int64  `json:"enrolled_count"`
	IsEnrolled     bool   `json:"is_enrolled"`
}

// EnrollmentResponse 选课记录
type EnrollmentResponse struct {
	ID             string `json:"id"`
	SubjectID      string `json:"subject_id"`
	CourseCode     string `json:"course_code"`
	CourseName     string `json:"course_name"`
	Credits        int    `json:"credits"`
	CourseType     string `json:"course_type"`
	InstructorName string `json:"instructor_name,omitempty"`
	Status         string `json:"status"`
	EnrolledAt     string `json:"enrolled_at"`
}

// StudentDashboardResponse 学生首页统计
type StudentDashboardResponse struct {
	EnrolledSubjects int `json:"enrolled_subjects"`
	TotalCredits     int `json:"total_credits"`
	ClassesThisWeek  int `json:"classes_this_week"`
}
