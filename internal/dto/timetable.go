package dto

// ── 课表模块 DTO ──

// GenerateTimetableRequest 生成课表请求
type GenerateTimetableRequest struct {
	Name         string `json:"name"          binding:"omitempty,max=100"`
	AcademicYear string `json:"academic_year" binding:"omitempty,max=20"`
	// Publish 为 true 时生成后直接发布，否则保存为草稿
	Publish bool `json:"publish"`
	// RelaxSessionCount 每门课只排一次，仅在显式开启时生效
	RelaxSessionCount bool   `json:"relax_session_count"`
	AllowSameDay      *bool  `json:"allow_same_day"`
	Seed              *int64 `json:"seed"`
}

// TimetableListRequest 课表列表查询参数
type TimetableListRequest struct {
	PaginationRequest
	Status string `form:"status" binding:"omitempty,oneof=draft published archived"`
}

// UnplacedResponse 未排入的课次
type UnplacedResponse struct {
	SubjectID    string `json:"subject_id"`
	SubjectCode  string `json:"subject_code"`
	SessionIndex int    `json:"session_index"`
	Kind         string `json:"kind"`
	Reason       string `json:"reason"`
}

// GenerationStatsResponse 排课运行统计
type GenerationStatsResponse struct {
	Sessions        int   `json:"sessions"`
	Placed          int   `json:"placed"`
	Backtracks      int   `json:"backtracks"`
	Nodes           int   `json:"nodes"`
	BudgetExhausted bool  `json:"budget_exhausted"`
	ElapsedMS       int64 `json:"elapsed_ms"`
	Relaxed         bool  `json:"relaxed"`
}

// TimetableResponse 课表摘要
type TimetableResponse struct {
	ID             string                  `json:"id"`
	Name           string                  `json:"name"`
	AcademicYear   string                  `json:"academic_year"`
	Status         string                  `json:"status"`
	CatalogVersion int64                   `json:"catalog_version"`
	SlotCount      int                     `json:"slot_count"`
	Unplaced       []UnplacedResponse      `json:"unplaced"`
	Warnings       []string                `json:"warnings"`
	Stats          GenerationStatsResponse `json:"stats"`
	PublishedAt    *string                 `json:"published_at,omitempty"`
	ArchivedAt     *string                 `json:"archived_at,omitempty"`
	CreatedAt      string                  `json:"created_at"`
}

// GenerateTimetableResponse 生成结果
type GenerateTimetableResponse struct {
	Timetable TimetableResponse `json:"timetable"`
	Outcome   string            `json:"outcome"` // complete | partial_with_unplaced
}

// ── 课表视图 ──

// SlotEntry 网格中的一条排课
type SlotEntry struct {
	SubjectID      string `json:"subject_id"`
	CourseCode     string `json:"course_code"`
	CourseName     string `json:"course_name"`
	SessionIndex   int    `json:"session_index"`
	SlotType       string `json:"slot_type"`
	RoomID         string `json:"room_id"`
	RoomCode       string `json:"room_code"`
	Building       string `json:"building,omitempty"`
	FacultyID      string `json:"faculty_id"`
	InstructorName string `json:"instructor_name"`
	DayOfWeek      int    `json:"day_of_week"` // 1=周一 … 5=周五
	Period         int    `json:"period"`
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
}

// GridColumn 网格列头（已去掉午休）
type GridColumn struct {
	Period int    `json:"period"`
	Label  string `json:"label"`
}

// TimetableGridResponse 5 × 7 课表网格
type TimetableGridResponse struct {
	TimetableID string          `json:"timetable_id,omitempty"`
	View        string          `json:"view"`
	Days        []string        `json:"days"`
	Columns     []GridColumn    `json:"columns"`
	Cells       [][][]SlotEntry `json:"cells"` // [day][column][]entry
	Entries     []SlotEntry     `json:"entries"`
}

// AdminDashboardResponse 管理端首页统计
type AdminDashboardResponse struct {
	Rooms                int64            `json:"rooms"`
	Subjects             int64            `json:"subjects"`
	Faculty              int64            `json:"faculty"`
	Students             int64            `json:"students"`
	Timetables           map[string]int64 `json:"timetables"`
	PublishedTimetableID string           `json:"published_timetable_id,omitempty"`
	CatalogVersion       int64            `json:"catalog_version"`
}

// StaffDashboardResponse 教师首页统计
type StaffDashboardResponse struct {
	SubjectsAssigned int   `json:"subjects_assigned"`
	ClassesPerWeek   int   `json:"classes_per_week"`
	TotalStudents    int64 `json:"total_students"`
}

// StaffSubjectResponse 教师任课课程
type StaffSubjectResponse struct {
	ID               string `json:"id"`
	CourseCode       string `json:"course_code"`
	CourseName       string `json:"course_name"`
	Semester         int    `json:"semester"`
	Credits          int    `json:"credits"`
	CourseType       string `json:"course_type"`
	MinTheoryHours   int    `json:"min_theory_hours"`
	MinLabHours      int    `json:"min_lab_hours"`
	MaxCapacity      int    `json:"max_capacity"`
	EnrolledStudents int64  `json:"enrolled_students"`
	ScheduledPeriods int    `json:"scheduled_periods"`
}
