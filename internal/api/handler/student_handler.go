package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"timify/backend/internal/service"
	"timify/backend/pkg/response"
)

// StudentHandler 学生端 HTTP 处理器：选课与个人课表
type StudentHandler struct {
	enrollmentSvc service.EnrollmentService
	timetableSvc  service.TimetableService
}

// NewStudentHandler 创建 StudentHandler
func NewStudentHandler(enrollmentSvc service.EnrollmentService, timetableSvc service.TimetableService) *StudentHandler {
	return &StudentHandler{enrollmentSvc: enrollmentSvc, timetableSvc: timetableSvc}
}

// AvailableSubjects 可选课程
// GET /api/v1/student/subjects
func (h *StudentHandler) AvailableSubjects(c *gin.Context) {
	studentID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, err := h.enrollmentSvc.AvailableSubjects(c.Request.Context(), studentID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// Enroll 选课
// POST /api/v1/student/subjects/:id/enroll
func (h *StudentHandler) Enroll(c *gin.Context) {
	studentID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.enrollmentSvc.Enroll(c.Request.Context(), studentID, c.Param("id"))
	if err != nil {
		h.handleEnrollmentError(c, err)
		return
	}

	response.Created(c, result)
}

// Drop 退课
// DELETE /api/v1/student/subjects/:id/enroll
func (h *StudentHandler) Drop(c *gin.Context) {
	studentID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.enrollmentSvc.Drop(c.Request.Context(), studentID, c.Param("id")); err != nil {
		h.handleEnrollmentError(c, err)
		return
	}

	response.OK(c, nil)
}

// MySubjects 已选课程
// GET /api/v1/student/enrollments
func (h *StudentHandler) MySubjects(c *gin.Context) {
	studentID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, err := h.enrollmentSvc.MySubjects(c.Request.Context(), studentID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// Timetable 个人课表：仅包含已选课程在当前已发布课表中的排课
// GET /api/v1/student/timetable
func (h *StudentHandler) Timetable(c *gin.Context) {
	studentID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	grid, err := h.timetableSvc.StudentView(c.Request.Context(), studentID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, grid)
}

// Dashboard 学生首页统计
// GET /api/v1/student/dashboard
func (h *StudentHandler) Dashboard(c *gin.Context) {
	studentID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.enrollmentSvc.Dashboard(c.Request.Context(), studentID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

func (h *StudentHandler) handleEnrollmentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSubjectNotFound):
		response.NotFound(c, 22001, "课程不存在")
	case errors.Is(err, service.ErrAlreadyEnrolled):
		response.Conflict(c, 25001, "已选修该课程")
	case errors.Is(err, service.ErrSubjectFull):
		response.BadRequest(c, 25002, "课程人数已满")
	case errors.Is(err, service.ErrCreditLimitExceeded):
		response.BadRequest(c, 25003, "超出本学期学分上限")
	case errors.Is(err, service.ErrEnrollmentNotFound):
		response.NotFound(c, 25004, "选课记录不存在")
	default:
		handleCommonError(c, err)
	}
}
