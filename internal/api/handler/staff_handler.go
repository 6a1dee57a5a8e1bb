package handler

import (
	"github.com/gin-gonic/gin"

	"timify/backend/internal/service"
	"timify/backend/pkg/response"
)

// StaffHandler 教师端 HTTP 处理器
type StaffHandler struct {
	timetableSvc service.TimetableService
}

// NewStaffHandler 创建 StaffHandler
func NewStaffHandler(timetableSvc service.TimetableService) *StaffHandler {
	return &StaffHandler{timetableSvc: timetableSvc}
}

// Schedule 我的授课课表
// GET /api/v1/staff/schedule
func (h *StaffHandler) Schedule(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	grid, err := h.timetableSvc.StaffView(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, grid)
}

// Subjects 我任教的课程
// GET /api/v1/staff/subjects
func (h *StaffHandler) Subjects(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, err := h.timetableSvc.StaffSubjects(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// RoomSchedule 全部教室占用情况
// GET /api/v1/staff/room-schedule
func (h *StaffHandler) RoomSchedule(c *gin.Context) {
	list, err := h.timetableSvc.RoomSchedule(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// Dashboard 教师首页统计
// GET /api/v1/staff/dashboard
func (h *StaffHandler) Dashboard(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.timetableSvc.StaffDashboard(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}
