package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"timify/backend/internal/dto"
	"timify/backend/internal/scheduler"
	"timify/backend/internal/service"
	"timify/backend/pkg/response"
)

// TimetableHandler 课表模块 Handler：生成、发布与各类视图
type TimetableHandler struct {
	svc service.TimetableService
}

// NewTimetableHandler 创建 TimetableHandler 实例
func NewTimetableHandler(svc service.TimetableService) *TimetableHandler {
	return &TimetableHandler{svc: svc}
}

// Generate 基于当前基础数据生成课表
// POST /api/v1/timetables/generate
//
// 结果含未排入课次时仍返回 200，outcome=partial_with_unplaced。
func (h *TimetableHandler) Generate(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.GenerateTimetableRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, 10001, "参数校验失败")
			return
		}
	}

	result, err := h.svc.Generate(c.Request.Context(), &req, callerID)
	if err != nil {
		handleTimetableError(c, err)
		return
	}

	response.Created(c, result)
}

// Publish 发布草稿课表
// POST /api/v1/timetables/:id/publish
func (h *TimetableHandler) Publish(c *gin.Context) {
	t, err := h.svc.Publish(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleTimetableError(c, err)
		return
	}

	response.OK(c, t)
}

// List 课表列表
// GET /api/v1/timetables
func (h *TimetableHandler) List(c *gin.Context) {
	var req dto.TimetableListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.svc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// Get 课表摘要
// GET /api/v1/timetables/:id
func (h *TimetableHandler) Get(c *gin.Context) {
	t, err := h.svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleTimetableError(c, err)
		return
	}

	response.OK(c, t)
}

// Delete 删除草稿或已归档课表
// DELETE /api/v1/timetables/:id
func (h *TimetableHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		handleTimetableError(c, err)
		return
	}

	response.OK(c, nil)
}

// Reset 清空全部课表
// POST /api/v1/timetables/reset
func (h *TimetableHandler) Reset(c *gin.Context) {
	n, err := h.svc.Reset(c.Request.Context())
	if err != nil {
		handleTimetableError(c, err)
		return
	}

	response.OK(c, gin.H{"deleted": n})
}

// ── 视图 ──

// Master 主课表网格；?timetable_id= 为空时取当前已发布课表
// GET /api/v1/timetables/master
func (h *TimetableHandler) Master(c *gin.Context) {
	grid, err := h.svc.MasterView(c.Request.Context(), c.Query("timetable_id"))
	if err != nil {
		handleTimetableError(c, err)
		return
	}

	response.OK(c, grid)
}

// Faculty 指定教师的课表
// GET /api/v1/timetables/faculty/:id
func (h *TimetableHandler) Faculty(c *gin.Context) {
	grid, err := h.svc.FacultyView(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleTimetableError(c, err)
		return
	}

	response.OK(c, grid)
}

// Room 指定教室的课表
// GET /api/v1/timetables/room/:id
func (h *TimetableHandler) Room(c *gin.Context) {
	grid, err := h.svc.RoomView(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleTimetableError(c, err)
		return
	}

	response.OK(c, grid)
}

// AdminDashboard 管理端首页统计
// GET /api/v1/admin/dashboard
func (h *TimetableHandler) AdminDashboard(c *gin.Context) {
	result, err := h.svc.AdminDashboard(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

func handleTimetableError(c *gin.Context, err error) {
	var persistErr *service.PersistenceError
	switch {
	case errors.Is(err, service.ErrTimetableNotFound):
		response.NotFound(c, 26001, "课表不存在")
	case errors.Is(err, service.ErrNoPublishedTimetable):
		response.NotFound(c, 26002, "暂无已发布的课表")
	case errors.Is(err, service.ErrTimetableNotDraft):
		response.BadRequest(c, 26003, "只有草稿状态的课表可以发布")
	case errors.Is(err, service.ErrTimetablePublished):
		response.BadRequest(c, 26004, "已发布的课表不能删除")
	case errors.Is(err, service.ErrGenerationInProgress):
		response.Conflict(c, 26005, "已有排课任务在运行，请稍后再试")
	case errors.Is(err, scheduler.ErrInvalidCatalog):
		response.ErrorWithDetails(c, http.StatusUnprocessableEntity, 26006, "基础数据校验失败", err.Error())
	case errors.As(err, &persistErr):
		response.ErrorWithDetails(c, http.StatusInternalServerError, 26007, "课表保存失败，已回滚", persistErr.Op)
	default:
		handleCommonError(c, err)
	}
}
