package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"timify/backend/internal/dto"
	"timify/backend/internal/service"
	"timify/backend/pkg/response"
)

// FacultyHandler 教师模块 HTTP 处理器
type FacultyHandler struct {
	facultySvc service.FacultyService
}

// NewFacultyHandler 创建 FacultyHandler
func NewFacultyHandler(facultySvc service.FacultyService) *FacultyHandler {
	return &FacultyHandler{facultySvc: facultySvc}
}

// List 教师列表
// GET /api/v1/faculty
func (h *FacultyHandler) List(c *gin.Context) {
	list, err := h.facultySvc.List(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// Create 新建教师及其登录账号，响应中返回一次性临时密码
// POST /api/v1/faculty
func (h *FacultyHandler) Create(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateFacultyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.facultySvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleFacultyError(c, err)
		return
	}

	response.Created(c, result)
}

// Get 教师详情
// GET /api/v1/faculty/:id
func (h *FacultyHandler) Get(c *gin.Context) {
	f, err := h.facultySvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleFacultyError(c, err)
		return
	}

	response.OK(c, f)
}

// Update 更新教师档案
// PUT /api/v1/faculty/:id
func (h *FacultyHandler) Update(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateFacultyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	f, err := h.facultySvc.Update(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleFacultyError(c, err)
		return
	}

	response.OK(c, f)
}

// Delete 删除教师
// DELETE /api/v1/faculty/:id
func (h *FacultyHandler) Delete(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.facultySvc.Delete(c.Request.Context(), c.Param("id"), callerID); err != nil {
		h.handleFacultyError(c, err)
		return
	}

	response.OK(c, nil)
}

func (h *FacultyHandler) handleFacultyError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrFacultyNotFound):
		response.NotFound(c, 23001, "教师不存在")
	case errors.Is(err, service.ErrInvalidAvailability):
		response.BadRequest(c, 23002, "可用时间设置无效")
	case errors.Is(err, service.ErrUsernameExists):
		response.Conflict(c, 23003, "用户名已存在")
	default:
		handleCommonError(c, err)
	}
}
