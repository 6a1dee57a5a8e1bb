package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"timify/backend/internal/dto"
	"timify/backend/internal/service"
	"timify/backend/pkg/response"
)

// SubjectHandler 课程模块 HTTP 处理器
type SubjectHandler struct {
	subjectSvc service.SubjectService
}

// NewSubjectHandler 创建 SubjectHandler
func NewSubjectHandler(subjectSvc service.SubjectService) *SubjectHandler {
	return &SubjectHandler{subjectSvc: subjectSvc}
}

// List 课程列表，可按学期/院系过滤
// GET /api/v1/subjects
func (h *SubjectHandler) List(c *gin.Context) {
	var req dto.SubjectListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	subjects, err := h.subjectSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": subjects})
}

// Summary 课程概览
// GET /api/v1/subjects/summary
func (h *SubjectHandler) Summary(c *gin.Context) {
	list, err := h.subjectSvc.Summary(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// Create 新建课程
// POST /api/v1/subjects
func (h *SubjectHandler) Create(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	subject, err := h.subjectSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleSubjectError(c, err)
		return
	}

	response.Created(c, subject)
}

// Get 课程详情
// GET /api/v1/subjects/:id
func (h *SubjectHandler) Get(c *gin.Context) {
	subject, err := h.subjectSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleSubjectError(c, err)
		return
	}

	response.OK(c, subject)
}

// Update 更新课程（携带 version 做乐观锁）
// PUT /api/v1/subjects/:id
func (h *SubjectHandler) Update(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	subject, err := h.subjectSvc.Update(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleSubjectError(c, err)
		return
	}

	response.OK(c, subject)
}

// Delete 删除课程
// DELETE /api/v1/subjects/:id
func (h *SubjectHandler) Delete(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.subjectSvc.Delete(c.Request.Context(), c.Param("id"), callerID); err != nil {
		h.handleSubjectError(c, err)
		return
	}

	response.OK(c, nil)
}

func (h *SubjectHandler) handleSubjectError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSubjectNotFound):
		response.NotFound(c, 22001, "课程不存在")
	case errors.Is(err, service.ErrSubjectCodeExists):
		response.Conflict(c, 22002, "课程编号已存在")
	case errors.Is(err, service.ErrInstructorNotFound):
		response.BadRequest(c, 22003, "指定的授课教师不存在")
	case errors.Is(err, service.ErrPrerequisiteNotFound):
		response.BadRequest(c, 22004, "先修课程不存在")
	case errors.Is(err, service.ErrPrerequisiteSelf):
		response.BadRequest(c, 22005, "课程不能以自身为先修课")
	case errors.Is(err, service.ErrPrerequisiteCycle):
		response.BadRequest(c, 22006, "先修课关系存在环")
	case errors.Is(err, service.ErrSubjectHoursMissing):
		response.BadRequest(c, 22007, "课程类型与学时不匹配")
	default:
		handleCommonError(c, err)
	}
}
