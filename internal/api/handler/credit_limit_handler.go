package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"timify/backend/internal/dto"
	"timify/backend/internal/service"
	"timify/backend/pkg/response"
)

// CreditLimitHandler 学分上限 HTTP 处理器
type CreditLimitHandler struct {
	limitSvc service.CreditLimitService
}

// NewCreditLimitHandler 创建 CreditLimitHandler
func NewCreditLimitHandler(limitSvc service.CreditLimitService) *CreditLimitHandler {
	return &CreditLimitHandler{limitSvc: limitSvc}
}

// List 各学期学分上限
// GET /api/v1/credit-limits
func (h *CreditLimitHandler) List(c *gin.Context) {
	list, err := h.limitSvc.List(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// Upsert 设置学期学分上限
// PUT /api/v1/credit-limits/:semester
func (h *CreditLimitHandler) Upsert(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	semester, err := strconv.Atoi(c.Param("semester"))
	if err != nil {
		response.BadRequest(c, 10001, "学期参数无效")
		return
	}

	var req dto.UpsertCreditLimitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.limitSvc.Upsert(c.Request.Context(), semester, &req, callerID)
	if err != nil {
		h.handleCreditLimitError(c, err)
		return
	}

	response.OK(c, result)
}

// Delete 清除学期学分上限
// DELETE /api/v1/credit-limits/:semester
func (h *CreditLimitHandler) Delete(c *gin.Context) {
	semester, err := strconv.Atoi(c.Param("semester"))
	if err != nil {
		response.BadRequest(c, 10001, "学期参数无效")
		return
	}

	if err := h.limitSvc.Delete(c.Request.Context(), semester); err != nil {
		h.handleCreditLimitError(c, err)
		return
	}

	response.OK(c, nil)
}

func (h *CreditLimitHandler) handleCreditLimitError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidSemester):
		response.BadRequest(c, 24001, "学期须在 1-8 之间")
	case errors.Is(err, service.ErrCreditLimitNotFound):
		response.NotFound(c, 24002, "该学期未设置学分上限")
	default:
		handleCommonError(c, err)
	}
}
