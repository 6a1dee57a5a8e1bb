package handler

import (
	"bytes"
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"timify/backend/internal/model"
	"timify/backend/internal/service"
	"timify/backend/pkg/response"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypePDF  = "application/pdf"
	contentTypeICS  = "text/calendar; charset=utf-8"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

type exportFunc func(ctx context.Context, id string) (*bytes.Buffer, string, error)

// MasterExcel 导出主课表
// GET /api/v1/export/master.xlsx?timetable_id=xxx
func (h *ExportHandler) MasterExcel(c *gin.Context) {
	h.send(c, h.exportSvc.MasterExcel, c.Query("timetable_id"), contentTypeXLSX)
}

// MasterCSV 导出主课表 CSV
// GET /api/v1/export/master.csv?timetable_id=xxx
func (h *ExportHandler) MasterCSV(c *gin.Context) {
	h.send(c, h.exportSvc.MasterCSV, c.Query("timetable_id"), contentTypeCSV)
}

// MasterPDF 导出主课表 PDF
// GET /api/v1/export/master.pdf?timetable_id=xxx
func (h *ExportHandler) MasterPDF(c *gin.Context) {
	h.send(c, h.exportSvc.MasterPDF, c.Query("timetable_id"), contentTypePDF)
}

// MyExcel 导出当前用户的个人课表（教师或学生）
// GET /api/v1/export/me.xlsx
func (h *ExportHandler) MyExcel(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	fn := h.exportSvc.StudentExcel
	if role == model.RoleStaff {
		fn = h.exportSvc.StaffExcel
	}
	h.send(c, fn, userID, contentTypeXLSX)
}

// MyICS 导出当前用户的 iCalendar 日历
// GET /api/v1/export/me.ics
func (h *ExportHandler) MyICS(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	fn := h.exportSvc.StudentICS
	if role == model.RoleStaff {
		fn = h.exportSvc.StaffICS
	}
	h.send(c, fn, userID, contentTypeICS)
}

func (h *ExportHandler) send(c *gin.Context, fn exportFunc, id, contentType string) {
	buf, filename, err := fn(c.Request.Context(), id)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	response.Attachment(c, filename, contentType, buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNoPublishedTimetable):
		response.NotFound(c, 26002, "暂无已发布的课表")
	case errors.Is(err, service.ErrTimetableNotFound):
		response.NotFound(c, 26001, "课表不存在")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 20001, "用户不存在")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.Error(c, http.StatusInternalServerError, 27001, "生成导出文件失败")
	default:
		response.InternalError(c)
	}
}
