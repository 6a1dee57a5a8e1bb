package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"timify/backend/config"
	"timify/backend/internal/service"
	pkgerrors "timify/backend/pkg/errors"
	"timify/backend/pkg/response"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth        *AuthHandler
	User        *UserHandler
	Room        *RoomHandler
	Subject     *SubjectHandler
	Faculty     *FacultyHandler
	CreditLimit *CreditLimitHandler
	Student     *StudentHandler
	Staff       *StaffHandler
	Timetable   *TimetableHandler
	Export      *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(cfg *config.Config, svc *service.Service) *Handler {
	return &Handler{
		Auth:        NewAuthHandler(svc.Auth, &cfg.Auth),
		User:        NewUserHandler(svc.User),
		Room:        NewRoomHandler(svc.Room),
		Subject:     NewSubjectHandler(svc.Subject),
		Faculty:     NewFacultyHandler(svc.Faculty),
		CreditLimit: NewCreditLimitHandler(svc.CreditLimit),
		Student:     NewStudentHandler(svc.Enrollment, svc.Timetable),
		Staff:       NewStaffHandler(svc.Timetable),
		Timetable:   NewTimetableHandler(svc.Timetable),
		Export:      NewExportHandler(svc.Export),
	}
}

// handleCommonError 跨模块共用的错误映射：并发冲突统一返回 409
func handleCommonError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 10006, "数据已被其他操作修改，请刷新后重试")
	case errors.Is(err, pkgerrors.ErrConcurrentCatalogChange):
		response.Conflict(c, 10007, "基础数据已变更，请重新生成课表")
	default:
		response.InternalError(c)
	}
}
