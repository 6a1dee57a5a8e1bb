package service

import (
	"go.uber.org/zap"

	"timify/backend/config"
	"timify/backend/internal/repository"
	"timify/backend/pkg/jwt"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth        AuthService
	User        UserService
	Room        RoomService
	Subject     SubjectService
	Faculty     FacultyService
	CreditLimit CreditLimitService
	Enrollment  EnrollmentService
	Timetable   TimetableService
	Export      ExportService
}

// NewService 创建 Service 聚合
//
// revoker / locker 通常由同一个 Redis 客户端实现；Redis 未启用时传 nil。
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	revoker TokenRevoker,
	locker GenerationLocker,
	logger *zap.Logger,
) *Service {
	timetable := NewTimetableService(cfg, repo, locker, logger)
	return &Service{
		Auth:        NewAuthService(cfg, repo, jwtMgr, revoker, logger),
		User:        NewUserService(repo, logger),
		Room:        NewRoomService(repo, logger),
		Subject:     NewSubjectService(repo, logger),
		Faculty:     NewFacultyService(repo, logger),
		CreditLimit: NewCreditLimitService(repo, logger),
		Enrollment:  NewEnrollmentService(repo, logger),
		Timetable:   timetable,
		Export:      NewExportService(cfg, repo, timetable, logger),
	}
}
