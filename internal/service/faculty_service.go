package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"timify/backend/internal/dto"
	"timify/backend/internal/model"
	"timify/backend/internal/repository"
)

// ── 教师模块业务错误 ──

var (
	ErrFacultyNotFound     = errors.New("教师不存在")
	ErrInvalidAvailability = errors.New("可用时间设置无效")
)

const defaultMaxHoursPerWeek = 40

// FacultyService 教师业务接口
type FacultyService interface {
	// Create 创建教师档案及对应的 staff 登录账号
	Create(ctx context.Context, req *dto.CreateFacultyRequest, callerID string) (*dto.CreateFacultyResponse, error)
	GetByID(ctx context.Context, id string) (*dto.FacultyResponse, error)
	List(ctx context.Context) ([]dto.FacultyResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateFacultyRequest, callerID string) (*dto.FacultyResponse, error)
	// Delete 删除教师档案与账号，原任课课程改为未指定教师
	Delete(ctx context.Context, id string, callerID string) error
}

type facultyService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewFacultyService 创建 FacultyService 实例
func NewFacultyService(repo *repository.Repository, logger *zap.Logger) FacultyService {
	return &facultyService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *facultyService) Create(ctx context.Context, req *dto.CreateFacultyRequest, callerID string) (*dto.CreateFacultyResponse, error) {
	if _, err := s.repo.User.GetByUsername(ctx, req.Username); err == nil {
		return nil, ErrUsernameExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	avail := model.DefaultAvailability()
	if len(req.Availability) > 0 {
		avail = fromAvailabilityDTO(req.Availability)
	}
	if _, err := parseAvailability(avail); err != nil {
		return nil, ErrInvalidAvailability
	}

	maxHours := req.MaxHoursPerWeek
	if maxHours == 0 {
		maxHours = defaultMaxHoursPerWeek
	}

	tempPassword, err := generateTempPassword(10)
	if err != nil {
		s.logger.Error("生成临时密码失败", zap.Error(err))
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	user := &model.User{
		Username:           req.Username,
		Name:               req.Name,
		Email:              req.Email,
		PasswordHash:       string(hash),
		Role:               model.RoleStaff,
		MustChangePassword: true,
	}
	user.CreatedBy = &callerID

	faculty := &model.Faculty{
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		Department:      req.Department,
		MaxHoursPerWeek: maxHours,
		Availability:    datatypes.NewJSONType(avail),
	}
	faculty.CreatedBy = &callerID
	faculty.UpdatedBy = &callerID

	err = mutateCatalog(ctx, s.repo, func(tx *repository.Repository) error {
		if err := tx.User.Create(ctx, user); err != nil {
			return err
		}
		faculty.UserID = user.UserID
		return tx.Faculty.Create(ctx, faculty)
	})
	if err != nil {
		s.logger.Error("创建教师失败", zap.String("username", req.Username), zap.Error(err))
		return nil, err
	}

	faculty.User = user
	return &dto.CreateFacultyResponse{
		Faculty:      toFacultyResponse(faculty),
		TempPassword: tempPassword,
	}, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *facultyService) GetByID(ctx context.Context, id string) (*dto.FacultyResponse, error) {
	faculty, err := s.getFaculty(ctx, id)
	if err != nil {
		return nil, err
	}
	return toFacultyResponse(faculty), nil
}

// ────────────────────── List ──────────────────────

func (s *facultyService) List(ctx context.Context) ([]dto.FacultyResponse, error) {
	list, err := s.repo.Faculty.List(ctx)
	if err != nil {
		s.logger.Error("列出教师失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.FacultyResponse, 0, len(list))
	for i := range list {
		result = append(result, *toFacultyResponse(&list[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *facultyService) Update(ctx context.Context, id string, req *dto.UpdateFacultyRequest, callerID string) (*dto.FacultyResponse, error) {
	faculty, err := s.getFaculty(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		faculty.Name = *req.Name
	}
	if req.Email != nil {
		faculty.Email = *req.Email
	}
	if req.Phone != nil {
		faculty.Phone = *req.Phone
	}
	if req.Department != nil {
		faculty.Department = *req.Department
	}
	if req.MaxHoursPerWeek != nil {
		faculty.MaxHoursPerWeek = *req.MaxHoursPerWeek
	}
	if req.Availability != nil {
		// 空对象会让教师整周不可用，需逐日写明 available=false
		if len(req.Availability) == 0 {
			return nil, ErrInvalidAvailability
		}
		avail := fromAvailabilityDTO(req.Availability)
		if _, err := parseAvailability(avail); err != nil {
			return nil, ErrInvalidAvailability
		}
		faculty.Availability = datatypes.NewJSONType(avail)
	}
	faculty.UpdatedBy = &callerID

	err = mutateCatalog(ctx, s.repo, func(tx *repository.Repository) error {
		if err := tx.Faculty.Update(ctx, faculty); err != nil {
			return err
		}
		// 账号姓名与邮箱跟随教师档案
		if faculty.User == nil || (req.Name == nil && req.Email == nil) {
			return nil
		}
		faculty.User.Name = faculty.Name
		faculty.User.Email = faculty.Email
		faculty.User.UpdatedBy = &callerID
		return tx.User.Update(ctx, faculty.User)
	})
	if err != nil {
		s.logger.Error("更新教师失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toFacultyResponse(faculty), nil
}

// ────────────────────── Delete ──────────────────────

func (s *facultyService) Delete(ctx context.Context, id string, callerID string) error {
	faculty, err := s.getFaculty(ctx, id)
	if err != nil {
		return err
	}

	err = mutateCatalog(ctx, s.repo, func(tx *repository.Repository) error {
		if err := tx.Subject.ClearInstructor(ctx, id); err != nil {
			return err
		}
		if err := tx.Faculty.Delete(ctx, id, callerID); err != nil {
			return err
		}
		return tx.User.Delete(ctx, faculty.UserID, callerID)
	})
	if err != nil {
		s.logger.Error("删除教师失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ── 内部辅助方法 ──

func (s *facultyService) getFaculty(ctx context.Context, id string) (*model.Faculty, error) {
	faculty, err := s.repo.Faculty.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFacultyNotFound
		}
		s.logger.Error("查询教师失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return faculty, nil
}

func fromAvailabilityDTO(in map[string]dto.DayAvailability) model.WeeklyAvailability {
	out := make(model.WeeklyAvailability, len(in))
	for day, a := range in {
		out[day] = model.DayAvailability{Start: a.Start, End: a.End, Available: a.Available}
	}
	return out
}

func toFacultyResponse(f *model.Faculty) *dto.FacultyResponse {
	avail := f.Availability.Data()
	resp := &dto.FacultyResponse{
		ID:              f.FacultyID,
		UserID:          f.UserID,
		Name:            f.Name,
		Email:           f.Email,
		Phone:           f.Phone,
		Department:      f.Department,
		MaxHoursPerWeek: f.MaxHoursPerWeek,
		Availability:    make(map[string]dto.DayAvailability, len(avail)),
		CreatedAt:       f.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:       f.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if f.User != nil {
		resp.Username = f.User.Username
	}
	for day, a := range avail {
		resp.Availability[day] = dto.DayAvailability{Start: a.Start, End: a.End, Available: a.Available}
	}
	return resp
}
