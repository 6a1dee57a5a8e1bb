package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"timify/backend/internal/dto"
	"timify/backend/internal/model"
	"timify/backend/internal/repository"
)

var (
	ErrInvalidSemester     = errors.New("学期须在 1-8 之间")
	ErrCreditLimitNotFound = errors.New("该学期未设置学分上限")
)

// Semesters 学期总数
const Semesters = 8

// CreditLimitService 学期学分上限业务接口
type CreditLimitService interface {
	// List 始终返回 1..8 学期，未设置的学期上限为 null
	List(ctx context.Context) ([]dto.CreditLimitResponse, error)
	Upsert(ctx context.Context, semester int, req *dto.UpsertCreditLimitRequest, callerID string) (*dto.CreditLimitResponse, error)
	Delete(ctx context.Context, semester int) error
}

type creditLimitService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCreditLimitService 创建 CreditLimitService 实例
func NewCreditLimitService(repo *repository.Repository, logger *zap.Logger) CreditLimitService {
	return &creditLimitService{repo: repo, logger: logger}
}

func (s *creditLimitService) List(ctx context.Context) ([]dto.CreditLimitResponse, error) {
	limits, err := s.repo.CreditLimit.List(ctx)
	if err != nil {
		s.logger.Error("列出学分上限失败", zap.Error(err))
		return nil, err
	}

	bySemester := make(map[int]*model.CreditLimit, len(limits))
	for i := range limits {
		bySemester[limits[i].SemesterNumber] = &limits[i]
	}

	result := make([]dto.CreditLimitResponse, 0, Semesters)
	for sem := 1; sem <= Semesters; sem++ {
		item := dto.CreditLimitResponse{SemesterNumber: sem}
		if l, ok := bySemester[sem]; ok {
			v := l.MaxCredits
			updated := l.UpdatedAt.Format("2006-01-02T15:04:05Z")
			item.MaxCredits = &v
			item.UpdatedAt = &updated
		}
		result = append(result, item)
	}
	return result, nil
}

func (s *creditLimitService) Upsert(ctx context.Context, semester int, req *dto.UpsertCreditLimitRequest, callerID string) (*dto.CreditLimitResponse, error) {
	if semester < 1 || semester > Semesters {
		return nil, ErrInvalidSemester
	}

	limit := &model.CreditLimit{
		SemesterNumber: semester,
		MaxCredits:     req.MaxCredits,
		UpdatedBy:      &callerID,
	}
	err := mutateCatalog(ctx, s.repo, func(tx *repository.Repository) error {
		return tx.CreditLimit.Upsert(ctx, limit)
	})
	if err != nil {
		s.logger.Error("设置学分上限失败", zap.Int("semester", semester), zap.Error(err))
		return nil, err
	}

	v := limit.MaxCredits
	return &dto.CreditLimitResponse{SemesterNumber: semester, MaxCredits: &v}, nil
}

func (s *creditLimitService) Delete(ctx context.Context, semester int) error {
	if semester < 1 || semester > Semesters {
		return ErrInvalidSemester
	}

	err := mutateCatalog(ctx, s.repo, func(tx *repository.Repository) error {
		found, err := tx.CreditLimit.Delete(ctx, semester)
		if err != nil {
			return err
		}
		if !found {
			return ErrCreditLimitNotFound
		}
		return nil
	})
	if err != nil && !errors.Is(err, ErrCreditLimitNotFound) {
		s.logger.Error("删除学分上限失败", zap.Int("semester", semester), zap.Error(err))
	}
	return err
}
