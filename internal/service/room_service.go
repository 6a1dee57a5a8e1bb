package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"timify/backend/internal/dto"
	"timify/backend/internal/model"
	"timify/backend/internal/repository"
)

// ── 教室模块业务错误 ──

var (
	ErrRoomNotFound   = errors.New("教室不存在")
	ErrRoomCodeExists = errors.New("教室编号已存在")
)

// RoomService 教室业务接口
type RoomService interface {
	Create(ctx context.Context, req *dto.CreateRoomRequest, callerID string) (*dto.RoomResponse, error)
	GetByID(ctx context.Context, id string) (*dto.RoomResponse, error)
	List(ctx context.Context) ([]dto.RoomResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateRoomRequest, callerID string) (*dto.RoomResponse, error)
	Delete(ctx context.Context, id string, callerID string) error
}

type roomService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewRoomService 创建 RoomService 实例
func NewRoomService(repo *repository.Repository, logger *zap.Logger) RoomService {
	return &roomService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *roomService) Create(ctx context.Context, req *dto.CreateRoomRequest, callerID string) (*dto.RoomResponse, error) {
	if err := s.ensureCodeFree(ctx, req.RoomCode, ""); err != nil {
		return nil, err
	}

	room := &model.Room{
		RoomCode: req.RoomCode,
		Building: req.Building,
		Capacity: req.Capacity,
		RoomType: req.RoomType,
	}
	room.CreatedBy = &callerID
	room.UpdatedBy = &callerID

	err := mutateCatalog(ctx, s.repo, func(tx *repository.Repository) error {
		return tx.Room.Create(ctx, room)
	})
	if err != nil {
		s.logger.Error("创建教室失败", zap.Error(err))
		return nil, err
	}
	return toRoomResponse(room), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *roomService) GetByID(ctx context.Context, id string) (*dto.RoomResponse, error) {
	room, err := s.getRoom(ctx, id)
	if err != nil {
		return nil, err
	}
	return toRoomResponse(room), nil
}

// ────────────────────── List ──────────────────────

func (s *roomService) List(ctx context.Context) ([]dto.RoomResponse, error) {
	rooms, err := s.repo.Room.List(ctx)
	if err != nil {
		s.logger.Error("列出教室失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.RoomResponse, 0, len(rooms))
	for i := range rooms {
		result = append(result, *toRoomResponse(&rooms[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *roomService) Update(ctx context.Context, id string, req *dto.UpdateRoomRequest, callerID string) (*dto.RoomResponse, error) {
	room, err := s.getRoom(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.RoomCode != nil && *req.RoomCode != room.RoomCode {
		if err := s.ensureCodeFree(ctx, *req.RoomCode, id); err != nil {
			return nil, err
		}
		room.RoomCode = *req.RoomCode
	}
	if req.Building != nil {
		room.Building = *req.Building
	}
	if req.Capacity != nil {
		room.Capacity = *req.Capacity
	}
	if req.RoomType != nil {
		room.RoomType = *req.RoomType
	}
	room.UpdatedBy = &callerID

	err = mutateCatalog(ctx, s.repo, func(tx *repository.Repository) error {
		return tx.Room.Update(ctx, room)
	})
	if err != nil {
		s.logger.Error("更新教室失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toRoomResponse(room), nil
}

// ────────────────────── Delete ──────────────────────

func (s *roomService) Delete(ctx context.Context, id string, callerID string) error {
	if _, err := s.getRoom(ctx, id); err != nil {
		return err
	}

	err := mutateCatalog(ctx, s.repo, func(tx *repository.Repository) error {
		return tx.Room.Delete(ctx, id, callerID)
	})
	if err != nil {
		s.logger.Error("删除教室失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ── 内部辅助方法 ──

func (s *roomService) getRoom(ctx context.Context, id string) (*model.Room, error) {
	room, err := s.repo.Room.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		s.logger.Error("查询教室失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return room, nil
}

// ensureCodeFree 编号未被其他教室占用
func (s *roomService) ensureCodeFree(ctx context.Context, code, selfID string) error {
	existing, err := s.repo.Room.GetByCode(ctx, code)
	switch {
	case err == nil && existing.RoomID != selfID:
		return ErrRoomCodeExists
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		s.logger.Error("查询教室失败", zap.String("code", code), zap.Error(err))
		return err
	}
	return nil
}

func toRoomResponse(room *model.Room) *dto.RoomResponse {
	return &dto.RoomResponse{
		ID:        room.RoomID,
		RoomCode:  room.RoomCode,
		Building:  room.Building,
		Capacity:  room.Capacity,
		RoomType:  room.RoomType,
		CreatedAt: room.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt: room.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
