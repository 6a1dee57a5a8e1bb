package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"timify/backend/internal/model"
	"timify/backend/internal/repository"
	pkgerrors "timify/backend/pkg/errors"
)

// ErrTimetableNotDraft 只有草稿可以发布
var ErrTimetableNotDraft = errors.New("只有草稿状态的课表可以发布")

// PersistenceError 写入课表时存储层失败。事务已整体回滚，不自动重试。
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("课表持久化失败(%s): %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Publisher 课表发布器：归档旧课表与写入新课表在同一事务内完成，
// 发布前锁定基础数据版本行，版本与快照不一致时拒绝发布。
type Publisher struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewPublisher 创建 Publisher
func NewPublisher(repo *repository.Repository, logger *zap.Logger) *Publisher {
	return &Publisher{repo: repo, logger: logger, now: time.Now}
}

// Publish 写入新课表并设为唯一的已发布课表，t.CatalogVersion 为生成时的快照版本
func (p *Publisher) Publish(ctx context.Context, t *model.Timetable, slots []model.TimetableSlot) error {
	now := p.now()
	err := p.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := checkCatalogVersion(ctx, tx, t.CatalogVersion); err != nil {
			return err
		}

		archived, err := tx.Timetable.ArchivePublished(ctx, now)
		if err != nil {
			return &PersistenceError{Op: "archive", Err: err}
		}

		t.Status = model.TimetablePublished
		t.PublishedAt = &now
		if err := writeTimetable(ctx, tx, t, slots); err != nil {
			return err
		}

		p.logger.Info("课表已发布",
			zap.String("timetable_id", t.TimetableID),
			zap.Int64("catalog_version", t.CatalogVersion),
			zap.Int("slots", len(slots)),
			zap.Int64("archived", archived),
		)
		return nil
	})
	if err != nil {
		// 回滚后恢复调用方对象的状态
		t.Status = model.TimetableDraft
		t.PublishedAt = nil
		p.logFailure("发布课表失败", err)
	}
	return err
}

// SaveDraft 写入草稿课表，不影响当前已发布课表
func (p *Publisher) SaveDraft(ctx context.Context, t *model.Timetable, slots []model.TimetableSlot) error {
	t.Status = model.TimetableDraft
	err := p.repo.Transaction(ctx, func(tx *repository.Repository) error {
		return writeTimetable(ctx, tx, t, slots)
	})
	if err != nil {
		p.logFailure("保存草稿课表失败", err)
	}
	return err
}

// PublishDraft 将已保存的草稿设为已发布，草稿生成后基础数据有变更则拒绝
func (p *Publisher) PublishDraft(ctx context.Context, id string) (*model.Timetable, error) {
	now := p.now()
	var draft *model.Timetable
	err := p.repo.Transaction(ctx, func(tx *repository.Repository) error {
		t, err := tx.Timetable.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTimetableNotFound
			}
			return &PersistenceError{Op: "load", Err: err}
		}
		if t.Status != model.TimetableDraft {
			return ErrTimetableNotDraft
		}
		if err := checkCatalogVersion(ctx, tx, t.CatalogVersion); err != nil {
			return err
		}
		if _, err := tx.Timetable.ArchivePublished(ctx, now); err != nil {
			return &PersistenceError{Op: "archive", Err: err}
		}
		if err := tx.Timetable.MarkPublished(ctx, id, now); err != nil {
			return &PersistenceError{Op: "publish", Err: err}
		}
		t.Status = model.TimetablePublished
		t.PublishedAt = &now
		draft = t
		return nil
	})
	if err != nil {
		p.logFailure("发布草稿课表失败", err)
		return nil, err
	}
	p.logger.Info("草稿课表已发布", zap.String("timetable_id", id))
	return draft, nil
}

func (p *Publisher) logFailure(msg string, err error) {
	var pe *PersistenceError
	if errors.As(err, &pe) {
		p.logger.Error(msg, zap.String("op", pe.Op), zap.Error(pe.Err))
		return
	}
	p.logger.Warn(msg, zap.Error(err))
}

// checkCatalogVersion 锁定版本行并与快照版本比对
func checkCatalogVersion(ctx context.Context, tx *repository.Repository, version int64) error {
	state, err := tx.CatalogState.GetForUpdate(ctx)
	if err != nil {
		return &PersistenceError{Op: "lock_catalog", Err: err}
	}
	if state.Version != version {
		return fmt.Errorf("%w: 快照版本 %d，当前版本 %d",
			pkgerrors.ErrConcurrentCatalogChange, version, state.Version)
	}
	return nil
}

func writeTimetable(ctx context.Context, tx *repository.Repository, t *model.Timetable, slots []model.TimetableSlot) error {
	if err := tx.Timetable.Create(ctx, t); err != nil {
		return &PersistenceError{Op: "create_timetable", Err: err}
	}
	for i := range slots {
		slots[i].TimetableID = t.TimetableID
	}
	if err := tx.TimetableSlot.BatchCreate(ctx, slots); err != nil {
		return &PersistenceError{Op: "create_slots", Err: err}
	}
	return nil
}
