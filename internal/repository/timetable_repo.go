package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"timify/backend/internal/model"
)

// TimetableRepository 课表数据访问接口
type TimetableRepository interface {
	Create(ctx context.Context, t *model.Timetable) error
	GetByID(ctx context.Context, id string) (*model.Timetable, error)
	GetPublished(ctx context.Context) (*model.Timetable, error)
	List(ctx context.Context, status string, offset, limit int) ([]model.Timetable, int64, error)
	// ArchivePublished 将当前已发布课表改为 archived，返回受影响行数
	ArchivePublished(ctx context.Context, at time.Time) (int64, error)
	MarkPublished(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

// TimetableSlotRepository 课表明细数据访问接口
type TimetableSlotRepository interface {
	BatchCreate(ctx context.Context, slots []model.TimetableSlot) error
	ListByTimetable(ctx context.Context, timetableID string) ([]model.TimetableSlot, error)
}

// ── Timetable Repository 实现 ──

type timetableRepo struct {
	db *gorm.DB
}

func NewTimetableRepo(db *gorm.DB) TimetableRepository {
	return &timetableRepo{db: db}
}

func (r *timetableRepo) Create(ctx context.Context, t *model.Timetable) error {
	return r.db.WithContext(ctx).Omit("Slots").Create(t).Error
}

func (r *timetableRepo) GetByID(ctx context.Context, id string) (*model.Timetable, error) {
	var t model.Timetable
	err := r.db.WithContext(ctx).
		Where("timetable_id = ?", id).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *timetableRepo) GetPublished(ctx context.Context) (*model.Timetable, error) {
	var t model.Timetable
	err := r.db.WithContext(ctx).
		Where("status = ?", model.TimetablePublished).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *timetableRepo) List(ctx context.Context, status string, offset, limit int) ([]model.Timetable, int64, error) {
	var list []model.Timetable
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Timetable{})
	if status != "" {
		db = db.Where("status = ?", status)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&list).Error
	return list, total, err
}

func (r *timetableRepo) ArchivePublished(ctx context.Context, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Timetable{}).
		Where("status = ?", model.TimetablePublished).
		Updates(map[string]interface{}{
			"status":      model.TimetableArchived,
			"archived_at": at,
		})
	return result.RowsAffected, result.Error
}

func (r *timetableRepo) MarkPublished(ctx context.Context, id string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.Timetable{}).
		Where("timetable_id = ? AND status = ?", id, model.TimetableDraft).
		Updates(map[string]interface{}{
			"status":       model.TimetablePublished,
			"published_at": at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete 明细随外键级联删除
func (r *timetableRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Where("timetable_id = ?", id).
		Delete(&model.Timetable{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *timetableRepo) DeleteAll(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&model.Timetable{})
	return result.RowsAffected, result.Error
}

func (r *timetableRepo) CountByStatus(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		Total  int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.Timetable{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Total
	}
	return out, nil
}

// ── TimetableSlot Repository 实现 ──

type timetableSlotRepo struct {
	db *gorm.DB
}

func NewTimetableSlotRepo(db *gorm.DB) TimetableSlotRepository {
	return &timetableSlotRepo{db: db}
}

func (r *timetableSlotRepo) BatchCreate(ctx context.Context, slots []model.TimetableSlot) error {
	if len(slots) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Omit("Subject", "Room", "Instructor").
		CreateInBatches(&slots, 200).Error
}

// ListByTimetable 历史课表引用的教室、课程、教师可能已被软删除，关联按 Unscoped 加载
func (r *timetableSlotRepo) ListByTimetable(ctx context.Context, timetableID string) ([]model.TimetableSlot, error) {
	unscoped := func(db *gorm.DB) *gorm.DB { return db.Unscoped() }
	var slots []model.TimetableSlot
	err := r.db.WithContext(ctx).
		Preload("Subject", unscoped).
		Preload("Room", unscoped).
		Preload("Instructor", unscoped).
		Where("timetable_id = ?", timetableID).
		Order("day_of_week ASC, period ASC").
		Find(&slots).Error
	return slots, err
}
