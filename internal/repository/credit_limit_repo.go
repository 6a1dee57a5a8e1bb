package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"timify/backend/internal/model"
)

// CreditLimitRepository 学分上限数据访问接口
type CreditLimitRepository interface {
	List(ctx context.Context) ([]model.CreditLimit, error)
	Get(ctx context.Context, semester int) (*model.CreditLimit, error)
	Upsert(ctx context.Context, limit *model.CreditLimit) error
	// Delete 删除某学期的上限，返回是否命中
	Delete(ctx context.Context, semester int) (bool, error)
}

type creditLimitRepo struct {
	db *gorm.DB
}

// NewCreditLimitRepo 创建 CreditLimitRepository 实例
func NewCreditLimitRepo(db *gorm.DB) CreditLimitRepository {
	return &creditLimitRepo{db: db}
}

func (r *creditLimitRepo) List(ctx context.Context) ([]model.CreditLimit, error) {
	var limits []model.CreditLimit
	err := r.db.WithContext(ctx).
		Order("semester_number ASC").
		Find(&limits).Error
	return limits, err
}

func (r *creditLimitRepo) Get(ctx context.Context, semester int) (*model.CreditLimit, error) {
	var limit model.CreditLimit
	err := r.db.WithContext(ctx).
		Where("semester_number = ?", semester).
		First(&limit).Error
	if err != nil {
		return nil, err
	}
	return &limit, nil
}

func (r *creditLimitRepo) Upsert(ctx context.Context, limit *model.CreditLimit) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "semester_number"}},
			DoUpdates: clause.AssignmentColumns([]string{"max_credits", "updated_at", "updated_by"}),
		}).
		Create(limit).Error
}

func (r *creditLimitRepo) Delete(ctx context.Context, semester int) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("semester_number = ?", semester).
		Delete(&model.CreditLimit{})
	return result.RowsAffected > 0, result.Error
}
