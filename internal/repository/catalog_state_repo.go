package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"timify/backend/internal/model"
)

// CatalogStateRepository 基础数据版本访问接口
type CatalogStateRepository interface {
	Get(ctx context.Context) (*model.CatalogState, error)
	// GetForUpdate 锁定版本行，需在事务内调用
	GetForUpdate(ctx context.Context) (*model.CatalogState, error)
	// Bump 版本号加一并返回新版本
	Bump(ctx context.Context) (int64, error)
}

type catalogStateRepo struct {
	db *gorm.DB
}

// NewCatalogStateRepo 创建 CatalogStateRepository 实例
func NewCatalogStateRepo(db *gorm.DB) CatalogStateRepository {
	return &catalogStateRepo{db: db}
}

func (r *catalogStateRepo) Get(ctx context.Context) (*model.CatalogState, error) {
	var st model.CatalogState
	if err := r.db.WithContext(ctx).First(&st).Error; err != nil {
		return nil, err
	}
	return &st, nil
}

func (r *catalogStateRepo) GetForUpdate(ctx context.Context) (*model.CatalogState, error) {
	var st model.CatalogState
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&st).Error
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (r *catalogStateRepo) Bump(ctx context.Context) (int64, error) {
	var st model.CatalogState
	err := r.db.WithContext(ctx).
		Model(&st).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "version"}}}).
		Where("singleton = ?", true).
		Updates(map[string]interface{}{
			"version":    gorm.Expr("version + 1"),
			"updated_at": gorm.Expr("NOW()"),
		}).Error
	if err != nil {
		return 0, err
	}
	return st.Version, nil
}
