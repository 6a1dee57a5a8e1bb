package repository

import (
	"context"

	"gorm.io/gorm"
)

// TxFunc 在同一事务内执行 fn，fn 返回错误时整体回滚
type TxFunc func(ctx context.Context, fn func(tx *Repository) error) error

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	User          UserRepository
	Room          RoomRepository
	Subject       SubjectRepository
	Faculty       FacultyRepository
	CreditLimit   CreditLimitRepository
	Enrollment    EnrollmentRepository
	Timetable     TimetableRepository
	TimetableSlot TimetableSlotRepository
	CatalogState  CatalogStateRepository

	// Tx 事务执行器；NewRepository 绑定 GORM 事务，测试中可替换
	Tx TxFunc
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	r := &Repository{
		db:            db,
		User:          NewUserRepo(db),
		Room:          NewRoomRepo(db),
		Subject:       NewSubjectRepo(db),
		Faculty:       NewFacultyRepo(db),
		CreditLimit:   NewCreditLimitRepo(db),
		Enrollment:    NewEnrollmentRepo(db),
		Timetable:     NewTimetableRepo(db),
		TimetableSlot: NewTimetableSlotRepo(db),
		CatalogState:  NewCatalogStateRepo(db),
	}
	r.Tx = func(ctx context.Context, fn func(tx *Repository) error) error {
		return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(r.WithTx(tx))
		})
	}
	return r
}

// BeginTx 手动开启事务，调用方负责 Commit/Rollback
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	tx := r.db.WithContext(ctx).Begin()
	return tx, tx.Error
}

// WithTx 返回绑定到事务的 Repository 副本
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	txRepo := NewRepository(tx)
	// 已在事务内，嵌套调用直接复用当前事务
	txRepo.Tx = func(_ context.Context, fn func(tx *Repository) error) error {
		return fn(txRepo)
	}
	return txRepo
}

// Transaction 在事务内执行 fn；未设置 Tx 时直接执行
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	if r.Tx == nil {
		return fn(r)
	}
	return r.Tx(ctx, fn)
}

// softDelete 写入 deleted_by/deleted_at，返回是否命中记录
func softDelete(ctx context.Context, db *gorm.DB, m interface{}, idColumn, id, deletedBy string) (bool, error) {
	result := db.WithContext(ctx).
		Model(m).
		Where(idColumn+" = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		})
	return result.RowsAffected > 0, result.Error
}
