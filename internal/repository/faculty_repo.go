package repository

import (
	"context"

	"gorm.io/gorm"

	"timify/backend/internal/model"
)

// FacultyRepository 教师数据访问接口
type FacultyRepository interface {
	Create(ctx context.Context, faculty *model.Faculty) error
	GetByID(ctx context.Context, id string) (*model.Faculty, error)
	GetByUserID(ctx context.Context, userID string) (*model.Faculty, error)
	List(ctx context.Context) ([]model.Faculty, error)
	Update(ctx context.Context, faculty *model.Faculty) error
	Delete(ctx context.Context, id, deletedBy string) error
	Count(ctx context.Context) (int64, error)
}

type facultyRepo struct {
	db *gorm.DB
}

// NewFacultyRepo 创建 FacultyRepository 实例
func NewFacultyRepo(db *gorm.DB) FacultyRepository {
	return &facultyRepo{db: db}
}

func (r *facultyRepo) Create(ctx context.Context, faculty *model.Faculty) error {
	return r.db.WithContext(ctx).Omit("User").Create(faculty).Error
}

func (r *facultyRepo) GetByID(ctx context.Context, id string) (*model.Faculty, error) {
	var faculty model.Faculty
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("faculty_id = ?", id).
		First(&faculty).Error
	if err != nil {
		return nil, err
	}
	return &faculty, nil
}

func (r *facultyRepo) GetByUserID(ctx context.Context, userID string) (*model.Faculty, error) {
	var faculty model.Faculty
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&faculty).Error
	if err != nil {
		return nil, err
	}
	return &faculty, nil
}

func (r *facultyRepo) List(ctx context.Context) ([]model.Faculty, error) {
	var list []model.Faculty
	err := r.db.WithContext(ctx).
		Preload("User").
		Order("name ASC, faculty_id ASC").
		Find(&list).Error
	return list, err
}

func (r *facultyRepo) Update(ctx context.Context, faculty *model.Faculty) error {
	return r.db.WithContext(ctx).
		Model(&model.Faculty{}).
		Where("faculty_id = ?", faculty.FacultyID).
		Updates(map[string]interface{}{
			"name":               faculty.Name,
			"email":              faculty.Email,
			"phone":              faculty.Phone,
			"department":         faculty.Department,
			"max_hours_per_week": faculty.MaxHoursPerWeek,
			"availability":       faculty.Availability,
			"updated_by":         faculty.UpdatedBy,
		}).Error
}

func (r *facultyRepo) Delete(ctx context.Context, id, deletedBy string) error {
	ok, err := softDelete(ctx, r.db, &model.Faculty{}, "faculty_id", id, deletedBy)
	if err == nil && !ok {
		return gorm.ErrRecordNotFound
	}
	return err
}

func (r *facultyRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Faculty{}).Count(&count).Error
	return count, err
}
