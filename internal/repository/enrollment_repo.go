package repository

import (
	"context"

	"gorm.io/gorm"

	"timify/backend/internal/model"
)

// EnrollmentRepository 选课数据访问接口
type EnrollmentRepository interface {
	Get(ctx context.Context, studentID, subjectID string) (*model.StudentEnrollment, error)
	Create(ctx context.Context, e *model.StudentEnrollment) error
	Update(ctx context.Context, e *model.StudentEnrollment) error
	ListByStudent(ctx context.Context, studentID string) ([]model.StudentEnrollment, error)
	// CountEnrolled 按课程统计在读人数
	CountEnrolled(ctx context.Context, subjectIDs []string) (map[string]int64, error)
}

type enrollmentRepo struct {
	db *gorm.DB
}

// NewEnrollmentRepo 创建 EnrollmentRepository 实例
func NewEnrollmentRepo(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepo{db: db}
}

func (r *enrollmentRepo) Get(ctx context.Context, studentID, subjectID string) (*model.StudentEnrollment, error) {
	var e model.StudentEnrollment
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND subject_id = ?", studentID, subjectID).
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *enrollmentRepo) Create(ctx context.Context, e *model.StudentEnrollment) error {
	return r.db.WithContext(ctx).Omit("Subject").Create(e).Error
}

func (r *enrollmentRepo) Update(ctx context.Context, e *model.StudentEnrollment) error {
	return r.db.WithContext(ctx).
		Model(&model.StudentEnrollment{}).
		Where("enrollment_id = ?", e.EnrollmentID).
		Updates(map[string]interface{}{
			"status":      e.Status,
			"enrolled_at": e.EnrolledAt,
			"dropped_at":  e.DroppedAt,
			"updated_by":  e.UpdatedBy,
			"updated_at":  gorm.Expr("NOW()"),
		}).Error
}

func (r *enrollmentRepo) ListByStudent(ctx context.Context, studentID string) ([]model.StudentEnrollment, error) {
	var list []model.StudentEnrollment
	err := r.db.WithContext(ctx).
		Preload("Subject").
		Preload("Subject.Instructor").
		Where("student_id = ? AND status = ?", studentID, model.EnrollmentEnrolled).
		Order("enrolled_at ASC").
		Find(&list).Error
	return list, err
}

func (r *enrollmentRepo) CountEnrolled(ctx context.Context, subjectIDs []string) (map[string]int64, error) {
	out := make(map[string]int64, len(subjectIDs))
	if len(subjectIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		SubjectID string
		Total     int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.StudentEnrollment{}).
		Select("subject_id, COUNT(*) AS total").
		Where("subject_id IN ? AND status = ?", subjectIDs, model.EnrollmentEnrolled).
		Group("subject_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.SubjectID] = row.Total
	}
	return out, nil
}
