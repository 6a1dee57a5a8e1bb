package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"timify/backend/internal/model"
	pkgerrors "timify/backend/pkg/errors"
)

// SubjectFilter 课程列表过滤条件，零值表示不过滤
type SubjectFilter struct {
	Semester   int
	Department string
}

// SubjectRepository 课程数据访问接口
type SubjectRepository interface {
	Create(ctx context.Context, subject *model.Subject) error
	GetByID(ctx context.Context, id string) (*model.Subject, error)
	// GetForUpdate 锁定课程行，需在事务内调用；选课容量检查以此串行化
	GetForUpdate(ctx context.Context, id string) (*model.Subject, error)
	GetByCode(ctx context.Context, code string) (*model.Subject, error)
	List(ctx context.Context, filter SubjectFilter) ([]model.Subject, error)
	ListByIDs(ctx context.Context, ids []string) ([]model.Subject, error)
	Update(ctx context.Context, subject *model.Subject) error
	Delete(ctx context.Context, id, deletedBy string) error
	Count(ctx context.Context) (int64, error)

	// ClearInstructor 将指定教师任课的课程改为未指定教师
	ClearInstructor(ctx context.Context, facultyID string) error

	ReplacePrerequisites(ctx context.Context, subjectID string, prerequisiteIDs []string) error
	ListPrerequisites(ctx context.Context) ([]model.SubjectPrerequisite, error)
}

type subjectRepo struct {
	db *gorm.DB
}

// NewSubjectRepo 创建 SubjectRepository 实例
func NewSubjectRepo(db *gorm.DB) SubjectRepository {
	return &subjectRepo{db: db}
}

func (r *subjectRepo) Create(ctx context.Context, subject *model.Subject) error {
	return r.db.WithContext(ctx).Omit("Instructor", "Prerequisites").Create(subject).Error
}

func (r *subjectRepo) GetByID(ctx context.Context, id string) (*model.Subject, error) {
	var subject model.Subject
	err := r.db.WithContext(ctx).
		Preload("Instructor").
		Preload("Prerequisites").
		Where("subject_id = ?", id).
		First(&subject).Error
	if err != nil {
		return nil, err
	}
	return &subject, nil
}

func (r *subjectRepo) GetForUpdate(ctx context.Context, id string) (*model.Subject, error) {
	var subject model.Subject
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("subject_id = ?", id).
		First(&subject).Error
	if err != nil {
		return nil, err
	}
	return &subject, nil
}

func (r *subjectRepo) GetByCode(ctx context.Context, code string) (*model.Subject, error) {
	var subject model.Subject
	err := r.db.WithContext(ctx).
		Where("course_code = ?", code).
		First(&subject).Error
	if err != nil {
		return nil, err
	}
	return &subject, nil
}

func (r *subjectRepo) List(ctx context.Context, filter SubjectFilter) ([]model.Subject, error) {
	db := r.db.WithContext(ctx).
		Preload("Instructor").
		Preload("Prerequisites")
	if filter.Semester > 0 {
		db = db.Where("semester = ?", filter.Semester)
	}
	if filter.Department != "" {
		db = db.Where("department = ?", filter.Department)
	}

	var subjects []model.Subject
	err := db.Order("semester ASC, course_code ASC").Find(&subjects).Error
	return subjects, err
}

func (r *subjectRepo) ListByIDs(ctx context.Context, ids []string) ([]model.Subject, error) {
	if len(ids) == 0 {
		return []model.Subject{}, nil
	}
	var subjects []model.Subject
	err := r.db.WithContext(ctx).
		Where("subject_id IN ?", ids).
		Order("course_code ASC").
		Find(&subjects).Error
	return subjects, err
}

func (r *subjectRepo) Update(ctx context.Context, subject *model.Subject) error {
	oldVersion := subject.Version
	result := r.db.WithContext(ctx).
		Model(&model.Subject{}).
		Where("subject_id = ? AND version = ?", subject.SubjectID, oldVersion).
		Updates(map[string]interface{}{
			"course_code":      subject.CourseCode,
			"course_name":      subject.CourseName,
			"semester":         subject.Semester,
			"credits":          subject.Credits,
			"course_type":      subject.CourseType,
			"min_theory_hours": subject.MinTheoryHours,
			"min_lab_hours":    subject.MinLabHours,
			"max_capacity":     subject.MaxCapacity,
			"instructor_id":    subject.InstructorID,
			"department":       subject.Department,
			"updated_by":       subject.UpdatedBy,
			"version":          oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	subject.Version = oldVersion + 1
	return nil
}

func (r *subjectRepo) Delete(ctx context.Context, id, deletedBy string) error {
	ok, err := softDelete(ctx, r.db, &model.Subject{}, "subject_id", id, deletedBy)
	if err != nil {
		return err
	}
	if !ok {
		return gorm.ErrRecordNotFound
	}
	// 软删除不会触发外键级联，先修关系需手动清理
	return r.db.WithContext(ctx).
		Where("subject_id = ? OR prerequisite_id = ?", id, id).
		Delete(&model.SubjectPrerequisite{}).Error
}

func (r *subjectRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Subject{}).Count(&count).Error
	return count, err
}

func (r *subjectRepo) ClearInstructor(ctx context.Context, facultyID string) error {
	return r.db.WithContext(ctx).
		Model(&model.Subject{}).
		Where("instructor_id = ?", facultyID).
		Updates(map[string]interface{}{
			"instructor_id": nil,
			"version":       gorm.Expr("version + 1"),
		}).Error
}

func (r *subjectRepo) ReplacePrerequisites(ctx context.Context, subjectID string, prerequisiteIDs []string) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("subject_id = ?", subjectID).Delete(&model.SubjectPrerequisite{}).Error; err != nil {
		return err
	}
	if len(prerequisiteIDs) == 0 {
		return nil
	}
	rows := make([]model.SubjectPrerequisite, 0, len(prerequisiteIDs))
	for _, id := range prerequisiteIDs {
		rows = append(rows, model.SubjectPrerequisite{SubjectID: subjectID, PrerequisiteID: id})
	}
	return db.Create(&rows).Error
}

func (r *subjectRepo) ListPrerequisites(ctx context.Context) ([]model.SubjectPrerequisite, error) {
	var rows []model.SubjectPrerequisite
	err := r.db.WithContext(ctx).
		Order("subject_id ASC, prerequisite_id ASC").
		Find(&rows).Error
	return rows, err
}
