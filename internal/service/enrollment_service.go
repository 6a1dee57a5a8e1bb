package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"timify/backend/internal/dto"
	"timify/backend/internal/model"
	"timify/backend/internal/repository"
)

// ── 选课模块业务错误 ──

var (
	ErrAlreadyEnrolled     = errors.New("已选修该课程")
	ErrSubjectFull         = errors.New("课程人数已满")
	ErrCreditLimitExceeded = errors.New("超出本学期学分上限")
	ErrEnrollmentNotFound  = errors.New("选课记录不存在")
)

// EnrollmentService 学生选课业务接口
type EnrollmentService interface {
	AvailableSubjects(ctx context.Context, studentID string) ([]dto.AvailableSubjectResponse, error)
	Enroll(ctx context.Context, studentID, subjectID string) (*dto.EnrollmentResponse, error)
	Drop(ctx context.Context, studentID, subjectID string) error
	MySubjects(ctx context.Context, studentID string) ([]dto.EnrollmentResponse, error)
	Dashboard(ctx context.Context, studentID string) (*dto.StudentDashboardResponse, error)
}

type enrollmentService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewEnrollmentService 创建 EnrollmentService 实例
func NewEnrollmentService(repo *repository.Repository, logger *zap.Logger) EnrollmentService {
	return &enrollmentService{repo: repo, logger: logger}
}

// ────────────────────── AvailableSubjects ──────────────────────

func (s *enrollmentService) AvailableSubjects(ctx context.Context, studentID string) ([]dto.AvailableSubjectResponse, error) {
	subjects, err := s.repo.Subject.List(ctx, repository.SubjectFilter{})
	if err != nil {
		s.logger.Error("列出课程失败", zap.Error(err))
		return nil, err
	}

	ids := make([]string, 0, len(subjects))
	for i := range subjects {
		ids = append(ids, subjects[i].SubjectID)
	}
	counts, err := s.repo.Enrollment.CountEnrolled(ctx, ids)
	if err != nil {
		s.logger.Error("统计选课人数失败", zap.Error(err))
		return nil, err
	}
	mine, err := s.enrolledSet(ctx, studentID)
	if err != nil {
		return nil, err
	}

	result := make([]dto.AvailableSubjectResponse, 0, len(subjects))
	for i := range subjects {
		sub := &subjects[i]
		item := dto.AvailableSubjectResponse{
			ID:            sub.SubjectID,
			CourseCode:    sub.CourseCode,
			CourseName:    sub.CourseName,
			Semester:      sub.Semester,
			Credits:       sub.Credits,
			CourseType:    sub.CourseType,
			MaxCapacity:   sub.MaxCapacity,
			EnrolledCount: counts[sub.SubjectID],
			IsEnrolled:    mine[sub.SubjectID] != nil,
		}
		if sub.Instructor != nil {
			item.InstructorName = sub.Instructor.Name
		}
		result = append(result, item)
	}
	return result, nil
}

// ────────────────────── Enroll ──────────────────────

func (s *enrollmentService) Enroll(ctx context.Context, studentID, subjectID string) (*dto.EnrollmentResponse, error) {
	subject, err := s.repo.Subject.GetByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubjectNotFound
		}
		s.logger.Error("查询课程失败", zap.String("id", subjectID), zap.Error(err))
		return nil, err
	}

	var enrollment *model.StudentEnrollment
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		existing, err := tx.Enrollment.Get(ctx, studentID, subjectID)
		switch {
		case err == nil && existing.Status == model.EnrollmentEnrolled:
			return ErrAlreadyEnrolled
		case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		// 先锁课程行再计数，并发选课在此排队
		locked, err := tx.Subject.GetForUpdate(ctx, subjectID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSubjectNotFound
			}
			return err
		}

		// 容量：0 表示不限
		if locked.MaxCapacity > 0 {
			counts, err := tx.Enrollment.CountEnrolled(ctx, []string{subjectID})
			if err != nil {
				return err
			}
			if counts[subjectID] >= int64(locked.MaxCapacity) {
				return ErrSubjectFull
			}
		}

		if err := s.checkCreditLimit(ctx, tx, studentID, subject); err != nil {
			return err
		}

		now := time.Now()
		if existing != nil {
			// 退课后重新选修，复用原记录
			existing.Status = model.EnrollmentEnrolled
			existing.EnrolledAt = now
			existing.DroppedAt = nil
			existing.UpdatedBy = &studentID
			enrollment = existing
			return tx.Enrollment.Update(ctx, existing)
		}

		enrollment = &model.StudentEnrollment{
			StudentID:  studentID,
			SubjectID:  subjectID,
			Status:     model.EnrollmentEnrolled,
			EnrolledAt: now,
		}
		enrollment.CreatedBy = &studentID
		return tx.Enrollment.Create(ctx, enrollment)
	})
	if err != nil {
		if !isEnrollmentRule(err) {
			s.logger.Error("选课失败",
				zap.String("student_id", studentID),
				zap.String("subject_id", subjectID),
				zap.Error(err),
			)
		}
		return nil, err
	}

	enrollment.Subject = subject
	return toEnrollmentResponse(enrollment), nil
}

// checkCreditLimit 同学期已选学分加上本课程不超过上限；未设置上限时不限制
func (s *enrollmentService) checkCreditLimit(ctx context.Context, tx *repository.Repository, studentID string, subject *model.Subject) error {
	limit, err := tx.CreditLimit.Get(ctx, subject.Semester)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	current, err := tx.Enrollment.ListByStudent(ctx, studentID)
	if err != nil {
		return err
	}
	total := subject.Credits
	for _, e := range current {
		if e.Subject != nil && e.Subject.Semester == subject.Semester {
			total += e.Subject.Credits
		}
	}
	if total > limit.MaxCredits {
		return fmt.Errorf("%w: 第 %d 学期选课后共 %d 学分，上限 %d",
			ErrCreditLimitExceeded, subject.Semester, total, limit.MaxCredits)
	}
	return nil
}

// ────────────────────── Drop ──────────────────────

func (s *enrollmentService) Drop(ctx context.Context, studentID, subjectID string) error {
	e, err := s.repo.Enrollment.Get(ctx, studentID, subjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEnrollmentNotFound
		}
		s.logger.Error("查询选课记录失败", zap.Error(err))
		return err
	}
	if e.Status != model.EnrollmentEnrolled {
		return ErrEnrollmentNotFound
	}

	now := time.Now()
	e.Status = model.EnrollmentDropped
	e.DroppedAt = &now
	e.UpdatedBy = &studentID
	if err := s.repo.Enrollment.Update(ctx, e); err != nil {
		s.logger.Error("退课失败", zap.String("student_id", studentID), zap.String("subject_id", subjectID), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── MySubjects ──────────────────────

func (s *enrollmentService) MySubjects(ctx context.Context, studentID string) ([]dto.EnrollmentResponse, error) {
	list, err := s.repo.Enrollment.ListByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("查询已选课程失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.EnrollmentResponse, 0, len(list))
	for i := range list {
		result = append(result, *toEnrollmentResponse(&list[i]))
	}
	return result, nil
}

// ────────────────────── Dashboard ──────────────────────

func (s *enrollmentService) Dashboard(ctx context.Context, studentID string) (*dto.StudentDashboardResponse, error) {
	mine, err := s.enrolledSet(ctx, studentID)
	if err != nil {
		return nil, err
	}

	resp := &dto.StudentDashboardResponse{EnrolledSubjects: len(mine)}
	for _, e := range mine {
		if e.Subject != nil {
			resp.TotalCredits += e.Subject.Credits
		}
	}

	published, err := s.repo.Timetable.GetPublished(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return resp, nil
		}
		s.logger.Error("查询已发布课表失败", zap.Error(err))
		return nil, err
	}
	slots, err := s.repo.TimetableSlot.ListByTimetable(ctx, published.TimetableID)
	if err != nil {
		s.logger.Error("查询课表明细失败", zap.Error(err))
		return nil, err
	}
	for _, slot := range slots {
		if mine[slot.SubjectID] != nil {
			resp.ClassesThisWeek++
		}
	}
	return resp, nil
}

// ── 内部辅助方法 ──

// enrolledSet 学生在读课程，按课程 ID 索引
func (s *enrollmentService) enrolledSet(ctx context.Context, studentID string) (map[string]*model.StudentEnrollment, error) {
	list, err := s.repo.Enrollment.ListByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("查询已选课程失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}
	set := make(map[string]*model.StudentEnrollment, len(list))
	for i := range list {
		set[list[i].SubjectID] = &list[i]
	}
	return set, nil
}

func isEnrollmentRule(err error) bool {
	return errors.Is(err, ErrAlreadyEnrolled) ||
		errors.Is(err, ErrSubjectFull) ||
		errors.Is(err, ErrCreditLimitExceeded)
}

func toEnrollmentResponse(e *model.StudentEnrollment) *dto.EnrollmentResponse {
	resp := &dto.EnrollmentResponse{
		ID:         e.EnrollmentID,
		SubjectID:  e.SubjectID,
		Status:     e.Status,
		EnrolledAt: e.EnrolledAt.Format("2006-01-02T15:04:05Z"),
	}
	if sub := e.Subject; sub != nil {
		resp.CourseCode = sub.CourseCode
		resp.CourseName = sub.CourseName
		resp.Credits = sub.Credits
		resp.CourseType = sub.CourseType
		if sub.Instructor != nil {
			resp.InstructorName = sub.Instructor.Name
		}
	}
	return resp
}
