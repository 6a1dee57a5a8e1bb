package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"timify/backend/internal/dto"
	"timify/backend/internal/model"
	"timify/backend/internal/repository"
	"timify/backend/internal/scheduler"
)

// ── 课程模块业务错误 ──

var (
	ErrSubjectNotFound      = errors.New("课程不存在")
	ErrSubjectCodeExists    = errors.New("课程编号已存在")
	ErrInstructorNotFound   = errors.New("指定的授课教师不存在")
	ErrPrerequisiteNotFound = errors.New("先修课程不存在")
	ErrPrerequisiteSelf     = errors.New("课程不能以自身为先修课")
	ErrPrerequisiteCycle    = errors.New("先修课关系存在环")
	ErrSubjectHoursMissing  = errors.New("课程类型与学时不匹配")
)

// SubjectService 课程业务接口
type SubjectService interface {
	Create(ctx context.Context, req *dto.CreateSubjectRequest, callerID string) (*dto.SubjectResponse, error)
	GetByID(ctx context.Context, id string) (*dto.SubjectResponse, error)
	List(ctx context.Context, req *dto.SubjectListRequest) ([]dto.SubjectResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateSubjectRequest, callerID string) (*dto.SubjectResponse, error)
	Delete(ctx context.Context, id string, callerID string) error
	// Summary 课程概览：授课教师、周课时与在读人数
	Summary(ctx context.Context) ([]dto.CourseSummary, error)
}

type subjectService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewSubjectService 创建 SubjectService 实例
func NewSubjectService(repo *repository.Repository, logger *zap.Logger) SubjectService {
	return &subjectService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *subjectService) Create(ctx context.Context, req *dto.CreateSubjectRequest, callerID string) (*dto.SubjectResponse, error) {
	if err := s.ensureCodeFree(ctx, req.CourseCode, ""); err != nil {
		return nil, err
	}

	subject := &model.Subject{
		CourseCode:     req.CourseCode,
		CourseName:     req.CourseName,
		Semester:       req.Semester,
		Credits:        req.Credits,
		CourseType:     req.CourseType,
		MinTheoryHours: req.MinTheoryHours,
		MinLabHours:    req.MinLabHours,
		MaxCapacity:    req.MaxCapacity,
		InstructorID:   normalizeID(req.InstructorID),
		Department:     req.Department,
	}
	subject.CreatedBy = &callerID
	subject.UpdatedBy = &callerID

	if err := checkSessionHours(subject); err != nil {
		return nil, err
	}
	if err := s.ensureInstructor(ctx, subject.InstructorID); err != nil {
		return nil, err
	}
	prereqs := dedupe(req.PrerequisiteIDs)
	if err := s.ensurePrerequisites(ctx, "", prereqs); err != nil {
		return nil, err
	}

	// 新课程没有入边，不会引入环
	err := mutateCatalog(ctx, s.repo, func(tx *repository.Repository) error {
		if err := tx.Subject.Create(ctx, subject); err != nil {
			return err
		}
		return tx.Subject.ReplacePrerequisites(ctx, subject.SubjectID, prereqs)
	})
	if err != nil {
		s.logger.Error("创建课程失败", zap.String("code", req.CourseCode), zap.Error(err))
		return nil, err
	}

	return s.GetByID(ctx, subject.SubjectID)
}

// ────────────────────── GetByID ──────────────────────

func (s *subjectService) GetByID(ctx context.Context, id string) (*dto.SubjectResponse, error) {
	subject, err := s.getSubject(ctx, id)
	if err != nil {
		return nil, err
	}
	return toSubjectResponse(subject), nil
}

// ────────────────────── List ──────────────────────

func (s *subjectService) List(ctx context.Context, req *dto.SubjectListRequest) ([]dto.SubjectResponse, error) {
	subjects, err := s.repo.Subject.List(ctx, repository.SubjectFilter{
		Semester:   req.Semester,
		Department: req.Department,
	})
	if err != nil {
		s.logger.Error("列出课程失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.SubjectResponse, 0, len(subjects))
	for i := range subjects {
		result = append(result, *toSubjectResponse(&subjects[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *subjectService) Update(ctx context.Context, id string, req *dto.UpdateSubjectRequest, callerID string) (*dto.SubjectResponse, error) {
	subject, err := s.getSubject(ctx, id)
	if err != nil {
		return nil, err
	}
	subject.Version = req.Version

	if req.CourseCode != nil && *req.CourseCode != subject.CourseCode {
		if err := s.ensureCodeFree(ctx, *req.CourseCode, id); err != nil {
			return nil, err
		}
		subject.CourseCode = *req.CourseCode
	}
	if req.CourseName != nil {
		subject.CourseName = *req.CourseName
	}
	if req.Semester != nil {
		subject.Semester = *req.Semester
	}
	if req.Credits != nil {
		subject.Credits = *req.Credits
	}
	if req.CourseType != nil {
		subject.CourseType = *req.CourseType
	}
	if req.MinTheoryHours != nil {
		subject.MinTheoryHours = *req.MinTheoryHours
	}
	if req.MinLabHours != nil {
		subject.MinLabHours = *req.MinLabHours
	}
	if req.MaxCapacity != nil {
		subject.MaxCapacity = *req.MaxCapacity
	}
	if req.Department != nil {
		subject.Department = *req.Department
	}
	if req.InstructorID != nil {
		subject.InstructorID = normalizeID(req.InstructorID)
		subject.Instructor = nil
		if err := s.ensureInstructor(ctx, subject.InstructorID); err != nil {
			return nil, err
		}
	}
	if err := checkSessionHours(subject); err != nil {
		return nil, err
	}

	var prereqs []string
	if req.PrerequisiteIDs != nil {
		prereqs = dedupe(*req.PrerequisiteIDs)
		if err := s.ensurePrerequisites(ctx, id, prereqs); err != nil {
			return nil, err
		}
	}
	subject.UpdatedBy = &callerID

	err = mutateCatalog(ctx, s.repo, func(tx *repository.Repository) error {
		if err := tx.Subject.Update(ctx, subject); err != nil {
			return err
		}
		if req.PrerequisiteIDs == nil {
			return nil
		}
		if err := s.ensureAcyclic(ctx, tx, id, prereqs); err != nil {
			return err
		}
		return tx.Subject.ReplacePrerequisites(ctx, id, prereqs)
	})
	if err != nil {
		if !errors.Is(err, ErrPrerequisiteCycle) {
			s.logger.Error("更新课程失败", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}

	return s.GetByID(ctx, id)
}

// ────────────────────── Delete ──────────────────────

func (s *subjectService) Delete(ctx context.Context, id string, callerID string) error {
	if _, err := s.getSubject(ctx, id); err != nil {
		return err
	}

	err := mutateCatalog(ctx, s.repo, func(tx *repository.Repository) error {
		return tx.Subject.Delete(ctx, id, callerID)
	})
	if err != nil {
		s.logger.Error("删除课程失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── Summary ──────────────────────

func (s *subjectService) Summary(ctx context.Context) ([]dto.CourseSummary, error) {
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

	result := make([]dto.CourseSummary, 0, len(subjects))
	for i := range subjects {
		sub := &subjects[i]
		item := dto.CourseSummary{
			ID:           sub.SubjectID,
			CourseCode:   sub.CourseCode,
			CourseName:   sub.CourseName,
			Semester:     sub.Semester,
			Credits:      sub.Credits,
			CourseType:   sub.CourseType,
			WeeklyHours:  weeklyPeriods(sub),
			EnrolledSize: counts[sub.SubjectID],
		}
		if sub.Instructor != nil {
			item.Instructor = sub.Instructor.Name
		}
		result = append(result, item)
	}
	return result, nil
}

// ── 内部辅助方法 ──

func (s *subjectService) getSubject(ctx context.Context, id string) (*model.Subject, error) {
	subject, err := s.repo.Subject.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubjectNotFound
		}
		s.logger.Error("查询课程失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return subject, nil
}

func (s *subjectService) ensureCodeFree(ctx context.Context, code, selfID string) error {
	existing, err := s.repo.Subject.GetByCode(ctx, code)
	switch {
	case err == nil && existing.SubjectID != selfID:
		return ErrSubjectCodeExists
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		s.logger.Error("查询课程失败", zap.String("code", code), zap.Error(err))
		return err
	}
	return nil
}

func (s *subjectService) ensureInstructor(ctx context.Context, facultyID *string) error {
	if facultyID == nil {
		return nil
	}
	if _, err := s.repo.Faculty.GetByID(ctx, *facultyID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInstructorNotFound
		}
		s.logger.Error("查询教师失败", zap.String("id", *facultyID), zap.Error(err))
		return err
	}
	return nil
}

// ensurePrerequisites 先修课均存在且不含自身
func (s *subjectService) ensurePrerequisites(ctx context.Context, selfID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	for _, id := range ids {
		if id == selfID {
			return ErrPrerequisiteSelf
		}
	}
	found, err := s.repo.Subject.ListByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("查询先修课程失败", zap.Error(err))
		return err
	}
	if len(found) != len(ids) {
		return ErrPrerequisiteNotFound
	}
	return nil
}

// ensureAcyclic 以新的先修课集合替换后，整张先修关系图仍无环
func (s *subjectService) ensureAcyclic(ctx context.Context, tx *repository.Repository, subjectID string, prereqs []string) error {
	rows, err := tx.Subject.ListPrerequisites(ctx)
	if err != nil {
		return err
	}
	edges := make(map[string][]string)
	for _, r := range rows {
		if r.SubjectID == subjectID {
			continue
		}
		edges[r.SubjectID] = append(edges[r.SubjectID], r.PrerequisiteID)
	}
	edges[subjectID] = prereqs

	if cycle := scheduler.FindPrerequisiteCycle(edges); cycle != nil {
		return fmt.Errorf("%w: %s", ErrPrerequisiteCycle, strings.Join(cycle, " → "))
	}
	return nil
}

// checkSessionHours 实验课必须有实验学时，理论课不能带实验学时
func checkSessionHours(s *model.Subject) error {
	switch s.CourseType {
	case model.CourseTypeTheory:
		if s.MinLabHours > 0 {
			return fmt.Errorf("%w: 理论课不应设置实验学时", ErrSubjectHoursMissing)
		}
	case model.CourseTypeLab:
		if s.MinTheoryHours > 0 {
			return fmt.Errorf("%w: 实验课不应设置理论学时", ErrSubjectHoursMissing)
		}
	}
	return nil
}

// weeklyPeriods 每周排课节次数
func weeklyPeriods(s *model.Subject) int {
	sub := toSchedulerSubject(s)
	return len(scheduler.SessionPlan(&sub, false))
}

func normalizeID(id *string) *string {
	if id == nil || strings.TrimSpace(*id) == "" {
		return nil
	}
	v := strings.TrimSpace(*id)
	return &v
}

func dedupe(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := set[id]; ok {
			continue
		}
		set[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func toSubjectResponse(s *model.Subject) *dto.SubjectResponse {
	resp := &dto.SubjectResponse{
		ID:              s.SubjectID,
		CourseCode:      s.CourseCode,
		CourseName:      s.CourseName,
		Semester:        s.Semester,
		Credits:         s.Credits,
		CourseType:      s.CourseType,
		MinTheoryHours:  s.MinTheoryHours,
		MinLabHours:     s.MinLabHours,
		MaxCapacity:     s.MaxCapacity,
		Department:      s.Department,
		PrerequisiteIDs: make([]string, 0, len(s.Prerequisites)),
		Version:         s.Version,
		CreatedAt:       s.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:       s.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if s.Instructor != nil {
		resp.Instructor = &dto.FacultyBrief{
			ID:         s.Instructor.FacultyID,
			Name:       s.Instructor.Name,
			Department: s.Instructor.Department,
		}
	}
	for _, p := range s.Prerequisites {
		resp.PrerequisiteIDs = append(resp.PrerequisiteIDs, p.PrerequisiteID)
	}
	return resp
}
