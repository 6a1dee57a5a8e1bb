package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"timify/backend/config"
	"timify/backend/internal/dto"
	"timify/backend/internal/model"
	"timify/backend/internal/repository"
	"timify/backend/internal/scheduler"
)

// ── 课表模块业务错误 ──

var (
	ErrTimetableNotFound    = errors.New("课表不存在")
	ErrNoPublishedTimetable = errors.New("暂无已发布的课表")
	ErrGenerationInProgress = errors.New("已有排课任务在运行，请稍后再试")
	ErrTimetablePublished   = errors.New("已发布的课表不能删除")
)

const generationLockKey = "timetable:generate"

// GenerationLocker 跨实例的排课互斥锁，通常由 Redis 实现
type GenerationLocker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	ReleaseLock(ctx context.Context, key, token string) error
}

// TimetableService 课表业务接口
type TimetableService interface {
	// Generate 基于当前基础数据快照排课，保存为草稿或直接发布
	Generate(ctx context.Context, req *dto.GenerateTimetableRequest, callerID string) (*dto.GenerateTimetableResponse, error)
	Publish(ctx context.Context, id string) (*dto.TimetableResponse, error)
	GetByID(ctx context.Context, id string) (*dto.TimetableResponse, error)
	List(ctx context.Context, req *dto.TimetableListRequest) ([]dto.TimetableResponse, int64, error)
	Delete(ctx context.Context, id string) error
	// Reset 删除全部课表
	Reset(ctx context.Context) (int64, error)

	// MasterView 指定课表（为空时取已发布课表）的全量网格
	MasterView(ctx context.Context, timetableID string) (*dto.TimetableGridResponse, error)
	FacultyView(ctx context.Context, facultyID string) (*dto.TimetableGridResponse, error)
	// StaffView 以 staff 账号查看本人课表
	StaffView(ctx context.Context, userID string) (*dto.TimetableGridResponse, error)
	StudentView(ctx context.Context, studentID string) (*dto.TimetableGridResponse, error)
	RoomView(ctx context.Context, roomID string) (*dto.TimetableGridResponse, error)
	// RoomSchedule 已发布课表按教室排列的明细
	RoomSchedule(ctx context.Context) ([]dto.SlotEntry, error)

	StaffSubjects(ctx context.Context, userID string) ([]dto.StaffSubjectResponse, error)
	StaffDashboard(ctx context.Context, userID string) (*dto.StaffDashboardResponse, error)
	AdminDashboard(ctx context.Context) (*dto.AdminDashboardResponse, error)
}

type timetableService struct {
	cfg       *config.Config
	repo      *repository.Repository
	publisher *Publisher
	locker    GenerationLocker
	logger    *zap.Logger

	// 本进程内的互斥；locker 负责多实例之间
	running sync.Mutex
	now     func() time.Time
}

// NewTimetableService 创建 TimetableService 实例；locker 为 nil 时只做进程内互斥
func NewTimetableService(
	cfg *config.Config,
	repo *repository.Repository,
	locker GenerationLocker,
	logger *zap.Logger,
) TimetableService {
	return &timetableService{
		cfg:       cfg,
		repo:      repo,
		publisher: NewPublisher(repo, logger),
		locker:    locker,
		logger:    logger,
		now:       time.Now,
	}
}

// ════════════════════════════════════════════════════════════
// Generate
//
// 流程：
//   1. 取得排课互斥锁（进程内 + Redis）
//   2. 读取带版本号的基础数据快照
//   3. 运行排课引擎（预算耗尽时返回尽力而为的结果）
//   4. 保存草稿，或在同一事务内归档旧课表并发布新课表
// ════════════════════════════════════════════════════════════

func (s *timetableService) Generate(ctx context.Context, req *dto.GenerateTimetableRequest, callerID string) (*dto.GenerateTimetableResponse, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	snap, err := loadSnapshot(ctx, s.repo, s.logger)
	if err != nil {
		return nil, err
	}

	engine := scheduler.NewEngine(s.engineOptions(req))
	res, err := engine.Run(ctx, snap)
	if err != nil {
		if !errors.Is(err, scheduler.ErrInvalidCatalog) {
			s.logger.Error("排课失败", zap.Error(err))
		}
		return nil, err
	}

	t, slots := s.buildTimetable(req, res, callerID)
	if req.Publish {
		err = s.publisher.Publish(ctx, t, slots)
	} else {
		err = s.publisher.SaveDraft(ctx, t, slots)
	}
	if err != nil {
		return nil, err
	}

	return &dto.GenerateTimetableResponse{
		Timetable: *toTimetableResponse(t),
		Outcome:   string(res.Outcome),
	}, nil
}

// acquire 取得排课互斥锁，返回释放函数
func (s *timetableService) acquire(ctx context.Context) (func(), error) {
	if !s.running.TryLock() {
		return nil, ErrGenerationInProgress
	}
	if s.locker == nil {
		return s.running.Unlock, nil
	}

	token, ok, err := s.locker.AcquireLock(ctx, generationLockKey, s.cfg.Scheduler.LockTTL)
	if err != nil {
		// Redis 不可用时退化为进程内互斥
		s.logger.Warn("获取排课分布式锁失败，仅使用进程内互斥", zap.Error(err))
		return s.running.Unlock, nil
	}
	if !ok {
		s.running.Unlock()
		return nil, ErrGenerationInProgress
	}

	return func() {
		// 请求上下文可能已取消，释放锁使用独立上下文
		releaseCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := s.locker.ReleaseLock(releaseCtx, generationLockKey, token); err != nil {
			s.logger.Warn("释放排课分布式锁失败", zap.Error(err))
		}
		s.running.Unlock()
	}, nil
}

func (s *timetableService) engineOptions(req *dto.GenerateTimetableRequest) scheduler.Options {
	opts := scheduler.Options{
		MaxBacktracks:     s.cfg.Scheduler.MaxBacktracks,
		MaxNodes:          s.cfg.Scheduler.MaxNodes,
		Timeout:           s.cfg.Scheduler.Timeout,
		AllowSameDay:      s.cfg.Scheduler.AllowSameDay,
		RelaxSessionCount: req.RelaxSessionCount,
		Seed:              req.Seed,
		Logger:            s.logger,
	}
	if req.AllowSameDay != nil {
		opts.AllowSameDay = *req.AllowSameDay
	}
	return opts
}

// buildTimetable 将引擎结果转换为待写入的课表与明细
func (s *timetableService) buildTimetable(req *dto.GenerateTimetableRequest, res *scheduler.Result, callerID string) (*model.Timetable, []model.TimetableSlot) {
	name := req.Name
	if name == "" {
		name = "Timetable " + s.now().Format("2006-01-02 15:04")
	}

	unplaced := make([]model.UnplacedEntry, 0, len(res.Unplaced))
	for _, u := range res.Unplaced {
		unplaced = append(unplaced, model.UnplacedEntry{
			SubjectID:    u.SubjectID,
			SubjectCode:  u.SubjectCode,
			SessionIndex: u.SessionIndex,
			Kind:         string(u.Kind),
			Reason:       string(u.Reason),
		})
	}
	warnings := append([]string{}, res.Warnings...)

	t := &model.Timetable{
		Name:           name,
		AcademicYear:   req.AcademicYear,
		Status:         model.TimetableDraft,
		CatalogVersion: res.SnapshotVersion,
		Unplaced:       datatypes.NewJSONType(unplaced),
		Warnings:       datatypes.NewJSONType(warnings),
		Stats: datatypes.NewJSONType(model.GenerationStats{
			Sessions:        res.Stats.Sessions,
			Placed:          res.Stats.Placed,
			Backtracks:      res.Stats.Backtracks,
			Nodes:           res.Stats.Nodes,
			BudgetExhausted: res.Stats.BudgetExhausted,
			ElapsedMS:       res.Stats.Elapsed.Milliseconds(),
			Relaxed:         res.Relaxed,
		}),
	}
	t.CreatedBy = &callerID

	slots := make([]model.TimetableSlot, 0, len(res.Assignments))
	for _, a := range res.Assignments {
		slots = append(slots, model.TimetableSlot{
			SubjectID:    a.SubjectID,
			RoomID:       a.RoomID,
			InstructorID: a.FacultyID,
			DayOfWeek:    a.Slot.Day + 1,
			Period:       a.Slot.Period,
			SessionIndex: a.SessionIndex,
			SlotType:     string(a.Kind),
			StartTime:    a.Slot.StartTime(),
			EndTime:      a.Slot.EndTime(),
		})
	}
	return t, slots
}

// ────────────────────── Publish ──────────────────────

func (s *timetableService) Publish(ctx context.Context, id string) (*dto.TimetableResponse, error) {
	t, err := s.publisher.PublishDraft(ctx, id)
	if err != nil {
		return nil, err
	}
	return toTimetableResponse(t), nil
}

// ────────────────────── GetByID / List ──────────────────────

func (s *timetableService) GetByID(ctx context.Context, id string) (*dto.TimetableResponse, error) {
	t, err := s.getTimetable(ctx, id)
	if err != nil {
		return nil, err
	}
	return toTimetableResponse(t), nil
}

func (s *timetableService) List(ctx context.Context, req *dto.TimetableListRequest) ([]dto.TimetableResponse, int64, error) {
	list, total, err := s.repo.Timetable.List(ctx, req.Status, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出课表失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.TimetableResponse, 0, len(list))
	for i := range list {
		result = append(result, *toTimetableResponse(&list[i]))
	}
	return result, total, nil
}

// ────────────────────── Delete / Reset ──────────────────────

func (s *timetableService) Delete(ctx context.Context, id string) error {
	t, err := s.getTimetable(ctx, id)
	if err != nil {
		return err
	}
	if t.Status == model.TimetablePublished {
		return ErrTimetablePublished
	}
	if err := s.repo.Timetable.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTimetableNotFound
		}
		s.logger.Error("删除课表失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *timetableService) Reset(ctx context.Context) (int64, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer release()

	n, err := s.repo.Timetable.DeleteAll(ctx)
	if err != nil {
		s.logger.Error("清空课表失败", zap.Error(err))
		return 0, err
	}
	s.logger.Info("已清空全部课表", zap.Int64("deleted", n))
	return n, nil
}

// ════════════════════════════════════════════════════════════
// 视图
//
// 视图只读取已提交的课表数据，不参与排课运行。
// 个人视图在没有已发布课表或身份无对应数据时返回空网格。
// ════════════════════════════════════════════════════════════

func (s *timetableService) MasterView(ctx context.Context, timetableID string) (*dto.TimetableGridResponse, error) {
	var (
		t   *model.Timetable
		err error
	)
	if timetableID == "" {
		t, err = s.published(ctx)
		if err == nil && t == nil {
			return nil, ErrNoPublishedTimetable
		}
	} else {
		t, err = s.getTimetable(ctx, timetableID)
	}
	if err != nil {
		return nil, err
	}
	return s.project(ctx, t, scheduler.ViewFilter{Kind: scheduler.ViewMaster})
}

func (s *timetableService) FacultyView(ctx context.Context, facultyID string) (*dto.TimetableGridResponse, error) {
	return s.projectPublished(ctx, scheduler.ViewFilter{Kind: scheduler.ViewStaff, FacultyID: facultyID})
}

func (s *timetableService) StaffView(ctx context.Context, userID string) (*dto.TimetableGridResponse, error) {
	facultyID, err := s.facultyIDOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.FacultyView(ctx, facultyID)
}

func (s *timetableService) StudentView(ctx context.Context, studentID string) (*dto.TimetableGridResponse, error) {
	list, err := s.repo.Enrollment.ListByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("查询已选课程失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}
	ids := make([]string, 0, len(list))
	for _, e := range list {
		ids = append(ids, e.SubjectID)
	}
	return s.projectPublished(ctx, scheduler.ViewFilter{Kind: scheduler.ViewStudent, SubjectIDs: ids})
}

func (s *timetableService) RoomView(ctx context.Context, roomID string) (*dto.TimetableGridResponse, error) {
	return s.projectPublished(ctx, scheduler.ViewFilter{Kind: scheduler.ViewRoom, RoomID: roomID})
}

func (s *timetableService) RoomSchedule(ctx context.Context) ([]dto.SlotEntry, error) {
	grid, err := s.projectPublished(ctx, scheduler.ViewFilter{Kind: scheduler.ViewMaster})
	if err != nil {
		return nil, err
	}
	entries := append([]dto.SlotEntry{}, grid.Entries...)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].RoomCode < entries[j].RoomCode
	})
	return entries, nil
}

func (s *timetableService) projectPublished(ctx context.Context, f scheduler.ViewFilter) (*dto.TimetableGridResponse, error) {
	t, err := s.published(ctx)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return emptyGrid(f.Kind), nil
	}
	return s.project(ctx, t, f)
}

// project 读取课表明细并按过滤条件投影为网格
func (s *timetableService) project(ctx context.Context, t *model.Timetable, f scheduler.ViewFilter) (*dto.TimetableGridResponse, error) {
	slots, err := s.repo.TimetableSlot.ListByTimetable(ctx, t.TimetableID)
	if err != nil {
		s.logger.Error("查询课表明细失败", zap.String("id", t.TimetableID), zap.Error(err))
		return nil, err
	}

	assignments := make([]scheduler.Assignment, 0, len(slots))
	details := make(map[sessionKey]*model.TimetableSlot, len(slots))
	for i := range slots {
		a := toAssignment(&slots[i])
		assignments = append(assignments, a)
		details[sessionKey{a.SubjectID, a.SessionIndex}] = &slots[i]
	}

	grid := scheduler.Project(assignments, f)
	resp := emptyGrid(f.Kind)
	resp.TimetableID = t.TimetableID
	for d := 0; d < scheduler.DaysPerWeek; d++ {
		for c := 0; c < scheduler.ColumnsPerDay; c++ {
			for _, a := range grid.Cells[d][c] {
				entry := toSlotEntry(a, details[sessionKey{a.SubjectID, a.SessionIndex}])
				resp.Cells[d][c] = append(resp.Cells[d][c], entry)
				resp.Entries = append(resp.Entries, entry)
			}
		}
	}
	return resp, nil
}

type sessionKey struct {
	subjectID string
	index     int
}

// ════════════════════════════════════════════════════════════
// 教师与管理端统计
// ════════════════════════════════════════════════════════════

func (s *timetableService) StaffSubjects(ctx context.Context, userID string) ([]dto.StaffSubjectResponse, error) {
	facultyID, err := s.facultyIDOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	if facultyID == "" {
		return []dto.StaffSubjectResponse{}, nil
	}

	subjects, err := s.repo.Subject.List(ctx, repository.SubjectFilter{})
	if err != nil {
		s.logger.Error("列出课程失败", zap.Error(err))
		return nil, err
	}
	// 已发布课表中由本人承担的课次，含按院系教师池分配的课程
	grid, err := s.FacultyView(ctx, facultyID)
	if err != nil {
		return nil, err
	}
	scheduled := make(map[string]int)
	for _, e := range grid.Entries {
		scheduled[e.SubjectID]++
	}

	var (
		mine []*model.Subject
		ids  []string
	)
	for i := range subjects {
		fixed := subjects[i].InstructorID != nil && *subjects[i].InstructorID == facultyID
		if fixed || scheduled[subjects[i].SubjectID] > 0 {
			mine = append(mine, &subjects[i])
			ids = append(ids, subjects[i].SubjectID)
		}
	}

	counts, err := s.repo.Enrollment.CountEnrolled(ctx, ids)
	if err != nil {
		s.logger.Error("统计选课人数失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.StaffSubjectResponse, 0, len(mine))
	for _, sub := range mine {
		result = append(result, dto.StaffSubjectResponse{
			ID:               sub.SubjectID,
			CourseCode:       sub.CourseCode,
			CourseName:       sub.CourseName,
			Semester:         sub.Semester,
			Credits:          sub.Credits,
			CourseType:       sub.CourseType,
			MinTheoryHours:   sub.MinTheoryHours,
			MinLabHours:      sub.MinLabHours,
			MaxCapacity:      sub.MaxCapacity,
			EnrolledStudents: counts[sub.SubjectID],
			ScheduledPeriods: scheduled[sub.SubjectID],
		})
	}
	return result, nil
}

func (s *timetableService) StaffDashboard(ctx context.Context, userID string) (*dto.StaffDashboardResponse, error) {
	subjects, err := s.StaffSubjects(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := &dto.StaffDashboardResponse{SubjectsAssigned: len(subjects)}
	for _, sub := range subjects {
		resp.ClassesPerWeek += sub.ScheduledPeriods
		resp.TotalStudents += sub.EnrolledStudents
	}
	return resp, nil
}

func (s *timetableService) AdminDashboard(ctx context.Context) (*dto.AdminDashboardResponse, error) {
	var (
		resp = &dto.AdminDashboardResponse{}
		err  error
	)
	if resp.Rooms, err = s.repo.Room.Count(ctx); err != nil {
		return nil, s.countFailed("rooms", err)
	}
	if resp.Subjects, err = s.repo.Subject.Count(ctx); err != nil {
		return nil, s.countFailed("subjects", err)
	}
	if resp.Faculty, err = s.repo.Faculty.Count(ctx); err != nil {
		return nil, s.countFailed("faculty", err)
	}
	if resp.Students, err = s.repo.User.CountByRole(ctx, model.RoleStudent); err != nil {
		return nil, s.countFailed("students", err)
	}
	if resp.Timetables, err = s.repo.Timetable.CountByStatus(ctx); err != nil {
		return nil, s.countFailed("timetables", err)
	}

	state, err := s.repo.CatalogState.Get(ctx)
	if err != nil {
		return nil, s.countFailed("catalog_state", err)
	}
	resp.CatalogVersion = state.Version

	t, err := s.published(ctx)
	if err != nil {
		return nil, err
	}
	if t != nil {
		resp.PublishedTimetableID = t.TimetableID
	}
	return resp, nil
}

func (s *timetableService) countFailed(what string, err error) error {
	s.logger.Error("统计失败", zap.String("target", what), zap.Error(err))
	return err
}

// ── 内部辅助方法 ──

func (s *timetableService) getTimetable(ctx context.Context, id string) (*model.Timetable, error) {
	t, err := s.repo.Timetable.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTimetableNotFound
		}
		s.logger.Error("查询课表失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return t, nil
}

// published 当前已发布课表，没有时返回 nil
func (s *timetableService) published(ctx context.Context) (*model.Timetable, error) {
	t, err := s.repo.Timetable.GetPublished(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		s.logger.Error("查询已发布课表失败", zap.Error(err))
		return nil, err
	}
	return t, nil
}

// facultyIDOf staff 账号对应的教师 ID，没有教师档案时返回空串
func (s *timetableService) facultyIDOf(ctx context.Context, userID string) (string, error) {
	f, err := s.repo.Faculty.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		s.logger.Error("查询教师档案失败", zap.String("user_id", userID), zap.Error(err))
		return "", err
	}
	return f.FacultyID, nil
}

func toAssignment(slot *model.TimetableSlot) scheduler.Assignment {
	a := scheduler.Assignment{
		SubjectID:    slot.SubjectID,
		SessionIndex: slot.SessionIndex,
		Kind:         scheduler.SessionKind(slot.SlotType),
		Slot:         scheduler.Slot{Day: slot.DayOfWeek - 1, Period: slot.Period},
		RoomID:       slot.RoomID,
		FacultyID:    slot.InstructorID,
	}
	if slot.Subject != nil {
		a.SubjectCode = slot.Subject.CourseCode
	}
	if slot.Room != nil {
		a.RoomCode = slot.Room.RoomCode
	}
	return a
}

func toSlotEntry(a scheduler.Assignment, slot *model.TimetableSlot) dto.SlotEntry {
	e := dto.SlotEntry{
		SubjectID:    a.SubjectID,
		CourseCode:   a.SubjectCode,
		SessionIndex: a.SessionIndex,
		SlotType:     string(a.Kind),
		RoomID:       a.RoomID,
		RoomCode:     a.RoomCode,
		FacultyID:    a.FacultyID,
		DayOfWeek:    a.Slot.Day + 1,
		Period:       a.Slot.Period,
		StartTime:    a.Slot.StartTime(),
		EndTime:      a.Slot.EndTime(),
	}
	if slot == nil {
		return e
	}
	if slot.Subject != nil {
		e.CourseName = slot.Subject.CourseName
	}
	if slot.Room != nil {
		e.Building = slot.Room.Building
	}
	if slot.Instructor != nil {
		e.InstructorName = slot.Instructor.Name
	}
	return e
}

// emptyGrid 5 天 × 7 列的空网格
func emptyGrid(kind scheduler.ViewKind) *dto.TimetableGridResponse {
	resp := &dto.TimetableGridResponse{
		View:    string(kind),
		Days:    append([]string(nil), scheduler.DayLabels[:]...),
		Columns: make([]dto.GridColumn, 0, scheduler.ColumnsPerDay),
		Cells:   make([][][]dto.SlotEntry, scheduler.DaysPerWeek),
		Entries: []dto.SlotEntry{},
	}
	if resp.View == "" {
		resp.View = string(scheduler.ViewMaster)
	}
	for c := 0; c < scheduler.ColumnsPerDay; c++ {
		p := scheduler.PeriodOfColumn(c)
		resp.Columns = append(resp.Columns, dto.GridColumn{Period: p, Label: scheduler.PeriodLabel(p)})
	}
	for d := range resp.Cells {
		resp.Cells[d] = make([][]dto.SlotEntry, scheduler.ColumnsPerDay)
		for c := range resp.Cells[d] {
			resp.Cells[d][c] = []dto.SlotEntry{}
		}
	}
	return resp
}

func toTimetableResponse(t *model.Timetable) *dto.TimetableResponse {
	stats := t.Stats.Data()
	resp := &dto.TimetableResponse{
		ID:             t.TimetableID,
		Name:           t.Name,
		AcademicYear:   t.AcademicYear,
		Status:         t.Status,
		CatalogVersion: t.CatalogVersion,
		SlotCount:      stats.Placed,
		Unplaced:       make([]dto.UnplacedResponse, 0),
		Warnings:       append([]string{}, t.Warnings.Data()...),
		Stats: dto.GenerationStatsResponse{
			Sessions:        stats.Sessions,
			Placed:          stats.Placed,
			Backtracks:      stats.Backtracks,
			Nodes:           stats.Nodes,
			BudgetExhausted: stats.BudgetExhausted,
			ElapsedMS:       stats.ElapsedMS,
			Relaxed:         stats.Relaxed,
		},
		CreatedAt: t.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	for _, u := range t.Unplaced.Data() {
		resp.Unplaced = append(resp.Unplaced, dto.UnplacedResponse{
			SubjectID:    u.SubjectID,
			SubjectCode:  u.SubjectCode,
			SessionIndex: u.SessionIndex,
			Kind:         u.Kind,
			Reason:       u.Reason,
		})
	}
	if t.PublishedAt != nil {
		v := t.PublishedAt.Format("2006-01-02T15:04:05Z")
		resp.PublishedAt = &v
	}
	if t.ArchivedAt != nil {
		v := t.ArchivedAt.Format("2006-01-02T15:04:05Z")
		resp.ArchivedAt = &v
	}
	return resp
}
