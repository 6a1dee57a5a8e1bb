package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"timify/backend/internal/model"
	"timify/backend/internal/repository"
	"timify/backend/internal/scheduler"
	pkgerrors "timify/backend/pkg/errors"
)

// ── 基础数据公共逻辑 ──

// snapshotAttempts 加载期间版本号变化时的重试次数
const snapshotAttempts = 3

// mutateCatalog 在同一事务内执行写操作并推进基础数据版本号
func mutateCatalog(ctx context.Context, repo *repository.Repository, fn func(tx *repository.Repository) error) error {
	return repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := fn(tx); err != nil {
			return err
		}
		_, err := tx.CatalogState.Bump(ctx)
		return err
	})
}

// loadSnapshot 并发读取课程、教室、教师与学分上限，组装为带版本号的只读快照。
// 读取前后版本号不一致说明期间有写入，重新加载。
func loadSnapshot(ctx context.Context, repo *repository.Repository, logger *zap.Logger) (*scheduler.Snapshot, error) {
	for attempt := 1; attempt <= snapshotAttempts; attempt++ {
		before, err := repo.CatalogState.Get(ctx)
		if err != nil {
			logger.Error("读取基础数据版本失败", zap.Error(err))
			return nil, err
		}

		snap, err := readCatalog(ctx, repo)
		if err != nil {
			logger.Error("加载基础数据失败", zap.Error(err))
			return nil, err
		}

		after, err := repo.CatalogState.Get(ctx)
		if err != nil {
			logger.Error("读取基础数据版本失败", zap.Error(err))
			return nil, err
		}
		if before.Version == after.Version {
			snap.Version = before.Version
			return snap, nil
		}
		logger.Warn("加载快照期间基础数据发生变更，重新加载",
			zap.Int("attempt", attempt),
			zap.Int64("before", before.Version),
			zap.Int64("after", after.Version),
		)
	}
	return nil, pkgerrors.ErrConcurrentCatalogChange
}

func readCatalog(ctx context.Context, repo *repository.Repository) (*scheduler.Snapshot, error) {
	var (
		subjects []model.Subject
		rooms    []model.Room
		faculty  []model.Faculty
		limits   []model.CreditLimit
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		subjects, err = repo.Subject.List(gctx, repository.SubjectFilter{})
		return
	})
	g.Go(func() (err error) {
		rooms, err = repo.Room.List(gctx)
		return
	})
	g.Go(func() (err error) {
		faculty, err = repo.Faculty.List(gctx)
		return
	})
	g.Go(func() (err error) {
		limits, err = repo.CreditLimit.List(gctx)
		return
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap := &scheduler.Snapshot{
		Subjects:     make([]scheduler.Subject, 0, len(subjects)),
		Rooms:        make([]scheduler.Room, 0, len(rooms)),
		Faculty:      make([]scheduler.Faculty, 0, len(faculty)),
		CreditLimits: make([]scheduler.CreditLimit, 0, len(limits)),
	}
	for i := range subjects {
		snap.Subjects = append(snap.Subjects, toSchedulerSubject(&subjects[i]))
	}
	for _, r := range rooms {
		snap.Rooms = append(snap.Rooms, scheduler.Room{
			ID:       r.RoomID,
			Code:     r.RoomCode,
			Building: r.Building,
			Capacity: r.Capacity,
			Type:     scheduler.RoomType(r.RoomType),
		})
	}
	for i := range faculty {
		f, err := toSchedulerFaculty(&faculty[i])
		if err != nil {
			return nil, err
		}
		snap.Faculty = append(snap.Faculty, f)
	}
	for _, l := range limits {
		snap.CreditLimits = append(snap.CreditLimits, scheduler.CreditLimit{
			Semester:   l.SemesterNumber,
			MaxCredits: l.MaxCredits,
		})
	}
	return snap, nil
}

func toSchedulerSubject(s *model.Subject) scheduler.Subject {
	out := scheduler.Subject{
		ID:             s.SubjectID,
		Code:           s.CourseCode,
		Name:           s.CourseName,
		Semester:       s.Semester,
		Credits:        s.Credits,
		Type:           scheduler.CourseType(s.CourseType),
		MinTheoryHours: s.MinTheoryHours,
		MinLabHours:    s.MinLabHours,
		Capacity:       s.MaxCapacity,
		Department:     s.Department,
	}
	if s.InstructorID != nil {
		out.FacultyID = *s.InstructorID
	}
	for _, p := range s.Prerequisites {
		out.Prerequisites = append(out.Prerequisites, p.PrerequisiteID)
	}
	return out
}

func toSchedulerFaculty(f *model.Faculty) (scheduler.Faculty, error) {
	avail, err := parseAvailability(f.Availability.Data())
	if err != nil {
		return scheduler.Faculty{}, fmt.Errorf("教师 %s 的可用时间无效: %w", f.Name, err)
	}
	return scheduler.Faculty{
		ID:              f.FacultyID,
		Name:            f.Name,
		Department:      f.Department,
		MaxHoursPerWeek: f.MaxHoursPerWeek,
		Availability:    avail,
	}, nil
}

var errBadAvailability = errors.New("可用时间格式错误")

// parseAvailability 将 {"monday": {"start":"09:00",...}} 转为按星期下标的分钟区间。
// 未出现的星期视为不可用。
func parseAvailability(w model.WeeklyAvailability) (map[int]scheduler.DayWindow, error) {
	out := make(map[int]scheduler.DayWindow, len(w))
	for name, day := range w {
		idx, ok := scheduler.ParseDay(name)
		if !ok {
			return nil, fmt.Errorf("%w: 未知星期 %q", errBadAvailability, name)
		}
		start, err := scheduler.ParseClock(day.Start)
		if err != nil {
			return nil, fmt.Errorf("%w: %s.start: %v", errBadAvailability, name, err)
		}
		end, err := scheduler.ParseClock(day.End)
		if err != nil {
			return nil, fmt.Errorf("%w: %s.end: %v", errBadAvailability, name, err)
		}
		if day.Available && end <= start {
			return nil, fmt.Errorf("%w: %s 结束时间须晚于开始时间", errBadAvailability, name)
		}
		out[idx] = scheduler.DayWindow{Available: day.Available, Start: start, End: end}
	}
	return out, nil
}
