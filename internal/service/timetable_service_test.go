package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"timify/backend/internal/dto"
	"timify/backend/internal/model"
	"timify/backend/internal/scheduler"
	pkgerrors "timify/backend/pkg/errors"
)

// ── 测试辅助 ──

type mockLocker struct {
	mu       sync.Mutex
	held     bool
	fail     error
	released []string
}

func (m *mockLocker) AcquireLock(_ context.Context, _ string, _ time.Duration) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return "", false, m.fail
	}
	if m.held {
		return "", false, nil
	}
	m.held = true
	return "token-1", true, nil
}

func (m *mockLocker) ReleaseLock(_ context.Context, _, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.held = false
	m.released = append(m.released, token)
	return nil
}

// seedCatalog 一位教师、一间普通教室、一间实验室、两门课程，共 4 个课次
func seedCatalog(st *memStore) {
	seedFaculty(st, "f-1", "u-f1", "Dr. Rao")
	st.rooms["r-lec"] = model.Room{RoomID: "r-lec", RoomCode: "R101", Building: "Main", Capacity: 60, RoomType: model.RoomTypeLecture}
	st.rooms["r-lab"] = model.Room{RoomID: "r-lab", RoomCode: "L201", Building: "Main", Capacity: 30, RoomType: model.RoomTypeLab}
	seedSubject(st, model.Subject{
		SubjectID: "s-1", CourseCode: "CS101", CourseName: "Programming", Semester: 1, Credits: 4,
		CourseType: model.CourseTypeTheory, MinTheoryHours: 2, InstructorID: strPtr("f-1"),
	})
	seedSubject(st, model.Subject{
		SubjectID: "s-2", CourseCode: "CS102", CourseName: "Circuits", Semester: 1, Credits: 3,
		CourseType: model.CourseTypeLabCumTheory, MinTheoryHours: 1, MinLabHours: 1, InstructorID: strPtr("f-1"),
	})
}

func setupTestTimetableService(locker GenerationLocker) (TimetableService, *memStore) {
	st := newMemStore()
	seedCatalog(st)
	var svc TimetableService
	if locker == nil {
		svc = NewTimetableService(testConfig(), newMockRepository(st), nil, zap.NewNop())
	} else {
		svc = NewTimetableService(testConfig(), newMockRepository(st), locker, zap.NewNop())
	}
	return svc, st
}

func generate(t *testing.T, svc TimetableService, publish bool) *dto.GenerateTimetableResponse {
	t.Helper()
	resp, err := svc.Generate(context.Background(), &dto.GenerateTimetableRequest{Name: "2026 秋", Publish: publish}, "admin-1")
	if err != nil {
		t.Fatalf("Generate 应成功: %v", err)
	}
	return resp
}

func slotsOf(st *memStore, timetableID string) []model.TimetableSlot {
	var out []model.TimetableSlot
	for _, s := range st.slots {
		if s.TimetableID == timetableID {
			out = append(out, s)
		}
	}
	return out
}

// ════════════════════════════════════════════════════════════
// Generate
// ════════════════════════════════════════════════════════════

func TestTimetableService_Generate_Draft(t *testing.T) {
	svc, st := setupTestTimetableService(nil)

	resp := generate(t, svc, false)
	tt := resp.Timetable
	if tt.Status != model.TimetableDraft {
		t.Errorf("期望草稿状态，实际 %s", tt.Status)
	}
	if resp.Outcome != string(scheduler.StateComplete) {
		t.Errorf("期望 complete，实际 %s，未排: %+v", resp.Outcome, tt.Unplaced)
	}
	if tt.Stats.Sessions != 4 || tt.Stats.Placed != 4 || tt.SlotCount != 4 {
		t.Errorf("统计不符: %+v slot_count=%d", tt.Stats, tt.SlotCount)
	}
	if tt.CatalogVersion != 1 {
		t.Errorf("期望快照版本 1，实际 %d", tt.CatalogVersion)
	}

	slots := slotsOf(st, tt.ID)
	if len(slots) != 4 {
		t.Fatalf("期望写入 4 条明细，实际 %d", len(slots))
	}
	for _, s := range slots {
		if s.DayOfWeek < 1 || s.DayOfWeek > 5 {
			t.Errorf("星期应在 1..5，实际 %d", s.DayOfWeek)
		}
		if s.Period == scheduler.LunchPeriod {
			t.Errorf("%s 不应排在午休节次", s.SubjectID)
		}
		wantRoom := "r-lec"
		if s.SlotType == string(scheduler.SessionLab) {
			wantRoom = "r-lab"
		}
		if s.RoomID != wantRoom {
			t.Errorf("%s(%s) 期望教室 %s，实际 %s", s.SubjectID, s.SlotType, wantRoom, s.RoomID)
		}
	}

	if _, err := svc.MasterView(context.Background(), ""); !errors.Is(err, ErrNoPublishedTimetable) {
		t.Errorf("草稿不应成为已发布课表，实际: %v", err)
	}
}

func TestTimetableService_Generate_Deterministic(t *testing.T) {
	svc, st := setupTestTimetableService(nil)

	first := generate(t, svc, false)
	second := generate(t, svc, false)

	a, b := slotsOf(st, first.Timetable.ID), slotsOf(st, second.Timetable.ID)
	if len(a) != len(b) {
		t.Fatalf("两次结果课次数不同: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].SubjectID != b[i].SubjectID || a[i].RoomID != b[i].RoomID ||
			a[i].DayOfWeek != b[i].DayOfWeek || a[i].Period != b[i].Period {
			t.Errorf("第 %d 条明细不同: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestTimetableService_Generate_PublishArchivesPrevious(t *testing.T) {
	svc, st := setupTestTimetableService(nil)

	first := generate(t, svc, true)
	if first.Timetable.Status != model.TimetablePublished || first.Timetable.PublishedAt == nil {
		t.Fatalf("应直接发布: %+v", first.Timetable)
	}
	second := generate(t, svc, true)

	if got := st.timetables[first.Timetable.ID].Status; got != model.TimetableArchived {
		t.Errorf("旧课表应归档，实际 %s", got)
	}
	published := 0
	for _, tt := range st.timetables {
		if tt.Status == model.TimetablePublished {
			published++
		}
	}
	if published != 1 {
		t.Errorf("同一时刻应只有 1 份已发布课表，实际 %d", published)
	}

	grid, err := svc.MasterView(context.Background(), "")
	if err != nil {
		t.Fatalf("MasterView 应成功: %v", err)
	}
	if grid.TimetableID != second.Timetable.ID {
		t.Errorf("MasterView 应返回最新发布的课表，实际 %s", grid.TimetableID)
	}
}

func TestTimetableService_Generate_ConcurrentCatalogChange(t *testing.T) {
	svc, st := setupTestTimetableService(nil)
	// 快照之后、发布之前有人修改了基础数据
	st.onLock = func() {
		st.mu.Lock()
		st.version++
		st.mu.Unlock()
	}

	_, err := svc.Generate(context.Background(), &dto.GenerateTimetableRequest{Publish: true}, "admin-1")
	if !errors.Is(err, pkgerrors.ErrConcurrentCatalogChange) {
		t.Fatalf("期望 ErrConcurrentCatalogChange，实际: %v", err)
	}
	if st.lockCalled != 1 {
		t.Errorf("发布前应锁定版本行 1 次，实际 %d", st.lockCalled)
	}
	if len(st.timetables) != 0 || len(st.slots) != 0 {
		t.Error("版本冲突时不应写入任何课表")
	}
}

func TestTimetableService_Generate_PersistenceFailureIsAtomic(t *testing.T) {
	svc, st := setupTestTimetableService(nil)
	first := generate(t, svc, true)

	st.failSlots = errors.New("disk full")
	_, err := svc.Generate(context.Background(), &dto.GenerateTimetableRequest{Publish: true}, "admin-1")

	var pe *PersistenceError
	if !errors.As(err, &pe) {
		t.Fatalf("期望 PersistenceError，实际: %v", err)
	}
	if pe.Op != "create_slots" {
		t.Errorf("期望失败步骤 create_slots，实际 %s", pe.Op)
	}

	if len(st.timetables) != 1 {
		t.Errorf("失败后不应留下新课表，实际 %d 份", len(st.timetables))
	}
	if got := st.timetables[first.Timetable.ID].Status; got != model.TimetablePublished {
		t.Errorf("原已发布课表应保持发布，实际 %s", got)
	}
}

func TestTimetableService_Generate_InvalidCatalog(t *testing.T) {
	svc, st := setupTestTimetableService(nil)
	seedSubject(st, model.Subject{
		SubjectID: "s-bad", CourseCode: "CS999", Semester: 1,
		CourseType: model.CourseTypeTheory, InstructorID: strPtr("ghost"),
	})

	_, err := svc.Generate(context.Background(), &dto.GenerateTimetableRequest{}, "admin-1")
	if !errors.Is(err, scheduler.ErrInvalidCatalog) {
		t.Errorf("期望 ErrInvalidCatalog，实际: %v", err)
	}
}

func TestTimetableService_Generate_DepartmentWithoutFacultyIsUnplaced(t *testing.T) {
	svc, _ := setupTestTimetableService(nil)
	resp := generate(t, svc, false)
	base := resp.Timetable.Stats.Sessions

	svc2, st2 := setupTestTimetableService(nil)
	seedSubject(st2, model.Subject{
		SubjectID: "s-3", CourseCode: "CS103", Semester: 1, Department: "ECE",
		CourseType: model.CourseTypeTheory, MinTheoryHours: 1,
	})
	resp2 := generate(t, svc2, false)

	if resp2.Outcome != string(scheduler.StatePartial) {
		t.Errorf("院系无教师的课程应导致 partial，实际 %s", resp2.Outcome)
	}
	if resp2.Timetable.Stats.Sessions != base+1 || len(resp2.Timetable.Unplaced) != 1 {
		t.Fatalf("期望多 1 个未排课次: %+v", resp2.Timetable)
	}
	u := resp2.Timetable.Unplaced[0]
	if u.SubjectCode != "CS103" || u.Reason != string(scheduler.ReasonNoFaculty) {
		t.Errorf("未排课次应为 CS103/no_faculty，实际 %+v", u)
	}
}

func TestTimetableService_Generate_NoDepartmentUsesWholePool(t *testing.T) {
	svc, st := setupTestTimetableService(nil)
	seedSubject(st, model.Subject{
		SubjectID: "s-3", CourseCode: "CS103", Semester: 1,
		CourseType: model.CourseTypeTheory, MinTheoryHours: 1,
	})

	resp := generate(t, svc, false)
	if resp.Outcome != string(scheduler.StateComplete) {
		t.Fatalf("未指定院系的课程应由任一教师承担，实际 %s，未排: %+v", resp.Outcome, resp.Timetable.Unplaced)
	}
	found := false
	for _, s := range slotsOf(st, resp.Timetable.ID) {
		if s.SubjectID == "s-3" {
			found = true
			if s.InstructorID != "f-1" {
				t.Errorf("CS103 应分配给 f-1，实际 %s", s.InstructorID)
			}
		}
	}
	if !found {
		t.Error("CS103 应写入课表明细")
	}
}

func TestTimetableService_Generate_RelaxSessionCount(t *testing.T) {
	svc, _ := setupTestTimetableService(nil)

	resp, err := svc.Generate(context.Background(), &dto.GenerateTimetableRequest{RelaxSessionCount: true}, "admin-1")
	if err != nil {
		t.Fatalf("Generate 应成功: %v", err)
	}
	if !resp.Timetable.Stats.Relaxed || resp.Timetable.Stats.Sessions != 2 {
		t.Errorf("放宽后每门课仅 1 个课次: %+v", resp.Timetable.Stats)
	}
	if len(resp.Timetable.Warnings) == 0 {
		t.Error("放宽课时应给出警告")
	}
}

// ── 排课互斥 ──

func TestTimetableService_Generate_LockHeldElsewhere(t *testing.T) {
	locker := &mockLocker{held: true}
	svc, st := setupTestTimetableService(locker)

	_, err := svc.Generate(context.Background(), &dto.GenerateTimetableRequest{}, "admin-1")
	if !errors.Is(err, ErrGenerationInProgress) {
		t.Fatalf("期望 ErrGenerationInProgress，实际: %v", err)
	}
	if len(st.timetables) != 0 {
		t.Error("未取得锁时不应生成课表")
	}

	// 进程内锁已释放，分布式锁释放后可再次生成
	locker.held = false
	generate(t, svc, false)
	if len(locker.released) != 1 || locker.released[0] != "token-1" {
		t.Errorf("生成结束后应释放分布式锁，实际 %v", locker.released)
	}
}

func TestTimetableService_Generate_LockerUnavailableFallsBack(t *testing.T) {
	locker := &mockLocker{fail: errors.New("redis down")}
	svc, _ := setupTestTimetableService(locker)

	generate(t, svc, false)
	if len(locker.released) != 0 {
		t.Error("未取得分布式锁时不应释放")
	}
}

func TestTimetableService_Generate_InProcessMutex(t *testing.T) {
	svc, _ := setupTestTimetableService(nil)
	impl := svc.(*timetableService)

	impl.running.Lock()
	_, err := svc.Generate(context.Background(), &dto.GenerateTimetableRequest{}, "admin-1")
	impl.running.Unlock()
	if !errors.Is(err, ErrGenerationInProgress) {
		t.Errorf("期望 ErrGenerationInProgress，实际: %v", err)
	}
	if _, err := svc.Reset(context.Background()); err != nil {
		t.Errorf("释放后 Reset 应成功: %v", err)
	}
}

// ════════════════════════════════════════════════════════════
// Publish / Delete / Reset
// ════════════════════════════════════════════════════════════

func TestTimetableService_PublishDraft(t *testing.T) {
	svc, st := setupTestTimetableService(nil)
	ctx := context.Background()

	old := generate(t, svc, true)
	draft := generate(t, svc, false)

	resp, err := svc.Publish(ctx, draft.Timetable.ID)
	if err != nil {
		t.Fatalf("Publish 应成功: %v", err)
	}
	if resp.Status != model.TimetablePublished {
		t.Errorf("期望 published，实际 %s", resp.Status)
	}
	if got := st.timetables[old.Timetable.ID].Status; got != model.TimetableArchived {
		t.Errorf("旧课表应归档，实际 %s", got)
	}

	if _, err := svc.Publish(ctx, draft.Timetable.ID); !errors.Is(err, ErrTimetableNotDraft) {
		t.Errorf("重复发布应返回 ErrTimetableNotDraft，实际: %v", err)
	}
	if _, err := svc.Publish(ctx, "ghost"); !errors.Is(err, ErrTimetableNotFound) {
		t.Errorf("期望 ErrTimetableNotFound，实际: %v", err)
	}
}

func TestTimetableService_PublishDraft_StaleCatalog(t *testing.T) {
	svc, st := setupTestTimetableService(nil)
	draft := generate(t, svc, false)

	// 草稿生成后新增教室
	rooms := NewRoomService(newMockRepository(st), zap.NewNop())
	if _, err := rooms.Create(context.Background(), &dto.CreateRoomRequest{RoomCode: "R102", Capacity: 40, RoomType: model.RoomTypeLecture}, "admin-1"); err != nil {
		t.Fatalf("创建教室应成功: %v", err)
	}

	_, err := svc.Publish(context.Background(), draft.Timetable.ID)
	if !errors.Is(err, pkgerrors.ErrConcurrentCatalogChange) {
		t.Errorf("基础数据变更后发布草稿应被拒绝，实际: %v", err)
	}
	if got := st.timetables[draft.Timetable.ID].Status; got != model.TimetableDraft {
		t.Errorf("被拒绝的草稿应保持草稿，实际 %s", got)
	}
}

func TestTimetableService_DeleteAndReset(t *testing.T) {
	svc, st := setupTestTimetableService(nil)
	ctx := context.Background()

	published := generate(t, svc, true)
	draft := generate(t, svc, false)

	if err := svc.Delete(ctx, published.Timetable.ID); !errors.Is(err, ErrTimetablePublished) {
		t.Errorf("已发布课表不能删除，实际: %v", err)
	}
	if err := svc.Delete(ctx, draft.Timetable.ID); err != nil {
		t.Fatalf("删除草稿应成功: %v", err)
	}
	if len(slotsOf(st, draft.Timetable.ID)) != 0 {
		t.Error("删除草稿应一并删除明细")
	}
	if err := svc.Delete(ctx, draft.Timetable.ID); !errors.Is(err, ErrTimetableNotFound) {
		t.Errorf("期望 ErrTimetableNotFound，实际: %v", err)
	}

	n, err := svc.Reset(ctx)
	if err != nil {
		t.Fatalf("Reset 应成功: %v", err)
	}
	if n != 1 || len(st.timetables) != 0 {
		t.Errorf("Reset 应删除全部课表，删除 %d，剩余 %d", n, len(st.timetables))
	}
}

func TestTimetableService_List(t *testing.T) {
	svc, _ := setupTestTimetableService(nil)
	generate(t, svc, true)
	generate(t, svc, false)
	generate(t, svc, false)

	req := &dto.TimetableListRequest{Status: model.TimetableDraft}
	req.Page, req.PageSize = 1, 10
	list, total, err := svc.List(context.Background(), req)
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if total != 2 || len(list) != 2 {
		t.Errorf("期望 2 份草稿，实际 total=%d len=%d", total, len(list))
	}
}

// ════════════════════════════════════════════════════════════
// 视图
// ════════════════════════════════════════════════════════════

func assertGridShape(t *testing.T, grid *dto.TimetableGridResponse) {
	t.Helper()
	if len(grid.Days) != scheduler.DaysPerWeek || len(grid.Columns) != scheduler.ColumnsPerDay {
		t.Fatalf("网格应为 %d × %d，实际 %d × %d", scheduler.DaysPerWeek, scheduler.ColumnsPerDay, len(grid.Days), len(grid.Columns))
	}
	for _, col := range grid.Columns {
		if col.Period == scheduler.LunchPeriod {
			t.Error("网格列不应包含午休节次")
		}
	}
	if len(grid.Cells) != scheduler.DaysPerWeek {
		t.Fatalf("期望 %d 行，实际 %d", scheduler.DaysPerWeek, len(grid.Cells))
	}
	for _, row := range grid.Cells {
		if len(row) != scheduler.ColumnsPerDay {
			t.Fatalf("期望每行 %d 列，实际 %d", scheduler.ColumnsPerDay, len(row))
		}
	}
}

func TestTimetableService_Views_NoPublished(t *testing.T) {
	svc, _ := setupTestTimetableService(nil)
	ctx := context.Background()

	if _, err := svc.MasterView(ctx, ""); !errors.Is(err, ErrNoPublishedTimetable) {
		t.Errorf("期望 ErrNoPublishedTimetable，实际: %v", err)
	}
	if _, err := svc.MasterView(ctx, "ghost"); !errors.Is(err, ErrTimetableNotFound) {
		t.Errorf("期望 ErrTimetableNotFound，实际: %v", err)
	}

	grid, err := svc.StudentView(ctx, "stu-1")
	if err != nil {
		t.Fatalf("StudentView 应成功: %v", err)
	}
	assertGridShape(t, grid)
	if len(grid.Entries) != 0 || grid.View != string(scheduler.ViewStudent) {
		t.Errorf("无已发布课表时应返回空网格: %+v", grid)
	}
}

func TestTimetableService_Views_Published(t *testing.T) {
	svc, st := setupTestTimetableService(nil)
	ctx := context.Background()
	st.enrollments[enrollmentKey("stu-1", "s-1")] = model.StudentEnrollment{StudentID: "stu-1", SubjectID: "s-1", Status: model.EnrollmentEnrolled}
	published := generate(t, svc, true)

	master, err := svc.MasterView(ctx, "")
	if err != nil {
		t.Fatalf("MasterView 应成功: %v", err)
	}
	assertGridShape(t, master)
	if len(master.Entries) != 4 {
		t.Errorf("总表应有 4 条，实际 %d", len(master.Entries))
	}
	for d, row := range master.Cells {
		for c, cell := range row {
			for _, e := range cell {
				if e.DayOfWeek != d+1 || scheduler.PeriodOfColumn(c) != e.Period {
					t.Errorf("条目位置不符: day=%d col=%d entry=%+v", d, c, e)
				}
				if e.CourseCode == "" || e.RoomCode == "" || e.InstructorName != "Dr. Rao" {
					t.Errorf("条目应带课程、教室与教师信息: %+v", e)
				}
			}
		}
	}

	byID, err := svc.MasterView(ctx, published.Timetable.ID)
	if err != nil || len(byID.Entries) != 4 {
		t.Errorf("按 ID 查询总表应返回相同内容: %v", err)
	}

	student, err := svc.StudentView(ctx, "stu-1")
	if err != nil {
		t.Fatalf("StudentView 应成功: %v", err)
	}
	if len(student.Entries) != 2 {
		t.Errorf("学生只选了 CS101，应有 2 条，实际 %d", len(student.Entries))
	}
	for _, e := range student.Entries {
		if e.SubjectID != "s-1" {
			t.Errorf("学生视图不应包含 %s", e.CourseCode)
		}
	}

	staff, err := svc.StaffView(ctx, "u-f1")
	if err != nil {
		t.Fatalf("StaffView 应成功: %v", err)
	}
	if len(staff.Entries) != 4 {
		t.Errorf("教师视图应有 4 条，实际 %d", len(staff.Entries))
	}
	nobody, err := svc.StaffView(ctx, "u-nobody")
	if err != nil {
		t.Fatalf("无教师档案时应返回空网格: %v", err)
	}
	if len(nobody.Entries) != 0 {
		t.Errorf("无教师档案时不应有条目，实际 %d", len(nobody.Entries))
	}

	lab, err := svc.RoomView(ctx, "r-lab")
	if err != nil {
		t.Fatalf("RoomView 应成功: %v", err)
	}
	if len(lab.Entries) != 1 || lab.Entries[0].RoomCode != "L201" {
		t.Errorf("实验室应只有 1 节实验课: %+v", lab.Entries)
	}

	rooms, err := svc.RoomSchedule(ctx)
	if err != nil {
		t.Fatalf("RoomSchedule 应成功: %v", err)
	}
	if len(rooms) != 4 || rooms[0].RoomCode != "L201" {
		t.Errorf("应按教室编号排序: %+v", rooms)
	}
}

// ════════════════════════════════════════════════════════════
// 统计
// ════════════════════════════════════════════════════════════

func TestTimetableService_StaffDashboard(t *testing.T) {
	svc, st := setupTestTimetableService(nil)
	ctx := context.Background()
	st.enrollments[enrollmentKey("stu-1", "s-1")] = model.StudentEnrollment{StudentID: "stu-1", SubjectID: "s-1", Status: model.EnrollmentEnrolled}
	st.enrollments[enrollmentKey("stu-2", "s-1")] = model.StudentEnrollment{StudentID: "stu-2", SubjectID: "s-1", Status: model.EnrollmentEnrolled}
	st.enrollments[enrollmentKey("stu-2", "s-2")] = model.StudentEnrollment{StudentID: "stu-2", SubjectID: "s-2", Status: model.EnrollmentEnrolled}

	before, err := svc.StaffDashboard(ctx, "u-f1")
	if err != nil {
		t.Fatalf("StaffDashboard 应成功: %v", err)
	}
	if before.SubjectsAssigned != 2 || before.ClassesPerWeek != 0 || before.TotalStudents != 3 {
		t.Errorf("未发布时统计不符: %+v", before)
	}

	generate(t, svc, true)
	after, err := svc.StaffDashboard(ctx, "u-f1")
	if err != nil {
		t.Fatalf("StaffDashboard 应成功: %v", err)
	}
	if after.ClassesPerWeek != 4 {
		t.Errorf("发布后每周应有 4 节课，实际 %d", after.ClassesPerWeek)
	}

	subjects, err := svc.StaffSubjects(ctx, "u-nobody")
	if err != nil || len(subjects) != 0 {
		t.Errorf("无教师档案时应返回空列表: %v %v", subjects, err)
	}
}

func TestTimetableService_StaffSubjects_IncludesPoolAssigned(t *testing.T) {
	svc, st := setupTestTimetableService(nil)
	ctx := context.Background()
	seedSubject(st, model.Subject{
		SubjectID: "s-3", CourseCode: "CS103", CourseName: "Ethics", Semester: 1,
		CourseType: model.CourseTypeTheory, MinTheoryHours: 1,
	})
	st.enrollments[enrollmentKey("stu-1", "s-3")] = model.StudentEnrollment{StudentID: "stu-1", SubjectID: "s-3", Status: model.EnrollmentEnrolled}

	before, err := svc.StaffSubjects(ctx, "u-f1")
	if err != nil {
		t.Fatalf("StaffSubjects 应成功: %v", err)
	}
	if len(before) != 2 {
		t.Errorf("发布前只列出指定任课的 2 门课，实际 %d", len(before))
	}

	generate(t, svc, true)
	after, err := svc.StaffSubjects(ctx, "u-f1")
	if err != nil {
		t.Fatalf("StaffSubjects 应成功: %v", err)
	}
	var pooled *dto.StaffSubjectResponse
	for i := range after {
		if after[i].ID == "s-3" {
			pooled = &after[i]
		}
	}
	if pooled == nil {
		t.Fatalf("教师池分配的 CS103 应出现在任课列表: %+v", after)
	}
	if pooled.ScheduledPeriods != 1 || pooled.EnrolledStudents != 1 {
		t.Errorf("CS103 统计不符: %+v", pooled)
	}

	dash, err := svc.StaffDashboard(ctx, "u-f1")
	if err != nil {
		t.Fatalf("StaffDashboard 应成功: %v", err)
	}
	if dash.SubjectsAssigned != 3 || dash.ClassesPerWeek != 5 {
		t.Errorf("看板应计入教师池课程: %+v", dash)
	}
}

func TestTimetableService_AdminDashboard(t *testing.T) {
	svc, st := setupTestTimetableService(nil)
	st.users["stu-1"] = model.User{UserID: "stu-1", Username: "s1", Role: model.RoleStudent}
	published := generate(t, svc, true)
	generate(t, svc, false)

	resp, err := svc.AdminDashboard(context.Background())
	if err != nil {
		t.Fatalf("AdminDashboard 应成功: %v", err)
	}
	if resp.Rooms != 2 || resp.Subjects != 2 || resp.Faculty != 1 || resp.Students != 1 {
		t.Errorf("基础数据统计不符: %+v", resp)
	}
	if resp.Timetables[model.TimetablePublished] != 1 || resp.Timetables[model.TimetableDraft] != 1 {
		t.Errorf("课表统计不符: %+v", resp.Timetables)
	}
	if resp.PublishedTimetableID != published.Timetable.ID || resp.CatalogVersion != 1 {
		t.Errorf("期望已发布 %s 版本 1，实际 %s 版本 %d", published.Timetable.ID, resp.PublishedTimetableID, resp.CatalogVersion)
	}
}
