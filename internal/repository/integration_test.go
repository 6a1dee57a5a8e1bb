//go:build integration

package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"timify/backend/internal/model"
	"timify/backend/internal/repository"
	"timify/backend/pkg/database"
	pkgerrors "timify/backend/pkg/errors"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5433 user=timify password=timify_password dbname=timify_test sslmode=disable TimeZone=Asia/Kolkata"
	}

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法连接测试数据库: %v\n", err)
		os.Exit(1)
	}

	// 使用正式迁移建表，保证部分唯一索引与外键一致
	sqlDB, err := testDB.DB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "获取 sql.DB 失败: %v\n", err)
		os.Exit(1)
	}
	if err := database.RunMigrations(sqlDB, zap.NewNop()); err != nil {
		fmt.Fprintf(os.Stderr, "迁移失败: %v\n", err)
		os.Exit(1)
	}

	os.Exit(m.Run())
}

func uniq(prefix string) string {
	return fmt.Sprintf("%s%d", prefix, time.Now().UnixNano()%1_000_000_000)
}

type fixture struct {
	user    *model.User
	faculty *model.Faculty
	room    *model.Room
	subject *model.Subject
}

// setupCatalog 创建一名教师、一间教室、一门课程并返回清理函数
func setupCatalog(t *testing.T) (*fixture, func()) {
	t.Helper()
	ctx := context.Background()

	user := &model.User{
		Username:     uniq("staff"),
		Name:         "测试教师",
		Email:        uniq("staff") + "@example.edu",
		PasswordHash: "$2a$10$placeholder",
		Role:         model.RoleStaff,
	}
	if err := testDB.WithContext(ctx).Create(user).Error; err != nil {
		t.Fatalf("创建用户失败: %v", err)
	}

	faculty := &model.Faculty{
		UserID:          user.UserID,
		Name:            user.Name,
		Email:           user.Email,
		Department:      "CS",
		MaxHoursPerWeek: 10,
		Availability:    datatypes.NewJSONType(model.DefaultAvailability()),
	}
	if err := testDB.WithContext(ctx).Omit("User").Create(faculty).Error; err != nil {
		t.Fatalf("创建教师失败: %v", err)
	}

	room := &model.Room{RoomCode: uniq("R"), Building: "Main", Capacity: 60, RoomType: model.RoomTypeLecture}
	if err := testDB.WithContext(ctx).Create(room).Error; err != nil {
		t.Fatalf("创建教室失败: %v", err)
	}

	subject := &model.Subject{
		CourseCode:     uniq("CS"),
		CourseName:     "数据结构",
		Semester:       3,
		Credits:        4,
		CourseType:     model.CourseTypeTheory,
		MinTheoryHours: 2,
		MaxCapacity:    50,
		InstructorID:   &faculty.FacultyID,
		Department:     "CS",
	}
	if err := testDB.WithContext(ctx).Omit("Instructor", "Prerequisites").Create(subject).Error; err != nil {
		t.Fatalf("创建课程失败: %v", err)
	}

	cleanup := func() {
		testDB.Exec("DELETE FROM timetables")
		testDB.Unscoped().Where("subject_id = ?", subject.SubjectID).Delete(&model.Subject{})
		testDB.Unscoped().Where("room_id = ?", room.RoomID).Delete(&model.Room{})
		testDB.Unscoped().Where("faculty_id = ?", faculty.FacultyID).Delete(&model.Faculty{})
		testDB.Unscoped().Where("user_id = ?", user.UserID).Delete(&model.User{})
	}
	return &fixture{user: user, faculty: faculty, room: room, subject: subject}, cleanup
}

func publishedTimetable(version int64) *model.Timetable {
	now := time.Now()
	return &model.Timetable{
		Name:           uniq("课表-"),
		Status:         model.TimetablePublished,
		CatalogVersion: version,
		PublishedAt:    &now,
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Transaction
// ═══════════════════════════════════════════════════════════

func TestTransaction_RollbackOnError(t *testing.T) {
	fx, cleanup := setupCatalog(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	var created *model.Timetable
	boom := errors.New("boom")
	err := repo.Transaction(ctx, func(tx *repository.Repository) error {
		created = publishedTimetable(1)
		if err := tx.Timetable.Create(ctx, created); err != nil {
			return err
		}
		slots := []model.TimetableSlot{{
			TimetableID: created.TimetableID, SubjectID: fx.subject.SubjectID, RoomID: fx.room.RoomID,
			InstructorID: fx.faculty.FacultyID, DayOfWeek: 1, Period: 0, SlotType: "theory",
			StartTime: "09:00", EndTime: "10:00",
		}}
		if err := tx.TimetableSlot.BatchCreate(ctx, slots); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("期望返回 fn 的错误，实际: %v", err)
	}

	if _, err := repo.Timetable.GetByID(ctx, created.TimetableID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("回滚后不应查到课表，实际 err=%v", err)
	}
	slots, _ := repo.TimetableSlot.ListByTimetable(ctx, created.TimetableID)
	if len(slots) != 0 {
		t.Errorf("回滚后不应有明细，实际 %d 条", len(slots))
	}
}

func TestTransaction_Commit(t *testing.T) {
	fx, cleanup := setupCatalog(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	tx, err := repo.BeginTx(ctx)
	if err != nil {
		t.Fatalf("BeginTx 失败: %v", err)
	}
	txRepo := repo.WithTx(tx)

	tt := publishedTimetable(1)
	if err := txRepo.Timetable.Create(ctx, tt); err != nil {
		tx.Rollback()
		t.Fatalf("事务内创建课表失败: %v", err)
	}
	if err := tx.Commit().Error; err != nil {
		t.Fatalf("Commit 失败: %v", err)
	}

	found, err := repo.Timetable.GetPublished(ctx)
	if err != nil {
		t.Fatalf("提交后查询已发布课表失败: %v", err)
	}
	if found.TimetableID != tt.TimetableID {
		t.Errorf("ID 不匹配: expected %s, got %s", tt.TimetableID, found.TimetableID)
	}
	_ = fx
}

// ═══════════════════════════════════════════════════════════
// Test: Publish invariants
// ═══════════════════════════════════════════════════════════

func TestTimetable_SinglePublished(t *testing.T) {
	_, cleanup := setupCatalog(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	if err := repo.Timetable.Create(ctx, publishedTimetable(1)); err != nil {
		t.Fatalf("创建第一份已发布课表失败: %v", err)
	}
	if err := repo.Timetable.Create(ctx, publishedTimetable(1)); err == nil {
		t.Fatal("期望违反唯一索引 uk_timetables_published，但创建成功了")
	}

	n, err := repo.Timetable.ArchivePublished(ctx, time.Now())
	if err != nil || n != 1 {
		t.Fatalf("ArchivePublished 期望归档 1 份，实际 n=%d err=%v", n, err)
	}
	if err := repo.Timetable.Create(ctx, publishedTimetable(2)); err != nil {
		t.Fatalf("归档后应可再发布: %v", err)
	}

	counts, err := repo.Timetable.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("CountByStatus 失败: %v", err)
	}
	if counts[model.TimetablePublished] != 1 || counts[model.TimetableArchived] != 1 {
		t.Errorf("状态统计不符: %v", counts)
	}
}

func TestTimetableSlot_RoomDoubleBookingRejected(t *testing.T) {
	fx, cleanup := setupCatalog(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	tt := publishedTimetable(1)
	if err := repo.Timetable.Create(ctx, tt); err != nil {
		t.Fatalf("创建课表失败: %v", err)
	}
	slot := model.TimetableSlot{
		TimetableID: tt.TimetableID, SubjectID: fx.subject.SubjectID, RoomID: fx.room.RoomID,
		InstructorID: fx.faculty.FacultyID, DayOfWeek: 2, Period: 1, SlotType: "theory",
		StartTime: "10:00", EndTime: "11:00",
	}
	if err := repo.TimetableSlot.BatchCreate(ctx, []model.TimetableSlot{slot, slot}); err == nil {
		t.Fatal("同一教室同一单元格两条明细应被唯一约束拒绝")
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Catalog version
// ═══════════════════════════════════════════════════════════

func TestCatalogState_Bump(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	before, err := repo.CatalogState.Get(ctx)
	if err != nil {
		t.Fatalf("读取版本失败: %v", err)
	}
	v, err := repo.CatalogState.Bump(ctx)
	if err != nil {
		t.Fatalf("Bump 失败: %v", err)
	}
	if v != before.Version+1 {
		t.Errorf("期望版本 %d，实际 %d", before.Version+1, v)
	}

	err = repo.Transaction(ctx, func(tx *repository.Repository) error {
		st, err := tx.CatalogState.GetForUpdate(ctx)
		if err != nil {
			return err
		}
		if st.Version != v {
			t.Errorf("事务内版本期望 %d，实际 %d", v, st.Version)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("GetForUpdate 事务失败: %v", err)
	}
}

func TestSubject_GetForUpdateBlocksSecondLocker(t *testing.T) {
	fx, cleanup := setupCatalog(t)
	defer cleanup()
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	tx, err := repo.BeginTx(ctx)
	if err != nil {
		t.Fatalf("开启事务失败: %v", err)
	}
	defer tx.Rollback()

	locked, err := repo.WithTx(tx).Subject.GetForUpdate(ctx, fx.subject.SubjectID)
	if err != nil {
		t.Fatalf("加锁失败: %v", err)
	}
	if locked.MaxCapacity != 50 {
		t.Errorf("期望容量 50，实际 %d", locked.MaxCapacity)
	}

	// 第一把锁未释放，第二个事务应等待直到超时
	waitCtx, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer cancel()
	err = repo.Transaction(waitCtx, func(tx2 *repository.Repository) error {
		_, err := tx2.Subject.GetForUpdate(waitCtx, fx.subject.SubjectID)
		return err
	})
	if err == nil {
		t.Error("课程行已被锁定，第二个事务不应立即取得锁")
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Optimistic Lock
// ═══════════════════════════════════════════════════════════

func TestOptimisticLock_Subject_ConflictDetected(t *testing.T) {
	fx, cleanup := setupCatalog(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	copy1, _ := repo.Subject.GetByID(ctx, fx.subject.SubjectID)
	copy2, _ := repo.Subject.GetByID(ctx, fx.subject.SubjectID)

	copy1.Credits = 5
	if err := repo.Subject.Update(ctx, copy1); err != nil {
		t.Fatalf("第一次更新应成功: %v", err)
	}

	copy2.Credits = 6
	if err := repo.Subject.Update(ctx, copy2); !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Errorf("期望 ErrOptimisticLock，得到: %v", err)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Soft Delete
// ═══════════════════════════════════════════════════════════

func TestFaculty_SoftDeleteClearsInstructor(t *testing.T) {
	fx, cleanup := setupCatalog(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	if err := repo.Subject.ClearInstructor(ctx, fx.faculty.FacultyID); err != nil {
		t.Fatalf("ClearInstructor 失败: %v", err)
	}
	if err := repo.Faculty.Delete(ctx, fx.faculty.FacultyID, fx.user.UserID); err != nil {
		t.Fatalf("软删除教师失败: %v", err)
	}

	if _, err := repo.Faculty.GetByID(ctx, fx.faculty.FacultyID); err == nil {
		t.Fatal("软删除后应查不到教师")
	}
	if err := repo.Faculty.Delete(ctx, fx.faculty.FacultyID, fx.user.UserID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("重复删除期望 ErrRecordNotFound，实际: %v", err)
	}

	sub, err := repo.Subject.GetByID(ctx, fx.subject.SubjectID)
	if err != nil {
		t.Fatalf("查询课程失败: %v", err)
	}
	if sub.InstructorID != nil {
		t.Errorf("课程任课教师应被清空，实际 %v", *sub.InstructorID)
	}
}

func TestEnrollment_CountEnrolled(t *testing.T) {
	fx, cleanup := setupCatalog(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	student := &model.User{
		Username: uniq("stu"), Name: "学生", Email: uniq("stu") + "@example.edu",
		PasswordHash: "$2a$10$placeholder", Role: model.RoleStudent,
	}
	if err := repo.User.Create(ctx, student); err != nil {
		t.Fatalf("创建学生失败: %v", err)
	}
	defer testDB.Unscoped().Where("user_id = ?", student.UserID).Delete(&model.User{})

	e := &model.StudentEnrollment{StudentID: student.UserID, SubjectID: fx.subject.SubjectID, Status: model.EnrollmentEnrolled}
	if err := repo.Enrollment.Create(ctx, e); err != nil {
		t.Fatalf("选课失败: %v", err)
	}
	defer testDB.Where("enrollment_id = ?", e.EnrollmentID).Delete(&model.StudentEnrollment{})

	counts, err := repo.Enrollment.CountEnrolled(ctx, []string{fx.subject.SubjectID})
	if err != nil {
		t.Fatalf("CountEnrolled 失败: %v", err)
	}
	if counts[fx.subject.SubjectID] != 1 {
		t.Errorf("期望在读 1 人，实际 %d", counts[fx.subject.SubjectID])
	}

	dup := &model.StudentEnrollment{StudentID: student.UserID, SubjectID: fx.subject.SubjectID}
	if err := repo.Enrollment.Create(ctx, dup); err == nil {
		t.Error("重复选课应被唯一约束拒绝")
	}
}
