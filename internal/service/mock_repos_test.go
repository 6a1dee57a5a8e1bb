package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"timify/backend/internal/model"
	"timify/backend/internal/repository"
	pkgerrors "timify/backend/pkg/errors"
)

// ── 内存数据 ──
//
// 所有 mock 仓储共享一个 memStore，按值存储，事务失败时整体恢复快照。

type memStore struct {
	mu sync.Mutex

	users       map[string]model.User
	rooms       map[string]model.Room
	subjects    map[string]model.Subject
	prereqs     map[string][]string
	faculty     map[string]model.Faculty
	limits      map[int]model.CreditLimit
	enrollments map[string]model.StudentEnrollment // key: student|subject
	timetables  map[string]model.Timetable
	slots       []model.TimetableSlot
	version     int64
	seq         int

	// 故障注入
	failSlots  error  // BatchCreate 返回该错误
	onLock     func() // GetForUpdate 前执行，用于模拟并发修改
	lockCalled int
	trace      []string // 记录加锁与计数的先后顺序
}

func newMemStore() *memStore {
	return &memStore{
		users:       make(map[string]model.User),
		rooms:       make(map[string]model.Room),
		subjects:    make(map[string]model.Subject),
		prereqs:     make(map[string][]string),
		faculty:     make(map[string]model.Faculty),
		limits:      make(map[int]model.CreditLimit),
		enrollments: make(map[string]model.StudentEnrollment),
		timetables:  make(map[string]model.Timetable),
		version:     1,
	}
}

func (st *memStore) nextID(prefix string) string {
	st.seq++
	return fmt.Sprintf("%s-%03d", prefix, st.seq)
}

// snapshot 复制全部数据，配合 restore 实现回滚
func (st *memStore) snapshot() *memStore {
	st.mu.Lock()
	defer st.mu.Unlock()
	cp := newMemStore()
	for k, v := range st.users {
		cp.users[k] = v
	}
	for k, v := range st.rooms {
		cp.rooms[k] = v
	}
	for k, v := range st.subjects {
		cp.subjects[k] = v
	}
	for k, v := range st.prereqs {
		cp.prereqs[k] = append([]string(nil), v...)
	}
	for k, v := range st.faculty {
		cp.faculty[k] = v
	}
	for k, v := range st.limits {
		cp.limits[k] = v
	}
	for k, v := range st.enrollments {
		cp.enrollments[k] = v
	}
	for k, v := range st.timetables {
		cp.timetables[k] = v
	}
	cp.slots = append([]model.TimetableSlot(nil), st.slots...)
	cp.version = st.version
	cp.seq = st.seq
	return cp
}

func (st *memStore) restore(cp *memStore) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.users = cp.users
	st.rooms = cp.rooms
	st.subjects = cp.subjects
	st.prereqs = cp.prereqs
	st.faculty = cp.faculty
	st.limits = cp.limits
	st.enrollments = cp.enrollments
	st.timetables = cp.timetables
	st.slots = cp.slots
	st.version = cp.version
}

// newMockRepository 组装全部 mock 仓储，Tx 失败时恢复事务前快照
func newMockRepository(st *memStore) *repository.Repository {
	repo := &repository.Repository{
		User:          &mockUserRepo{st},
		Room:          &mockRoomRepo{st},
		Subject:       &mockSubjectRepo{st},
		Faculty:       &mockFacultyRepo{st},
		CreditLimit:   &mockCreditLimitRepo{st},
		Enrollment:    &mockEnrollmentRepo{st},
		Timetable:     &mockTimetableRepo{st},
		TimetableSlot: &mockTimetableSlotRepo{st},
		CatalogState:  &mockCatalogStateRepo{st},
	}
	repo.Tx = func(_ context.Context, fn func(tx *repository.Repository) error) error {
		backup := st.snapshot()
		if err := fn(repo); err != nil {
			st.restore(backup)
			return err
		}
		return nil
	}
	return repo
}

// ── Mock UserRepository ──

type mockUserRepo struct{ st *memStore }

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if user.UserID == "" {
		user.UserID = m.st.nextID("user")
	}
	if user.Version == 0 {
		user.Version = 1
	}
	user.CreatedAt = time.Now()
	m.st.users[user.UserID] = *user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if u, ok := m.st.users[id]; ok {
		return &u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	for _, u := range m.st.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if _, ok := m.st.users[user.UserID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.st.users[user.UserID] = *user
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id, _ string) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if _, ok := m.st.users[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.st.users, id)
	return nil
}

func (m *mockUserRepo) List(_ context.Context, role string, offset, limit int) ([]model.User, int64, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var all []model.User
	for _, u := range m.st.users {
		if role == "" || u.Role == role {
			all = append(all, u)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Username < all[j].Username })
	total := int64(len(all))
	if offset >= len(all) {
		return []model.User{}, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockUserRepo) ListByIDs(_ context.Context, ids []string) ([]model.User, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var out []model.User
	for _, id := range ids {
		if u, ok := m.st.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *mockUserRepo) CountByRole(_ context.Context, role string) (int64, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var n int64
	for _, u := range m.st.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

// ── Mock RoomRepository ──

type mockRoomRepo struct{ st *memStore }

func (m *mockRoomRepo) Create(_ context.Context, room *model.Room) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if room.RoomID == "" {
		room.RoomID = m.st.nextID("room")
	}
	m.st.rooms[room.RoomID] = *room
	return nil
}

func (m *mockRoomRepo) GetByID(_ context.Context, id string) (*model.Room, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if r, ok := m.st.rooms[id]; ok {
		return &r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRoomRepo) GetByCode(_ context.Context, code string) (*model.Room, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	for _, r := range m.st.rooms {
		if r.RoomCode == code {
			return &r, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRoomRepo) List(_ context.Context) ([]model.Room, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	out := make([]model.Room, 0, len(m.st.rooms))
	for _, r := range m.st.rooms {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoomCode < out[j].RoomCode })
	return out, nil
}

func (m *mockRoomRepo) Update(_ context.Context, room *model.Room) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if _, ok := m.st.rooms[room.RoomID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.st.rooms[room.RoomID] = *room
	return nil
}

func (m *mockRoomRepo) Delete(_ context.Context, id, _ string) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if _, ok := m.st.rooms[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.st.rooms, id)
	return nil
}

func (m *mockRoomRepo) Count(_ context.Context) (int64, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	return int64(len(m.st.rooms)), nil
}

// ── Mock SubjectRepository ──

type mockSubjectRepo struct{ st *memStore }

// hydrate 模拟 Preload("Instructor") 与 Preload("Prerequisites")，调用方持锁
func (m *mockSubjectRepo) hydrate(s model.Subject) model.Subject {
	s.Instructor = nil
	if s.InstructorID != nil {
		if f, ok := m.st.faculty[*s.InstructorID]; ok {
			s.Instructor = &f
		}
	}
	s.Prerequisites = nil
	for _, p := range m.st.prereqs[s.SubjectID] {
		s.Prerequisites = append(s.Prerequisites, model.SubjectPrerequisite{SubjectID: s.SubjectID, PrerequisiteID: p})
	}
	return s
}

func (m *mockSubjectRepo) Create(_ context.Context, subject *model.Subject) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if subject.SubjectID == "" {
		subject.SubjectID = m.st.nextID("subject")
	}
	if subject.Version == 0 {
		subject.Version = 1
	}
	stored := *subject
	stored.Instructor, stored.Prerequisites = nil, nil
	m.st.subjects[subject.SubjectID] = stored
	return nil
}

func (m *mockSubjectRepo) GetByID(_ context.Context, id string) (*model.Subject, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if s, ok := m.st.subjects[id]; ok {
		s = m.hydrate(s)
		return &s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSubjectRepo) GetForUpdate(_ context.Context, id string) (*model.Subject, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	m.st.trace = append(m.st.trace, "lock_subject:"+id)
	if s, ok := m.st.subjects[id]; ok {
		return &s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSubjectRepo) GetByCode(_ context.Context, code string) (*model.Subject, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	for _, s := range m.st.subjects {
		if s.CourseCode == code {
			s = m.hydrate(s)
			return &s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSubjectRepo) List(_ context.Context, filter repository.SubjectFilter) ([]model.Subject, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	out := make([]model.Subject, 0, len(m.st.subjects))
	for _, s := range m.st.subjects {
		if filter.Semester > 0 && s.Semester != filter.Semester {
			continue
		}
		if filter.Department != "" && s.Department != filter.Department {
			continue
		}
		out = append(out, m.hydrate(s))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Semester != out[j].Semester {
			return out[i].Semester < out[j].Semester
		}
		return out[i].CourseCode < out[j].CourseCode
	})
	return out, nil
}

func (m *mockSubjectRepo) ListByIDs(_ context.Context, ids []string) ([]model.Subject, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	out := []model.Subject{}
	for _, id := range ids {
		if s, ok := m.st.subjects[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockSubjectRepo) Update(_ context.Context, subject *model.Subject) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	cur, ok := m.st.subjects[subject.SubjectID]
	if !ok || cur.Version != subject.Version {
		return pkgerrors.ErrOptimisticLock
	}
	subject.Version++
	stored := *subject
	stored.Instructor, stored.Prerequisites = nil, nil
	m.st.subjects[subject.SubjectID] = stored
	return nil
}

func (m *mockSubjectRepo) Delete(_ context.Context, id, _ string) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if _, ok := m.st.subjects[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.st.subjects, id)
	delete(m.st.prereqs, id)
	return nil
}

func (m *mockSubjectRepo) Count(_ context.Context) (int64, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	return int64(len(m.st.subjects)), nil
}

func (m *mockSubjectRepo) ClearInstructor(_ context.Context, facultyID string) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	for id, s := range m.st.subjects {
		if s.InstructorID != nil && *s.InstructorID == facultyID {
			s.InstructorID = nil
			m.st.subjects[id] = s
		}
	}
	return nil
}

func (m *mockSubjectRepo) ReplacePrerequisites(_ context.Context, subjectID string, prerequisiteIDs []string) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if len(prerequisiteIDs) == 0 {
		delete(m.st.prereqs, subjectID)
		return nil
	}
	m.st.prereqs[subjectID] = append([]string(nil), prerequisiteIDs...)
	return nil
}

func (m *mockSubjectRepo) ListPrerequisites(_ context.Context) ([]model.SubjectPrerequisite, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var out []model.SubjectPrerequisite
	for sid, ps := range m.st.prereqs {
		for _, p := range ps {
			out = append(out, model.SubjectPrerequisite{SubjectID: sid, PrerequisiteID: p})
		}
	}
	return out, nil
}

// ── Mock FacultyRepository ──

type mockFacultyRepo struct{ st *memStore }

func (m *mockFacultyRepo) withUser(f model.Faculty) model.Faculty {
	f.User = nil
	if u, ok := m.st.users[f.UserID]; ok {
		f.User = &u
	}
	return f
}

func (m *mockFacultyRepo) Create(_ context.Context, faculty *model.Faculty) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if faculty.FacultyID == "" {
		faculty.FacultyID = m.st.nextID("faculty")
	}
	stored := *faculty
	stored.User = nil
	m.st.faculty[faculty.FacultyID] = stored
	return nil
}

func (m *mockFacultyRepo) GetByID(_ context.Context, id string) (*model.Faculty, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if f, ok := m.st.faculty[id]; ok {
		f = m.withUser(f)
		return &f, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockFacultyRepo) GetByUserID(_ context.Context, userID string) (*model.Faculty, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	for _, f := range m.st.faculty {
		if f.UserID == userID {
			f = m.withUser(f)
			return &f, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockFacultyRepo) List(_ context.Context) ([]model.Faculty, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	out := make([]model.Faculty, 0, len(m.st.faculty))
	for _, f := range m.st.faculty {
		out = append(out, m.withUser(f))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].FacultyID < out[j].FacultyID
	})
	return out, nil
}

func (m *mockFacultyRepo) Update(_ context.Context, faculty *model.Faculty) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if _, ok := m.st.faculty[faculty.FacultyID]; !ok {
		return gorm.ErrRecordNotFound
	}
	stored := *faculty
	stored.User = nil
	m.st.faculty[faculty.FacultyID] = stored
	return nil
}

func (m *mockFacultyRepo) Delete(_ context.Context, id, _ string) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if _, ok := m.st.faculty[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.st.faculty, id)
	return nil
}

func (m *mockFacultyRepo) Count(_ context.Context) (int64, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	return int64(len(m.st.faculty)), nil
}

// ── Mock CreditLimitRepository ──

type mockCreditLimitRepo struct{ st *memStore }

func (m *mockCreditLimitRepo) List(_ context.Context) ([]model.CreditLimit, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	out := make([]model.CreditLimit, 0, len(m.st.limits))
	for _, l := range m.st.limits {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SemesterNumber < out[j].SemesterNumber })
	return out, nil
}

func (m *mockCreditLimitRepo) Get(_ context.Context, semester int) (*model.CreditLimit, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if l, ok := m.st.limits[semester]; ok {
		return &l, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCreditLimitRepo) Upsert(_ context.Context, limit *model.CreditLimit) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	limit.UpdatedAt = time.Now()
	m.st.limits[limit.SemesterNumber] = *limit
	return nil
}

func (m *mockCreditLimitRepo) Delete(_ context.Context, semester int) (bool, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if _, ok := m.st.limits[semester]; !ok {
		return false, nil
	}
	delete(m.st.limits, semester)
	return true, nil
}

// ── Mock EnrollmentRepository ──

type mockEnrollmentRepo struct{ st *memStore }

func enrollmentKey(studentID, subjectID string) string {
	return studentID + "|" + subjectID
}

func (m *mockEnrollmentRepo) Get(_ context.Context, studentID, subjectID string) (*model.StudentEnrollment, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if e, ok := m.st.enrollments[enrollmentKey(studentID, subjectID)]; ok {
		return &e, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEnrollmentRepo) Create(_ context.Context, e *model.StudentEnrollment) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	key := enrollmentKey(e.StudentID, e.SubjectID)
	if _, ok := m.st.enrollments[key]; ok {
		return gorm.ErrDuplicatedKey
	}
	if e.EnrollmentID == "" {
		e.EnrollmentID = m.st.nextID("enroll")
	}
	stored := *e
	stored.Subject = nil
	m.st.enrollments[key] = stored
	return nil
}

func (m *mockEnrollmentRepo) Update(_ context.Context, e *model.StudentEnrollment) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	key := enrollmentKey(e.StudentID, e.SubjectID)
	if _, ok := m.st.enrollments[key]; !ok {
		return gorm.ErrRecordNotFound
	}
	stored := *e
	stored.Subject = nil
	m.st.enrollments[key] = stored
	return nil
}

func (m *mockEnrollmentRepo) ListByStudent(_ context.Context, studentID string) ([]model.StudentEnrollment, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var out []model.StudentEnrollment
	for _, e := range m.st.enrollments {
		if e.StudentID != studentID || e.Status != model.EnrollmentEnrolled {
			continue
		}
		if s, ok := m.st.subjects[e.SubjectID]; ok {
			e.Subject = &s
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubjectID < out[j].SubjectID })
	return out, nil
}

func (m *mockEnrollmentRepo) CountEnrolled(_ context.Context, subjectIDs []string) (map[string]int64, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	m.st.trace = append(m.st.trace, "count_enrolled")
	want := make(map[string]bool, len(subjectIDs))
	for _, id := range subjectIDs {
		want[id] = true
	}
	out := make(map[string]int64)
	for _, e := range m.st.enrollments {
		if want[e.SubjectID] && e.Status == model.EnrollmentEnrolled {
			out[e.SubjectID]++
		}
	}
	return out, nil
}

// ── Mock TimetableRepository ──

type mockTimetableRepo struct{ st *memStore }

func (m *mockTimetableRepo) Create(_ context.Context, t *model.Timetable) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if t.TimetableID == "" {
		t.TimetableID = m.st.nextID("tt")
	}
	t.CreatedAt = time.Now().Add(time.Duration(m.st.seq) * time.Millisecond)
	stored := *t
	stored.Slots = nil
	m.st.timetables[t.TimetableID] = stored
	return nil
}

func (m *mockTimetableRepo) GetByID(_ context.Context, id string) (*model.Timetable, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if t, ok := m.st.timetables[id]; ok {
		return &t, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTimetableRepo) GetPublished(_ context.Context) (*model.Timetable, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	for _, t := range m.st.timetables {
		if t.Status == model.TimetablePublished {
			return &t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTimetableRepo) List(_ context.Context, status string, offset, limit int) ([]model.Timetable, int64, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var all []model.Timetable
	for _, t := range m.st.timetables {
		if status == "" || t.Status == status {
			all = append(all, t)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := int64(len(all))
	if offset >= len(all) {
		return []model.Timetable{}, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockTimetableRepo) ArchivePublished(_ context.Context, at time.Time) (int64, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var n int64
	for id, t := range m.st.timetables {
		if t.Status == model.TimetablePublished {
			t.Status = model.TimetableArchived
			t.ArchivedAt = &at
			m.st.timetables[id] = t
			n++
		}
	}
	return n, nil
}

func (m *mockTimetableRepo) MarkPublished(_ context.Context, id string, at time.Time) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	t, ok := m.st.timetables[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	t.Status = model.TimetablePublished
	t.PublishedAt = &at
	m.st.timetables[id] = t
	return nil
}

func (m *mockTimetableRepo) Delete(_ context.Context, id string) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if _, ok := m.st.timetables[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.st.timetables, id)
	kept := m.st.slots[:0:0]
	for _, s := range m.st.slots {
		if s.TimetableID != id {
			kept = append(kept, s)
		}
	}
	m.st.slots = kept
	return nil
}

func (m *mockTimetableRepo) DeleteAll(_ context.Context) (int64, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	n := int64(len(m.st.timetables))
	m.st.timetables = make(map[string]model.Timetable)
	m.st.slots = nil
	return n, nil
}

func (m *mockTimetableRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	out := map[string]int64{
		model.TimetableDraft:     0,
		model.TimetablePublished: 0,
		model.TimetableArchived:  0,
	}
	for _, t := range m.st.timetables {
		out[t.Status]++
	}
	return out, nil
}

// ── Mock TimetableSlotRepository ──

type mockTimetableSlotRepo struct{ st *memStore }

func (m *mockTimetableSlotRepo) BatchCreate(_ context.Context, slots []model.TimetableSlot) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if m.st.failSlots != nil {
		return m.st.failSlots
	}
	for i := range slots {
		if slots[i].SlotID == "" {
			slots[i].SlotID = m.st.nextID("slot")
		}
		stored := slots[i]
		stored.Subject, stored.Room, stored.Instructor = nil, nil, nil
		m.st.slots = append(m.st.slots, stored)
	}
	return nil
}

func (m *mockTimetableSlotRepo) ListByTimetable(_ context.Context, timetableID string) ([]model.TimetableSlot, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var out []model.TimetableSlot
	for _, s := range m.st.slots {
		if s.TimetableID != timetableID {
			continue
		}
		if sub, ok := m.st.subjects[s.SubjectID]; ok {
			s.Subject = &sub
		}
		if r, ok := m.st.rooms[s.RoomID]; ok {
			s.Room = &r
		}
		if f, ok := m.st.faculty[s.InstructorID]; ok {
			s.Instructor = &f
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DayOfWeek != out[j].DayOfWeek {
			return out[i].DayOfWeek < out[j].DayOfWeek
		}
		return out[i].Period < out[j].Period
	})
	return out, nil
}

// ── Mock CatalogStateRepository ──

type mockCatalogStateRepo struct{ st *memStore }

func (m *mockCatalogStateRepo) Get(_ context.Context) (*model.CatalogState, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	return &model.CatalogState{Singleton: true, Version: m.st.version}, nil
}

func (m *mockCatalogStateRepo) GetForUpdate(_ context.Context) (*model.CatalogState, error) {
	m.st.mu.Lock()
	hook := m.st.onLock
	m.st.lockCalled++
	m.st.mu.Unlock()
	if hook != nil {
		hook()
	}

	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	return &model.CatalogState{Singleton: true, Version: m.st.version}, nil
}

func (m *mockCatalogStateRepo) Bump(_ context.Context) (int64, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	m.st.version++
	return m.st.version, nil
}
