package scheduler

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ── 基础数据快照 ──
// 一次排课运行只读取一份带版本号的快照，运行期间不接受外部修改。

// CourseType 课程类型
type CourseType string

const (
	CourseTheory       CourseType = "Theory"
	CourseLab          CourseType = "Lab"
	CourseLabCumTheory CourseType = "Lab-cum-Theory"
)

// RoomType 教室类型
type RoomType string

const (
	RoomLecture RoomType = "Lecture"
	RoomLab     RoomType = "Lab"
)

// SessionKind 单次课的类型，决定所需教室类型
type SessionKind string

const (
	SessionTheory SessionKind = "theory"
	SessionLab    SessionKind = "lab"
)

// RoomType 该类型课次需要的教室类型
func (k SessionKind) RoomType() RoomType {
	if k == SessionLab {
		return RoomLab
	}
	return RoomLecture
}

// ErrInvalidCatalog 快照未通过校验
var ErrInvalidCatalog = errors.New("基础数据校验失败")

// CatalogError 汇总快照中的全部问题
type CatalogError struct {
	Problems []string
}

func (e *CatalogError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidCatalog.Error(), strings.Join(e.Problems, "; "))
}

func (e *CatalogError) Unwrap() error { return ErrInvalidCatalog }

// Subject 课程
type Subject struct {
	ID             string     `validate:"required"`
	Code           string     `validate:"required,max=20"`
	Name           string     `validate:"max=200"`
	Semester       int        `validate:"min=1,max=8"`
	Credits        int        `validate:"min=0,max=30"`
	Type           CourseType `validate:"oneof=Theory Lab Lab-cum-Theory"`
	MinTheoryHours int        `validate:"min=0,max=35"`
	MinLabHours    int        `validate:"min=0,max=35"`
	Capacity       int        `validate:"min=0"`
	FacultyID      string     // 固定授课教师，为空时由同院系教师承担
	Department     string
	Prerequisites  []string
}

// Room 教室
type Room struct {
	ID       string   `validate:"required"`
	Code     string   `validate:"required,max=20"`
	Building string   `validate:"max=100"`
	Capacity int      `validate:"min=1"`
	Type     RoomType `validate:"oneof=Lecture Lab"`
}

// DayWindow 某天的工作时段，分钟数表示
type DayWindow struct {
	Available bool
	Start     int
	End       int
}

// Faculty 教师
type Faculty struct {
	ID              string `validate:"required"`
	Name            string `validate:"max=100"`
	Department      string
	MaxHoursPerWeek int `validate:"min=0,max=168"` // 0 表示不限
	// Availability 为 nil 表示全周可用；非 nil 时缺失的星期视为不可用
	Availability map[int]DayWindow
}

// AvailableAt 教师在该单元格是否处于工作时段内
func (f *Faculty) AvailableAt(s Slot) bool {
	if f.Availability == nil {
		return true
	}
	w, ok := f.Availability[s.Day]
	if !ok || !w.Available {
		return false
	}
	return s.StartMinute() >= w.Start && s.EndMinute() <= w.End
}

// CreditLimit 学期学分上限
type CreditLimit struct {
	Semester   int `validate:"min=1,max=8"`
	MaxCredits int `validate:"min=0"`
}

// Snapshot 一次排课所用的只读数据
type Snapshot struct {
	Version      int64
	Subjects     []Subject
	Rooms        []Room
	Faculty      []Faculty
	CreditLimits []CreditLimit
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate 校验快照完整性：字段取值、唯一性、引用关系与先修课无环
func (s *Snapshot) Validate() error {
	var problems []string
	add := func(format string, args ...interface{}) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	facultyIDs := make(map[string]bool, len(s.Faculty))
	for i := range s.Faculty {
		f := &s.Faculty[i]
		if err := validate.Struct(f); err != nil {
			add("教师 %q: %v", f.ID, err)
		}
		if facultyIDs[f.ID] {
			add("教师 ID 重复: %s", f.ID)
		}
		facultyIDs[f.ID] = true
		for day, w := range f.Availability {
			if day < 0 || day >= DaysPerWeek {
				add("教师 %q: 非法星期 %d", f.ID, day)
			}
			if w.Available && w.Start >= w.End {
				add("教师 %q: %s 工作时段起止非法", f.ID, DayNames[clampDay(day)])
			}
		}
	}

	roomIDs := make(map[string]bool, len(s.Rooms))
	roomCodes := make(map[string]bool, len(s.Rooms))
	for i := range s.Rooms {
		r := &s.Rooms[i]
		if err := validate.Struct(r); err != nil {
			add("教室 %q: %v", r.Code, err)
		}
		if roomIDs[r.ID] {
			add("教室 ID 重复: %s", r.ID)
		}
		if roomCodes[r.Code] {
			add("教室编号重复: %s", r.Code)
		}
		roomIDs[r.ID] = true
		roomCodes[r.Code] = true
	}

	subjectIDs := make(map[string]bool, len(s.Subjects))
	subjectCodes := make(map[string]bool, len(s.Subjects))
	for i := range s.Subjects {
		sub := &s.Subjects[i]
		if err := validate.Struct(sub); err != nil {
			add("课程 %q: %v", sub.Code, err)
		}
		if subjectIDs[sub.ID] {
			add("课程 ID 重复: %s", sub.ID)
		}
		if subjectCodes[sub.Code] {
			add("课程编号重复: %s", sub.Code)
		}
		subjectIDs[sub.ID] = true
		subjectCodes[sub.Code] = true
		if sub.FacultyID != "" && !facultyIDs[sub.FacultyID] {
			add("课程 %q: 授课教师 %s 不存在", sub.Code, sub.FacultyID)
		}
	}

	edges := make(map[string][]string, len(s.Subjects))
	for i := range s.Subjects {
		sub := &s.Subjects[i]
		for _, pre := range sub.Prerequisites {
			switch {
			case pre == sub.ID:
				add("课程 %q: 不能以自身为先修课", sub.Code)
			case !subjectIDs[pre]:
				add("课程 %q: 先修课 %s 不存在", sub.Code, pre)
			default:
				edges[sub.ID] = append(edges[sub.ID], pre)
			}
		}
	}
	if cycle := FindPrerequisiteCycle(edges); cycle != nil {
		add("先修课存在环: %s", strings.Join(cycle, " -> "))
	}

	seenSem := make(map[int]bool, len(s.CreditLimits))
	for i := range s.CreditLimits {
		cl := &s.CreditLimits[i]
		if err := validate.Struct(cl); err != nil {
			add("学期 %d 学分上限: %v", cl.Semester, err)
		}
		if seenSem[cl.Semester] {
			add("学期 %d 学分上限重复", cl.Semester)
		}
		seenSem[cl.Semester] = true
	}

	if len(problems) > 0 {
		return &CatalogError{Problems: problems}
	}
	return nil
}

// FindPrerequisiteCycle 在先修关系图中查找环，返回环上的节点序列（首尾相同）；无环返回 nil。
// edges[a] 包含 b 表示 a 以 b 为先修课。
func FindPrerequisiteCycle(edges map[string][]string) []string {
	const (
		white = iota
		grey
		black
	)
	color := make(map[string]int, len(edges))
	nodes := make([]string, 0, len(edges))
	for n := range edges {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)

	var stack []string
	var cycle []string
	var visit func(n string) bool
	visit = func(n string) bool {
		color[n] = grey
		stack = append(stack, n)
		next := append([]string(nil), edges[n]...)
		sort.Strings(next)
		for _, m := range next {
			switch color[m] {
			case grey:
				for i := len(stack) - 1; i >= 0; i-- {
					if stack[i] == m {
						cycle = append(append([]string(nil), stack[i:]...), m)
						return true
					}
				}
			case white:
				if visit(m) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[n] = black
		return false
	}

	for _, n := range nodes {
		if color[n] == white && visit(n) {
			return cycle
		}
	}
	return nil
}

// SessionPlan 课程每周需要的课次类型列表，每次课占一个节次。
//
// Theory 取 MinTheoryHours 次理论课，Lab 取 MinLabHours 次实验课，
// Lab-cum-Theory 两者相加；学时为 0 时至少安排一次。
// relax 为 true 时每门课只排一次（理论优先）。
func SessionPlan(sub *Subject, relax bool) []SessionKind {
	theory, lab := 0, 0
	switch sub.Type {
	case CourseLab:
		lab = max(1, sub.MinLabHours)
	case CourseLabCumTheory:
		theory, lab = sub.MinTheoryHours, sub.MinLabHours
		if theory == 0 && lab == 0 {
			theory, lab = 1, 1
		}
	default:
		theory = max(1, sub.MinTheoryHours)
	}

	if relax {
		if theory > 0 {
			return []SessionKind{SessionTheory}
		}
		return []SessionKind{SessionLab}
	}

	kinds := make([]SessionKind, 0, theory+lab)
	for i := 0; i < theory; i++ {
		kinds = append(kinds, SessionTheory)
	}
	for i := 0; i < lab; i++ {
		kinds = append(kinds, SessionLab)
	}
	return kinds
}

// CreditOverload 某学期课程总学分超出上限
type CreditOverload struct {
	Semester   int `json:"semester"`
	Credits    int `json:"credits"`
	MaxCredits int `json:"max_credits"`
}

func (o CreditOverload) String() string {
	return fmt.Sprintf("第 %d 学期课程总学分 %d 超过上限 %d", o.Semester, o.Credits, o.MaxCredits)
}

// CreditOverloads 按学期汇总课程学分，返回超出上限的学期（按学期升序）
func (s *Snapshot) CreditOverloads() []CreditOverload {
	load := make(map[int]int)
	for i := range s.Subjects {
		load[s.Subjects[i].Semester] += s.Subjects[i].Credits
	}
	var out []CreditOverload
	for _, cl := range s.CreditLimits {
		if credits := load[cl.Semester]; credits > cl.MaxCredits {
			out = append(out, CreditOverload{Semester: cl.Semester, Credits: credits, MaxCredits: cl.MaxCredits})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Semester < out[j].Semester })
	return out
}

// ParseClock 解析 "HH:MM" 为当天分钟数
func ParseClock(v string) (int, error) {
	parts := strings.Split(strings.TrimSpace(v), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("时间格式非法: %q", v)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 24 {
		return 0, fmt.Errorf("小时非法: %q", v)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("分钟非法: %q", v)
	}
	return h*60 + m, nil
}

func clampDay(d int) int {
	if d < 0 {
		return 0
	}
	if d >= DaysPerWeek {
		return DaysPerWeek - 1
	}
	return d
}
