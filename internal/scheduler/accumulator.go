package scheduler

// Assignment 一次课的落位结果：课程 → (单元格, 教室, 教师)
type Assignment struct {
	SubjectID    string      `json:"subject_id"`
	SubjectCode  string      `json:"subject_code"`
	SessionIndex int         `json:"session_index"`
	Kind         SessionKind `json:"kind"`
	Slot         Slot        `json:"slot"`
	RoomID       string      `json:"room_id"`
	RoomCode     string      `json:"room_code"`
	FacultyID    string      `json:"faculty_id"`
}

type busyKey struct {
	id   string
	slot int
}

type placed struct {
	owner      int
	assignment Assignment
}

// Accumulator 单次排课运行内的已排结果。
// 由调用方创建并贯穿整个搜索过程，不在多次运行间复用。
// 放置与撤销按栈序进行。
type Accumulator struct {
	stack        []placed
	facultyBusy  map[busyKey]int
	roomBusy     map[busyKey]int
	facultyHours map[string]int
	subjectDays  map[string]*[DaysPerWeek]int
}

// NewAccumulator 创建空的累积器
func NewAccumulator() *Accumulator {
	return &Accumulator{
		facultyBusy:  make(map[busyKey]int),
		roomBusy:     make(map[busyKey]int),
		facultyHours: make(map[string]int),
		subjectDays:  make(map[string]*[DaysPerWeek]int),
	}
}

// Place 记录一次落位；owner 为调用方的课次序号，用于冲突溯源
func (a *Accumulator) Place(owner int, as Assignment) {
	idx := as.Slot.Index()
	a.stack = append(a.stack, placed{owner: owner, assignment: as})
	a.facultyBusy[busyKey{as.FacultyID, idx}] = owner
	a.roomBusy[busyKey{as.RoomID, idx}] = owner
	a.facultyHours[as.FacultyID]++
	days, ok := a.subjectDays[as.SubjectID]
	if !ok {
		days = new([DaysPerWeek]int)
		a.subjectDays[as.SubjectID] = days
	}
	days[as.Slot.Day]++
}

// Undo 撤销最近一次落位，返回其 owner；栈空时返回 -1
func (a *Accumulator) Undo() int {
	if len(a.stack) == 0 {
		return -1
	}
	top := a.stack[len(a.stack)-1]
	a.stack = a.stack[:len(a.stack)-1]

	as := top.assignment
	idx := as.Slot.Index()
	delete(a.facultyBusy, busyKey{as.FacultyID, idx})
	delete(a.roomBusy, busyKey{as.RoomID, idx})
	if a.facultyHours[as.FacultyID]--; a.facultyHours[as.FacultyID] == 0 {
		delete(a.facultyHours, as.FacultyID)
	}
	if days := a.subjectDays[as.SubjectID]; days != nil {
		days[as.Slot.Day]--
	}
	return top.owner
}

// Len 当前已落位数量
func (a *Accumulator) Len() int { return len(a.stack) }

// TopOwner 栈顶 owner；栈空时返回 -1
func (a *Accumulator) TopOwner() int {
	if len(a.stack) == 0 {
		return -1
	}
	return a.stack[len(a.stack)-1].owner
}

// FacultyAt 教师在该单元格已被谁占用
func (a *Accumulator) FacultyAt(facultyID string, s Slot) (int, bool) {
	owner, ok := a.facultyBusy[busyKey{facultyID, s.Index()}]
	return owner, ok
}

// RoomAt 教室在该单元格已被谁占用
func (a *Accumulator) RoomAt(roomID string, s Slot) (int, bool) {
	owner, ok := a.roomBusy[busyKey{roomID, s.Index()}]
	return owner, ok
}

// FacultyHours 教师本周已排课时
func (a *Accumulator) FacultyHours(facultyID string) int {
	return a.facultyHours[facultyID]
}

// SubjectOnDay 课程在某天已有的课次数
func (a *Accumulator) SubjectOnDay(subjectID string, day int) int {
	days := a.subjectDays[subjectID]
	if days == nil {
		return 0
	}
	return days[day]
}

// Owners 返回满足条件的已落位 owner 列表
func (a *Accumulator) Owners(match func(Assignment) bool) []int {
	var out []int
	for _, p := range a.stack {
		if match(p.assignment) {
			out = append(out, p.owner)
		}
	}
	return out
}

// Assignments 按落位顺序返回全部结果的副本
func (a *Accumulator) Assignments() []Assignment {
	out := make([]Assignment, len(a.stack))
	for i, p := range a.stack {
		out[i] = p.assignment
	}
	return out
}
