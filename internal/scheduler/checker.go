package scheduler

import "fmt"

// Reason 约束不满足的原因，按检查顺序排列
type Reason string

const (
	ReasonLunch              Reason = "lunch_period"
	ReasonFacultyConflict    Reason = "faculty_conflict"
	ReasonFacultyUnavailable Reason = "faculty_unavailable"
	ReasonRoomConflict       Reason = "room_conflict"
	ReasonRoomMismatch       Reason = "room_mismatch"
	ReasonSameDay            Reason = "same_day"
	ReasonFacultyOverload    Reason = "faculty_overload"

	// 以下原因只出现在未排课次的汇总里
	ReasonNoFaculty Reason = "no_faculty"
	ReasonNoRoom    Reason = "no_room"
)

// reasonOrder 决定并列时汇总原因的取舍
var reasonOrder = map[Reason]int{
	ReasonLunch:              1,
	ReasonFacultyConflict:    2,
	ReasonFacultyUnavailable: 3,
	ReasonRoomConflict:       4,
	ReasonRoomMismatch:       5,
	ReasonSameDay:            6,
	ReasonFacultyOverload:    7,
	ReasonNoFaculty:          8,
	ReasonNoRoom:             9,
}

// ConstraintViolation 候选落位不可行
type ConstraintViolation struct {
	Reason Reason
	Detail string
}

func (v *ConstraintViolation) Error() string {
	if v.Detail == "" {
		return string(v.Reason)
	}
	return fmt.Sprintf("%s: %s", v.Reason, v.Detail)
}

// Placement 待检查的候选：某课程的一次课放到 (单元格, 教室, 教师)
type Placement struct {
	Subject *Subject
	Kind    SessionKind
	Slot    Slot
	Room    *Room
	Faculty *Faculty
}

// Checker 约束检查器，只读评估，不修改累积器
type Checker struct {
	// AllowSameDay 允许同一课程的多次课落在同一天
	AllowSameDay bool
}

// Check 依次检查七项约束，遇到第一项不满足即返回 *ConstraintViolation；可行返回 nil
func (c Checker) Check(acc *Accumulator, p Placement) error {
	if IsLunch(p.Slot.Period) {
		return &ConstraintViolation{Reason: ReasonLunch}
	}
	if _, busy := acc.FacultyAt(p.Faculty.ID, p.Slot); busy {
		return &ConstraintViolation{Reason: ReasonFacultyConflict, Detail: p.Slot.String()}
	}
	if !p.Faculty.AvailableAt(p.Slot) {
		return &ConstraintViolation{Reason: ReasonFacultyUnavailable, Detail: p.Slot.String()}
	}
	if _, busy := acc.RoomAt(p.Room.ID, p.Slot); busy {
		return &ConstraintViolation{Reason: ReasonRoomConflict, Detail: p.Room.Code}
	}
	if err := checkRoom(p); err != nil {
		return err
	}
	if !c.AllowSameDay && acc.SubjectOnDay(p.Subject.ID, p.Slot.Day) > 0 {
		return &ConstraintViolation{Reason: ReasonSameDay, Detail: DayLabels[p.Slot.Day]}
	}
	if limit := p.Faculty.MaxHoursPerWeek; limit > 0 && acc.FacultyHours(p.Faculty.ID)+1 > limit {
		return &ConstraintViolation{
			Reason: ReasonFacultyOverload,
			Detail: fmt.Sprintf("%d/%d", acc.FacultyHours(p.Faculty.ID)+1, limit),
		}
	}
	return nil
}

// checkStatic 与已排结果无关的检查（午休、教师时段、教室类型与容量），用于预筛候选
func (c Checker) checkStatic(p Placement) error {
	if IsLunch(p.Slot.Period) {
		return &ConstraintViolation{Reason: ReasonLunch}
	}
	if !p.Faculty.AvailableAt(p.Slot) {
		return &ConstraintViolation{Reason: ReasonFacultyUnavailable}
	}
	return checkRoom(p)
}

func checkRoom(p Placement) error {
	if p.Room.Type != p.Kind.RoomType() {
		return &ConstraintViolation{
			Reason: ReasonRoomMismatch,
			Detail: fmt.Sprintf("需要 %s，实际 %s", p.Kind.RoomType(), p.Room.Type),
		}
	}
	if p.Room.Capacity < p.Subject.Capacity {
		return &ConstraintViolation{
			Reason: ReasonRoomMismatch,
			Detail: fmt.Sprintf("容量 %d < %d", p.Room.Capacity, p.Subject.Capacity),
		}
	}
	return nil
}
