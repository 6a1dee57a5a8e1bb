package scheduler

// ViewKind 视图类型
type ViewKind string

const (
	ViewMaster  ViewKind = "master"
	ViewStudent ViewKind = "student"
	ViewStaff   ViewKind = "staff"
	ViewRoom    ViewKind = "room"
)

// ViewFilter 视图过滤条件
type ViewFilter struct {
	Kind       ViewKind
	SubjectIDs []string // 学生视图：已选课程
	FacultyID  string   // 教师视图
	RoomID     string   // 教室视图
}

// Grid 5 × 7 课表网格（已去掉午休列），每格可有多条排课
type Grid struct {
	Cells [DaysPerWeek][ColumnsPerDay][]Assignment
}

// At 取某单元格的排课
func (g Grid) At(s Slot) []Assignment {
	if !s.Valid() || IsLunch(s.Period) {
		return nil
	}
	return g.Cells[s.Day][s.Column()]
}

// Entries 按 (星期, 节次) 展开全部排课
func (g Grid) Entries() []Assignment {
	var out []Assignment
	for d := 0; d < DaysPerWeek; d++ {
		for c := 0; c < ColumnsPerDay; c++ {
			out = append(out, g.Cells[d][c]...)
		}
	}
	return out
}

// Count 排课总数
func (g Grid) Count() int {
	n := 0
	for d := 0; d < DaysPerWeek; d++ {
		for c := 0; c < ColumnsPerDay; c++ {
			n += len(g.Cells[d][c])
		}
	}
	return n
}

// Project 将已发布课表投影为网格。未知教师、教室或空课程集得到空网格，
// 越界或落在午休的坐标直接跳过。
func Project(assignments []Assignment, f ViewFilter) Grid {
	var keep func(a *Assignment) bool
	switch f.Kind {
	case ViewStudent:
		set := make(map[string]bool, len(f.SubjectIDs))
		for _, id := range f.SubjectIDs {
			set[id] = true
		}
		keep = func(a *Assignment) bool { return set[a.SubjectID] }
	case ViewStaff:
		keep = func(a *Assignment) bool { return f.FacultyID != "" && a.FacultyID == f.FacultyID }
	case ViewRoom:
		keep = func(a *Assignment) bool { return f.RoomID != "" && a.RoomID == f.RoomID }
	default:
		keep = func(*Assignment) bool { return true }
	}

	sorted := append([]Assignment(nil), assignments...)
	sortAssignments(sorted)

	var g Grid
	for i := range sorted {
		a := &sorted[i]
		if !keep(a) {
			continue
		}
		if !a.Slot.Valid() || IsLunch(a.Slot.Period) {
			continue
		}
		col := a.Slot.Column()
		g.Cells[a.Slot.Day][col] = append(g.Cells[a.Slot.Day][col], *a)
	}
	return g
}
