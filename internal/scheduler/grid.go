package scheduler

import "fmt"

// ── 周课表网格 ──
// 每周 5 天 × 每天 8 节，第 4 节（13:00-14:00）为午休，全局不可排课。

const (
	DaysPerWeek     = 5
	PeriodsPerDay   = 8
	LunchPeriod     = 4
	ColumnsPerDay   = PeriodsPerDay - 1 // 去掉午休后的可排节次数
	SlotsPerWeek    = DaysPerWeek * ColumnsPerDay
	FirstPeriodHour = 9 // 第 0 节 09:00 开始，每节 1 小时
)

// DayNames 星期名称（与教师可用时间 JSON 的键一致）
var DayNames = [DaysPerWeek]string{"monday", "tuesday", "wednesday", "thursday", "friday"}

// DayLabels 导出与展示用的星期标签
var DayLabels = [DaysPerWeek]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

// Slot 一个 (day, period) 单元格
type Slot struct {
	Day    int `json:"day"`
	Period int `json:"period"`
}

// IsLunch 判断节次是否为午休
func IsLunch(period int) bool {
	return period == LunchPeriod
}

// AllSlots 按 (day, period) 升序返回全部 35 个可排单元格
func AllSlots() []Slot {
	slots := make([]Slot, 0, SlotsPerWeek)
	for d := 0; d < DaysPerWeek; d++ {
		for p := 0; p < PeriodsPerDay; p++ {
			if IsLunch(p) {
				continue
			}
			slots = append(slots, Slot{Day: d, Period: p})
		}
	}
	return slots
}

// Valid 是否落在网格内（午休节次也视为合法坐标，由约束检查拒绝）
func (s Slot) Valid() bool {
	return s.Day >= 0 && s.Day < DaysPerWeek && s.Period >= 0 && s.Period < PeriodsPerDay
}

// Column 午休折叠后的列号 0..6；午休返回 -1
func (s Slot) Column() int {
	switch {
	case IsLunch(s.Period):
		return -1
	case s.Period > LunchPeriod:
		return s.Period - 1
	default:
		return s.Period
	}
}

// Index 单元格在 AllSlots 中的下标；午休返回 -1
func (s Slot) Index() int {
	col := s.Column()
	if col < 0 {
		return -1
	}
	return s.Day*ColumnsPerDay + col
}

// SlotAt Index 的逆运算
func SlotAt(index int) Slot {
	day, col := index/ColumnsPerDay, index%ColumnsPerDay
	return Slot{Day: day, Period: PeriodOfColumn(col)}
}

// PeriodOfColumn 列号还原为节次
func PeriodOfColumn(col int) int {
	if col >= LunchPeriod {
		return col + 1
	}
	return col
}

// StartMinute 当天起始分钟数
func (s Slot) StartMinute() int {
	return (FirstPeriodHour + s.Period) * 60
}

// EndMinute 当天结束分钟数
func (s Slot) EndMinute() int {
	return s.StartMinute() + 60
}

// StartTime 如 "09:00"
func (s Slot) StartTime() string {
	return formatMinute(s.StartMinute())
}

// EndTime 如 "10:00"
func (s Slot) EndTime() string {
	return formatMinute(s.EndMinute())
}

func (s Slot) String() string {
	if s.Day < 0 || s.Day >= DaysPerWeek {
		return fmt.Sprintf("day%d P%d", s.Day, s.Period)
	}
	return fmt.Sprintf("%s P%d", DayLabels[s.Day][:3], s.Period)
}

// PeriodLabel 节次时间段，如 "09:00-10:00"
func PeriodLabel(period int) string {
	s := Slot{Period: period}
	return s.StartTime() + "-" + s.EndTime()
}

// ParseDay 星期名称（小写）转下标
func ParseDay(name string) (int, bool) {
	for i, n := range DayNames {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

func formatMinute(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
