package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"timify/backend/config"
	"timify/backend/internal/dto"
	"timify/backend/internal/model"
	"timify/backend/internal/repository"
	"timify/backend/internal/scheduler"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

const (
	lunchText     = "LUNCH BREAK"
	emptyCellText = "-"
	detailsSheet  = "Schedule Details"
	// icsWeeks 日历中每门课按周重复的次数
	icsWeeks = 16
)

// icsWeekdays 与 scheduler.DayNames 顺序一致
var icsWeekdays = [scheduler.DaysPerWeek]string{"MO", "TU", "WE", "TH", "FR"}

// ExportService 导出业务接口
//
// 所有导出都基于课表视图，返回文件内容与建议文件名，由 Handler 层设置响应头。
// Excel / PDF 按 8 行时间段呈现，午休行固定显示 LUNCH BREAK。
type ExportService interface {
	// MasterExcel 导出全量课表；timetableID 为空时取已发布课表
	MasterExcel(ctx context.Context, timetableID string) (*bytes.Buffer, string, error)
	StaffExcel(ctx context.Context, userID string) (*bytes.Buffer, string, error)
	StudentExcel(ctx context.Context, studentID string) (*bytes.Buffer, string, error)
	MasterCSV(ctx context.Context, timetableID string) (*bytes.Buffer, string, error)
	MasterPDF(ctx context.Context, timetableID string) (*bytes.Buffer, string, error)
	// StaffICS / StudentICS 导出个人课表为 iCalendar，每个课次一个按周重复的事件
	StaffICS(ctx context.Context, userID string) (*bytes.Buffer, string, error)
	StudentICS(ctx context.Context, studentID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	cfg       *config.Config
	repo      *repository.Repository
	timetable TimetableService
	logger    *zap.Logger
	now       func() time.Time
}

// NewExportService 创建 ExportService 实例
func NewExportService(cfg *config.Config, repo *repository.Repository, timetable TimetableService, logger *zap.Logger) ExportService {
	return &exportService{
		cfg:       cfg,
		repo:      repo,
		timetable: timetable,
		logger:    logger,
		now:       time.Now,
	}
}

// sheetMeta 表头下方的元数据行
type sheetMeta struct {
	title string
	lines [][2]string
}

// ════════════════════════════════════════════════════════════
// Excel
//
// 输出格式：
//   - 第 1 行标题 "<类型> Timetable"，随后为元数据行
//   - 表头：Time | Monday … Friday
//   - 8 行时间段，单元格为 "课程编号\n教师\n教室"，空单元格为 "-"
//   - 第二个 Sheet "Schedule Details" 为逐条明细
// ════════════════════════════════════════════════════════════

func (s *exportService) MasterExcel(ctx context.Context, timetableID string) (*bytes.Buffer, string, error) {
	grid, err := s.timetable.MasterView(ctx, timetableID)
	if err != nil {
		return nil, "", err
	}
	meta := sheetMeta{title: "Master Timetable", lines: [][2]string{{"Institution", s.cfg.Export.Institution}}}
	buf, err := s.writeExcel(grid, s.withGenerated(meta))
	if err != nil {
		return nil, "", err
	}
	return buf, "master_timetable.xlsx", nil
}

func (s *exportService) StaffExcel(ctx context.Context, userID string) (*bytes.Buffer, string, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	grid, err := s.timetable.StaffView(ctx, userID)
	if err != nil {
		return nil, "", err
	}

	meta := sheetMeta{title: "Staff Timetable", lines: [][2]string{{"Name", user.Name}}}
	f, err := s.repo.Faculty.GetByUserID(ctx, userID)
	switch {
	case err == nil:
		meta.lines = append(meta.lines, [2]string{"Department", f.Department})
	case !errors.Is(err, gorm.ErrRecordNotFound):
		s.logger.Error("查询教师档案失败", zap.String("user_id", userID), zap.Error(err))
		return nil, "", err
	}

	buf, err := s.writeExcel(grid, s.withGenerated(meta))
	if err != nil {
		return nil, "", err
	}
	return buf, fmt.Sprintf("timetable_%s.xlsx", user.Username), nil
}

func (s *exportService) StudentExcel(ctx context.Context, studentID string) (*bytes.Buffer, string, error) {
	user, err := s.getUser(ctx, studentID)
	if err != nil {
		return nil, "", err
	}
	grid, err := s.timetable.StudentView(ctx, studentID)
	if err != nil {
		return nil, "", err
	}

	meta := sheetMeta{title: "Student Timetable", lines: [][2]string{{"Name", user.Name}}}
	if user.Semester != nil {
		meta.lines = append(meta.lines, [2]string{"Semester", strconv.Itoa(*user.Semester)})
	}
	buf, err := s.writeExcel(grid, s.withGenerated(meta))
	if err != nil {
		return nil, "", err
	}
	return buf, fmt.Sprintf("timetable_%s.xlsx", user.Username), nil
}

func (s *exportService) writeExcel(grid *dto.TimetableGridResponse, meta sheetMeta) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Timetable"
	idx, _ := f.NewSheet(sheet)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheet, "A", "A", 14)
	f.SetColWidth(sheet, "B", colName(scheduler.DaysPerWeek), 22)

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	bodyStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})
	lunchStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#FFF3CD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	lastCol := colName(scheduler.DaysPerWeek)

	// 标题与元数据
	row := 1
	f.SetCellValue(sheet, cell("A", row), meta.title)
	f.MergeCell(sheet, cell("A", row), cell(lastCol, row))
	f.SetCellStyle(sheet, cell("A", row), cell("A", row), titleStyle)
	row++
	for _, line := range meta.lines {
		f.SetCellValue(sheet, cell("A", row), line[0]+":")
		f.SetCellValue(sheet, cell("B", row), line[1])
		row++
	}
	row++

	// 表头
	f.SetCellValue(sheet, cell("A", row), "Time")
	for d, day := range grid.Days {
		f.SetCellValue(sheet, cell(colName(d+1), row), day)
	}
	f.SetCellStyle(sheet, cell("A", row), cell(lastCol, row), headerStyle)
	row++

	// 8 行时间段
	for p := 0; p < scheduler.PeriodsPerDay; p++ {
		f.SetCellValue(sheet, cell("A", row), scheduler.PeriodLabel(p))
		texts := periodRow(grid, p)
		for d, text := range texts {
			f.SetCellValue(sheet, cell(colName(d+1), row), text)
		}
		if scheduler.IsLunch(p) {
			f.SetCellStyle(sheet, cell("A", row), cell(lastCol, row), lunchStyle)
		} else {
			f.SetCellStyle(sheet, cell("B", row), cell(lastCol, row), bodyStyle)
			f.SetRowHeight(sheet, row, 48)
		}
		row++
	}

	// 明细
	f.NewSheet(detailsSheet)
	headers := []string{"Subject", "Course Code", "Instructor", "Room", "Day", "Time Slot", "Day Index", "Period"}
	for i, h := range headers {
		f.SetCellValue(detailsSheet, cell(colName(i), 1), h)
	}
	f.SetCellStyle(detailsSheet, "A1", cell(colName(len(headers)-1), 1), headerStyle)
	f.SetColWidth(detailsSheet, "A", colName(len(headers)-1), 18)
	for i, e := range grid.Entries {
		r := i + 2
		values := []any{
			e.CourseName, e.CourseCode, e.InstructorName, e.RoomCode,
			dayLabel(e.DayOfWeek), e.StartTime + "-" + e.EndTime, e.DayOfWeek - 1, e.Period,
		}
		for c, v := range values {
			f.SetCellValue(detailsSheet, cell(colName(c), r), v)
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, ErrExportGenerateFail
	}
	return buf, nil
}

// ────────────────────── CSV ──────────────────────

func (s *exportService) MasterCSV(ctx context.Context, timetableID string) (*bytes.Buffer, string, error) {
	grid, err := s.timetable.MasterView(ctx, timetableID)
	if err != nil {
		return nil, "", err
	}

	buf := new(bytes.Buffer)
	w := csv.NewWriter(buf)
	w.Write([]string{"Day", "Period", "Time", "Course Code", "Course Name", "Type", "Room", "Building", "Instructor"})
	for _, e := range grid.Entries {
		w.Write([]string{
			dayLabel(e.DayOfWeek),
			strconv.Itoa(e.Period),
			e.StartTime + "-" + e.EndTime,
			e.CourseCode,
			e.CourseName,
			e.SlotType,
			e.RoomCode,
			e.Building,
			e.InstructorName,
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		s.logger.Error("写入 CSV 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	return buf, "master_timetable.csv", nil
}

// ════════════════════════════════════════════════════════════
// PDF
//
// A4 横向；首列为时间段，其余 5 列为周一至周五。
// 内置字体只覆盖 Latin-1，文本先经 cp1252 转换。
// ════════════════════════════════════════════════════════════

func (s *exportService) MasterPDF(ctx context.Context, timetableID string) (*bytes.Buffer, string, error) {
	grid, err := s.timetable.MasterView(ctx, timetableID)
	if err != nil {
		return nil, "", err
	}

	const (
		timeColW = 37.0
		dayColW  = 48.0
		headerH  = 8.0
		rowH     = 20.0
		lunchH   = 8.0
		lineH    = 4.0
	)

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(false, 10)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 8, tr(s.cfg.Export.Institution+" - Master Timetable"), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 5, "Generated on "+s.now().Format("2006-01-02 15:04"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	// 表头
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(68, 114, 196)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(timeColW, headerH, "Time", "1", 0, "C", true, 0, "")
	for _, day := range grid.Days {
		pdf.CellFormat(dayColW, headerH, day, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetTextColor(0, 0, 0)

	left, _, _, _ := pdf.GetMargins()
	for p := 0; p < scheduler.PeriodsPerDay; p++ {
		y := pdf.GetY()
		if scheduler.IsLunch(p) {
			pdf.SetFont("Arial", "B", 9)
			pdf.SetFillColor(255, 243, 205)
			pdf.CellFormat(timeColW, lunchH, scheduler.PeriodLabel(p), "1", 0, "C", true, 0, "")
			pdf.CellFormat(dayColW*scheduler.DaysPerWeek, lunchH, lunchText, "1", 1, "C", true, 0, "")
			continue
		}

		pdf.SetFont("Arial", "B", 9)
		pdf.CellFormat(timeColW, rowH, scheduler.PeriodLabel(p), "1", 0, "C", false, 0, "")
		pdf.SetFont("Arial", "", 8)
		col := scheduler.Slot{Period: p}.Column()
		for d := 0; d < scheduler.DaysPerWeek; d++ {
			x := left + timeColW + float64(d)*dayColW
			pdf.Rect(x, y, dayColW, rowH, "D")
			lines := pdfCellLines(grid.Cells[d][col], int(rowH/lineH))
			top := y + (rowH-float64(len(lines))*lineH)/2
			for i, line := range lines {
				pdf.SetXY(x, top+float64(i)*lineH)
				pdf.CellFormat(dayColW, lineH, tr(line), "", 0, "C", false, 0, "")
			}
		}
		pdf.SetXY(left, y+rowH)
	}

	buf := new(bytes.Buffer)
	if err := pdf.Output(buf); err != nil {
		s.logger.Error("写入 PDF 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	return buf, "master_timetable.pdf", nil
}

// pdfCellLines 单课次显示编号、教师、教室三行；多课次每条一行
func pdfCellLines(entries []dto.SlotEntry, maxLines int) []string {
	if len(entries) == 0 {
		return []string{emptyCellText}
	}
	if len(entries) == 1 {
		e := entries[0]
		return []string{e.CourseCode, e.InstructorName, e.RoomCode}
	}
	lines := make([]string, 0, len(entries))
	for i, e := range entries {
		if i == maxLines-1 && len(entries) > maxLines {
			lines = append(lines, fmt.Sprintf("+%d more", len(entries)-i))
			break
		}
		lines = append(lines, e.CourseCode+" ("+e.RoomCode+")")
	}
	return lines
}

// ════════════════════════════════════════════════════════════
// ICS
//
// 事件从本周起按周重复 icsWeeks 次，时间按 export.timezone 解释。
// ════════════════════════════════════════════════════════════

func (s *exportService) StaffICS(ctx context.Context, userID string) (*bytes.Buffer, string, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	grid, err := s.timetable.StaffView(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	buf := s.writeICS(grid, user.Name+" - Timetable")
	return buf, fmt.Sprintf("timetable_%s.ics", user.Username), nil
}

func (s *exportService) StudentICS(ctx context.Context, studentID string) (*bytes.Buffer, string, error) {
	user, err := s.getUser(ctx, studentID)
	if err != nil {
		return nil, "", err
	}
	grid, err := s.timetable.StudentView(ctx, studentID)
	if err != nil {
		return nil, "", err
	}
	buf := s.writeICS(grid, user.Name+" - Timetable")
	return buf, fmt.Sprintf("timetable_%s.ics", user.Username), nil
}

func (s *exportService) writeICS(grid *dto.TimetableGridResponse, name string) *bytes.Buffer {
	loc := s.location()
	monday := weekStart(s.now().In(loc))
	stamp := s.now().UTC()

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//" + s.cfg.Export.Institution + "//Timetable//EN")
	cal.SetXWRCalName(name)
	cal.SetXWRTimezone(loc.String())

	for _, e := range grid.Entries {
		day := e.DayOfWeek - 1
		if day < 0 || day >= scheduler.DaysPerWeek {
			continue
		}
		slot := scheduler.Slot{Day: day, Period: e.Period}
		date := monday.AddDate(0, 0, day)
		start := date.Add(time.Duration(slot.StartMinute()) * time.Minute)
		end := date.Add(time.Duration(slot.EndMinute()) * time.Minute)

		evt := cal.AddEvent(fmt.Sprintf("%s-%s-%d@timify", grid.TimetableID, e.SubjectID, e.SessionIndex))
		evt.SetDtStampTime(stamp)
		evt.SetStartAt(start)
		evt.SetEndAt(end)
		evt.SetSummary(strings.TrimSpace(e.CourseCode + " " + e.CourseName))
		evt.SetLocation(strings.TrimSpace(e.RoomCode + " " + e.Building))
		evt.SetDescription(fmt.Sprintf("Instructor: %s\nType: %s", e.InstructorName, e.SlotType))
		evt.AddRrule(fmt.Sprintf("FREQ=WEEKLY;BYDAY=%s;COUNT=%d", icsWeekdays[day], icsWeeks))
	}

	return bytes.NewBufferString(cal.Serialize())
}

// location 导出时区，配置非法时回退 UTC
func (s *exportService) location() *time.Location {
	if s.cfg.Export.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.cfg.Export.Timezone)
	if err != nil {
		s.logger.Warn("导出时区无效，使用 UTC", zap.String("timezone", s.cfg.Export.Timezone), zap.Error(err))
		return time.UTC
	}
	return loc
}

// ── 辅助函数 ──

func (s *exportService) getUser(ctx context.Context, id string) (*model.User, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("user_id", id), zap.Error(err))
		return nil, err
	}
	return user, nil
}

func (s *exportService) withGenerated(meta sheetMeta) sheetMeta {
	meta.lines = append(meta.lines, [2]string{"Generated on", s.now().Format("2006-01-02 15:04")})
	return meta
}

// periodRow 某一节次在周一至周五的单元格文本
func periodRow(grid *dto.TimetableGridResponse, period int) []string {
	texts := make([]string, scheduler.DaysPerWeek)
	if scheduler.IsLunch(period) {
		for d := range texts {
			texts[d] = lunchText
		}
		return texts
	}
	col := scheduler.Slot{Period: period}.Column()
	for d := range texts {
		entries := grid.Cells[d][col]
		if len(entries) == 0 {
			texts[d] = emptyCellText
			continue
		}
		parts := make([]string, 0, len(entries))
		for _, e := range entries {
			parts = append(parts, e.CourseCode+"\n"+e.InstructorName+"\n"+e.RoomCode)
		}
		texts[d] = strings.Join(parts, "\n\n")
	}
	return texts
}

func dayLabel(dayOfWeek int) string {
	if dayOfWeek < 1 || dayOfWeek > scheduler.DaysPerWeek {
		return ""
	}
	return scheduler.DayLabels[dayOfWeek-1]
}

// weekStart t 所在周的周一 00:00
func weekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.AddDate(0, 0, -offset).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
