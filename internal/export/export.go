// Package export writes resolved sessions to a spreadsheet for review.
package export

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/pfrederiksen/kebiao-ics/internal/clock"
	"github.com/pfrederiksen/kebiao-ics/internal/schedule"
)

// SheetName is the name of the only sheet in an export.
const SheetName = "课表"

// Header is the first row of the sheet.
var Header = []string{"课程名称", "周次", "星期", "节次", "开始时间", "结束时间", "教师", "地点", "课程信息页面"}

var columnWidths = []float64{24, 8, 8, 10, 18, 18, 12, 28, 60}

// WriteSessions writes one row per session to a new workbook at path,
// replacing any existing file. Start and end times come from clk.
func WriteSessions(path string, sessions []schedule.Session, clk *clock.Clock) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	if err := f.SetSheetRow(SheetName, "A1", &Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	if err := f.SetRowStyle(SheetName, 1, 1, bold); err != nil {
		return fmt.Errorf("styling header: %w", err)
	}

	for i, s := range sessions {
		start, end, err := clk.SessionSpan(s)
		if err != nil {
			return err
		}
		row := []interface{}{
			s.CourseName,
			s.WeekLabel,
			s.Weekday.String(),
			periodText(s),
			start.Format("2006-01-02 15:04"),
			end.Format("2006-01-02 15:04"),
			s.Teacher,
			s.Location,
			s.DetailURL,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}

	for i, width := range columnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return fmt.Errorf("setting column width: %w", err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

func periodText(s schedule.Session) string {
	first, last := s.FirstPeriod(), s.LastPeriod()
	if first == last {
		return "第" + strconv.Itoa(first) + "节"
	}
	return fmt.Sprintf("第%d-%d节", first, last)
}
