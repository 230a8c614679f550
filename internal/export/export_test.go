package export

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/pfrederiksen/kebiao-ics/internal/clock"
	"github.com/pfrederiksen/kebiao-ics/internal/schedule"
)

func testClock(t *testing.T) *clock.Clock {
	t.Helper()
	table, err := clock.NewPeriodTable(clock.DefaultPeriods())
	require.NoError(t, err)
	anchor, err := clock.ParseAnchor("2023-09-10")
	require.NoError(t, err)
	c, err := clock.New(anchor, table, clock.Zone)
	require.NoError(t, err)
	return c
}

func TestWriteSessions(t *testing.T) {
	sessions := []schedule.Session{
		{
			CourseName: "生物信息学",
			WeekLabel:  "第3周",
			Weekday:    schedule.Weekday1,
			Periods:    []int{14, 15},
			Teacher:    "陈老师",
			Location:   "钉钉",
			DetailURL:  "http://xinxi.yjsy.wmu.edu.cn/py/page/student/kcxx.htm?kcdm=104",
		},
		{
			CourseName: "科研实践",
			WeekLabel:  "第1周",
			Weekday:    schedule.Weekday7,
			Periods:    []int{1},
			Location:   "(场地详见学院通知)",
		},
	}
	path := filepath.Join(t.TempDir(), "202311000123_sessions.xlsx")

	require.NoError(t, WriteSessions(path, sessions, testClock(t)))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, SheetName, f.GetSheetName(0))
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, Header, rows[0])
	assert.Equal(t, []string{
		"生物信息学", "第3周", "星期一", "第14-15节",
		"2023-09-25 18:20", "2023-09-25 19:45",
		"陈老师", "钉钉", "http://xinxi.yjsy.wmu.edu.cn/py/page/student/kcxx.htm?kcdm=104",
	}, rows[1])
	assert.Equal(t, "星期七", rows[2][2])
	assert.Equal(t, "第1节", rows[2][3])
	assert.Equal(t, "2023-09-17 08:00", rows[2][4])
}

func TestWriteSessions_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")

	require.NoError(t, WriteSessions(path, nil, testClock(t)))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestWriteSessions_UnknownPeriod(t *testing.T) {
	sessions := []schedule.Session{{CourseName: "x", WeekLabel: "第1周", Weekday: schedule.Weekday1, Periods: []int{20}}}

	err := WriteSessions(filepath.Join(t.TempDir(), "bad.xlsx"), sessions, testClock(t))

	var upe *clock.UnknownPeriodError
	assert.True(t, errors.As(err, &upe), "error = %v", err)
}
