package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pfrederiksen/kebiao-ics/internal/calendar"
	"github.com/pfrederiksen/kebiao-ics/internal/clock"
	"github.com/pfrederiksen/kebiao-ics/internal/schedule"
)

func main() {
	// One evening session in week 3 of term 2023/11
	sessions := []schedule.Session{
		{
			CourseName: "生物信息学",
			WeekLabel:  "第3周",
			Weekday:    schedule.Weekday1,
			Periods:    []int{14, 15},
			Teacher:    "陈老师",
			Location:   "钉钉",
			DetailURL:  "http://xinxi.yjsy.wmu.edu.cn/py/page/student/kcxx.htm?kcdm=104&bh=1",
		},
	}

	periods, err := clock.NewPeriodTable(clock.DefaultPeriods())
	if err != nil {
		fail(err)
	}
	anchor, err := clock.ParseAnchor("2023-09-10")
	if err != nil {
		fail(err)
	}
	clk, err := clock.New(anchor, periods, clock.Zone)
	if err != nil {
		fail(err)
	}

	events, err := calendar.BuildEvents(sessions, clk, time.Now())
	if err != nil {
		fail(err)
	}
	icsContent := calendar.GenerateBulkICS(events, calendar.CalendarName("test"))
	if err := calendar.Validate(icsContent, len(events)); err != nil {
		fail(err)
	}

	// Write to file (owner read/write only)
	filename := "test-kebiao.ics"
	if err := os.WriteFile(filename, []byte(icsContent), 0600); err != nil {
		fail(err)
	}

	fmt.Printf("✅ Generated calendar file: %s\n\n", filename)
	fmt.Println("Test it by:")
	fmt.Println("1. Open the .ics file with your calendar app (double-click)")
	fmt.Println("2. Check the event is on Monday 2023-09-25, 18:20-19:45 China time")
	fmt.Println("\nFile contents preview:")
	fmt.Println("---")
	fmt.Println(icsContent)
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
