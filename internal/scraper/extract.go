package scraper

import (
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/pfrederiksen/kebiao-ics/internal/schedule"
)

const (
	weekSelector   = "select#zc"
	gridSelector   = "table.table-course"
	courseSelector = "a.c666"
	nameSelector   = "strong.f14"

	// Leading cells of a grid row that label the period slot.
	labelCells = 2
	// Fields in a course block's text run: prefix, course attributes,
	// period range, teacher, location.
	textRunFields = 5
	fieldPeriods  = 2
	fieldTeacher  = 3
	fieldLocation = 4
)

var periodRangePattern = regexp.MustCompile(`^第?\s*(\d+)\s*(?:-+\s*(\d+))?\s*节?$`)

// ParseSchedule extracts every session on one week page. Relative course
// links are resolved against base.
func ParseSchedule(r io.Reader, base *url.URL) ([]schedule.Session, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, malformed("parsing HTML", err)
	}

	weekLabel, err := selectedWeek(doc)
	if err != nil {
		return nil, err
	}

	grid := doc.Find(gridSelector).First()
	if grid.Length() == 0 {
		return nil, malformed("timetable grid "+gridSelector+" not found", nil)
	}

	sessions := make([]schedule.Session, 0)
	var parseErr error

	rows := grid.Find("tr")
	if rows.Length() < 2 {
		return sessions, nil
	}

	// The first row is the weekday header.
	rows.Slice(1, goquery.ToEnd).EachWithBreak(func(row int, tr *goquery.Selection) bool {
		cells := tr.ChildrenFiltered("td")
		if cells.Length() <= labelCells {
			return true
		}
		days := cells.Slice(labelCells, goquery.ToEnd)
		if days.Length() > 7 {
			parseErr = malformed(fmt.Sprintf("row %d has %d weekday cells", row+1, days.Length()), nil)
			return false
		}

		days.EachWithBreak(func(col int, td *goquery.Selection) bool {
			weekday, err := schedule.WeekdayFromColumn(col)
			if err != nil {
				parseErr = malformed(fmt.Sprintf("row %d", row+1), err)
				return false
			}
			td.Find(courseSelector).EachWithBreak(func(_ int, a *goquery.Selection) bool {
				s, err := parseCourseBlock(a, base)
				if err != nil {
					parseErr = malformed(fmt.Sprintf("row %d %s", row+1, weekday), err)
					return false
				}
				s.WeekLabel = weekLabel
				s.Weekday = weekday
				if err := s.Validate(); err != nil {
					parseErr = malformed(fmt.Sprintf("row %d %s", row+1, weekday), err)
					return false
				}
				sessions = append(sessions, s)
				return true
			})
			return parseErr == nil
		})
		return parseErr == nil
	})

	if parseErr != nil {
		return nil, parseErr
	}
	return sessions, nil
}

// selectedWeek reads the week label from the week selector.
func selectedWeek(doc *goquery.Document) (string, error) {
	sel := doc.Find(weekSelector).First()
	if sel.Length() == 0 {
		return "", malformed("week selector "+weekSelector+" not found", nil)
	}
	opt := sel.Find("option[selected]").First()
	if opt.Length() == 0 {
		return "", malformed("week selector has no selected option", nil)
	}
	label := strings.Join(strings.Fields(opt.Text()), "")
	if _, err := schedule.ParseWeekLabel(label); err != nil {
		return "", malformed("selected week", err)
	}
	return label, nil
}

func parseCourseBlock(a *goquery.Selection, base *url.URL) (schedule.Session, error) {
	var s schedule.Session

	name := a.Find(nameSelector).First()
	if name.Length() == 0 {
		return s, fmt.Errorf("course block has no %s", nameSelector)
	}
	s.CourseName = clean(name.Text())

	href, ok := a.Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return s, fmt.Errorf("course %q has no link", s.CourseName)
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return s, fmt.Errorf("course %q link: %w", s.CourseName, err)
	}
	s.DetailURL = base.ResolveReference(ref).String()

	fields := textRun(a)
	if len(fields) != textRunFields {
		return s, fmt.Errorf("course %q has %d text fields, want %d: %q", s.CourseName, len(fields), textRunFields, fields)
	}

	s.Periods, err = parsePeriods(fields[fieldPeriods])
	if err != nil {
		return s, fmt.Errorf("course %q: %w", s.CourseName, err)
	}
	s.Teacher = fields[fieldTeacher]
	s.Location = fields[fieldLocation]
	return s, nil
}

// textRun splits the link's content after the course name on <br> elements.
// Blank fields past the expected count are dropped.
func textRun(a *goquery.Selection) []string {
	var fields []string
	var buf strings.Builder
	seenName := false

	a.Contents().Each(func(_ int, n *goquery.Selection) {
		node := n.Get(0)
		if !seenName {
			if n.Is(nameSelector) || n.Find(nameSelector).Length() > 0 {
				seenName = true
			}
			return
		}
		if node.Type == html.ElementNode && node.Data == "br" {
			fields = append(fields, clean(buf.String()))
			buf.Reset()
			return
		}
		buf.WriteString(n.Text())
	})
	fields = append(fields, clean(buf.String()))

	for len(fields) > textRunFields && fields[len(fields)-1] == "" {
		fields = fields[:len(fields)-1]
	}
	return fields
}

// parsePeriods parses "第14 -- 15节" into [14 15].
func parsePeriods(text string) ([]int, error) {
	m := periodRangePattern.FindStringSubmatch(text)
	if m == nil {
		return nil, fmt.Errorf("invalid period range %q", text)
	}
	first, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, fmt.Errorf("invalid period range %q: %w", text, err)
	}
	last := first
	if m[2] != "" {
		if last, err = strconv.Atoi(m[2]); err != nil {
			return nil, fmt.Errorf("invalid period range %q: %w", text, err)
		}
	}
	return schedule.PeriodRange(first, last)
}

// ParseStudentID returns the student number shown in the page header, or ""
// when the page has none.
func ParseStudentID(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}

	label := doc.Find("span").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return clean(s.Text()) == "学号"
	}).First()
	if label.Length() == 0 {
		return "", nil
	}
	return clean(label.NextAllFiltered("span.text").First().Text()), nil
}

// clean trims and collapses whitespace; strings.Fields also splits on &nbsp;.
func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
