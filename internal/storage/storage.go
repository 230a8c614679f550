package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pfrederiksen/kebiao-ics/internal/schedule"
)

// Storage handles persistence of pages and run outputs
type Storage struct {
	pageDir   string
	outputDir string
}

// New creates a new Storage instance, creating both directories.
func New(pageDir, outputDir string) (*Storage, error) {
	pageDir, err := ExpandHome(pageDir)
	if err != nil {
		return nil, err
	}
	outputDir, err = ExpandHome(outputDir)
	if err != nil {
		return nil, err
	}

	for _, dir := range []string{pageDir, outputDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	return &Storage{
		pageDir:   pageDir,
		outputDir: outputDir,
	}, nil
}

// ExpandHome expands a leading "~/" to the home directory.
func ExpandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, path[2:]), nil
}

// PageDir returns the directory holding raw pages.
func (s *Storage) PageDir() string {
	return s.pageDir
}

// OutputPath returns the path of a file in the output directory.
func (s *Storage) OutputPath(name string) string {
	return filepath.Join(s.outputDir, name)
}

func (s *Storage) weekPagePath(week int) string {
	return filepath.Join(s.pageDir, strconv.Itoa(week)+".html")
}

// DetailPageName returns the file name of a course section's detail page:
// "kc_<course>_<url hash>.html". Sections sharing a course name get
// distinct files.
func DetailPageName(courseName, pageURL string) string {
	hash := uuid.NewSHA1(uuid.NameSpaceURL, []byte(pageURL)).String()[:8]
	return "kc_" + fileSafe(courseName) + "_" + hash + ".html"
}

func (s *Storage) detailPagePath(courseName, pageURL string) string {
	return filepath.Join(s.pageDir, DetailPageName(courseName, pageURL))
}

// SaveWeekPage stores the raw page of one week.
func (s *Storage) SaveWeekPage(week int, html string) error {
	if err := os.WriteFile(s.weekPagePath(week), []byte(html), 0644); err != nil {
		return fmt.Errorf("writing week %d page: %w", week, err)
	}
	return nil
}

// LoadWeekPage reads a stored week page. ok is false when the week was never
// stored.
func (s *Storage) LoadWeekPage(week int) (html string, ok bool, err error) {
	data, err := os.ReadFile(s.weekPagePath(week))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading week %d page: %w", week, err)
	}
	return string(data), true, nil
}

// SaveDetailPage stores the detail page of one course section.
func (s *Storage) SaveDetailPage(courseName, pageURL, html string) error {
	if err := os.WriteFile(s.detailPagePath(courseName, pageURL), []byte(html), 0644); err != nil {
		return fmt.Errorf("writing detail page for %s: %w", courseName, err)
	}
	return nil
}

// DetailPageModTime returns when the section's detail page was last written.
// ok is false when no page is stored.
func (s *Storage) DetailPageModTime(courseName, pageURL string) (modTime time.Time, ok bool) {
	info, err := os.Stat(s.detailPagePath(courseName, pageURL))
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

// SessionsPath returns the path of a student's session list.
func (s *Storage) SessionsPath(studentID string) string {
	return s.OutputPath(studentID + "_sessions.json")
}

// CalendarPath returns the path of a student's calendar.
func (s *Storage) CalendarPath(studentID string) string {
	return s.OutputPath("kcb_" + studentID + ".ics")
}

// SaveSessions writes the session list as a flat JSON array.
func (s *Storage) SaveSessions(studentID string, sessions []schedule.Session) error {
	if sessions == nil {
		sessions = []schedule.Session{}
	}
	data, err := json.MarshalIndent(sessions, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding sessions: %w", err)
	}

	if err := os.WriteFile(s.SessionsPath(studentID), data, 0644); err != nil {
		return fmt.Errorf("writing sessions: %w", err)
	}
	return nil
}

// LoadSessions reads a session list back. A missing file yields an empty
// list. Every loaded session is validated.
func (s *Storage) LoadSessions(studentID string) ([]schedule.Session, error) {
	data, err := os.ReadFile(s.SessionsPath(studentID))
	if err != nil {
		if os.IsNotExist(err) {
			return []schedule.Session{}, nil
		}
		return nil, fmt.Errorf("reading sessions: %w", err)
	}

	var sessions []schedule.Session
	if err := json.Unmarshal(data, &sessions); err != nil {
		return nil, fmt.Errorf("parsing sessions: %w", err)
	}
	for i, session := range sessions {
		if err := session.Validate(); err != nil {
			return nil, fmt.Errorf("session %d in %s: %w", i, s.SessionsPath(studentID), err)
		}
	}
	if sessions == nil {
		sessions = []schedule.Session{}
	}
	return sessions, nil
}

// SaveCalendar writes the calendar document and returns its path.
func (s *Storage) SaveCalendar(studentID, doc string) (string, error) {
	path := s.CalendarPath(studentID)
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		return "", fmt.Errorf("writing calendar: %w", err)
	}
	return path, nil
}

var unsafeName = strings.NewReplacer("/", "_", "\\", "_", ":", "_", "\x00", "")

// fileSafe makes a course name usable as a file name component.
func fileSafe(name string) string {
	name = unsafeName.Replace(strings.TrimSpace(name))
	if name == "" || name == "." || name == ".." {
		return "_"
	}
	return name
}
