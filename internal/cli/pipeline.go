package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/kebiao-ics/internal/calendar"
	"github.com/pfrederiksen/kebiao-ics/internal/clock"
	"github.com/pfrederiksen/kebiao-ics/internal/config"
	"github.com/pfrederiksen/kebiao-ics/internal/course"
	"github.com/pfrederiksen/kebiao-ics/internal/export"
	"github.com/pfrederiksen/kebiao-ics/internal/logger"
	"github.com/pfrederiksen/kebiao-ics/internal/metrics"
	"github.com/pfrederiksen/kebiao-ics/internal/resolve"
	"github.com/pfrederiksen/kebiao-ics/internal/schedule"
	"github.com/pfrederiksen/kebiao-ics/internal/scraper"
	"github.com/pfrederiksen/kebiao-ics/internal/storage"
)

// Pipeline runs one schedule export.
type Pipeline struct {
	cfg     *config.Config
	clock   *clock.Clock
	store   *storage.Storage
	scraper *scraper.Scraper
	metrics *metrics.Recorder
	now     func() time.Time
}

// NewPipeline wires the components from cfg. The clock is built up front so
// a bad period table or anchor fails before any request is made.
func NewPipeline(cfg *config.Config) (*Pipeline, error) {
	clk, err := cfg.Clock()
	if err != nil {
		return nil, fmt.Errorf("building schedule clock: %w", err)
	}

	store, err := storage.New(cfg.Dirs.Pages, cfg.Dirs.Output)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}

	rec := metrics.New()
	sc, err := scraper.New(cfg.ScraperOptions(rec))
	if err != nil {
		return nil, fmt.Errorf("initializing scraper: %w", err)
	}

	return &Pipeline{
		cfg:     cfg,
		clock:   clk,
		store:   store,
		scraper: sc,
		metrics: rec,
		now:     time.Now,
	}, nil
}

// Run executes the pipeline and reports what it produced.
func (p *Pipeline) Run(ctx context.Context) (*OutputResult, error) {
	cfg := p.cfg
	result := &OutputResult{
		GeneratedAt: p.now().UTC(),
		Term:        cfg.Term.Year + "/" + cfg.Term.Code,
		Weeks:       cfg.Term.Weeks,
		Offline:     cfg.Offline,
		Resolutions: make(map[string]int),
	}

	pages, err := p.weekPages(ctx)
	if err != nil {
		return nil, err
	}

	sessions := make([]schedule.Session, 0)
	for _, page := range pages {
		if page.Skipped {
			result.SkippedWeeks = append(result.SkippedWeeks, page.Week)
			continue
		}
		extracted, err := p.scraper.ParseWeek(page)
		if err != nil {
			return nil, fmt.Errorf("parsing week %d: %w", page.Week, err)
		}
		logger.Debug("Parsed week page", logger.Fields{"week": page.Week, "sessions": len(extracted)})
		sessions = append(sessions, extracted...)
	}
	p.metrics.AddSessions(len(sessions))

	studentID, err := p.studentID(pages)
	if err != nil {
		return nil, err
	}
	result.StudentID = studentID

	if !cfg.Offline {
		collector := course.NewCollector(p.scraper, p.detailCache(), cfg.Fetch.Concurrency)
		if _, err := collector.Collect(ctx, course.Distinct(sessions)); err != nil {
			return nil, fmt.Errorf("collecting course pages: %w", err)
		}
	}

	engine, err := p.engine()
	if err != nil {
		return nil, err
	}
	for _, s := range sessions {
		_, rule := engine.Explain(s, studentID)
		result.Resolutions[string(rule)]++
		p.metrics.ObserveResolution(string(rule))
	}
	resolved := engine.ResolveAll(sessions, studentID)

	result.Changes = p.diffPrevious(studentID, resolved)

	if err := p.store.SaveSessions(studentID, resolved); err != nil {
		return nil, err
	}
	result.SessionsPath = p.store.SessionsPath(studentID)

	// The calendar is built from the persisted list so that what was written
	// is exactly what gets scheduled.
	reloaded, err := p.store.LoadSessions(studentID)
	if err != nil {
		return nil, err
	}

	events, err := calendar.BuildEvents(reloaded, p.clock, p.now())
	if err != nil {
		return nil, fmt.Errorf("computing session times: %w", err)
	}
	doc := calendar.GenerateBulkICS(events, calendar.CalendarName(studentID))
	if err := calendar.Validate(doc, len(events)); err != nil {
		return nil, fmt.Errorf("generated calendar is invalid: %w", err)
	}
	result.CalendarPath, err = p.store.SaveCalendar(studentID, doc)
	if err != nil {
		return nil, err
	}

	if cfg.XLSX {
		path := p.store.OutputPath(studentID + "_sessions.xlsx")
		if err := export.WriteSessions(path, reloaded, p.clock); err != nil {
			return nil, fmt.Errorf("exporting spreadsheet: %w", err)
		}
		result.XLSXPath = path
	}

	result.SessionList = reloaded
	result.Sessions = len(reloaded)
	result.Events = len(events)

	p.metrics.SetEvents(len(events), p.now())
	if cfg.MetricsFile != "" {
		path, err := storage.ExpandHome(cfg.MetricsFile)
		if err != nil {
			return nil, err
		}
		if err := p.metrics.WriteTextfile(path); err != nil {
			return nil, err
		}
	}

	logger.Info("Calendar written", logger.Fields{
		"student_id": studentID,
		"sessions":   result.Sessions,
		"path":       result.CalendarPath,
	})
	return result, nil
}

// weekPages fetches the term's week pages and stores them, or reads stored
// pages when offline. A week never stored counts as skipped.
func (p *Pipeline) weekPages(ctx context.Context) ([]scraper.Page, error) {
	weeks := p.cfg.Term.Weeks

	if p.cfg.Offline {
		pages := make([]scraper.Page, 0, weeks)
		for week := 1; week <= weeks; week++ {
			html, ok, err := p.store.LoadWeekPage(week)
			if err != nil {
				return nil, err
			}
			if !ok {
				logger.Warn("No stored page for week", logger.Fields{"week": week})
			}
			pages = append(pages, scraper.Page{
				URL:     p.scraper.ScheduleURL(p.cfg.Term.Year, p.cfg.Term.Code, week),
				Week:    week,
				HTML:    html,
				Skipped: !ok,
			})
		}
		return pages, nil
	}

	if p.cfg.Portal.Cookie == "" {
		logger.Warn("No portal cookie configured, pages will likely be the login form", nil)
	}

	logger.Info("Fetching term schedule", logger.Fields{
		"term":  p.cfg.Term.Year + "/" + p.cfg.Term.Code,
		"weeks": weeks,
	})
	pages, err := p.scraper.FetchWeeks(ctx, p.cfg.Term.Year, p.cfg.Term.Code, weeks, p.cfg.Fetch.Concurrency)
	if err != nil {
		return nil, fmt.Errorf("fetching week pages: %w", err)
	}
	for _, page := range pages {
		if page.Skipped {
			continue
		}
		if err := p.store.SaveWeekPage(page.Week, page.HTML); err != nil {
			return nil, err
		}
	}
	return pages, nil
}

// studentID returns the configured student number, or the first one found
// on a page in week order.
func (p *Pipeline) studentID(pages []scraper.Page) (string, error) {
	if id := strings.TrimSpace(p.cfg.StudentID); id != "" {
		return id, nil
	}
	for _, page := range pages {
		if page.Skipped {
			continue
		}
		id, err := scraper.ParseStudentID(strings.NewReader(page.HTML))
		if err != nil {
			return "", err
		}
		if id != "" {
			return id, nil
		}
	}
	return "", errors.New("student ID not found on any page; set --student-id")
}

func (p *Pipeline) detailCache() *course.Cache {
	cache := course.NewCache(p.store)
	cache.TTL = p.cfg.Fetch.DetailTTL
	return cache
}

func (p *Pipeline) engine() (*resolve.Engine, error) {
	tables, missing, err := resolve.LoadTables(p.cfg.Locations.LocationTable, p.cfg.Locations.RosterTable)
	if err != nil {
		return nil, fmt.Errorf("loading location tables: %w", err)
	}
	for _, path := range missing {
		logger.Warn("Location table not found, continuing without it", logger.Fields{"path": path})
	}

	engine, err := resolve.NewEngine(p.cfg.Policy(), tables)
	if err != nil {
		return nil, fmt.Errorf("building location resolver: %w", err)
	}
	return engine, nil
}

// diffPrevious compares against the last saved session list. An unreadable
// previous list is treated as absent since it is about to be replaced.
func (p *Pipeline) diffPrevious(studentID string, current []schedule.Session) *ChangeSummary {
	previous, err := p.store.LoadSessions(studentID)
	if err != nil {
		logger.Warn("Previous session list unreadable, reporting every session as new", logger.Fields{
			"path":  p.store.SessionsPath(studentID),
			"error": err.Error(),
		})
		previous = nil
	}

	diff := schedule.Diff(previous, current)
	for _, c := range diff.Changes {
		logger.Info("Session changed", logger.Fields{
			"course": c.Session.CourseName,
			"week":   c.Session.WeekLabel,
			"field":  c.Field,
			"old":    c.OldValue,
			"new":    c.NewValue,
		})
	}
	return &ChangeSummary{
		Added:   len(diff.Added),
		Removed: len(diff.Removed),
		Changed: len(diff.Changes),
	}
}
