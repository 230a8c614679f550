package config

import (
	"fmt"

	"github.com/pfrederiksen/kebiao-ics/internal/clock"
	"github.com/pfrederiksen/kebiao-ics/internal/resolve"
	"github.com/pfrederiksen/kebiao-ics/internal/scraper"
)

// Clock builds the schedule clock of the selected term.
func (c *Config) Clock() (*clock.Clock, error) {
	date, err := c.AnchorDate()
	if err != nil {
		return nil, err
	}
	anchor, err := clock.ParseAnchor(date)
	if err != nil {
		return nil, err
	}

	periods := make([]clock.Period, 0, len(c.Periods))
	for _, p := range c.Periods {
		start, err := clock.ParseClockTime(p.Start)
		if err != nil {
			return nil, fmt.Errorf("period %d: %w", p.Index, err)
		}
		end, err := clock.ParseClockTime(p.End)
		if err != nil {
			return nil, fmt.Errorf("period %d: %w", p.Index, err)
		}
		periods = append(periods, clock.Period{Index: p.Index, Start: start, End: end})
	}
	table, err := clock.NewPeriodTable(periods)
	if err != nil {
		return nil, err
	}

	return clock.New(anchor, table, clock.Zone)
}

// Policy returns the location resolution policy.
func (c *Config) Policy() resolve.Policy {
	fixed := make([]resolve.FixedLocation, 0, len(c.Locations.Fixed))
	for _, f := range c.Locations.Fixed {
		fixed = append(fixed, resolve.FixedLocation{CourseName: f.Course, Location: f.Location})
	}
	return resolve.Policy{
		Sentinel: c.Locations.Sentinel,
		Fixed:    fixed,
		TieBreak: resolve.TieBreak(c.Locations.TieBreak),
	}
}

// ScraperOptions returns the portal fetcher settings.
func (c *Config) ScraperOptions(rec scraper.Recorder) scraper.Options {
	return scraper.Options{
		BaseURL:      c.Portal.BaseURL,
		SchedulePath: c.Portal.SchedulePath,
		Cookie:       c.Portal.Cookie,
		Timeout:      c.Fetch.Timeout,
		Retries:      c.Fetch.Retries,
		OnFailure:    scraper.FailurePolicy(c.Fetch.OnFailure),
		Recorder:     rec,
	}
}
