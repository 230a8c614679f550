// Package course collects the detail page of every distinct course in a
// schedule.
//
// Detail pages are not parsed. They are kept next to the week pages so a
// run can be inspected later. Sessions that share a detail URL and course
// name share a page; sections with the same name but different URLs are
// fetched and stored separately: the cache and the page file are keyed on
// (course name, URL).
package course

import (
	"github.com/pfrederiksen/kebiao-ics/internal/schedule"
)

// DetailPage is one distinct course detail page.
type DetailPage struct {
	Key        string
	URL        string
	CourseName string
}

// Distinct returns the detail pages referenced by sessions, deduplicated by
// (detail URL, course name) in first-seen order. Sessions without a detail
// URL are ignored.
func Distinct(sessions []schedule.Session) []DetailPage {
	seen := make(map[string]bool)
	pages := make([]DetailPage, 0)
	for _, s := range sessions {
		if s.DetailURL == "" {
			continue
		}
		key := s.DetailKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		pages = append(pages, DetailPage{
			Key:        key,
			URL:        s.DetailURL,
			CourseName: s.CourseName,
		})
	}
	return pages
}
