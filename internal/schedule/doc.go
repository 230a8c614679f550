// Package schedule defines the class-session records scraped from the
// graduate school portal's weekly timetable.
//
// A Session is one course block on one weekday of one term week. The week is
// carried as the portal's own label ("第3周") and parsed on demand; the
// weekday is a literal seven-valued enum whose seventh value, 星期七, is how
// the portal labels Sunday. Sessions are encoded to JSON with the weekday as
// its label so a persisted session list decodes back field-for-field.
package schedule
