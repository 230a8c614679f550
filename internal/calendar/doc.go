// Package calendar renders class sessions as an RFC 5545 iCalendar document.
//
// Sessions are first turned into Events, which carry absolute start and end
// times from a clock.Clock, then serialized into a single VCALENDAR with one
// VEVENT per session. Times are written in local civil time with a
// TZID=Asia/Shanghai qualifier.
//
// Generated documents can be checked with Validate, which re-parses them
// with an independent iCalendar parser.
package calendar
