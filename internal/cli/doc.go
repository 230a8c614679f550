// Package cli implements the command-line interface for kebiao-ics.
//
// The root command loads configuration, then runs the pipeline: fetch the
// week pages of a term (or read stored ones with --offline), extract class
// sessions, collect course detail pages, resolve ambiguous locations, persist
// the session list and write the iCalendar file. A run summary is printed as
// text or JSON.
package cli
