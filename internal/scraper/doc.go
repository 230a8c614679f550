// Package scraper fetches the graduate school portal's weekly timetable pages
// and extracts class sessions from them.
//
// Fetching sends the caller's session cookie, decodes the page charset and
// applies an explicit failure policy: a failed page is either skipped, the
// default, so that it contributes no sessions, or it aborts the run. Failed
// requests can be retried with exponential backoff before the policy applies.
//
// Extraction targets one page layout: a week selector (select#zc) whose
// selected option names the week shared by every session on the page, and a
// table.table-course grid with one row per period slot and one cell per
// weekday. Each course block in a cell is an a.c666 link holding the course
// name in strong.f14 followed by a <br>-separated run of positional fields.
package scraper
