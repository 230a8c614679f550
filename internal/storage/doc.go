// Package storage persists the artifacts of a run on the local disk.
//
// Raw portal pages go to a page directory: one "<week>.html" per term week
// and one "kc_<course>_<url hash>.html" per course section detail page.
// Results go to an output directory: the resolved session list as
// "<sid>_sessions.json" and the calendar as "kcb_<sid>.ics". Writes always
// replace existing files. Paths starting with "~/" are expanded to the
// user's home directory.
package storage
