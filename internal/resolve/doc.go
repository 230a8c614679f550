// Package resolve rewrites placeholder classroom locations using the
// school's auxiliary course tables.
//
// The portal often shows "(场地详见学院通知)" instead of a room. Rooms are
// published separately in a course→classroom table, keyed only by course
// name, and course names are shared between sections. A candidate room is
// therefore applied only when the student appears in the enrolment roster for
// that course name. A short list of courses has fixed locations that win over
// everything else.
package resolve
