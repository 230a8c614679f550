// Package clock converts a session's term week, weekday and period range into
// absolute start and end times.
//
// The term anchor is the day before week 1's Monday, so week w, weekday d
// falls (w-1)*7 + d days after it. Period clock times come from a fixed
// table. Times are civil times in a fixed UTC+8 zone named Asia/Shanghai;
// there is no daylight-saving adjustment.
package clock
