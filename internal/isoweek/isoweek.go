// Package isoweek maps reporting week numbers to calendar dates.
//
// Weeks are numbered as in ISO 8601 (week 1 contains January 4) but start on
// the Sunday before the ISO Monday.
package isoweek

import "time"

// WeekStartDate returns the Sunday that starts week of year, at UTC midnight.
func WeekStartDate(week, year int) time.Time {
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	// Monday of ISO week 1.
	offset := (int(jan4.Weekday()) + 6) % 7
	monday := jan4.AddDate(0, 0, -offset)
	return monday.AddDate(0, 0, (week-1)*7-1)
}

// WeekOf returns the week number and its year for a calendar date.
func WeekOf(t time.Time) (year, week int) {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return d.AddDate(0, 0, 1).ISOWeek()
}
