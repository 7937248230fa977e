package analysis

import (
	"time"

	"ride-analytics/internal/models"
)

// DeriveCalendar fills the calendar feature fields of every activity from
// its start time: year, month (1-12), ISO weekday with the week starting
// Monday (1-7), and hour of day (0-23). Existing fields are never touched.
func DeriveCalendar(activities []*models.Activity) {
	for _, act := range activities {
		act.Year = act.StartTime.Year()
		act.Month = int(act.StartTime.Month())
		act.ISOWeekday = isoWeekday(act.StartTime)
		act.HourOfDay = act.StartTime.Hour()
	}
}

// isoWeekday maps Go's Sunday-based weekday to ISO numbering (Mon=1, Sun=7).
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// MonthOf normalizes a timestamp to the first day of its calendar month, UTC.
func MonthOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// NextMonth returns the first day of the month following m.
func NextMonth(m time.Time) time.Time {
	return m.AddDate(0, 1, 0)
}
