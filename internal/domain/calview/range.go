// Package calview derives calendar grid geometry for the dashboard: the
// date window belonging to a view mode and the ordered day columns that
// window renders as, plus the search-box date parser.
package calview

import (
	"errors"
	"time"
)

// ErrInvalidViewMode is returned when a view mode string is unrecognized.
var ErrInvalidViewMode = errors.New("invalid view mode")

// ViewMode is the calendar display granularity.
type ViewMode string

const (
	ViewWeek       ViewMode = "week"
	ViewMonth      ViewMode = "month"
	ViewTwoMonth   ViewMode = "2month"
	ViewThreeMonth ViewMode = "3month"
)

// IsValid reports whether the mode is one of the supported view modes.
func (m ViewMode) IsValid() bool {
	switch m {
	case ViewWeek, ViewMonth, ViewTwoMonth, ViewThreeMonth:
		return true
	}
	return false
}

// Range is an inclusive date window.
type Range struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// DayColumn is one calendar date rendered as a grid column.
type DayColumn struct {
	Date       time.Time `json:"date"`
	Label      string    `json:"label"`
	DayOfMonth int       `json:"day_of_month"`
}

// Sunday-indexed, matching time.Weekday numbering.
var dayLabels = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// Resolve computes the inclusive date window for a view mode around an
// anchor date. Week windows start on the Monday of the anchor's ISO week;
// month windows start on the first of the anchor's month and extend over
// one, two, or three calendar months. Start and end are normalized to
// start-of-day in the anchor's location.
func Resolve(mode ViewMode, anchor time.Time) Range {
	switch mode {
	case ViewWeek:
		start := startOfISOWeek(anchor)
		return Range{Start: start, End: start.AddDate(0, 0, 6)}
	case ViewTwoMonth:
		return monthSpan(anchor, 2)
	case ViewThreeMonth:
		return monthSpan(anchor, 3)
	default:
		return monthSpan(anchor, 1)
	}
}

// DayColumns lists every calendar day in the resolved window in order,
// labeled with a 3-letter weekday abbreviation and day-of-month number.
func DayColumns(mode ViewMode, anchor time.Time) []DayColumn {
	r := Resolve(mode, anchor)
	cols := make([]DayColumn, 0, 7)
	for d := r.Start; !d.After(r.End); d = d.AddDate(0, 0, 1) {
		cols = append(cols, DayColumn{
			Date:       d,
			Label:      dayLabels[d.Weekday()],
			DayOfMonth: d.Day(),
		})
	}
	return cols
}

// startOfISOWeek is the Monday of the week containing t, at start of day.
func startOfISOWeek(t time.Time) time.Time {
	day := startOfDay(t)
	// time.Weekday counts Sunday as 0; shift so Monday is the origin.
	back := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -back)
}

func monthSpan(anchor time.Time, months int) Range {
	start := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, anchor.Location())
	// One day before the first of the following month is the final day.
	end := start.AddDate(0, months, 0).AddDate(0, 0, -1)
	return Range{Start: start, End: end}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
