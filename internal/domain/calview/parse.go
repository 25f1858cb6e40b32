package calview

import (
	"strings"
	"time"
)

// Weekday names and their common abbreviations accepted by "next <weekday>".
var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"sun":       time.Sunday,
	"monday":    time.Monday,
	"mon":       time.Monday,
	"tuesday":   time.Tuesday,
	"tue":       time.Tuesday,
	"tues":      time.Tuesday,
	"wednesday": time.Wednesday,
	"wed":       time.Wednesday,
	"thursday":  time.Thursday,
	"thu":       time.Thursday,
	"thur":      time.Thursday,
	"thurs":     time.Thursday,
	"friday":    time.Friday,
	"fri":       time.Friday,
	"saturday":  time.Saturday,
	"sat":       time.Saturday,
}

// Explicit date formats, attempted in order. Formats without a year
// component get the current year substituted.
var dateLayouts = []string{
	"01/02/2006",
	"01/02",
	"2006-01-02",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"January 2 2006",
	"Jan 2",
	"January 2",
}

// ParseDateQuery interprets free text as a date expression relative to now.
// It returns the target date at start of day in now's location, or ok=false
// when the text is not date-shaped, in which case the caller should treat
// the query as a plain text filter. Date-shaped input always wins over text
// filtering; a useful free-text query is unlikely to collide with the
// recognized tokens.
func ParseDateQuery(query string, now time.Time) (time.Time, bool) {
	trimmed := strings.TrimSpace(query)
	q := strings.ToLower(trimmed)
	if q == "" {
		return time.Time{}, false
	}
	today := startOfDay(now)

	switch q {
	case "today":
		return today, true
	case "tomorrow":
		return today.AddDate(0, 0, 1), true
	case "yesterday":
		return today.AddDate(0, 0, -1), true
	}

	if rest, ok := strings.CutPrefix(q, "next "); ok {
		if wd, known := weekdayNames[strings.TrimSpace(rest)]; known {
			return nextWeekday(today, wd), true
		}
		return time.Time{}, false
	}

	// Month names are case-sensitive in time.Parse, so the layouts see the
	// trimmed original rather than the lowered form.
	for _, layout := range dateLayouts {
		parsed, err := time.Parse(layout, trimmed)
		if err != nil {
			continue
		}
		year := parsed.Year()
		if !strings.Contains(layout, "2006") {
			year = now.Year()
		}
		return time.Date(year, parsed.Month(), parsed.Day(), 0, 0, 0, 0, now.Location()), true
	}

	return time.Time{}, false
}

// nextWeekday is the next occurrence of wd strictly after today; when today
// already is wd, the result is a full week out, never today.
func nextWeekday(today time.Time, wd time.Weekday) time.Time {
	ahead := (int(wd) - int(today.Weekday()) + 7) % 7
	if ahead == 0 {
		ahead = 7
	}
	return today.AddDate(0, 0, ahead)
}
