package events

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Category narrows the event list to one relationship slice. Categories are
// mutually exclusive; CategoryAll (or empty) applies no restriction.
type Category string

const (
	CategoryAll            Category = "all"
	CategoryHosted         Category = "hosted"
	CategoryAttended       Category = "attended"
	CategoryUpcoming       Category = "upcoming"
	CategoryPast           Category = "past"
	CategorySingleCorpHost Category = "single_corp_host"
	CategoryMultiCorpHost  Category = "multi_corp_host"
	CategoryNonCompanyHost Category = "non_company_host"
)

type SortKey string

const (
	SortByDate      SortKey = "date"
	SortByCompany   SortKey = "company"
	SortBySubsector SortKey = "subsector"
	SortByStatus    SortKey = "status"
)

// DateWindow is an inclusive calendar-date window. Events are matched on the
// calendar date of their start instant, not the exact timestamp.
type DateWindow struct {
	Start time.Time
	End   time.Time
}

// Criteria describes one evaluation of the query engine. The zero value
// matches everything and sorts by date.
type Criteria struct {
	FreeText  string
	CompanyID *uuid.UUID
	Category  Category
	RSVPOnly  bool
	Window    *DateWindow
	SortKey   SortKey
	// Now anchors upcoming/past and grouping; the zero value means
	// evaluation time.
	Now time.Time
}

func (c Criteria) now() time.Time {
	if c.Now.IsZero() {
		return time.Now()
	}
	return c.Now
}

// Apply filters and sorts a snapshot of events. It is a pure function: the
// input slice is never mutated and the result is deterministic given the
// criteria. An absent criterion restricts nothing.
func Apply(evs []Event, c Criteria) []Event {
	out := make([]Event, 0, len(evs))
	for i := range evs {
		if matches(&evs[i], c) {
			out = append(out, evs[i])
		}
	}
	sortEvents(out, c.SortKey)
	return out
}

func matches(e *Event, c Criteria) bool {
	if c.FreeText != "" && !matchesText(e, c.FreeText) {
		return false
	}
	if c.CompanyID != nil && !containsCompany(e, *c.CompanyID) {
		return false
	}
	if !matchesCategory(e, c) {
		return false
	}
	if c.RSVPOnly && e.RSVPStatus != RSVPAccepted {
		return false
	}
	if c.Window != nil {
		// A zero start instant means the date is unusable; the event
		// fails closed out of any date-based criterion.
		if e.StartTime.IsZero() {
			return false
		}
		day := startOfDay(e.StartTime)
		if day.Before(startOfDay(c.Window.Start)) || day.After(startOfDay(c.Window.End)) {
			return false
		}
	}
	return true
}

func matchesText(e *Event, q string) bool {
	q = strings.ToLower(q)
	if strings.Contains(strings.ToLower(e.Title), q) ||
		strings.Contains(strings.ToLower(e.Description), q) ||
		strings.Contains(strings.ToLower(e.Location), q) {
		return true
	}
	for _, comp := range e.Companies {
		if strings.Contains(strings.ToLower(comp.Name), q) ||
			strings.Contains(strings.ToLower(comp.Ticker), q) ||
			strings.Contains(strings.ToLower(comp.Subsector), q) {
			return true
		}
	}
	return false
}

func containsCompany(e *Event, id uuid.UUID) bool {
	for _, comp := range e.Companies {
		if comp.ID == id {
			return true
		}
	}
	return false
}

func matchesCategory(e *Event, c Criteria) bool {
	switch c.Category {
	case "", CategoryAll:
		return true
	case CategoryHosted:
		return c.CompanyID != nil && e.HostedBy(*c.CompanyID)
	case CategoryAttended:
		return c.CompanyID != nil && e.AttendedBy(*c.CompanyID)
	case CategoryUpcoming:
		return !e.StartTime.IsZero() && !e.StartTime.Before(c.now())
	case CategoryPast:
		return !e.StartTime.IsZero() && e.StartTime.Before(c.now())
	case CategorySingleCorpHost:
		return e.HasHostType(HostSingleCorp)
	case CategoryMultiCorpHost:
		return e.HasHostType(HostMultiCorp)
	case CategoryNonCompanyHost:
		return e.HasHostType(HostNonCompany)
	}
	return false
}

func sortEvents(evs []Event, key SortKey) {
	switch key {
	case SortByCompany:
		sort.SliceStable(evs, func(i, j int) bool {
			return primaryCompany(&evs[i]) < primaryCompany(&evs[j])
		})
	case SortBySubsector:
		sort.SliceStable(evs, func(i, j int) bool {
			return primarySubsector(&evs[i]) < primarySubsector(&evs[j])
		})
	case SortByStatus:
		sort.SliceStable(evs, func(i, j int) bool {
			return evs[i].RSVPStatus < evs[j].RSVPStatus
		})
	default:
		sort.SliceStable(evs, func(i, j int) bool {
			return evs[i].StartTime.Before(evs[j].StartTime)
		})
	}
}

func primaryCompany(e *Event) string {
	if len(e.Companies) == 0 {
		return ""
	}
	return strings.ToLower(e.Companies[0].Ticker)
}

func primarySubsector(e *Event) string {
	if len(e.Companies) == 0 {
		return ""
	}
	return strings.ToLower(e.Companies[0].Subsector)
}

// Bucket labels for the grouped list view.
type Bucket string

const (
	BucketEarlier  Bucket = "earlier"
	BucketToday    Bucket = "today"
	BucketTomorrow Bucket = "tomorrow"
	BucketThisWeek Bucket = "this_week"
	BucketNextWeek Bucket = "next_week"
	BucketLater    Bucket = "later"
)

var bucketOrder = []Bucket{BucketEarlier, BucketToday, BucketTomorrow, BucketThisWeek, BucketNextWeek, BucketLater}

// Group is one labeled bucket of the grouped list view.
type Group struct {
	Bucket Bucket  `json:"bucket"`
	Events []Event `json:"events"`
}

// GroupByDate partitions events into date buckets relative to now's calendar
// date: today, tomorrow, this_week (day 2 through 6), next_week (day 7
// through 13), later (day 14 on). Events starting before today's date land
// in earlier, so the buckets always partition the input. Empty buckets are
// omitted; events within a bucket are ordered ascending by start instant,
// input order breaking ties.
func GroupByDate(evs []Event, now time.Time) []Group {
	if now.IsZero() {
		now = time.Now()
	}
	today := startOfDay(now)

	byBucket := make(map[Bucket][]Event, len(bucketOrder))
	for i := range evs {
		b := bucketFor(evs[i].StartTime, today)
		byBucket[b] = append(byBucket[b], evs[i])
	}

	groups := make([]Group, 0, len(byBucket))
	for _, b := range bucketOrder {
		bucketed, ok := byBucket[b]
		if !ok {
			continue
		}
		sort.SliceStable(bucketed, func(i, j int) bool {
			return bucketed[i].StartTime.Before(bucketed[j].StartTime)
		})
		groups = append(groups, Group{Bucket: b, Events: bucketed})
	}
	return groups
}

func bucketFor(start time.Time, today time.Time) Bucket {
	offset := daysBetween(today, startOfDay(start))
	switch {
	case offset < 0:
		return BucketEarlier
	case offset == 0:
		return BucketToday
	case offset == 1:
		return BucketTomorrow
	case offset <= 6:
		return BucketThisWeek
	case offset <= 13:
		return BucketNextWeek
	default:
		return BucketLater
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// daysBetween counts calendar days from a to b. Both are normalized to UTC
// dates so daylight-saving shifts cannot skew the count.
func daysBetween(a, b time.Time) int {
	au := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bu := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bu.Sub(au).Hours() / 24)
}
