package events

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	msftID = uuid.New()
	nvdaID = uuid.New()
	jpmID  = uuid.New()
)

func msft() Company {
	return Company{ID: msftID, Ticker: "MSFT", Name: "Microsoft Corp", Subsector: "Software"}
}

func nvda() Company {
	return Company{ID: nvdaID, Ticker: "NVDA", Name: "NVIDIA Corp", Subsector: "Semiconductors"}
}

func jpm() Company {
	return Company{ID: jpmID, Ticker: "JPM", Name: "JPMorgan Chase & Co", Subsector: "Banks"}
}

func day(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02 15:04", value)
	require.NoError(t, err)
	return parsed
}

func singleCorpHost(companyID uuid.UUID) Host {
	id := companyID
	return Host{ID: uuid.New(), HostType: HostSingleCorp, HostID: &id}
}

func queryFixture(t *testing.T) []Event {
	t.Helper()
	return []Event{
		{
			ID:         uuid.New(),
			Title:      "Q2 Earnings Call",
			StartTime:  day(t, "2024-06-03 14:00"),
			EndTime:    day(t, "2024-06-03 15:00"),
			RSVPStatus: RSVPAccepted,
			Companies:  []Company{msft()},
			Hosts:      []Host{singleCorpHost(msftID)},
		},
		{
			ID:         uuid.New(),
			Title:      "Semiconductor Summit",
			Location:   "San Jose, CA",
			StartTime:  day(t, "2024-06-10 09:00"),
			EndTime:    day(t, "2024-06-10 17:00"),
			RSVPStatus: RSVPPending,
			Companies:  []Company{nvda(), msft()},
			Hosts:      []Host{{ID: uuid.New(), HostType: HostNonCompany, OrganizerName: "Sector Conferences"}},
		},
		{
			ID:         uuid.New(),
			Title:      "Bank Strategy Day",
			StartTime:  day(t, "2024-05-20 10:00"),
			EndTime:    day(t, "2024-05-20 16:00"),
			RSVPStatus: RSVPDeclined,
			Companies:  []Company{jpm()},
			Hosts:      []Host{singleCorpHost(jpmID)},
		},
	}
}

func TestApplyZeroCriteriaKeepsEverything(t *testing.T) {
	evs := queryFixture(t)
	out := Apply(evs, Criteria{})

	require.Len(t, out, 3)
	// Default ordering is ascending by start instant.
	assert.Equal(t, "Bank Strategy Day", out[0].Title)
	assert.Equal(t, "Q2 Earnings Call", out[1].Title)
	assert.Equal(t, "Semiconductor Summit", out[2].Title)

	assert.Equal(t, out, Apply(evs, Criteria{Category: CategoryAll}))
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	evs := queryFixture(t)
	firstBefore := evs[0].Title

	Apply(evs, Criteria{SortKey: SortByCompany})

	assert.Equal(t, firstBefore, evs[0].Title)
}

func TestApplyFreeText(t *testing.T) {
	evs := queryFixture(t)

	tests := []struct {
		name     string
		query    string
		expected []string
	}{
		{"matches title", "earnings", []string{"Q2 Earnings Call"}},
		{"matches location", "san jose", []string{"Semiconductor Summit"}},
		{"matches ticker case-insensitive", "nvda", []string{"Semiconductor Summit"}},
		{"matches subsector", "banks", []string{"Bank Strategy Day"}},
		{"no match", "biotech", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Apply(evs, Criteria{FreeText: tt.query})
			titles := make([]string, 0, len(out))
			for _, e := range out {
				titles = append(titles, e.Title)
			}
			if tt.expected == nil {
				assert.Empty(t, titles)
			} else {
				assert.Equal(t, tt.expected, titles)
			}
		})
	}
}

func TestApplyHostedAndAttendedAreDisjoint(t *testing.T) {
	evs := queryFixture(t)
	companyID := msftID

	hosted := Apply(evs, Criteria{CompanyID: &companyID, Category: CategoryHosted})
	attended := Apply(evs, Criteria{CompanyID: &companyID, Category: CategoryAttended})

	require.Len(t, hosted, 1)
	assert.Equal(t, "Q2 Earnings Call", hosted[0].Title)

	// The summit lists Microsoft as attending but its host is a
	// non-company organizer, so it lands in attended only.
	require.Len(t, attended, 1)
	assert.Equal(t, "Semiconductor Summit", attended[0].Title)

	for _, h := range hosted {
		for _, a := range attended {
			assert.NotEqual(t, h.ID, a.ID)
		}
	}
}

func TestApplyHostedWithoutCompanyMatchesNothing(t *testing.T) {
	evs := queryFixture(t)

	assert.Empty(t, Apply(evs, Criteria{Category: CategoryHosted}))
	assert.Empty(t, Apply(evs, Criteria{Category: CategoryAttended}))
}

func TestApplyUpcomingAndPast(t *testing.T) {
	evs := queryFixture(t)
	now := day(t, "2024-06-03 14:00")

	upcoming := Apply(evs, Criteria{Category: CategoryUpcoming, Now: now})
	past := Apply(evs, Criteria{Category: CategoryPast, Now: now})

	// An event starting exactly now counts as upcoming.
	require.Len(t, upcoming, 2)
	assert.Equal(t, "Q2 Earnings Call", upcoming[0].Title)
	require.Len(t, past, 1)
	assert.Equal(t, "Bank Strategy Day", past[0].Title)
}

func TestApplyUpcomingDropsZeroStart(t *testing.T) {
	evs := []Event{{ID: uuid.New(), Title: "No Date Yet"}}

	assert.Empty(t, Apply(evs, Criteria{Category: CategoryUpcoming, Now: day(t, "2024-06-01 00:00")}))
	assert.Empty(t, Apply(evs, Criteria{Category: CategoryPast, Now: day(t, "2024-06-01 00:00")}))
}

func TestApplyWindowIsDayGranularAndInclusive(t *testing.T) {
	evs := queryFixture(t)
	window := &DateWindow{
		Start: day(t, "2024-06-03 23:00"), // time of day must not matter
		End:   day(t, "2024-06-10 00:00"),
	}

	out := Apply(evs, Criteria{Window: window})

	require.Len(t, out, 2)
	assert.Equal(t, "Q2 Earnings Call", out[0].Title)
	assert.Equal(t, "Semiconductor Summit", out[1].Title)
}

func TestApplyWindowDropsZeroStart(t *testing.T) {
	evs := []Event{{ID: uuid.New(), Title: "No Date Yet"}}
	window := &DateWindow{Start: day(t, "2024-01-01 00:00"), End: day(t, "2024-12-31 00:00")}

	assert.Empty(t, Apply(evs, Criteria{Window: window}))
}

func TestApplyRSVPOnly(t *testing.T) {
	evs := queryFixture(t)

	out := Apply(evs, Criteria{RSVPOnly: true})

	require.Len(t, out, 1)
	assert.Equal(t, "Q2 Earnings Call", out[0].Title)
}

func TestApplyHostTypeCategories(t *testing.T) {
	evs := queryFixture(t)

	single := Apply(evs, Criteria{Category: CategorySingleCorpHost})
	nonCompany := Apply(evs, Criteria{Category: CategoryNonCompanyHost})
	multi := Apply(evs, Criteria{Category: CategoryMultiCorpHost})

	assert.Len(t, single, 2)
	require.Len(t, nonCompany, 1)
	assert.Equal(t, "Semiconductor Summit", nonCompany[0].Title)
	assert.Empty(t, multi)
}

func TestApplySortKeys(t *testing.T) {
	evs := queryFixture(t)

	byCompany := Apply(evs, Criteria{SortKey: SortByCompany})
	require.Len(t, byCompany, 3)
	assert.Equal(t, "JPM", byCompany[0].Companies[0].Ticker)
	assert.Equal(t, "MSFT", byCompany[1].Companies[0].Ticker)
	assert.Equal(t, "NVDA", byCompany[2].Companies[0].Ticker)

	bySubsector := Apply(evs, Criteria{SortKey: SortBySubsector})
	require.Len(t, bySubsector, 3)
	assert.Equal(t, "Banks", bySubsector[0].Companies[0].Subsector)
	assert.Equal(t, "Semiconductors", bySubsector[1].Companies[0].Subsector)
	assert.Equal(t, "Software", bySubsector[2].Companies[0].Subsector)

	byStatus := Apply(evs, Criteria{SortKey: SortByStatus})
	require.Len(t, byStatus, 3)
	assert.Equal(t, RSVPAccepted, byStatus[0].RSVPStatus)
	assert.Equal(t, RSVPDeclined, byStatus[1].RSVPStatus)
	assert.Equal(t, RSVPPending, byStatus[2].RSVPStatus)
}

func TestGroupByDateBuckets(t *testing.T) {
	now := day(t, "2024-06-01 12:00") // a Saturday
	at := func(offset int) time.Time {
		return now.AddDate(0, 0, offset)
	}
	evs := []Event{
		{ID: uuid.New(), Title: "past", StartTime: at(-3)},
		{ID: uuid.New(), Title: "today", StartTime: at(0)},
		{ID: uuid.New(), Title: "tomorrow", StartTime: at(1)},
		{ID: uuid.New(), Title: "this week near", StartTime: at(2)},
		{ID: uuid.New(), Title: "this week far", StartTime: at(6)},
		{ID: uuid.New(), Title: "next week start", StartTime: at(7)},
		{ID: uuid.New(), Title: "next week end", StartTime: at(13)},
		{ID: uuid.New(), Title: "later", StartTime: at(14)},
	}

	groups := GroupByDate(evs, now)

	require.Len(t, groups, 6)
	assert.Equal(t, BucketEarlier, groups[0].Bucket)
	assert.Equal(t, BucketToday, groups[1].Bucket)
	assert.Equal(t, BucketTomorrow, groups[2].Bucket)
	assert.Equal(t, BucketThisWeek, groups[3].Bucket)
	assert.Equal(t, BucketNextWeek, groups[4].Bucket)
	assert.Equal(t, BucketLater, groups[5].Bucket)

	assert.Len(t, groups[3].Events, 2)
	assert.Equal(t, "next week start", groups[4].Events[0].Title)
	assert.Equal(t, "next week end", groups[4].Events[1].Title)

	// Partition: every input event appears exactly once.
	total := 0
	for _, g := range groups {
		total += len(g.Events)
	}
	assert.Equal(t, len(evs), total)
}

func TestGroupByDateOmitsEmptyBuckets(t *testing.T) {
	now := day(t, "2024-06-01 12:00")
	evs := []Event{
		{ID: uuid.New(), Title: "today", StartTime: now},
		{ID: uuid.New(), Title: "later", StartTime: now.AddDate(0, 0, 30)},
	}

	groups := GroupByDate(evs, now)

	require.Len(t, groups, 2)
	assert.Equal(t, BucketToday, groups[0].Bucket)
	assert.Equal(t, BucketLater, groups[1].Bucket)
}

func TestGroupByDateSortsWithinBucket(t *testing.T) {
	now := day(t, "2024-06-01 12:00")
	evs := []Event{
		{ID: uuid.New(), Title: "evening", StartTime: day(t, "2024-06-01 19:00")},
		{ID: uuid.New(), Title: "morning", StartTime: day(t, "2024-06-01 08:00")},
	}

	groups := GroupByDate(evs, now)

	require.Len(t, groups, 1)
	assert.Equal(t, "morning", groups[0].Events[0].Title)
	assert.Equal(t, "evening", groups[0].Events[1].Title)
}
