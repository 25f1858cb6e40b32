package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Source supplies the event and company snapshot. The primary source is the
// database; the fixture source serves deterministic sample data when the
// primary is unreachable or fixtures are forced on.
type Source interface {
	LoadEvents(ctx context.Context) ([]*Event, error)
	LoadCompanies(ctx context.Context) ([]*Company, error)
}

type repositorySource struct {
	repo Repository
}

// NewRepositorySource adapts a Repository into a Source.
func NewRepositorySource(repo Repository) Source {
	return &repositorySource{repo: repo}
}

func (s *repositorySource) LoadEvents(ctx context.Context) ([]*Event, error) {
	return s.repo.GetEvents(ctx, EventFilter{})
}

func (s *repositorySource) LoadCompanies(ctx context.Context) ([]*Company, error) {
	return s.repo.GetCompanies(ctx)
}

// fixtureSource serves a built-in dataset. Event dates are anchored to the
// construction time so the calendar always has upcoming content.
type fixtureSource struct {
	events    []*Event
	companies []*Company
}

// NewFixtureSource builds the sample dataset anchored around now.
func NewFixtureSource(now time.Time) Source {
	companies := fixtureCompanies()
	return &fixtureSource{
		companies: companies,
		events:    fixtureEvents(now, companies),
	}
}

func (s *fixtureSource) LoadEvents(ctx context.Context) ([]*Event, error) {
	out := make([]*Event, len(s.events))
	for i, ev := range s.events {
		clone := *ev
		out[i] = &clone
	}
	return out, nil
}

func (s *fixtureSource) LoadCompanies(ctx context.Context) ([]*Company, error) {
	out := make([]*Company, len(s.companies))
	for i, c := range s.companies {
		clone := *c
		out[i] = &clone
	}
	return out, nil
}

func fixtureCompanies() []*Company {
	seeds := []struct {
		ticker, name, sector, subsector string
	}{
		{"BLK", "BlackRock Inc", "Financials", "Asset Management"},
		{"JPM", "JPMorgan Chase & Co", "Financials", "Banks"},
		{"MSFT", "Microsoft Corp", "Information Technology", "Software"},
		{"NVDA", "NVIDIA Corp", "Information Technology", "Semiconductors"},
		{"XOM", "Exxon Mobil Corp", "Energy", "Oil & Gas"},
		{"UNH", "UnitedHealth Group Inc", "Health Care", "Managed Care"},
	}
	companies := make([]*Company, len(seeds))
	for i, seed := range seeds {
		companies[i] = &Company{
			ID:          uuid.New(),
			Ticker:      seed.ticker,
			Name:        seed.name,
			Sector:      seed.sector,
			Subsector:   seed.subsector,
			DisplayRank: i + 1,
		}
	}
	return companies
}

func fixtureEvents(now time.Time, companies []*Company) []*Event {
	day := func(offset int, hour int) time.Time {
		base := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, time.UTC)
		return base.AddDate(0, 0, offset)
	}
	byTicker := make(map[string]*Company, len(companies))
	for _, c := range companies {
		byTicker[c.Ticker] = c
	}
	pick := func(tickers ...string) []Company {
		out := make([]Company, 0, len(tickers))
		for _, t := range tickers {
			if c, ok := byTicker[t]; ok {
				out = append(out, *c)
			}
		}
		return out
	}

	seeds := []struct {
		title, description, location string
		eventType                    EventType
		locationType                 LocationType
		startOffset, durationHours   int
		rsvp                         RSVPStatus
		hostTicker                   string
		organizer                    string
		attendees                    []string
	}{
		{"Q2 Earnings Call", "Quarterly results and guidance update", "Webcast", EventTypeCatalyst, LocationTypeVirtual, 1, 1, RSVPAccepted, "MSFT", "", []string{"MSFT"}},
		{"Technology Leaders Summit", "Cross-sector panel on AI infrastructure spend", "New York, NY", EventTypeStandard, LocationTypeHybrid, 3, 8, RSVPPending, "", "Goldman Sachs Conferences", []string{"MSFT", "NVDA"}},
		{"Investor Day", "Long-term strategy and capital allocation", "Houston, TX", EventTypeCatalyst, LocationTypePhysical, 8, 6, RSVPDeclined, "XOM", "", []string{"XOM"}},
		{"Fixed Income Roadshow", "Non-deal roadshow with treasury team", "London, UK", EventTypeStandard, LocationTypePhysical, 15, 4, RSVPPending, "JPM", "", []string{"JPM", "BLK"}},
		{"Healthcare Policy Briefing", "Regulatory outlook discussion", "Webcast", EventTypeStandard, LocationTypeVirtual, -2, 1, RSVPAccepted, "", "Washington Analysis Group", []string{"UNH"}},
	}

	events := make([]*Event, 0, len(seeds))
	for _, seed := range seeds {
		start := day(seed.startOffset, 14)
		ev := &Event{
			ID:           uuid.New(),
			Title:        seed.title,
			Description:  seed.description,
			EventType:    seed.eventType,
			LocationType: seed.locationType,
			Location:     seed.location,
			StartTime:    start,
			EndTime:      start.Add(time.Duration(seed.durationHours) * time.Hour),
			RSVPStatus:   seed.rsvp,
			Companies:    pick(seed.attendees...),
		}
		if seed.hostTicker != "" {
			host := byTicker[seed.hostTicker]
			ev.Hosts = []Host{{
				ID:        uuid.New(),
				EventID:   ev.ID,
				HostType:  HostSingleCorp,
				HostID:    &host.ID,
				Companies: mustCompanyStubs([]CompanyStub{{ID: host.ID, Ticker: host.Ticker, Name: host.Name}}),
			}}
		} else {
			ev.Hosts = []Host{{
				ID:            uuid.New(),
				EventID:       ev.ID,
				HostType:      HostNonCompany,
				OrganizerName: seed.organizer,
			}}
		}
		events = append(events, ev)
	}
	return events
}

func mustCompanyStubs(stubs []CompanyStub) datatypes.JSON {
	raw, err := json.Marshal(stubs)
	if err != nil {
		panic(fmt.Sprintf("marshal company stubs: %v", err))
	}
	return datatypes.JSON(raw)
}
