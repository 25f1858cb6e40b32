package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BenAji/agora-go/internal/domain/calview"
	"github.com/BenAji/agora-go/internal/domain/feed"
	"github.com/BenAji/agora-go/pkg/logger"
)

type stubRepo struct {
	events    map[uuid.UUID]*Event
	companies map[uuid.UUID]*Company

	failList bool
	failRSVP bool

	rsvpCalls int
	created   []*Event
}

func newStubRepo(events []*Event, companies []*Company) *stubRepo {
	r := &stubRepo{
		events:    make(map[uuid.UUID]*Event),
		companies: make(map[uuid.UUID]*Company),
	}
	for _, e := range events {
		r.events[e.ID] = e
	}
	for _, c := range companies {
		r.companies[c.ID] = c
	}
	return r
}

func (r *stubRepo) CreateEvent(ctx context.Context, event *Event) error {
	r.events[event.ID] = event
	r.created = append(r.created, event)
	return nil
}

func (r *stubRepo) GetEventByID(ctx context.Context, id uuid.UUID) (*Event, error) {
	e, ok := r.events[id]
	if !ok {
		return nil, ErrEventNotFound
	}
	clone := *e
	return &clone, nil
}

func (r *stubRepo) GetEvents(ctx context.Context, filter EventFilter) ([]*Event, error) {
	if r.failList {
		return nil, errors.New("connection refused")
	}
	out := make([]*Event, 0, len(r.events))
	for _, e := range r.events {
		clone := *e
		out = append(out, &clone)
	}
	return out, nil
}

func (r *stubRepo) UpdateEvent(ctx context.Context, event *Event) error {
	if _, ok := r.events[event.ID]; !ok {
		return ErrEventNotFound
	}
	r.events[event.ID] = event
	return nil
}

func (r *stubRepo) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.events[id]; !ok {
		return ErrEventNotFound
	}
	delete(r.events, id)
	return nil
}

func (r *stubRepo) SetRSVPStatus(ctx context.Context, eventID uuid.UUID, status RSVPStatus) error {
	r.rsvpCalls++
	if r.failRSVP {
		return errors.New("write timeout")
	}
	e, ok := r.events[eventID]
	if !ok {
		return ErrEventNotFound
	}
	e.RSVPStatus = status
	return nil
}

func (r *stubRepo) GetCompanies(ctx context.Context) ([]*Company, error) {
	if r.failList {
		return nil, errors.New("connection refused")
	}
	out := make([]*Company, 0, len(r.companies))
	for _, c := range r.companies {
		clone := *c
		out = append(out, &clone)
	}
	return out, nil
}

func (r *stubRepo) GetCompanyByID(ctx context.Context, id uuid.UUID) (*Company, error) {
	c, ok := r.companies[id]
	if !ok {
		return nil, ErrCompanyNotFound
	}
	return c, nil
}

func (r *stubRepo) GetCompanyByTicker(ctx context.Context, ticker string) (*Company, error) {
	for _, c := range r.companies {
		if c.Ticker == ticker {
			return c, nil
		}
	}
	return nil, ErrCompanyNotFound
}

type recordingNotifier struct {
	changes []*feed.ChangeEvent
}

func (n *recordingNotifier) Publish(event *feed.ChangeEvent) {
	n.changes = append(n.changes, event)
}

func (n *recordingNotifier) kinds() []string {
	out := make([]string, 0, len(n.changes))
	for _, c := range n.changes {
		out = append(out, c.Kind)
	}
	return out
}

func serviceFixture(t *testing.T) ([]*Event, []*Company, time.Time) {
	t.Helper()
	now := day(t, "2024-06-05 12:00")
	company := &Company{ID: msftID, Ticker: "MSFT", Name: "Microsoft Corp", Subsector: "Software"}
	ev := &Event{
		ID:         uuid.New(),
		Title:      "Q2 Earnings Call",
		EventType:  EventTypeCatalyst,
		StartTime:  now.AddDate(0, 0, 1),
		EndTime:    now.AddDate(0, 0, 1).Add(time.Hour),
		RSVPStatus: RSVPPending,
		Companies:  []Company{*company},
	}
	return []*Event{ev}, []*Company{company}, now
}

func newTestService(repo Repository, notifier Notifier, forceFixtures bool) Service {
	fixtures := NewFixtureSource(time.Now())
	return NewService(repo, fixtures, notifier, logger.NewLogger("error"), forceFixtures)
}

func TestListEventsFromRepository(t *testing.T) {
	events, companies, _ := serviceFixture(t)
	repo := newStubRepo(events, companies)
	svc := newTestService(repo, nil, false)

	resp, err := svc.ListEvents(context.Background(), Criteria{})

	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.Total)
	assert.False(t, resp.Degraded)
	assert.False(t, svc.Degraded())
}

func TestListEventsFallsBackToFixtures(t *testing.T) {
	repo := newStubRepo(nil, nil)
	repo.failList = true
	svc := newTestService(repo, nil, false)

	resp, err := svc.ListEvents(context.Background(), Criteria{})

	require.NoError(t, err)
	assert.NotEmpty(t, resp.Events)
	assert.True(t, resp.Degraded)
	assert.True(t, svc.Degraded())
}

func TestCompaniesCarryEventCounts(t *testing.T) {
	events, companies, _ := serviceFixture(t)
	repo := newStubRepo(events, companies)
	svc := newTestService(repo, nil, false)

	got, err := svc.Companies(context.Background())

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].EventCount)
}

func TestMutationsRejectedWithoutPersistence(t *testing.T) {
	svc := newTestService(nil, nil, true)

	_, err := svc.CreateEvent(context.Background(), &CreateEventRequest{})
	assert.ErrorIs(t, err, ErrPersistenceUnavailable)

	_, err = svc.UpdateEvent(context.Background(), uuid.New(), &UpdateEventRequest{})
	assert.ErrorIs(t, err, ErrPersistenceUnavailable)

	err = svc.DeleteEvent(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrPersistenceUnavailable)
}

func TestCreateEventPublishesAndRefreshes(t *testing.T) {
	events, companies, now := serviceFixture(t)
	repo := newStubRepo(events, companies)
	notifier := &recordingNotifier{}
	svc := newTestService(repo, notifier, false)

	hostID := msftID
	req := &CreateEventRequest{
		Title:      "Investor Day",
		EventType:  EventTypeStandard,
		StartTime:  now.AddDate(0, 0, 3),
		EndTime:    now.AddDate(0, 0, 3).Add(4 * time.Hour),
		CompanyIDs: []uuid.UUID{msftID},
		Hosts:      []HostInput{{HostType: HostSingleCorp, HostID: &hostID}},
	}

	created, err := svc.CreateEvent(context.Background(), req)

	require.NoError(t, err)
	require.Len(t, repo.created, 1)
	assert.Equal(t, RSVPPending, created.RSVPStatus)
	assert.Equal(t, LocationTypePhysical, created.LocationType)
	assert.Equal(t, []string{feed.KindEventsChanged}, notifier.kinds())

	resp, err := svc.ListEvents(context.Background(), Criteria{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.Total)
}

func TestCreateEventRejectsUnknownCompany(t *testing.T) {
	events, companies, now := serviceFixture(t)
	repo := newStubRepo(events, companies)
	svc := newTestService(repo, nil, false)

	req := &CreateEventRequest{
		Title:      "Investor Day",
		EventType:  EventTypeStandard,
		StartTime:  now,
		EndTime:    now.Add(time.Hour),
		CompanyIDs: []uuid.UUID{uuid.New()},
	}

	_, err := svc.CreateEvent(context.Background(), req)

	assert.ErrorIs(t, err, ErrCompanyNotFound)
	assert.Empty(t, repo.created)
}

func TestCreateEventRejectsUnderfilledMultiCorpHost(t *testing.T) {
	events, companies, now := serviceFixture(t)
	repo := newStubRepo(events, companies)
	svc := newTestService(repo, nil, false)

	req := &CreateEventRequest{
		Title:     "Joint Roadshow",
		EventType: EventTypeStandard,
		StartTime: now,
		EndTime:   now.Add(time.Hour),
		Hosts: []HostInput{{
			HostType:  HostMultiCorp,
			Companies: []CompanyStub{{ID: msftID, Ticker: "MSFT"}},
		}},
	}

	_, err := svc.CreateEvent(context.Background(), req)

	assert.ErrorIs(t, err, ErrInvalidHost)
}

func TestRespondRSVPPersistsOptimistically(t *testing.T) {
	events, companies, _ := serviceFixture(t)
	eventID := events[0].ID
	repo := newStubRepo(events, companies)
	notifier := &recordingNotifier{}
	svc := newTestService(repo, notifier, false)

	_, err := svc.ListEvents(context.Background(), Criteria{})
	require.NoError(t, err)

	updated, err := svc.RespondRSVP(context.Background(), eventID, RSVPAccepted)

	require.NoError(t, err)
	assert.Equal(t, RSVPAccepted, updated.RSVPStatus)
	assert.Equal(t, 1, repo.rsvpCalls)
	assert.Equal(t, RSVPAccepted, repo.events[eventID].RSVPStatus)
	assert.Equal(t, []string{feed.KindRSVPChanged}, notifier.kinds())

	got, err := svc.GetEvent(context.Background(), eventID)
	require.NoError(t, err)
	assert.Equal(t, RSVPAccepted, got.Event.RSVPStatus)
}

func TestRespondRSVPRevertsOnPersistFailure(t *testing.T) {
	events, companies, _ := serviceFixture(t)
	eventID := events[0].ID
	repo := newStubRepo(events, companies)
	repo.failRSVP = true
	notifier := &recordingNotifier{}
	svc := newTestService(repo, notifier, false)

	_, err := svc.ListEvents(context.Background(), Criteria{})
	require.NoError(t, err)

	_, err = svc.RespondRSVP(context.Background(), eventID, RSVPAccepted)

	require.Error(t, err)
	assert.Empty(t, notifier.changes)

	// The reload undoes the optimistic change.
	got, err := svc.GetEvent(context.Background(), eventID)
	require.NoError(t, err)
	assert.Equal(t, RSVPPending, got.Event.RSVPStatus)
}

func TestRespondRSVPDegradedSkipsPersistAndPublish(t *testing.T) {
	notifier := &recordingNotifier{}
	svc := newTestService(nil, notifier, true)

	resp, err := svc.ListEvents(context.Background(), Criteria{})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Events)
	eventID := resp.Events[0].ID

	updated, err := svc.RespondRSVP(context.Background(), eventID, RSVPDeclined)

	require.NoError(t, err)
	assert.Equal(t, RSVPDeclined, updated.RSVPStatus)
	assert.Empty(t, notifier.changes)

	got, err := svc.GetEvent(context.Background(), eventID)
	require.NoError(t, err)
	assert.Equal(t, RSVPDeclined, got.Event.RSVPStatus)
}

func TestRespondRSVPValidation(t *testing.T) {
	events, companies, _ := serviceFixture(t)
	repo := newStubRepo(events, companies)
	svc := newTestService(repo, nil, false)

	_, err := svc.ListEvents(context.Background(), Criteria{})
	require.NoError(t, err)

	_, err = svc.RespondRSVP(context.Background(), events[0].ID, "maybe")
	assert.ErrorIs(t, err, ErrInvalidRSVPStatus)

	_, err = svc.RespondRSVP(context.Background(), uuid.New(), RSVPAccepted)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestSearchEventsDateJump(t *testing.T) {
	events, companies, now := serviceFixture(t)
	repo := newStubRepo(events, companies)
	svc := newTestService(repo, nil, false)

	resp, err := svc.SearchEvents(context.Background(), "tomorrow", Criteria{Now: now})

	require.NoError(t, err)
	require.NotNil(t, resp.JumpDate)
	assert.Equal(t, now.AddDate(0, 0, 1).Truncate(24*time.Hour).Day(), resp.JumpDate.Day())
	require.Len(t, resp.Events, 1)
	assert.Equal(t, "Q2 Earnings Call", resp.Events[0].Title)
}

func TestSearchEventsFreeText(t *testing.T) {
	events, companies, now := serviceFixture(t)
	repo := newStubRepo(events, companies)
	svc := newTestService(repo, nil, false)

	resp, err := svc.SearchEvents(context.Background(), "earnings", Criteria{Now: now})

	require.NoError(t, err)
	assert.Nil(t, resp.JumpDate)
	require.Len(t, resp.Events, 1)

	miss, err := svc.SearchEvents(context.Background(), "biotech", Criteria{Now: now})
	require.NoError(t, err)
	assert.Empty(t, miss.Events)
}

func TestCalendarGrid(t *testing.T) {
	events, companies, now := serviceFixture(t)
	repo := newStubRepo(events, companies)
	svc := newTestService(repo, nil, false)

	resp, err := svc.CalendarGrid(context.Background(), calview.ViewWeek, now)

	require.NoError(t, err)
	assert.Equal(t, calview.ViewWeek, resp.Mode)
	assert.Len(t, resp.Columns, 7)
	require.Len(t, resp.Rows, 1)

	key := events[0].StartTime.Format("2006-01-02")
	cell := resp.Rows[0].Cells[key]
	require.Len(t, cell, 1)
	assert.Equal(t, "Q2 Earnings Call", cell[0].Title)
}

func TestCalendarGridRejectsUnknownMode(t *testing.T) {
	events, companies, now := serviceFixture(t)
	repo := newStubRepo(events, companies)
	svc := newTestService(repo, nil, false)

	_, err := svc.CalendarGrid(context.Background(), calview.ViewMode("decade"), now)

	assert.ErrorIs(t, err, calview.ErrInvalidViewMode)
}

func TestUpdateEventAppliesPartialChanges(t *testing.T) {
	events, companies, now := serviceFixture(t)
	eventID := events[0].ID
	repo := newStubRepo(events, companies)
	notifier := &recordingNotifier{}
	svc := newTestService(repo, notifier, false)

	title := "Q2 Earnings Call (Rescheduled)"
	updated, err := svc.UpdateEvent(context.Background(), eventID, &UpdateEventRequest{Title: &title})

	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, events[0].EventType, updated.EventType)
	assert.Equal(t, []string{feed.KindEventsChanged}, notifier.kinds())

	badEnd := now.AddDate(0, 0, -10)
	_, err = svc.UpdateEvent(context.Background(), eventID, &UpdateEventRequest{EndTime: &badEnd})
	assert.ErrorIs(t, err, ErrInvalidTimeRange)
}

func TestDeleteEventRemovesFromSnapshot(t *testing.T) {
	events, companies, _ := serviceFixture(t)
	eventID := events[0].ID
	repo := newStubRepo(events, companies)
	svc := newTestService(repo, nil, false)

	require.NoError(t, svc.DeleteEvent(context.Background(), eventID))

	_, err := svc.GetEvent(context.Background(), eventID)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestExportICS(t *testing.T) {
	events, companies, _ := serviceFixture(t)
	repo := newStubRepo(events, companies)
	svc := newTestService(repo, nil, false)

	raw, err := svc.ExportICS(context.Background(), Criteria{})

	require.NoError(t, err)
	payload := string(raw)
	assert.Contains(t, payload, "BEGIN:VCALENDAR")
	assert.Contains(t, payload, "Q2 Earnings Call")
	assert.Contains(t, payload, "END:VCALENDAR")
}
