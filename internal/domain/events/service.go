package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BenAji/agora-go/internal/domain/calview"
	"github.com/BenAji/agora-go/internal/domain/feed"
	"github.com/BenAji/agora-go/pkg/logger"
)

// Notifier receives change signals emitted by mutations.
type Notifier interface {
	Publish(event *feed.ChangeEvent)
}

// Service defines the interface for event business logic.
type Service interface {
	ListEvents(ctx context.Context, criteria Criteria) (*EventListResponse, error)
	GroupedEvents(ctx context.Context, criteria Criteria) (*GroupedEventsResponse, error)
	CalendarGrid(ctx context.Context, mode calview.ViewMode, anchor time.Time) (*CalendarGridResponse, error)
	SearchEvents(ctx context.Context, query string, criteria Criteria) (*SearchResponse, error)
	GetEvent(ctx context.Context, id uuid.UUID) (*EventResponse, error)
	CreateEvent(ctx context.Context, req *CreateEventRequest) (*Event, error)
	UpdateEvent(ctx context.Context, id uuid.UUID, req *UpdateEventRequest) (*Event, error)
	DeleteEvent(ctx context.Context, id uuid.UUID) error
	RespondRSVP(ctx context.Context, id uuid.UUID, status RSVPStatus) (*Event, error)
	Companies(ctx context.Context) ([]*Company, error)
	ExportICS(ctx context.Context, criteria Criteria) ([]byte, error)
	Refresh(ctx context.Context) error
	Degraded() bool
}

// GroupedEventsResponse carries the agenda view: events partitioned into
// relative date buckets.
type GroupedEventsResponse struct {
	Groups   []Group `json:"groups"`
	Total    int     `json:"total"`
	Degraded bool    `json:"degraded,omitempty"`
}

// CalendarGridResponse is the company-by-day matrix behind the grid view.
type CalendarGridResponse struct {
	Mode     calview.ViewMode    `json:"mode"`
	Start    time.Time           `json:"start"`
	End      time.Time           `json:"end"`
	Columns  []calview.DayColumn `json:"columns"`
	Rows     []CalendarGridRow   `json:"rows"`
	Degraded bool                `json:"degraded,omitempty"`
}

type CalendarGridRow struct {
	Company Company            `json:"company"`
	Cells   map[string][]Event `json:"cells"` // keyed by yyyy-mm-dd
}

// SearchResponse is the result of a free-text search. When the query parses
// as a date the response is a calendar jump instead of a text match.
type SearchResponse struct {
	Events   []Event    `json:"events"`
	JumpDate *time.Time `json:"jump_date,omitempty"`
	Degraded bool       `json:"degraded,omitempty"`
}

type snapshot struct {
	events    []Event
	companies []*Company
	degraded  bool
	loadedAt  time.Time
}

type service struct {
	repo          Repository
	primary       Source
	fixtures      Source
	notifier      Notifier
	logger        *logger.Logger
	forceFixtures bool

	mutex sync.RWMutex
	snap  snapshot
}

// NewService creates a new event service. When forceFixtures is set, or when
// the primary source fails, reads are served from the built-in fixture data
// and flagged as degraded.
func NewService(repo Repository, fixtures Source, notifier Notifier, log *logger.Logger, forceFixtures bool) Service {
	return &service{
		repo:          repo,
		primary:       NewRepositorySource(repo),
		fixtures:      fixtures,
		notifier:      notifier,
		logger:        log,
		forceFixtures: forceFixtures,
	}
}

// Refresh reloads the snapshot from the primary source, falling back to
// fixtures when the primary is unavailable.
func (s *service) Refresh(ctx context.Context) error {
	source, degraded := s.primary, false
	if s.forceFixtures {
		source, degraded = s.fixtures, true
	}

	events, companies, err := loadAll(ctx, source)
	if err != nil && !degraded {
		s.logger.Warn("primary event source unavailable, serving fixtures", zap.Error(err))
		events, companies, err = loadAll(ctx, s.fixtures)
		degraded = true
	}
	if err != nil {
		return fmt.Errorf("failed to load event snapshot: %w", err)
	}

	flat := make([]Event, len(events))
	counts := make(map[uuid.UUID]int64)
	for i, ev := range events {
		flat[i] = *ev
		for _, id := range ev.AttendingCompanyIDs() {
			counts[id]++
		}
	}
	for _, c := range companies {
		c.EventCount = counts[c.ID]
	}

	s.mutex.Lock()
	s.snap = snapshot{events: flat, companies: companies, degraded: degraded, loadedAt: time.Now()}
	s.mutex.Unlock()

	s.logger.Info("event snapshot refreshed",
		zap.Int("events", len(flat)),
		zap.Int("companies", len(companies)),
		zap.Bool("degraded", degraded))
	return nil
}

func loadAll(ctx context.Context, src Source) ([]*Event, []*Company, error) {
	events, err := src.LoadEvents(ctx)
	if err != nil {
		return nil, nil, err
	}
	companies, err := src.LoadCompanies(ctx)
	if err != nil {
		return nil, nil, err
	}
	return events, companies, nil
}

// current returns the snapshot, loading it on first use.
func (s *service) current(ctx context.Context) (snapshot, error) {
	s.mutex.RLock()
	snap := s.snap
	s.mutex.RUnlock()
	if !snap.loadedAt.IsZero() {
		return snap, nil
	}
	if err := s.Refresh(ctx); err != nil {
		return snapshot{}, err
	}
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.snap, nil
}

func (s *service) Degraded() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.snap.degraded
}

func (s *service) ListEvents(ctx context.Context, criteria Criteria) (*EventListResponse, error) {
	snap, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	filtered := Apply(snap.events, criteria)
	return &EventListResponse{
		Events:   filtered,
		Total:    int64(len(filtered)),
		Degraded: snap.degraded,
	}, nil
}

func (s *service) GroupedEvents(ctx context.Context, criteria Criteria) (*GroupedEventsResponse, error) {
	snap, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	filtered := Apply(snap.events, criteria)
	groups := GroupByDate(filtered, criteria.now())
	return &GroupedEventsResponse{
		Groups:   groups,
		Total:    len(filtered),
		Degraded: snap.degraded,
	}, nil
}

func (s *service) CalendarGrid(ctx context.Context, mode calview.ViewMode, anchor time.Time) (*CalendarGridResponse, error) {
	if !mode.IsValid() {
		return nil, calview.ErrInvalidViewMode
	}
	snap, err := s.current(ctx)
	if err != nil {
		return nil, err
	}

	rng := calview.Resolve(mode, anchor)
	window := &DateWindow{Start: rng.Start, End: rng.End}
	inRange := Apply(snap.events, Criteria{Window: window})

	rows := make([]CalendarGridRow, 0, len(snap.companies))
	for _, company := range snap.companies {
		cells := make(map[string][]Event)
		for _, ev := range inRange {
			if !containsCompany(&ev, company.ID) {
				continue
			}
			key := ev.StartTime.Format("2006-01-02")
			cells[key] = append(cells[key], ev)
		}
		rows = append(rows, CalendarGridRow{Company: *company, Cells: cells})
	}

	return &CalendarGridResponse{
		Mode:     mode,
		Start:    rng.Start,
		End:      rng.End,
		Columns:  calview.DayColumns(mode, anchor),
		Rows:     rows,
		Degraded: snap.degraded,
	}, nil
}

func (s *service) SearchEvents(ctx context.Context, query string, criteria Criteria) (*SearchResponse, error) {
	snap, err := s.current(ctx)
	if err != nil {
		return nil, err
	}

	if date, ok := calview.ParseDateQuery(query, criteria.now()); ok {
		window := &DateWindow{Start: date, End: date}
		dayCriteria := criteria
		dayCriteria.FreeText = ""
		dayCriteria.Window = window
		return &SearchResponse{
			Events:   Apply(snap.events, dayCriteria),
			JumpDate: &date,
			Degraded: snap.degraded,
		}, nil
	}

	textCriteria := criteria
	textCriteria.FreeText = query
	return &SearchResponse{
		Events:   Apply(snap.events, textCriteria),
		Degraded: snap.degraded,
	}, nil
}

func (s *service) GetEvent(ctx context.Context, id uuid.UUID) (*EventResponse, error) {
	snap, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	for i := range snap.events {
		if snap.events[i].ID == id {
			return &EventResponse{
				Event:       snap.events[i],
				StatusColor: snap.events[i].StatusColor(),
				Degraded:    snap.degraded,
			}, nil
		}
	}
	return nil, ErrEventNotFound
}

// requireRepo rejects mutations while running without persistence.
func (s *service) requireRepo() error {
	if s.repo == nil {
		return ErrPersistenceUnavailable
	}
	return nil
}

func (s *service) CreateEvent(ctx context.Context, req *CreateEventRequest) (*Event, error) {
	if err := s.requireRepo(); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	companies := make([]Company, 0, len(req.CompanyIDs))
	for _, id := range req.CompanyIDs {
		company, err := s.repo.GetCompanyByID(ctx, id)
		if err != nil {
			return nil, err
		}
		companies = append(companies, *company)
	}

	event := &Event{
		ID:           uuid.New(),
		Title:        req.Title,
		Description:  req.Description,
		EventType:    req.EventType,
		LocationType: req.LocationType,
		Location:     req.Location,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		RSVPStatus:   RSVPPending,
		Companies:    companies,
	}
	if event.LocationType == "" {
		event.LocationType = LocationTypePhysical
	}
	for _, input := range req.Hosts {
		host, err := buildHost(event.ID, input)
		if err != nil {
			return nil, err
		}
		event.Hosts = append(event.Hosts, *host)
	}

	if err := s.repo.CreateEvent(ctx, event); err != nil {
		s.logger.Error("failed to create event", zap.Error(err))
		return nil, err
	}

	s.publish(feed.KindEventsChanged, event.ID)
	if err := s.Refresh(ctx); err != nil {
		s.logger.Warn("snapshot refresh after create failed", zap.Error(err))
	}
	return event, nil
}

func buildHost(eventID uuid.UUID, input HostInput) (*Host, error) {
	host := &Host{
		ID:            uuid.New(),
		EventID:       eventID,
		HostType:      input.HostType,
		HostID:        input.HostID,
		OrganizerName: input.OrganizerName,
	}
	switch input.HostType {
	case HostSingleCorp:
		if input.HostID == nil {
			return nil, ErrInvalidHost
		}
	case HostMultiCorp:
		if len(input.Companies) < 2 {
			return nil, ErrInvalidHost
		}
		host.Companies = mustCompanyStubs(input.Companies)
	case HostNonCompany:
		if input.OrganizerName == "" {
			return nil, ErrInvalidHost
		}
	default:
		return nil, ErrInvalidHost
	}
	return host, nil
}

func (s *service) UpdateEvent(ctx context.Context, id uuid.UUID, req *UpdateEventRequest) (*Event, error) {
	if err := s.requireRepo(); err != nil {
		return nil, err
	}
	event, err := s.repo.GetEventByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		event.Title = *req.Title
	}
	if req.Description != nil {
		event.Description = *req.Description
	}
	if req.EventType != nil {
		if !isValidEventType(*req.EventType) {
			return nil, ErrInvalidEventType
		}
		event.EventType = *req.EventType
	}
	if req.LocationType != nil {
		if !isValidLocationType(*req.LocationType) {
			return nil, ErrInvalidLocationType
		}
		event.LocationType = *req.LocationType
	}
	if req.Location != nil {
		event.Location = *req.Location
	}
	if req.StartTime != nil {
		event.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		event.EndTime = *req.EndTime
	}
	if event.EndTime.Before(event.StartTime) {
		return nil, ErrInvalidTimeRange
	}
	if req.CompanyIDs != nil {
		companies := make([]Company, 0, len(req.CompanyIDs))
		for _, companyID := range req.CompanyIDs {
			company, err := s.repo.GetCompanyByID(ctx, companyID)
			if err != nil {
				return nil, err
			}
			companies = append(companies, *company)
		}
		event.Companies = companies
	}

	if err := s.repo.UpdateEvent(ctx, event); err != nil {
		return nil, err
	}

	s.publish(feed.KindEventsChanged, event.ID)
	if err := s.Refresh(ctx); err != nil {
		s.logger.Warn("snapshot refresh after update failed", zap.Error(err))
	}
	return event, nil
}

func (s *service) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	if err := s.requireRepo(); err != nil {
		return err
	}
	if err := s.repo.DeleteEvent(ctx, id); err != nil {
		return err
	}
	s.publish(feed.KindEventsChanged, id)
	if err := s.Refresh(ctx); err != nil {
		s.logger.Warn("snapshot refresh after delete failed", zap.Error(err))
	}
	return nil
}

// RespondRSVP applies the new status to the snapshot immediately so the
// dashboard reflects it without waiting on the write. A failed persist
// reloads the snapshot to undo the optimistic change.
func (s *service) RespondRSVP(ctx context.Context, id uuid.UUID, status RSVPStatus) (*Event, error) {
	if !isValidRSVPStatus(status) {
		return nil, ErrInvalidRSVPStatus
	}

	s.mutex.Lock()
	var updated *Event
	for i := range s.snap.events {
		if s.snap.events[i].ID == id {
			s.snap.events[i].RSVPStatus = status
			clone := s.snap.events[i]
			updated = &clone
			break
		}
	}
	degraded := s.snap.degraded
	s.mutex.Unlock()

	if updated == nil {
		return nil, ErrEventNotFound
	}

	// In degraded mode the change lives only in the snapshot; broadcasting
	// it would trigger a refresh that reloads fixtures and discards it.
	if degraded {
		return updated, nil
	}

	if err := s.repo.SetRSVPStatus(ctx, id, status); err != nil {
		s.logger.Error("rsvp persist failed", zap.String("event_id", id.String()), zap.Error(err))
		if refreshErr := s.Refresh(ctx); refreshErr != nil {
			s.logger.Warn("snapshot reload after rsvp failure also failed", zap.Error(refreshErr))
		}
		return nil, fmt.Errorf("failed to persist rsvp: %w", err)
	}

	s.publish(feed.KindRSVPChanged, id)
	return updated, nil
}

func (s *service) Companies(ctx context.Context) ([]*Company, error) {
	snap, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	return snap.companies, nil
}

func (s *service) ExportICS(ctx context.Context, criteria Criteria) ([]byte, error) {
	snap, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	return BuildICS(Apply(snap.events, criteria)), nil
}

func (s *service) publish(kind string, id uuid.UUID) {
	if s.notifier != nil {
		s.notifier.Publish(feed.NewChange(kind, id))
	}
}
