package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type EventType string

const (
	EventTypeStandard EventType = "standard"
	EventTypeCatalyst EventType = "catalyst"
)

type LocationType string

const (
	LocationTypePhysical LocationType = "physical"
	LocationTypeVirtual  LocationType = "virtual"
	LocationTypeHybrid   LocationType = "hybrid"
)

type RSVPStatus string

const (
	RSVPAccepted RSVPStatus = "accepted"
	RSVPDeclined RSVPStatus = "declined"
	RSVPPending  RSVPStatus = "pending"
)

type HostType string

const (
	HostSingleCorp HostType = "single_corp"
	HostMultiCorp  HostType = "multi_corp"
	HostNonCompany HostType = "non_company"
)

// Company is a subscribed, trackable entity ("ticker row").
type Company struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	Ticker    string    `json:"ticker" gorm:"type:varchar(12);not null;uniqueIndex:idx_company_ticker"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null"`
	Sector    string    `json:"sector,omitempty" gorm:"type:varchar(100)"`
	Subsector string    `json:"subsector,omitempty" gorm:"type:varchar(100)"`
	// DisplayRank is the user-assignable position in the watchlist.
	// Defaults to subscription order.
	DisplayRank int       `json:"display_rank" gorm:"not null;default:0"`
	CreatedAt   time.Time `json:"created_at" gorm:"not null;default:current_timestamp"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"not null;default:current_timestamp"`

	// EventCount is derived at query time, never stored.
	EventCount int64 `json:"event_count" gorm:"-"`
}

// CompanyStub is the embedded company reference carried by multi-corp hosts.
type CompanyStub struct {
	ID     uuid.UUID `json:"id"`
	Ticker string    `json:"ticker"`
	Name   string    `json:"name,omitempty"`
}

// Host describes who is presenting an event: a single company, several
// companies jointly, or a non-company organizer.
type Host struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	EventID  uuid.UUID `json:"event_id" gorm:"type:uuid;not null;index:idx_host_event"`
	HostType HostType  `json:"host_type" gorm:"type:varchar(20);not null"`
	// HostID points at the hosting company when HostType is single_corp.
	HostID *uuid.UUID `json:"host_id,omitempty" gorm:"type:uuid"`
	// Companies holds company stubs when HostType is multi_corp.
	Companies datatypes.JSON `json:"companies_jsonb,omitempty" gorm:"type:jsonb"`
	// OrganizerName is the free-text organizer when HostType is non_company.
	OrganizerName string    `json:"organizer_name,omitempty" gorm:"type:varchar(255)"`
	CreatedAt     time.Time `json:"created_at" gorm:"not null;default:current_timestamp"`
	UpdatedAt     time.Time `json:"updated_at" gorm:"not null;default:current_timestamp"`
}

// CompanyStubs decodes the multi-corp company list. A malformed payload
// yields an empty list rather than an error; membership checks fail closed.
func (h *Host) CompanyStubs() []CompanyStub {
	if len(h.Companies) == 0 {
		return nil
	}
	var stubs []CompanyStub
	if err := json.Unmarshal(h.Companies, &stubs); err != nil {
		return nil
	}
	return stubs
}

// ResolvesTo reports whether this host record represents the given company.
// Every host type carries its company reference differently.
func (h *Host) ResolvesTo(companyID uuid.UUID) bool {
	switch h.HostType {
	case HostSingleCorp:
		return h.HostID != nil && *h.HostID == companyID
	case HostMultiCorp:
		for _, stub := range h.CompanyStubs() {
			if stub.ID == companyID {
				return true
			}
		}
	}
	return false
}

// Event represents one scheduled corporate occurrence (earnings call,
// conference, regulatory event) associated with one or more companies.
type Event struct {
	ID           uuid.UUID    `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	Title        string       `json:"title" gorm:"type:varchar(255);not null;index:idx_event_title"`
	Description  string       `json:"description" gorm:"type:text"`
	EventType    EventType    `json:"event_type" gorm:"type:varchar(20);not null;default:'standard'"`
	LocationType LocationType `json:"location_type" gorm:"type:varchar(20);not null;default:'physical'"`
	Location     string       `json:"location,omitempty" gorm:"type:varchar(255)"`
	StartTime    time.Time    `json:"start_time" gorm:"not null;index:idx_event_start"`
	EndTime      time.Time    `json:"end_time" gorm:"not null;index:idx_event_end"`
	RSVPStatus   RSVPStatus   `json:"rsvp_status" gorm:"type:varchar(20);not null;default:'pending'"`
	CreatedAt    time.Time    `json:"created_at" gorm:"not null;default:current_timestamp"`
	UpdatedAt    time.Time    `json:"updated_at" gorm:"not null;default:current_timestamp"`

	// Relationships
	Companies []Company `json:"companies,omitempty" gorm:"many2many:event_companies"`
	Hosts     []Host    `json:"hosts,omitempty" gorm:"foreignKey:EventID"`
}

// IsMultiCompany holds exactly when more than one company is attached.
func (e *Event) IsMultiCompany() bool {
	return len(e.Companies) > 1
}

// AttendingCompanyIDs is the id set of the attached companies.
func (e *Event) AttendingCompanyIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(e.Companies))
	for _, c := range e.Companies {
		ids = append(ids, c.ID)
	}
	return ids
}

// HostedBy reports whether any host record resolves to the company.
// Checking only the first host would miss joint-hosted events.
func (e *Event) HostedBy(companyID uuid.UUID) bool {
	for i := range e.Hosts {
		if e.Hosts[i].ResolvesTo(companyID) {
			return true
		}
	}
	return false
}

// AttendedBy reports whether the company is attached to the event without
// resolving as a host.
func (e *Event) AttendedBy(companyID uuid.UUID) bool {
	if e.HostedBy(companyID) {
		return false
	}
	for _, c := range e.Companies {
		if c.ID == companyID {
			return true
		}
	}
	return false
}

// HasHostType reports whether any host record carries the given type.
func (e *Event) HasHostType(t HostType) bool {
	for i := range e.Hosts {
		if e.Hosts[i].HostType == t {
			return true
		}
	}
	return false
}

// StatusColor maps the RSVP status onto the dashboard color code.
func (e *Event) StatusColor() string {
	switch e.RSVPStatus {
	case RSVPAccepted:
		return "green"
	case RSVPDeclined:
		return "yellow"
	default:
		return "grey"
	}
}

// TableName specifies the table names for each model
func (Event) TableName() string   { return "events" }
func (Company) TableName() string { return "companies" }
func (Host) TableName() string    { return "event_hosts" }

// BeforeCreate hooks for UUID generation
func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

func (c *Company) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (h *Host) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}

// Request/Response DTOs
type CreateEventRequest struct {
	Title        string       `json:"title" binding:"required"`
	Description  string       `json:"description"`
	EventType    EventType    `json:"event_type" binding:"required"`
	LocationType LocationType `json:"location_type"`
	Location     string       `json:"location"`
	StartTime    time.Time    `json:"start_time" binding:"required"`
	EndTime      time.Time    `json:"end_time" binding:"required"`
	CompanyIDs   []uuid.UUID  `json:"company_ids" binding:"required,min=1"`
	Hosts        []HostInput  `json:"hosts,omitempty"`
}

type HostInput struct {
	HostType      HostType      `json:"host_type" binding:"required"`
	HostID        *uuid.UUID    `json:"host_id,omitempty"`
	Companies     []CompanyStub `json:"companies,omitempty"`
	OrganizerName string        `json:"organizer_name,omitempty"`
}

type UpdateEventRequest struct {
	Title        *string       `json:"title,omitempty"`
	Description  *string       `json:"description,omitempty"`
	EventType    *EventType    `json:"event_type,omitempty"`
	LocationType *LocationType `json:"location_type,omitempty"`
	Location     *string       `json:"location,omitempty"`
	StartTime    *time.Time    `json:"start_time,omitempty"`
	EndTime      *time.Time    `json:"end_time,omitempty"`
	CompanyIDs   []uuid.UUID   `json:"company_ids,omitempty"`
}

type EventResponse struct {
	Event       Event  `json:"event"`
	StatusColor string `json:"status_color"`
	Degraded    bool   `json:"degraded,omitempty"`
}

type EventListResponse struct {
	Events   []Event `json:"events"`
	Total    int64   `json:"total"`
	Degraded bool    `json:"degraded,omitempty"`
}

// Validate checks the create request before anything touches persistence.
func (r *CreateEventRequest) Validate() error {
	if !isValidEventType(r.EventType) {
		return ErrInvalidEventType
	}
	if r.LocationType != "" && !isValidLocationType(r.LocationType) {
		return ErrInvalidLocationType
	}
	if r.EndTime.Before(r.StartTime) {
		return ErrInvalidTimeRange
	}
	return nil
}

// Common errors
var (
	ErrInvalidEventType    = NewError("invalid event type")
	ErrInvalidLocationType = NewError("invalid location type")
	ErrInvalidTimeRange    = NewError("end time must be after or equal to start time")
	ErrInvalidRSVPStatus   = NewError("invalid rsvp status")
	ErrInvalidHost         = NewError("invalid host configuration")
	ErrEventNotFound       = NewError("event not found")
	ErrCompanyNotFound     = NewError("company not found")

	// ErrPersistenceUnavailable is returned for mutations while the
	// service runs in fixture-only mode without a database.
	ErrPersistenceUnavailable = NewError("event persistence is unavailable")
)

// Error type
type Error struct {
	message string
}

func NewError(message string) *Error {
	return &Error{message: message}
}

func (e *Error) Error() string {
	return e.message
}

// Validation methods
func (e *Event) Validate() error {
	if e.Title == "" {
		return NewError("title is required")
	}
	if e.StartTime.After(e.EndTime) {
		return ErrInvalidTimeRange
	}
	if !isValidEventType(e.EventType) {
		return ErrInvalidEventType
	}
	if !isValidLocationType(e.LocationType) {
		return ErrInvalidLocationType
	}
	if !isValidRSVPStatus(e.RSVPStatus) {
		return ErrInvalidRSVPStatus
	}
	for i := range e.Hosts {
		if err := e.Hosts[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (h *Host) Validate() error {
	switch h.HostType {
	case HostSingleCorp:
		if h.HostID == nil {
			return ErrInvalidHost
		}
	case HostMultiCorp:
		if len(h.CompanyStubs()) == 0 {
			return ErrInvalidHost
		}
	case HostNonCompany:
		if h.OrganizerName == "" {
			return ErrInvalidHost
		}
	default:
		return ErrInvalidHost
	}
	return nil
}

// Helper functions for validation
func isValidEventType(t EventType) bool {
	switch t {
	case EventTypeStandard, EventTypeCatalyst:
		return true
	}
	return false
}

func isValidLocationType(t LocationType) bool {
	switch t {
	case LocationTypePhysical, LocationTypeVirtual, LocationTypeHybrid:
		return true
	}
	return false
}

func isValidRSVPStatus(s RSVPStatus) bool {
	switch s {
	case RSVPAccepted, RSVPDeclined, RSVPPending:
		return true
	}
	return false
}
