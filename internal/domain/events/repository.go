package events

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository handles event and company persistence.
type Repository interface {
	CreateEvent(ctx context.Context, event *Event) error
	GetEventByID(ctx context.Context, id uuid.UUID) (*Event, error)
	GetEvents(ctx context.Context, filter EventFilter) ([]*Event, error)
	UpdateEvent(ctx context.Context, event *Event) error
	DeleteEvent(ctx context.Context, id uuid.UUID) error
	SetRSVPStatus(ctx context.Context, eventID uuid.UUID, status RSVPStatus) error

	GetCompanies(ctx context.Context) ([]*Company, error)
	GetCompanyByID(ctx context.Context, id uuid.UUID) (*Company, error)
	GetCompanyByTicker(ctx context.Context, ticker string) (*Company, error)
}

// EventFilter narrows the persistence query. All fields are optional; the
// in-memory engine applies the finer-grained criteria afterwards.
type EventFilter struct {
	CompanyID *uuid.UUID
	EventType *EventType
	Limit     int
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new event repository backed by gorm.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateEvent(ctx context.Context, event *Event) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repository) GetEventByID(ctx context.Context, id uuid.UUID) (*Event, error) {
	var event Event
	err := r.db.WithContext(ctx).
		Preload("Companies").
		Preload("Hosts").
		Where("id = ?", id).
		First(&event).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *repository) GetEvents(ctx context.Context, filter EventFilter) ([]*Event, error) {
	var events []*Event
	query := r.db.WithContext(ctx).
		Preload("Companies").
		Preload("Hosts")

	if filter.EventType != nil {
		query = query.Where("event_type = ?", *filter.EventType)
	}
	if filter.CompanyID != nil {
		query = query.
			Joins("JOIN event_companies ON event_companies.event_id = events.id").
			Where("event_companies.company_id = ?", *filter.CompanyID)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	err := query.Order("start_time ASC").Find(&events).Error
	return events, err
}

func (r *repository) UpdateEvent(ctx context.Context, event *Event) error {
	result := r.db.WithContext(ctx).
		Model(&Event{}).
		Where("id = ?", event.ID).
		Updates(event)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEventNotFound
	}
	// Replace the company associations so removals stick.
	return r.db.WithContext(ctx).
		Model(event).
		Association("Companies").
		Replace(event.Companies)
}

func (r *repository) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&Event{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (r *repository) SetRSVPStatus(ctx context.Context, eventID uuid.UUID, status RSVPStatus) error {
	result := r.db.WithContext(ctx).
		Model(&Event{}).
		Where("id = ?", eventID).
		Update("rsvp_status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (r *repository) GetCompanies(ctx context.Context) ([]*Company, error) {
	var companies []*Company
	err := r.db.WithContext(ctx).
		Order("display_rank ASC, ticker ASC").
		Find(&companies).Error
	return companies, err
}

func (r *repository) GetCompanyByID(ctx context.Context, id uuid.UUID) (*Company, error) {
	var company Company
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&company).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrCompanyNotFound
	}
	if err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *repository) GetCompanyByTicker(ctx context.Context, ticker string) (*Company, error) {
	var company Company
	err := r.db.WithContext(ctx).Where("ticker = ?", ticker).First(&company).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrCompanyNotFound
	}
	if err != nil {
		return nil, err
	}
	return &company, nil
}
