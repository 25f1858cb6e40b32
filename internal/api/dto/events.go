package dto

import (
	"time"

	"github.com/google/uuid"
)

// ListEventsParams are the query parameters accepted by the event list and
// agenda endpoints.
type ListEventsParams struct {
	Search    string     `form:"search"`
	CompanyID *uuid.UUID `form:"company_id"`
	Category  string     `form:"category,default=all"`
	SortBy    string     `form:"sort_by,default=date"`
	RSVPOnly  bool       `form:"rsvp_only"`
	StartDate *time.Time `form:"start_date" time_format:"2006-01-02"`
	EndDate   *time.Time `form:"end_date" time_format:"2006-01-02"`
}

// CalendarGridParams select the grid window.
type CalendarGridParams struct {
	Mode   string     `form:"mode,default=week"`
	Anchor *time.Time `form:"anchor" time_format:"2006-01-02"`
}

// SearchParams carry the search-box query.
type SearchParams struct {
	Query string `form:"q" binding:"required"`
}

// RSVPRequest sets the attendance response for an event.
type RSVPRequest struct {
	Status string `json:"status" binding:"required"`
}
