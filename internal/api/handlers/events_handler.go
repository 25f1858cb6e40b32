package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/BenAji/agora-go/internal/api/dto"
	"github.com/BenAji/agora-go/internal/domain/calview"
	"github.com/BenAji/agora-go/internal/domain/events"
)

var degradedMode = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "event_source_degraded",
		Help: "1 when event reads are served from fixture data, 0 otherwise",
	},
)

// EventsHandler handles HTTP requests for the event dashboard
type EventsHandler struct {
	service events.Service
}

// NewEventsHandler creates a new events handler instance
func NewEventsHandler(service events.Service) *EventsHandler {
	return &EventsHandler{service: service}
}

func criteriaFromParams(params dto.ListEventsParams) events.Criteria {
	criteria := events.Criteria{
		FreeText:  params.Search,
		CompanyID: params.CompanyID,
		Category:  events.Category(params.Category),
		RSVPOnly:  params.RSVPOnly,
		SortKey:   events.SortKey(params.SortBy),
	}
	if params.StartDate != nil && params.EndDate != nil {
		criteria.Window = &events.DateWindow{Start: *params.StartDate, End: *params.EndDate}
	}
	return criteria
}

func (h *EventsHandler) trackDegraded() {
	if h.service.Degraded() {
		degradedMode.Set(1)
	} else {
		degradedMode.Set(0)
	}
}

// ListEvents godoc
// @Summary List events
// @Description Get the filtered, sorted flat event list
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param search query string false "Free text filter"
// @Param company_id query string false "Company filter" format(uuid)
// @Param category query string false "Category filter (all, hosted, attended, upcoming, past, single_corp_host, multi_corp_host, non_company_host)"
// @Param sort_by query string false "Sort key (date, company, subsector, status)"
// @Param rsvp_only query bool false "Only events with an accepted RSVP"
// @Param start_date query string false "Window start (YYYY-MM-DD)"
// @Param end_date query string false "Window end (YYYY-MM-DD)"
// @Success 200 {object} events.EventListResponse "List of events"
// @Failure 400 {object} map[string]string "Invalid request"
// @Router /api/events [get]
func (h *EventsHandler) ListEvents(c *gin.Context) {
	var params dto.ListEventsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.service.ListEvents(c.Request.Context(), criteriaFromParams(params))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.trackDegraded()
	c.JSON(http.StatusOK, response)
}

// GroupedEvents godoc
// @Summary List events grouped by relative date
// @Description Get the agenda view: events partitioned into earlier, today, tomorrow, this_week, next_week and later buckets
// @Tags events
// @Produce json
// @Security BearerAuth
// @Success 200 {object} events.GroupedEventsResponse "Grouped events"
// @Router /api/events/grouped [get]
func (h *EventsHandler) GroupedEvents(c *gin.Context) {
	var params dto.ListEventsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.service.GroupedEvents(c.Request.Context(), criteriaFromParams(params))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.trackDegraded()
	c.JSON(http.StatusOK, response)
}

// CalendarGrid godoc
// @Summary Company-by-day calendar grid
// @Description Get the grid view for a window (week, month, 2month, 3month) around an anchor date
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param mode query string false "View mode (default week)"
// @Param anchor query string false "Anchor date (YYYY-MM-DD, default today)"
// @Success 200 {object} events.CalendarGridResponse "Calendar grid"
// @Router /api/events/grid [get]
func (h *EventsHandler) CalendarGrid(c *gin.Context) {
	var params dto.CalendarGridParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	anchor := time.Now()
	if params.Anchor != nil {
		anchor = *params.Anchor
	}

	response, err := h.service.CalendarGrid(c.Request.Context(), calview.ViewMode(params.Mode), anchor)
	if err != nil {
		if errors.Is(err, calview.ErrInvalidViewMode) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.trackDegraded()
	c.JSON(http.StatusOK, response)
}

// SearchEvents godoc
// @Summary Search events
// @Description Free-text search; a query that parses as a date jumps the calendar to that day instead
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param q query string true "Search query"
// @Success 200 {object} events.SearchResponse "Search results"
// @Router /api/events/search [get]
func (h *EventsHandler) SearchEvents(c *gin.Context) {
	var params dto.SearchParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.service.SearchEvents(c.Request.Context(), params.Query, events.Criteria{})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetEvent godoc
// @Summary Get an event by ID
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID" format(uuid)
// @Success 200 {object} events.EventResponse "Event details"
// @Failure 404 {object} map[string]string "Event not found"
// @Router /api/events/{id} [get]
func (h *EventsHandler) GetEvent(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event ID"})
		return
	}

	response, err := h.service.GetEvent(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
		return
	}

	c.JSON(http.StatusOK, response)
}

// CreateEvent godoc
// @Summary Create a new event
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param event body events.CreateEventRequest true "Event creation information"
// @Success 201 {object} events.EventResponse "Event created"
// @Failure 400 {object} map[string]string "Invalid request"
// @Router /api/events [post]
func (h *EventsHandler) CreateEvent(c *gin.Context) {
	var req events.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := h.service.CreateEvent(c.Request.Context(), &req)
	if err != nil {
		c.JSON(statusForDomainError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, events.EventResponse{Event: *event, StatusColor: event.StatusColor()})
}

// UpdateEvent godoc
// @Summary Update an event
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID" format(uuid)
// @Param event body events.UpdateEventRequest true "Fields to update"
// @Success 200 {object} events.EventResponse "Event updated"
// @Router /api/events/{id} [put]
func (h *EventsHandler) UpdateEvent(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event ID"})
		return
	}

	var req events.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := h.service.UpdateEvent(c.Request.Context(), id, &req)
	if err != nil {
		c.JSON(statusForDomainError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, events.EventResponse{Event: *event, StatusColor: event.StatusColor()})
}

// DeleteEvent godoc
// @Summary Delete an event
// @Tags events
// @Security BearerAuth
// @Param id path string true "Event ID" format(uuid)
// @Success 204 "Event deleted"
// @Router /api/events/{id} [delete]
func (h *EventsHandler) DeleteEvent(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event ID"})
		return
	}

	if err := h.service.DeleteEvent(c.Request.Context(), id); err != nil {
		c.JSON(statusForDomainError(err), gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

// RespondRSVP godoc
// @Summary Set the RSVP response for an event
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID" format(uuid)
// @Param rsvp body dto.RSVPRequest true "RSVP status (accepted, declined, pending)"
// @Success 200 {object} events.EventResponse "Updated event"
// @Router /api/events/{id}/rsvp [put]
func (h *EventsHandler) RespondRSVP(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event ID"})
		return
	}

	var req dto.RSVPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := h.service.RespondRSVP(c.Request.Context(), id, events.RSVPStatus(req.Status))
	if err != nil {
		c.JSON(statusForDomainError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, events.EventResponse{
		Event:       *event,
		StatusColor: event.StatusColor(),
		Degraded:    h.service.Degraded(),
	})
}

// ExportICS godoc
// @Summary Export events as an iCalendar file
// @Tags events
// @Produce plain
// @Security BearerAuth
// @Success 200 {string} string "iCalendar payload"
// @Router /api/events/export [get]
func (h *EventsHandler) ExportICS(c *gin.Context) {
	var params dto.ListEventsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	payload, err := h.service.ExportICS(c.Request.Context(), criteriaFromParams(params))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="events.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", payload)
}

// ListCompanies godoc
// @Summary List companies with event counts
// @Tags events
// @Produce json
// @Security BearerAuth
// @Success 200 {array} events.Company "Companies"
// @Router /api/companies [get]
func (h *EventsHandler) ListCompanies(c *gin.Context) {
	companies, err := h.service.Companies(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"companies": companies, "degraded": h.service.Degraded()})
}

func statusForDomainError(err error) int {
	switch {
	case errors.Is(err, events.ErrEventNotFound), errors.Is(err, events.ErrCompanyNotFound):
		return http.StatusNotFound
	case errors.Is(err, events.ErrInvalidEventType),
		errors.Is(err, events.ErrInvalidLocationType),
		errors.Is(err, events.ErrInvalidTimeRange),
		errors.Is(err, events.ErrInvalidRSVPStatus),
		errors.Is(err, events.ErrInvalidHost):
		return http.StatusBadRequest
	case errors.Is(err, events.ErrPersistenceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
