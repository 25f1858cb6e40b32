package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/BenAji/agora-go/internal/api/handlers"
	"github.com/BenAji/agora-go/internal/api/middleware"
)

// EventRoutes handles the setup of event dashboard routes
type EventRoutes struct {
	handler   *handlers.EventsHandler
	jwtSecret string
}

// NewEventRoutes creates a new EventRoutes instance
func NewEventRoutes(handler *handlers.EventsHandler, jwtSecret string) *EventRoutes {
	return &EventRoutes{
		handler:   handler,
		jwtSecret: jwtSecret,
	}
}

// RegisterRoutes registers all event-related routes
func (er *EventRoutes) RegisterRoutes(router *gin.Engine) {
	metrics := middleware.NewMetricsMiddleware()

	api := router.Group("/api")
	api.Use(middleware.NewAuthMiddleware(er.jwtSecret))
	api.Use(metrics.CollectMetrics())

	events := api.Group("/events")
	{
		// Fixed segments FIRST so they are not swallowed by /:id.
		events.GET("/grouped", er.handler.GroupedEvents)
		events.GET("/grid", er.handler.CalendarGrid)
		events.GET("/search", er.handler.SearchEvents)
		events.GET("/export", er.handler.ExportICS)

		events.GET("", er.handler.ListEvents)
		events.POST("", er.handler.CreateEvent)
		events.GET("/:id", er.handler.GetEvent)
		events.PUT("/:id", er.handler.UpdateEvent)
		events.DELETE("/:id", er.handler.DeleteEvent)
		events.PUT("/:id/rsvp", er.handler.RespondRSVP)
	}

	api.GET("/companies", er.handler.ListCompanies)
}
