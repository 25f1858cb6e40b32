package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/BenAji/agora-go/internal/api/handlers"
	"github.com/BenAji/agora-go/internal/api/middleware"
)

// WatchlistRoutes handles the setup of watchlist routes
type WatchlistRoutes struct {
	handler   *handlers.WatchlistHandler
	jwtSecret string
}

// NewWatchlistRoutes creates a new WatchlistRoutes instance
func NewWatchlistRoutes(handler *handlers.WatchlistHandler, jwtSecret string) *WatchlistRoutes {
	return &WatchlistRoutes{
		handler:   handler,
		jwtSecret: jwtSecret,
	}
}

// RegisterRoutes registers all watchlist-related routes
func (wr *WatchlistRoutes) RegisterRoutes(router *gin.Engine) {
	metrics := middleware.NewMetricsMiddleware()

	group := router.Group("/api/watchlist")
	group.Use(middleware.NewAuthMiddleware(wr.jwtSecret))
	group.Use(metrics.CollectMetrics())

	group.GET("", wr.handler.List)
	group.POST("", wr.handler.Subscribe)
	group.DELETE("/:company_id", wr.handler.Unsubscribe)
	group.PUT("/order", wr.handler.Reorder)
}
