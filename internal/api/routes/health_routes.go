package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BenAji/agora-go/internal/infrastructure/cache"
	"github.com/BenAji/agora-go/internal/infrastructure/persistence/postgres/connection"
)

// HealthResponse represents the health check response structure
type HealthResponse struct {
	Status    string                 `json:"status" example:"healthy"`
	Timestamp time.Time              `json:"timestamp" example:"2026-01-01T00:00:00Z"`
	Checks    map[string]string      `json:"checks,omitempty"`
	Component string                 `json:"component,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Metrics   map[string]interface{} `json:"metrics,omitempty"`
}

// SetupHealthRoutes registers health check endpoints
func SetupHealthRoutes(router *gin.Engine, db *connection.Database, redis *cache.RedisClient) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC(),
		})
	})

	// Readiness reports the state of each dependency. The service itself
	// stays ready when the database is down: reads degrade to fixtures.
	router.GET("/health/ready", func(c *gin.Context) {
		checks := map[string]string{}

		if db != nil {
			if pool, err := db.DB.DB(); err == nil && pool.PingContext(c.Request.Context()) == nil {
				checks["database"] = "up"
			} else {
				checks["database"] = "down"
			}
		} else {
			checks["database"] = "disabled"
		}

		if redis != nil {
			if redis.HealthCheck(c.Request.Context()) == nil {
				checks["redis"] = "up"
			} else {
				checks["redis"] = "down"
			}
		} else {
			checks["redis"] = "disabled"
		}

		c.JSON(http.StatusOK, HealthResponse{
			Status:    "ready",
			Timestamp: time.Now().UTC(),
			Checks:    checks,
		})
	})

	router.GET("/health/cache", func(c *gin.Context) {
		if redis == nil {
			c.JSON(http.StatusOK, HealthResponse{
				Status:    "disabled",
				Component: "cache",
				Timestamp: time.Now().UTC(),
			})
			return
		}
		if err := redis.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, HealthResponse{
				Status:    "unhealthy",
				Component: "cache",
				Timestamp: time.Now().UTC(),
				Error:     err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, HealthResponse{
			Status:    "healthy",
			Component: "cache",
			Timestamp: time.Now().UTC(),
			Metrics:   redis.GetMetrics(),
		})
	})
}
