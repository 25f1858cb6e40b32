package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/BenAji/agora-go/internal/api/dto"
	"github.com/BenAji/agora-go/internal/api/middleware"
	"github.com/BenAji/agora-go/internal/domain/events"
	"github.com/BenAji/agora-go/internal/domain/watchlist"
)

// WatchlistHandler handles HTTP requests for the user's company watchlist
type WatchlistHandler struct {
	service watchlist.Service
}

// NewWatchlistHandler creates a new watchlist handler instance
func NewWatchlistHandler(service watchlist.Service) *WatchlistHandler {
	return &WatchlistHandler{service: service}
}

// List returns the user's companies in display order.
func (h *WatchlistHandler) List(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	companies, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"companies": companies})
}

// Subscribe adds a company to the watchlist by ticker.
func (h *WatchlistHandler) Subscribe(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req dto.SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	company, err := h.service.Subscribe(c.Request.Context(), userID, req.Ticker)
	if err != nil {
		c.JSON(statusForWatchlistError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"company": company})
}

// Unsubscribe removes a company from the watchlist.
func (h *WatchlistHandler) Unsubscribe(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	companyID, err := uuid.Parse(c.Param("company_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid company ID"})
		return
	}

	if err := h.service.Unsubscribe(c.Request.Context(), userID, companyID); err != nil {
		c.JSON(statusForWatchlistError(err), gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

// Reorder replaces the watchlist row ordering.
func (h *WatchlistHandler) Reorder(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req dto.ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.Reorder(c.Request.Context(), userID, req.CompanyIDs); err != nil {
		c.JSON(statusForWatchlistError(err), gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

func statusForWatchlistError(err error) int {
	switch {
	case errors.Is(err, watchlist.ErrNotSubscribed), errors.Is(err, events.ErrCompanyNotFound):
		return http.StatusNotFound
	case errors.Is(err, watchlist.ErrAlreadySubscribed):
		return http.StatusConflict
	case errors.Is(err, watchlist.ErrUnknownCompany):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
