package dto

import "github.com/google/uuid"

// SubscribeRequest adds a company to the watchlist by ticker.
type SubscribeRequest struct {
	Ticker string `json:"ticker" binding:"required"`
}

// ReorderRequest replaces the watchlist row ordering.
type ReorderRequest struct {
	CompanyIDs []uuid.UUID `json:"company_ids" binding:"required,min=1"`
}
