// Package watchlist manages which companies a user tracks and the order
// their rows appear in on the calendar grid.
package watchlist

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Subscription links a user to a tracked company.
type Subscription struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_sub_user_company"`
	CompanyID uuid.UUID `json:"company_id" gorm:"type:uuid;not null;uniqueIndex:idx_sub_user_company"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;default:current_timestamp"`
}

func (Subscription) TableName() string { return "watchlist_subscriptions" }

func (s *Subscription) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Common errors
var (
	ErrAlreadySubscribed = NewError("company already on watchlist")
	ErrNotSubscribed     = NewError("company not on watchlist")
	ErrUnknownCompany    = NewError("order references a company not on the watchlist")
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
