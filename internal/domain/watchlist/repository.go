package watchlist

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository handles watchlist subscription persistence.
type Repository interface {
	CreateSubscription(ctx context.Context, sub *Subscription) error
	DeleteSubscription(ctx context.Context, userID, companyID uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Subscription, error)
	Exists(ctx context.Context, userID, companyID uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new watchlist repository backed by gorm.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateSubscription(ctx context.Context, sub *Subscription) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

func (r *repository) DeleteSubscription(ctx context.Context, userID, companyID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND company_id = ?", userID, companyID).
		Delete(&Subscription{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotSubscribed
	}
	return nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Subscription, error) {
	var subs []*Subscription
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&subs).Error
	return subs, err
}

func (r *repository) Exists(ctx context.Context, userID, companyID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Subscription{}).
		Where("user_id = ? AND company_id = ?", userID, companyID).
		Count(&count).Error
	return count > 0, err
}
