// Package pushsubs manages browser push registrations: one endpoint per
// user, replaced on re-registration and removed on opt-out.
package pushsubs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sheikhshariarnehal/nesttask-edge/pkg/db/models"
)

// Repository encapsulates push subscription persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Upsert inserts the registration or replaces the user's existing one.
func (r *Repository) Upsert(ctx context.Context, subscription *models.PushSubscription) error {
	if subscription == nil || subscription.UserID == uuid.Nil {
		return gorm.ErrInvalidValue
	}
	if subscription.ID == uuid.Nil {
		subscription.ID = uuid.New()
	}
	now := time.Now().UTC()
	if subscription.CreatedAt.IsZero() {
		subscription.CreatedAt = now
	}
	subscription.UpdatedAt = now

	return r.db.WithContext(ctx).
		Exec(`INSERT INTO push_subscriptions (id, user_id, subscription, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (user_id) DO UPDATE SET subscription = excluded.subscription, updated_at = excluded.updated_at`,
			subscription.ID, subscription.UserID, subscription.Subscription, subscription.CreatedAt, subscription.UpdatedAt).
		Error
}

// FindByUser returns the user's registration, gorm.ErrRecordNotFound when
// there is none.
func (r *Repository) FindByUser(ctx context.Context, userID uuid.UUID) (*models.PushSubscription, error) {
	var subscription models.PushSubscription
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&subscription).Error
	if err != nil {
		return nil, err
	}
	return &subscription, nil
}

// DeleteByUser removes the user's registration and reports whether one
// existed.
func (r *Repository) DeleteByUser(ctx context.Context, userID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.PushSubscription{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// List returns every registration, oldest first. Broadcast sends walk this.
func (r *Repository) List(ctx context.Context) ([]models.PushSubscription, error) {
	var subscriptions []models.PushSubscription
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&subscriptions).Error
	return subscriptions, err
}

// DeleteUpdatedBefore prunes registrations that have not been refreshed
// since the cutoff.
func (r *Repository) DeleteUpdatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("updated_at < ?", cutoff).
		Delete(&models.PushSubscription{})
	return res.RowsAffected, res.Error
}
