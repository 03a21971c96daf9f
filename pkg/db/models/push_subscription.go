package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// PushSubscription stores one browser push endpoint per user. Re-registering
// replaces the previous row via upsert on user_id.
type PushSubscription struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID       uuid.UUID       `gorm:"column:user_id;type:uuid;not null;uniqueIndex:push_subscriptions_user_id_key" json:"user_id"`
	Subscription json.RawMessage `gorm:"column:subscription;type:jsonb;not null" json:"subscription"`
	CreatedAt    time.Time       `gorm:"column:created_at;type:timestamptz;default:now()" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;type:timestamptz;default:now()" json:"updated_at"`
}

// TableName keeps GORM on the canonical table.
func (PushSubscription) TableName() string { return "push_subscriptions" }
