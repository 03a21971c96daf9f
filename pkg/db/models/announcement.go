package models

import (
	"time"

	"github.com/google/uuid"
)

// Announcement mirrors the announcements table the change feed watches.
type Announcement struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title     string    `gorm:"column:title;type:text;not null" json:"title"`
	Content   string    `gorm:"column:content;type:text;not null" json:"content"`
	CreatedBy uuid.UUID `gorm:"column:created_by;type:uuid;not null" json:"created_by"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz;default:now()" json:"created_at"`
}

// TableName keeps GORM on the canonical table.
func (Announcement) TableName() string { return "announcements" }
