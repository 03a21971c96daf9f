package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/sheikhshariarnehal/nesttask-edge/pkg/enums"
)

// Task mirrors the tasks table the change feed watches.
type Task struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string             `gorm:"column:name;type:text;not null" json:"name"`
	Category    enums.TaskCategory `gorm:"column:category;type:task_category;not null" json:"category"`
	DueDate     time.Time          `gorm:"column:due_date;type:timestamptz;not null" json:"due_date"`
	Description string             `gorm:"column:description;type:text" json:"description"`
	Status      enums.TaskStatus   `gorm:"column:status;type:task_status;not null;default:'my-tasks'" json:"status"`
	UserID      uuid.UUID          `gorm:"column:user_id;type:uuid;not null" json:"user_id"`
	IsAdminTask bool               `gorm:"column:is_admin_task;not null;default:false" json:"is_admin_task"`
	CreatedAt   time.Time          `gorm:"column:created_at;type:timestamptz;default:now()" json:"created_at"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;type:timestamptz;default:now()" json:"updated_at"`
}

// TableName keeps GORM on the canonical table.
func (Task) TableName() string { return "tasks" }
