package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sheikhshariarnehal/nesttask-edge/pkg/db"
	"github.com/sheikhshariarnehal/nesttask-edge/pkg/db/models"
	"github.com/sheikhshariarnehal/nesttask-edge/pkg/enums"
)

const loadLimit = 100

// Repository loads the rows that seed a session's notification list.
type Repository struct {
	db *gorm.DB
}

// NewRepository wraps the shared DB client.
func NewRepository(client *db.Client) (*Repository, error) {
	if client == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &Repository{db: client.DB()}, nil
}

// LoadNotifications returns the user's visible tasks and all announcements
// as feed items, newest first. Read state is not persisted server-side, so
// everything loads unread.
func (r *Repository) LoadNotifications(ctx context.Context, userID uuid.UUID) ([]Notification, error) {
	var tasks []models.Task
	err := r.db.WithContext(ctx).
		Where("user_id = ? OR is_admin_task = ?", userID, true).
		Order("created_at DESC").
		Limit(loadLimit).
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}

	var announcements []models.Announcement
	err = r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(loadLimit).
		Find(&announcements).Error
	if err != nil {
		return nil, fmt.Errorf("load announcements: %w", err)
	}

	items := make([]Notification, 0, len(tasks)+len(announcements))
	for _, task := range tasks {
		items = append(items, TaskNotification(task))
	}
	for _, announcement := range announcements {
		items = append(items, AnnouncementNotification(announcement))
	}
	return items, nil
}

// TaskNotification maps a task row to a feed item. The title names the task
// kind, not the task itself; the task name only appears in the message.
func TaskNotification(task models.Task) Notification {
	kind := enums.NotificationTypeTask
	title := "New Task"
	if task.IsAdminTask {
		kind = enums.NotificationTypeAdminTask
		title = "New Admin Task"
	}
	return Notification{
		ID:        task.ID.String(),
		Title:     title,
		Body:      fmt.Sprintf("Task %q has been created", task.Name),
		URL:       "/",
		TaskID:    task.ID.String(),
		Type:      kind,
		Timestamp: orNow(task.CreatedAt),
	}
}

// AnnouncementNotification maps an announcement row to a feed item.
func AnnouncementNotification(announcement models.Announcement) Notification {
	return Notification{
		ID:        announcement.ID.String(),
		Title:     announcement.Title,
		Body:      announcement.Content,
		URL:       "/",
		Type:      enums.NotificationTypeAnnouncement,
		Timestamp: orNow(announcement.CreatedAt),
	}
}

func orNow(ts time.Time) time.Time {
	if ts.IsZero() {
		return time.Now().UTC()
	}
	return ts
}
