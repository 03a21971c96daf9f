package enums

import "fmt"

// NotificationType classifies items in the notification feed and the
// notification_type field carried on push payloads.
type NotificationType string

const (
	NotificationTypeTask         NotificationType = "task"
	NotificationTypeAdminTask    NotificationType = "admin-task"
	NotificationTypeAnnouncement NotificationType = "announcement"
	NotificationTypeReminder     NotificationType = "reminder"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeTask,
	NotificationTypeAdminTask,
	NotificationTypeAnnouncement,
	NotificationTypeReminder,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
