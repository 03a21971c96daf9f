// Package feed maintains the in-memory notification list each client
// session sees: unread items first, newest first, with an incrementally
// maintained unread counter.
package feed

import (
	"time"

	"github.com/sheikhshariarnehal/nesttask-edge/pkg/enums"
)

// Notification is one feed item.
type Notification struct {
	ID        string
	Title     string
	Body      string
	URL       string
	TaskID    string
	Type      enums.NotificationType
	Read      bool
	Timestamp time.Time
}

// Less orders notifications for display: unread before read, then newer
// before older. Equal pairs keep their existing order, which is what makes
// the sort stable for same-timestamp items.
func Less(a, b Notification) bool {
	if a.Read != b.Read {
		return !a.Read
	}
	return a.Timestamp.After(b.Timestamp)
}
