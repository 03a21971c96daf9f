// Package push receives push delivery events, renders them as OS-level
// notifications, and routes clicks back into the client registry.
package push

import (
	"time"

	"github.com/google/uuid"

	"github.com/sheikhshariarnehal/nesttask-edge/internal/feed"
	"github.com/sheikhshariarnehal/nesttask-edge/pkg/enums"
	"github.com/sheikhshariarnehal/nesttask-edge/pkg/outbox/payloads"
)

const (
	defaultIcon  = "/icons/icon-192x192.png"
	defaultBadge = "/icons/badge.png"
	defaultTag   = "default"
	defaultURL   = "/"

	// ActionOpen and ActionClose are the click actions a notification
	// button can carry.
	ActionOpen  = "open"
	ActionClose = "close"
)

func defaultVibration() []int { return []int{100, 50, 100} }

// Action is one button on a displayed notification.
type Action struct {
	Action string `json:"action"`
	Title  string `json:"title"`
	Icon   string `json:"icon,omitempty"`
}

// Data is the navigation context attached to a notification.
type Data struct {
	URL    string `json:"url"`
	TaskID string `json:"taskId,omitempty"`
	Type   string `json:"type,omitempty"`
}

// Notification is a fully resolved notification ready to display.
type Notification struct {
	Title              string     `json:"title"`
	Body               string     `json:"body"`
	Icon               string     `json:"icon"`
	Badge              string     `json:"badge"`
	Vibrate            []int      `json:"vibrate"`
	Tag                string     `json:"tag"`
	Renotify           bool       `json:"renotify"`
	RequireInteraction bool       `json:"requireInteraction"`
	Actions            []Action   `json:"actions"`
	Data               Data       `json:"data"`
	UserID             *uuid.UUID `json:"-"`
	ShownAt            time.Time  `json:"-"`
}

// Resolve fills a delivery event out with display defaults. Missing fields
// get the stock icon and badge, a single Open action, the "default" tag,
// and "/" as the click target. Renotify is always on so a re-used tag
// still alerts the user.
func Resolve(evt payloads.PushDeliveryEvent) Notification {
	tag := evt.Tag
	if tag == "" {
		tag = defaultTag
	}
	url := evt.Data.URL
	if url == "" {
		url = defaultURL
	}
	requireInteraction := true
	if evt.RequireInteraction != nil {
		requireInteraction = *evt.RequireInteraction
	}
	actions := []Action{{Action: ActionOpen, Title: "Open", Icon: defaultIcon}}
	if len(evt.Actions) > 0 {
		actions = make([]Action, len(evt.Actions))
		for i, a := range evt.Actions {
			actions[i] = Action{Action: a.Action, Title: a.Title, Icon: a.Icon}
		}
	}
	return Notification{
		Title:              evt.Title,
		Body:               evt.Body,
		Icon:               defaultIcon,
		Badge:              defaultBadge,
		Vibrate:            defaultVibration(),
		Tag:                tag,
		Renotify:           true,
		RequireInteraction: requireInteraction,
		Actions:            actions,
		Data: Data{
			URL:    url,
			TaskID: evt.Data.TaskID,
			Type:   evt.Data.Type,
		},
		UserID: evt.UserID,
	}
}

// FeedItem maps a displayed notification to an unread feed entry.
func FeedItem(n Notification, now time.Time) feed.Notification {
	id := n.Data.TaskID
	if id == "" {
		id = uuid.New().String()
	}
	kind := enums.NotificationType(n.Data.Type)
	if !kind.IsValid() {
		kind = enums.NotificationTypeReminder
	}
	return feed.Notification{
		ID:        id,
		Title:     n.Title,
		Body:      n.Body,
		URL:       n.Data.URL,
		TaskID:    n.Data.TaskID,
		Type:      kind,
		Timestamp: now,
	}
}
