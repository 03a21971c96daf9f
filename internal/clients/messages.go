package clients

import "encoding/json"

// Message types delivered to connected clients.
const (
	MessageNotificationClicked = "NOTIFICATION_CLICKED"
	MessageFocus               = "FOCUS"
	MessageOpenWindow          = "OPEN_WINDOW"
	MessageFeedUpdated         = "FEED_UPDATED"
	MessageControllerChange    = "CONTROLLER_CHANGE"
)

// Message is the envelope posted to clients over their transport.
type Message struct {
	Type    string          `json:"type"`
	URL     string          `json:"url,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ClickPayload is the body of a NOTIFICATION_CLICKED broadcast.
type ClickPayload struct {
	TaskID           string `json:"taskId"`
	NotificationType string `json:"notificationType"`
}

// NotificationClicked wraps the click identifiers under the payload key,
// the shape window clients parse.
func NotificationClicked(taskID, notificationType string) Message {
	payload, _ := json.Marshal(ClickPayload{TaskID: taskID, NotificationType: notificationType})
	return Message{Type: MessageNotificationClicked, Payload: payload}
}
