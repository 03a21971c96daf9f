package payloads

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/sheikhshariarnehal/nesttask-edge/pkg/enums"
)

// ChangeFeedEvent mirrors the postgres_changes frame broadcast to feed
// sessions. Record carries the full row for INSERT/UPDATE and may be a
// partial row (primary key only) for DELETE.
type ChangeFeedEvent struct {
	Table  string           `json:"table"`
	Type   enums.ChangeType `json:"type"`
	Record json.RawMessage  `json:"record"`
}

// PushData is the click-through payload attached to a notification.
type PushData struct {
	URL    string `json:"url,omitempty"`
	TaskID string `json:"taskId,omitempty"`
	Type   string `json:"type,omitempty"`
}

// PushAction is one button the sender wants on the rendered notification.
type PushAction struct {
	Action string `json:"action"`
	Title  string `json:"title"`
	Icon   string `json:"icon,omitempty"`
}

// PushDeliveryEvent asks the push pipeline to show a notification. A nil
// UserID broadcasts to every subscribed client.
type PushDeliveryEvent struct {
	UserID             *uuid.UUID   `json:"user_id,omitempty"`
	Title              string       `json:"title"`
	Body               string       `json:"body"`
	Tag                string       `json:"tag,omitempty"`
	RequireInteraction *bool        `json:"requireInteraction,omitempty"`
	Actions            []PushAction `json:"actions,omitempty"`
	Data               PushData     `json:"data"`
}
