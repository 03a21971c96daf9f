package push

import (
	"testing"
	"time"

	"github.com/sheikhshariarnehal/nesttask-edge/pkg/enums"
	"github.com/sheikhshariarnehal/nesttask-edge/pkg/outbox/payloads"
)

func TestResolveAppliesDefaults(t *testing.T) {
	n := Resolve(payloads.PushDeliveryEvent{Title: "bare"})

	if n.Tag != defaultTag {
		t.Fatalf("expected default tag, got %q", n.Tag)
	}
	if n.Data.URL != defaultURL {
		t.Fatalf("expected default url, got %q", n.Data.URL)
	}
	if n.Icon != defaultIcon || n.Badge != defaultBadge {
		t.Fatalf("expected stock icon and badge, got %q / %q", n.Icon, n.Badge)
	}
	if !n.RequireInteraction {
		t.Fatalf("requireInteraction must default to true")
	}
	want := []int{100, 50, 100}
	if len(n.Vibrate) != len(want) {
		t.Fatalf("unexpected vibration pattern: %v", n.Vibrate)
	}
	for i, v := range want {
		if n.Vibrate[i] != v {
			t.Fatalf("unexpected vibration pattern: %v", n.Vibrate)
		}
	}
	if len(n.Actions) != 1 || n.Actions[0].Action != ActionOpen {
		t.Fatalf("expected a single open action, got %+v", n.Actions)
	}
	if !n.Renotify {
		t.Fatalf("renotify must always be on")
	}
}

func TestResolveKeepsSenderActions(t *testing.T) {
	n := Resolve(payloads.PushDeliveryEvent{
		Title: "task",
		Actions: []payloads.PushAction{
			{Action: "view", Title: "View Task", Icon: "/icons/view.png"},
			{Action: ActionClose, Title: "Dismiss"},
		},
	})

	if len(n.Actions) != 2 {
		t.Fatalf("sender actions must replace the default, got %+v", n.Actions)
	}
	if n.Actions[0].Action != "view" || n.Actions[0].Title != "View Task" || n.Actions[0].Icon != "/icons/view.png" {
		t.Fatalf("unexpected first action: %+v", n.Actions[0])
	}
	if n.Actions[1].Action != ActionClose || n.Actions[1].Title != "Dismiss" {
		t.Fatalf("unexpected second action: %+v", n.Actions[1])
	}
}

func TestResolveKeepsExplicitValues(t *testing.T) {
	off := false
	n := Resolve(payloads.PushDeliveryEvent{
		Title:              "task updated",
		Tag:                "tasks",
		RequireInteraction: &off,
		Data:               payloads.PushData{URL: "/tasks/42", TaskID: "42", Type: "admin-task"},
	})

	if n.Tag != "tasks" || n.Data.URL != "/tasks/42" {
		t.Fatalf("explicit values must survive: %+v", n)
	}
	if n.RequireInteraction {
		t.Fatalf("explicit requireInteraction=false must survive: %+v", n)
	}
	if !n.Renotify {
		t.Fatalf("renotify must stay on regardless of the event")
	}
}

func TestFeedItemMapping(t *testing.T) {
	now := time.Unix(500, 0)
	n := Resolve(payloads.PushDeliveryEvent{
		Title: "due soon",
		Body:  "quiz tomorrow",
		Data:  payloads.PushData{URL: "/tasks", TaskID: "t9", Type: "task"},
	})

	item := FeedItem(n, now)
	if item.ID != "t9" || item.TaskID != "t9" {
		t.Fatalf("feed item must reuse the task id: %+v", item)
	}
	if item.Type != enums.NotificationTypeTask || item.Read || !item.Timestamp.Equal(now) {
		t.Fatalf("unexpected feed item: %+v", item)
	}
}

func TestFeedItemUnknownTypeFallsBack(t *testing.T) {
	n := Resolve(payloads.PushDeliveryEvent{Title: "odd", Data: payloads.PushData{Type: "bogus"}})
	item := FeedItem(n, time.Unix(1, 0))
	if item.Type != enums.NotificationTypeReminder {
		t.Fatalf("unknown types must fall back to reminder, got %q", item.Type)
	}
	if item.ID == "" {
		t.Fatalf("feed items without a task id still need an id")
	}
}
