package push

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/sheikhshariarnehal/nesttask-edge/internal/clients"
	apperrors "github.com/sheikhshariarnehal/nesttask-edge/pkg/errors"
	"github.com/sheikhshariarnehal/nesttask-edge/pkg/outbox/payloads"
)

type fakeDirectory struct {
	byURL      map[string]*clients.Client
	sent       []clients.Message
	broadcasts []clients.Message
	opened     []string
}

func (f *fakeDirectory) FindByURL(url string) (*clients.Client, bool) {
	client, ok := f.byURL[url]
	return client, ok
}

func (f *fakeDirectory) Send(id string, msg clients.Message) error {
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeDirectory) OpenWindow(userID uuid.UUID, url string) *clients.Client {
	f.opened = append(f.opened, url)
	return &clients.Client{ID: uuid.New().String(), UserID: userID, URL: url}
}

func (f *fakeDirectory) Broadcast(msg clients.Message) {
	f.broadcasts = append(f.broadcasts, msg)
}

func newTestRouter(t *testing.T, directory *fakeDirectory) (*Router, *Display) {
	t.Helper()
	displays := NewDisplay()
	router, err := NewRouter(displays, directory, testLogger())
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	return router, displays
}

func shownNotification(displays *Display, evt payloads.PushDeliveryEvent) Notification {
	n := Resolve(evt)
	displays.Show(n)
	return n
}

func TestClickFocusesExistingWindow(t *testing.T) {
	existing := &clients.Client{ID: "c1", URL: "/tasks"}
	directory := &fakeDirectory{byURL: map[string]*clients.Client{"/tasks": existing}}
	router, displays := newTestRouter(t, directory)
	shownNotification(displays, payloads.PushDeliveryEvent{
		Title: "task",
		Data:  payloads.PushData{URL: "/tasks", TaskID: "t1", Type: "task"},
	})

	if err := router.Click(context.Background(), defaultTag, ActionOpen); err != nil {
		t.Fatalf("Click: %v", err)
	}
	if displays.Len() != 0 {
		t.Fatalf("click must close the notification")
	}
	if len(directory.opened) != 0 {
		t.Fatalf("existing window must be focused, not reopened")
	}
	if len(directory.sent) != 1 || directory.sent[0].Type != clients.MessageFocus {
		t.Fatalf("expected a focus message, got %+v", directory.sent)
	}
	if len(directory.broadcasts) != 1 || directory.broadcasts[0].Type != clients.MessageNotificationClicked {
		t.Fatalf("expected a click broadcast, got %+v", directory.broadcasts)
	}
	var payload clients.ClickPayload
	if err := json.Unmarshal(directory.broadcasts[0].Payload, &payload); err != nil {
		t.Fatalf("decode click payload: %v", err)
	}
	if payload.TaskID != "t1" || payload.NotificationType != "task" {
		t.Fatalf("broadcast must carry the click context: %+v", payload)
	}
}

func TestClickOpensWindowWhenNoneMatches(t *testing.T) {
	directory := &fakeDirectory{}
	router, displays := newTestRouter(t, directory)
	shownNotification(displays, payloads.PushDeliveryEvent{
		Title: "task",
		Data:  payloads.PushData{URL: "/tasks", TaskID: "t1", Type: "task"},
	})

	if err := router.Click(context.Background(), defaultTag, ActionOpen); err != nil {
		t.Fatalf("Click: %v", err)
	}
	if len(directory.opened) != 1 || directory.opened[0] != "/tasks" {
		t.Fatalf("expected a window opened on /tasks, got %v", directory.opened)
	}
	if len(directory.broadcasts) != 1 {
		t.Fatalf("click broadcast must still go out after opening a window")
	}
}

func TestClickCloseActionOnlyDismisses(t *testing.T) {
	directory := &fakeDirectory{}
	router, displays := newTestRouter(t, directory)
	shownNotification(displays, payloads.PushDeliveryEvent{
		Title: "task",
		Data:  payloads.PushData{URL: "/tasks", TaskID: "t1", Type: "task"},
	})

	if err := router.Click(context.Background(), defaultTag, ActionClose); err != nil {
		t.Fatalf("Click: %v", err)
	}
	if displays.Len() != 0 {
		t.Fatalf("close action must dismiss the notification")
	}
	if len(directory.opened) != 0 || len(directory.sent) != 0 || len(directory.broadcasts) != 0 {
		t.Fatalf("close action must not navigate or broadcast")
	}
}

func TestClickSkipsBroadcastWithoutClickContext(t *testing.T) {
	directory := &fakeDirectory{}
	router, displays := newTestRouter(t, directory)
	shownNotification(displays, payloads.PushDeliveryEvent{Title: "plain"})

	if err := router.Click(context.Background(), defaultTag, ActionOpen); err != nil {
		t.Fatalf("Click: %v", err)
	}
	if len(directory.opened) != 1 || directory.opened[0] != defaultURL {
		t.Fatalf("expected navigation to the default url, got %v", directory.opened)
	}
	if len(directory.broadcasts) != 0 {
		t.Fatalf("broadcast requires both a task id and a type")
	}
}

func TestClickUnknownTag(t *testing.T) {
	directory := &fakeDirectory{}
	router, _ := newTestRouter(t, directory)

	err := router.Click(context.Background(), "missing", ActionOpen)
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) || appErr.Code() != apperrors.CodeNotFound {
		t.Fatalf("expected %s, got %v", apperrors.CodeNotFound, err)
	}
}
