package push

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sheikhshariarnehal/nesttask-edge/internal/feed"
	"github.com/sheikhshariarnehal/nesttask-edge/pkg/enums"
	"github.com/sheikhshariarnehal/nesttask-edge/pkg/logger"
	"github.com/sheikhshariarnehal/nesttask-edge/pkg/outbox"
	"github.com/sheikhshariarnehal/nesttask-edge/pkg/outbox/idempotency"
	"github.com/sheikhshariarnehal/nesttask-edge/pkg/outbox/payloads"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "push-test", Output: io.Discard})
}

type fakeIdempotencyStore struct {
	seen map[string]bool
	err  error
}

func (f *fakeIdempotencyStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.seen == nil {
		f.seen = make(map[string]bool)
	}
	if f.seen[key] {
		return false, nil
	}
	f.seen[key] = true
	return true, nil
}

func (f *fakeIdempotencyStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.seen, key)
	}
	return nil
}

func (f *fakeIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "nesttask:idempotency:" + scope + ":" + id
}

type fakeSink struct {
	fanouts []sinkCall
}

type sinkCall struct {
	userID *uuid.UUID
	item   feed.Notification
}

func (f *fakeSink) Fanout(userID *uuid.UUID, item feed.Notification) {
	f.fanouts = append(f.fanouts, sinkCall{userID: userID, item: item})
}

func newTestConsumer(t *testing.T, store *fakeIdempotencyStore) (*Consumer, *Display, *fakeSink) {
	t.Helper()
	manager, err := idempotency.NewManager(store, time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	displays := NewDisplay()
	sink := &fakeSink{}
	consumer := &Consumer{
		displays:    displays,
		sink:        sink,
		idempotency: manager,
		logg:        testLogger(),
		now:         func() time.Time { return time.Unix(1000, 0) },
	}
	return consumer, displays, sink
}

func deliveryEnvelope(t *testing.T, evt payloads.PushDeliveryEvent) []byte {
	t.Helper()
	data, err := json.Marshal(evt)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	raw, err := json.Marshal(outbox.PayloadEnvelope{
		Version: 1,
		EventID: uuid.New().String(),
		Data:    data,
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return raw
}

func TestProcessDisplaysAndFansOut(t *testing.T) {
	consumer, displays, sink := newTestConsumer(t, &fakeIdempotencyStore{})
	userID := uuid.New()
	taskID := uuid.New().String()
	raw := deliveryEnvelope(t, payloads.PushDeliveryEvent{
		UserID: &userID,
		Title:  "New task assigned",
		Body:   "Lab report due Friday",
		Data:   payloads.PushData{URL: "/tasks", TaskID: taskID, Type: "task"},
	})

	result := consumer.Process(context.Background(), string(enums.EventPushDeliveryRequested), raw)
	if !result.ack || result.nack {
		t.Fatalf("expected ack, got %+v", result)
	}

	shown, ok := displays.Get(defaultTag)
	if !ok {
		t.Fatalf("expected notification under the default tag")
	}
	if shown.Data.URL != "/tasks" || !shown.RequireInteraction {
		t.Fatalf("unexpected displayed notification: %+v", shown)
	}

	if len(sink.fanouts) != 1 {
		t.Fatalf("expected one fanout, got %d", len(sink.fanouts))
	}
	call := sink.fanouts[0]
	if call.userID == nil || *call.userID != userID {
		t.Fatalf("fanout must target the event user")
	}
	if call.item.ID != taskID || call.item.Type != enums.NotificationTypeTask || call.item.Read {
		t.Fatalf("unexpected feed item: %+v", call.item)
	}
}

func TestProcessCoalescesByTag(t *testing.T) {
	consumer, displays, _ := newTestConsumer(t, &fakeIdempotencyStore{})
	for _, title := range []string{"first", "second"} {
		raw := deliveryEnvelope(t, payloads.PushDeliveryEvent{Title: title, Tag: "tasks"})
		if result := consumer.Process(context.Background(), string(enums.EventPushDeliveryRequested), raw); !result.ack {
			t.Fatalf("expected ack for %q", title)
		}
	}
	if displays.Len() != 1 {
		t.Fatalf("expected tag coalescing to keep one notification, got %d", displays.Len())
	}
	shown, _ := displays.Get("tasks")
	if shown.Title != "second" {
		t.Fatalf("expected the newer notification to win, got %q", shown.Title)
	}
}

func TestProcessAcksMalformedPayloadWithoutDisplaying(t *testing.T) {
	consumer, displays, sink := newTestConsumer(t, &fakeIdempotencyStore{})

	raw, err := json.Marshal(outbox.PayloadEnvelope{
		Version: 1,
		EventID: uuid.New().String(),
		Data:    json.RawMessage(`{"title": 42}`),
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	result := consumer.Process(context.Background(), string(enums.EventPushDeliveryRequested), raw)
	if !result.ack || result.nack {
		t.Fatalf("malformed payloads must be acked, got %+v", result)
	}
	if displays.Len() != 0 || len(sink.fanouts) != 0 {
		t.Fatalf("malformed payloads must not render or fan out")
	}
}

func TestProcessSkipsOtherEventTypes(t *testing.T) {
	consumer, displays, _ := newTestConsumer(t, &fakeIdempotencyStore{})
	result := consumer.Process(context.Background(), string(enums.EventTaskCreated), []byte(`{}`))
	if !result.ack || displays.Len() != 0 {
		t.Fatalf("non-push events must be acked and ignored")
	}
}

func TestProcessHonorsIdempotency(t *testing.T) {
	store := &fakeIdempotencyStore{}
	consumer, displays, sink := newTestConsumer(t, store)
	raw := deliveryEnvelope(t, payloads.PushDeliveryEvent{Title: "once"})

	for i := 0; i < 2; i++ {
		if result := consumer.Process(context.Background(), string(enums.EventPushDeliveryRequested), raw); !result.ack {
			t.Fatalf("expected ack on pass %d", i)
		}
	}
	if len(sink.fanouts) != 1 {
		t.Fatalf("duplicate events must fan out once, got %d", len(sink.fanouts))
	}
	if displays.Len() != 1 {
		t.Fatalf("duplicate events must display once")
	}
}

func TestProcessNacksOnIdempotencyFailure(t *testing.T) {
	store := &fakeIdempotencyStore{err: errors.New("redis down")}
	consumer, _, _ := newTestConsumer(t, store)
	raw := deliveryEnvelope(t, payloads.PushDeliveryEvent{Title: "retry me"})

	result := consumer.Process(context.Background(), string(enums.EventPushDeliveryRequested), raw)
	if !result.nack {
		t.Fatalf("idempotency failures must nack for redelivery, got %+v", result)
	}
}
