package push

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/sheikhshariarnehal/nesttask-edge/internal/feed"
	"github.com/sheikhshariarnehal/nesttask-edge/pkg/enums"
	"github.com/sheikhshariarnehal/nesttask-edge/pkg/logger"
	"github.com/sheikhshariarnehal/nesttask-edge/pkg/outbox"
	"github.com/sheikhshariarnehal/nesttask-edge/pkg/outbox/idempotency"
	"github.com/sheikhshariarnehal/nesttask-edge/pkg/outbox/payloads"
)

const pushConsumer = "push-worker"

type feedSink interface {
	Fanout(userID *uuid.UUID, item feed.Notification)
}

// Consumer watches delivery events and turns them into displayed
// notifications plus feed entries.
type Consumer struct {
	displays     *Display
	sink         feedSink
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	logg         *logger.Logger
	now          func() time.Time
}

// NewConsumer builds a push delivery consumer.
func NewConsumer(displays *Display, sink feedSink, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if displays == nil {
		return nil, fmt.Errorf("display registry required")
	}
	if sink == nil {
		return nil, fmt.Errorf("feed sink required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("push subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		displays:     displays,
		sink:         sink,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
		now:          time.Now,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.Process(ctx, msg.Attributes["event_type"], msg.Data)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

// Process handles one delivery event. Malformed payloads are logged and
// acked with nothing shown, so a bad producer cannot wedge the queue.
func (c *Consumer) Process(ctx context.Context, eventType string, data []byte) processResult {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"event_type": eventType,
	})

	if eventType != string(enums.EventPushDeliveryRequested) {
		c.logg.Info(logCtx, "skipping non-push event")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}
	logCtx = c.logg.WithField(logCtx, "event_id", envelope.EventID)

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, pushConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	var evt payloads.PushDeliveryEvent
	if err := json.Unmarshal(envelope.Data, &evt); err != nil {
		c.logg.Error(logCtx, "failed to parse push payload", err)
		return processResult{ack: true}
	}
	if evt.Title == "" {
		c.logg.Warn(logCtx, "dropping push event without title")
		return processResult{ack: true}
	}

	notification := Resolve(evt)
	replaced := c.displays.Show(notification)
	c.sink.Fanout(evt.UserID, FeedItem(notification, c.now().UTC()))

	c.logg.Info(c.logg.WithFields(logCtx, map[string]any{
		"tag":      notification.Tag,
		"replaced": replaced,
	}), "notification displayed")
	return processResult{ack: true}
}
