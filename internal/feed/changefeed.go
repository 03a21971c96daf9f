package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	pubsub "cloud.google.com/go/pubsub/v2"
	"go.uber.org/multierr"

	"github.com/sheikhshariarnehal/nesttask-edge/pkg/enums"
	"github.com/sheikhshariarnehal/nesttask-edge/pkg/logger"
	"github.com/sheikhshariarnehal/nesttask-edge/pkg/outbox"
	"github.com/sheikhshariarnehal/nesttask-edge/pkg/outbox/payloads"
)

// Handler receives one decoded row change.
type Handler func(ctx context.Context, change payloads.ChangeFeedEvent)

// ChangeFeed streams row changes until the context ends or the channel fails.
type ChangeFeed interface {
	Run(ctx context.Context, handler Handler, onSubscribed func()) error
}

type subscriber interface {
	Receive(ctx context.Context, f func(context.Context, *pubsub.Message)) error
}

// PubSubFeed fans task and announcement change events into a single handler.
type PubSubFeed struct {
	tasks         subscriber
	announcements subscriber
	logg          *logger.Logger
}

// NewPubSubFeed builds the change feed over both domain subscriptions.
func NewPubSubFeed(tasks, announcements *pubsub.Subscriber, logg *logger.Logger) (*PubSubFeed, error) {
	if tasks == nil {
		return nil, fmt.Errorf("tasks subscription required")
	}
	if announcements == nil {
		return nil, fmt.Errorf("announcements subscription required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &PubSubFeed{tasks: tasks, announcements: announcements, logg: logg}, nil
}

// Run receives from both subscriptions until ctx ends or either receiver
// fails. onSubscribed fires once both receivers are live.
func (f *PubSubFeed) Run(ctx context.Context, handler Handler, onSubscribed func()) error {
	if handler == nil {
		return fmt.Errorf("handler required")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	var mtx sync.Mutex
	var failure error

	receive := func(sub subscriber) {
		defer wg.Done()
		err := sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
			f.handleMessage(ctx, msg, handler)
		})
		if err != nil && ctx.Err() == nil {
			mtx.Lock()
			failure = multierr.Append(failure, err)
			mtx.Unlock()
			cancel()
		}
	}

	wg.Add(2)
	go receive(f.tasks)
	go receive(f.announcements)

	if onSubscribed != nil {
		onSubscribed()
	}

	wg.Wait()
	return failure
}

func (f *PubSubFeed) handleMessage(ctx context.Context, msg *pubsub.Message, handler Handler) {
	result := f.Process(ctx, msg.Attributes["event_type"], msg.Data, handler)
	if result.nack {
		msg.Nack()
		return
	}
	msg.Ack()
}

type processResult struct {
	ack  bool
	nack bool
}

// Process decodes one change event and hands it to the handler. Malformed
// messages are acked and dropped so they cannot wedge the stream.
func (f *PubSubFeed) Process(ctx context.Context, eventType string, data []byte, handler Handler) processResult {
	logCtx := f.logg.WithFields(ctx, map[string]any{
		"event_type": eventType,
	})

	if !enums.OutboxEventType(eventType).IsValid() {
		f.logg.Info(logCtx, "skipping unknown event")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		f.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	var change payloads.ChangeFeedEvent
	if err := json.Unmarshal(envelope.Data, &change); err != nil {
		f.logg.Error(logCtx, "failed to parse change payload", err)
		return processResult{ack: true}
	}
	if !change.Type.IsValid() || change.Table == "" {
		f.logg.Warn(logCtx, "dropping malformed change event")
		return processResult{ack: true}
	}

	handler(ctx, change)
	return processResult{ack: true}
}
