package feed

import (
	"context"
	"fmt"
	"sync"

	"github.com/sheikhshariarnehal/nesttask-edge/pkg/backoff"
	apperrors "github.com/sheikhshariarnehal/nesttask-edge/pkg/errors"
	"github.com/sheikhshariarnehal/nesttask-edge/pkg/logger"
	"github.com/sheikhshariarnehal/nesttask-edge/pkg/outbox/payloads"
)

const viewBuffer = 256

// Bus fans one change stream out to every attached reconciler, so the
// process runs a single receive loop no matter how many sessions exist.
// The bus reconnects the source itself; attached views observe drops and
// terminal failure through their own ChangeFeed contract.
type Bus struct {
	logg   *logger.Logger
	source ChangeFeed
	policy backoff.Policy
	clock  backoff.Clock

	mtx      sync.Mutex
	live     bool
	terminal error
	liveCh   chan struct{}
	epoch    *epoch
	views    map[int]chan payloads.ChangeFeedEvent
	nextView int
}

// epoch is one live stretch of the stream. The drop error belongs to the
// epoch a view captured, so a reconnect can never race it away.
type epoch struct {
	done chan struct{}
	err  error
}

// end records why the epoch closed. The write precedes the close, so any
// reader woken by done sees it.
func (e *epoch) end(err error) {
	if err == nil {
		err = fmt.Errorf("change stream closed")
	}
	e.err = err
	close(e.done)
}

func (e *epoch) failure() error {
	if e.err != nil {
		return e.err
	}
	return fmt.Errorf("change stream dropped")
}

// BusParams collects the bus dependencies.
type BusParams struct {
	Logger *logger.Logger
	Source ChangeFeed
	Policy backoff.Policy
	Clock  backoff.Clock
}

// NewBus validates params and builds a bus.
func NewBus(params BusParams) (*Bus, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Source == nil {
		return nil, fmt.Errorf("source change feed required")
	}
	clock := params.Clock
	if clock == nil {
		clock = backoff.RealClock{}
	}
	policy := params.Policy
	if policy.MaxAttempts == 0 {
		policy = backoff.DefaultPolicy()
	}
	return &Bus{
		logg:   params.Logger,
		source: params.Source,
		policy: policy,
		clock:  clock,
		liveCh: make(chan struct{}),
		views:  make(map[int]chan payloads.ChangeFeedEvent),
	}, nil
}

// Run drives the source until ctx ends or reconnects are exhausted. A
// successful resubscribe resets the retry budget.
func (b *Bus) Run(ctx context.Context) error {
	attempt := 0
	for {
		if err := ctx.Err(); err != nil {
			b.fail(err)
			return err
		}
		err := b.source.Run(ctx, b.dispatch, func() {
			attempt = 0
			b.markLive()
		})
		if ctxErr := ctx.Err(); ctxErr != nil {
			b.fail(ctxErr)
			return ctxErr
		}
		b.markDown(err)
		b.logg.Error(ctx, "change stream dropped", err)

		if !b.policy.Allowed(attempt + 1) {
			terminal := apperrors.Wrap(apperrors.CodeUnavailable, err, "change stream retries exhausted")
			b.fail(terminal)
			return terminal
		}
		if err := b.clock.Sleep(ctx, b.policy.Delay(attempt)); err != nil {
			b.fail(err)
			return err
		}
		attempt++
	}
}

// Attach returns a per-session view of the stream.
func (b *Bus) Attach() ChangeFeed {
	return &busView{bus: b}
}

func (b *Bus) dispatch(ctx context.Context, change payloads.ChangeFeedEvent) {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	for id, ch := range b.views {
		select {
		case ch <- change:
		default:
			b.logg.Warn(b.logg.WithField(ctx, "view_id", id), "dropping change for slow view")
		}
	}
}

func (b *Bus) markLive() {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	if b.live || b.terminal != nil {
		return
	}
	b.live = true
	b.epoch = &epoch{done: make(chan struct{})}
	close(b.liveCh)
}

func (b *Bus) markDown(err error) {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	if !b.live {
		return
	}
	b.live = false
	b.epoch.end(err)
	b.epoch = nil
	b.liveCh = make(chan struct{})
}

func (b *Bus) fail(err error) {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	if b.terminal != nil {
		return
	}
	b.terminal = err
	if b.live {
		b.live = false
		b.epoch.end(err)
		b.epoch = nil
	} else {
		close(b.liveCh)
	}
}

func (b *Bus) detach(id int) {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	delete(b.views, id)
}

type busView struct {
	bus *Bus
}

// Run waits for the stream to come up, signals onSubscribed, then relays
// changes until the stream drops or ctx ends.
func (v *busView) Run(ctx context.Context, handler Handler, onSubscribed func()) error {
	if handler == nil {
		return fmt.Errorf("handler required")
	}
	b := v.bus
	for {
		b.mtx.Lock()
		if b.terminal != nil {
			err := b.terminal
			b.mtx.Unlock()
			return err
		}
		if !b.live {
			wait := b.liveCh
			b.mtx.Unlock()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-wait:
			}
			continue
		}

		id := b.nextView
		b.nextView += 1
		ch := make(chan payloads.ChangeFeedEvent, viewBuffer)
		b.views[id] = ch
		epoch := b.epoch
		b.mtx.Unlock()

		if onSubscribed != nil {
			onSubscribed()
		}
		err := relay(ctx, ch, epoch.done, handler)
		b.detach(id)
		if err != nil {
			return err
		}
		return epoch.failure()
	}
}

func relay(ctx context.Context, ch <-chan payloads.ChangeFeedEvent, epoch <-chan struct{}, handler Handler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-epoch:
			return nil
		case change := <-ch:
			handler(ctx, change)
		}
	}
}
