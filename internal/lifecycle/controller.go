// Package lifecycle drives the install/activate sequence for a cache
// generation: precache the app shell, then retire every older generation and
// take over serving.
package lifecycle

import (
	"context"
	"fmt"
	"sync"

	"github.com/sheikhshariarnehal/nesttask-edge/internal/cachestore"
	"github.com/sheikhshariarnehal/nesttask-edge/pkg/logger"
)

// State is the controller's position in the install/activate sequence.
type State string

const (
	StateNew        State = "new"
	StateInstalling State = "installing"
	StateInstalled  State = "installed"
	StateActivating State = "activating"
	StateActive     State = "active"
	StateFailed     State = "failed"
)

// AssetFetcher loads one shell asset from the upstream origin.
type AssetFetcher interface {
	FetchAsset(ctx context.Context, path string) (cachestore.Entry, error)
}

// Claimer lets the controller take over clients once active. The client
// registry implements it.
type Claimer interface {
	Claim(ctx context.Context) error
}

// ControllerParams configure the lifecycle controller.
type ControllerParams struct {
	Logger     *logger.Logger
	Store      cachestore.Store
	Fetcher    AssetFetcher
	Claimer    Claimer
	Generation string
	Shell      []string
}

// Controller owns the lifecycle state machine. Transitions are strict:
// New -> Installing -> Installed -> Activating -> Active, with any step able
// to land in Failed.
type Controller struct {
	logg       *logger.Logger
	store      cachestore.Store
	fetcher    AssetFetcher
	claimer    Claimer
	generation string
	shell      []string

	mtx   sync.Mutex
	state State
}

// NewController validates dependencies and starts in StateNew.
func NewController(params ControllerParams) (*Controller, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("cache store required")
	}
	if params.Fetcher == nil {
		return nil, fmt.Errorf("asset fetcher required")
	}
	if params.Generation == "" {
		return nil, fmt.Errorf("cache generation required")
	}
	if len(params.Shell) == 0 {
		return nil, fmt.Errorf("shell manifest required")
	}
	return &Controller{
		logg:       params.Logger,
		store:      params.Store,
		fetcher:    params.Fetcher,
		claimer:    params.Claimer,
		generation: params.Generation,
		shell:      params.Shell,
		state:      StateNew,
	}, nil
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.state
}

// Generation returns the cache generation this controller installs into.
func (c *Controller) Generation() string {
	return c.generation
}

// Install precaches the whole shell manifest into the new generation. The
// step is all-or-nothing: one failed asset fails the install and no partial
// shell is left behind.
func (c *Controller) Install(ctx context.Context) error {
	if err := c.transition(StateNew, StateInstalling); err != nil {
		return err
	}
	logCtx := c.logg.WithField(ctx, "generation", c.generation)
	c.logg.Info(logCtx, "installing app shell")

	entries := make([]cachestore.Entry, 0, len(c.shell))
	for _, path := range c.shell {
		entry, err := c.fetcher.FetchAsset(ctx, path)
		if err != nil {
			c.fail(logCtx, fmt.Errorf("fetch shell asset %q: %w", path, err))
			return fmt.Errorf("fetch shell asset %q: %w", path, err)
		}
		entries = append(entries, entry)
	}
	if err := c.store.PutAll(ctx, c.generation, entries); err != nil {
		c.fail(logCtx, fmt.Errorf("cache shell: %w", err))
		return fmt.Errorf("cache shell: %w", err)
	}

	if err := c.transition(StateInstalling, StateInstalled); err != nil {
		return err
	}
	c.logg.Info(logCtx, "app shell installed")
	return nil
}

// Activate drops every generation except the current one and claims clients.
func (c *Controller) Activate(ctx context.Context) error {
	if err := c.transition(StateInstalled, StateActivating); err != nil {
		return err
	}
	logCtx := c.logg.WithField(ctx, "generation", c.generation)
	c.logg.Info(logCtx, "activating")

	generations, err := c.store.Generations(ctx)
	if err != nil {
		c.fail(logCtx, err)
		return fmt.Errorf("list cache generations: %w", err)
	}
	for _, gen := range generations {
		if gen == c.generation {
			continue
		}
		if err := c.store.DropGeneration(ctx, gen); err != nil {
			c.fail(logCtx, err)
			return fmt.Errorf("drop stale generation %q: %w", gen, err)
		}
		c.logg.Info(c.logg.WithField(logCtx, "stale_generation", gen), "stale cache generation dropped")
	}

	if c.claimer != nil {
		if err := c.claimer.Claim(ctx); err != nil {
			c.fail(logCtx, err)
			return fmt.Errorf("claim clients: %w", err)
		}
	}

	if err := c.transition(StateActivating, StateActive); err != nil {
		return err
	}
	c.logg.Info(logCtx, "active")
	return nil
}

func (c *Controller) transition(from, to State) error {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.state != from {
		return fmt.Errorf("invalid lifecycle transition %s -> %s (current %s)", from, to, c.state)
	}
	c.state = to
	return nil
}

func (c *Controller) fail(ctx context.Context, err error) {
	c.mtx.Lock()
	c.state = StateFailed
	c.mtx.Unlock()
	c.logg.Error(ctx, "lifecycle step failed", err)
}
