package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/sheikhshariarnehal/nesttask-edge/pkg/backoff"
	"github.com/sheikhshariarnehal/nesttask-edge/pkg/db/models"
	"github.com/sheikhshariarnehal/nesttask-edge/pkg/enums"
	apperrors "github.com/sheikhshariarnehal/nesttask-edge/pkg/errors"
	"github.com/sheikhshariarnehal/nesttask-edge/pkg/logger"
	"github.com/sheikhshariarnehal/nesttask-edge/pkg/outbox/payloads"
)

const (
	tableTasks         = "tasks"
	tableAnnouncements = "announcements"
)

type loader interface {
	LoadNotifications(ctx context.Context, userID uuid.UUID) ([]Notification, error)
}

// ReconcilerParams collects the reconciler dependencies.
type ReconcilerParams struct {
	Logger *logger.Logger
	Repo   loader
	Feed   ChangeFeed
	Model  *ListModel
	UserID uuid.UUID

	// OnUpdate fires after every change applied to the model, so the
	// transport layer can tell connected clients to re-render.
	OnUpdate func()

	Policy backoff.Policy
	Clock  backoff.Clock
}

// Reconciler keeps one user's notification list consistent with the
// database: a full load on start, then incremental row changes, with a
// reload whenever the change stream drops.
type Reconciler struct {
	logg     *logger.Logger
	repo     loader
	feed     ChangeFeed
	model    *ListModel
	userID   uuid.UUID
	onUpdate func()
	policy   backoff.Policy
	clock    backoff.Clock

	mtx  sync.RWMutex
	err  error
	live bool
}

// NewReconciler validates params and builds a reconciler.
func NewReconciler(params ReconcilerParams) (*Reconciler, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("repository required")
	}
	if params.Feed == nil {
		return nil, fmt.Errorf("change feed required")
	}
	if params.Model == nil {
		return nil, fmt.Errorf("list model required")
	}
	clock := params.Clock
	if clock == nil {
		clock = backoff.RealClock{}
	}
	policy := params.Policy
	if policy.MaxAttempts == 0 {
		policy = backoff.DefaultPolicy()
	}
	return &Reconciler{
		logg:     params.Logger,
		repo:     params.Repo,
		feed:     params.Feed,
		model:    params.Model,
		userID:   params.UserID,
		onUpdate: params.OnUpdate,
		policy:   policy,
		clock:    clock,
	}, nil
}

// Run blocks until ctx ends or the change stream stays down past the retry
// budget. Each successful resubscribe resets the budget.
func (r *Reconciler) Run(ctx context.Context) error {
	attempt := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := r.reload(ctx)
		if err == nil {
			err = r.feed.Run(ctx, r.apply, func() {
				attempt = 0
				r.setLive(true)
			})
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		r.setLive(false)
		r.logg.Error(ctx, "realtime channel dropped", err)

		if !r.policy.Allowed(attempt + 1) {
			terminal := apperrors.Wrap(apperrors.CodeUnavailable, err, "realtime channel retries exhausted")
			r.setErr(terminal)
			return terminal
		}
		if err := r.clock.Sleep(ctx, r.policy.Delay(attempt)); err != nil {
			return err
		}
		attempt++
	}
}

// Live reports whether the change stream is currently attached.
func (r *Reconciler) Live() bool {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	return r.live
}

// Err returns the terminal error once retries are exhausted, nil before.
func (r *Reconciler) Err() error {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	return r.err
}

func (r *Reconciler) setLive(live bool) {
	r.mtx.Lock()
	r.live = live
	r.mtx.Unlock()
}

func (r *Reconciler) setErr(err error) {
	r.mtx.Lock()
	r.err = err
	r.mtx.Unlock()
}

func (r *Reconciler) reload(ctx context.Context) error {
	items, err := r.repo.LoadNotifications(ctx, r.userID)
	if err != nil {
		return fmt.Errorf("reload notifications: %w", err)
	}
	r.model.Replace(items)
	r.notify()
	return nil
}

// apply folds one row change into the list model.
func (r *Reconciler) apply(ctx context.Context, change payloads.ChangeFeedEvent) {
	logCtx := r.logg.WithFields(ctx, map[string]any{
		"table":       change.Table,
		"change_type": string(change.Type),
	})

	switch change.Type {
	case enums.ChangeInsert, enums.ChangeUpdate:
		item, visible, err := r.decodeRecord(change)
		if err != nil {
			r.logg.Error(logCtx, "failed to decode change record", err)
			return
		}
		if !visible {
			return
		}
		r.model.Add(item)
	case enums.ChangeDelete:
		id, err := recordID(change.Record)
		if err != nil {
			r.logg.Error(logCtx, "failed to decode deleted record", err)
			return
		}
		r.model.Remove(id)
	default:
		r.logg.Warn(logCtx, "ignoring unknown change type")
		return
	}
	r.notify()
}

// decodeRecord maps a row change to a feed item. The stream itself is
// unfiltered, so task visibility (owned by this user or admin-flagged) is
// re-checked here; a false return means the row is not for this user.
func (r *Reconciler) decodeRecord(change payloads.ChangeFeedEvent) (Notification, bool, error) {
	switch change.Table {
	case tableTasks:
		var task models.Task
		if err := json.Unmarshal(change.Record, &task); err != nil {
			return Notification{}, false, err
		}
		if task.UserID != r.userID && !task.IsAdminTask {
			return Notification{}, false, nil
		}
		return TaskNotification(task), true, nil
	case tableAnnouncements:
		var announcement models.Announcement
		if err := json.Unmarshal(change.Record, &announcement); err != nil {
			return Notification{}, false, err
		}
		return AnnouncementNotification(announcement), true, nil
	default:
		return Notification{}, false, fmt.Errorf("unsupported table %q", change.Table)
	}
}

func (r *Reconciler) notify() {
	if r.onUpdate != nil {
		r.onUpdate()
	}
}

func recordID(record json.RawMessage) (string, error) {
	var row struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(record, &row); err != nil {
		return "", err
	}
	if row.ID == "" {
		return "", fmt.Errorf("record has no id")
	}
	return row.ID, nil
}
