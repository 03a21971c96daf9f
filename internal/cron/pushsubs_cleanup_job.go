package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/sheikhshariarnehal/nesttask-edge/pkg/logger"
)

const subscriptionStaleDays = 90

type subscriptionCleanupRepo interface {
	DeleteUpdatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// SubscriptionCleanupJobParams configure the stale registration cleanup.
type SubscriptionCleanupJobParams struct {
	Logger     *logger.Logger
	Repository subscriptionCleanupRepo
	StaleAfter int
}

// NewSubscriptionCleanupJob prunes push registrations that have not been
// refreshed within the staleness window. Stale endpoints bounce anyway, so
// keeping them only inflates broadcast fanout.
func NewSubscriptionCleanupJob(params SubscriptionCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("subscription repository required")
	}
	staleAfter := params.StaleAfter
	if staleAfter <= 0 {
		staleAfter = subscriptionStaleDays
	}
	return &subscriptionCleanupJob{
		logg:       params.Logger,
		repo:       params.Repository,
		staleAfter: staleAfter,
		now:        time.Now,
	}, nil
}

type subscriptionCleanupJob struct {
	logg       *logger.Logger
	repo       subscriptionCleanupRepo
	staleAfter int
	now        func() time.Time
}

func (j *subscriptionCleanupJob) Name() string { return "push-subscription-cleanup" }

func (j *subscriptionCleanupJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-time.Duration(j.staleAfter) * 24 * time.Hour)
	pruned, err := j.repo.DeleteUpdatedBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("subscription cleanup: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":      cutoff,
		"stale_days":  j.staleAfter,
		"rows_pruned": pruned,
	})
	j.logg.Info(logCtx, "stale push subscriptions pruned")
	return nil
}
