package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sheikhshariarnehal/nesttask-edge/pkg/logger"
)

type fakeSubscriptionRepo struct {
	lastCutoff time.Time
	called     int
	err        error
}

func (f *fakeSubscriptionRepo) DeleteUpdatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	f.called++
	f.lastCutoff = cutoff
	if f.err != nil {
		return 0, f.err
	}
	return 3, nil
}

func newSubscriptionCleanupJob(t *testing.T, repo *fakeSubscriptionRepo) *subscriptionCleanupJob {
	t.Helper()
	jobIface, err := NewSubscriptionCleanupJob(SubscriptionCleanupJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		Repository: repo,
	})
	if err != nil {
		t.Fatalf("NewSubscriptionCleanupJob: %v", err)
	}
	job, ok := jobIface.(*subscriptionCleanupJob)
	if !ok {
		t.Fatalf("expected subscriptionCleanupJob, got %T", jobIface)
	}
	return job
}

func TestSubscriptionCleanupJobPrunesStaleRows(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	repo := &fakeSubscriptionRepo{}
	job := newSubscriptionCleanupJob(t, repo)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	expectedCutoff := now.UTC().Add(-subscriptionStaleDays * 24 * time.Hour)
	if !repo.lastCutoff.Equal(expectedCutoff) {
		t.Fatalf("expected cutoff %s, got %s", expectedCutoff, repo.lastCutoff)
	}
	if repo.called != 1 {
		t.Fatalf("expected repo called once, got %d", repo.called)
	}
}

func TestSubscriptionCleanupJobPropagatesError(t *testing.T) {
	repo := &fakeSubscriptionRepo{err: errors.New("boom")}
	job := newSubscriptionCleanupJob(t, repo)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
