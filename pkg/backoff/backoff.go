// Package backoff implements the bounded exponential retry policy used when
// a realtime channel drops and the feed has to be reloaded.
package backoff

import (
	"context"
	"time"
)

// Clock abstracts time for tests. The real implementation sleeps; tests
// record the requested delays and return immediately.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

// RealClock is the production Clock backed by the runtime timer.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

func (RealClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Policy computes delays for a capped exponential backoff: BaseDelay doubles
// per attempt up to MaxDelay, and retries stop after MaxAttempts.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultPolicy returns the channel reconnect policy: three attempts with
// one second doubling up to a ten second cap.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    10 * time.Second,
	}
}

// Delay returns the wait before the given zero-based attempt. Attempt 0 waits
// BaseDelay, attempt 1 waits twice that, and so on up to MaxDelay.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := p.BaseDelay
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Allowed reports whether the given zero-based attempt may run.
func (p Policy) Allowed(attempt int) bool {
	return attempt < p.MaxAttempts
}

// Retrier runs a function under a Policy, sleeping between attempts via the
// injected Clock.
type Retrier struct {
	Policy Policy
	Clock  Clock
}

// NewRetrier builds a Retrier with the real clock when none is given.
func NewRetrier(policy Policy, clock Clock) *Retrier {
	if clock == nil {
		clock = RealClock{}
	}
	return &Retrier{Policy: policy, Clock: clock}
}

// Do invokes fn until it succeeds or the policy is exhausted. The delay for
// attempt n is waited before attempt n+1. The last error is returned when all
// attempts fail.
func (r *Retrier) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) error {
	var lastErr error
	for attempt := 0; r.Policy.Allowed(attempt); attempt++ {
		if attempt > 0 {
			if err := r.Clock.Sleep(ctx, r.Policy.Delay(attempt-1)); err != nil {
				return err
			}
		}
		if lastErr = fn(ctx, attempt); lastErr == nil {
			return nil
		}
	}
	return lastErr
}
