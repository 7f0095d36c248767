// Package resilience provides fault-tolerance patterns:
// retry with exponential backoff, circuit breaker, and bulkhead.
package resilience

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/sony/gobreaker"
)

// RetryPolicy holds the retry parameters shared by every upstream call site.
// One configured value is injected into the API client instead of per-call
// constants.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Jitter      bool
}

// Backoff returns the delay before retry attempt n (0-based): exponential
// from BaseDelay, with optional jitter of up to half the delay.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	d := time.Duration(math.Pow(2, float64(attempt))) * p.BaseDelay
	if p.Jitter && d > 1 {
		d += time.Duration(rand.Int63n(int64(d / 2)))
	}
	return d
}

// Sleeper suspends the calling operation for d, honoring ctx cancellation.
// Tests inject a fake to simulate time without real delay.
type Sleeper func(ctx context.Context, d time.Duration) error

// WaitSleeper is the production Sleeper.
func WaitSleeper(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// Retry executes fn under the policy. fn reports, besides its error, whether
// the failure is retryable; non-retryable errors are returned immediately.
// Between attempts it suspends via sleep using the policy backoff, unless fn
// supplied an explicit delay hint (>0), e.g. from a Retry-After header.
func Retry(ctx context.Context, policy RetryPolicy, sleep Sleeper, fn func() (retryable bool, hint time.Duration, err error)) error {
	var lastErr error
	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		retryable, hint, err := fn()
		if err == nil {
			return nil
		}
		if !retryable {
			return err
		}
		lastErr = err

		if attempt < policy.MaxAttempts-1 {
			wait := policy.Backoff(attempt)
			if hint > 0 {
				wait = hint
			}
			if err := sleep(ctx, wait); err != nil {
				return err
			}
		}
	}
	return lastErr
}

// NewCircuitBreaker creates a circuit breaker with sensible defaults.
func NewCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,                // half-open: allow 3 requests
		Interval:    30 * time.Second, // closed: reset counters every 30s
		Timeout:     10 * time.Second, // open -> half-open after 10s
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
	})
}

// Bulkhead limits concurrent access to a resource.
type Bulkhead struct {
	sem chan struct{}
}

// NewBulkhead creates a bulkhead with the given max concurrency.
func NewBulkhead(maxConcurrency int) *Bulkhead {
	return &Bulkhead{sem: make(chan struct{}, maxConcurrency)}
}

// Acquire blocks until a slot is available or context is cancelled.
func (b *Bulkhead) Acquire(ctx context.Context) error {
	select {
	case b.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryAcquire grabs a slot without blocking. It returns false when the
// bulkhead is saturated.
func (b *Bulkhead) TryAcquire() bool {
	select {
	case b.sem <- struct{}{}:
		return true
	default:
		return false
	}
}

// Release frees a slot.
func (b *Bulkhead) Release() {
	<-b.sem
}
