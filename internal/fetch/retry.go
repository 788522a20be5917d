package fetch

import (
	"context"
	"time"
)

// backoffCap bounds the delay growth so a high attempt ceiling cannot
// produce multi-minute sleeps.
const backoffCap = 30 * time.Second

// backoff is an explicit bounded retry schedule: it tracks attempts made and
// the delay before the next one, doubling per attempt up to backoffCap.
// Keeping the state in a struct (rather than a retry loop with inline
// arithmetic) lets the schedule be tested without any network or clock.
type backoff struct {
	base        time.Duration
	maxAttempts int
	attempts    int
	nextDelay   time.Duration
}

// newBackoff creates a schedule allowing maxAttempts total attempts with an
// initial retry delay of base.
func newBackoff(base time.Duration, maxAttempts int) *backoff {
	if base <= 0 {
		base = time.Millisecond
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &backoff{
		base:        base,
		maxAttempts: maxAttempts,
		nextDelay:   base,
	}
}

// Next records one failed attempt and returns the delay to wait before the
// next try. ok is false once the attempt ceiling is reached, at which point
// the caller must stop retrying.
func (b *backoff) Next() (time.Duration, bool) {
	b.attempts++
	if b.attempts >= b.maxAttempts {
		return 0, false
	}
	delay := b.nextDelay
	b.nextDelay *= 2
	if b.nextDelay > backoffCap {
		b.nextDelay = backoffCap
	}
	return delay, true
}

// Attempts reports how many attempts have been consumed so far.
func (b *backoff) Attempts() int {
	return b.attempts
}

// sleepCtx waits out a delay while honoring cancellation.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
