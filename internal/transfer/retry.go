// internal/transfer/retry.go
package transfer

import (
	"context"
	"time"

	"github.com/tamzrod/recipe-sync/internal/config"
)

// withBackoff runs fn up to r.Attempts times, doubling the wait after each failure.
// Attempts <= 0 means a single try. Cancellation is honored between tries.
func withBackoff(ctx context.Context, r config.Retry, sleep sleeper, fn func(attempt int) error) error {
	attempts := r.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	wait := r.InitialBackoff
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(attempt); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		if serr := sleep(ctx, wait); serr != nil {
			return serr
		}
		wait *= 2
	}
	return err
}

type sleeper func(ctx context.Context, d time.Duration) error

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
