package ports

import (
	"context"
	"time"
)

// Sleeper blocks for a duration, returning early with the context's error
// when it is canceled. The fixed inter-request delay goes through this so
// tests can skip the waiting.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type SystemSleeper struct{}

func (SystemSleeper) Sleep(ctx context.Context, d time.Duration) error {
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
