package utils

import (
	"context"
	"time"
)

// WaitFor pauses for d. It returns ctx.Err() as soon as ctx is done, including
// when ctx is already done and d is not positive.
func WaitFor(ctx context.Context, d time.Duration) error {
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
