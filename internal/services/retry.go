package services

import (
	"context"
	"fmt"
	"time"
)

// retry runs fn up to attempts times, doubling delay between tries.
func retry(ctx context.Context, attempts int, delay time.Duration, fn func(attempt int) error) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if lastErr = fn(attempt); lastErr == nil {
			return nil
		}
		if attempt == attempts {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("context cancelled: %w", ctx.Err())
		case <-timer.C:
		}
		delay *= 2
	}

	return fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}
