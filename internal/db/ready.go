package db

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ReadyPollInterval is how often WaitForReady retries a failed ping.
const ReadyPollInterval = 100 * time.Millisecond

// WaitForReady pings p until it answers or timeout expires. The first ping is immediate.
// On timeout the last ping error is joined with the context error.
func WaitForReady(ctx context.Context, p Pinger, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(ReadyPollInterval)
	defer ticker.Stop()

	for {
		last := p.Ping(ctx)
		if last == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for durable tier: %w", errors.Join(ctx.Err(), last))
		case <-ticker.C:
		}
	}
}
