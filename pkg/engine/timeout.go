package engine

import (
	"context"
	"fmt"
	"time"
)

// outcome passes a result through a channel.
type outcome[T any] struct {
	value T
	err   error
}

// waitWithTimeout waits for a result from ch, but returns a timeout error
// if it takes longer than timeout.
//
// On timeout the goroutine may still be running. ch must be buffered so
// that its late send does not block.
func waitWithTimeout[T any](ctx context.Context, ch <-chan outcome[T], timeout time.Duration) (T, error) {
	var zero T
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		return res.value, res.err
	case <-timer.C:
		return zero, fmt.Errorf("evaluation timed out after %s", timeout)
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
