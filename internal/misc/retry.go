package misc

import (
	"context"
	"time"
)

var DefaultBackoff = []time.Duration{
	1 * time.Second,
	3 * time.Second,
	5 * time.Second,
}

// FixedBackoff returns n identical delays of d, i.e. n retries without jitter.
func FixedBackoff(n int, d time.Duration) []time.Duration {
	if n <= 0 {
		return nil
	}
	delays := make([]time.Duration, n)
	for i := range delays {
		delays[i] = d
	}
	return delays
}

// Retry runs op until it succeeds, returns a non-retryable error, runs out of delays or ctx is done.
func Retry(ctx context.Context, delays []time.Duration, isRetryable func(error) bool, op func() error) error {
	var err error
	for i := 0; ; i++ {
		if err = op(); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if i >= len(delays) || !isRetryable(err) {
			return err
		}
		if delays[i] <= 0 {
			continue
		}
		t := time.NewTimer(delays[i])
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}
