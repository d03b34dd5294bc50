package errors

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// RetryConfig is the backoff policy for transport failures.
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       bool
}

// DefaultRetryConfig makes a single attempt. WithRetries raises the count.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  1,
		InitialDelay: time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2,
		Jitter:       true,
	}
}

// WithRetries returns a copy of c that allows n additional attempts.
func (c RetryConfig) WithRetries(n int) RetryConfig {
	c.MaxAttempts = max(n, 0) + 1
	return c
}

// delay is the wait before retry number attempt+1, capped at MaxDelay and
// spread by up to a quarter either way when Jitter is set.
func (c RetryConfig) delay(attempt int) time.Duration {
	d := float64(c.InitialDelay) * math.Pow(c.Multiplier, float64(attempt))
	d = math.Min(d, float64(c.MaxDelay))
	if c.Jitter {
		d += d * 0.25 * (rand.Float64()*2 - 1)
	}
	return time.Duration(d)
}

// RetryFunc is one attempt of a retried operation.
type RetryFunc func(ctx context.Context) error

// RetryCallback is invoked before each retry with the upcoming delay.
type RetryCallback func(attempt int, err error, delay time.Duration)

// RetryWithNotify runs fn until it succeeds, fails with an error that
// IsRetryable rejects, or MaxAttempts is used up. The last error is
// returned. notify may be nil.
func RetryWithNotify(ctx context.Context, config RetryConfig, fn RetryFunc, notify RetryCallback) error {
	attempts := max(config.MaxAttempts, 1)
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil || !IsRetryable(err) || attempt+1 >= attempts {
			return err
		}

		wait := config.delay(attempt)
		if notify != nil {
			notify(attempt+1, err, wait)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
