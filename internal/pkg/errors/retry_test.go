package errors

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetries(n int) RetryConfig {
	return RetryConfig{
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2,
	}.WithRetries(n)
}

func sendFailure() error {
	return NewTransportError("send completion request", errors.New("connection refused"))
}

func TestRetryWithNotify_AttemptCounts(t *testing.T) {
	tests := []struct {
		name         string
		retries      int
		failures     int
		err          func() error
		wantAttempts int
		wantCode     ErrorCode
		wantErr      bool
	}{
		{"default policy makes one attempt", 0, 99, sendFailure, 1, ErrTransport, true},
		{"retries n makes n+1 attempts", 2, 99, sendFailure, 3, ErrTransport, true},
		{"recovers before budget ends", 3, 2, sendFailure, 3, 0, false},
		{"timeout is retried", 1, 99, func() error { return NewTimeoutError(context.DeadlineExceeded) }, 2, ErrTimeout, true},
		{"provider rejection is final", 3, 99, func() error {
			return Wrap(errors.New("rate limited"), ErrProviderRejected, "provider rejected the request")
		}, 1, ErrProviderRejected, true},
		{"http status is final", 3, 99, func() error { return New(ErrHTTPStatus, "HTTP 500") }, 1, ErrHTTPStatus, true},
		{"malformed success is final", 3, 99, func() error { return New(ErrMalformedSuccess, "bad body") }, 1, ErrMalformedSuccess, true},
		{"serialization is final", 3, 99, func() error { return NewSerializationError(errors.New("bad")) }, 1, ErrSerialization, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempts := 0
			err := RetryWithNotify(context.Background(), fastRetries(tt.retries), func(context.Context) error {
				attempts++
				if attempts <= tt.failures {
					return tt.err()
				}
				return nil
			}, nil)

			assert.Equal(t, tt.wantAttempts, attempts)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, HasCode(err, tt.wantCode), "got %v", err)
		})
	}
}

func TestRetryWithNotify_NotifiesBeforeEachRetry(t *testing.T) {
	var seen []int
	err := RetryWithNotify(context.Background(), fastRetries(2), func(context.Context) error {
		return sendFailure()
	}, func(attempt int, err error, delay time.Duration) {
		seen = append(seen, attempt)
		assert.True(t, HasCode(err, ErrTransport))
		assert.LessOrEqual(t, delay, 5*time.Millisecond)
	})

	assert.True(t, HasCode(err, ErrTransport))
	assert.Equal(t, []int{1, 2}, seen)
}

func TestRetryWithNotify_StopsWhenContextEnds(t *testing.T) {
	cfg := RetryConfig{InitialDelay: time.Hour, MaxDelay: time.Hour, Multiplier: 2}.WithRetries(5)
	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	err := RetryWithNotify(ctx, cfg, func(context.Context) error {
		attempts++
		return sendFailure()
	}, func(int, error, time.Duration) { cancel() })

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestRetryConfig_WithRetries(t *testing.T) {
	tests := []struct {
		retries int
		want    int
	}{
		{0, 1},
		{2, 3},
		{-1, 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, DefaultRetryConfig().WithRetries(tt.retries).MaxAttempts, "retries=%d", tt.retries)
	}
}

func TestRetryConfig_DelayBacksOffUpToCap(t *testing.T) {
	cfg := RetryConfig{InitialDelay: time.Second, MaxDelay: 10 * time.Second, Multiplier: 2}

	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 10 * time.Second}
	for attempt, d := range want {
		assert.Equal(t, d, cfg.delay(attempt), "attempt %d", attempt)
	}

	cfg.Jitter = true
	for attempt := 0; attempt < 4; attempt++ {
		base := cfg
		base.Jitter = false
		d := cfg.delay(attempt)
		assert.InDelta(t, float64(base.delay(attempt)), float64(d), float64(base.delay(attempt))*0.25+1)
	}
}
