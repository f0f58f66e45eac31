// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("transient")

func fastPolicy(maxRetries int) Policy {
	return Policy{MaxRetries: maxRetries, BaseDelay: time.Millisecond, MaxDelay: 4 * time.Millisecond}
}

// statusAttempt issues a GET against url and marks 5xx as retryable.
func statusAttempt(client *http.Client, url string) Attempt {
	return func(ctx context.Context, _ int) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			return Retryable(err)
		}
		resp.Body.Close()
		if resp.StatusCode >= 500 {
			return Retryable(errors.New(resp.Status))
		}
		if resp.StatusCode != http.StatusOK {
			return errors.New(resp.Status)
		}
		return nil
	}
}

func TestDoWithRetry_ImmediateSuccess(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	attempts, err := DoWithRetry(context.Background(), fastPolicy(2), statusAttempt(ts.Client(), ts.URL))
	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDoWithRetry_RetriesThen200(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	attempts, err := DoWithRetry(context.Background(), fastPolicy(5), statusAttempt(ts.Client(), ts.URL))
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestDoWithRetry_ExhaustsRetries(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	attempts, err := DoWithRetry(context.Background(), fastPolicy(3), statusAttempt(ts.Client(), ts.URL))
	require.Error(t, err)
	assert.False(t, IsRetryable(err), "marker should be stripped from the final error")
	assert.Contains(t, err.Error(), "503")
	// 1 initial + 3 retries = 4 total calls.
	assert.Equal(t, 4, attempts)
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))
}

func TestDoWithRetry_ZeroRetries(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	attempts, err := DoWithRetry(context.Background(), fastPolicy(0), statusAttempt(ts.Client(), ts.URL))
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDoWithRetry_PermanentErrorStops(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	attempts, err := DoWithRetry(context.Background(), fastPolicy(5), statusAttempt(ts.Client(), ts.URL))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Equal(t, 1, attempts)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDoWithRetry_ContextCancelledDuringBackoff(t *testing.T) {
	p := Policy{MaxRetries: 5, BaseDelay: 500 * time.Millisecond, MaxDelay: 4 * time.Second}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	attempts, err := DoWithRetry(ctx, p, func(context.Context, int) error {
		return Retryable(errTransient)
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, attempts)
	assert.Less(t, time.Since(start), 400*time.Millisecond)
}

func TestDoWithRetry_AlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts, err := DoWithRetry(ctx, fastPolicy(3), func(context.Context, int) error {
		t.Fatal("attempt must not run after cancellation")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, attempts)
}

func TestDoWithRetry_AttemptNumbers(t *testing.T) {
	var seen []int
	_, err := DoWithRetry(context.Background(), fastPolicy(2), func(_ context.Context, n int) error {
		seen = append(seen, n)
		return Retryable(errTransient)
	})
	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, []int{1, 2, 3}, seen)
}

func TestPolicyDelays(t *testing.T) {
	tests := []struct {
		name       string
		maxRetries int
		want       []time.Duration
	}{
		{"no retries", 0, []time.Duration{}},
		{"default", 2, []time.Duration{500 * time.Millisecond, time.Second}},
		{"capped at max", 6, []time.Duration{
			500 * time.Millisecond, time.Second, 2 * time.Second,
			4 * time.Second, 4 * time.Second, 4 * time.Second,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Policy{MaxRetries: tt.maxRetries, BaseDelay: 500 * time.Millisecond, MaxDelay: 4 * time.Second}
			assert.Equal(t, tt.want, p.Delays())
		})
	}
}

func TestPolicyWorstCase(t *testing.T) {
	p := Policy{MaxRetries: 2, BaseDelay: 500 * time.Millisecond, MaxDelay: 4 * time.Second}
	// 10s * 3 attempts + 500ms + 1s.
	assert.Equal(t, 31500*time.Millisecond, p.WorstCase(10*time.Second))
}

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, 2, p.MaxRetries)
	assert.Equal(t, RetryBaseDelay, p.BaseDelay)
	assert.Equal(t, RetryMaxDelay, p.MaxDelay)
}
