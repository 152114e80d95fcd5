package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRetrySucceedsAfterFailures(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	calls := 0
	err := retry(context.Background(), retryPolicy{MaxRetries: 3, Backoff: time.Millisecond}, zap.New(core), "ping", func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}

	warnings := logs.FilterMessage("postgres unavailable, retrying").All()
	if len(warnings) != 2 {
		t.Fatalf("expected 2 retry warnings, got %d", len(warnings))
	}
	if got := warnings[1].ContextMap()["attempt"]; got != int64(2) {
		t.Fatalf("unexpected attempt field: %v", got)
	}
	if logs.FilterMessage("postgres ready").Len() != 1 {
		t.Fatalf("expected a ready log after recovery")
	}
}

func TestRetryGivesUp(t *testing.T) {
	want := errors.New("connection refused")
	calls := 0
	err := retry(context.Background(), retryPolicy{MaxRetries: 2, Backoff: time.Millisecond}, nil, "ping", func(context.Context) error {
		calls++
		return want
	})
	if !errors.Is(err, want) {
		t.Fatalf("expected last error, got %v", err)
	}
	if !strings.Contains(err.Error(), "ping failed after 3 attempts") {
		t.Fatalf("unexpected error text: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := retry(ctx, retryPolicy{MaxRetries: 10, Backoff: time.Hour}, nil, "ping", func(context.Context) error {
		calls++
		cancel()
		return errors.New("connection refused")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestRetryDoesNotRetryContextErrors(t *testing.T) {
	calls := 0
	err := retry(context.Background(), retryPolicy{MaxRetries: 5, Backoff: time.Millisecond}, nil, "ping", func(context.Context) error {
		calls++
		return context.DeadlineExceeded
	})
	if !errors.Is(err, context.DeadlineExceeded) || calls != 1 {
		t.Fatalf("expected a single deadline error, got %v after %d calls", err, calls)
	}
}

func TestRetryPolicyDelay(t *testing.T) {
	cases := []struct {
		policy  retryPolicy
		attempt int
		want    time.Duration
	}{
		{retryPolicy{Backoff: 500 * time.Millisecond}, 0, 500 * time.Millisecond},
		{retryPolicy{Backoff: 500 * time.Millisecond}, 3, 4 * time.Second},
		{retryPolicy{Backoff: 500 * time.Millisecond}, 10, maxRetryDelay},
		{retryPolicy{}, 1, 2 * defaultRetryDelay},
	}
	for _, tc := range cases {
		if got := tc.policy.delay(tc.attempt); got != tc.want {
			t.Fatalf("delay(%d) with %v: got %s, want %s", tc.attempt, tc.policy.Backoff, got, tc.want)
		}
	}
}
