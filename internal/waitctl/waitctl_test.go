package waitctl

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gotd/td/tgerr"

	"github.com/tolmachov/mcp-telegram/internal/apperr"
)

func testConfig() Config {
	return Config{
		WaitBudget:  2 * time.Second,
		MaxAttempts: 3,
		BaseBackoff: time.Millisecond,
		JitterRatio: 0,
		RPS:         1000,
	}
}

func TestDoSucceedsFirstTry(t *testing.T) {
	c := New(testConfig())
	calls := 0
	err := c.Do(context.Background(), nil, func(ctx context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDoRetriesTransientThenSucceeds(t *testing.T) {
	c := New(testConfig())
	calls := 0
	err := c.Do(context.Background(), nil, func(ctx context.Context) error {
		calls++
		if calls < 2 {
			return errors.New("temporary hiccup")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestDoExhaustsTransientRetries(t *testing.T) {
	c := New(testConfig())
	calls := 0
	err := c.Do(context.Background(), nil, func(ctx context.Context) error {
		calls++
		return errors.New("still broken")
	})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	appErr, ok := apperr.As(err)
	if !ok {
		t.Fatalf("expected AppError, got %T: %v", err, err)
	}
	if appErr.Kind != apperr.KindUnavailable {
		t.Errorf("got kind %q, want %q", appErr.Kind, apperr.KindUnavailable)
	}
	if calls != c.maxAttempts() {
		t.Errorf("expected %d calls, got %d", c.maxAttempts(), calls)
	}
}

func TestDoFloodWaitWithinBudgetRetries(t *testing.T) {
	cfg := testConfig()
	cfg.WaitBudget = time.Second
	cfg.BaseBackoff = time.Millisecond
	c := New(cfg)

	calls := 0
	err := c.Do(context.Background(), nil, func(ctx context.Context) error {
		calls++
		if calls < 2 {
			return &tgerr.Error{Type: "FLOOD_WAIT", Argument: 0}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestDoFloodWaitBeyondBudgetReturnsRateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.WaitBudget = time.Second
	c := New(cfg)

	err := c.Do(context.Background(), func() string { return "resume-token" }, func(ctx context.Context) error {
		return &tgerr.Error{Type: "FLOOD_WAIT", Argument: 120}
	})
	if err == nil {
		t.Fatal("expected RateLimited error")
	}
	appErr, ok := apperr.As(err)
	if !ok {
		t.Fatalf("expected AppError, got %T: %v", err, err)
	}
	if appErr.Kind != apperr.KindRateLimited {
		t.Errorf("got kind %q, want %q", appErr.Kind, apperr.KindRateLimited)
	}
	if appErr.Cursor != "resume-token" {
		t.Errorf("got cursor %q, want %q", appErr.Cursor, "resume-token")
	}
	if appErr.RetryAfter != 120*time.Second {
		t.Errorf("got retry-after %v, want %v", appErr.RetryAfter, 120*time.Second)
	}
}

func TestDoContextCanceledPropagatesImmediately(t *testing.T) {
	c := New(testConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := c.Do(ctx, nil, func(ctx context.Context) error {
		calls++
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 0 {
		t.Errorf("expected fn not to run once context is canceled, got %d calls", calls)
	}
}
