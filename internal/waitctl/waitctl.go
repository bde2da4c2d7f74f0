// Package waitctl implements the Wait Controller: it wraps
// every call into the MTProto provider, pacing steady-state traffic,
// sleeping out provider-signalled flood waits within a budget, and
// surfacing a resumable RateLimited failure when a wait exceeds it.
package waitctl

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/gotd/td/tgerr"
	"go.uber.org/ratelimit"

	"github.com/tolmachov/mcp-telegram/internal/apperr"
)

// Config holds the budget/attempt knobs.
type Config struct {
	WaitBudget     time.Duration
	MaxAttempts    int
	BaseBackoff    time.Duration
	JitterRatio    float64
	RPS            int           // steady-state pacing applied before every call
	RequestTimeout time.Duration // per-attempt deadline; 0 disables
}

// DefaultConfig returns sane defaults for interactive use.
func DefaultConfig() Config {
	return Config{
		WaitBudget:     60 * time.Second,
		MaxAttempts:    3,
		BaseBackoff:    250 * time.Millisecond,
		JitterRatio:    0.1,
		RPS:            1,
		RequestTimeout: 30 * time.Second,
	}
}

// Controller wraps provider calls with rate-limit recovery and bounded
// backoff for transient failures.
type Controller struct {
	cfg     Config
	limiter ratelimit.Limiter
}

// New creates a Controller with the given configuration.
func New(cfg Config) *Controller {
	rps := cfg.RPS
	if rps <= 0 {
		rps = 1
	}
	return &Controller{
		cfg:     cfg,
		limiter: ratelimit.New(rps),
	}
}

// ResumeCursor supplies the best-effort resumable cursor to attach to a
// RateLimited failure, reflecting the last successfully emitted page.
type ResumeCursor func() string

// Do paces and executes fn, handling flood-wait and transient errors.
// On a flood wait within budget, it sleeps (±jitter) and retries the same
// call up to MaxAttempts. On a flood wait beyond budget, it returns
// *apperr.AppError{Kind: KindRateLimited} without sleeping. Other
// transient errors get bounded exponential backoff before surfacing
// KindUnavailable. Context cancellation propagates immediately.
func (c *Controller) Do(ctx context.Context, resume ResumeCursor, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= c.maxAttempts(); attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		c.limiter.Take()

		err := c.callWithTimeout(ctx, fn)
		if err == nil {
			return nil
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		if tgErr, ok := tgerr.As(err); ok && tgErr.Type == "FLOOD_WAIT" {
			wait := time.Duration(tgErr.Argument) * time.Second
			if wait <= c.cfg.WaitBudget {
				if attempt == c.maxAttempts() {
					return apperr.Wrap(apperr.KindUnavailable, "rate limited, retries exhausted", err)
				}
				sleep(ctx, withJitter(wait, c.cfg.JitterRatio))
				lastErr = err
				continue
			}
			cur := ""
			if resume != nil {
				cur = resume()
			}
			return apperr.RateLimited(wait, cur)
		}

		lastErr = err
		if attempt < c.maxAttempts() {
			backoff := c.cfg.BaseBackoff * time.Duration(1<<uint(attempt-1))
			sleep(ctx, withJitter(backoff, c.cfg.JitterRatio))
		}
	}

	return apperr.Wrap(apperr.KindUnavailable, "provider call failed after retries", lastErr)
}

// callWithTimeout bounds a single attempt's provider call by RequestTimeout,
// independent of the retry loop's overall duration.
func (c *Controller) callWithTimeout(ctx context.Context, fn func(ctx context.Context) error) error {
	if c.cfg.RequestTimeout <= 0 {
		return fn(ctx)
	}
	callCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()
	return fn(callCtx)
}

func (c *Controller) maxAttempts() int {
	if c.cfg.MaxAttempts <= 0 {
		return 1
	}
	return c.cfg.MaxAttempts
}

func withJitter(d time.Duration, ratio float64) time.Duration {
	if ratio <= 0 {
		return d
	}
	delta := float64(d) * ratio
	offset := (rand.Float64()*2 - 1) * delta
	jittered := float64(d) + offset
	if jittered < 0 {
		return 0
	}
	return time.Duration(jittered)
}

func sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
