package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	errs "eodmsdds/pkg/errors"
	"eodmsdds/pkg/logger"
)

func testConfig(maxAttempts int) *Config {
	return &Config{
		MaxAttempts: maxAttempts,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     DefaultRetryIf,
		Context:     context.Background(),
		Logger:      logger.NewNopLogger(),
	}
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(func() error {
		calls++
		return nil
	}, testConfig(3))

	if err != nil {
		t.Errorf("Expected success, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(func() error {
		calls++
		if calls < 3 {
			return &errs.Error{Type: errs.ErrorTypeNetwork, Message: "boom"}
		}
		return nil
	}, testConfig(5))

	if err != nil {
		t.Errorf("Expected eventual success, got %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	err := Do(func() error {
		calls++
		return &errs.Error{Type: errs.ErrorTypeServerError, Message: "still broken", Code: 503}
	}, testConfig(3))

	if err == nil {
		t.Fatal("Expected error after exhausting attempts")
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
}

func TestDoNonRetryableStopsImmediately(t *testing.T) {
	calls := 0
	err := Do(func() error {
		calls++
		return &errs.Error{Type: errs.ErrorTypeAuth, Message: "bad credentials", Code: 401}
	}, testConfig(5))

	if err == nil {
		t.Fatal("Expected error")
	}
	if calls != 1 {
		t.Errorf("Expected 1 call for non-retryable error, got %d", calls)
	}
}

type hintedError struct {
	after time.Duration
}

func (e *hintedError) Error() string             { return "throttled" }
func (e *hintedError) RetryAfter() time.Duration { return e.after }

func TestDoHonoursRetryAfterHint(t *testing.T) {
	calls := 0
	var observedDelay time.Duration
	cfg := testConfig(2)
	cfg.RetryIf = func(error) bool { return true }
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		observedDelay = delay
	}

	_ = Do(func() error {
		calls++
		return &hintedError{after: 5 * time.Millisecond}
	}, cfg)

	if observedDelay != 5*time.Millisecond {
		t.Errorf("Expected hinted delay 5ms, got %v", observedDelay)
	}
}

func TestDoContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := testConfig(0)
	cfg.Context = ctx
	cfg.Backoff = &ConstantBackoff{Delay: time.Second}
	cfg.RetryIf = func(error) bool { return true }

	err := Do(func() error {
		return errors.New("transient")
	}, cfg)

	if err == nil || !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context cancellation error, got %v", err)
	}
}

func TestDoWithResult(t *testing.T) {
	calls := 0
	result, err := DoWithResult(func() (string, error) {
		calls++
		if calls < 2 {
			return "", &errs.Error{Type: errs.ErrorTypeNetwork, Message: "flaky"}
		}
		return "ok", nil
	}, testConfig(5))

	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if result != "ok" {
		t.Errorf("Expected ok, got %q", result)
	}
}

func TestExponentialBackoffGrowth(t *testing.T) {
	eb := &ExponentialBackoff{
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   time.Second,
		Multiplier: 2.0,
	}

	d1 := eb.NextDelay(1)
	d2 := eb.NextDelay(2)
	d3 := eb.NextDelay(5)

	if d1 != 100*time.Millisecond {
		t.Errorf("Expected 100ms, got %v", d1)
	}
	if d2 != 200*time.Millisecond {
		t.Errorf("Expected 200ms, got %v", d2)
	}
	if d3 != time.Second {
		t.Errorf("Expected cap at 1s, got %v", d3)
	}
	if eb.NextDelay(0) != 0 {
		t.Error("Expected zero delay for attempt 0")
	}
}

func TestWaitCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := Wait(ctx, time.Second); err == nil {
		t.Error("Expected cancelled wait to return error")
	}
	if err := Wait(context.Background(), 0); err != nil {
		t.Errorf("Expected zero wait to return nil, got %v", err)
	}
}
