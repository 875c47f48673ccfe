package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker("svc", CircuitBreakerConfig{FailureThreshold: 2, ResetTimeout: time.Minute})
	failing := func() error { return errors.New("boom") }

	cb.Execute(failing)
	if cb.GetState() != StateClosed {
		t.Fatalf("state after 1 failure = %v, want closed", cb.GetState())
	}
	cb.Execute(failing)
	if cb.GetState() != StateOpen {
		t.Fatalf("state after 2 failures = %v, want open", cb.GetState())
	}

	if err := cb.Execute(func() error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Execute while open: err = %v, want ErrCircuitOpen", err)
	}
}

func TestCircuitBreaker_HalfOpenRecoversOnSuccess(t *testing.T) {
	cb := NewCircuitBreaker("svc", CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: time.Millisecond})
	cb.Execute(func() error { return errors.New("boom") })
	if cb.GetState() != StateOpen {
		t.Fatalf("expected open after first failure")
	}

	time.Sleep(2 * time.Millisecond)
	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatalf("probe execute: %v", err)
	}
	if cb.GetState() != StateClosed {
		t.Errorf("state after successful probe = %v, want closed", cb.GetState())
	}
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := NewCircuitBreaker("svc", CircuitBreakerConfig{FailureThreshold: 1})
	cb.Execute(func() error { return errors.New("boom") })
	cb.Reset()
	if cb.GetState() != StateClosed {
		t.Errorf("state after Reset = %v, want closed", cb.GetState())
	}
}

func TestRetry_SucceedsWithoutRetryOnFirstAttempt(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), "op", RetryConfig{}, func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetry_GivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), "op", RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond}, func() error {
		calls++
		return errors.New("fail")
	})
	if err == nil {
		t.Fatalf("expected an error after exhausting retries")
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetry_AbortsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Retry(ctx, "op", RetryConfig{MaxAttempts: 5, InitialDelay: time.Millisecond}, func() error {
		return errors.New("fail")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want wrapped context.Canceled", err)
	}
}

func TestWithTimeout_ReturnsResultWhenFastEnough(t *testing.T) {
	err := WithTimeout(context.Background(), time.Second, "op", func(ctx context.Context) error {
		return nil
	})
	if err != nil {
		t.Errorf("WithTimeout: %v", err)
	}
}

func TestWithTimeout_ReturnsDeadlineExceededWhenSlow(t *testing.T) {
	err := WithTimeout(context.Background(), 5*time.Millisecond, "op", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want wrapped DeadlineExceeded", err)
	}
}

func TestWithTimeout_ZeroTimeoutRunsDirectly(t *testing.T) {
	called := false
	err := WithTimeout(context.Background(), 0, "op", func(ctx context.Context) error {
		called = true
		return nil
	})
	if err != nil || !called {
		t.Errorf("WithTimeout with zero timeout should run fn directly: called=%v err=%v", called, err)
	}
}
