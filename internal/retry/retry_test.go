package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastPolicy(attempts int) Policy {
	return Policy{MaxAttempts: attempts, Delay: time.Millisecond, Strategy: StrategyConstant}
}

func TestDo_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	var notified []int

	err := Do(context.Background(), fastPolicy(3), func(attempt int) error {
		calls++
		if attempt < 3 {
			return errors.New("transient")
		}
		return nil
	}, func(attempt int, err error, next time.Duration) {
		notified = append(notified, attempt)
	})

	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
	if len(notified) != 2 || notified[0] != 1 || notified[1] != 2 {
		t.Errorf("expected notifications for attempts 1 and 2, got %v", notified)
	}
}

func TestDo_ReturnsLastError(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(3), func(attempt int) error {
		calls++
		return errors.New("failure " + string(rune('0'+attempt)))
	}, nil)

	if calls != 3 {
		t.Errorf("expected exactly 3 calls, got %d", calls)
	}
	if err == nil || err.Error() != "failure 3" {
		t.Errorf("expected last attempt error, got %v", err)
	}
}

func TestDo_StopEndsEarly(t *testing.T) {
	sentinel := errors.New("bad input")
	calls := 0
	err := Do(context.Background(), fastPolicy(5), func(int) error {
		calls++
		return Stop(sentinel)
	}, nil)

	if calls != 1 {
		t.Errorf("expected a single call, got %d", calls)
	}
	if !errors.Is(err, sentinel) {
		t.Errorf("expected sentinel, got %v", err)
	}
}

func TestDo_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{MaxAttempts: 10, Delay: time.Hour, Strategy: StrategyConstant}

	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- Do(ctx, p, func(int) error {
			calls++
			return errors.New("transient")
		}, nil)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected an error after cancellation")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Do did not return after cancellation")
	}
	if calls != 1 {
		t.Errorf("expected one call before the wait was canceled, got %d", calls)
	}
}

func TestDo_ZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	_ = Do(context.Background(), Policy{Delay: time.Millisecond}, func(int) error {
		calls++
		return errors.New("x")
	}, nil)
	if calls != 1 {
		t.Errorf("expected one call, got %d", calls)
	}
}
