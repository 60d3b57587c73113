package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

// TestPolicyDelayGrowsLinearly checks the (attempt-1)*unit schedule.
func TestPolicyDelayGrowsLinearly(t *testing.T) {
	policy := Policy{MaxAttempts: 3, Unit: 2 * time.Second}

	if got := policy.Delay(1); got != 0 {
		t.Fatalf("Delay(1) = %v, want 0", got)
	}
	if got := policy.Delay(2); got != 2*time.Second {
		t.Fatalf("Delay(2) = %v, want 2s", got)
	}
	if got := policy.Delay(3); got != 4*time.Second {
		t.Fatalf("Delay(3) = %v, want 4s", got)
	}
	if got := policy.Delay(0); got != 0 {
		t.Fatalf("Delay(0) = %v, want 0", got)
	}
}

// TestWaitCompletesAfterDuration checks the happy path returns nil.
func TestWaitCompletesAfterDuration(t *testing.T) {
	if err := Wait(context.Background(), time.Millisecond); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}

// TestWaitReturnsImmediatelyWhenCancelled checks cancellation beats the timer.
func TestWaitReturnsImmediatelyWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := Wait(ctx, time.Hour)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Wait error = %v, want context.Canceled", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("Wait blocked for %v despite cancelled context", elapsed)
	}
}

// TestWaitZeroDurationReportsCancelledContext checks the no-sleep path.
func TestWaitZeroDurationReportsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := Wait(ctx, 0); !errors.Is(err, context.Canceled) {
		t.Fatalf("Wait error = %v, want context.Canceled", err)
	}
	if err := Wait(context.Background(), 0); err != nil {
		t.Fatalf("Wait with live context: %v", err)
	}
}
