package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(10, 5)
	if limiter.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", limiter.defaultBurst)
	}

	l2 := NewLimiter(10, -1)
	if l2.defaultBurst != 5 {
		t.Errorf("expected default burst 5 for negative input, got %d", l2.defaultBurst)
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1) // 100 rps, burst 1
	ctx := context.Background()

	if err := limiter.Wait(ctx, "completion"); err != nil {
		t.Errorf("wait failed: %v", err)
	}

	// A second service gets its own bucket
	if err := limiter.Wait(ctx, "embedding"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
}

func TestLimiter_RateLimit(t *testing.T) {
	// 1 rps, burst 1
	limiter := NewLimiter(1, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "completion"); err != nil {
		t.Errorf("first wait failed: %v", err)
	}

	// Burst of 1 is consumed; Allow fails without waiting
	if limiter.Allow("completion") {
		t.Errorf("expected allow to fail (exhausted tokens)")
	}

	// Separate services do not share tokens
	if !limiter.Allow("embedding") {
		t.Errorf("expected fresh service bucket to allow")
	}
}

func TestLimiter_WaitCancellation(t *testing.T) {
	limiter := NewLimiter(0.1, 1) // slow refill
	ctx := context.Background()

	// Consume the burst
	if err := limiter.Wait(ctx, "completion"); err != nil {
		t.Fatalf("first wait failed: %v", err)
	}

	cancelCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := limiter.Wait(cancelCtx, "completion")
	if err == nil {
		t.Error("expected wait to fail under an expired context")
	}
	if time.Since(start) > time.Second {
		t.Error("wait did not return promptly after cancellation")
	}
}

func TestLimiter_SetServiceRate(t *testing.T) {
	limiter := NewLimiter(1, 1)
	ctx := context.Background()

	limiter.SetServiceRate("embedding", 1000, 10)

	// Custom rate allows a burst the default would reject
	for i := 0; i < 10; i++ {
		if err := limiter.Wait(ctx, "embedding"); err != nil {
			t.Fatalf("wait %d failed: %v", i, err)
		}
	}
}
