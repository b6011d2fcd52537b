package ratelimit

import (
	"context"
	"testing"

	"github.com/fd1az/sizing-bot/internal/apperror"
)

func TestLimiter_Burst(t *testing.T) {
	l := New(0.001, 3)

	for i := 0; i < 3; i++ {
		if !l.Allow() {
			t.Fatalf("request %d should fit in the burst", i)
		}
	}
	if l.Allow() {
		t.Error("request beyond burst should be throttled")
	}
}

func TestLimiter_WaitCancelled(t *testing.T) {
	l := New(0.001, 1)
	l.Allow() // drain

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := l.Wait(ctx)
	if apperror.GetCode(err) != apperror.CodeRateLimitExceeded {
		t.Errorf("expected CodeRateLimitExceeded, got %v", err)
	}
}

func TestLimiter_Unlimited(t *testing.T) {
	l := New(0, 1)
	for i := 0; i < 100; i++ {
		if err := l.Wait(context.Background()); err != nil {
			t.Fatalf("unlimited limiter returned %v", err)
		}
	}
}
