package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestWaitAllowsBurst(t *testing.T) {
	l := New(5.0)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	// A fresh limiter holds one second of tokens
	for i := 0; i < 5; i++ {
		if err := l.Wait(ctx); err != nil {
			t.Fatalf("token %d: %v", i, err)
		}
	}
}

func TestWaitHonorsCancellation(t *testing.T) {
	l := New(0.001) // effectively never refills within the test
	l.tokens = 0

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := l.Wait(ctx); err != context.Canceled {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestNewClampsNonPositiveRate(t *testing.T) {
	l := New(-1)
	if l.rate != 1.0 {
		t.Errorf("rate: got %f, want 1.0", l.rate)
	}
}
