package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWaitFor(t *testing.T) {
	t.Parallel()

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name    string
		ctx     context.Context
		wait    time.Duration
		wantErr error
	}{
		{name: "elapses", ctx: context.Background(), wait: time.Millisecond},
		{name: "non-positive returns at once", ctx: context.Background(), wait: 0},
		{name: "cancelled before a long wait", ctx: cancelled, wait: time.Hour, wantErr: context.Canceled},
		{name: "cancelled with nothing to wait", ctx: cancelled, wait: -time.Second, wantErr: context.Canceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			start := time.Now()
			err := WaitFor(tt.ctx, tt.wait)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if elapsed := time.Since(start); elapsed > time.Minute {
				t.Fatalf("wait took %s", elapsed)
			}
		})
	}
}

func TestWaitForDeadline(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := WaitFor(ctx, time.Hour); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context.DeadlineExceeded, got %v", err)
	}
}
