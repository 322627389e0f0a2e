//go:build integration

package audio

import (
	"context"
	"testing"
	"time"
)

// These tests require actual audio hardware and are skipped by default.
// Run with: go test -tags=integration ./internal/audio

func TestCapture_Devices_Integration(t *testing.T) {
	capture := New(DefaultConfig())
	defer capture.Close()

	if err := capture.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	devices, err := capture.Devices()
	if err != nil {
		t.Fatalf("Devices() error = %v", err)
	}

	t.Logf("Found %d capture devices:", len(devices))
	for _, d := range devices {
		t.Logf("  [%d] %s (default: %v)", d.Index, d.Name, d.IsDefault)
	}
}

func TestCapture_Callback_Integration(t *testing.T) {
	capture := New(DefaultConfig())
	defer capture.Close()

	if err := capture.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	received := make(chan int, 1)
	capture.SetCallback(func(samples []float32) {
		select {
		case received <- len(samples):
		default:
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := capture.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !capture.IsRunning() {
		t.Error("IsRunning() = false after Start()")
	}

	select {
	case n := <-received:
		if n == 0 {
			t.Error("received empty sample buffer")
		}
	case <-ctx.Done():
		t.Error("timeout waiting for samples")
	}
}

func TestCapture_ContextCancellation_Integration(t *testing.T) {
	capture := New(DefaultConfig())
	defer capture.Close()

	if err := capture.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := capture.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	cancel()
	time.Sleep(100 * time.Millisecond)

	if capture.IsRunning() {
		t.Error("IsRunning() = true after context cancellation")
	}
}
