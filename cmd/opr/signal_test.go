package main

// Notes:
// - notifyContext: we test stop() and parent propagation only. Real signal
//   delivery is left out: it would race with every other test in the binary.

import (
	"context"
	"testing"
	"time"
)

func TestNotifyContext(t *testing.T) {
	t.Parallel()

	t.Run("stop cancels", func(t *testing.T) {
		t.Parallel()

		ctx, stop := notifyContext(context.Background())
		if ctx.Err() != nil {
			t.Fatal("context canceled before stop()")
		}
		stop()

		select {
		case <-ctx.Done():
		case <-time.After(time.Second):
			t.Fatal("stop() should cancel the context")
		}
	})

	t.Run("parent cancel propagates", func(t *testing.T) {
		t.Parallel()

		parent, cancel := context.WithCancel(context.Background())
		ctx, stop := notifyContext(parent)
		defer stop()

		cancel()
		select {
		case <-ctx.Done():
		case <-time.After(time.Second):
			t.Fatal("parent cancellation did not propagate")
		}
	})
}
