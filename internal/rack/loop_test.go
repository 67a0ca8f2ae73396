package rack_test

import (
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/rackworks/gearrack/internal/rack"
)

func TestLoopRunsPostedTasks(t *testing.T) {
	loop := rack.NewLoop(zap.NewNop())
	loop.Start()

	done := make(chan struct{})
	loop.Post(func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("posted task never ran")
	}
	loop.Stop()
}

func TestLoopStopDrainsQueuedTasks(t *testing.T) {
	loop := rack.NewLoop(zap.NewNop())
	loop.Start()

	var ran atomic.Int32
	for i := 0; i < 50; i++ {
		loop.Post(func() { ran.Add(1) })
	}
	loop.Stop()

	if got := ran.Load(); got != 50 {
		t.Fatalf("expected all 50 tasks to run before stop returned, got %d", got)
	}
}

func TestLoopAcceptedTasksAlwaysRun(t *testing.T) {
	loop := rack.NewLoop(zap.NewNop())
	loop.Start()

	var accepted, ran atomic.Int32
	posterDone := make(chan struct{})
	go func() {
		defer close(posterDone)
		for i := 0; i < 200; i++ {
			if loop.TryPost(func() { ran.Add(1) }) {
				accepted.Add(1)
			}
		}
	}()

	// Stop races the poster; whatever it accepted must still execute,
	// and everything after must be rejected, never silently lost.
	loop.Stop()
	<-posterDone

	if accepted.Load() != ran.Load() {
		t.Fatalf("accepted %d tasks but ran %d", accepted.Load(), ran.Load())
	}
}

func TestLoopPostAfterStopDoesNotBlock(t *testing.T) {
	loop := rack.NewLoop(zap.NewNop())
	loop.Start()
	loop.Stop()

	done := make(chan struct{})
	go func() {
		loop.Post(func() {})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Post blocked after Stop")
	}
}
