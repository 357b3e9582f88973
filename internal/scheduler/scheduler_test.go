package scheduler_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/brokerlink/loadsync/internal/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	t.Parallel()

	var ticks atomic.Int64
	s := scheduler.New(scheduler.Job{
		Name:     "tick",
		Interval: 10 * time.Millisecond,
		Run:      func(context.Context) { ticks.Add(1) },
	})

	ctx, cancel := context.WithTimeout(t.Context(), 200*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop on context cancellation")
	}
	assert.Greater(t, ticks.Load(), int64(2), "The job should have run repeatedly")
}

func TestRunDisabledJob(t *testing.T) {
	t.Parallel()

	var ran atomic.Bool
	s := scheduler.New(scheduler.Job{
		Name:     "disabled",
		Interval: 0,
		Run:      func(context.Context) { ran.Store(true) },
	})

	done := make(chan struct{})
	go func() {
		s.Run(t.Context())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("a scheduler with only disabled jobs should return immediately")
	}
	assert.False(t, ran.Load(), "Disabled jobs should never run")
}

func TestRunNoImmediateFire(t *testing.T) {
	t.Parallel()

	var ticks atomic.Int64
	s := scheduler.New(scheduler.Job{
		Name:     "slow",
		Interval: time.Hour,
		Run:      func(context.Context) { ticks.Add(1) },
	})

	ctx, cancel := context.WithCancel(t.Context())
	go s.Run(ctx)

	time.Sleep(100 * time.Millisecond)
	cancel()
	require.Zero(t, ticks.Load(), "Jobs should wait a full interval before the first run")
}
