package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSchedulerRunsTaskImmediately(t *testing.T) {
	s := NewScheduler()

	var runs int64
	s.AddTask("counter", time.Hour, func(ctx context.Context) error {
		atomic.AddInt64(&runs, 1)
		return nil
	})

	s.Start(context.Background())
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return atomic.LoadInt64(&runs) >= 1
	}, time.Second, 10*time.Millisecond)
}

func TestSchedulerStopHaltsTasks(t *testing.T) {
	s := NewScheduler()

	var runs int64
	s.AddTask("counter", 10*time.Millisecond, func(ctx context.Context) error {
		atomic.AddInt64(&runs, 1)
		return nil
	})

	s.Start(context.Background())
	assert.Eventually(t, func() bool {
		return atomic.LoadInt64(&runs) >= 2
	}, time.Second, 5*time.Millisecond)

	s.Stop()
	stopped := atomic.LoadInt64(&runs)

	// No further runs once stopped
	time.Sleep(50 * time.Millisecond)
	assert.LessOrEqual(t, atomic.LoadInt64(&runs), stopped+1)
}

func TestSchedulerStartIsIdempotent(t *testing.T) {
	s := NewScheduler()
	s.AddTask("noop", time.Hour, func(ctx context.Context) error { return nil })

	ctx := context.Background()
	s.Start(ctx)
	s.Start(ctx) // Second start is a no-op
	s.Stop()
	s.Stop() // Second stop is a no-op
}
