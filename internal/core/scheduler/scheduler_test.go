package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerRunsJobsUntilStopped(t *testing.T) {
	t.Parallel()

	var fast, slow atomic.Int32
	scheduler := New()
	scheduler.Every("fast", 5*time.Millisecond, func(time.Time) { fast.Add(1) })
	scheduler.Every("slow", time.Hour, func(time.Time) { slow.Add(1) })
	scheduler.Every("ignored", 0, func(time.Time) {})
	assert.Equal(t, []string{"fast", "slow"}, scheduler.Jobs())

	scheduler.Start()
	require.Eventually(t, func() bool { return fast.Load() >= 3 }, time.Second, time.Millisecond)
	scheduler.Stop()

	after := fast.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, fast.Load(), "no runs after Stop returns")
	assert.Zero(t, slow.Load())
}

func TestSchedulerLateRegistrationAndRestart(t *testing.T) {
	t.Parallel()

	var runs atomic.Int32
	scheduler := New()
	scheduler.Start()
	scheduler.Start()
	scheduler.Every("late", 5*time.Millisecond, func(time.Time) { runs.Add(1) })
	require.Eventually(t, func() bool { return runs.Load() >= 1 }, time.Second, time.Millisecond)
	scheduler.Stop()
	scheduler.Stop()

	runs.Store(0)
	scheduler.Start()
	require.Eventually(t, func() bool { return runs.Load() >= 1 }, time.Second, time.Millisecond)
	scheduler.Stop()
}

func TestStopWaitsForInFlightRun(t *testing.T) {
	t.Parallel()

	started := make(chan struct{}, 1)
	var finished atomic.Bool
	scheduler := New()
	scheduler.Every("blocking", 2*time.Millisecond, func(time.Time) {
		select {
		case started <- struct{}{}:
		default:
		}
		time.Sleep(20 * time.Millisecond)
		finished.Store(true)
	})
	scheduler.Start()
	<-started
	scheduler.Stop()
	assert.True(t, finished.Load())
}
