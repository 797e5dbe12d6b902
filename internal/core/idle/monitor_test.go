package idle

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (clock *fakeClock) Now() time.Time {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	return clock.now
}

func (clock *fakeClock) Advance(delta time.Duration) {
	clock.mu.Lock()
	clock.now = clock.now.Add(delta)
	clock.mu.Unlock()
}

type scriptedQuerier struct {
	calls   int
	results []time.Duration
	errs    []error
}

func (querier *scriptedQuerier) IdleDuration() (time.Duration, error) {
	index := querier.calls
	querier.calls++
	if index < len(querier.errs) && querier.errs[index] != nil {
		return 0, querier.errs[index]
	}
	if index < len(querier.results) {
		return querier.results[index], nil
	}
	return 0, nil
}

func TestActivityMonitor(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(1_000, 0)}
	monitor := NewActivityMonitor(clock.Now)
	assert.Zero(t, monitor.Sample())

	clock.Advance(95 * time.Second)
	assert.Equal(t, int64(95), monitor.Sample())

	monitor.OnActivity()
	assert.Zero(t, monitor.Sample())
	assert.Equal(t, clock.Now(), monitor.LastActivity())
}

func TestNewSelectsStrategy(t *testing.T) {
	t.Parallel()

	_, isActivity := New(nil, Options{}).(*ActivityMonitor)
	assert.True(t, isActivity)

	_, isNative := New(&scriptedQuerier{}, Options{}).(*NativeMonitor)
	assert.True(t, isNative)
}

func TestNativeMonitorReportsQuery(t *testing.T) {
	t.Parallel()

	querier := &scriptedQuerier{results: []time.Duration{42 * time.Second, -time.Second}}
	monitor := NewNativeMonitor(querier, Options{})
	assert.Equal(t, int64(42), monitor.Sample())
	assert.Zero(t, monitor.Sample())
	assert.False(t, monitor.Downgraded())
}

func TestNativeMonitorDowngradesAfterRepeatedFailures(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(1_000, 0)}
	failure := errors.New("permission denied")
	querier := &scriptedQuerier{
		errs:    []error{failure, nil, failure, failure, failure},
		results: []time.Duration{0, 7 * time.Second, 0, 0, 0, 500 * time.Second},
	}
	downgrades := 0
	monitor := NewNativeMonitor(querier, Options{Now: clock.Now, OnDowngrade: func(err error) {
		downgrades++
		assert.ErrorIs(t, err, failure)
	}})

	clock.Advance(12 * time.Second)
	assert.Equal(t, int64(12), monitor.Sample(), "failed query answers from fallback")
	assert.Equal(t, int64(7), monitor.Sample(), "success resets the failure streak")
	monitor.Sample()
	monitor.Sample()
	assert.False(t, monitor.Downgraded())
	monitor.Sample()
	require.True(t, monitor.Downgraded())
	assert.Equal(t, 1, downgrades)

	callsAtDowngrade := querier.calls
	monitor.OnActivity()
	clock.Advance(3 * time.Second)
	assert.Equal(t, int64(3), monitor.Sample())
	assert.Equal(t, callsAtDowngrade, querier.calls, "no flapping back to native")
	assert.Equal(t, 1, downgrades)
}

func TestNativeMonitorUnsupportedDowngradesImmediately(t *testing.T) {
	t.Parallel()

	querier := &scriptedQuerier{errs: []error{ErrUnsupported}}
	var hint error
	monitor := NewNativeMonitor(querier, Options{OnDowngrade: func(err error) { hint = err }})
	monitor.Sample()
	assert.True(t, monitor.Downgraded())
	assert.ErrorIs(t, hint, ErrUnsupported)
}

func TestIsActivityKey(t *testing.T) {
	t.Parallel()

	assert.True(t, IsActivityKey("Space"))
	assert.False(t, IsActivityKey("Q"))
}
