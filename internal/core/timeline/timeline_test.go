package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worktrail/internal/core/model"
)

func TestAppendRules(t *testing.T) {
	t.Parallel()

	events, ok := Append(nil, event(model.EventResume, 1_000))
	assert.False(t, ok)
	assert.Empty(t, events)

	events, ok = Append(events, event(model.EventPause, 60_000))
	require.True(t, ok)

	events, ok = Append(events, event(model.EventRest, 70_000))
	assert.False(t, ok, "stop while stopped must be ignored")
	require.Len(t, events, 1)

	events, ok = Append(events, event(model.EventResume, 120_000))
	require.True(t, ok)
	require.Len(t, events, 2)
	assert.Equal(t, int64(60_000), events[0].Duration)
	assert.Equal(t, -1, OpenStop(events))
}

func TestAppendClampsTimestamps(t *testing.T) {
	t.Parallel()

	events, _ := Append(nil, event(model.EventPause, 5_000))
	events, ok := Append(events, event(model.EventResume, 4_000))
	require.True(t, ok)
	assert.Equal(t, at(5_001), events[1].Timestamp)
	assert.Equal(t, int64(1), events[0].Duration)
}

func TestAppendDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	events, _ := Append(nil, event(model.EventPause, 1_000))
	before := append([]model.TimelineEvent(nil), events...)
	_, _ = Append(events, event(model.EventResume, 2_000))
	assert.Equal(t, before, events)
}

func TestOpenStopUsesTimestamps(t *testing.T) {
	t.Parallel()

	events := []model.TimelineEvent{
		event(model.EventPause, 30_000),
		event(model.EventResume, 20_000),
		event(model.EventRest, 10_000),
	}
	assert.Equal(t, 0, OpenStop(events))
}

func TestCloseOpen(t *testing.T) {
	t.Parallel()

	events, _ := Append(nil, event(model.EventPause, 1_000))
	closed := CloseOpen(events, at(4_000))
	assert.Equal(t, int64(3_000), closed[0].Duration)
	assert.Zero(t, events[0].Duration)

	latest, ok := Latest(closed)
	require.True(t, ok)
	assert.Equal(t, at(1_000), latest)
}
