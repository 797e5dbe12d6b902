package dashboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"worktrail/internal/core/model"
	"worktrail/internal/core/syncer"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "00:00:00", FormatDuration(-time.Second))
	assert.Equal(t, "00:02:00", FormatDuration(119600*time.Millisecond))
	assert.Equal(t, "26:01:05", FormatDuration(26*time.Hour+65*time.Second))
}

func TestParseTags(t *testing.T) {
	assert.Equal(t, []string{"client", "deep work"}, ParseTags(" client, ,deep work ,"))
	assert.Equal(t, []string{}, ParseTags(""))
}

func TestStatusLine(t *testing.T) {
	running := model.WorkSession{ID: "a", Title: "Report", IsActive: true}
	paused := running
	paused.IsPaused = true
	paused.Timeline = []model.TimelineEvent{{Type: model.EventPause, Timestamp: t0}}
	resting := running
	resting.IsPaused = true
	resting.Timeline = []model.TimelineEvent{{Type: model.EventRest, Timestamp: t0}}

	assert.Equal(t, "Not working", StatusLine(syncer.State{}))
	assert.Equal(t, "Working on Report", StatusLine(syncer.State{IsWorking: true, Current: &running}))
	assert.Equal(t, "Paused: Report", StatusLine(syncer.State{IsWorking: true, Current: &paused}))
	assert.Equal(t, "Resting: Report", StatusLine(syncer.State{IsWorking: true, Current: &resting}))
}

func TestRestLine(t *testing.T) {
	restStart := t0.Add(-90 * time.Second)
	until := int64(250)

	assert.Equal(t, "Auto-rest off", RestLine(model.RestStatus{}, t0))
	assert.Equal(t, "Resting for 1m 30s", RestLine(model.RestStatus{Enabled: true, IsResting: true, RestStartTime: &restStart}, t0))
	assert.Equal(t, "Auto-rest in 4m 10s", RestLine(model.RestStatus{Enabled: true, TimeUntilRestSeconds: &until}, t0))
	assert.Equal(t, "Auto-rest after 5 min idle", RestLine(model.RestStatus{Enabled: true, IdleTimeThresholdMinutes: 5}, t0))
}

func TestSessionRow(t *testing.T) {
	end := t0.Add(3 * time.Minute)
	sealed := model.WorkSession{
		Title:     "Report",
		Tags:      []string{"client"},
		StartTime: t0,
		EndTime:   &end,
		Timeline: []model.TimelineEvent{
			{Type: model.EventPause, Timestamp: t0.Add(time.Minute), Duration: 60_000},
			{Type: model.EventResume, Timestamp: t0.Add(2 * time.Minute)},
		},
	}
	label, duration := SessionRow(sealed, t0.Add(time.Hour))
	assert.Equal(t, "Report [client]", label)
	assert.Equal(t, "00:02:00", duration)

	running := model.WorkSession{Title: "Live", StartTime: t0, IsActive: true}
	label, duration = SessionRow(running, t0.Add(90*time.Second))
	assert.Equal(t, "Live", label)
	assert.Equal(t, "00:01:30 (running)", duration)
}
