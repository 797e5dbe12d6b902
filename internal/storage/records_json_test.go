package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worktrail/internal/core/model"
)

var t0 = time.UnixMilli(1_772_442_000_000).UTC()

func sealedSession(id string, start time.Time, rawMillis, pauseMillis int64) model.WorkSession {
	end := start.Add(time.Duration(rawMillis) * time.Millisecond)
	session := model.WorkSession{
		ID:        id,
		Title:     "Session " + id,
		Tags:      []string{"client"},
		StartTime: start,
		EndTime:   &end,
		Duration:  rawMillis,
		Timeline:  []model.TimelineEvent{},
	}
	if pauseMillis > 0 {
		session.Timeline = []model.TimelineEvent{
			{ID: id + "-p", Type: model.EventPause, Timestamp: start.Add(time.Second), Duration: pauseMillis},
			{ID: id + "-r", Type: model.EventResume, Timestamp: start.Add(time.Second + time.Duration(pauseMillis)*time.Millisecond)},
		}
	}
	return session
}

func TestRecordsRoundTrip(t *testing.T) {
	t.Parallel()

	records, err := NewRecords(t.TempDir())
	require.NoError(t, err)

	sealed := sealedSession("a", t0, 180_000, 60_000)
	sealed.Description = "quarterly numbers"
	active := model.WorkSession{
		ID:        "b",
		Title:     "Still going",
		Tags:      []string{},
		StartTime: t0.Add(time.Hour),
		IsActive:  true,
		Timeline:  []model.TimelineEvent{},
	}
	require.NoError(t, records.SaveSession(sealed))
	require.NoError(t, records.SaveSession(active))

	loaded, err := records.SessionsForDate(t0)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, sealed, loaded[0])
	assert.Equal(t, active, loaded[1])
}

func TestRecordsWritesEmptyTimelineAsArray(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	records, err := NewRecords(dir)
	require.NoError(t, err)

	require.NoError(t, records.SaveSession(model.WorkSession{ID: "x", Title: "x", StartTime: t0, IsActive: true}))

	document, err := records.LoadDay(t0)
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(dir, sessionsDirName, document.Date+".json"))
	require.NoError(t, err)

	var raw struct {
		Sessions []map[string]json.RawMessage `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw.Sessions, 1)
	assert.Equal(t, "[]", string(raw.Sessions[0]["timeline"]))
	assert.Equal(t, "[]", string(raw.Sessions[0]["tags"]))
	assert.NotContains(t, raw.Sessions[0], "endTime")
	assert.NotContains(t, raw.Sessions[0], "duration")
}

func TestRecordsUpsertAndTotals(t *testing.T) {
	t.Parallel()

	records, err := NewRecords(t.TempDir())
	require.NoError(t, err)

	running := model.WorkSession{ID: "a", Title: "a", StartTime: t0, IsActive: true}
	require.NoError(t, records.SaveSession(running))
	require.NoError(t, records.SaveSession(sealedSession("a", t0, 180_000, 60_000)))
	require.NoError(t, records.SaveSession(sealedSession("b", t0.Add(time.Hour), 90_000, 0)))

	document, err := records.LoadDay(t0)
	require.NoError(t, err)
	require.Len(t, document.Sessions, 2)
	assert.Equal(t, DayTotals{SessionCount: 2, RawDuration: 270_000, WorkedDuration: 210_000}, document.Totals)
}

func TestRecordsRangeAndDelete(t *testing.T) {
	t.Parallel()

	records, err := NewRecords(t.TempDir())
	require.NoError(t, err)

	day1 := sealedSession("d1", t0, 1_000, 0)
	day2 := sealedSession("d2", t0.AddDate(0, 0, 1), 1_000, 0)
	day4 := sealedSession("d4", t0.AddDate(0, 0, 3), 1_000, 0)
	for _, session := range []model.WorkSession{day1, day2, day4} {
		require.NoError(t, records.SaveSession(session))
	}

	inRange, err := records.SessionsInRange(t0, t0.AddDate(0, 0, 2))
	require.NoError(t, err)
	require.Len(t, inRange, 2)
	assert.Equal(t, "d1", inRange[0].ID)
	assert.Equal(t, "d2", inRange[1].ID)

	require.NoError(t, records.DeleteSession(day2.StartTime, "d2"))
	remaining, err := records.SessionsForDate(day2.StartTime)
	require.NoError(t, err)
	assert.Empty(t, remaining)
	assert.ErrorIs(t, records.DeleteSession(day2.StartTime, "d2"), os.ErrNotExist)

	empty, err := records.SessionsForDate(t0.AddDate(1, 0, 0))
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestRecordsCorruptDocument(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	records, err := NewRecords(dir)
	require.NoError(t, err)

	document, err := records.LoadDay(t0)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, sessionsDirName, document.Date+".json"), []byte("{"), 0o644))

	_, err = records.SessionsForDate(t0)
	assert.Error(t, err)
	assert.Error(t, records.SaveSession(sealedSession("z", t0, 1, 0)), "persistence failures propagate")
}
