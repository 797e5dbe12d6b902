package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worktrail/internal/core/autorest"
	"worktrail/internal/core/idle"
	"worktrail/internal/core/model"
	"worktrail/internal/storage"
	"worktrail/internal/ui/preferences"
)

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (clock *fixedClock) Now() time.Time {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	return clock.now
}

func (clock *fixedClock) Advance(step time.Duration) {
	clock.mu.Lock()
	clock.now = clock.now.Add(step)
	clock.mu.Unlock()
}

type stubQuerier struct {
	idle time.Duration
	err  error
}

func (querier stubQuerier) IdleDuration() (time.Duration, error) {
	return querier.idle, querier.err
}

func newTestApp(t *testing.T, querier idle.Querier, settingsStore SettingsStore) (*App, *storage.Records, *fixedClock) {
	t.Helper()
	dir := t.TempDir()
	records, err := storage.NewRecords(dir)
	require.NoError(t, err)

	clock := &fixedClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.Local)}
	app := New(Options{
		Settings:      preferences.DefaultSettings(),
		Store:         records,
		Artifacts:     storage.NewScreenshots(dir),
		Querier:       querier,
		SettingsStore: settingsStore,
		Now:           clock.Now,
	})
	t.Cleanup(app.Shutdown)
	return app, records, clock
}

func TestShutdownOrder(t *testing.T) {
	t.Parallel()

	app, _, _ := newTestApp(t, nil, nil)
	restEvents := app.Machine().Subscribe(1)
	sessionEvents := app.Tracker().Subscribe(1)

	var order []string
	app.AddReleaser("tray", func() error {
		_, restOpen := <-restEvents
		_, sessionOpen := <-sessionEvents
		assert.False(t, restOpen, "rest observers are closed before OS releasers")
		assert.False(t, sessionOpen, "session observers are closed before OS releasers")
		order = append(order, "tray")
		return nil
	})
	app.AddReleaser("instance", func() error {
		order = append(order, "instance")
		return errors.New("already released")
	})

	require.NoError(t, app.Start(context.Background()))
	app.Shutdown()
	app.Shutdown()

	assert.Equal(t, []string{"tray", "instance"}, order)
	_, running := app.Capture().Running()
	assert.False(t, running)
}

func TestStartRestoresActiveSession(t *testing.T) {
	t.Parallel()

	app, records, clock := newTestApp(t, nil, nil)
	require.NoError(t, records.SaveSession(model.WorkSession{
		ID:        "left-over",
		Title:     "Before the crash",
		StartTime: clock.Now().Add(-time.Hour),
		IsActive:  true,
	}))

	require.NoError(t, app.Start(context.Background()))
	active, err := app.Tracker().GetActiveSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, "left-over", active.ID)
	assert.Contains(t, app.Jobs(), "idle-poll")
}

func TestIdlePollRecordsRest(t *testing.T) {
	t.Parallel()

	app, _, clock := newTestApp(t, stubQuerier{idle: 10 * time.Minute}, nil)
	ctx := context.Background()
	session, err := app.Tracker().StartWork(ctx, "Deep work", "", nil)
	require.NoError(t, err)

	clock.Advance(10 * time.Minute)
	app.Machine().Poll(clock.Now())

	assert.Equal(t, autorest.StateResting, app.Machine().State())
	active, err := app.Tracker().GetActiveSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, session.ID, active.ID)
	assert.True(t, active.IsPaused)
	require.Len(t, active.Timeline, 1)
	assert.Equal(t, model.EventRest, active.Timeline[0].Type)

	app.ResetActivityTimer()
	assert.Equal(t, autorest.StateWorking, app.Machine().State())
	active, err = app.Tracker().GetActiveSession(ctx)
	require.NoError(t, err)
	assert.False(t, active.IsPaused)
}

func TestUnsupportedQuerierFallsBack(t *testing.T) {
	t.Parallel()

	app, _, clock := newTestApp(t, stubQuerier{err: idle.ErrUnsupported}, nil)
	events := app.Machine().Subscribe(4)

	app.Machine().Poll(clock.Now())

	select {
	case event := <-events:
		assert.Equal(t, autorest.EventIdleFallback, event.Type)
	case <-time.After(time.Second):
		t.Fatal("no fallback event")
	}
	assert.Equal(t, autorest.StateWorking, app.Machine().State())
}

func TestUpdateAutoRestSettingsPersists(t *testing.T) {
	t.Parallel()

	var saved []preferences.Settings
	store := SettingsStoreFunc(func(settings preferences.Settings) error {
		saved = append(saved, settings)
		return nil
	})
	app, _, _ := newTestApp(t, nil, store)

	require.NoError(t, app.UpdateAutoRestSettings(false, 15))
	status := app.GetAutoRestStatus()
	assert.False(t, status.Enabled)
	assert.Equal(t, 15, status.IdleTimeThresholdMinutes)
	require.Len(t, saved, 1)
	assert.Equal(t, 15*time.Minute, saved[0].IdleThreshold)
	assert.False(t, app.Settings().AutoRestEnabled)

	assert.Error(t, app.UpdateAutoRestSettings(true, 0))
	assert.Len(t, saved, 1)
}

func TestUpdateAutoRestSettingsReportsPersistFailure(t *testing.T) {
	t.Parallel()

	app, _, _ := newTestApp(t, nil, SettingsStoreFunc(func(preferences.Settings) error {
		return errors.New("read-only")
	}))

	err := app.UpdateAutoRestSettings(true, 7)
	require.Error(t, err)
	assert.Equal(t, 7, app.GetAutoRestStatus().IdleTimeThresholdMinutes, "settings still apply in memory")
}
