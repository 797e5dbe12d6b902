// Package app owns the backend lifecycle: it wires the tracker, the idle
// monitor, the rest machine and the capture controller together, runs their
// timers and tears everything down in a fixed order.
package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"worktrail/internal/core/autorest"
	"worktrail/internal/core/capture"
	"worktrail/internal/core/idle"
	"worktrail/internal/core/model"
	"worktrail/internal/core/scheduler"
	"worktrail/internal/core/tracker"
	"worktrail/internal/ui/preferences"
)

// SettingsStore persists user preferences.
type SettingsStore interface {
	Save(settings preferences.Settings) error
}

// SettingsStoreFunc adapts a function to SettingsStore.
type SettingsStoreFunc func(preferences.Settings) error

// Save calls fn.
func (fn SettingsStoreFunc) Save(settings preferences.Settings) error {
	return fn(settings)
}

// Artifacts stores screenshots and removes them with their session.
type Artifacts interface {
	capture.ArtifactStore
	tracker.ArtifactStore
}

// Options wires the collaborators of an App.
type Options struct {
	Settings      preferences.Settings
	Store         tracker.Store
	Artifacts     Artifacts
	Querier       idle.Querier
	Source        capture.Source
	SettingsStore SettingsStore
	Now           func() time.Time
}

type releaser struct {
	name    string
	release func() error
}

// App is the backend lifecycle object.
type App struct {
	mu            sync.Mutex
	settings      preferences.Settings
	settingsStore SettingsStore
	scheduler     *scheduler.Scheduler
	monitor       idle.Monitor
	machine       *autorest.Machine
	tracker       *tracker.Service
	capture       *capture.Controller
	releasers     []releaser
	started       bool
	shutdownOnce  sync.Once
}

// New builds an App. Nothing runs until Start.
func New(options Options) *App {
	if options.Now == nil {
		options.Now = time.Now
	}
	app := &App{
		settings:      options.Settings,
		settingsStore: options.SettingsStore,
		scheduler:     scheduler.New(),
	}

	app.tracker = tracker.New(options.Store, tracker.Options{
		Now:       options.Now,
		Artifacts: options.Artifacts,
	})
	app.monitor = idle.New(options.Querier, idle.Options{
		Now: options.Now,
		OnDowngrade: func(err error) {
			log.Printf("idle: native detection disabled: %v", err)
			app.machine.ReportIdleFallback(err)
		},
	})
	app.machine = autorest.New(options.Settings.AutoRestConfig(), app.monitor, autorest.Options{
		Now:  options.Now,
		Sink: app.tracker,
	})

	var artifacts capture.ArtifactStore = discardArtifacts{}
	if options.Artifacts != nil {
		artifacts = options.Artifacts
	}
	source := options.Source
	if source == nil {
		source = unsupportedSource{}
	}
	captureConfig := options.Settings.CaptureConfig()
	app.capture = capture.New(source, artifacts, captureConfig.Interval, captureConfig.Enabled)

	if closer, ok := options.Querier.(io.Closer); ok {
		app.AddReleaser("idle querier", closer.Close)
	}

	app.scheduler.Every("idle-poll", model.IdlePollInterval, app.machine.Poll)
	return app
}

// Start restores the session left by a previous run and starts the timers.
func (app *App) Start(ctx context.Context) error {
	app.mu.Lock()
	if app.started {
		app.mu.Unlock()
		return nil
	}
	app.started = true
	app.mu.Unlock()

	if _, err := app.tracker.Restore(ctx); err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	app.scheduler.Start()
	return nil
}

// Every registers a periodic job owned by the lifecycle. It stops on
// Shutdown with every other timer.
func (app *App) Every(name string, interval time.Duration, run func(time.Time)) {
	app.scheduler.Every(name, interval, run)
}

// Jobs returns the names of the registered periodic jobs.
func (app *App) Jobs() []string {
	return app.scheduler.Jobs()
}

// AddReleaser registers an OS resource released on Shutdown, in
// registration order.
func (app *App) AddReleaser(name string, release func() error) {
	if release == nil {
		return
	}
	app.mu.Lock()
	app.releasers = append(app.releasers, releaser{name: name, release: release})
	app.mu.Unlock()
}

// Shutdown stops timers, then capture, then closes observer channels, then
// releases OS resources. Only the first call has an effect.
func (app *App) Shutdown() {
	app.shutdownOnce.Do(func() {
		app.scheduler.Stop()
		app.capture.Stop()
		app.machine.Close()
		app.tracker.Close()

		app.mu.Lock()
		releasers := append([]releaser(nil), app.releasers...)
		app.mu.Unlock()
		for _, entry := range releasers {
			if err := entry.release(); err != nil {
				log.Printf("shutdown: release %s: %v", entry.name, err)
			}
		}
	})
}

// Tracker returns the canonical session owner.
func (app *App) Tracker() *tracker.Service {
	return app.tracker
}

// Machine returns the rest state machine.
func (app *App) Machine() *autorest.Machine {
	return app.machine
}

// Capture returns the screenshot controller.
func (app *App) Capture() *capture.Controller {
	return app.capture
}

// Settings returns the settings currently applied.
func (app *App) Settings() preferences.Settings {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.settings
}

// GetAutoRestStatus returns the rest machine status.
func (app *App) GetAutoRestStatus() model.RestStatus {
	return app.machine.Status()
}

// UpdateAutoRestSettings applies and persists the auto-rest preferences.
func (app *App) UpdateAutoRestSettings(enabled bool, idleMinutes int) error {
	if idleMinutes < 1 {
		return fmt.Errorf("update auto-rest settings: idle threshold must be at least one minute, got %d", idleMinutes)
	}
	app.mu.Lock()
	settings := app.settings
	app.mu.Unlock()

	settings.AutoRestEnabled = enabled
	settings.IdleThreshold = time.Duration(idleMinutes) * time.Minute
	app.ApplySettings(settings)
	return app.persist(settings)
}

// ApplySettings pushes settings into the running components without
// persisting them. Used for edits loaded from disk.
func (app *App) ApplySettings(settings preferences.Settings) {
	app.mu.Lock()
	app.settings = settings
	app.mu.Unlock()

	app.machine.UpdateConfig(settings.AutoRestConfig())
	captureConfig := settings.CaptureConfig()
	app.capture.Configure(captureConfig.Interval, captureConfig.Enabled)
}

// SaveSettings applies and persists settings.
func (app *App) SaveSettings(settings preferences.Settings) error {
	app.ApplySettings(settings)
	return app.persist(settings)
}

// ResetActivityTimer records user activity and ends a rest in progress.
func (app *App) ResetActivityTimer() {
	app.machine.ResetActivity()
}

// RecordActivity feeds a proxy input signal (key press, window focus) to the
// idle monitor.
func (app *App) RecordActivity() {
	app.monitor.OnActivity()
}

func (app *App) persist(settings preferences.Settings) error {
	if app.settingsStore == nil {
		return nil
	}
	if err := app.settingsStore.Save(settings); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

type unsupportedSource struct{}

func (unsupportedSource) Capture() ([]byte, error) {
	return nil, capture.ErrUnsupported
}

type discardArtifacts struct{}

func (discardArtifacts) SaveScreenshot(string, time.Time, []byte) error {
	return nil
}
