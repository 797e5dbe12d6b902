package main

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"

	"worktrail/internal/app"
	"worktrail/internal/core/autorest"
	"worktrail/internal/core/model"
	"worktrail/internal/core/syncer"
	"worktrail/internal/platform"
	"worktrail/internal/storage"
	"worktrail/internal/ui/dashboard"
	"worktrail/internal/ui/overlay"
	"worktrail/internal/ui/preferences"
	"worktrail/internal/ui/tray"
)

func runGUI(opts options) error {
	activations := make(chan struct{}, 1)
	guard, err := platform.AcquireSingleInstance(appName, opts.dataDir, func() {
		select {
		case activations <- struct{}{}:
		default:
		}
	})
	if err != nil {
		if errors.Is(err, platform.ErrAlreadyRunning) {
			log.Printf("single instance: %v", err)
			return nil
		}
		return err
	}

	records, err := storage.NewRecords(opts.dataDir)
	if err != nil {
		_ = guard.Release()
		return err
	}
	settingsPath := storage.SettingsFile(opts.dataDir)
	settings, err := storage.LoadSettingsFile(settingsPath)
	if err != nil {
		log.Printf("settings: %v; using defaults", err)
	}

	service := platform.NewService()
	backend := app.New(app.Options{
		Settings:  settings,
		Store:     records,
		Artifacts: storage.NewScreenshots(opts.dataDir),
		Querier:   platform.NewIdleQuerier(),
		Source:    platform.NewScreenSource(),
		SettingsStore: app.SettingsStoreFunc(func(updated preferences.Settings) error {
			return storage.SaveSettingsFile(settingsPath, updated)
		}),
	})

	fyneApp := fyneapp.NewWithID("app.worktrail")
	fyneApp.SetIcon(theme.HistoryIcon())
	desktopApp, ok := fyneApp.(desktop.App)
	if !ok {
		log.Printf("system tray unsupported on this platform")
	}

	notify := func(message string) {
		fyneApp.SendNotification(fyne.NewNotification(appName, message))
	}
	sessions := syncer.New(backend.Tracker(), syncer.Options{
		Cache:   storage.NewSessionCache(opts.dataDir),
		Capture: backend.Capture(),
		Notifier: syncer.NotifierFunc(func(notice syncer.Notice) {
			syncer.LogNotifier{}.Notify(notice)
			if notice.Kind != syncer.NoticeSuccess {
				notify(notice.Message)
			}
		}),
		Config: model.DefaultSyncConfig(),
	})

	dash := dashboard.New(fyneApp, sessions, backend, backend.Tracker())
	restBanner := overlay.New(fyneApp, backend.Machine().ResumeActivity)
	prefsWindow := preferences.New(fyneApp, settings, func(updated preferences.Settings) {
		if err := backend.SaveSettings(updated); err != nil {
			log.Printf("settings: %v", err)
			notify("Could not save preferences: " + err.Error())
		}
		applyLaunchAtLogin(service, updated.LaunchAtLogin)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var trayManager *tray.Manager
	refreshTray := func(now time.Time) {
		if trayManager == nil {
			return
		}
		status := trayStatus(sessions.State(), sessions.Elapsed(now), backend.Machine().State() == autorest.StateResting)
		fyne.Do(func() { trayManager.SetStatus(status) })
	}
	if desktopApp != nil {
		trayManager = tray.New(desktopApp, tray.Callbacks{
			OnShow: dash.Show,
			OnStartStop: func() {
				if !sessions.State().IsWorking {
					dash.Show()
					return
				}
				go func() {
					if _, err := sessions.Stop(context.Background()); err != nil {
						log.Printf("tray: stop work: %v", err)
					}
				}()
			},
			OnPauseResume: func() {
				go togglePause(sessions)
			},
			OnResumeActivity: backend.ResetActivityTimer,
			OnPreferences:    prefsWindow.Show,
			OnQuit:           quitHandler(backend, cancel, fyneApp.Quit),
		})
		desktopApp.SetSystemTrayIcon(theme.HistoryIcon())
		desktopApp.SetSystemTrayWindow(dash.Window())
	}

	sessions.OnChange(func(state syncer.State) {
		dash.Refresh(state)
		refreshTray(time.Now())
	})

	go func() {
		for range backend.Tracker().Subscribe(8) {
			sessions.Trigger(ctx, "session changed")
		}
	}()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-activations:
				fyne.Do(dash.Show)
			}
		}
	}()
	go func() {
		for event := range backend.Machine().Subscribe(8) {
			handleRestEvent(event, sessions.State().IsWorking, notify, restBanner)
			refreshTray(time.Now())
		}
	}()

	backend.Every("display-tick", model.DisplayTick, func(now time.Time) {
		dash.Tick(now)
		fyne.Do(func() { restBanner.Tick(now) })
	})
	backend.Every("menu-tick", model.MenuTick, refreshTray)
	backend.Every("reconcile", sessions.ReconcileInterval(), func(time.Time) {
		sessions.Trigger(ctx, "periodic")
	})

	watcher, err := storage.WatchSettings(settingsPath, func(updated preferences.Settings) {
		backend.ApplySettings(updated)
		fyne.Do(func() { prefsWindow.UpdateSettings(updated) })
	})
	if err != nil {
		log.Printf("settings: %v", err)
	} else {
		backend.AddReleaser("settings watcher", watcher.Close)
	}
	if trayManager != nil {
		backend.AddReleaser("tray", trayManager.Close)
	}
	backend.AddReleaser("single instance", guard.Release)

	fyneApp.Lifecycle().SetOnEnteredForeground(func() {
		backend.RecordActivity()
		go sessions.Trigger(ctx, "foreground")
	})
	fyneApp.Lifecycle().SetOnStopped(func() {
		cancel()
		backend.Shutdown()
	})

	if err := backend.Start(ctx); err != nil {
		log.Printf("startup: %v", err)
	}
	if settings.LaunchAtLogin != service.LaunchAtLoginEnabled(appName) {
		applyLaunchAtLogin(service, settings.LaunchAtLogin)
	}
	go sessions.Trigger(ctx, "startup")

	dash.Show()
	fyneApp.Run()
	backend.Shutdown()
	return nil
}

func togglePause(sessions *syncer.Synchronizer) {
	state := sessions.State()
	if state.Current == nil {
		return
	}
	var err error
	if state.Current.IsPaused {
		_, err = sessions.Resume(context.Background())
	} else {
		_, err = sessions.Pause(context.Background())
	}
	if err != nil {
		log.Printf("tray: pause/resume: %v", err)
	}
}

// quitHandler stops every timer and releases the tray before the driver
// quits, so no tick reaches a torn-down tray.
func quitHandler(backend *app.App, cancel context.CancelFunc, quit func()) func() {
	return func() {
		cancel()
		backend.Shutdown()
		quit()
	}
}

func handleRestEvent(event autorest.Event, working bool, notify func(string), restBanner *overlay.Window) {
	if event.Type == autorest.EventAutoRest {
		switch event.AutoRest.Type {
		case model.RestStarted:
			if working {
				fyne.Do(func() { restBanner.ShowRest(event.AutoRest.Timestamp) })
			}
		case model.RestEnded:
			fyne.Do(restBanner.Hide)
		}
	}
	if message, ok := restNotice(event, working); ok {
		notify(message)
	}
}

// restNotice is the notification for a rest event. Rest transitions are
// only announced while a session is being tracked.
func restNotice(event autorest.Event, working bool) (string, bool) {
	switch event.Type {
	case autorest.EventIdleFallback:
		return "Idle detection is limited on this system; WorkTrail will watch its own window for activity.", true
	case autorest.EventAutoRest:
		if !working {
			return "", false
		}
		switch event.AutoRest.Type {
		case model.RestStarted:
			return "You've been away for a while, so your session is resting.", true
		case model.RestEnded:
			return "Welcome back. Your session is running again after " + dashboard.FormatDuration(event.AutoRest.Duration) + ".", true
		}
	}
	return "", false
}

func trayStatus(state syncer.State, elapsed time.Duration, resting bool) tray.Status {
	if state.Current == nil {
		return tray.Status{}
	}
	return tray.Status{
		Running: state.IsWorking,
		Paused:  state.Current.IsPaused,
		Resting: resting,
		Title:   state.Current.Title,
		Elapsed: dashboard.FormatDuration(elapsed),
	}
}

func applyLaunchAtLogin(service platform.Service, enabled bool) {
	execPath, err := os.Executable()
	if err != nil {
		log.Printf("launch at login: %v", err)
		return
	}
	if err := service.SetLaunchAtLogin(appName, execPath, enabled); err != nil {
		log.Printf("launch at login: %v", err)
	}
}
