// Package dashboard is the main window: the running session, its live
// duration, the auto-rest countdown and today's records.
package dashboard

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"worktrail/internal/core/idle"
	"worktrail/internal/core/model"
	"worktrail/internal/core/syncer"
)

const actionTimeout = 10 * time.Second

// Sessions is the session mirror driven by the window.
type Sessions interface {
	State() syncer.State
	Elapsed(now time.Time) time.Duration
	Start(ctx context.Context, title, description string, tags []string) (model.WorkSession, error)
	Stop(ctx context.Context) (model.WorkSession, error)
	Pause(ctx context.Context) (model.WorkSession, error)
	Resume(ctx context.Context) (model.WorkSession, error)
	SwitchTo(ctx context.Context, title, description string, tags []string) (*model.WorkSession, error)
	Trigger(ctx context.Context, reason string)
}

// Rest exposes the auto-rest status and activity hooks.
type Rest interface {
	GetAutoRestStatus() model.RestStatus
	RecordActivity()
	ResetActivityTimer()
}

// History reads and deletes stored records.
type History interface {
	SessionsForDate(ctx context.Context, date time.Time) ([]model.WorkSession, error)
	DeleteSession(ctx context.Context, id string, date time.Time) error
}

// Dashboard is the main window.
type Dashboard struct {
	window   fyne.Window
	sessions Sessions
	rest     Rest
	history  History
	now      func() time.Time

	timerData  binding.String
	statusData binding.String
	restData   binding.String

	titleEntry   *widget.Entry
	tagsEntry    *widget.Entry
	startButton  *widget.Button
	pauseButton  *widget.Button
	switchButton *widget.Button
	restButton   *widget.Button
	list         *widget.List

	mu    sync.Mutex
	today []model.WorkSession
}

// New builds the dashboard window. It starts hidden.
func New(app fyne.App, sessions Sessions, rest Rest, history History) *Dashboard {
	dashboard := &Dashboard{
		window:     app.NewWindow("WorkTrail"),
		sessions:   sessions,
		rest:       rest,
		history:    history,
		now:        time.Now,
		timerData:  binding.NewString(),
		statusData: binding.NewString(),
		restData:   binding.NewString(),
	}
	dashboard.window.SetContent(dashboard.makeUI())
	dashboard.window.Resize(fyne.NewSize(460, 520))
	dashboard.window.SetCloseIntercept(func() {
		dashboard.window.Hide()
	})
	dashboard.hookActivity()
	dashboard.Refresh(sessions.State())
	return dashboard
}

// Window returns the underlying fyne window.
func (dashboard *Dashboard) Window() fyne.Window {
	return dashboard.window
}

// Show raises the window, reconciles the mirrored session and reloads
// today's records.
func (dashboard *Dashboard) Show() {
	dashboard.window.Show()
	dashboard.window.RequestFocus()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		dashboard.sessions.Trigger(ctx, "navigation")
		dashboard.ReloadHistory()
	}()
}

func (dashboard *Dashboard) makeUI() fyne.CanvasObject {
	_ = dashboard.timerData.Set(FormatDuration(0))

	timerLabel := widget.NewLabelWithData(dashboard.timerData)
	timerLabel.TextStyle = fyne.TextStyle{Bold: true, Monospace: true}
	timerLabel.Alignment = fyne.TextAlignCenter

	statusLabel := widget.NewLabelWithData(dashboard.statusData)
	statusLabel.Alignment = fyne.TextAlignCenter
	restLabel := widget.NewLabelWithData(dashboard.restData)
	restLabel.Alignment = fyne.TextAlignCenter

	dashboard.titleEntry = widget.NewEntry()
	dashboard.titleEntry.SetPlaceHolder("What are you working on?")
	dashboard.titleEntry.OnChanged = func(string) { dashboard.rest.RecordActivity() }
	dashboard.tagsEntry = widget.NewEntry()
	dashboard.tagsEntry.SetPlaceHolder("tags, comma separated")

	dashboard.startButton = widget.NewButtonWithIcon("Start", theme.MediaPlayIcon(), dashboard.toggleStart)
	dashboard.pauseButton = widget.NewButtonWithIcon("Pause", theme.MediaPauseIcon(), dashboard.togglePause)
	dashboard.switchButton = widget.NewButtonWithIcon("Switch", theme.MediaSkipNextIcon(), dashboard.switchTask)
	dashboard.restButton = widget.NewButtonWithIcon("I'm back", theme.ViewRefreshIcon(), func() {
		dashboard.rest.ResetActivityTimer()
		dashboard.Tick(dashboard.now())
	})

	dashboard.list = widget.NewList(
		func() int {
			dashboard.mu.Lock()
			defer dashboard.mu.Unlock()
			return len(dashboard.today)
		},
		func() fyne.CanvasObject {
			return container.NewBorder(nil, nil, nil,
				container.NewHBox(widget.NewLabel("00:00:00"), widget.NewButtonWithIcon("", theme.DeleteIcon(), nil)),
				widget.NewLabel("Title"))
		},
		dashboard.updateRow,
	)

	inputs := container.NewVBox(
		dashboard.titleEntry,
		dashboard.tagsEntry,
		container.NewGridWithColumns(3, dashboard.startButton, dashboard.pauseButton, dashboard.switchButton),
	)
	header := container.NewVBox(
		timerLabel,
		statusLabel,
		container.NewBorder(nil, nil, nil, dashboard.restButton, restLabel),
		inputs,
		widget.NewSeparator(),
		widget.NewLabelWithStyle("Today", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
	)
	return container.NewBorder(header, nil, nil, nil, dashboard.list)
}

// hookActivity feeds key presses on the window to the idle monitor, for
// systems without native idle detection.
func (dashboard *Dashboard) hookActivity() {
	onKey := func(event *fyne.KeyEvent) {
		if idle.IsActivityKey(string(event.Name)) {
			dashboard.rest.RecordActivity()
		}
	}
	if deskCanvas, ok := dashboard.window.Canvas().(desktop.Canvas); ok {
		deskCanvas.SetOnKeyDown(onKey)
		return
	}
	dashboard.window.Canvas().SetOnTypedKey(onKey)
}

func (dashboard *Dashboard) updateRow(index widget.ListItemID, item fyne.CanvasObject) {
	dashboard.mu.Lock()
	if index >= len(dashboard.today) {
		dashboard.mu.Unlock()
		return
	}
	session := dashboard.today[len(dashboard.today)-1-index]
	dashboard.mu.Unlock()

	box := item.(*fyne.Container)
	title := box.Objects[0].(*widget.Label)
	right := box.Objects[1].(*fyne.Container)
	duration := right.Objects[0].(*widget.Label)
	deleteButton := right.Objects[1].(*widget.Button)

	label, durationText := SessionRow(session, dashboard.now())
	title.SetText(label)
	duration.SetText(durationText)
	if session.IsActive {
		deleteButton.Disable()
	} else {
		deleteButton.Enable()
	}
	deleteButton.OnTapped = func() {
		dialog.ShowConfirm("Delete session", "Delete \""+session.Title+"\" and its screenshots?", func(confirmed bool) {
			if !confirmed {
				return
			}
			dashboard.run("delete session", func(ctx context.Context) error {
				return dashboard.history.DeleteSession(ctx, session.ID, session.StartTime)
			})
		}, dashboard.window)
	}
}

// Tick refreshes the live duration and the rest line. Called every second.
func (dashboard *Dashboard) Tick(now time.Time) {
	elapsed := dashboard.sessions.Elapsed(now)
	restText := RestLine(dashboard.rest.GetAutoRestStatus(), now)
	fyne.Do(func() {
		_ = dashboard.timerData.Set(FormatDuration(elapsed))
		_ = dashboard.restData.Set(restText)
		dashboard.list.Refresh()
	})
}

// Refresh applies a new mirrored state to the controls.
func (dashboard *Dashboard) Refresh(state syncer.State) {
	fyne.Do(func() {
		_ = dashboard.statusData.Set(StatusLine(state))
		if hasSession(state) {
			dashboard.startButton.SetText("Stop")
			dashboard.startButton.SetIcon(theme.MediaStopIcon())
			dashboard.pauseButton.Enable()
			dashboard.switchButton.Enable()
		} else {
			dashboard.startButton.SetText("Start")
			dashboard.startButton.SetIcon(theme.MediaPlayIcon())
			dashboard.pauseButton.Disable()
			dashboard.switchButton.Disable()
			_ = dashboard.timerData.Set(FormatDuration(0))
		}
		if state.Current != nil && state.Current.IsPaused {
			dashboard.pauseButton.SetText("Resume")
			dashboard.pauseButton.SetIcon(theme.MediaPlayIcon())
		} else {
			dashboard.pauseButton.SetText("Pause")
			dashboard.pauseButton.SetIcon(theme.MediaPauseIcon())
		}
	})
	go dashboard.ReloadHistory()
}

// ReloadHistory reloads today's records from the store.
func (dashboard *Dashboard) ReloadHistory() {
	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()
	sessions, err := dashboard.history.SessionsForDate(ctx, dashboard.now())
	if err != nil {
		log.Printf("dashboard: load today: %v", err)
		return
	}
	dashboard.mu.Lock()
	dashboard.today = sessions
	dashboard.mu.Unlock()
	fyne.Do(dashboard.list.Refresh)
}

func (dashboard *Dashboard) toggleStart() {
	if hasSession(dashboard.sessions.State()) {
		dashboard.run("stop work", func(ctx context.Context) error {
			_, err := dashboard.sessions.Stop(ctx)
			return err
		})
		return
	}
	title, tags, ok := dashboard.readInputs()
	if !ok {
		return
	}
	dashboard.run("start work", func(ctx context.Context) error {
		_, err := dashboard.sessions.Start(ctx, title, "", tags)
		return err
	})
}

func (dashboard *Dashboard) togglePause() {
	state := dashboard.sessions.State()
	if state.Current == nil {
		return
	}
	if state.Current.IsPaused {
		dashboard.run("resume work", func(ctx context.Context) error {
			_, err := dashboard.sessions.Resume(ctx)
			return err
		})
		return
	}
	dashboard.run("pause work", func(ctx context.Context) error {
		_, err := dashboard.sessions.Pause(ctx)
		return err
	})
}

func (dashboard *Dashboard) switchTask() {
	title, tags, ok := dashboard.readInputs()
	if !ok {
		return
	}
	dashboard.run("switch work", func(ctx context.Context) error {
		_, err := dashboard.sessions.SwitchTo(ctx, title, "", tags)
		return err
	})
}

func (dashboard *Dashboard) readInputs() (string, []string, bool) {
	title := strings.TrimSpace(dashboard.titleEntry.Text)
	if title == "" {
		dashboard.window.Canvas().Focus(dashboard.titleEntry)
		return "", nil, false
	}
	tags := ParseTags(dashboard.tagsEntry.Text)
	dashboard.titleEntry.SetText("")
	dashboard.tagsEntry.SetText("")
	return title, tags, true
}

// run performs a backend call off the UI goroutine. Failures are already
// surfaced as notices by the synchronizer; they are only logged here.
func (dashboard *Dashboard) run(action string, call func(ctx context.Context) error) {
	dashboard.rest.RecordActivity()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		if err := call(ctx); err != nil {
			log.Printf("dashboard: %s: %v", action, err)
		}
		dashboard.ReloadHistory()
	}()
}

func hasSession(state syncer.State) bool {
	return state.IsWorking && state.Current != nil
}
