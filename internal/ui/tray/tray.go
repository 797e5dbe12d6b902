package tray

import (
	"fmt"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
)

// Callbacks defines tray action handlers.
type Callbacks struct {
	OnShow           func()
	OnStartStop      func()
	OnPauseResume    func()
	OnResumeActivity func()
	OnPreferences    func()
	OnQuit           func()
}

// Status is what the tray shows about the running session.
type Status struct {
	Running bool
	Paused  bool
	Resting bool
	Title   string
	Elapsed string
}

// Label renders the status as the first menu line.
func (status Status) Label() string {
	switch {
	case !status.Running:
		return "Not working"
	case status.Resting:
		return fmt.Sprintf("Resting · %s (%s)", status.Title, status.Elapsed)
	case status.Paused:
		return fmt.Sprintf("Paused · %s (%s)", status.Title, status.Elapsed)
	default:
		return fmt.Sprintf("Working · %s (%s)", status.Title, status.Elapsed)
	}
}

// Manager handles system tray state.
type Manager struct {
	mu           sync.Mutex
	app          desktop.App
	callbacks    Callbacks
	statusItem   *fyne.MenuItem
	startItem    *fyne.MenuItem
	pauseItem    *fyne.MenuItem
	activityItem *fyne.MenuItem
	status       Status
	closed       bool
}

// New creates a tray manager with the provided callbacks.
func New(app desktop.App, callbacks Callbacks) *Manager {
	manager := &Manager{
		app:       app,
		callbacks: callbacks,
	}

	manager.statusItem = fyne.NewMenuItem("Not working", nil)
	manager.statusItem.Disabled = true
	manager.startItem = fyne.NewMenuItem("Start work", invoke(callbacks.OnStartStop))
	manager.pauseItem = fyne.NewMenuItem("Pause", invoke(callbacks.OnPauseResume))
	manager.pauseItem.Disabled = true
	manager.activityItem = fyne.NewMenuItem("I'm back", invoke(callbacks.OnResumeActivity))
	manager.activityItem.Disabled = true

	manager.refreshMenu()
	return manager
}

// SetStatus updates the labels and enabled items. It does nothing once the
// manager is closed.
func (manager *Manager) SetStatus(status Status) {
	manager.mu.Lock()
	if manager.closed {
		manager.mu.Unlock()
		return
	}
	manager.status = status
	manager.statusItem.Label = status.Label()
	if status.Running {
		manager.startItem.Label = "Stop work"
	} else {
		manager.startItem.Label = "Start work"
	}
	manager.pauseItem.Disabled = !status.Running || status.Resting
	if status.Paused && !status.Resting {
		manager.pauseItem.Label = "Resume"
	} else {
		manager.pauseItem.Label = "Pause"
	}
	manager.activityItem.Disabled = !status.Resting
	manager.mu.Unlock()

	manager.refreshMenu()
}

// Close detaches the manager from the tray before the driver tears it down.
func (manager *Manager) Close() error {
	manager.mu.Lock()
	manager.closed = true
	manager.mu.Unlock()
	return nil
}

// Status returns the last status shown.
func (manager *Manager) Status() Status {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	return manager.status
}

func (manager *Manager) refreshMenu() {
	if manager.app == nil {
		return
	}
	manager.app.SetSystemTrayMenu(fyne.NewMenu("WorkTrail",
		manager.statusItem,
		fyne.NewMenuItem("Show WorkTrail", invoke(manager.callbacks.OnShow)),
		fyne.NewMenuItemSeparator(),
		manager.startItem,
		manager.pauseItem,
		manager.activityItem,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Preferences", invoke(manager.callbacks.OnPreferences)),
		fyne.NewMenuItem("Quit", invoke(manager.callbacks.OnQuit)),
	))
}

func invoke(callback func()) func() {
	return func() {
		if callback != nil {
			callback()
		}
	}
}
