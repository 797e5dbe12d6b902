package preferences

import (
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
)

// Window handles the preferences UI.
type Window struct {
	window          fyne.Window
	settings        Settings
	onSave          func(Settings)
	autoRestCheck   *widget.Check
	idleMinutes     *widget.Entry
	captureCheck    *widget.Check
	captureInterval *widget.Entry
	loginCheck      *widget.Check
	errorLabel      *widget.Label
}

// New creates a preferences window.
func New(app fyne.App, settings Settings, onSave func(Settings)) *Window {
	window := app.NewWindow("WorkTrail Preferences")

	prefs := &Window{
		window:          window,
		onSave:          onSave,
		autoRestCheck:   widget.NewCheck("Rest automatically when idle", nil),
		idleMinutes:     widget.NewEntry(),
		captureCheck:    widget.NewCheck("Take screenshots while working", nil),
		captureInterval: widget.NewEntry(),
		loginCheck:      widget.NewCheck("Launch at login", nil),
		errorLabel:      widget.NewLabel(""),
	}
	prefs.errorLabel.Importance = widget.DangerImportance
	prefs.errorLabel.Hide()
	prefs.UpdateSettings(settings)

	form := container.NewVBox(
		widget.NewLabelWithStyle("Auto-rest", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		prefs.autoRestCheck,
		container.NewHBox(widget.NewLabel("Idle threshold"), prefs.idleMinutes, widget.NewLabel("min")),
		widget.NewLabelWithStyle("Screenshots", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		prefs.captureCheck,
		container.NewHBox(widget.NewLabel("Every"), prefs.captureInterval, widget.NewLabel("min")),
		widget.NewLabelWithStyle("General", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		prefs.loginCheck,
		prefs.errorLabel,
	)

	saveButton := widget.NewButton("Save", prefs.handleSave)
	cancelButton := widget.NewButton("Cancel", func() {
		prefs.UpdateSettings(prefs.settings)
		window.Hide()
	})
	buttons := container.NewHBox(saveButton, layout.NewSpacer(), cancelButton)

	window.SetContent(container.NewBorder(nil, buttons, nil, nil, form))
	window.Resize(fyne.NewSize(380, 360))
	window.SetCloseIntercept(window.Hide)
	return prefs
}

// Show displays the preferences window.
func (prefs *Window) Show() {
	prefs.window.Show()
	prefs.window.RequestFocus()
}

// UpdateSettings replaces window values.
func (prefs *Window) UpdateSettings(settings Settings) {
	prefs.settings = settings
	prefs.autoRestCheck.SetChecked(settings.AutoRestEnabled)
	prefs.idleMinutes.SetText(strconv.Itoa(settings.IdleMinutes()))
	prefs.captureCheck.SetChecked(settings.CaptureEnabled)
	prefs.captureInterval.SetText(strconv.Itoa(int(settings.CaptureInterval / time.Minute)))
	prefs.loginCheck.SetChecked(settings.LaunchAtLogin)
	prefs.errorLabel.Hide()
}

func (prefs *Window) handleSave() {
	settings, problem := applyForm(prefs.settings, formValues{
		autoRest:        prefs.autoRestCheck.Checked,
		idleMinutes:     prefs.idleMinutes.Text,
		capture:         prefs.captureCheck.Checked,
		captureInterval: prefs.captureInterval.Text,
		launchAtLogin:   prefs.loginCheck.Checked,
	})
	if problem != "" {
		prefs.errorLabel.SetText(problem)
		prefs.errorLabel.Show()
		return
	}

	prefs.settings = settings
	prefs.errorLabel.Hide()
	if prefs.onSave != nil {
		prefs.onSave(settings)
	}
	prefs.window.Hide()
}

type formValues struct {
	autoRest        bool
	idleMinutes     string
	capture         bool
	captureInterval string
	launchAtLogin   bool
}

// applyForm validates the raw form values against base. It returns a
// user-facing problem when a value is rejected.
func applyForm(base Settings, values formValues) (Settings, string) {
	settings := base
	minutes, ok := parsePositiveInt(values.idleMinutes)
	if !ok {
		return base, "Idle threshold must be a whole number of minutes."
	}
	interval, ok := parsePositiveInt(values.captureInterval)
	if !ok {
		return base, "Screenshot interval must be a whole number of minutes."
	}

	settings.AutoRestEnabled = values.autoRest
	settings.IdleThreshold = time.Duration(minutes) * time.Minute
	settings.CaptureEnabled = values.capture
	settings.CaptureInterval = time.Duration(interval) * time.Minute
	settings.LaunchAtLogin = values.launchAtLogin
	return settings, ""
}

func parsePositiveInt(value string) (int, bool) {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || parsed <= 0 {
		return 0, false
	}
	return parsed, true
}
