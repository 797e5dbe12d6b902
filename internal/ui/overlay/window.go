package overlay

import (
	"fmt"
	"image/color"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

const (
	bannerWidth   = float32(300)
	bannerOpacity = uint8(220)
)

// Window is the banner shown while an automatic rest is in progress.
// Methods must run on the fyne main goroutine.
type Window struct {
	window        fyne.Window
	background    *canvas.Rectangle
	titleLabel    *canvas.Text
	subtitleLabel *canvas.Text
	timerLabel    *canvas.Text
	backButton    *widget.Button
	restStart     time.Time
	visible       bool
}

type splashWindowDriver interface {
	CreateSplashWindow() fyne.Window
}

// New creates a hidden banner. onBack runs when the user ends the rest.
func New(app fyne.App, onBack func()) *Window {
	window := app.NewWindow("WorkTrail")
	if driver, ok := app.Driver().(splashWindowDriver); ok {
		// Splash windows are undecorated.
		window = driver.CreateSplashWindow()
	}
	if app.Icon() != nil {
		window.SetIcon(app.Icon())
	}
	window.SetPadded(false)

	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	background := canvas.NewRectangle(color.NRGBA{R: 24, G: 32, B: 40, A: bannerOpacity})

	titleLabel := canvas.NewText("Resting", white)
	titleLabel.TextStyle = fyne.TextStyle{Bold: true}
	titleLabel.TextSize = 20

	subtitleLabel := canvas.NewText("Work time is on hold while you are away.", white)
	subtitleLabel.TextSize = 13

	timerLabel := canvas.NewText("00:00", color.NRGBA{R: 232, G: 190, B: 66, A: 255})
	timerLabel.TextStyle = fyne.TextStyle{Bold: true, Monospace: true}
	timerLabel.TextSize = 18

	overlay := &Window{
		window:        window,
		background:    background,
		titleLabel:    titleLabel,
		subtitleLabel: subtitleLabel,
		timerLabel:    timerLabel,
	}
	overlay.backButton = widget.NewButton("I'm back", func() {
		overlay.Hide()
		if onBack != nil {
			onBack()
		}
	})
	overlay.backButton.Importance = widget.HighImportance

	content := container.NewPadded(container.NewVBox(
		titleLabel,
		subtitleLabel,
		container.NewBorder(nil, nil, timerLabel, overlay.backButton),
	))
	window.SetContent(container.NewStack(background, content))
	return overlay
}

// ShowRest displays the banner for a rest that began at start.
func (overlay *Window) ShowRest(start time.Time) {
	overlay.restStart = start
	overlay.visible = true
	overlay.Tick(start)
	overlay.window.Resize(fyne.NewSize(bannerWidth, overlay.window.Content().MinSize().Height))
	overlay.window.CenterOnScreen()
	overlay.window.Show()
}

// Tick updates the rest timer. A hidden banner ignores it.
func (overlay *Window) Tick(now time.Time) {
	if !overlay.visible {
		return
	}
	overlay.timerLabel.Text = formatDuration(now.Sub(overlay.restStart))
	overlay.timerLabel.Refresh()
}

// Hide closes the banner.
func (overlay *Window) Hide() {
	overlay.visible = false
	overlay.window.Hide()
}

// Visible reports whether the banner is showing.
func (overlay *Window) Visible() bool {
	return overlay.visible
}

func formatDuration(value time.Duration) string {
	if value < 0 {
		value = 0
	}
	seconds := int(value.Seconds())
	if seconds >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", seconds/3600, seconds/60%60, seconds%60)
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
