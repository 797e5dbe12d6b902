package preferences

import (
	"time"

	"worktrail/internal/core/model"
)

// Settings defines editable user preferences.
type Settings struct {
	AutoRestEnabled bool
	IdleThreshold   time.Duration
	CaptureEnabled  bool
	CaptureInterval time.Duration
	LaunchAtLogin   bool
}

// DefaultSettings returns default settings for WorkTrail.
func DefaultSettings() Settings {
	return Settings{
		AutoRestEnabled: true,
		IdleThreshold:   5 * time.Minute,
		CaptureEnabled:  true,
		CaptureInterval: 5 * time.Minute,
		LaunchAtLogin:   false,
	}
}

// AutoRestConfig converts settings to the rest state machine config.
func (settings Settings) AutoRestConfig() model.AutoRestConfig {
	return model.AutoRestConfig{
		Enabled:       settings.AutoRestEnabled,
		IdleThreshold: settings.IdleThreshold,
		ResumeBelow:   model.DefaultResumeBelow,
	}
}

// CaptureConfig converts settings to the capture schedule.
func (settings Settings) CaptureConfig() model.CaptureConfig {
	return model.CaptureConfig{
		Enabled:  settings.CaptureEnabled,
		Interval: settings.CaptureInterval,
	}
}

// IdleMinutes returns the idle threshold in whole minutes.
func (settings Settings) IdleMinutes() int {
	return int(settings.IdleThreshold / time.Minute)
}
