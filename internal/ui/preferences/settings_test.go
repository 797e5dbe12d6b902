package preferences

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"worktrail/internal/core/model"
)

func TestSettingsConversions(t *testing.T) {
	t.Parallel()

	settings := DefaultSettings()
	settings.IdleThreshold = 7 * time.Minute
	settings.CaptureEnabled = false

	assert.Equal(t, model.AutoRestConfig{
		Enabled:       true,
		IdleThreshold: 7 * time.Minute,
		ResumeBelow:   30 * time.Second,
	}, settings.AutoRestConfig())
	assert.Equal(t, model.CaptureConfig{Enabled: false, Interval: 5 * time.Minute}, settings.CaptureConfig())
	assert.Equal(t, 7, settings.IdleMinutes())
}

func TestApplyForm(t *testing.T) {
	t.Parallel()

	base := DefaultSettings()
	settings, problem := applyForm(base, formValues{
		autoRest:        false,
		idleMinutes:     " 12 ",
		capture:         true,
		captureInterval: "10",
		launchAtLogin:   true,
	})
	assert.Empty(t, problem)
	assert.Equal(t, Settings{
		AutoRestEnabled: false,
		IdleThreshold:   12 * time.Minute,
		CaptureEnabled:  true,
		CaptureInterval: 10 * time.Minute,
		LaunchAtLogin:   true,
	}, settings)

	rejected, problem := applyForm(base, formValues{idleMinutes: "0", captureInterval: "5"})
	assert.NotEmpty(t, problem)
	assert.Equal(t, base, rejected)

	_, problem = applyForm(base, formValues{idleMinutes: "5", captureInterval: "soon"})
	assert.Contains(t, problem, "Screenshot interval")
}
