package model

import "time"

// AutoRestConfig contains runtime settings for the rest state machine.
type AutoRestConfig struct {
	Enabled       bool
	IdleThreshold time.Duration
	// ResumeBelow is the idle duration under which a rest ends. It is kept
	// smaller than IdleThreshold so the machine does not flap.
	ResumeBelow time.Duration
}

// CaptureConfig defines the screenshot schedule for an active session.
type CaptureConfig struct {
	Enabled  bool
	Interval time.Duration
}

// SyncConfig controls the presentation-side session mirror.
type SyncConfig struct {
	CacheTTL          time.Duration
	ReconcileInterval time.Duration
}

// Default intervals shared by the backend scheduler.
const (
	IdlePollInterval   = 10 * time.Second
	DisplayTick        = time.Second
	MenuTick           = 30 * time.Second
	ReconcileInterval  = 3 * time.Minute
	SessionCacheTTL    = time.Hour
	DefaultResumeBelow = 30 * time.Second
)

// DefaultSyncConfig returns the mirror defaults.
func DefaultSyncConfig() SyncConfig {
	return SyncConfig{
		CacheTTL:          SessionCacheTTL,
		ReconcileInterval: ReconcileInterval,
	}
}
