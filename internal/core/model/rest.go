package model

import "time"

// AutoRestEventType defines the kind of auto-rest notification.
type AutoRestEventType string

const (
	RestStarted      AutoRestEventType = "rest-started"
	RestEnded        AutoRestEventType = "rest-ended"
	ActivityDetected AutoRestEventType = "activity-detected"
)

// RestStatus is the ephemeral view of the rest state machine.
type RestStatus struct {
	Enabled                  bool       `json:"enabled"`
	IsResting                bool       `json:"isResting"`
	IdleTimeThresholdMinutes int        `json:"idleTimeThresholdMinutes"`
	LastActivityTime         time.Time  `json:"lastActivityTime"`
	RestStartTime            *time.Time `json:"restStartTime,omitempty"`
	TimeUntilRestSeconds     *int64     `json:"timeUntilRestSeconds,omitempty"`
}

// AutoRestEvent is pushed to observers on rest transitions. Duration is set
// only for RestEnded.
type AutoRestEvent struct {
	Type      AutoRestEventType `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Duration  time.Duration     `json:"duration,omitempty"`
}
