package autorest

import (
	"time"

	"worktrail/internal/core/model"
)

// State represents the current rest mode.
type State string

const (
	StateWorking State = "working"
	StateResting State = "resting"
)

// EventType defines the type of Machine event.
type EventType string

const (
	EventStatusChanged EventType = "auto_rest_status_changed"
	EventAutoRest      EventType = "auto_rest_event"
	EventIdleFallback  EventType = "idle_fallback"
)

// Event represents a Machine update for observers.
type Event struct {
	Type     EventType
	Status   model.RestStatus
	AutoRest model.AutoRestEvent
	Message  string
	At       time.Time
}
