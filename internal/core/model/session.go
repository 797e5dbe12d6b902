package model

import "time"

// TimelineEventType names a session lifecycle event.
type TimelineEventType string

const (
	EventPause  TimelineEventType = "pause"
	EventRest   TimelineEventType = "rest"
	EventResume TimelineEventType = "resume"
)

// Stops reports whether the event halts work accrual.
func (eventType TimelineEventType) Stops() bool {
	return eventType == EventPause || eventType == EventRest
}

// TimelineEvent is one entry in a session's timeline. Duration is in
// milliseconds and is filled on the stop event once the matching resume
// arrives.
type TimelineEvent struct {
	ID          string            `json:"id"`
	Type        TimelineEventType `json:"type"`
	Timestamp   time.Time         `json:"timestamp"`
	Duration    int64             `json:"duration,omitempty"`
	Description string            `json:"description,omitempty"`
}

// WorkSession is the canonical record of one block of work.
type WorkSession struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Tags        []string        `json:"tags"`
	StartTime   time.Time       `json:"startTime"`
	EndTime     *time.Time      `json:"endTime,omitempty"`
	IsActive    bool            `json:"isActive"`
	IsPaused    bool            `json:"isPaused"`
	Duration    int64           `json:"duration,omitempty"`
	Timeline    []TimelineEvent `json:"timeline"`
}

// Sealed reports whether the session has been stopped.
func (session WorkSession) Sealed() bool {
	return session.EndTime != nil
}

// Clone returns a deep copy so callers never share timeline backing arrays.
func (session WorkSession) Clone() WorkSession {
	clone := session
	clone.Tags = append([]string{}, session.Tags...)
	clone.Timeline = append([]TimelineEvent{}, session.Timeline...)
	if session.EndTime != nil {
		end := *session.EndTime
		clone.EndTime = &end
	}
	return clone
}

// Normalize replaces nil slices so the record always serializes as [].
func (session *WorkSession) Normalize() {
	if session.Tags == nil {
		session.Tags = []string{}
	}
	if session.Timeline == nil {
		session.Timeline = []TimelineEvent{}
	}
}

// CacheSnapshot is the presentation layer's last known session state.
type CacheSnapshot struct {
	IsWorking      bool         `json:"isWorking"`
	CurrentSession *WorkSession `json:"currentSession,omitempty"`
	Timestamp      time.Time    `json:"timestamp"`
}

// Fresh reports whether the snapshot is still usable at now.
func (snapshot CacheSnapshot) Fresh(now time.Time, ttl time.Duration) bool {
	if snapshot.Timestamp.IsZero() {
		return false
	}
	age := now.Sub(snapshot.Timestamp)
	return age >= 0 && age < ttl
}
