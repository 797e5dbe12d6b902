package timeline

import (
	"time"

	"worktrail/internal/core/model"
)

// LiveDuration estimates worked time for a running session as of now.
//
// The timeline is walked in timestamp order from StartTime. Pause and rest
// both stop accrual, resume restarts it. A paused session with an empty
// timeline yields zero.
func LiveDuration(session model.WorkSession, now time.Time) time.Duration {
	ceiling := now.Sub(session.StartTime)
	if ceiling <= 0 {
		return 0
	}
	if session.IsPaused && len(session.Timeline) == 0 {
		return 0
	}

	var total time.Duration
	lastBoundary := session.StartTime
	working := true
	for _, event := range Sorted(session.Timeline) {
		switch {
		case event.Type.Stops():
			if working {
				total += segment(lastBoundary, event.Timestamp)
				working = false
			}
		case event.Type == model.EventResume:
			if !working {
				lastBoundary = event.Timestamp
				working = true
			}
		}
	}
	if working && !session.IsPaused {
		total += segment(lastBoundary, now)
	}

	if total > ceiling {
		return ceiling
	}
	return total
}

// FinalizedDuration is the worked time of a sealed record: the wall-clock
// duration minus the recorded length of every pause.
func FinalizedDuration(session model.WorkSession) time.Duration {
	raw := RawDuration(session)
	var paused time.Duration
	for _, event := range session.Timeline {
		if event.Type == model.EventPause && event.Duration > 0 {
			paused += time.Duration(event.Duration) * time.Millisecond
		}
	}
	actual := raw - paused
	if actual < 0 {
		return 0
	}
	return actual
}

// RawDuration is EndTime-StartTime, or zero for an unsealed session.
func RawDuration(session model.WorkSession) time.Duration {
	if session.EndTime == nil {
		return 0
	}
	raw := session.EndTime.Sub(session.StartTime)
	if raw < 0 {
		return 0
	}
	return raw
}

func segment(from, to time.Time) time.Duration {
	if to.Before(from) {
		return 0
	}
	return to.Sub(from)
}
