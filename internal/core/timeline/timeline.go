// Package timeline holds the append rules for a session timeline and the two
// worked-time derivations built on it: LiveDuration for the running display
// and FinalizedDuration for sealed records.
package timeline

import (
	"sort"
	"time"

	"worktrail/internal/core/model"
)

// Sorted returns a copy of events ordered by timestamp.
func Sorted(events []model.TimelineEvent) []model.TimelineEvent {
	sorted := append([]model.TimelineEvent(nil), events...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	return sorted
}

// OpenStop returns the index (into events) of the pause or rest event that
// has not been followed by a resume, or -1.
func OpenStop(events []model.TimelineEvent) int {
	order := make([]int, len(events))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return events[order[a]].Timestamp.Before(events[order[b]].Timestamp)
	})

	open := -1
	for _, index := range order {
		switch {
		case events[index].Type.Stops():
			if open < 0 {
				open = index
			}
		case events[index].Type == model.EventResume:
			open = -1
		}
	}
	return open
}

// Latest returns the greatest timestamp in events.
func Latest(events []model.TimelineEvent) (time.Time, bool) {
	var latest time.Time
	found := false
	for _, event := range events {
		if !found || event.Timestamp.After(latest) {
			latest = event.Timestamp
			found = true
		}
	}
	return latest, found
}

// Append adds event to a copy of events. A stop is ignored while another stop
// is open, a resume is ignored when nothing is open. Timestamps that do not
// advance the timeline are clamped to one millisecond past the latest event.
// A resume fills in the open stop's duration.
func Append(events []model.TimelineEvent, event model.TimelineEvent) ([]model.TimelineEvent, bool) {
	open := OpenStop(events)
	switch {
	case event.Type.Stops():
		if open >= 0 {
			return events, false
		}
	case event.Type == model.EventResume:
		if open < 0 {
			return events, false
		}
	default:
		return events, false
	}

	if latest, ok := Latest(events); ok && !event.Timestamp.After(latest) {
		event.Timestamp = latest.Add(time.Millisecond)
	}

	next := make([]model.TimelineEvent, 0, len(events)+1)
	next = append(next, events...)
	if event.Type == model.EventResume {
		next[open].Duration = event.Timestamp.Sub(next[open].Timestamp).Milliseconds()
	}
	next = append(next, event)
	return next, true
}

// CloseOpen fills in the duration of an open stop as of at. It is used when a
// session is sealed while paused or resting.
func CloseOpen(events []model.TimelineEvent, at time.Time) []model.TimelineEvent {
	open := OpenStop(events)
	if open < 0 {
		return events
	}
	next := append([]model.TimelineEvent(nil), events...)
	elapsed := at.Sub(next[open].Timestamp).Milliseconds()
	if elapsed < 0 {
		elapsed = 0
	}
	next[open].Duration = elapsed
	return next
}
