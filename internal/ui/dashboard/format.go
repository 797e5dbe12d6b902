package dashboard

import (
	"fmt"
	"strings"
	"time"

	"worktrail/internal/core/model"
	"worktrail/internal/core/syncer"
	"worktrail/internal/core/timeline"
)

// FormatDuration renders d as HH:MM:SS.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, d/time.Second)
}

// ParseTags splits a comma separated tag list, dropping blanks.
func ParseTags(text string) []string {
	tags := []string{}
	for _, part := range strings.Split(text, ",") {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// StatusLine describes the mirrored session state.
func StatusLine(state syncer.State) string {
	switch {
	case state.Current == nil:
		return "Not working"
	case state.Current.IsPaused && isResting(*state.Current):
		return fmt.Sprintf("Resting: %s", state.Current.Title)
	case state.Current.IsPaused:
		return fmt.Sprintf("Paused: %s", state.Current.Title)
	default:
		return fmt.Sprintf("Working on %s", state.Current.Title)
	}
}

// RestLine describes the auto-rest countdown.
func RestLine(status model.RestStatus, now time.Time) string {
	switch {
	case !status.Enabled:
		return "Auto-rest off"
	case status.IsResting && status.RestStartTime != nil:
		return fmt.Sprintf("Resting for %s", shortDuration(now.Sub(*status.RestStartTime)))
	case status.IsResting:
		return "Resting"
	case status.TimeUntilRestSeconds != nil:
		return fmt.Sprintf("Auto-rest in %s", shortDuration(time.Duration(*status.TimeUntilRestSeconds)*time.Second))
	default:
		return fmt.Sprintf("Auto-rest after %d min idle", status.IdleTimeThresholdMinutes)
	}
}

// SessionRow returns the list label and duration text for one record.
func SessionRow(session model.WorkSession, now time.Time) (string, string) {
	label := session.Title
	if len(session.Tags) > 0 {
		label = fmt.Sprintf("%s [%s]", label, strings.Join(session.Tags, ", "))
	}
	if session.Sealed() {
		return label, FormatDuration(timeline.FinalizedDuration(session))
	}
	return label, FormatDuration(timeline.LiveDuration(session, now)) + " (running)"
}

func isResting(session model.WorkSession) bool {
	open := timeline.OpenStop(session.Timeline)
	return open >= 0 && session.Timeline[open].Type == model.EventRest
}

func shortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Truncate(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d/time.Second))
	}
	minutes := int(d / time.Minute)
	seconds := int((d % time.Minute) / time.Second)
	if seconds == 0 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}
