package syncer

import (
	"log"
	"time"
)

// NoticeKind classifies a user-facing message.
type NoticeKind string

const (
	NoticeSuccess  NoticeKind = "success"
	NoticeConflict NoticeKind = "conflict"
	NoticeWarning  NoticeKind = "warning"
	NoticeError    NoticeKind = "error"
)

// Notice is surfaced to the user after every mutating action.
type Notice struct {
	Kind    NoticeKind
	Message string
	At      time.Time
}

// Notifier surfaces notices.
type Notifier interface {
	Notify(notice Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

// Notify calls fn.
func (fn NotifierFunc) Notify(notice Notice) {
	fn(notice)
}

// LogNotifier writes notices to the standard logger.
type LogNotifier struct{}

// Notify logs the notice.
func (LogNotifier) Notify(notice Notice) {
	log.Printf("notice %s: %s", notice.Kind, notice.Message)
}
