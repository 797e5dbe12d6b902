package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"worktrail/internal/core/model"
	"worktrail/internal/core/timeline"
)

const (
	sessionsDirName = "sessions"
	dateLayout      = "2006-01-02"
)

// DayTotals are the rolled-up durations of one day, in milliseconds.
type DayTotals struct {
	SessionCount   int   `json:"sessionCount"`
	RawDuration    int64 `json:"rawDuration"`
	WorkedDuration int64 `json:"workedDuration"`
}

// DayDocument is the persisted record of one calendar date.
type DayDocument struct {
	Date     string              `json:"date"`
	Sessions []model.WorkSession `json:"sessions"`
	Totals   DayTotals           `json:"totals"`
}

// Records stores work sessions as one JSON document per calendar date,
// keyed by the session's start time.
type Records struct {
	baseDir  string
	location *time.Location
	mu       sync.Mutex
}

// NewRecords creates a record store rooted at baseDir.
func NewRecords(baseDir string) (*Records, error) {
	if err := os.MkdirAll(filepath.Join(baseDir, sessionsDirName), 0o755); err != nil {
		return nil, fmt.Errorf("create sessions directory: %w", err)
	}
	return &Records{baseDir: baseDir, location: time.Local}, nil
}

// SaveSession inserts or replaces session in its day document.
func (records *Records) SaveSession(session model.WorkSession) error {
	records.mu.Lock()
	defer records.mu.Unlock()

	session = session.Clone()
	session.Normalize()

	date := records.dateKey(session.StartTime)
	document, err := records.loadLocked(date)
	if err != nil {
		return err
	}

	found := false
	for i := range document.Sessions {
		if document.Sessions[i].ID == session.ID {
			document.Sessions[i] = session
			found = true
			break
		}
	}
	if !found {
		document.Sessions = append(document.Sessions, session)
	}
	return records.writeLocked(document)
}

// SessionsForDate loads the sessions started on date.
func (records *Records) SessionsForDate(date time.Time) ([]model.WorkSession, error) {
	records.mu.Lock()
	defer records.mu.Unlock()

	document, err := records.loadLocked(records.dateKey(date))
	if err != nil {
		return nil, err
	}
	return document.Sessions, nil
}

// SessionsInRange loads the sessions started between start and end,
// inclusive by calendar date.
func (records *Records) SessionsInRange(start, end time.Time) ([]model.WorkSession, error) {
	records.mu.Lock()
	defer records.mu.Unlock()

	var all []model.WorkSession
	current := records.startOfDay(start)
	last := records.startOfDay(end)
	for !current.After(last) {
		document, err := records.loadLocked(current.Format(dateLayout))
		if err != nil {
			return nil, err
		}
		all = append(all, document.Sessions...)
		current = current.AddDate(0, 0, 1)
	}
	return all, nil
}

// LoadDay returns the full document for date, totals included.
func (records *Records) LoadDay(date time.Time) (DayDocument, error) {
	records.mu.Lock()
	defer records.mu.Unlock()
	return records.loadLocked(records.dateKey(date))
}

// DeleteSession removes session id from the document of date.
func (records *Records) DeleteSession(date time.Time, id string) error {
	records.mu.Lock()
	defer records.mu.Unlock()

	document, err := records.loadLocked(records.dateKey(date))
	if err != nil {
		return err
	}
	kept := make([]model.WorkSession, 0, len(document.Sessions))
	for _, session := range document.Sessions {
		if session.ID != id {
			kept = append(kept, session)
		}
	}
	if len(kept) == len(document.Sessions) {
		return fmt.Errorf("delete session %s: %w", id, os.ErrNotExist)
	}
	document.Sessions = kept
	return records.writeLocked(document)
}

func (records *Records) loadLocked(date string) (DayDocument, error) {
	document := DayDocument{Date: date, Sessions: []model.WorkSession{}}
	data, err := os.ReadFile(records.pathFor(date))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return document, nil
		}
		return document, fmt.Errorf("read day %s: %w", date, err)
	}
	if err := json.Unmarshal(data, &document); err != nil {
		return document, fmt.Errorf("parse day %s: %w", date, err)
	}
	if document.Sessions == nil {
		document.Sessions = []model.WorkSession{}
	}
	for i := range document.Sessions {
		document.Sessions[i].Normalize()
	}
	return document, nil
}

func (records *Records) writeLocked(document DayDocument) error {
	sort.SliceStable(document.Sessions, func(i, j int) bool {
		return document.Sessions[i].StartTime.Before(document.Sessions[j].StartTime)
	})
	document.Totals = rollUp(document.Sessions)

	data, err := json.MarshalIndent(document, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal day %s: %w", document.Date, err)
	}
	if err := writeFileAtomic(records.pathFor(document.Date), data); err != nil {
		return fmt.Errorf("write day %s: %w", document.Date, err)
	}
	return nil
}

func (records *Records) pathFor(date string) string {
	return filepath.Join(records.baseDir, sessionsDirName, date+".json")
}

func (records *Records) dateKey(t time.Time) string {
	return t.In(records.location).Format(dateLayout)
}

func (records *Records) startOfDay(t time.Time) time.Time {
	local := t.In(records.location)
	year, month, day := local.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, records.location)
}

// rollUp totals sealed sessions only; the active one has no final duration.
func rollUp(sessions []model.WorkSession) DayTotals {
	var totals DayTotals
	for _, session := range sessions {
		totals.SessionCount++
		if !session.Sealed() {
			continue
		}
		totals.RawDuration += timeline.RawDuration(session).Milliseconds()
		totals.WorkedDuration += timeline.FinalizedDuration(session).Milliseconds()
	}
	return totals
}
