package tracker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"worktrail/internal/core/model"
	"worktrail/internal/core/timeline"
)

var (
	// ErrSessionActive is returned when starting while a session is active.
	ErrSessionActive = errors.New("a work session is already active")
	// ErrNoActiveSession is returned when no session is active.
	ErrNoActiveSession = errors.New("no active work session")
	// ErrSessionMismatch is returned when the id is not the active session.
	ErrSessionMismatch = errors.New("session is not the active session")
	// ErrEmptyTitle is returned when starting without a title.
	ErrEmptyTitle = errors.New("session title is empty")
)

// Store persists sessions in per-day documents.
type Store interface {
	SaveSession(session model.WorkSession) error
	SessionsForDate(date time.Time) ([]model.WorkSession, error)
	SessionsInRange(start, end time.Time) ([]model.WorkSession, error)
	DeleteSession(date time.Time, id string) error
}

// ArtifactStore owns the screenshots tagged with a session id.
type ArtifactStore interface {
	DeleteForSession(sessionID string) error
}

// Options contains optional collaborators for Service.
type Options struct {
	Now       func() time.Time
	NewID     func() string
	Artifacts ArtifactStore
}

// Service is the single writer of the canonical work session. Every
// mutation is written through Store before it becomes visible.
type Service struct {
	mu        sync.Mutex
	store     Store
	artifacts ArtifactStore
	now       func() time.Time
	newID     func() string
	active    *model.WorkSession
	events    []chan Event
	closed    bool
}

// New creates a Service over store.
func New(store Store, options Options) *Service {
	if options.Now == nil {
		options.Now = time.Now
	}
	if options.NewID == nil {
		options.NewID = func() string { return uuid.New().String() }
	}
	return &Service{
		store:     store,
		artifacts: options.Artifacts,
		now:       options.Now,
		newID:     options.NewID,
	}
}

// Restore adopts the unsealed session left by a previous run. Extra active
// records, which can only come from an unclean exit, are sealed.
func (service *Service) Restore(ctx context.Context) (*model.WorkSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := service.now()
	sessions, err := service.store.SessionsInRange(now.AddDate(0, 0, -1), now)
	if err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}

	var active []model.WorkSession
	for _, session := range sessions {
		if session.IsActive && !session.Sealed() {
			active = append(active, session)
		}
	}
	if len(active) == 0 {
		return nil, nil
	}
	sort.Slice(active, func(i, j int) bool {
		return active[i].StartTime.After(active[j].StartTime)
	})

	service.mu.Lock()
	defer service.mu.Unlock()
	for _, stale := range active[1:] {
		sealed := seal(stale, now)
		if err := service.store.SaveSession(sealed); err != nil {
			log.Printf("restore session: seal stale %s: %v", stale.ID, err)
		}
	}
	current := active[0].Clone()
	current.Normalize()
	service.active = &current
	restored := current.Clone()
	return &restored, nil
}

// StartWork creates the active session.
func (service *Service) StartWork(ctx context.Context, title, description string, tags []string) (model.WorkSession, error) {
	if err := ctx.Err(); err != nil {
		return model.WorkSession{}, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return model.WorkSession{}, ErrEmptyTitle
	}

	service.mu.Lock()
	if service.active != nil {
		service.mu.Unlock()
		return model.WorkSession{}, ErrSessionActive
	}
	session := model.WorkSession{
		ID:          service.newID(),
		Title:       title,
		Description: strings.TrimSpace(description),
		Tags:        cleanTags(tags),
		StartTime:   service.now(),
		IsActive:    true,
		Timeline:    []model.TimelineEvent{},
	}
	if err := service.commitLocked(session); err != nil {
		service.mu.Unlock()
		return model.WorkSession{}, fmt.Errorf("start work: %w", err)
	}
	service.mu.Unlock()

	service.notify(session.ID)
	return session.Clone(), nil
}

// StopWork seals the active session.
func (service *Service) StopWork(ctx context.Context, id string) (model.WorkSession, error) {
	if err := ctx.Err(); err != nil {
		return model.WorkSession{}, err
	}

	service.mu.Lock()
	current, err := service.activeLocked(id)
	if err != nil {
		service.mu.Unlock()
		return model.WorkSession{}, err
	}
	sealed := seal(current, service.now())
	if err := service.store.SaveSession(sealed); err != nil {
		service.mu.Unlock()
		return model.WorkSession{}, fmt.Errorf("stop work: save session: %w", err)
	}
	service.active = nil
	service.mu.Unlock()

	service.notify(sealed.ID)
	return sealed.Clone(), nil
}

// PauseWork appends a pause event. Pausing a paused session returns it
// unchanged.
func (service *Service) PauseWork(ctx context.Context, id string) (model.WorkSession, error) {
	return service.transition(ctx, id, "pause work", func(session model.WorkSession, now time.Time) (model.WorkSession, bool) {
		if session.IsPaused {
			return session, false
		}
		session.Timeline, _ = timeline.Append(session.Timeline, service.newEvent(model.EventPause, now))
		session.IsPaused = true
		return session, true
	})
}

// ResumeWork appends a resume event, closing the open pause or rest.
func (service *Service) ResumeWork(ctx context.Context, id string) (model.WorkSession, error) {
	return service.transition(ctx, id, "resume work", func(session model.WorkSession, now time.Time) (model.WorkSession, bool) {
		if !session.IsPaused {
			return session, false
		}
		session.Timeline, _ = timeline.Append(session.Timeline, service.newEvent(model.EventResume, now))
		session.IsPaused = false
		return session, true
	})
}

// GetActiveSession returns the active session or nil.
func (service *Service) GetActiveSession(ctx context.Context) (*model.WorkSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	service.mu.Lock()
	defer service.mu.Unlock()
	if service.active == nil {
		return nil, nil
	}
	session := service.active.Clone()
	return &session, nil
}

// RecordRest marks the running session as resting. It is a no-op when no
// session is running.
func (service *Service) RecordRest(at time.Time) error {
	service.mu.Lock()
	if service.active == nil || service.active.IsPaused {
		service.mu.Unlock()
		return nil
	}
	session := service.active.Clone()
	next, ok := timeline.Append(session.Timeline, service.newEvent(model.EventRest, at))
	if !ok {
		service.mu.Unlock()
		return nil
	}
	session.Timeline = next
	session.IsPaused = true
	if err := service.commitLocked(session); err != nil {
		service.mu.Unlock()
		return fmt.Errorf("record rest: %w", err)
	}
	service.mu.Unlock()

	service.notify(session.ID)
	return nil
}

// RecordResume ends an automatic rest. A manual pause is left alone.
func (service *Service) RecordResume(at time.Time) error {
	service.mu.Lock()
	if service.active == nil || !service.active.IsPaused {
		service.mu.Unlock()
		return nil
	}
	session := service.active.Clone()
	open := timeline.OpenStop(session.Timeline)
	if open < 0 || session.Timeline[open].Type != model.EventRest {
		service.mu.Unlock()
		return nil
	}
	session.Timeline, _ = timeline.Append(session.Timeline, service.newEvent(model.EventResume, at))
	session.IsPaused = false
	if err := service.commitLocked(session); err != nil {
		service.mu.Unlock()
		return fmt.Errorf("record resume: %w", err)
	}
	service.mu.Unlock()

	service.notify(session.ID)
	return nil
}

// DeleteSession removes a record and its screenshots. Deleting the active
// session clears it.
func (service *Service) DeleteSession(ctx context.Context, id string, date time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	service.mu.Lock()
	if err := service.store.DeleteSession(date, id); err != nil {
		service.mu.Unlock()
		return fmt.Errorf("delete session: %w", err)
	}
	if service.active != nil && service.active.ID == id {
		service.active = nil
	}
	service.mu.Unlock()

	if service.artifacts != nil {
		if err := service.artifacts.DeleteForSession(id); err != nil {
			return fmt.Errorf("delete session screenshots: %w", err)
		}
	}
	service.notify(id)
	return nil
}

// SessionsForDate returns the records stored under date.
func (service *Service) SessionsForDate(ctx context.Context, date time.Time) ([]model.WorkSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return service.store.SessionsForDate(date)
}

// SessionsInRange returns the records stored between start and end.
func (service *Service) SessionsInRange(ctx context.Context, start, end time.Time) ([]model.WorkSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return service.store.SessionsInRange(start, end)
}

func (service *Service) transition(ctx context.Context, id, action string, apply func(model.WorkSession, time.Time) (model.WorkSession, bool)) (model.WorkSession, error) {
	if err := ctx.Err(); err != nil {
		return model.WorkSession{}, err
	}

	service.mu.Lock()
	current, err := service.activeLocked(id)
	if err != nil {
		service.mu.Unlock()
		return model.WorkSession{}, err
	}
	next, changed := apply(current, service.now())
	if !changed {
		service.mu.Unlock()
		return next, nil
	}
	if err := service.commitLocked(next); err != nil {
		service.mu.Unlock()
		return model.WorkSession{}, fmt.Errorf("%s: %w", action, err)
	}
	service.mu.Unlock()

	service.notify(next.ID)
	return next.Clone(), nil
}

func (service *Service) activeLocked(id string) (model.WorkSession, error) {
	if service.active == nil {
		return model.WorkSession{}, ErrNoActiveSession
	}
	if id != "" && service.active.ID != id {
		return model.WorkSession{}, ErrSessionMismatch
	}
	return service.active.Clone(), nil
}

// commitLocked writes session and only then makes it the active record.
func (service *Service) commitLocked(session model.WorkSession) error {
	session.Normalize()
	if err := service.store.SaveSession(session); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	committed := session.Clone()
	service.active = &committed
	return nil
}

func (service *Service) newEvent(eventType model.TimelineEventType, at time.Time) model.TimelineEvent {
	return model.TimelineEvent{
		ID:        service.newID(),
		Type:      eventType,
		Timestamp: at,
	}
}

func seal(session model.WorkSession, now time.Time) model.WorkSession {
	sealed := session.Clone()
	if now.Before(sealed.StartTime) {
		now = sealed.StartTime
	}
	sealed.Timeline = timeline.CloseOpen(sealed.Timeline, now)
	sealed.EndTime = &now
	sealed.Duration = now.Sub(sealed.StartTime).Milliseconds()
	sealed.IsActive = false
	sealed.IsPaused = false
	sealed.Normalize()
	return sealed
}

func cleanTags(tags []string) []string {
	cleaned := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		cleaned = append(cleaned, tag)
	}
	return cleaned
}
