// Package syncer mirrors the backend's canonical work session for the
// presentation layer. Backend reads always win; the local cache is only a
// time-boxed fallback when the backend cannot be reached.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"worktrail/internal/core/model"
	"worktrail/internal/core/timeline"
	"worktrail/internal/core/tracker"
)

var (
	// ErrConflict is returned when a session is already running.
	ErrConflict = errors.New("a work session is already running")
	// ErrNoSession is returned when there is no running session to act on.
	ErrNoSession = errors.New("no work session is running")
)

// Backend is the request/response surface of the backend process.
type Backend interface {
	StartWork(ctx context.Context, title, description string, tags []string) (model.WorkSession, error)
	StopWork(ctx context.Context, id string) (model.WorkSession, error)
	PauseWork(ctx context.Context, id string) (model.WorkSession, error)
	ResumeWork(ctx context.Context, id string) (model.WorkSession, error)
	GetActiveSession(ctx context.Context) (*model.WorkSession, error)
}

// Cache stores the last known local state.
type Cache interface {
	Load() (model.CacheSnapshot, bool, error)
	Save(snapshot model.CacheSnapshot) error
}

// Capture is the screen-capture timer switch.
type Capture interface {
	Start(sessionID string)
	Stop()
}

// State is the presentation layer's view of the session.
type State struct {
	IsWorking bool
	Current   *model.WorkSession
}

// Running reports whether work time is accruing.
func (state State) Running() bool {
	return state.IsWorking && state.Current != nil && !state.Current.IsPaused
}

func (state State) equal(other State) bool {
	if state.IsWorking != other.IsWorking {
		return false
	}
	if (state.Current == nil) != (other.Current == nil) {
		return false
	}
	if state.Current == nil {
		return true
	}
	return state.Current.ID == other.Current.ID &&
		state.Current.IsActive == other.Current.IsActive &&
		state.Current.IsPaused == other.Current.IsPaused &&
		len(state.Current.Timeline) == len(other.Current.Timeline)
}

// Options contains optional collaborators for Synchronizer.
type Options struct {
	Cache    Cache
	Capture  Capture
	Notifier Notifier
	Now      func() time.Time
	Config   model.SyncConfig
}

// Synchronizer is the local mirror of the canonical session.
type Synchronizer struct {
	mu          sync.Mutex
	backend     Backend
	cache       Cache
	capture     Capture
	notifier    Notifier
	now         func() time.Time
	config      model.SyncConfig
	state       State
	generation  uint64
	reconciling atomic.Bool
	pending     atomic.Bool
	listeners   []func(State)
}

// New creates a Synchronizer with no session.
func New(backend Backend, options Options) *Synchronizer {
	if options.Now == nil {
		options.Now = time.Now
	}
	if options.Notifier == nil {
		options.Notifier = LogNotifier{}
	}
	if options.Config.CacheTTL <= 0 {
		options.Config.CacheTTL = model.SessionCacheTTL
	}
	if options.Config.ReconcileInterval <= 0 {
		options.Config.ReconcileInterval = model.ReconcileInterval
	}
	return &Synchronizer{
		backend:  backend,
		cache:    options.Cache,
		capture:  options.Capture,
		notifier: options.Notifier,
		now:      options.Now,
		config:   options.Config,
	}
}

// OnChange registers a callback fired after the local state changes.
func (syncer *Synchronizer) OnChange(listener func(State)) {
	syncer.mu.Lock()
	syncer.listeners = append(syncer.listeners, listener)
	syncer.mu.Unlock()
}

// State returns a copy of the local state.
func (syncer *Synchronizer) State() State {
	syncer.mu.Lock()
	defer syncer.mu.Unlock()
	return copyState(syncer.state)
}

// Elapsed is the live worked-time estimate for display.
func (syncer *Synchronizer) Elapsed(now time.Time) time.Duration {
	state := syncer.State()
	if state.Current == nil {
		return 0
	}
	return timeline.LiveDuration(*state.Current, now)
}

// Start begins a new session unless one is already running locally or on
// the backend.
func (syncer *Synchronizer) Start(ctx context.Context, title, description string, tags []string) (model.WorkSession, error) {
	if syncer.State().IsWorking {
		syncer.notify(NoticeConflict, "A work session is already running.")
		return model.WorkSession{}, ErrConflict
	}

	remote, err := syncer.backend.GetActiveSession(ctx)
	if err != nil {
		syncer.notify(NoticeError, "Could not reach the tracker: "+err.Error())
		return model.WorkSession{}, fmt.Errorf("start work: check active session: %w", err)
	}
	if remote != nil {
		syncer.commit(stateFrom(remote))
		syncer.notify(NoticeConflict, fmt.Sprintf("%q is already running.", remote.Title))
		return model.WorkSession{}, ErrConflict
	}

	session, err := syncer.backend.StartWork(ctx, title, description, tags)
	if err != nil {
		if errors.Is(err, tracker.ErrSessionActive) {
			if reconcileErr := syncer.Reconcile(ctx); reconcileErr != nil {
				log.Printf("session sync: reconcile after conflict: %v", reconcileErr)
			}
			syncer.notify(NoticeConflict, "A work session is already running.")
			return model.WorkSession{}, ErrConflict
		}
		syncer.notify(NoticeError, "Could not start work: "+err.Error())
		return model.WorkSession{}, fmt.Errorf("start work: %w", err)
	}

	syncer.commit(stateFrom(&session))
	syncer.notify(NoticeSuccess, fmt.Sprintf("Started %q.", session.Title))
	return session, nil
}

// Stop seals the running session. The backend's view of which session is
// running takes precedence over local state.
func (syncer *Synchronizer) Stop(ctx context.Context) (model.WorkSession, error) {
	target, err := syncer.target(ctx)
	if err != nil {
		return model.WorkSession{}, err
	}

	sealed, err := syncer.backend.StopWork(ctx, target.ID)
	if err != nil {
		return model.WorkSession{}, syncer.mutationFailed(ctx, "stop work", err)
	}

	syncer.commit(State{})
	syncer.notify(NoticeSuccess, fmt.Sprintf("Stopped %q.", sealed.Title))
	return sealed, nil
}

// Pause pauses the running session and adopts the server-confirmed record.
func (syncer *Synchronizer) Pause(ctx context.Context) (model.WorkSession, error) {
	return syncer.mutate(ctx, "pause work", syncer.backend.PauseWork, "Paused %q.")
}

// Resume resumes the running session and adopts the server-confirmed record.
func (syncer *Synchronizer) Resume(ctx context.Context) (model.WorkSession, error) {
	return syncer.mutate(ctx, "resume work", syncer.backend.ResumeWork, "Resumed %q.")
}

// SwitchTo stops the current session and starts a new one. The start is
// attempted even if the stop fails; a returned session with a non-nil error
// means the switch happened but the previous session could not be stopped
// cleanly.
func (syncer *Synchronizer) SwitchTo(ctx context.Context, title, description string, tags []string) (*model.WorkSession, error) {
	_, stopErr := syncer.Stop(ctx)
	if stopErr != nil && !errors.Is(stopErr, ErrNoSession) {
		log.Printf("session sync: switch: stop previous: %v", stopErr)
		if err := syncer.Reconcile(ctx); err != nil {
			log.Printf("session sync: switch: reconcile: %v", err)
		}
	} else {
		stopErr = nil
	}

	session, startErr := syncer.Start(ctx, title, description, tags)
	if startErr != nil {
		return nil, errors.Join(startErr, stopErr)
	}
	if stopErr != nil {
		syncer.notify(NoticeWarning, "Switched, but the previous session may not have stopped cleanly.")
		return &session, fmt.Errorf("switch work: stop previous session: %w", stopErr)
	}
	return &session, nil
}

// Reconcile replaces local state with the backend's active session. When the
// backend is unreachable a cache snapshot younger than the TTL is used,
// otherwise no session. Overlapping calls return immediately.
func (syncer *Synchronizer) Reconcile(ctx context.Context) error {
	for {
		// A call that finds a reconcile in flight leaves pending set, and
		// the holder runs once more so a commit it raced with is not lost.
		syncer.pending.Store(true)
		if !syncer.reconciling.CompareAndSwap(false, true) {
			return nil
		}
		syncer.pending.Store(false)
		err := syncer.reconcileOnce(ctx)
		syncer.reconciling.Store(false)
		if err != nil || !syncer.pending.Load() {
			return err
		}
	}
}

func (syncer *Synchronizer) reconcileOnce(ctx context.Context) error {
	syncer.mu.Lock()
	generation := syncer.generation
	syncer.mu.Unlock()

	remote, err := syncer.backend.GetActiveSession(ctx)
	if err != nil {
		syncer.apply(syncer.fallbackState(), generation, false)
		return fmt.Errorf("reconcile: %w", err)
	}
	syncer.apply(stateFrom(remote), generation, true)
	return nil
}

// Trigger runs Reconcile for a named reason and logs failures.
func (syncer *Synchronizer) Trigger(ctx context.Context, reason string) {
	if err := syncer.Reconcile(ctx); err != nil {
		log.Printf("session sync: %s: %v", reason, err)
	}
}

// ReconcileInterval is the period of the background reconcile job.
func (syncer *Synchronizer) ReconcileInterval() time.Duration {
	return syncer.config.ReconcileInterval
}

func (syncer *Synchronizer) mutate(ctx context.Context, action string, call func(context.Context, string) (model.WorkSession, error), success string) (model.WorkSession, error) {
	target, err := syncer.target(ctx)
	if err != nil {
		return model.WorkSession{}, err
	}

	session, err := call(ctx, target.ID)
	if err != nil {
		return model.WorkSession{}, syncer.mutationFailed(ctx, action, err)
	}

	syncer.commit(stateFrom(&session))
	syncer.notify(NoticeSuccess, fmt.Sprintf(success, session.Title))
	return session, nil
}

// target resolves the session to act on, preferring a fresh backend read.
func (syncer *Synchronizer) target(ctx context.Context) (model.WorkSession, error) {
	remote, err := syncer.backend.GetActiveSession(ctx)
	if err != nil {
		log.Printf("session sync: fresh read failed, using local state: %v", err)
		local := syncer.State()
		if local.Current == nil {
			syncer.notify(NoticeError, "Could not reach the tracker: "+err.Error())
			return model.WorkSession{}, fmt.Errorf("resolve active session: %w", err)
		}
		return *local.Current, nil
	}
	if remote == nil {
		syncer.commit(State{})
		syncer.notify(NoticeWarning, "No work session is running.")
		return model.WorkSession{}, ErrNoSession
	}
	return *remote, nil
}

func (syncer *Synchronizer) mutationFailed(ctx context.Context, action string, err error) error {
	if errors.Is(err, tracker.ErrNoActiveSession) || errors.Is(err, tracker.ErrSessionMismatch) {
		if reconcileErr := syncer.Reconcile(ctx); reconcileErr != nil {
			log.Printf("session sync: %s: reconcile: %v", action, reconcileErr)
		}
		syncer.notify(NoticeWarning, "The session changed elsewhere; refreshed.")
		return fmt.Errorf("%s: %w", action, ErrNoSession)
	}
	syncer.notify(NoticeError, fmt.Sprintf("Could not %s: %v", action, err))
	return fmt.Errorf("%s: %w", action, err)
}

func (syncer *Synchronizer) fallbackState() State {
	if syncer.cache == nil {
		return State{}
	}
	snapshot, ok, err := syncer.cache.Load()
	if err != nil {
		log.Printf("session sync: load cache: %v", err)
		return State{}
	}
	if !ok || !snapshot.Fresh(syncer.now(), syncer.config.CacheTTL) {
		return State{}
	}
	return stateFrom(snapshot.CurrentSession)
}

// commit adopts the result of a confirmed mutation.
func (syncer *Synchronizer) commit(state State) {
	syncer.mu.Lock()
	syncer.generation++
	generation := syncer.generation
	syncer.mu.Unlock()
	syncer.set(state, generation, true, true)
}

// apply adopts a reconcile result unless a mutation committed while the read
// was in flight.
func (syncer *Synchronizer) apply(state State, generation uint64, persist bool) {
	syncer.set(state, generation, persist, false)
}

func (syncer *Synchronizer) set(state State, generation uint64, persist, force bool) {
	syncer.mu.Lock()
	if syncer.generation != generation {
		syncer.mu.Unlock()
		return
	}
	changed := !syncer.state.equal(state)
	if !changed && !force {
		syncer.mu.Unlock()
		return
	}
	syncer.state = copyState(state)
	listeners := append([]func(State){}, syncer.listeners...)
	syncer.mu.Unlock()

	if persist {
		syncer.saveCache(state)
	}
	syncer.syncCapture(state)
	if changed {
		for _, listener := range listeners {
			listener(copyState(state))
		}
	}
}

func (syncer *Synchronizer) saveCache(state State) {
	if syncer.cache == nil {
		return
	}
	snapshot := model.CacheSnapshot{
		IsWorking: state.IsWorking,
		Timestamp: syncer.now(),
	}
	if state.Current != nil {
		current := state.Current.Clone()
		snapshot.CurrentSession = &current
	}
	if err := syncer.cache.Save(snapshot); err != nil {
		log.Printf("session sync: save cache: %v", err)
	}
}

// syncCapture keeps screen capture running only while work accrues.
func (syncer *Synchronizer) syncCapture(state State) {
	if syncer.capture == nil {
		return
	}
	if state.Running() {
		syncer.capture.Start(state.Current.ID)
		return
	}
	syncer.capture.Stop()
}

func (syncer *Synchronizer) notify(kind NoticeKind, message string) {
	syncer.notifier.Notify(Notice{Kind: kind, Message: message, At: syncer.now()})
}

func stateFrom(session *model.WorkSession) State {
	if session == nil || !session.IsActive {
		return State{}
	}
	current := session.Clone()
	return State{IsWorking: true, Current: &current}
}

func copyState(state State) State {
	if state.Current == nil {
		return State{IsWorking: state.IsWorking}
	}
	current := state.Current.Clone()
	return State{IsWorking: state.IsWorking, Current: &current}
}
