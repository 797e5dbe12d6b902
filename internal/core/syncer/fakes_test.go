package syncer

import (
	"context"
	"errors"
	"sync"
	"time"

	"worktrail/internal/core/model"
	"worktrail/internal/core/tracker"
)

var errUnreachable = errors.New("backend unreachable")

// fakeBackend wraps a real tracker and injects transport failures.
type fakeBackend struct {
	*tracker.Service

	mu          sync.Mutex
	down        bool
	activeCalls int
	stopFails   bool
	beforeRead  func(call int)
	afterRead   func(call int)
}

func newFakeBackend(now func() time.Time) *fakeBackend {
	return &fakeBackend{Service: tracker.New(newMemStore(), tracker.Options{Now: now})}
}

func (backend *fakeBackend) setDown(down bool) {
	backend.mu.Lock()
	backend.down = down
	backend.mu.Unlock()
}

func (backend *fakeBackend) isDown() bool {
	backend.mu.Lock()
	defer backend.mu.Unlock()
	return backend.down
}

func (backend *fakeBackend) calls() int {
	backend.mu.Lock()
	defer backend.mu.Unlock()
	return backend.activeCalls
}

func (backend *fakeBackend) GetActiveSession(ctx context.Context) (*model.WorkSession, error) {
	backend.mu.Lock()
	backend.activeCalls++
	call := backend.activeCalls
	before, after := backend.beforeRead, backend.afterRead
	down := backend.down
	backend.mu.Unlock()

	if before != nil {
		before(call)
	}
	if down {
		return nil, errUnreachable
	}
	session, err := backend.Service.GetActiveSession(ctx)
	if after != nil {
		after(call)
	}
	return session, err
}

func (backend *fakeBackend) StartWork(ctx context.Context, title, description string, tags []string) (model.WorkSession, error) {
	if backend.isDown() {
		return model.WorkSession{}, errUnreachable
	}
	return backend.Service.StartWork(ctx, title, description, tags)
}

func (backend *fakeBackend) StopWork(ctx context.Context, id string) (model.WorkSession, error) {
	if backend.isDown() {
		return model.WorkSession{}, errUnreachable
	}
	sealed, err := backend.Service.StopWork(ctx, id)
	backend.mu.Lock()
	fail := backend.stopFails
	backend.mu.Unlock()
	if fail {
		return model.WorkSession{}, errUnreachable
	}
	return sealed, err
}

func (backend *fakeBackend) PauseWork(ctx context.Context, id string) (model.WorkSession, error) {
	if backend.isDown() {
		return model.WorkSession{}, errUnreachable
	}
	return backend.Service.PauseWork(ctx, id)
}

func (backend *fakeBackend) ResumeWork(ctx context.Context, id string) (model.WorkSession, error) {
	if backend.isDown() {
		return model.WorkSession{}, errUnreachable
	}
	return backend.Service.ResumeWork(ctx, id)
}

type memStore struct {
	mu       sync.Mutex
	sessions map[string]model.WorkSession
}

func newMemStore() *memStore {
	return &memStore{sessions: map[string]model.WorkSession{}}
}

func (store *memStore) SaveSession(session model.WorkSession) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.sessions[session.ID] = session.Clone()
	return nil
}

func (store *memStore) SessionsForDate(date time.Time) ([]model.WorkSession, error) {
	return store.SessionsInRange(date, date)
}

func (store *memStore) SessionsInRange(start, end time.Time) ([]model.WorkSession, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	var out []model.WorkSession
	for _, session := range store.sessions {
		out = append(out, session.Clone())
	}
	return out, nil
}

func (store *memStore) DeleteSession(date time.Time, id string) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	delete(store.sessions, id)
	return nil
}

func (store *memStore) activeCount() int {
	store.mu.Lock()
	defer store.mu.Unlock()
	count := 0
	for _, session := range store.sessions {
		if session.IsActive {
			count++
		}
	}
	return count
}

type memCache struct {
	mu       sync.Mutex
	snapshot model.CacheSnapshot
	present  bool
	saves    int
}

func (cache *memCache) Load() (model.CacheSnapshot, bool, error) {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	return cache.snapshot, cache.present, nil
}

func (cache *memCache) Save(snapshot model.CacheSnapshot) error {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	cache.snapshot = snapshot
	cache.present = true
	cache.saves++
	return nil
}

func (cache *memCache) saveCount() int {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	return cache.saves
}

type captureSwitch struct {
	mu      sync.Mutex
	running string
	starts  int
	stops   int
}

func (capture *captureSwitch) Start(sessionID string) {
	capture.mu.Lock()
	defer capture.mu.Unlock()
	capture.running = sessionID
	capture.starts++
}

func (capture *captureSwitch) Stop() {
	capture.mu.Lock()
	defer capture.mu.Unlock()
	capture.running = ""
	capture.stops++
}

func (capture *captureSwitch) current() string {
	capture.mu.Lock()
	defer capture.mu.Unlock()
	return capture.running
}

type noticeLog struct {
	mu      sync.Mutex
	notices []Notice
}

func (notices *noticeLog) Notify(notice Notice) {
	notices.mu.Lock()
	notices.notices = append(notices.notices, notice)
	notices.mu.Unlock()
}

func (notices *noticeLog) count(kind NoticeKind) int {
	notices.mu.Lock()
	defer notices.mu.Unlock()
	total := 0
	for _, notice := range notices.notices {
		if notice.Kind == kind {
			total++
		}
	}
	return total
}
