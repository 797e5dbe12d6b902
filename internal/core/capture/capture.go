package capture

import (
	"errors"
	"log"
	"sync"
	"time"
)

// ErrUnsupported indicates screen capture is not available on this system.
var ErrUnsupported = errors.New("screen capture unsupported")

// DefaultInterval is used when no interval is configured.
const DefaultInterval = 5 * time.Minute

// Source grabs the screen as encoded image bytes.
type Source interface {
	Capture() ([]byte, error)
}

// ArtifactStore keeps captured images tagged with their session.
type ArtifactStore interface {
	SaveScreenshot(sessionID string, takenAt time.Time, data []byte) error
}

// Controller runs the capture timer for the active session only.
type Controller struct {
	mu          sync.Mutex
	source      Source
	store       ArtifactStore
	interval    time.Duration
	enabled     bool
	sessionID   string
	stopCh      chan struct{}
	done        chan struct{}
	unsupported bool
}

// New creates a stopped Controller.
func New(source Source, store ArtifactStore, interval time.Duration, enabled bool) *Controller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Controller{
		source:   source,
		store:    store,
		interval: interval,
		enabled:  enabled,
	}
}

// Start runs the timer for sessionID. Starting the running session again is
// a no-op; a different session restarts the timer.
func (controller *Controller) Start(sessionID string) {
	controller.mu.Lock()
	if controller.stopCh != nil && controller.sessionID == sessionID {
		controller.mu.Unlock()
		return
	}
	done := controller.haltLocked()
	controller.sessionID = sessionID
	if controller.enabled && !controller.unsupported && sessionID != "" {
		controller.launchLocked()
	}
	controller.mu.Unlock()
	wait(done)
}

// Stop halts the timer.
func (controller *Controller) Stop() {
	controller.mu.Lock()
	done := controller.haltLocked()
	controller.sessionID = ""
	controller.mu.Unlock()
	wait(done)
}

// Running returns the session being captured, if any.
func (controller *Controller) Running() (string, bool) {
	controller.mu.Lock()
	defer controller.mu.Unlock()
	return controller.sessionID, controller.stopCh != nil
}

// Configure applies new settings, restarting the timer when needed.
func (controller *Controller) Configure(interval time.Duration, enabled bool) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	controller.mu.Lock()
	if controller.interval == interval && controller.enabled == enabled {
		controller.mu.Unlock()
		return
	}
	controller.interval = interval
	controller.enabled = enabled
	done := controller.haltLocked()
	if enabled && !controller.unsupported && controller.sessionID != "" {
		controller.launchLocked()
	}
	controller.mu.Unlock()
	wait(done)
}

func (controller *Controller) haltLocked() chan struct{} {
	if controller.stopCh == nil {
		return nil
	}
	close(controller.stopCh)
	done := controller.done
	controller.stopCh = nil
	controller.done = nil
	return done
}

func (controller *Controller) launchLocked() {
	stopCh := make(chan struct{})
	done := make(chan struct{})
	controller.stopCh = stopCh
	controller.done = done
	go controller.run(controller.sessionID, controller.interval, stopCh, done)
}

func (controller *Controller) run(sessionID string, interval time.Duration, stopCh, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case tickTime := <-ticker.C:
			if !controller.shoot(sessionID, tickTime) {
				return
			}
		}
	}
}

// shoot takes one screenshot. It returns false when capture is unsupported.
func (controller *Controller) shoot(sessionID string, takenAt time.Time) bool {
	data, err := controller.source.Capture()
	if err != nil {
		if errors.Is(err, ErrUnsupported) {
			log.Printf("capture: %v; disabling", err)
			controller.mu.Lock()
			controller.unsupported = true
			controller.mu.Unlock()
			return false
		}
		log.Printf("capture: grab screen: %v", err)
		return true
	}
	if err := controller.store.SaveScreenshot(sessionID, takenAt, data); err != nil {
		log.Printf("capture: save screenshot: %v", err)
	}
	return true
}

func wait(done chan struct{}) {
	if done != nil {
		<-done
	}
}
