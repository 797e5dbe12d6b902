package tracker

import "time"

// Event is a payload-less hint that the canonical session changed and
// observers should reconcile.
type Event struct {
	SessionID string
	At        time.Time
}

// Subscribe registers a new observer channel.
func (service *Service) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	service.mu.Lock()
	if service.closed {
		close(ch)
	} else {
		service.events = append(service.events, ch)
	}
	service.mu.Unlock()
	return ch
}

// Close releases observers.
func (service *Service) Close() {
	service.mu.Lock()
	if service.closed {
		service.mu.Unlock()
		return
	}
	service.closed = true
	events := service.events
	service.events = nil
	service.mu.Unlock()

	for _, ch := range events {
		close(ch)
	}
}

func (service *Service) notify(sessionID string) {
	service.mu.Lock()
	defer service.mu.Unlock()
	event := Event{SessionID: sessionID, At: service.now()}
	for _, ch := range service.events {
		select {
		case ch <- event:
		default:
		}
	}
}
