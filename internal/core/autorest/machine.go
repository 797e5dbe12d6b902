package autorest

import (
	"log"
	"sync"
	"time"

	"worktrail/internal/core/idle"
	"worktrail/internal/core/model"
)

const defaultIdleThreshold = 5 * time.Minute

// TimelineSink receives the timeline side effects of rest transitions.
type TimelineSink interface {
	RecordRest(at time.Time) error
	RecordResume(at time.Time) error
}

// Options contains collaborators for Machine.
type Options struct {
	Now  func() time.Time
	Sink TimelineSink
}

// Machine toggles between working and resting from idle samples and manual
// commands. It owns no timer; the caller drives Poll.
type Machine struct {
	mu            sync.Mutex
	config        model.AutoRestConfig
	monitor       idle.Monitor
	sink          TimelineSink
	now           func() time.Time
	state         State
	lastActivity  time.Time
	restStart     time.Time
	timeUntilRest *int64
	events        []chan Event
	closed        bool
}

// New creates a Machine in the working state.
func New(config model.AutoRestConfig, monitor idle.Monitor, options Options) *Machine {
	if options.Now == nil {
		options.Now = time.Now
	}
	machine := &Machine{
		config:       normalizeConfig(config),
		monitor:      monitor,
		sink:         options.Sink,
		now:          options.Now,
		state:        StateWorking,
		lastActivity: options.Now(),
	}
	return machine
}

// SetSink injects the timeline sink.
func (machine *Machine) SetSink(sink TimelineSink) {
	machine.mu.Lock()
	defer machine.mu.Unlock()
	machine.sink = sink
}

// Subscribe registers a new observer channel.
func (machine *Machine) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	machine.mu.Lock()
	if machine.closed {
		close(ch)
	} else {
		machine.events = append(machine.events, ch)
	}
	machine.mu.Unlock()
	return ch
}

// Close releases observers. Further transitions are still applied but not
// broadcast.
func (machine *Machine) Close() {
	machine.mu.Lock()
	if machine.closed {
		machine.mu.Unlock()
		return
	}
	machine.closed = true
	events := machine.events
	machine.events = nil
	machine.mu.Unlock()

	for _, ch := range events {
		close(ch)
	}
}

// State returns the current mode.
func (machine *Machine) State() State {
	machine.mu.Lock()
	defer machine.mu.Unlock()
	return machine.state
}

// Status returns a snapshot of the rest status.
func (machine *Machine) Status() model.RestStatus {
	machine.mu.Lock()
	defer machine.mu.Unlock()
	return machine.statusLocked()
}

// Poll consumes one idle sample taken at now.
func (machine *Machine) Poll(now time.Time) {
	secondsIdle := machine.monitor.Sample()
	if secondsIdle < 0 {
		secondsIdle = 0
	}
	idleFor := time.Duration(secondsIdle) * time.Second

	machine.mu.Lock()
	machine.lastActivity = now.Add(-idleFor)
	var step transition
	switch machine.state {
	case StateWorking:
		if machine.config.Enabled && idleFor >= machine.config.IdleThreshold {
			step = machine.enterRestLocked(now)
		} else {
			machine.updateTimeUntilRestLocked(idleFor)
		}
	case StateResting:
		if idleFor < machine.config.ResumeBelow {
			step = machine.leaveRestLocked(now)
		}
	}
	machine.mu.Unlock()

	machine.finish(step, now)
}

// ResumeActivity ends a rest on an explicit user command. The command
// counts as activity, so the monitor's idle counter restarts too.
func (machine *Machine) ResumeActivity() {
	machine.monitor.OnActivity()
	now := machine.now()
	machine.mu.Lock()
	if machine.state != StateResting {
		machine.mu.Unlock()
		return
	}
	machine.lastActivity = now
	step := machine.leaveRestLocked(now)
	machine.mu.Unlock()

	machine.finish(step, now)
}

// ResetActivity records user activity, restarting the idle countdown.
func (machine *Machine) ResetActivity() {
	machine.monitor.OnActivity()
	now := machine.now()

	machine.mu.Lock()
	machine.lastActivity = now
	var step transition
	if machine.state == StateResting {
		step = machine.leaveRestLocked(now)
	} else {
		machine.updateTimeUntilRestLocked(0)
	}
	step.events = append([]model.AutoRestEvent{{Type: model.ActivityDetected, Timestamp: now}}, step.events...)
	machine.mu.Unlock()

	machine.finish(step, now)
}

// UpdateConfig applies new settings. Disabling while resting ends the rest.
func (machine *Machine) UpdateConfig(config model.AutoRestConfig) {
	now := machine.now()
	machine.mu.Lock()
	machine.config = normalizeConfig(config)
	var step transition
	if !machine.config.Enabled && machine.state == StateResting {
		step = machine.leaveRestLocked(now)
	}
	if machine.state == StateWorking {
		machine.updateTimeUntilRestLocked(now.Sub(machine.lastActivity))
	}
	machine.mu.Unlock()

	machine.finish(step, now)
}

// ReportIdleFallback broadcasts a one-time hint that native idle detection
// is unavailable.
func (machine *Machine) ReportIdleFallback(err error) {
	message := "idle detection fell back to activity tracking"
	if err != nil {
		message = message + ": " + err.Error()
	}
	machine.mu.Lock()
	defer machine.mu.Unlock()
	machine.emitLocked(Event{
		Type:    EventIdleFallback,
		Status:  machine.statusLocked(),
		Message: message,
		At:      machine.now(),
	})
}

// transition collects the side effects of a state change so the sink is
// called outside the lock.
type transition struct {
	sink   func()
	events []model.AutoRestEvent
}

func (machine *Machine) finish(step transition, now time.Time) {
	if step.sink != nil {
		step.sink()
	}

	machine.mu.Lock()
	defer machine.mu.Unlock()
	status := machine.statusLocked()
	for _, event := range step.events {
		machine.emitLocked(Event{
			Type:     EventAutoRest,
			Status:   status,
			AutoRest: event,
			At:       event.Timestamp,
		})
	}
	machine.emitLocked(Event{
		Type:   EventStatusChanged,
		Status: status,
		At:     now,
	})
}

func (machine *Machine) enterRestLocked(now time.Time) transition {
	machine.state = StateResting
	machine.restStart = now
	machine.timeUntilRest = nil

	sink := machine.sink
	return transition{
		sink: func() {
			if sink == nil {
				return
			}
			if err := sink.RecordRest(now); err != nil {
				log.Printf("auto rest: record rest: %v", err)
			}
		},
		events: []model.AutoRestEvent{{Type: model.RestStarted, Timestamp: now}},
	}
}

func (machine *Machine) leaveRestLocked(now time.Time) transition {
	restDuration := now.Sub(machine.restStart)
	if restDuration < 0 {
		restDuration = 0
	}
	machine.state = StateWorking
	machine.restStart = time.Time{}
	machine.updateTimeUntilRestLocked(now.Sub(machine.lastActivity))

	sink := machine.sink
	return transition{
		sink: func() {
			if sink == nil {
				return
			}
			if err := sink.RecordResume(now); err != nil {
				log.Printf("auto rest: record resume: %v", err)
			}
		},
		events: []model.AutoRestEvent{{
			Type:      model.RestEnded,
			Timestamp: now,
			Duration:  restDuration,
		}},
	}
}

func (machine *Machine) updateTimeUntilRestLocked(idleFor time.Duration) {
	if !machine.config.Enabled {
		machine.timeUntilRest = nil
		return
	}
	remaining := machine.config.IdleThreshold - idleFor
	if remaining < 0 {
		remaining = 0
	}
	seconds := int64(remaining / time.Second)
	machine.timeUntilRest = &seconds
}

func (machine *Machine) statusLocked() model.RestStatus {
	status := model.RestStatus{
		Enabled:                  machine.config.Enabled,
		IsResting:                machine.state == StateResting,
		IdleTimeThresholdMinutes: int(machine.config.IdleThreshold / time.Minute),
		LastActivityTime:         machine.lastActivity,
	}
	if machine.state == StateResting {
		restStart := machine.restStart
		status.RestStartTime = &restStart
	}
	if machine.timeUntilRest != nil {
		seconds := *machine.timeUntilRest
		status.TimeUntilRestSeconds = &seconds
	}
	return status
}

func (machine *Machine) emitLocked(event Event) {
	for _, ch := range machine.events {
		select {
		case ch <- event:
		default:
		}
	}
}

func normalizeConfig(config model.AutoRestConfig) model.AutoRestConfig {
	if config.IdleThreshold <= 0 {
		config.IdleThreshold = defaultIdleThreshold
	}
	if config.ResumeBelow <= 0 {
		config.ResumeBelow = model.DefaultResumeBelow
	}
	return config
}
