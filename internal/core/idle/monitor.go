package idle

import (
	"errors"
	"sync"
	"time"
)

// ErrUnsupported indicates native idle detection is not available on this
// system.
var ErrUnsupported = errors.New("idle detection unsupported")

// MaxNativeFailures is the number of consecutive native query failures after
// which a NativeMonitor downgrades to activity tracking.
const MaxNativeFailures = 3

// Monitor reports how long the user has been idle.
type Monitor interface {
	// Sample returns whole seconds since the last observed input.
	Sample() int64
	// OnActivity records a proxy activity signal. Native strategies still
	// accept it so a later downgrade starts from a sensible baseline.
	OnActivity()
}

// Querier reports the duration of user inactivity from the operating system.
type Querier interface {
	IdleDuration() (time.Duration, error)
}

// Options configures monitor construction.
type Options struct {
	Now func() time.Time
	// OnDowngrade fires once when a native monitor falls back to activity
	// tracking.
	OnDowngrade func(err error)
}

// New returns a native monitor when querier is non-nil, otherwise an
// activity monitor.
func New(querier Querier, options Options) Monitor {
	if querier == nil {
		return NewActivityMonitor(options.Now)
	}
	return NewNativeMonitor(querier, options)
}

// ActivityMonitor approximates idleness from proxy activity callbacks.
type ActivityMonitor struct {
	mu           sync.Mutex
	now          func() time.Time
	lastActivity time.Time
}

// NewActivityMonitor creates a fallback monitor. The start time counts as
// activity.
func NewActivityMonitor(now func() time.Time) *ActivityMonitor {
	if now == nil {
		now = time.Now
	}
	return &ActivityMonitor{now: now, lastActivity: now()}
}

// Sample returns seconds since the last recorded activity.
func (monitor *ActivityMonitor) Sample() int64 {
	monitor.mu.Lock()
	defer monitor.mu.Unlock()
	return seconds(monitor.now().Sub(monitor.lastActivity))
}

// OnActivity resets the idle counter.
func (monitor *ActivityMonitor) OnActivity() {
	monitor.mu.Lock()
	monitor.lastActivity = monitor.now()
	monitor.mu.Unlock()
}

// LastActivity returns the time of the last recorded activity.
func (monitor *ActivityMonitor) LastActivity() time.Time {
	monitor.mu.Lock()
	defer monitor.mu.Unlock()
	return monitor.lastActivity
}

// NativeMonitor polls the operating system and permanently falls back to
// activity tracking once the query keeps failing.
type NativeMonitor struct {
	mu          sync.Mutex
	querier     Querier
	fallback    *ActivityMonitor
	failures    int
	downgraded  bool
	onDowngrade func(err error)
}

// NewNativeMonitor wraps querier.
func NewNativeMonitor(querier Querier, options Options) *NativeMonitor {
	return &NativeMonitor{
		querier:     querier,
		fallback:    NewActivityMonitor(options.Now),
		onDowngrade: options.OnDowngrade,
	}
}

// Sample queries the OS. Failed queries answer from the fallback tracker.
func (monitor *NativeMonitor) Sample() int64 {
	monitor.mu.Lock()
	if monitor.downgraded {
		monitor.mu.Unlock()
		return monitor.fallback.Sample()
	}

	idleDuration, err := monitor.querier.IdleDuration()
	if err == nil {
		monitor.failures = 0
		monitor.mu.Unlock()
		return seconds(idleDuration)
	}

	monitor.failures++
	var notify func(error)
	if errors.Is(err, ErrUnsupported) || monitor.failures >= MaxNativeFailures {
		monitor.downgraded = true
		notify = monitor.onDowngrade
	}
	monitor.mu.Unlock()

	if notify != nil {
		notify(err)
	}
	return monitor.fallback.Sample()
}

// OnActivity feeds the fallback tracker.
func (monitor *NativeMonitor) OnActivity() {
	monitor.fallback.OnActivity()
}

// Downgraded reports whether the monitor has switched to activity tracking.
func (monitor *NativeMonitor) Downgraded() bool {
	monitor.mu.Lock()
	defer monitor.mu.Unlock()
	return monitor.downgraded
}

func seconds(duration time.Duration) int64 {
	if duration < 0 {
		return 0
	}
	return int64(duration / time.Second)
}
