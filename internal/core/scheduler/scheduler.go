package scheduler

import (
	"sync"
	"time"
)

// Job is a named periodic callback.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(time.Time)
}

// Scheduler runs fire-and-forget periodic jobs for the lifetime of the
// process. Jobs never overlap with themselves; a slow run skips ticks.
type Scheduler struct {
	mu      sync.Mutex
	jobs    []Job
	stopCh  chan struct{}
	wg      sync.WaitGroup
	running bool
}

// New creates an idle scheduler.
func New() *Scheduler {
	return &Scheduler{}
}

// Every registers a job. Jobs added after Start begin immediately.
func (scheduler *Scheduler) Every(name string, interval time.Duration, run func(time.Time)) {
	if interval <= 0 || run == nil {
		return
	}
	job := Job{Name: name, Interval: interval, Run: run}

	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()
	scheduler.jobs = append(scheduler.jobs, job)
	if scheduler.running {
		scheduler.launchLocked(job)
	}
}

// Jobs returns the registered job names in registration order.
func (scheduler *Scheduler) Jobs() []string {
	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()
	names := make([]string, 0, len(scheduler.jobs))
	for _, job := range scheduler.jobs {
		names = append(names, job.Name)
	}
	return names
}

// Start launches every registered job.
func (scheduler *Scheduler) Start() {
	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()
	if scheduler.running {
		return
	}
	scheduler.running = true
	scheduler.stopCh = make(chan struct{})
	for _, job := range scheduler.jobs {
		scheduler.launchLocked(job)
	}
}

// Stop halts every job and waits for in-flight runs to return.
func (scheduler *Scheduler) Stop() {
	scheduler.mu.Lock()
	if !scheduler.running {
		scheduler.mu.Unlock()
		return
	}
	scheduler.running = false
	close(scheduler.stopCh)
	scheduler.mu.Unlock()

	scheduler.wg.Wait()
}

func (scheduler *Scheduler) launchLocked(job Job) {
	stopCh := scheduler.stopCh
	scheduler.wg.Add(1)
	go func() {
		defer scheduler.wg.Done()
		ticker := time.NewTicker(job.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-stopCh:
				return
			case tickTime := <-ticker.C:
				select {
				case <-stopCh:
					return
				default:
				}
				job.Run(tickTime)
			}
		}
	}()
}
