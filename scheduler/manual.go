package scheduler

import (
	// Go Internal Packages
	"sync"
	"time"
)

// Manual is a Scheduler whose jobs only run when Fire is called. Tests use it
// to step timers deterministically.
type Manual struct {
	mu     sync.Mutex
	nextID int
	jobs   map[int]*manualJob
}

type manualJob struct {
	interval time.Duration
	fn       func()
}

func NewManual() *Manual {
	return &Manual{jobs: make(map[int]*manualJob)}
}

func (m *Manual) Every(interval time.Duration, fn func()) Cancel {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.jobs[id] = &manualJob{interval: interval, fn: fn}
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.jobs, id)
	}
}

// Fire runs once every active job registered with interval, in registration order.
func (m *Manual) Fire(interval time.Duration) int {
	fns := m.collect(func(j *manualJob) bool { return j.interval == interval })
	for _, fn := range fns {
		fn()
	}
	return len(fns)
}

// FireAll runs every active job once.
func (m *Manual) FireAll() int {
	fns := m.collect(func(*manualJob) bool { return true })
	for _, fn := range fns {
		fn()
	}
	return len(fns)
}

// Active returns the number of jobs that have not been cancelled.
func (m *Manual) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs)
}

func (m *Manual) collect(match func(*manualJob) bool) []func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	var fns []func()
	for id := 0; id < m.nextID; id++ {
		if j, ok := m.jobs[id]; ok && match(j) {
			fns = append(fns, j.fn)
		}
	}
	return fns
}
