package scheduler

import (
	// Go Internal Packages
	"math/rand/v2"
	"sync"
	"time"

	// External Packages
	"github.com/jonboulle/clockwork"
)

// Cancel stops a scheduled job. It is safe to call more than once and from
// inside the job itself.
type Cancel func()

// Scheduler runs fn every interval until the returned Cancel is called.
// Each component owns the jobs it starts.
type Scheduler interface {
	Every(interval time.Duration, fn func()) Cancel
}

type Option func(*Clock)

// WithJitter delays the first tick of every job by a random duration in [0, max).
func WithJitter(max time.Duration) Option {
	return func(c *Clock) {
		c.jitter = max
	}
}

// Clock is a Scheduler backed by clockwork tickers, one goroutine per job.
type Clock struct {
	clock  clockwork.Clock
	jitter time.Duration
}

func New(clock clockwork.Clock, opts ...Option) *Clock {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	c := &Clock{clock: clock}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Clock) Every(interval time.Duration, fn func()) Cancel {
	done := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() { close(done) })
	}

	delay := time.Duration(0)
	if c.jitter > 0 {
		delay = rand.N(c.jitter)
	}

	go func() {
		if delay > 0 {
			select {
			case <-done:
				return
			case <-c.clock.After(delay):
			}
		}

		ticker := c.clock.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.Chan():
				select {
				case <-done:
					return
				default:
				}
				fn()
			}
		}
	}()
	return cancel
}
