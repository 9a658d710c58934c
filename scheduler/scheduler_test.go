package scheduler

import (
	// Go Internal Packages
	"sync/atomic"
	"testing"
	"time"

	// External Packages
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestClock_EveryFiresOnTicks(t *testing.T) {
	fc := clockwork.NewFakeClock()
	s := New(fc)

	var calls atomic.Int32
	cancel := s.Every(time.Second, func() { calls.Add(1) })
	defer cancel()

	fc.BlockUntil(1)
	fc.Advance(time.Second)
	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	fc.Advance(time.Second)
	assert.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestClock_CancelStopsJob(t *testing.T) {
	fc := clockwork.NewFakeClock()
	s := New(fc)

	var calls atomic.Int32
	cancel := s.Every(time.Second, func() { calls.Add(1) })
	fc.BlockUntil(1)

	cancel()
	cancel()
	fc.BlockUntil(0)
	fc.Advance(5 * time.Second)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
}

func TestClock_CancelFromInsideJob(t *testing.T) {
	fc := clockwork.NewFakeClock()
	s := New(fc)

	var calls atomic.Int32
	var cancel Cancel
	done := make(chan struct{})
	cancel = s.Every(time.Second, func() {
		calls.Add(1)
		cancel()
		close(done)
	})

	fc.BlockUntil(1)
	fc.Advance(time.Second)
	<-done
	fc.BlockUntil(0)
	assert.Equal(t, int32(1), calls.Load())
}

func TestManual(t *testing.T) {
	m := NewManual()
	var fast, slow int
	cancelFast := m.Every(time.Second, func() { fast++ })
	m.Every(time.Minute, func() { slow++ })

	assert.Equal(t, 2, m.Active())
	assert.Equal(t, 1, m.Fire(time.Second))
	assert.Equal(t, 2, m.FireAll())
	assert.Equal(t, 2, fast)
	assert.Equal(t, 1, slow)

	cancelFast()
	cancelFast()
	assert.Equal(t, 1, m.Active())
	assert.Equal(t, 0, m.Fire(time.Second))
}
