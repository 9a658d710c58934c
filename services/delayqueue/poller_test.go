package delayqueue

import (
	// Go Internal Packages
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	// Local Packages
	errors "tx-feed/errors"
	models "tx-feed/models"
	scheduler "tx-feed/scheduler"

	// External Packages
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeQueue struct {
	mu    sync.Mutex
	calls int
	fn    func(ctx context.Context, call int) ([]models.DelayedTransaction, error)
}

func (f *fakeQueue) DelayQueue(ctx context.Context) ([]models.DelayedTransaction, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	fn := f.fn
	f.mu.Unlock()
	return fn(ctx, call)
}

func (f *fakeQueue) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func queue(ids ...string) []models.DelayedTransaction {
	out := make([]models.DelayedTransaction, len(ids))
	for i, id := range ids {
		out[i] = models.DelayedTransaction{ID: id, Status: models.DelayWaiting}
	}
	return out
}

func TestPoller_PollsOnStartAndEveryTick(t *testing.T) {
	api := &fakeQueue{fn: func(ctx context.Context, call int) ([]models.DelayedTransaction, error) {
		return queue("tx-1"), nil
	}}
	sched := scheduler.NewManual()
	p := NewPoller(api, sched, 30*time.Second, zap.NewNop())

	var received [][]models.DelayedTransaction
	var mu sync.Mutex
	p.OnSnapshot(func(s []models.DelayedTransaction) {
		mu.Lock()
		received = append(received, s)
		mu.Unlock()
	})

	p.Start(context.Background())
	p.wg.Wait()
	assert.Equal(t, 1, api.Calls())
	assert.Equal(t, queue("tx-1"), p.Snapshot())
	assert.Equal(t, 1, sched.Active())

	assert.Equal(t, 1, sched.Fire(30*time.Second))
	p.wg.Wait()
	assert.Equal(t, 2, api.Calls())

	mu.Lock()
	assert.Len(t, received, 2)
	mu.Unlock()

	p.Stop()
	assert.Equal(t, 0, sched.Active())
}

func TestPoller_FailureKeepsPreviousSnapshot(t *testing.T) {
	boom := stderrors.New("connection reset")
	api := &fakeQueue{fn: func(ctx context.Context, call int) ([]models.DelayedTransaction, error) {
		if call == 2 {
			return nil, boom
		}
		return queue("tx-1", "tx-2"), nil
	}}
	p := NewPoller(api, scheduler.NewManual(), 0, zap.NewNop())

	var deliveries int
	p.OnSnapshot(func([]models.DelayedTransaction) { deliveries++ })

	ctx := context.Background()
	require.NoError(t, p.Poll(ctx))

	err := p.Poll(ctx)
	require.ErrorIs(t, err, boom)
	assert.True(t, errors.IsKind(p.Err(), errors.Fetch))
	assert.Equal(t, queue("tx-1", "tx-2"), p.Snapshot(), "failed poll must not clear the queue")
	assert.Equal(t, 1, deliveries, "failures are not delivered as snapshots")

	require.NoError(t, p.Poll(ctx))
	assert.NoError(t, p.Err())
	assert.Equal(t, 2, deliveries)
}

func TestPoller_SlowFetchDoesNotBlockNextTickOrRollBack(t *testing.T) {
	releaseFirst := make(chan struct{})
	firstEntered := make(chan struct{})
	api := &fakeQueue{fn: func(ctx context.Context, call int) ([]models.DelayedTransaction, error) {
		if call == 1 {
			close(firstEntered)
			<-releaseFirst
			return queue("old"), nil
		}
		return queue("new"), nil
	}}
	sched := scheduler.NewManual()
	p := NewPoller(api, sched, 30*time.Second, zap.NewNop())

	var mu sync.Mutex
	var delivered [][]models.DelayedTransaction
	p.OnSnapshot(func(s []models.DelayedTransaction) {
		mu.Lock()
		delivered = append(delivered, s)
		mu.Unlock()
	})

	p.Start(context.Background())
	<-firstEntered
	assert.True(t, p.Loading())

	sched.Fire(30 * time.Second)
	assert.Eventually(t, func() bool { return len(p.Snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, api.Calls())
	assert.Equal(t, queue("new"), p.Snapshot())

	close(releaseFirst)
	p.Stop()

	assert.Equal(t, queue("new"), p.Snapshot(), "late response of an older poll is discarded")
	assert.False(t, p.Loading())
	mu.Lock()
	assert.Equal(t, [][]models.DelayedTransaction{queue("new")}, delivered)
	mu.Unlock()
}

func TestPoller_StopCancelsInFlightFetch(t *testing.T) {
	entered := make(chan struct{})
	api := &fakeQueue{fn: func(ctx context.Context, call int) ([]models.DelayedTransaction, error) {
		close(entered)
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	sched := scheduler.NewManual()
	p := NewPoller(api, sched, time.Minute, zap.NewNop())

	p.Start(context.Background())
	<-entered
	p.Stop()

	assert.Equal(t, 0, sched.Active())
	assert.Empty(t, p.Snapshot())
	assert.ErrorIs(t, p.Err(), context.Canceled)
}

func TestPoller_TickAfterStopDoesNotPoll(t *testing.T) {
	api := &fakeQueue{fn: func(ctx context.Context, call int) ([]models.DelayedTransaction, error) {
		return queue("tx-1"), nil
	}}
	sched := scheduler.NewManual()
	p := NewPoller(api, sched, 30*time.Second, zap.NewNop())

	p.Start(context.Background())
	p.wg.Wait()
	require.Equal(t, 1, api.Calls())
	p.Stop()

	// a tick that was already running when Stop was called
	p.pollAsync(context.Background())
	p.wg.Wait()
	assert.Equal(t, 1, api.Calls())

	// and one still holding the context of the stopped run
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p.Start(context.Background())
	p.wg.Wait()
	p.pollAsync(ctx)
	p.wg.Wait()
	assert.Equal(t, 2, api.Calls(), "only the restart polls")
	p.Stop()
}
