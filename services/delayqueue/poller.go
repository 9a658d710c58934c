package delayqueue

import (
	// Go Internal Packages
	"context"
	"sync"
	"time"

	// Local Packages
	errors "tx-feed/errors"
	metrics "tx-feed/metrics"
	models "tx-feed/models"
	scheduler "tx-feed/scheduler"

	// External Packages
	"go.uber.org/zap"
)

type QueueAPI interface {
	DelayQueue(ctx context.Context) ([]models.DelayedTransaction, error)
}

// Poller fetches the delay queue snapshot on a fixed interval. A slow fetch
// never holds back the next tick, and a response older than the last applied
// one is discarded.
type Poller struct {
	api      QueueAPI
	sched    scheduler.Scheduler
	interval time.Duration
	logger   *zap.Logger

	mu         sync.Mutex
	snapshot   []models.DelayedTransaction
	err        error
	inflight   int
	seq        uint64
	applied    uint64
	listeners  []func([]models.DelayedTransaction)
	cancelTick scheduler.Cancel
	cancelRun  context.CancelFunc

	// held from applying a snapshot until its listeners return
	deliverMu sync.Mutex
	wg        sync.WaitGroup
}

func NewPoller(api QueueAPI, sched scheduler.Scheduler, interval time.Duration, logger *zap.Logger) *Poller {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Poller{
		api:      api,
		sched:    sched,
		interval: interval,
		logger:   logger.With(zap.String("component", "delay_queue_poller")),
	}
}

// OnSnapshot registers fn to receive every successfully fetched snapshot.
func (p *Poller) OnSnapshot(fn func([]models.DelayedTransaction)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

// Start polls once immediately and then every interval until Stop.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.cancelTick != nil {
		p.mu.Unlock()
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.cancelRun = cancel
	p.cancelTick = p.sched.Every(p.interval, func() {
		p.pollAsync(runCtx)
	})
	p.mu.Unlock()

	p.logger.Info("delay queue polling started", zap.Duration("interval", p.interval))
	p.pollAsync(runCtx)
}

// Stop cancels the timer and any fetch in flight, then waits for them.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancelTick, cancelRun := p.cancelTick, p.cancelRun
	p.cancelTick, p.cancelRun = nil, nil
	p.mu.Unlock()

	if cancelTick != nil {
		cancelTick()
	}
	if cancelRun != nil {
		cancelRun()
	}
	p.wg.Wait()
}

// pollAsync starts a poll unless the poller has been stopped.
func (p *Poller) pollAsync(ctx context.Context) {
	p.mu.Lock()
	if p.cancelRun == nil || ctx.Err() != nil {
		p.mu.Unlock()
		return
	}
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()
		_ = p.Poll(ctx)
	}()
}

// Poll fetches one snapshot. On failure the previous snapshot is kept and
// the error is recorded.
func (p *Poller) Poll(ctx context.Context) error {
	p.mu.Lock()
	p.seq++
	seq := p.seq
	p.inflight++
	p.mu.Unlock()

	snapshot, err := p.api.DelayQueue(ctx)

	p.deliverMu.Lock()
	defer p.deliverMu.Unlock()

	p.mu.Lock()
	p.inflight--
	if err != nil {
		err = errors.FetchErr("delay_queue", err)
		if seq > p.applied {
			p.err = err
		}
		p.mu.Unlock()

		metrics.DelayQueuePollsTotal.WithLabelValues("error").Inc()
		p.logger.Warn("delay queue poll failed", zap.Error(err))
		return err
	}
	if seq < p.applied {
		p.mu.Unlock()
		metrics.DelayQueuePollsTotal.WithLabelValues("stale").Inc()
		p.logger.Debug("discarding stale delay queue snapshot", zap.Uint64("seq", seq))
		return nil
	}
	p.applied = seq
	p.snapshot = snapshot
	p.err = nil
	listeners := make([]func([]models.DelayedTransaction), len(p.listeners))
	copy(listeners, p.listeners)
	p.mu.Unlock()

	metrics.DelayQueuePollsTotal.WithLabelValues("success").Inc()
	p.logger.Debug("delay queue polled", zap.Int("transactions", len(snapshot)))

	for _, fn := range listeners {
		fn(snapshot)
	}
	return nil
}

// Snapshot returns the last successfully fetched snapshot.
func (p *Poller) Snapshot() []models.DelayedTransaction {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.DelayedTransaction, len(p.snapshot))
	copy(out, p.snapshot)
	return out
}

func (p *Poller) Loading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inflight > 0
}

func (p *Poller) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}
