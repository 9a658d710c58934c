package session

import (
	// Go Internal Packages
	"context"
	"sync"
	"time"

	// Local Packages
	errors "tx-feed/errors"
	models "tx-feed/models"
	scheduler "tx-feed/scheduler"
	aggregator "tx-feed/services/aggregator"
	delayqueue "tx-feed/services/delayqueue"
	loader "tx-feed/services/loader"
	reconciler "tx-feed/services/reconciler"

	// External Packages
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type SourceConfig struct {
	Enabled    bool
	Pagination loader.Pagination
}

type Config struct {
	Location        *time.Location
	RefreshInterval time.Duration
	Sources         map[models.SourceKind]SourceConfig
	PollQueue       bool
	PollInterval    time.Duration
	TickInterval    time.Duration
}

// Deps are the collaborators of a session. A source without a fetcher is
// left out of the feed entirely. Nil schedulers and clock mean real time.
type Deps struct {
	Fetchers       map[models.SourceKind]loader.Fetcher
	Queue          delayqueue.QueueAPI
	Notifier       reconciler.Notifier
	Clock          clockwork.Clock
	RefreshTimers  scheduler.Scheduler
	QueueTimers    scheduler.Scheduler
	CountdownTimer scheduler.Scheduler
}

// Session owns everything one signed in user sees: the per source loaders,
// the aggregated feed, the delay queue poller and the countdown reconciler.
type Session struct {
	conf       Config
	loaders    []*loader.Loader
	feed       *aggregator.Feed
	poller     *delayqueue.Poller
	reconciler *reconciler.Reconciler
	logger     *zap.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	running bool
}

func New(conf Config, deps Deps, logger *zap.Logger) *Session {
	logger = logger.With(zap.String("component", "session"))
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.RefreshTimers == nil {
		deps.RefreshTimers = scheduler.New(deps.Clock)
	}
	if deps.QueueTimers == nil {
		deps.QueueTimers = scheduler.New(deps.Clock)
	}
	if deps.CountdownTimer == nil {
		deps.CountdownTimer = deps.QueueTimers
	}

	s := &Session{conf: conf, logger: logger}

	var sources []aggregator.Source
	for _, kind := range models.SourceKinds {
		fetcher, ok := deps.Fetchers[kind]
		if !ok || fetcher == nil {
			continue
		}
		l := loader.NewLoader(kind, fetcher, loader.Config{
			Pagination:      conf.Sources[kind].Pagination,
			RefreshInterval: conf.RefreshInterval,
			Location:        conf.Location,
		}, deps.RefreshTimers, deps.Clock, logger)
		s.loaders = append(s.loaders, l)
		sources = append(sources, l)
	}

	s.feed = aggregator.NewFeed(sources, conf.Location, logger)
	for _, l := range s.loaders {
		if !conf.Sources[l.Kind()].Enabled {
			s.feed.SetEnabled(l.Kind(), false)
		}
	}

	s.reconciler = reconciler.New(deps.Clock, deps.CountdownTimer, conf.TickInterval, deps.Notifier, logger)
	if conf.PollQueue && deps.Queue != nil {
		s.poller = delayqueue.NewPoller(deps.Queue, deps.QueueTimers, conf.PollInterval, logger)
		s.poller.OnSnapshot(s.reconciler.Process)
	}
	return s
}

// Start mounts every enabled source in parallel, polls the delay queue and
// starts all timers. It returns the first failed initial load. Failed
// sources keep retrying on their refresh timer.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.E(errors.RaceNoOp, "session already started", nil)
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true
	s.mu.Unlock()

	s.logger.Info("session starting", zap.Int("sources", len(s.loaders)), zap.Bool("delay_queue", s.poller != nil))
	if s.poller != nil {
		s.poller.Start(runCtx)
	}

	var g errgroup.Group
	for _, l := range s.loaders {
		g.Go(func() error {
			return l.Start(runCtx)
		})
	}
	return g.Wait()
}

// Once loads every enabled source and the delay queue a single time without
// starting any timer.
func (s *Session) Once(ctx context.Context) error {
	var g errgroup.Group
	for _, l := range s.loaders {
		g.Go(func() error {
			return l.Refresh(ctx, l.Span())
		})
	}
	if s.poller != nil {
		g.Go(func() error {
			return s.poller.Poll(ctx)
		})
	}
	return g.Wait()
}

// Stop cancels every timer and in flight fetch and waits for them.
func (s *Session) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.running = false
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if s.poller != nil {
		s.poller.Stop()
	}
	for _, l := range s.loaders {
		l.Stop()
	}
	s.reconciler.Close()
	s.logger.Info("session stopped")
}

// SetSourceEnabled shows or hides a source in the aggregate feed.
func (s *Session) SetSourceEnabled(kind models.SourceKind, enabled bool) error {
	if _, ok := s.feed.Source(kind); !ok {
		return errors.E(errors.Invalid, "unknown source "+string(kind), nil)
	}
	s.feed.SetEnabled(kind, enabled)
	return nil
}

// LoadMore pages every enabled source that has more records.
func (s *Session) LoadMore(ctx context.Context) error {
	return s.feed.LoadMore(ctx)
}

func (s *Session) Feed() *aggregator.Feed {
	return s.feed
}

// ActiveQueue returns the delay queue without executed transactions.
func (s *Session) ActiveQueue() []models.DelayedTransaction {
	return s.reconciler.ActiveQueue()
}

// QueueErr returns the error of the last delay queue poll, if it failed.
func (s *Session) QueueErr() error {
	if s.poller == nil {
		return nil
	}
	return s.poller.Err()
}
