package aggregator

import (
	// Go Internal Packages
	"context"
	"sync"
	"time"

	// Local Packages
	metrics "tx-feed/metrics"
	models "tx-feed/models"
	loader "tx-feed/services/loader"

	// External Packages
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Source is the part of a loader the feed depends on.
type Source interface {
	Kind() models.SourceKind
	Window() loader.SourceWindow
	HasMore() bool
	LoadMore(ctx context.Context) error
	SetEnabled(enabled bool)
	OnChange(fn func())
}

// Feed keeps the aggregate of its sources current. Any source change
// triggers a full recompute.
type Feed struct {
	sources []Source
	loc     *time.Location
	logger  *zap.Logger

	// serializes recomputes so subscribers never see an older feed last
	recomputeMu sync.Mutex

	mu          sync.Mutex
	enabled     map[models.SourceKind]bool
	current     models.DateGroupedFeed
	hasNext     bool
	nextSubID   int
	subscribers map[int]chan models.DateGroupedFeed
}

// NewFeed wires the feed to sources, whose order is the tie-break order for
// equal timestamps.
func NewFeed(sources []Source, loc *time.Location, logger *zap.Logger) *Feed {
	if loc == nil {
		loc = time.Local
	}
	f := &Feed{
		sources:     sources,
		loc:         loc,
		logger:      logger.With(zap.String("component", "feed")),
		enabled:     make(map[models.SourceKind]bool, len(sources)),
		subscribers: make(map[int]chan models.DateGroupedFeed),
	}
	for _, s := range sources {
		f.enabled[s.Kind()] = true
		s.OnChange(f.Recompute)
	}
	f.Recompute()
	return f
}

// SetEnabled shows or hides a source and stops or resumes its fetching.
func (f *Feed) SetEnabled(kind models.SourceKind, enabled bool) {
	f.mu.Lock()
	f.enabled[kind] = enabled
	f.mu.Unlock()

	for _, s := range f.sources {
		if s.Kind() == kind {
			s.SetEnabled(enabled)
		}
	}
	f.Recompute()
}

func (f *Feed) Enabled(kind models.SourceKind) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enabled[kind]
}

// Recompute rebuilds the feed from the sources' current windows and
// publishes it to subscribers.
func (f *Feed) Recompute() {
	f.recomputeMu.Lock()
	defer f.recomputeMu.Unlock()

	windows := f.windows()

	f.mu.Lock()
	enabled := make(map[models.SourceKind]bool, len(f.enabled))
	for k, v := range f.enabled {
		enabled[k] = v
	}
	f.mu.Unlock()

	feed := Aggregate(windows, enabled, f.loc)
	hasNext := HasNextPage(windows, enabled)

	f.mu.Lock()
	f.current = feed
	f.hasNext = hasNext
	subs := make([]chan models.DateGroupedFeed, 0, len(f.subscribers))
	for _, ch := range f.subscribers {
		subs = append(subs, ch)
	}
	f.mu.Unlock()

	metrics.FeedRecomputesTotal.Inc()
	metrics.FeedTransactions.Set(float64(feed.Len()))

	for _, ch := range subs {
		publishLatest(ch, feed)
	}
}

// publishLatest replaces whatever the subscriber has not read yet.
func publishLatest(ch chan models.DateGroupedFeed, feed models.DateGroupedFeed) {
	for {
		select {
		case ch <- feed:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

func (f *Feed) Current() models.DateGroupedFeed {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

func (f *Feed) HasNextPage() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hasNext
}

// LoadMore extends every enabled source that still has more, in parallel,
// and returns once all of them finished. Sources fail independently, the
// first error is returned after every load completed.
func (f *Feed) LoadMore(ctx context.Context) error {
	var g errgroup.Group
	for _, s := range f.sources {
		s := s
		if !f.Enabled(s.Kind()) || !s.HasMore() {
			continue
		}
		g.Go(func() error {
			return s.LoadMore(ctx)
		})
	}
	err := g.Wait()
	if err != nil {
		f.logger.Warn("load more finished with errors", zap.Error(err))
	}
	return err
}

// View returns the date grouped records of a single source regardless of
// whether it is enabled in the aggregate.
func (f *Feed) View(kind models.SourceKind) models.DateGroupedFeed {
	for _, s := range f.sources {
		if s.Kind() == kind {
			return Aggregate([]loader.SourceWindow{s.Window()}, map[models.SourceKind]bool{kind: true}, f.loc)
		}
	}
	return models.DateGroupedFeed{Days: []models.DayGroup{}}
}

// Source returns the loader behind kind.
func (f *Feed) Source(kind models.SourceKind) (Source, bool) {
	for _, s := range f.sources {
		if s.Kind() == kind {
			return s, true
		}
	}
	return nil, false
}

// Windows returns the current state of every source, in feed order.
func (f *Feed) Windows() []loader.SourceWindow {
	return f.windows()
}

// Subscribe returns a channel receiving every recomputed feed. A slow reader
// only sees the latest one.
func (f *Feed) Subscribe() (<-chan models.DateGroupedFeed, func()) {
	ch := make(chan models.DateGroupedFeed, 1)

	f.mu.Lock()
	id := f.nextSubID
	f.nextSubID++
	f.subscribers[id] = ch
	f.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subscribers, id)
			f.mu.Unlock()
		})
	}
}

func (f *Feed) windows() []loader.SourceWindow {
	out := make([]loader.SourceWindow, 0, len(f.sources))
	for _, s := range f.sources {
		out = append(out, s.Window())
	}
	return out
}
