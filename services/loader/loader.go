package loader

import (
	// Go Internal Packages
	"context"
	"sort"
	"sync"
	"time"

	// Local Packages
	errors "tx-feed/errors"
	metrics "tx-feed/metrics"
	models "tx-feed/models"
	scheduler "tx-feed/scheduler"
	utils "tx-feed/utils"

	// External Packages
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Mode says what a window span counts.
type Mode int

const (
	ByCount Mode = iota // span is a record count
	ByDays              // span is a number of days back from today
)

// Pagination describes how a source's window grows. Max of 0 means unbounded.
type Pagination struct {
	Mode    Mode
	Initial int
	Step    int
	Max     int
}

// Window is one fetch request. Limit is set for ByCount sources, Since for ByDays.
type Window struct {
	Span  int
	Limit int
	Since time.Time
}

// Page is what a Fetcher returns for a window. Exhausted is set when the
// source knows there is nothing older than the window.
type Page struct {
	Records   []models.NormalizedTransaction
	Exhausted bool
}

type Fetcher interface {
	Fetch(ctx context.Context, w Window) (Page, error)
}

type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateError   State = "error"
)

// SourceWindow is a point in time copy of a loader's state.
type SourceWindow struct {
	Kind      models.SourceKind
	Span      int
	Since     time.Time
	Earliest  time.Time
	HasMore   bool
	IsLoading bool
	State     State
	Err       error
	Enabled   bool
	Records   []models.NormalizedTransaction
}

type Config struct {
	Pagination      Pagination
	RefreshInterval time.Duration
	Location        *time.Location
}

var errDisabled = errors.E(errors.RaceNoOp, "source disabled", nil)

// Loader owns the pagination window and the loaded records of one source.
type Loader struct {
	kind    models.SourceKind
	fetcher Fetcher
	conf    Config
	sched   scheduler.Scheduler
	clock   clockwork.Clock
	logger  *zap.Logger

	mu        sync.Mutex
	span      int
	since     time.Time
	records   []models.NormalizedTransaction
	hasMore   bool
	loading   bool
	state     State
	err       error
	enabled   bool
	listeners []func()

	runCtx        context.Context
	stopped       bool
	cancelRefresh scheduler.Cancel
	wg            sync.WaitGroup
}

func NewLoader(kind models.SourceKind, fetcher Fetcher, conf Config, sched scheduler.Scheduler, clock clockwork.Clock, logger *zap.Logger) *Loader {
	if conf.Location == nil {
		conf.Location = time.Local
	}
	if conf.Pagination.Initial <= 0 {
		conf.Pagination.Initial = 1
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Loader{
		kind:    kind,
		fetcher: fetcher,
		conf:    conf,
		sched:   sched,
		clock:   clock,
		logger:  logger.With(zap.String("component", "loader"), zap.String("source", string(kind))),
		span:    conf.Pagination.Initial,
		hasMore: true,
		state:   StateIdle,
		enabled: true,
	}
}

func (l *Loader) Kind() models.SourceKind {
	return l.kind
}

// OnChange registers fn to be called after every state change. fn runs
// outside the loader's lock.
func (l *Loader) OnChange(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.listeners = append(l.listeners, fn)
}

// Start mounts the source: it loads the default window and schedules the
// periodic refresh. The returned error is the initial fetch's, which is also
// kept in the loader's state.
func (l *Loader) Start(ctx context.Context) error {
	l.mu.Lock()
	l.runCtx = ctx
	l.stopped = false
	enabled := l.enabled
	l.mu.Unlock()

	if !enabled {
		return nil
	}
	l.schedule()
	return l.Refresh(ctx, l.conf.Pagination.Initial)
}

// Stop cancels the periodic refresh and waits for background refreshes,
// scheduled ones included. A stopped loader only fetches on explicit calls
// until it is started again.
func (l *Loader) Stop() {
	l.mu.Lock()
	cancel := l.cancelRefresh
	l.cancelRefresh = nil
	l.stopped = true
	l.runCtx = nil
	l.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	l.wg.Wait()
}

// SetEnabled turns fetching for this source on or off. A fetch already in
// flight is not cancelled.
func (l *Loader) SetEnabled(enabled bool) {
	l.mu.Lock()
	if l.enabled == enabled {
		l.mu.Unlock()
		return
	}
	l.enabled = enabled
	ctx := l.runCtx
	cancel := l.cancelRefresh
	if !enabled {
		l.cancelRefresh = nil
	}
	restart := enabled && ctx != nil && !l.stopped
	if restart {
		l.wg.Add(1)
	}
	span := l.span
	l.mu.Unlock()

	l.logger.Info("source toggled", zap.Bool("enabled", enabled))
	if !enabled {
		if cancel != nil {
			cancel()
		}
		l.notify()
		return
	}
	if !restart {
		l.notify()
		return
	}
	l.schedule()
	go func() {
		defer l.wg.Done()
		_ = l.Refresh(ctx, span)
	}()
}

func (l *Loader) schedule() {
	if l.sched == nil || l.conf.RefreshInterval <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancelRefresh != nil || l.stopped || l.runCtx == nil {
		return
	}
	ctx := l.runCtx
	l.cancelRefresh = l.sched.Every(l.conf.RefreshInterval, func() {
		l.mu.Lock()
		if l.stopped || ctx.Err() != nil {
			l.mu.Unlock()
			return
		}
		l.wg.Add(1)
		l.mu.Unlock()
		defer l.wg.Done()

		_ = l.Refresh(ctx, l.Span())
	})
}

// Span returns the size of the currently loaded window.
func (l *Loader) Span() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.span
}

func (l *Loader) HasMore() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.hasMore
}

func (l *Loader) Enabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enabled
}

// Window returns a copy of the loader's current state.
func (l *Loader) Window() SourceWindow {
	l.mu.Lock()
	defer l.mu.Unlock()

	records := make([]models.NormalizedTransaction, len(l.records))
	copy(records, l.records)

	earliest := l.since
	if n := len(records); n > 0 && (earliest.IsZero() || records[n-1].Timestamp.Before(earliest)) {
		earliest = records[n-1].Timestamp
	}

	return SourceWindow{
		Kind:      l.kind,
		Span:      l.span,
		Since:     l.since,
		Earliest:  earliest,
		HasMore:   l.hasMore,
		IsLoading: l.loading,
		State:     l.state,
		Err:       l.err,
		Enabled:   l.enabled,
		Records:   records,
	}
}

// Refresh replaces the loaded records with a fresh fetch of span.
func (l *Loader) Refresh(ctx context.Context, span int) error {
	if span <= 0 {
		span = l.conf.Pagination.Initial
	}
	if err := l.begin(false); err != nil {
		l.logger.Debug("refresh skipped", zap.Error(err))
		return nil
	}
	return l.fetch(ctx, "refresh", span, false)
}

// LoadMore extends the window by one step and merges the result. It is a
// no-op while a fetch is in flight or when the source has nothing more.
func (l *Loader) LoadMore(ctx context.Context) error {
	if err := l.begin(true); err != nil {
		l.logger.Debug("load more skipped", zap.Error(err))
		return nil
	}

	l.mu.Lock()
	next := l.nextSpanLocked()
	l.mu.Unlock()
	return l.fetch(ctx, "load_more", next, true)
}

func (l *Loader) nextSpanLocked() int {
	p := l.conf.Pagination
	next := l.span + p.Step
	if p.Step <= 0 {
		next = l.span + p.Initial
	}
	if p.Max > 0 && next > p.Max {
		next = p.Max
	}
	return next
}

// begin flips the loader into Loading, or reports why it cannot.
func (l *Loader) begin(needMore bool) error {
	l.mu.Lock()
	switch {
	case !l.enabled:
		l.mu.Unlock()
		return errDisabled
	case l.loading:
		l.mu.Unlock()
		return errors.ErrRaceNoOp
	case needMore && !l.hasMore:
		l.mu.Unlock()
		return errors.ErrExhausted
	}
	l.loading = true
	l.state = StateLoading
	l.mu.Unlock()

	l.notify()
	return nil
}

func (l *Loader) fetch(ctx context.Context, op string, span int, merge bool) error {
	w := l.window(span)
	started := l.clock.Now()
	page, err := l.fetcher.Fetch(ctx, w)
	metrics.SourceFetchLatency.WithLabelValues(string(l.kind)).Observe(l.clock.Since(started).Seconds())

	if err != nil {
		metrics.SourceFetchesTotal.WithLabelValues(string(l.kind), op, "error").Inc()
		l.logger.Warn("source fetch failed", zap.String("op", op), zap.Int("span", span), zap.Error(err))

		l.mu.Lock()
		l.loading = false
		l.state = StateError
		l.err = err
		l.mu.Unlock()

		l.notify()
		return err
	}
	metrics.SourceFetchesTotal.WithLabelValues(string(l.kind), op, "success").Inc()

	l.mu.Lock()
	if merge {
		l.records = mergeRecords(page.Records, l.records)
	} else {
		l.records = mergeRecords(page.Records, nil)
	}
	l.span = span
	l.since = w.Since
	capped := l.conf.Pagination.Max > 0 && span >= l.conf.Pagination.Max
	l.hasMore = !page.Exhausted && !capped
	l.loading = false
	l.state = StateIdle
	l.err = nil
	count := len(l.records)
	hasMore := l.hasMore
	l.mu.Unlock()

	metrics.SourceRecordsLoaded.WithLabelValues(string(l.kind)).Set(float64(count))
	l.logger.Debug("source fetched",
		zap.String("op", op),
		zap.Int("span", span),
		zap.Int("page", len(page.Records)),
		zap.Int("loaded", count),
		zap.Bool("has_more", hasMore),
	)

	l.notify()
	return nil
}

func (l *Loader) window(span int) Window {
	w := Window{Span: span}
	switch l.conf.Pagination.Mode {
	case ByDays:
		w.Since = utils.StartOfDay(l.clock.Now(), l.conf.Location).AddDate(0, 0, -span)
	default:
		w.Limit = span
	}
	return w
}

func (l *Loader) notify() {
	l.mu.Lock()
	listeners := make([]func(), len(l.listeners))
	copy(listeners, l.listeners)
	l.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

// mergeRecords returns fresh followed by every record of prev not in fresh,
// deduplicated by key and stably sorted newest first.
func mergeRecords(fresh, prev []models.NormalizedTransaction) []models.NormalizedTransaction {
	seen := make(map[models.TxKey]struct{}, len(fresh)+len(prev))
	out := make([]models.NormalizedTransaction, 0, len(fresh)+len(prev))
	for _, list := range [][]models.NormalizedTransaction{fresh, prev} {
		for _, tx := range list {
			if _, ok := seen[tx.Key()]; ok {
				continue
			}
			seen[tx.Key()] = struct{}{}
			out = append(out, tx)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}
