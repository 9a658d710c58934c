package reconciler

import (
	// Go Internal Packages
	"sort"
	"sync"
	"time"

	// Local Packages
	metrics "tx-feed/metrics"
	models "tx-feed/models"
	scheduler "tx-feed/scheduler"

	// External Packages
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Notifier receives countdown notifications. Implementations must not block
// for long, they are called on the reconciler's tick.
type Notifier interface {
	Notify(n models.Notification)
}

type NotifierFunc func(n models.Notification)

func (f NotifierFunc) Notify(n models.Notification) {
	f(n)
}

type tracked struct {
	status  models.DelayStatus
	readyAt time.Time
}

// Reconciler diffs delay queue snapshots against the set of transactions
// that currently show a countdown.
//
// A transaction is tracked when first seen non terminal with a readyAt in the
// future. It is dismissed when its readyAt passes on a tick, when it turns
// terminal, or when it disappears from a snapshot, whichever happens first.
// The tick only runs while something is tracked.
type Reconciler struct {
	clock    clockwork.Clock
	sched    scheduler.Scheduler
	tick     time.Duration
	notifier Notifier
	logger   *zap.Logger

	// serializes Process and Tick including their notifications
	opMu sync.Mutex

	mu       sync.Mutex
	active   []models.DelayedTransaction
	tracked  map[string]*tracked
	stopTick scheduler.Cancel
}

func New(clock clockwork.Clock, sched scheduler.Scheduler, tick time.Duration, notifier Notifier, logger *zap.Logger) *Reconciler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if tick <= 0 {
		tick = time.Second
	}
	if notifier == nil {
		notifier = NotifierFunc(func(models.Notification) {})
	}
	return &Reconciler{
		clock:    clock,
		sched:    sched,
		tick:     tick,
		notifier: notifier,
		logger:   logger.With(zap.String("component", "reconciler")),
		tracked:  make(map[string]*tracked),
	}
}

// Process applies a snapshot. Applying the same snapshot twice is a no-op
// apart from countdown refreshes.
func (r *Reconciler) Process(snapshot []models.DelayedTransaction) {
	r.opMu.Lock()
	defer r.opMu.Unlock()

	now := r.clock.Now()
	var out []models.Notification

	r.mu.Lock()
	present := make(map[string]models.DelayedTransaction, len(snapshot))
	active := make([]models.DelayedTransaction, 0, len(snapshot))
	for _, tx := range snapshot {
		present[tx.ID] = tx
		if tx.Status != models.DelayExecuted {
			active = append(active, tx)
		}
	}
	r.active = active

	for _, id := range r.trackedIDsLocked() {
		tr := r.tracked[id]
		tx, ok := present[id]
		switch {
		case !ok:
			out = append(out, r.dismissLocked(id, tr, models.DismissVanished, now))
		case tx.Status.Terminal():
			tr.status = tx.Status
			out = append(out, r.dismissLocked(id, tr, models.DismissTerminal, now))
		default:
			tr.status = tx.Status
			if tx.ReadyAt != nil && !tx.ReadyAt.Equal(tr.readyAt) {
				tr.readyAt = *tx.ReadyAt
				out = append(out, countdown(id, tr, now))
			}
		}
	}

	for _, tx := range active {
		if _, ok := r.tracked[tx.ID]; ok {
			continue
		}
		if tx.Status.Terminal() || tx.ReadyAt == nil || !tx.ReadyAt.After(now) {
			continue
		}
		tr := &tracked{status: tx.Status, readyAt: *tx.ReadyAt}
		r.tracked[tx.ID] = tr
		n := countdown(tx.ID, tr, now)
		n.Kind = models.NotificationStarted
		out = append(out, n)
		r.logger.Debug("tracking delayed transaction", zap.String("tx_id", tx.ID), zap.Time("ready_at", tr.readyAt))
	}

	r.syncTickerLocked()
	metrics.DelayQueueSize.Set(float64(len(active)))
	r.mu.Unlock()

	r.emit(out)
}

// Tick refreshes every countdown and dismisses those whose wait is over.
func (r *Reconciler) Tick() {
	r.opMu.Lock()
	defer r.opMu.Unlock()

	now := r.clock.Now()
	var out []models.Notification

	r.mu.Lock()
	for _, id := range r.trackedIDsLocked() {
		tr := r.tracked[id]
		if !tr.readyAt.After(now) {
			out = append(out, r.dismissLocked(id, tr, models.DismissElapsed, now))
			continue
		}
		out = append(out, countdown(id, tr, now))
	}
	r.syncTickerLocked()
	r.mu.Unlock()

	r.emit(out)
}

// ActiveQueue returns the latest snapshot without executed transactions.
func (r *Reconciler) ActiveQueue() []models.DelayedTransaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.DelayedTransaction, len(r.active))
	copy(out, r.active)
	return out
}

// Close stops the tick. Tracked countdowns are abandoned without dismissal.
func (r *Reconciler) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopTick != nil {
		r.stopTick()
		r.stopTick = nil
	}
	r.tracked = make(map[string]*tracked)
	metrics.CountdownsActive.Set(0)
}

func (r *Reconciler) dismissLocked(id string, tr *tracked, reason models.DismissReason, now time.Time) models.Notification {
	delete(r.tracked, id)
	r.logger.Debug("dismissing countdown", zap.String("tx_id", id), zap.String("reason", string(reason)))
	return models.Notification{
		TxID:    id,
		Kind:    models.NotificationDismissed,
		Status:  tr.status,
		ReadyAt: tr.readyAt,
		Reason:  reason,
		At:      now,
	}
}

// syncTickerLocked runs the tick exactly while something is tracked.
func (r *Reconciler) syncTickerLocked() {
	metrics.CountdownsActive.Set(float64(len(r.tracked)))
	switch {
	case len(r.tracked) > 0 && r.stopTick == nil:
		r.stopTick = r.sched.Every(r.tick, r.Tick)
	case len(r.tracked) == 0 && r.stopTick != nil:
		r.stopTick()
		r.stopTick = nil
	}
}

func (r *Reconciler) trackedIDsLocked() []string {
	ids := make([]string, 0, len(r.tracked))
	for id := range r.tracked {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *Reconciler) emit(out []models.Notification) {
	for _, n := range out {
		metrics.NotificationsTotal.WithLabelValues(string(n.Kind)).Inc()
		r.notifier.Notify(n)
	}
}

func countdown(id string, tr *tracked, now time.Time) models.Notification {
	return models.Notification{
		TxID:      id,
		Kind:      models.NotificationCountdown,
		Status:    tr.status,
		ReadyAt:   tr.readyAt,
		Remaining: tr.readyAt.Sub(now),
		At:        now,
	}
}
