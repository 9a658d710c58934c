package notifications

import (
	// Go Internal Packages
	"sync"

	// Local Packages
	models "tx-feed/models"

	// External Packages
	"go.uber.org/zap"
)

// Notifier is implemented by every notification sink.
type Notifier interface {
	Notify(n models.Notification)
}

// Broadcaster keeps the live notification of every transaction, keyed by
// transaction id, and streams updates to subscribers.
type Broadcaster struct {
	logger *zap.Logger

	mu     sync.Mutex
	live   map[string]models.Notification
	nextID int
	subs   map[int]chan models.Notification
}

func NewBroadcaster(logger *zap.Logger) *Broadcaster {
	return &Broadcaster{
		logger: logger.With(zap.String("component", "notifications")),
		live:   make(map[string]models.Notification),
		subs:   make(map[int]chan models.Notification),
	}
}

// Notify updates the live handle of n.TxID and forwards n to subscribers.
// A subscriber whose buffer is full misses the update.
func (b *Broadcaster) Notify(n models.Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n.Kind == models.NotificationDismissed {
		delete(b.live, n.TxID)
	} else {
		b.live[n.TxID] = n
	}
	for _, ch := range b.subs {
		select {
		case ch <- n:
		default:
			b.logger.Warn("subscriber is full, dropping notification", zap.String("tx_id", n.TxID))
		}
	}
}

// Subscribe returns a stream of notifications and a func ending the subscription.
func (b *Broadcaster) Subscribe(buffer int) (<-chan models.Notification, func()) {
	ch := make(chan models.Notification, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Live returns the notification currently shown for txID.
func (b *Broadcaster) Live(txID string) (models.Notification, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n, ok := b.live[txID]
	return n, ok
}

// LiveCount returns how many notifications are currently shown.
func (b *Broadcaster) LiveCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.live)
}

// Fanout forwards every notification to each sink in order.
type Fanout []Notifier

func (f Fanout) Notify(n models.Notification) {
	for _, s := range f {
		s.Notify(n)
	}
}
