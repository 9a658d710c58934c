package metrics

import (
	// External Packages
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Feed and delay queue counters, partitioned by source where it applies.

var (
	// Sources
	SourceFetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "txfeed",
		Subsystem: "source",
		Name:      "fetches_total",
		Help:      "Total source fetches by result",
	}, []string{"source", "op", "result"})

	SourceFetchLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "txfeed",
		Subsystem: "source",
		Name:      "fetch_duration_seconds",
		Help:      "Source fetch duration",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"source"})

	SourceRecordsLoaded = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "txfeed",
		Subsystem: "source",
		Name:      "records_loaded",
		Help:      "Records currently loaded per source",
	}, []string{"source"})

	SourceRecordsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "txfeed",
		Subsystem: "source",
		Name:      "records_dropped_total",
		Help:      "Records dropped because they failed normalization",
	}, []string{"source"})

	// Feed
	FeedRecomputesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "txfeed",
		Subsystem: "feed",
		Name:      "recomputes_total",
		Help:      "Total aggregate feed recomputations",
	})

	FeedTransactions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "txfeed",
		Subsystem: "feed",
		Name:      "transactions",
		Help:      "Transactions in the latest aggregate feed",
	})

	// Delay queue
	DelayQueuePollsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "txfeed",
		Subsystem: "delay_queue",
		Name:      "polls_total",
		Help:      "Total delay queue polls by result",
	}, []string{"result"})

	DelayQueueSize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "txfeed",
		Subsystem: "delay_queue",
		Name:      "active_transactions",
		Help:      "Non executed transactions in the latest snapshot",
	})

	CountdownsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "txfeed",
		Subsystem: "delay_queue",
		Name:      "countdowns_active",
		Help:      "Transactions with a live countdown notification",
	})

	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "txfeed",
		Subsystem: "delay_queue",
		Name:      "notifications_total",
		Help:      "Countdown notifications emitted by kind",
	}, []string{"kind"})
)
