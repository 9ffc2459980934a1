package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	AdsRanked = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ads_ranked_total",
			Help: "Total number of ads returned by ranking requests",
		},
	)

	EngagementEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ad_engagement_events_total",
			Help: "Total number of engagement events recorded, by type",
		},
		[]string{"event"},
	)

	RankingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ranking_duration_seconds",
			Help:    "Time spent building a ranking, store reads included",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	ResponseTime = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status_code"},
	)

	QueueSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "event_queue_size",
			Help: "Current size of the engagement event queue",
		},
	)

	EventsPublished = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Total number of engagement events handed to the event log",
		},
	)

	LedgerRowsWritten = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_rows_written_total",
			Help: "Total number of per-user ledger rows written",
		},
	)
)

func init() {
	prometheus.MustRegister(AdsRanked)
	prometheus.MustRegister(EngagementEvents)
	prometheus.MustRegister(RankingDuration)
	prometheus.MustRegister(ResponseTime)
	prometheus.MustRegister(QueueSize)
	prometheus.MustRegister(EventsPublished)
	prometheus.MustRegister(LedgerRowsWritten)
}
