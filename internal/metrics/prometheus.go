package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FeedbackIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedback_ingested_total",
			Help: "Feedback records stored, by kind and sentiment",
		},
		[]string{"kind", "sentiment"},
	)

	DuplicatesRejected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "feedback_duplicates_rejected_total",
			Help: "Ingest attempts rejected for a reused feedback id",
		},
	)

	IngestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feedback_ingest_duration_seconds",
			Help:    "Ingest transaction duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)

	AnalysisDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feedback_analysis_duration_seconds",
			Help:    "Local text analysis duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"kind"},
	)

	ChatbotMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedback_chatbot_messages_total",
			Help: "Chatbot messages answered, by mode",
		},
		[]string{"mode"},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedback_stats_cache_hits_total",
			Help: "Statistics cache hits",
		},
		[]string{"key"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedback_stats_cache_misses_total",
			Help: "Statistics cache misses",
		},
		[]string{"key"},
	)

	RecordsPurged = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "feedback_records_purged_total",
			Help: "Feedback rows removed by retention purges",
		},
	)
)

func Init() {
	prometheus.MustRegister(FeedbackIngested)
	prometheus.MustRegister(DuplicatesRejected)
	prometheus.MustRegister(IngestDuration)
	prometheus.MustRegister(AnalysisDuration)
	prometheus.MustRegister(ChatbotMessages)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(RecordsPurged)
}

func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
