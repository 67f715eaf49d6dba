package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RatingMetrics tracks scoring throughput and latency for reliability ratings.
type RatingMetrics struct {
	ratingDuration  *prometheus.HistogramVec
	ratingComputed  *prometheus.CounterVec
	ratingScore     *prometheus.HistogramVec
	sweepDuration   prometheus.Histogram
	overdueMarked   *prometheus.CounterVec
	webhookDelivery *prometheus.CounterVec
}

var (
	ratingMetricsOnce sync.Once
	ratingMetrics     *RatingMetrics
)

func Rating() *RatingMetrics {
	return RatingWithConfig(Config{})
}

func RatingWithConfig(cfg Config) *RatingMetrics {
	ratingMetricsOnce.Do(func() {
		ratingMetrics = newRatingMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return ratingMetrics
}

func ResetRatingMetricsForTest() {
	ratingMetricsOnce = sync.Once{}
	ratingMetrics = nil
}

func newRatingMetrics(registerer prometheus.Registerer, cfg Config) *RatingMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "credora"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}

	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	ratingDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:        "credora_rating_duration_seconds",
			Help:        "Time spent assembling history and scoring a customer.",
			Buckets:     []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			ConstLabels: constLabels,
		},
		[]string{"mode"}, // single | bulk
	)

	ratingComputed := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "credora_rating_computed_total",
			Help:        "Total reliability ratings computed.",
			ConstLabels: constLabels,
		},
		[]string{"result"}, // scored | degraded | failed
	)

	ratingScore := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:        "credora_rating_score",
			Help:        "Distribution of computed reliability scores.",
			Buckets:     []float64{20, 40, 60, 80, 100},
			ConstLabels: constLabels,
		},
		[]string{"category"},
	)

	sweepDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:        "credora_rating_sweep_duration_seconds",
			Help:        "Duration of a full rating sweep pass.",
			Buckets:     []float64{0.1, 0.5, 1, 5, 15, 60, 300},
			ConstLabels: constLabels,
		},
	)

	overdueMarked := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "credora_overdue_marked_total",
			Help:        "Records marked overdue by the sweep.",
			ConstLabels: constLabels,
		},
		[]string{"kind"}, // invoice | feedback
	)

	webhookDelivery := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "credora_webhook_delivery_total",
			Help:        "Outcome of rating webhook deliveries.",
			ConstLabels: constLabels,
		},
		[]string{"result"}, // delivered | failed
	)

	registerer.MustRegister(
		ratingDuration,
		ratingComputed,
		ratingScore,
		sweepDuration,
		overdueMarked,
		webhookDelivery,
	)

	return &RatingMetrics{
		ratingDuration:  ratingDuration,
		ratingComputed:  ratingComputed,
		ratingScore:     ratingScore,
		sweepDuration:   sweepDuration,
		overdueMarked:   overdueMarked,
		webhookDelivery: webhookDelivery,
	}
}

func (m *RatingMetrics) ObserveRatingDuration(mode string, d time.Duration) {
	if m == nil {
		return
	}
	m.ratingDuration.WithLabelValues(mode).Observe(d.Seconds())
}

func (m *RatingMetrics) IncRatingComputed(result string) {
	if m == nil {
		return
	}
	m.ratingComputed.WithLabelValues(result).Inc()
}

func (m *RatingMetrics) ObserveScore(category string, score float64) {
	if m == nil {
		return
	}
	m.ratingScore.WithLabelValues(category).Observe(score)
}

func (m *RatingMetrics) ObserveSweepDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.sweepDuration.Observe(d.Seconds())
}

func (m *RatingMetrics) IncOverdueMarked(kind string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.overdueMarked.WithLabelValues(kind).Add(float64(count))
}

func (m *RatingMetrics) IncWebhookDelivery(result string) {
	if m == nil {
		return
	}
	m.webhookDelivery.WithLabelValues(result).Inc()
}
