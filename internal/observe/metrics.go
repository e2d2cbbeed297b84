package observe

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"dealgram/internal/domain"
)

var (
	MessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dealgram_messages_total",
			Help: "Total number of processed source messages by outcome (count)",
		},
		[]string{"status", "reason"},
	)

	LinksRewrittenTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dealgram_links_rewritten_total",
			Help: "Total number of product links replaced with affiliate URLs (count)",
		},
	)

	LinksUnresolvedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dealgram_links_unresolved_total",
			Help: "Total number of short links left unmodified after failed resolution (count)",
		},
	)

	ProcessingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dealgram_processing_duration_ms",
			Help:    "End-to-end processing duration per message in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		},
		[]string{"status"},
	)
)

// Register registers all collectors with reg.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		MessagesTotal,
		LinksRewrittenTotal,
		LinksUnresolvedTotal,
		ProcessingDuration,
	)
}

// MetricsObserver records outcomes as Prometheus metrics.
type MetricsObserver struct{}

// NewMetricsObserver creates the metrics observer. Register must have been
// called once on the target registry.
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{}
}

func (o *MetricsObserver) MessageOutcome(ev domain.MessageEvent, out domain.Outcome) {
	status := strings.ToLower(string(out.Status))
	MessagesTotal.WithLabelValues(status, out.Reason).Inc()
	if out.Rewritten > 0 {
		LinksRewrittenTotal.Add(float64(out.Rewritten))
	}
	ProcessingDuration.WithLabelValues(status).Observe(float64(out.Elapsed) / float64(time.Millisecond))
}

func (o *MetricsObserver) LinkUnresolved(ev domain.MessageEvent, url string) {
	LinksUnresolvedTotal.Inc()
}
