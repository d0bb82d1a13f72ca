package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ConsumerMetrics records metadata for queue consumers and background handlers.
type ConsumerMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
}

// NewConsumerMetrics registers the consumer metrics on the provided registerer.
func NewConsumerMetrics(reg prometheus.Registerer) *ConsumerMetrics {
	if reg == nil {
		return &ConsumerMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "consumer_handle_duration_seconds",
		Help:    "Duration of consumer event handling in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"handler"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "consumer_handle_success",
		Help: "Successfully handled consumer events.",
	}, []string{"handler"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "consumer_handle_failure",
		Help: "Failed consumer event handlings.",
	}, []string{"handler"})
	reg.MustRegister(duration, success, failure)
	return &ConsumerMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
	}
}

// ObserveDuration records the handling duration for the named handler.
func (c *ConsumerMetrics) ObserveDuration(handler string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(handler)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named handler.
func (c *ConsumerMetrics) IncSuccess(handler string) {
	if c == nil || c.success == nil {
		return
	}
	c.success.WithLabelValues(normalizeLabel(handler)).Inc()
}

// IncFailure increments the failure counter for the named handler.
func (c *ConsumerMetrics) IncFailure(handler string) {
	if c == nil || c.failure == nil {
		return
	}
	c.failure.WithLabelValues(normalizeLabel(handler)).Inc()
}

func normalizeLabel(handler string) string {
	if handler == "" {
		return "unknown"
	}
	return handler
}
