package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StorefrontMetrics records cart mutations and order submissions.
type StorefrontMetrics struct {
	cartMutations  *prometheus.CounterVec
	submitResults  *prometheus.CounterVec
	submitDuration prometheus.Histogram
}

// NewStorefrontMetrics registers the storefront metrics on the provided registerer.
func NewStorefrontMetrics(reg prometheus.Registerer) *StorefrontMetrics {
	if reg == nil {
		return &StorefrontMetrics{}
	}
	cartMutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Cart mutations applied, by operation.",
	}, []string{"op"})
	submitResults := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_submissions_total",
		Help: "Order submissions, by outcome.",
	}, []string{"outcome"})
	submitDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "order_submission_duration_seconds",
		Help:    "Latency of calls to the external order service.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(cartMutations, submitResults, submitDuration)
	return &StorefrontMetrics{
		cartMutations:  cartMutations,
		submitResults:  submitResults,
		submitDuration: submitDuration,
	}
}

// IncCartMutation increments the mutation counter for the named operation.
func (m *StorefrontMetrics) IncCartMutation(op string) {
	if m == nil || m.cartMutations == nil {
		return
	}
	m.cartMutations.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncSubmitResult increments the submission counter for the given outcome.
func (m *StorefrontMetrics) IncSubmitResult(outcome string) {
	if m == nil || m.submitResults == nil {
		return
	}
	m.submitResults.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveSubmitDuration records the latency of an order submission.
func (m *StorefrontMetrics) ObserveSubmitDuration(duration time.Duration) {
	if m == nil || m.submitDuration == nil {
		return
	}
	m.submitDuration.Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
