package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records counters for the checkout/payment pipeline.
type CheckoutMetrics struct {
	attempts        *prometheus.CounterVec
	payments        *prometheus.CounterVec
	restoreFailures prometheus.Counter
	gatewayLatency  *prometheus.HistogramVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
// A nil registerer yields a no-op instance, which tests rely on.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_attempts_total",
		Help: "Checkout attempts by final result.",
	}, []string{"result"})
	payments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_attempts_total",
		Help: "Gateway payment attempts by gateway and result.",
	}, []string{"gateway", "result"})
	restoreFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stock_restore_failures_total",
		Help: "Failed compensating stock restores. Any increase needs operator attention.",
	})
	gatewayLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gateway_call_duration_seconds",
		Help:    "Duration of settlement gateway calls.",
		Buckets: prometheus.DefBuckets,
	}, []string{"gateway"})
	reg.MustRegister(attempts, payments, restoreFailures, gatewayLatency)
	return &CheckoutMetrics{
		attempts:        attempts,
		payments:        payments,
		restoreFailures: restoreFailures,
		gatewayLatency:  gatewayLatency,
	}
}

// IncCheckout increments the checkout counter for the given result label.
func (m *CheckoutMetrics) IncCheckout(result string) {
	if m == nil || m.attempts == nil {
		return
	}
	m.attempts.WithLabelValues(normalizeLabel(result)).Inc()
}

// IncPayment increments the payment counter for the gateway/result pair.
func (m *CheckoutMetrics) IncPayment(gateway, result string) {
	if m == nil || m.payments == nil {
		return
	}
	m.payments.WithLabelValues(normalizeLabel(gateway), normalizeLabel(result)).Inc()
}

// IncRestoreFailure counts a failed compensating stock restore.
func (m *CheckoutMetrics) IncRestoreFailure() {
	if m == nil || m.restoreFailures == nil {
		return
	}
	m.restoreFailures.Inc()
}

// ObserveGatewayLatency records the duration of one gateway call.
func (m *CheckoutMetrics) ObserveGatewayLatency(gateway string, duration time.Duration) {
	if m == nil || m.gatewayLatency == nil {
		return
	}
	m.gatewayLatency.WithLabelValues(normalizeLabel(gateway)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
