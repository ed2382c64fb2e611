package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PaymentMetrics counts checkout outcomes and gateway round-trips.
type PaymentMetrics struct {
	Checkouts      *prometheus.CounterVec
	StatusChecks   *prometheus.CounterVec
	GatewayLatency *prometheus.HistogramVec
}

// NewPaymentMetrics registers the payment metric collectors.
func NewPaymentMetrics(service string) *PaymentMetrics {
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "docecostura",
		Subsystem: service,
		Name:      "checkouts_total",
		Help:      "Total number of checkout attempts.",
	}, []string{"payment_method", "outcome"})
	statusChecks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "docecostura",
		Subsystem: service,
		Name:      "payment_status_checks_total",
		Help:      "Total number of payment status checks.",
	}, []string{"result"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "docecostura",
		Subsystem: service,
		Name:      "gateway_request_duration_ms",
		Help:      "Payment gateway round-trip latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"payment_method", "operation"})

	prometheus.MustRegister(checkouts, statusChecks, latency)
	return &PaymentMetrics{Checkouts: checkouts, StatusChecks: statusChecks, GatewayLatency: latency}
}

// Handler exposes the default registry for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}
