package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hotel_http_requests_total",
		Help: "HTTP requests by method, route pattern and status code.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hotel_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route pattern.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	BookingTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hotel_booking_transitions_total",
		Help: "Bookings entering each status.",
	}, []string{"status"})

	BookingConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hotel_booking_conflicts_total",
		Help: "Create or reschedule attempts rejected because the room was taken.",
	})

	Payments = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hotel_payments_total",
		Help: "Payment outcomes by status.",
	}, []string{"status"})
)

func BookingStatus(status string) {
	BookingTransitions.WithLabelValues(status).Inc()
}

func PaymentStatus(status string) {
	Payments.WithLabelValues(status).Inc()
}
