package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ridewise", Name: "bookings_total", Help: "Ride booking attempts by outcome"},
		[]string{"outcome"},
	)
	SeatsBooked   = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ridewise", Name: "seats_booked_total", Help: "Seats reserved by successful bookings"})
	OffersCreated = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ridewise", Name: "offers_created_total", Help: "Ride offers posted by drivers"})
	CO2SavedKg    = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ridewise", Name: "co2_saved_kg_total", Help: "CO2 saved across bookings"})

	ExternalCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ridewise",
			Name:      "external_call_duration_seconds",
			Help:      "Latency of geocoding and routing calls",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "outcome"},
	)

	LoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ridewise", Name: "logins_total", Help: "Login attempts by role and outcome"},
		[]string{"role", "outcome"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ridewise", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ridewise",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
