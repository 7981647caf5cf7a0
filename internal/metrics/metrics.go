package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bookdesk",
			Name:      "bookings_created_total",
			Help:      "Appointments created successfully.",
		},
	)

	bookingConflicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookdesk",
			Name:      "booking_conflicts_total",
			Help:      "Booking attempts rejected by conflict kind.",
		},
		[]string{"kind"},
	)

	availabilityDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "bookdesk",
			Name:      "availability_compute_seconds",
			Help:      "Time spent computing day availability.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookdesk",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingsCreated, bookingConflicts, availabilityDuration, httpRequests)
	})
}

// IncBookingCreated counts a successful booking.
func IncBookingCreated() {
	bookingsCreated.Inc()
}

// IncBookingConflict counts a rejected booking; kind is "overlap" or "capacity".
func IncBookingConflict(kind string) {
	bookingConflicts.WithLabelValues(kind).Inc()
}

// ObserveAvailabilityDuration records one availability computation.
func ObserveAvailabilityDuration(d time.Duration) {
	availabilityDuration.Observe(d.Seconds())
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}
