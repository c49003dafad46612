// Package metrics exposes Prometheus collectors for the booking service.
package metrics

import (
	"context"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	bookingOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_operations_total",
			Help: "Booking and cancellation attempts by outcome",
		},
		[]string{"operation", "status"},
	)

	seatsBooked = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "booking_seats_total",
			Help: "Seats sold by confirmed bookings",
		},
	)

	cacheResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_cache_results_total",
			Help: "Response cache lookups by result",
		},
		[]string{"result"},
	)

	eventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_events_published_total",
			Help: "Booking events sent to the broker",
		},
		[]string{"queue", "status"},
	)

	releasedMovies = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "movies_released",
			Help: "Movies released on or before today",
		},
	)

	goroutineCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_goroutines_total",
			Help: "Current number of active goroutines",
		},
	)
)

// Operation and outcome labels for booking_operations_total.
const (
	OpBook   = "book"
	OpCancel = "cancel"

	StatusSuccess  = "success"
	StatusConflict = "conflict"
	StatusRejected = "rejected"
	StatusError    = "error"
)

// Recorder is the handle passed to components that report metrics.
// The zero value is ready to use.
type Recorder struct{}

func NewRecorder() *Recorder { return &Recorder{} }

// ObserveRequest records one served HTTP request.
func (*Recorder) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// BookingOutcome counts a booking or cancellation attempt.
func (*Recorder) BookingOutcome(operation, status string) {
	bookingOperations.WithLabelValues(operation, status).Inc()
}

// SeatsBooked adds n sold seats.
func (*Recorder) SeatsBooked(n int) {
	seatsBooked.Add(float64(n))
}

// CacheResult counts a cache hit or miss.
func (*Recorder) CacheResult(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheResults.WithLabelValues(result).Inc()
}

// EventPublished counts a broker publish attempt.
func (*Recorder) EventPublished(queue string, err error) {
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	eventsPublished.WithLabelValues(queue, status).Inc()
}

// ReleasedMovies sets the released movie gauge.
func (*Recorder) ReleasedMovies(n int64) {
	releasedMovies.Set(float64(n))
}

// Collect samples runtime gauges every interval until ctx is done.
func (*Recorder) Collect(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		goroutineCount.Set(float64(runtime.NumGoroutine()))
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler { return promhttp.Handler() }
