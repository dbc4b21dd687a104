package obs

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
)

// Metrics tracks application metrics using atomic counters.
type Metrics struct {
	searches        atomic.Int64
	adapterErrors   atomic.Int64
	codeMisses      atomic.Int64
	bookings        atomic.Int64
	bookingFailures atomic.Int64
	logger          *slog.Logger
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	return &Metrics{
		logger: logger,
	}
}

// IncSearches increments the search counter.
func (m *Metrics) IncSearches() {
	m.searches.Add(1)
}

// IncAdapterErrors increments the failed-adapter-call counter.
func (m *Metrics) IncAdapterErrors() {
	m.adapterErrors.Add(1)
}

// IncCodeMisses increments the unresolvable-opaque-code counter.
func (m *Metrics) IncCodeMisses() {
	m.codeMisses.Add(1)
}

// IncBookings increments the confirmed-booking counter.
func (m *Metrics) IncBookings() {
	m.bookings.Add(1)
}

// IncBookingFailures increments the provider-rejected-booking counter.
func (m *Metrics) IncBookingFailures() {
	m.bookingFailures.Add(1)
}

// Snapshot returns current metric values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Searches:        m.searches.Load(),
		AdapterErrors:   m.adapterErrors.Load(),
		CodeMisses:      m.codeMisses.Load(),
		Bookings:        m.bookings.Load(),
		BookingFailures: m.bookingFailures.Load(),
	}
}

// MetricsSnapshot represents a point-in-time snapshot of metrics.
type MetricsSnapshot struct {
	Searches        int64
	AdapterErrors   int64
	CodeMisses      int64
	Bookings        int64
	BookingFailures int64
}

// HealthHandler returns a handler for /healthz requests.
func HealthHandler(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.Error("failed to write health response", "error", err)
		}
	}
}

// MetricsHandler returns a handler for /metrics requests in Prometheus format.
func (m *Metrics) MetricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot := m.Snapshot()

		counters := []struct {
			name  string
			help  string
			value int64
		}{
			{"searches_total", "Total number of search requests", snapshot.Searches},
			{"adapter_errors_total", "Total number of failed adapter calls", snapshot.AdapterErrors},
			{"code_misses_total", "Total number of unresolvable opaque codes", snapshot.CodeMisses},
			{"bookings_total", "Total number of confirmed bookings", snapshot.Bookings},
			{"booking_failures_total", "Total number of provider-rejected bookings", snapshot.BookingFailures},
		}

		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		w.WriteHeader(http.StatusOK)

		for _, c := range counters {
			if _, err := fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n%s %d\n",
				c.name, c.help, c.name, c.name, c.value); err != nil {
				m.logger.Error("failed to write metrics", "error", err)
				return
			}
		}
	}
}
