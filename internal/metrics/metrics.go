// Package metrics holds the Prometheus collectors for the check-in service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registration modes.
const (
	ModeSingle = "single"
	ModeBulk   = "bulk"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	AttendeesRegistered *prometheus.CounterVec
	BulkRowErrors       prometheus.Counter
	CheckIns            *prometheus.CounterVec
	EntranceScans       prometheus.Counter
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg. Tests pass a fresh
// prometheus.NewRegistry() so repeated construction does not collide.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		AttendeesRegistered: f.NewCounterVec(prometheus.CounterOpts{
			Name: "checkin_attendees_registered_total",
			Help: "Attendees successfully registered, by registration mode",
		}, []string{"mode"}),
		BulkRowErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "checkin_bulk_row_errors_total",
			Help: "Rows rejected during bulk registration",
		}),
		CheckIns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "checkin_check_ins_total",
			Help: "Check-in attempts, by outcome",
		}, []string{"result"}),
		EntranceScans: f.NewCounter(prometheus.CounterOpts{
			Name: "checkin_entrance_scans_total",
			Help: "Scans recorded against entrances",
		}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "checkin_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

// Nop returns metrics registered against a throwaway registry.
func Nop() *Metrics {
	return New(prometheus.NewRegistry())
}

// ObserveRegistered adds n attendees registered in the given mode.
func (m *Metrics) ObserveRegistered(mode string, n int) {
	if n > 0 {
		m.AttendeesRegistered.WithLabelValues(mode).Add(float64(n))
	}
}

// ObserveCheckIn records a check-in outcome ("ok", "invalid", "not_found", "error").
func (m *Metrics) ObserveCheckIn(result string) {
	m.CheckIns.WithLabelValues(result).Inc()
}
