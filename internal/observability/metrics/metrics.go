package metrics

import "github.com/prometheus/client_golang/prometheus"

// SchedulingMetrics exposes counters/histograms for suggestion and booking flows.
type SchedulingMetrics struct {
	suggestionsTotal    *prometheus.CounterVec
	suggestionsReturned prometheus.Histogram
	bookingsTotal       *prometheus.CounterVec
	calendarSize        prometheus.Gauge
}

func NewSchedulingMetrics(reg prometheus.Registerer) *SchedulingMetrics {
	m := &SchedulingMetrics{
		suggestionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "availability",
			Name:      "suggestions_total",
			Help:      "Total slot suggestion requests by outcome",
		}, []string{"outcome"}),
		suggestionsReturned: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "availability",
			Name:      "suggestions_returned",
			Help:      "Number of slots returned per suggestion request",
			Buckets:   []float64{0, 1, 2, 3},
		}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "calendar",
			Name:      "bookings_total",
			Help:      "Total booking attempts by outcome",
		}, []string{"outcome"}),
		calendarSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "clinic",
			Subsystem: "calendar",
			Name:      "active_appointments",
			Help:      "Active appointments currently held in the calendar",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.suggestionsTotal, m.suggestionsReturned, m.bookingsTotal, m.calendarSize)
	return m
}

func (m *SchedulingMetrics) ObserveSuggestion(outcome string, returned int) {
	if m == nil {
		return
	}
	m.suggestionsTotal.WithLabelValues(outcome).Inc()
	if outcome == "ok" || outcome == "empty" {
		m.suggestionsReturned.Observe(float64(returned))
	}
}

func (m *SchedulingMetrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome).Inc()
}

func (m *SchedulingMetrics) SetActiveAppointments(n int) {
	if m == nil {
		return
	}
	m.calendarSize.Set(float64(n))
}
