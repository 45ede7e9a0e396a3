package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulingMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSchedulingMetrics(reg)

	m.ObserveSuggestion("ok", 3)
	m.ObserveSuggestion("ok", 2)
	m.ObserveSuggestion("invalid_duration", 0)
	m.ObserveBooking("booked")
	m.ObserveBooking("conflict")
	m.ObserveBooking("conflict")
	m.SetActiveAppointments(4)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.suggestionsTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.suggestionsTotal.WithLabelValues("invalid_duration")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.bookingsTotal.WithLabelValues("conflict")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.calendarSize))

	var hist dto.Metric
	require.NoError(t, m.suggestionsReturned.Write(&hist))
	assert.Equal(t, uint64(2), hist.GetHistogram().GetSampleCount())
	assert.Equal(t, 5.0, hist.GetHistogram().GetSampleSum())
}

func TestSchedulingMetricsDefaultRegistry(t *testing.T) {
	m := NewSchedulingMetrics(nil)
	m.ObserveSuggestion("empty", 0)
	prometheus.DefaultRegisterer.Unregister(m.suggestionsTotal)
	prometheus.DefaultRegisterer.Unregister(m.suggestionsReturned)
	prometheus.DefaultRegisterer.Unregister(m.bookingsTotal)
	prometheus.DefaultRegisterer.Unregister(m.calendarSize)
}

func TestSchedulingMetricsNilSafe(t *testing.T) {
	var m *SchedulingMetrics
	m.ObserveSuggestion("ok", 1)
	m.ObserveBooking("booked")
	m.SetActiveAppointments(1)
}
