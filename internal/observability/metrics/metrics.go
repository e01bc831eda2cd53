package metrics

import "github.com/prometheus/client_golang/prometheus"

// SchedulingMetrics exposes counters/histograms for booking and reminder flows.
type SchedulingMetrics struct {
	bookingsTotal  *prometheus.CounterVec
	remindersTotal *prometheus.CounterVec
	batchLatency   prometheus.Histogram
}

func NewSchedulingMetrics(reg prometheus.Registerer) *SchedulingMetrics {
	m := &SchedulingMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stillwater",
			Subsystem: "scheduling",
			Name:      "bookings_total",
			Help:      "Total booking operations by action and outcome",
		}, []string{"action", "outcome"}),
		remindersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stillwater",
			Subsystem: "reminders",
			Name:      "processed_total",
			Help:      "Total reminder decisions by stage and result",
		}, []string{"stage", "result"}),
		batchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "stillwater",
			Subsystem: "reminders",
			Name:      "batch_latency_seconds",
			Help:      "Latency of one reminder batch run",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal, m.remindersTotal, m.batchLatency)
	return m
}

// ObserveBooking records one booking operation. action is propose, reschedule
// or cancel; outcome is booked, ineligible, conflict, not_found or error.
func (m *SchedulingMetrics) ObserveBooking(action, outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(action, outcome).Inc()
}

// ObserveReminder records one reminder decision. result is sent, skipped or
// error.
func (m *SchedulingMetrics) ObserveReminder(stage, result string) {
	if m == nil {
		return
	}
	m.remindersTotal.WithLabelValues(stage, result).Inc()
}

// ObserveBatchLatency records the wall time of one reminder batch.
func (m *SchedulingMetrics) ObserveBatchLatency(seconds float64) {
	if m == nil {
		return
	}
	m.batchLatency.Observe(seconds)
}
