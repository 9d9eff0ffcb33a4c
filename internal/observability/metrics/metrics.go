package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ChatMetrics exposes counters/histograms for the chat assistant.
type ChatMetrics struct {
	turnsTotal     *prometheus.CounterVec
	actionTotal    *prometheus.CounterVec
	actionLatency  *prometheus.HistogramVec
	transcriptErrs *prometheus.CounterVec
}

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "telehealth",
			Subsystem: "chat",
			Name:      "turns_total",
			Help:      "Chat turns processed by flow and outcome",
		}, []string{"flow", "outcome"}),
		actionTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "telehealth",
			Subsystem: "chat",
			Name:      "gateway_actions_total",
			Help:      "Gateway actions executed on behalf of chat users",
		}, []string{"action", "status"}),
		actionLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "telehealth",
			Subsystem: "chat",
			Name:      "gateway_action_latency_seconds",
			Help:      "Latency of gateway actions",
			Buckets:   prometheus.DefBuckets,
		}, []string{"action"}),
		transcriptErrs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "telehealth",
			Subsystem: "chat",
			Name:      "transcript_errors_total",
			Help:      "Transcript store failures by operation",
		}, []string{"op"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.actionTotal, m.actionLatency, m.transcriptErrs)
	return m
}

func (m *ChatMetrics) ObserveTurn(flow, outcome string) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(flow, outcome).Inc()
}

func (m *ChatMetrics) ObserveAction(action string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.actionTotal.WithLabelValues(action, status).Inc()
	m.actionLatency.WithLabelValues(action).Observe(elapsed.Seconds())
}

func (m *ChatMetrics) ObserveTranscriptError(op string) {
	if m == nil {
		return
	}
	m.transcriptErrs.WithLabelValues(op).Inc()
}

// SchedulingMetrics counts appointment and reminder lifecycle events.
type SchedulingMetrics struct {
	appointmentsTotal *prometheus.CounterVec
	remindersSent     *prometheus.CounterVec
}

func NewSchedulingMetrics(reg prometheus.Registerer) *SchedulingMetrics {
	m := &SchedulingMetrics{
		appointmentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "telehealth",
			Subsystem: "scheduling",
			Name:      "appointments_total",
			Help:      "Appointment lifecycle transitions",
		}, []string{"event"}),
		remindersSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "telehealth",
			Subsystem: "scheduling",
			Name:      "reminders_sent_total",
			Help:      "Medication reminder notifications by status",
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.appointmentsTotal, m.remindersSent)
	return m
}

func (m *SchedulingMetrics) ObserveAppointment(event string) {
	if m == nil {
		return
	}
	m.appointmentsTotal.WithLabelValues(event).Inc()
}

func (m *SchedulingMetrics) ObserveReminderSent(status string) {
	if m == nil {
		return
	}
	m.remindersSent.WithLabelValues(status).Inc()
}
