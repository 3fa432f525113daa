// Package devtools provides hsi.InspectorHook implementations that
// export an interpreter's activity to Prometheus and OpenTelemetry. It
// lives outside package hsi so the core interpreter never links against
// either SDK directly.
package devtools

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/comalice/hsi"
)

// MetricsHook records transition, event, and action-error counts as
// Prometheus metrics. Share one instance across every interpreter in a
// process via hsi.WithInspector; per-interpreter breakdown comes from
// the "interpreter" label, not from separate hook instances.
type MetricsHook struct {
	transitions  *prometheus.CounterVec
	events       *prometheus.CounterVec
	actionErrors *prometheus.CounterVec
}

// NewMetricsHook builds the hook's metrics and registers them against
// reg. A nil reg registers against prometheus.DefaultRegisterer.
func NewMetricsHook(reg prometheus.Registerer) *MetricsHook {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	h := &MetricsHook{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hsi_transitions_total",
			Help: "Total number of completed microstep transitions.",
		}, []string{"interpreter"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hsi_events_total",
			Help: "Total number of events accepted by an interpreter.",
		}, []string{"interpreter", "event"}),
		actionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hsi_action_errors_total",
			Help: "Total number of action executions that errored or panicked.",
		}, []string{"interpreter"}),
	}
	reg.MustRegister(h.transitions, h.events, h.actionErrors)
	return h
}

// OnTransition implements hsi.InspectorHook.
func (h *MetricsHook) OnTransition(interpreterID string, snap hsi.Snapshot) {
	h.transitions.WithLabelValues(interpreterID).Inc()
}

// OnEvent implements hsi.InspectorHook.
func (h *MetricsHook) OnEvent(interpreterID string, ev hsi.Event) {
	name := ev.Name
	if name == "" {
		name = "<anonymous>"
	}
	h.events.WithLabelValues(interpreterID, name).Inc()
}

// OnActionError implements hsi.InspectorHook.
func (h *MetricsHook) OnActionError(interpreterID string, err error) {
	h.actionErrors.WithLabelValues(interpreterID).Inc()
}
