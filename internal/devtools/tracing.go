package devtools

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/comalice/hsi"
)

// TracingHook emits one span per completed microstep, raised event, and
// escalated action error, using whatever trace.TracerProvider the host
// process has configured via otel.SetTracerProvider (a no-op tracer if
// none has been set).
type TracingHook struct {
	tracer trace.Tracer
}

// NewTracingHook builds a hook backed by the named tracer.
func NewTracingHook(name string) *TracingHook {
	return &TracingHook{tracer: otel.Tracer(name)}
}

// OnTransition implements hsi.InspectorHook.
func (h *TracingHook) OnTransition(interpreterID string, snap hsi.Snapshot) {
	_, span := h.tracer.Start(context.Background(), "hsi.transition")
	span.SetAttributes(
		attribute.String("hsi.interpreter", interpreterID),
		attribute.Bool("hsi.changed", snap.Changed()),
		attribute.Bool("hsi.done", snap.Done()),
	)
	span.End()
}

// OnEvent implements hsi.InspectorHook.
func (h *TracingHook) OnEvent(interpreterID string, ev hsi.Event) {
	_, span := h.tracer.Start(context.Background(), "hsi.event")
	span.SetAttributes(
		attribute.String("hsi.interpreter", interpreterID),
		attribute.String("hsi.event", ev.Name),
	)
	span.End()
}

// OnActionError implements hsi.InspectorHook.
func (h *TracingHook) OnActionError(interpreterID string, err error) {
	_, span := h.tracer.Start(context.Background(), "hsi.action_error")
	span.RecordError(err)
	span.SetAttributes(attribute.String("hsi.interpreter", interpreterID))
	span.End()
}
