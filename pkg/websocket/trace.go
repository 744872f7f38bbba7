package websocket

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// startTaskSpan opens the span that covers a task's lifetime.
func startTaskSpan(tracer trace.Tracer, id, url string, mode Mode) trace.Span {
	_, span := tracer.Start(
		context.Background(),
		"websocket.task",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("websocket.task_id", id),
			attribute.String("websocket.url", url),
			attribute.String("websocket.mode", mode.String()),
		),
	)
	return span
}

// recordStatus adds a status event to span. Errors mark the span failed.
func recordStatus(span trace.Span, s Status) {
	span.AddEvent("websocket.status", trace.WithAttributes(
		attribute.String("websocket.status", s.String()),
	))
	if s == StatusError {
		span.SetStatus(codes.Error, "transport error")
	}
}
