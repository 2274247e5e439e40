// Package tracing extracts trace/span correlation IDs from a context for
// logging and event-bus attribution. Grounded on the teacher's internal
// tracing helper used by both its logging wrapper and its event bus.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// ExtractIDs returns the trace and span IDs carried by ctx's active OTel
// span, or empty strings if none is present.
func ExtractIDs(ctx context.Context) (traceID, spanID string) {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return "", ""
	}
	return sc.TraceID().String(), sc.SpanID().String()
}
