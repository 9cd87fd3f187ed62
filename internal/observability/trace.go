package observability

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "finitefield.org/trip-planner"

// Tracer returns the tracer used for spans around outbound work. Without a
// configured SDK the global provider is a no-op.
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}
