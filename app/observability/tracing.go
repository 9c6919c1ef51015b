package observability

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationPrefix = "github.com/predict-it/predict-it/"

// Tracer returns the named tracer from the global provider. Without an installed
// SDK this is a no-op tracer.
func Tracer(module string) trace.Tracer {
	return otel.Tracer(instrumentationPrefix + module)
}
