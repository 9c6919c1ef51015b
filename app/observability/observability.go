package observability

import (
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Observability bundles the logger and metrics handed to every module.
type Observability struct {
	Logger   *slog.Logger
	Metrics  *Metrics
	Registry *prometheus.Registry
}

// New builds a logger writing to w and a fresh metrics registry.
func New(w io.Writer, format, level string) Observability {
	reg := NewRegistry()
	return Observability{
		Logger:   NewLogger(w, format, level),
		Metrics:  NewMetrics(reg),
		Registry: reg,
	}
}

// NewNoop discards logs and registers metrics on a private registry.
func NewNoop() Observability {
	return New(io.Discard, "text", "error")
}
