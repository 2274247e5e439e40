// Package metrics defines the Provider abstraction and its noop/Prometheus/
// OTel implementations. Grounded on engine/telemetry/metrics/otel_provider.go
// (OTel bridge; kept close to its shape) for the interface surface; the
// Prometheus implementation is rebuilt directly against
// github.com/prometheus/client_golang since the teacher's own Prometheus
// provider source file was not retrieved into the pack (see DESIGN.md).
package metrics

import "context"

type CommonOpts struct {
	Namespace string
	Subsystem string
	Name      string
	Help      string
	Labels    []string
}

type CounterOpts struct{ CommonOpts }
type GaugeOpts struct{ CommonOpts }
type HistogramOpts struct {
	CommonOpts
	Buckets []float64
}

type Counter interface{ Inc(delta float64, labels ...string) }
type Gauge interface {
	Set(v float64, labels ...string)
	Add(delta float64, labels ...string)
}
type Histogram interface{ Observe(value float64, labels ...string) }
type Timer interface{ ObserveDuration(labels ...string) }

// Provider is the metrics backend abstraction every component constructs
// instruments from, so swapping Prometheus/OTel/noop never touches
// component code.
type Provider interface {
	NewCounter(opts CounterOpts) Counter
	NewGauge(opts GaugeOpts) Gauge
	NewHistogram(opts HistogramOpts) Histogram
	NewTimer(h HistogramOpts) func() Timer
	Health(ctx context.Context) error
}

// noop -----------------------------------------------------------------

type noopProvider struct{}

func NewNoop() Provider { return noopProvider{} }

func (noopProvider) NewCounter(CounterOpts) Counter     { return noopCounter{} }
func (noopProvider) NewGauge(GaugeOpts) Gauge           { return noopGauge{} }
func (noopProvider) NewHistogram(HistogramOpts) Histogram { return noopHistogram{} }
func (noopProvider) NewTimer(HistogramOpts) func() Timer {
	return func() Timer { return noopTimer{} }
}
func (noopProvider) Health(context.Context) error { return nil }

type noopCounter struct{}

func (noopCounter) Inc(float64, ...string) {}

type noopGauge struct{}

func (noopGauge) Set(float64, ...string) {}
func (noopGauge) Add(float64, ...string) {}

type noopHistogram struct{}

func (noopHistogram) Observe(float64, ...string) {}

type noopTimer struct{}

func (noopTimer) ObserveDuration(...string) {}
