package metrics

import (
	"context"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewPrometheus returns a Provider backed by a dedicated prometheus
// registry (not the global default, so embedding applications can compose
// multiple registries without collision).
func NewPrometheus(reg *prometheus.Registry) Provider {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	return &promProvider{reg: reg}
}

type promProvider struct {
	reg *prometheus.Registry
	mu  sync.Mutex
}

func fqName(c CommonOpts) string {
	return prometheus.BuildFQName(c.Namespace, c.Subsystem, c.Name)
}

func (p *promProvider) NewCounter(opts CounterOpts) Counter {
	cv := prometheus.NewCounterVec(prometheus.CounterOpts{Name: fqName(opts.CommonOpts), Help: opts.Help}, opts.Labels)
	p.mu.Lock()
	_ = p.reg.Register(cv)
	p.mu.Unlock()
	return &promCounter{cv: cv}
}

func (p *promProvider) NewGauge(opts GaugeOpts) Gauge {
	gv := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: fqName(opts.CommonOpts), Help: opts.Help}, opts.Labels)
	p.mu.Lock()
	_ = p.reg.Register(gv)
	p.mu.Unlock()
	return &promGauge{gv: gv}
}

func (p *promProvider) NewHistogram(opts HistogramOpts) Histogram {
	buckets := opts.Buckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}
	hv := prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: fqName(opts.CommonOpts), Help: opts.Help, Buckets: buckets}, opts.Labels)
	p.mu.Lock()
	_ = p.reg.Register(hv)
	p.mu.Unlock()
	return &promHistogram{hv: hv}
}

func (p *promProvider) NewTimer(h HistogramOpts) func() Timer {
	hist := p.NewHistogram(h)
	return func() Timer { return newPromTimer(hist) }
}

func (p *promProvider) Health(context.Context) error { return nil }

// MetricsHandler exposes the registry for scraping; httpapi mounts this
// directly under /metrics when the prometheus backend is active.
func (p *promProvider) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{})
}

type promCounter struct{ cv *prometheus.CounterVec }

func (c *promCounter) Inc(delta float64, labels ...string) {
	if delta <= 0 {
		return
	}
	c.cv.WithLabelValues(labels...).Add(delta)
}

type promGauge struct{ gv *prometheus.GaugeVec }

func (g *promGauge) Set(v float64, labels ...string) { g.gv.WithLabelValues(labels...).Set(v) }
func (g *promGauge) Add(delta float64, labels ...string) {
	g.gv.WithLabelValues(labels...).Add(delta)
}

type promHistogram struct{ hv *prometheus.HistogramVec }

func (h *promHistogram) Observe(value float64, labels ...string) {
	h.hv.WithLabelValues(labels...).Observe(value)
}
