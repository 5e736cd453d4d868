package worker

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	registry       *prometheus.Registry
	rendersTotal   *prometheus.CounterVec
	renderDuration *prometheus.HistogramVec
	activeRenders  prometheus.Gauge
	variantsTotal  prometheus.Counter
	webhooksTotal  *prometheus.CounterVec
}

func newMetrics() *metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &metrics{
		registry: registry,
		rendersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "picset_worker_renders_total",
			Help: "Total worker renders by preset and final status.",
		}, []string{"preset", "status"}),
		renderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "picset_worker_render_duration_seconds",
			Help:    "Total processing duration for each worker render.",
			Buckets: prometheus.DefBuckets,
		}, []string{"preset", "status"}),
		activeRenders: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "picset_worker_active_renders",
			Help: "Current number of active renders in the worker.",
		}),
		variantsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "picset_worker_variants_total",
			Help: "Total image variants produced by the worker.",
		}),
		webhooksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "picset_worker_webhooks_total",
			Help: "Total webhook deliveries attempted by the worker.",
		}, []string{"event", "status"}),
	}

	registry.MustRegister(
		m.rendersTotal,
		m.renderDuration,
		m.activeRenders,
		m.variantsTotal,
		m.webhooksTotal,
	)
	return m
}

func (m *metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
