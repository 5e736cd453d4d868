package render

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks render outcomes. A nil *Metrics is valid and records
// nothing, so callers that do not scrape (the one-shot CLI paths) can skip
// the registry entirely.
type Metrics struct {
	rendersTotal      *prometheus.CounterVec
	renderDuration    *prometheus.HistogramVec
	variantsGenerated prometheus.Counter
	cacheHits         prometheus.Counter
	variantsSkipped   prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		rendersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "picset_renders_total",
			Help: "Total picture renders by preset and final status.",
		}, []string{"preset", "status"}),
		renderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "picset_render_duration_seconds",
			Help:    "End-to-end duration of each picture render.",
			Buckets: prometheus.DefBuckets,
		}, []string{"preset", "status"}),
		variantsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "picset_variants_generated_total",
			Help: "Total variant files written (cache misses).",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "picset_variant_cache_hits_total",
			Help: "Total variants resolved from already-generated files.",
		}),
		variantsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "picset_variants_skipped_total",
			Help: "Total variants skipped because their source was unavailable or generation failed.",
		}),
	}
	reg.MustRegister(
		m.rendersTotal,
		m.renderDuration,
		m.variantsGenerated,
		m.cacheHits,
		m.variantsSkipped,
	)
	return m
}

func (m *Metrics) observeRender(preset, status string, seconds float64) {
	if m == nil {
		return
	}
	m.rendersTotal.WithLabelValues(preset, status).Inc()
	m.renderDuration.WithLabelValues(preset, status).Observe(seconds)
}

func (m *Metrics) observeVariant(cacheHit bool) {
	if m == nil {
		return
	}
	if cacheHit {
		m.cacheHits.Inc()
		return
	}
	m.variantsGenerated.Inc()
}

func (m *Metrics) observeSkip() {
	if m == nil {
		return
	}
	m.variantsSkipped.Inc()
}
