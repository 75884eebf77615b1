package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sells-group/georef-cli/internal/georef"
	"github.com/sells-group/georef-cli/pkg/geocode"
	"github.com/sells-group/georef-cli/pkg/predict"
)

const namespace = "georef"

// Metrics holds the API's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	georeferences *prometheus.CounterVec
	batchRecords  prometheus.Counter
}

// NewMetrics registers the API collectors. cacheStats may be nil.
func NewMetrics(cacheStats func() geocode.CacheStats) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	m := &Metrics{
		registry: reg,
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests processed.",
		}, []string{"method", "route", "status"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method", "route"}),
		georeferences: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "georeferences_total",
			Help:      "Georeferences computed, by locality kind and outcome.",
		}, []string{"kind", "status"}),
		batchRecords: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "records_total",
			Help:      "Records submitted through the batch endpoint.",
		}),
	}

	if cacheStats != nil {
		f.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "geocode_cache",
			Name:      "hits_total",
			Help:      "Geocode cache hits.",
		}, func() float64 { return float64(cacheStats().Hits) })
		f.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "geocode_cache",
			Name:      "misses_total",
			Help:      "Geocode cache misses.",
		}, func() float64 { return float64(cacheStats().Misses) })
		f.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "geocode_cache",
			Name:      "entries",
			Help:      "Names held in the geocode cache.",
		}, func() float64 { return float64(cacheStats().Entries) })
	}
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Middleware records request counts and latency by route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.duration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) observeGeoreference(kind, status string) {
	m.georeferences.WithLabelValues(kindLabel(kind), status).Inc()
}

// kindLabel bounds the kind label to the known locality kinds so client input
// cannot mint new series.
func kindLabel(kind string) string {
	if strings.TrimSpace(kind) == "" {
		return "unknown"
	}
	k := string(georef.ParseKind(kind))
	if _, ok := predict.Labels[k]; ok {
		return k
	}
	return "other"
}
