// Package metrics exposes Prometheus metrics for the omadadoc server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	Namespace          = "omadadoc"
	SubsystemHTTP      = "http"
	SubsystemDocuments = "documents"
)

// Upload outcomes, used as the "result" label of the documents counter.
const (
	ResultParsed = "parsed"
	ResultCached = "cached"
	ResultFailed = "failed"
)

// Metrics holds the collectors of one server. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	documentsTotal  *prometheus.CounterVec
	endpointsTotal  prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}
	m.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: Namespace}))
	m.registry.MustRegister(collectors.NewGoCollector())

	m.requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: SubsystemHTTP,
			Name:      "request_duration_seconds",
			Help:      "Time to serve an HTTP request.",
		},
		[]string{"route", "method", "status_code"},
	)
	m.registry.MustRegister(m.requestDuration)

	m.documentsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: SubsystemDocuments,
		Name:      "uploads_total",
		Help:      "Uploaded documents by outcome.",
	}, []string{"result"})
	m.registry.MustRegister(m.documentsTotal)

	m.endpointsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: SubsystemDocuments,
		Name:      "endpoints_extracted_total",
		Help:      "Endpoints extracted from newly parsed documents.",
	})
	m.registry.MustRegister(m.endpointsTotal)

	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RegisterCacheSize reports the number of cached documents through fn.
func (m *Metrics) RegisterCacheSize(fn func() int) {
	if m == nil {
		return
	}
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: Namespace,
		Subsystem: SubsystemDocuments,
		Name:      "cached",
		Help:      "Parsed documents currently held in the cache.",
	}, func() float64 { return float64(fn()) }))
}

func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.requestDuration.With(prometheus.Labels{
		"route":       route,
		"method":      method,
		"status_code": strconv.Itoa(status),
	}).Observe(elapsed.Seconds())
}

// ObserveUpload counts an upload with one of the Result constants.
// endpoints is only added for newly parsed documents.
func (m *Metrics) ObserveUpload(result string, endpoints int) {
	if m == nil {
		return
	}
	m.documentsTotal.WithLabelValues(result).Inc()
	if result == ResultParsed {
		m.endpointsTotal.Add(float64(endpoints))
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
