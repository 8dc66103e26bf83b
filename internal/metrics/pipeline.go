package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "socialgood"

// Donation paths.
const (
	PathDirect  = "direct"
	PathCapture = "capture"
)

// Pipeline holds the donation pipeline collectors on a private registry.
type Pipeline struct {
	registry *prometheus.Registry

	persisted        *prometheus.CounterVec
	persistFailures  *prometheus.CounterVec
	acknowledgements *prometheus.CounterVec
	deliveries       *prometheus.CounterVec
	captures         *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

// NewPipeline registers every collector plus the Go and process collectors.
func NewPipeline() *Pipeline {
	p := &Pipeline{
		registry: prometheus.NewRegistry(),
		persisted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "donations_persisted_total",
			Help:      "Donation records written to the record store.",
		}, []string{"path"}),
		persistFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "donations_persist_failures_total",
			Help:      "Donation records the record store failed to write.",
		}, []string{"path"}),
		acknowledgements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "acknowledgements_total",
			Help:      "Acknowledgement bodies generated, by provider.",
		}, []string{"provider"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Delivery attempts, by transport and result.",
		}, []string{"transport", "result"}),
		captures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_captures_total",
			Help:      "Payment capture attempts, by result.",
		}, []string{"result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	p.registry.MustRegister(
		p.persisted, p.persistFailures, p.acknowledgements, p.deliveries, p.captures,
		p.httpRequests, p.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return p
}

// Registry exposes the underlying registry for tests and extra collectors.
func (p *Pipeline) Registry() *prometheus.Registry {
	return p.registry
}

// Handler serves the registry in the Prometheus text format.
func (p *Pipeline) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// The recorders below are nil-safe so collaborators can run without metrics.

func (p *Pipeline) Persisted(path string) {
	if p != nil {
		p.persisted.WithLabelValues(path).Inc()
	}
}

func (p *Pipeline) PersistFailed(path string) {
	if p != nil {
		p.persistFailures.WithLabelValues(path).Inc()
	}
}

func (p *Pipeline) Acknowledged(provider string) {
	if p != nil {
		p.acknowledgements.WithLabelValues(provider).Inc()
	}
}

func (p *Pipeline) Delivered(transport string, sent bool) {
	if p == nil {
		return
	}
	result := "failed"
	if sent {
		result = "sent"
	}
	p.deliveries.WithLabelValues(transport, result).Inc()
}

func (p *Pipeline) Captured(result string) {
	if p != nil {
		p.captures.WithLabelValues(result).Inc()
	}
}

// ObserveHTTP records one served request.
func (p *Pipeline) ObserveHTTP(method, route string, status int, d time.Duration) {
	if p == nil {
		return
	}
	statusLabel := strconv.Itoa(status)
	p.httpRequests.WithLabelValues(method, route, statusLabel).Inc()
	p.httpDuration.WithLabelValues(method, route, statusLabel).Observe(d.Seconds())
}
