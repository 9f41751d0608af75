package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hrmgate/internal/domain/auth"
)

// Collector owns the service's Prometheus metrics on a private registry.
type Collector struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	decisionsTotal  *prometheus.CounterVec
	signInsTotal    *prometheus.CounterVec
}

func New() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)
	return &Collector{
		registry: reg,
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hrmgate_http_requests_total",
			Help: "HTTP requests by method, route pattern and status.",
		}, []string{"method", "route", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hrmgate_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route pattern.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		decisionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hrmgate_authz_decisions_total",
			Help: "Authorization decisions by kind, role and outcome.",
		}, []string{"kind", "role", "decision"}),
		signInsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hrmgate_sign_ins_total",
			Help: "Sign-in attempts by outcome.",
		}, []string{"outcome"}),
	}
}

// RecordRequest takes the chi route pattern, not the raw path, to keep label
// cardinality bounded.
func (c *Collector) RecordRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	c.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveDecision implements auth.DecisionObserver. The target is left out
// of the labels.
func (c *Collector) ObserveDecision(kind auth.DecisionKind, role auth.Role, _ string, allowed bool) {
	decision := "deny"
	if allowed {
		decision = "allow"
	}
	c.decisionsTotal.WithLabelValues(string(kind), string(role), decision).Inc()
}

func (c *Collector) RecordSignIn(outcome string) {
	c.signInsTotal.WithLabelValues(outcome).Inc()
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
