package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "solvo"

type Collector struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	requestDuration prometheus.Histogram
	rateLimited     prometheus.Counter
	actions         *prometheus.CounterVec
	narratives      *prometheus.CounterVec
	jobRuns         *prometheus.CounterVec
}

// New registers the collectors on reg. A nil reg gets a fresh registry,
// which is what tests want.
func New(reg *prometheus.Registry) *Collector {
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	c := &Collector{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by status class.",
		}, []string{"class"}),
		requestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "workspace",
			Name:      "actions_total",
			Help:      "Workspace actions applied, by action and persistence outcome.",
		}, []string{"action", "persisted"}),
		narratives: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ai",
			Name:      "requests_total",
			Help:      "AI collaborator calls by command and outcome.",
		}, []string{"command", "outcome"}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "runs_total",
			Help:      "Background job runs by job and status.",
		}, []string{"job", "status"}),
	}
	c.requests = register(reg, c.requests)
	c.requestDuration = register(reg, c.requestDuration)
	c.rateLimited = register(reg, c.rateLimited)
	c.actions = register(reg, c.actions)
	c.narratives = register(reg, c.narratives)
	c.jobRuns = register(reg, c.jobRuns)
	return c
}

// register reuses an already registered collector of the same description.
func register[T prometheus.Collector](reg prometheus.Registerer, collector T) T {
	if err := reg.Register(collector); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(err)
	}
	return collector
}

func (c *Collector) Record(status int, duration time.Duration) {
	c.requests.WithLabelValues(strconv.Itoa(status/100) + "xx").Inc()
	c.requestDuration.Observe(duration.Seconds())
	if status == http.StatusTooManyRequests {
		c.rateLimited.Inc()
	}
}

func (c *Collector) ActionApplied(action string, persisted bool) {
	c.actions.WithLabelValues(action, strconv.FormatBool(persisted)).Inc()
}

func (c *Collector) AICall(command string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.narratives.WithLabelValues(command, outcome).Inc()
}

func (c *Collector) JobRun(job, status string) {
	c.jobRuns.WithLabelValues(job, status).Inc()
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
