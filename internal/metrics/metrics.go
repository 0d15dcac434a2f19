package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "crosswalk"

// Collector holds the Prometheus metrics for the API and the vibe agent.
// Each Collector owns its registry so tests can build as many as they like.
type Collector struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	dropsCreated     prometheus.Counter
	highfivesGiven   prometheus.Counter
	vibeTurns        *prometheus.CounterVec
	vibeToolCalls    *prometheus.CounterVec
	deploymentStates *prometheus.CounterVec
	activeStreams    prometheus.Gauge
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		dropsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "drops_created_total",
			Help:      "Total number of drops created",
		}),
		highfivesGiven: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "highfives_total",
			Help:      "Total number of high-fives given",
		}),
		vibeTurns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "vibe",
			Name:      "turns_total",
			Help:      "Agent turns by outcome",
		}, []string{"outcome"}),
		vibeToolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "vibe",
			Name:      "tool_calls_total",
			Help:      "Tool invocations by tool and result",
		}, []string{"tool", "result"}),
		deploymentStates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "vibe",
			Name:      "deployment_states_total",
			Help:      "Deployment states reported to clients",
		}, []string{"state"}),
		activeStreams: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sse_streams_active",
			Help:      "Open server-sent event streams",
		}),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.httpRequests,
		c.httpDuration,
		c.dropsCreated,
		c.highfivesGiven,
		c.vibeTurns,
		c.vibeToolCalls,
		c.deploymentStates,
		c.activeStreams,
	)
	return c
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (c *Collector) DropCreated() {
	c.dropsCreated.Inc()
}

func (c *Collector) HighfiveGiven() {
	c.highfivesGiven.Inc()
}

// StreamOpened increments the open stream gauge and returns the matching decrement.
func (c *Collector) StreamOpened() func() {
	c.activeStreams.Inc()
	return c.activeStreams.Dec
}

func (c *Collector) ObserveVibeTurn(outcome string) {
	c.vibeTurns.WithLabelValues(outcome).Inc()
}

func (c *Collector) ObserveToolCall(tool, result string) {
	c.vibeToolCalls.WithLabelValues(tool, result).Inc()
}

func (c *Collector) ObserveDeploymentState(state string) {
	c.deploymentStates.WithLabelValues(state).Inc()
}
