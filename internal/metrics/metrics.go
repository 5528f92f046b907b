// Package metrics exposes engine activity as Prometheus metrics, fed by lifecycle hooks.
package metrics

import (
	"context"
	"net/http"

	"github.com/aretw0/branchtale/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private registry so several engines (or tests) never collide.
type Collector struct {
	registry *prometheus.Registry

	nodeVisits   *prometheus.CounterVec
	steps        *prometheus.CounterVec
	outcomes     *prometheus.CounterVec
	stepDuration prometheus.Histogram
	turns        prometheus.Histogram
}

// New creates a Collector with Go runtime and process collectors registered.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		nodeVisits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "branchtale_node_visits_total",
				Help: "Total number of node visits",
			},
			[]string{"story", "node_id"},
		),
		steps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "branchtale_steps_total",
				Help: "Total number of inputs applied, by result kind",
			},
			[]string{"story", "kind"},
		),
		outcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "branchtale_outcomes_total",
				Help: "Finished playthroughs by outcome",
			},
			[]string{"story", "outcome"},
		),
		stepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "branchtale_step_duration_seconds",
			Help:    "Time spent applying one input",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8),
		}),
		turns: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "branchtale_session_turns",
			Help:    "Inputs consumed per finished playthrough",
			Buckets: prometheus.LinearBuckets(0, 1, 10),
		}),
	}

	c.registry.MustRegister(
		c.nodeVisits, c.steps, c.outcomes, c.stepDuration, c.turns,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return c
}

// Hooks returns lifecycle hooks that record into the collector.
func (c *Collector) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(_ context.Context, e *domain.NodeEvent) {
			c.nodeVisits.WithLabelValues(e.StoryID, e.NodeID).Inc()
		},
		OnStep: func(_ context.Context, e *domain.StepEvent) {
			c.steps.WithLabelValues(e.StoryID, string(e.Result.Kind)).Inc()
			c.stepDuration.Observe(e.Duration.Seconds())
		},
		OnOutcome: func(_ context.Context, e *domain.OutcomeEvent) {
			c.outcomes.WithLabelValues(e.StoryID, string(e.Outcome)).Inc()
			c.turns.Observe(float64(e.Turns))
		},
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Registry exposes the underlying registry for tests and custom collectors.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
