// Package observability exposes engine lifecycle metrics via Prometheus.
package observability

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/polytrader/polytrader/pkg/domain"
)

// Metrics collects engine counters and histograms and adapts them to the
// engine's lifecycle hooks.
type Metrics struct {
	nodeDuration *prometheus.HistogramVec
	nodeStarts   *prometheus.CounterVec
	nodeFailures *prometheus.CounterVec
	checkpoints  prometheus.Counter
	interrupts   *prometheus.CounterVec
}

// NewMetrics creates and registers the engine metrics on the given
// registerer. Passing nil registers on the Prometheus default.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		nodeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "polytrader_node_duration_seconds",
				Help:    "Wall-clock duration of pipeline node executions.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"node"},
		),
		nodeStarts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "polytrader_node_starts_total",
				Help: "Pipeline node executions started.",
			},
			[]string{"node"},
		),
		nodeFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "polytrader_node_failures_total",
				Help: "Pipeline node executions that ended in an error.",
			},
			[]string{"node", "kind"},
		),
		checkpoints: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "polytrader_checkpoints_total",
				Help: "Checkpoints persisted.",
			},
		),
		interrupts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "polytrader_interrupts_total",
				Help: "Runs paused waiting for a human decision.",
			},
			[]string{"node"},
		),
	}
	reg.MustRegister(m.nodeDuration, m.nodeStarts, m.nodeFailures, m.checkpoints, m.interrupts)
	return m
}

// Hooks returns lifecycle hooks feeding these metrics.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeStart: func(_ context.Context, ev *domain.NodeEvent) {
			m.nodeStarts.WithLabelValues(ev.Node).Inc()
		},
		OnNodeFinish: func(_ context.Context, ev *domain.NodeEvent, err error) {
			m.nodeDuration.WithLabelValues(ev.Node).Observe(ev.Duration.Seconds())
			if err != nil {
				m.nodeFailures.WithLabelValues(ev.Node, errorKind(err)).Inc()
			}
		},
		OnCheckpoint: func(_ context.Context, _ *domain.CheckpointEvent) {
			m.checkpoints.Inc()
		},
		OnInterrupt: func(_ context.Context, ev *domain.NodeEvent) {
			m.interrupts.WithLabelValues(ev.Node).Inc()
		},
	}
}

func errorKind(err error) string {
	var nodeErr *domain.NodeError
	var valErr *domain.ValidationError
	var storageErr *domain.StorageError
	switch {
	case errors.As(err, &valErr):
		return domain.ErrKindValidation
	case errors.As(err, &storageErr):
		return domain.ErrKindStorage
	case errors.As(err, &nodeErr):
		return nodeErr.Kind
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return domain.ErrKindCanceled
	default:
		return domain.ErrKindNode
	}
}
