// Package metrics exposes a graph's step count and reader queue depths
// as Prometheus gauges: the two numbers an operator of this engine
// would actually want on a dashboard.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Tangerg/ivm/graph"
)

// Collector exports a graph's step count as a Prometheus gauge. Queue
// depths are registered separately via QueueDepthGauge, one gauge per named
// reader, since a Graph has no generic way to enumerate its readers'
// element types.
type Collector struct {
	graph     *graph.Graph
	stepGauge prometheus.GaugeFunc
}

// NewCollector builds a Collector over g. Call Register to attach it to a
// prometheus.Registerer.
func NewCollector(g *graph.Graph) *Collector {
	c := &Collector{graph: g}
	c.stepGauge = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: "ivm",
			Name:      "graph_steps_total",
			Help:      "Number of Step() calls executed by the graph so far.",
		},
		func() float64 { return float64(g.StepCount()) },
	)
	return c
}

// Register attaches the collector's metrics to reg.
func (c *Collector) Register(reg prometheus.Registerer) error {
	return reg.Register(c.stepGauge)
}

// QueueDepthGauge returns a GaugeFunc reporting depth() under the given
// reader name label, for callers to register alongside the Collector.
// Generic StreamReader[T] can't satisfy a common interface without T, so
// callers pass a closure over their specific reader's QueueLen method:
//
//	g := metrics.QueueDepthGauge("orders", func() int { return ordersReader.QueueLen() })
//	reg.MustRegister(g)
func QueueDepthGauge(readerName string, depth func() int) prometheus.GaugeFunc {
	return prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace:   "ivm",
			Name:        "reader_queue_depth",
			Help:        "Number of pending Z-set batches queued on a stream reader.",
			ConstLabels: prometheus.Labels{"reader": readerName},
		},
		func() float64 { return float64(depth()) },
	)
}
