package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Tangerg/ivm/graph"
)

func TestCollectorReportsStepCount(t *testing.T) {
	g := graph.NewGraph()
	if err := g.Finalize(); err != nil {
		t.Fatal(err)
	}

	reg := prometheus.NewRegistry()
	c := NewCollector(g)
	if err := c.Register(reg); err != nil {
		t.Fatal(err)
	}

	if err := g.Step(); err != nil {
		t.Fatal(err)
	}
	if err := g.Step(); err != nil {
		t.Fatal(err)
	}

	got := testutil.ToFloat64(c.stepGauge)
	if got != 2 {
		t.Fatalf("expected step gauge to read 2, got %v", got)
	}
}

func TestQueueDepthGaugeReflectsReaderState(t *testing.T) {
	g := graph.NewGraph()
	w, err := graph.NewInput[int](g)
	if err != nil {
		t.Fatal(err)
	}
	r := w.NewReader()

	gauge := QueueDepthGauge("ints", r.QueueLen)
	if got := testutil.ToFloat64(gauge); got != 0 {
		t.Fatalf("expected 0 before any send, got %v", got)
	}

	w.SendPairs()
	if got := testutil.ToFloat64(gauge); got != 1 {
		t.Fatalf("expected 1 after one send, got %v", got)
	}
}
