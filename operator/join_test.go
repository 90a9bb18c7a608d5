package operator

import (
	"testing"

	"github.com/Tangerg/ivm/graph"
	"github.com/Tangerg/ivm/zset"
)

func buildJoinGraph(t *testing.T, kind JoinKind) (*graph.Graph, *graph.StreamWriter[zset.KV[string, string]], *graph.StreamWriter[zset.KV[string, int]], *graph.StreamReader[zset.KV[string, zset.Pair2[*string, *int]]]) {
	t.Helper()
	g := graph.NewGraph()
	left, err := graph.NewInput[zset.KV[string, string]](g)
	if err != nil {
		t.Fatal(err)
	}
	right, err := graph.NewInput[zset.KV[string, int]](g)
	if err != nil {
		t.Fatal(err)
	}
	out, err := Join[string, string, int](g, left.NewReader(), right.NewReader(), kind)
	if err != nil {
		t.Fatal(err)
	}
	if err := g.Finalize(); err != nil {
		t.Fatal(err)
	}
	return g, left, right, out.NewReader()
}

func drainPairs(r *graph.StreamReader[zset.KV[string, zset.Pair2[*string, *int]]]) []zset.Pair[zset.KV[string, zset.Pair2[*string, *int]]] {
	var all []zset.Pair[zset.KV[string, zset.Pair2[*string, *int]]]
	for _, m := range r.Drain() {
		all = append(all, m.Pairs()...)
	}
	return all
}

func TestInnerJoinMatchesOppositeSides(t *testing.T) {
	g, left, right, out := buildJoinGraph(t, JoinInner)

	right.SendPairs(zset.Pair[zset.KV[string, int]]{Value: zset.KV[string, int]{Key: "k1", Value: 10}, Mult: 1})
	if err := g.Run(); err != nil {
		t.Fatal(err)
	}
	if got := len(drainPairs(out)); got != 0 {
		t.Fatalf("expected no output before left side arrives, got %d", got)
	}

	left.SendPairs(zset.Pair[zset.KV[string, string]]{Value: zset.KV[string, string]{Key: "k1", Value: "a"}, Mult: 1})
	if err := g.Run(); err != nil {
		t.Fatal(err)
	}
	pairs := drainPairs(out)
	if len(pairs) != 1 {
		t.Fatalf("expected 1 match, got %d", len(pairs))
	}
	if pairs[0].Value.Key != "k1" || *pairs[0].Value.Value.First != "a" || *pairs[0].Value.Value.Second != 10 {
		t.Fatalf("unexpected join output: %+v", pairs[0])
	}
}

func TestInnerJoinSameStepBothSides(t *testing.T) {
	g, left, right, out := buildJoinGraph(t, JoinInner)

	left.SendPairs(zset.Pair[zset.KV[string, string]]{Value: zset.KV[string, string]{Key: "k1", Value: "a"}, Mult: 1})
	right.SendPairs(zset.Pair[zset.KV[string, int]]{Value: zset.KV[string, int]{Key: "k1", Value: 10}, Mult: 1})
	if err := g.Run(); err != nil {
		t.Fatal(err)
	}
	pairs := drainPairs(out)
	if len(pairs) != 1 {
		t.Fatalf("expected the same-step pair to be credited exactly once, got %d: %+v", len(pairs), pairs)
	}
}

func TestLeftJoinNullPaddingAndCorrection(t *testing.T) {
	g, left, right, out := buildJoinGraph(t, JoinLeft)

	left.SendPairs(zset.Pair[zset.KV[string, string]]{Value: zset.KV[string, string]{Key: "k1", Value: "a"}, Mult: 1})
	if err := g.Run(); err != nil {
		t.Fatal(err)
	}
	pairs := drainPairs(out)
	if len(pairs) != 1 || pairs[0].Value.Value.Second != nil {
		t.Fatalf("expected one null-padded row, got %+v", pairs)
	}

	right.SendPairs(zset.Pair[zset.KV[string, int]]{Value: zset.KV[string, int]{Key: "k1", Value: 10}, Mult: 1})
	if err := g.Run(); err != nil {
		t.Fatal(err)
	}
	pairs = drainPairs(out)
	var sawRetraction, sawMatch bool
	for _, p := range pairs {
		if p.Value.Value.Second == nil && p.Mult == -1 {
			sawRetraction = true
		}
		if p.Value.Value.Second != nil && *p.Value.Value.Second == 10 && p.Mult == 1 {
			sawMatch = true
		}
	}
	if !sawRetraction || !sawMatch {
		t.Fatalf("expected null-padding retraction plus new real match, got %+v", pairs)
	}
}
