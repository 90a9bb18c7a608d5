package operator

import (
	"errors"
	"testing"

	"github.com/Tangerg/ivm/graph"
	"github.com/Tangerg/ivm/zset"
)

func TestMapFilterFusion(t *testing.T) {
	double := func(v int) (int, error) { return v * 2, nil }
	even := func(v int) (bool, error) { return v%2 == 0, nil }
	evenPreimage := func(v int) (bool, error) { return (v*2)%2 == 0, nil }

	materialise := func(t *testing.T, build func(g *graph.Graph, r *graph.StreamReader[int]) (*graph.StreamWriter[int], error)) map[int]int64 {
		t.Helper()
		g := graph.NewGraph()
		in, err := graph.NewInput[int](g)
		if err != nil {
			t.Fatal(err)
		}
		out, err := build(g, in.NewReader())
		if err != nil {
			t.Fatal(err)
		}
		if err := g.Finalize(); err != nil {
			t.Fatal(err)
		}
		reader := out.NewReader()
		in.SendPairs(
			zset.Pair[int]{Value: 1, Mult: 1},
			zset.Pair[int]{Value: 2, Mult: 2},
			zset.Pair[int]{Value: 3, Mult: -1},
		)
		if err := g.Run(); err != nil {
			t.Fatal(err)
		}
		got := make(map[int]int64)
		for _, p := range drainAll(reader) {
			got[p.Value] += p.Mult
		}
		return got
	}

	mapThenFilter := materialise(t, func(g *graph.Graph, r *graph.StreamReader[int]) (*graph.StreamWriter[int], error) {
		mapped, err := Map(g, r, double)
		if err != nil {
			return nil, err
		}
		return Filter(g, mapped.NewReader(), even)
	})
	filterThenMap := materialise(t, func(g *graph.Graph, r *graph.StreamReader[int]) (*graph.StreamWriter[int], error) {
		kept, err := Filter(g, r, evenPreimage)
		if err != nil {
			return nil, err
		}
		return Map(g, kept.NewReader(), double)
	})

	if len(mapThenFilter) != len(filterThenMap) {
		t.Fatalf("fusion mismatch: %+v vs %+v", mapThenFilter, filterThenMap)
	}
	for v, m := range mapThenFilter {
		if filterThenMap[v] != m {
			t.Fatalf("fusion mismatch at %d: %d vs %d", v, m, filterThenMap[v])
		}
	}
}

func TestKeyByThenUnkeyIsIdentity(t *testing.T) {
	g := graph.NewGraph()
	in, err := graph.NewInput[string](g)
	if err != nil {
		t.Fatal(err)
	}
	keyed, err := KeyBy(g, in.NewReader(), func(v string) (string, error) { return v[:1], nil })
	if err != nil {
		t.Fatal(err)
	}
	out, err := Unkey(g, keyed.NewReader())
	if err != nil {
		t.Fatal(err)
	}
	if err := g.Finalize(); err != nil {
		t.Fatal(err)
	}
	reader := out.NewReader()

	sent := []zset.Pair[string]{
		{Value: "apple", Mult: 1},
		{Value: "banana", Mult: 2},
		{Value: "cherry", Mult: -1},
	}
	in.SendPairs(sent...)
	if err := g.Run(); err != nil {
		t.Fatal(err)
	}

	got := make(map[string]int64)
	for _, p := range drainAll(reader) {
		got[p.Value] += p.Mult
	}
	for _, p := range sent {
		if got[p.Value] != p.Mult {
			t.Fatalf("%q: want %d back, got %d", p.Value, p.Mult, got[p.Value])
		}
	}
}

func TestRekeyReplacesKey(t *testing.T) {
	g := graph.NewGraph()
	in, err := graph.NewInput[zset.KV[string, int]](g)
	if err != nil {
		t.Fatal(err)
	}
	out, err := Rekey(g, in.NewReader(), func(v int) (int, error) { return v % 2, nil })
	if err != nil {
		t.Fatal(err)
	}
	if err := g.Finalize(); err != nil {
		t.Fatal(err)
	}
	reader := out.NewReader()

	in.SendPairs(
		zset.Pair[zset.KV[string, int]]{Value: zset.KV[string, int]{Key: "x", Value: 3}, Mult: 1},
		zset.Pair[zset.KV[string, int]]{Value: zset.KV[string, int]{Key: "y", Value: 4}, Mult: 1},
	)
	if err := g.Run(); err != nil {
		t.Fatal(err)
	}
	for _, p := range drainAll(reader) {
		if p.Value.Key != p.Value.Value%2 {
			t.Fatalf("expected key derived from value, got %+v", p)
		}
	}
}

func TestConcatUnionsBothSides(t *testing.T) {
	g := graph.NewGraph()
	left, err := graph.NewInput[string](g)
	if err != nil {
		t.Fatal(err)
	}
	right, err := graph.NewInput[string](g)
	if err != nil {
		t.Fatal(err)
	}
	out, err := Concat(g, left.NewReader(), right.NewReader())
	if err != nil {
		t.Fatal(err)
	}
	if err := g.Finalize(); err != nil {
		t.Fatal(err)
	}
	reader := out.NewReader()

	left.SendPairs(zset.Pair[string]{Value: "l", Mult: 1})
	right.SendPairs(zset.Pair[string]{Value: "r", Mult: 1})
	if err := g.Run(); err != nil {
		t.Fatal(err)
	}
	got := make(map[string]int64)
	for _, p := range drainAll(reader) {
		got[p.Value] += p.Mult
	}
	if got["l"] != 1 || got["r"] != 1 {
		t.Fatalf("expected both sides in the union, got %+v", got)
	}

	// One side alone still flows through.
	left.SendPairs(zset.Pair[string]{Value: "solo", Mult: 1})
	if err := g.Run(); err != nil {
		t.Fatal(err)
	}
	pairs := drainAll(reader)
	if len(pairs) != 1 || pairs[0].Value != "solo" {
		t.Fatalf("expected just the left delta, got %+v", pairs)
	}
}

func TestConsolidateOperatorCollapsesWithinStep(t *testing.T) {
	g := graph.NewGraph()
	in, err := graph.NewInput[string](g)
	if err != nil {
		t.Fatal(err)
	}
	out, err := Consolidate(g, in.NewReader())
	if err != nil {
		t.Fatal(err)
	}
	if err := g.Finalize(); err != nil {
		t.Fatal(err)
	}
	reader := out.NewReader()

	in.SendPairs(zset.Pair[string]{Value: "a", Mult: 1}, zset.Pair[string]{Value: "a", Mult: 1})
	in.SendPairs(zset.Pair[string]{Value: "b", Mult: 1}, zset.Pair[string]{Value: "b", Mult: -1})
	if err := g.Run(); err != nil {
		t.Fatal(err)
	}
	pairs := drainAll(reader)
	if len(pairs) != 1 || pairs[0].Value != "a" || pairs[0].Mult != 2 {
		t.Fatalf("expected just a@+2 after consolidation, got %+v", pairs)
	}
}

func TestOutputSinkObservesEmissionOrder(t *testing.T) {
	g := graph.NewGraph()
	in, err := graph.NewInput[int](g)
	if err != nil {
		t.Fatal(err)
	}
	var seen []int
	if err := Output(g, in.NewReader(), func(m zset.MultiSet[int]) error {
		for _, p := range m.Pairs() {
			seen = append(seen, p.Value)
		}
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if err := g.Finalize(); err != nil {
		t.Fatal(err)
	}

	in.SendPairs(zset.Pair[int]{Value: 1, Mult: 1})
	in.SendPairs(zset.Pair[int]{Value: 2, Mult: 1})
	if err := g.Run(); err != nil {
		t.Fatal(err)
	}
	if len(seen) != 2 || seen[0] != 1 || seen[1] != 2 {
		t.Fatalf("sink should observe deltas in emission order, got %v", seen)
	}
}

func TestUserCallbackErrorAbortsRun(t *testing.T) {
	g := graph.NewGraph()
	in, err := graph.NewInput[int](g)
	if err != nil {
		t.Fatal(err)
	}
	boom := errors.New("boom")
	if _, err := Map(g, in.NewReader(), func(int) (int, error) { return 0, boom }); err != nil {
		t.Fatal(err)
	}
	if err := g.Finalize(); err != nil {
		t.Fatal(err)
	}

	in.SendPairs(zset.Pair[int]{Value: 1, Mult: 1})
	if err := g.Run(); !errors.Is(err, boom) {
		t.Fatalf("expected the callback error to propagate out of Run, got %v", err)
	}
}

func TestNegateOperatorFlipsDeltas(t *testing.T) {
	g := graph.NewGraph()
	in, err := graph.NewInput[string](g)
	if err != nil {
		t.Fatal(err)
	}
	out, err := Negate(g, in.NewReader())
	if err != nil {
		t.Fatal(err)
	}
	if err := g.Finalize(); err != nil {
		t.Fatal(err)
	}
	reader := out.NewReader()

	in.SendPairs(zset.Pair[string]{Value: "a", Mult: 2}, zset.Pair[string]{Value: "b", Mult: -1})
	if err := g.Run(); err != nil {
		t.Fatal(err)
	}
	got := make(map[string]int64)
	for _, p := range drainAll(reader) {
		got[p.Value] += p.Mult
	}
	if got["a"] != -2 || got["b"] != 1 {
		t.Fatalf("expected flipped multiplicities, got %+v", got)
	}
}
