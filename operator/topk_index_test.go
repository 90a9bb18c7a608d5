package operator

import (
	"strings"
	"testing"

	"github.com/Tangerg/ivm/graph"
	"github.com/Tangerg/ivm/zset"
)

func buildTopKIndexGraph(t *testing.T, opts Options[string]) (*graph.Graph, *graph.StreamWriter[zset.KV[string, string]], *graph.StreamReader[zset.KV[string, zset.Pair2[string, int]]]) {
	t.Helper()
	g := graph.NewGraph()
	in, err := graph.NewInput[zset.KV[string, string]](g)
	if err != nil {
		t.Fatal(err)
	}
	out, err := TopKWithIndex(g, in.NewReader(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if err := g.Finalize(); err != nil {
		t.Fatal(err)
	}
	return g, in, out.NewReader()
}

func sendOne(in *graph.StreamWriter[zset.KV[string, string]], v string, mult int64) {
	in.SendPairs(zset.Pair[zset.KV[string, string]]{Value: zset.KV[string, string]{Key: "g", Value: v}, Mult: mult})
}

func TestTopKWithIndexAssignsRanks(t *testing.T) {
	g, in, reader := buildTopKIndexGraph(t, Options[string]{Comparator: strings.Compare})

	for _, v := range []string{"c", "a", "b"} {
		sendOne(in, v, 1)
	}
	if err := g.Run(); err != nil {
		t.Fatal(err)
	}

	ranks := make(map[string]int)
	for _, p := range drainAll(reader) {
		if p.Mult > 0 {
			ranks[p.Value.Value.First] = p.Value.Value.Second
		}
	}
	want := map[string]int{"a": 0, "b": 1, "c": 2}
	for v, r := range want {
		if ranks[v] != r {
			t.Fatalf("%q: want rank %d, got %d (full: %+v)", v, r, ranks[v], ranks)
		}
	}
}

func TestTopKWithIndexShiftsRanksOnInsertion(t *testing.T) {
	g, in, reader := buildTopKIndexGraph(t, Options[string]{Comparator: strings.Compare})

	for _, v := range []string{"b", "c"} {
		sendOne(in, v, 1)
	}
	if err := g.Run(); err != nil {
		t.Fatal(err)
	}
	_ = drainAll(reader)

	// Inserting "a" at the front displaces both existing records by one
	// rank: each emits a retraction at its old index and an insertion at
	// the new one.
	sendOne(in, "a", 1)
	if err := g.Run(); err != nil {
		t.Fatal(err)
	}
	deltas := make(map[zset.Pair2[string, int]]int64)
	for _, p := range drainAll(reader) {
		deltas[p.Value.Value] += p.Mult
	}
	want := map[zset.Pair2[string, int]]int64{
		{First: "a", Second: 0}: 1,
		{First: "b", Second: 0}: -1,
		{First: "b", Second: 1}: 1,
		{First: "c", Second: 1}: -1,
		{First: "c", Second: 2}: 1,
	}
	for k, v := range want {
		if deltas[k] != v {
			t.Fatalf("%+v: want %d, got %d (full: %+v)", k, v, deltas[k], deltas)
		}
	}
}

func TestTopKWithIndexWindowWithOffset(t *testing.T) {
	g, in, reader := buildTopKIndexGraph(t, Options[string]{Offset: 1, Limit: 2, Comparator: strings.Compare})

	for _, v := range []string{"a", "b", "c", "d"} {
		sendOne(in, v, 1)
	}
	if err := g.Run(); err != nil {
		t.Fatal(err)
	}

	ranks := make(map[string]int)
	for _, p := range drainAll(reader) {
		if p.Mult > 0 {
			ranks[p.Value.Value.First] = p.Value.Value.Second
		}
	}
	// The window is the slice [1, 3) of the sorted group, ranks are
	// zero-based within the window.
	want := map[string]int{"b": 0, "c": 1}
	if len(ranks) != len(want) {
		t.Fatalf("expected only the windowed records, got %+v", ranks)
	}
	for v, r := range want {
		if got, ok := ranks[v]; !ok || got != r {
			t.Fatalf("%q: want rank %d, got %+v", v, r, ranks)
		}
	}
}

func TestTopKRequiresComparator(t *testing.T) {
	g := graph.NewGraph()
	in, err := graph.NewInput[zset.KV[string, string]](g)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := TopK(g, in.NewReader(), Options[string]{}); err != ErrComparatorRequired {
		t.Fatalf("expected ErrComparatorRequired, got %v", err)
	}
	if _, err := TopKWithIndex(g, in.NewReader(), Options[string]{}); err != ErrComparatorRequired {
		t.Fatalf("expected ErrComparatorRequired, got %v", err)
	}
	if _, err := TopKWithFractionalIndex(g, in.NewReader(), Options[string]{}); err != ErrComparatorRequired {
		t.Fatalf("expected ErrComparatorRequired, got %v", err)
	}
}
