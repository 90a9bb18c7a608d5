package operator

import (
	"github.com/Tangerg/ivm/graph"
	"github.com/Tangerg/ivm/zset"
)

type indexedEntry[V any] struct {
	value V
	mult  int64
	index int
}

// topKWithIndexOp is like topK, but each windowed record also carries
// its zero-based rank within the window; a rank change retracts the
// old (V, i) and inserts the new (V, i').
type topKWithIndexOp[K comparable, V any] struct {
	graph.UnaryBase[zset.KV[K, V], zset.KV[K, zset.Pair2[V, int]]]
	opts       Options[V]
	index      map[K]zset.MultiSet[V]
	lastWindow map[K]map[string]indexedEntry[V]
}

func (t *topKWithIndexOp[K, V]) Run() error {
	if t.index == nil {
		t.index = make(map[K]zset.MultiSet[V])
		t.lastWindow = make(map[K]map[string]indexedEntry[V])
	}

	delta := t.Input.DrainConsolidated()
	if delta.IsEmpty() {
		return nil
	}
	perKey, order := partitionByKey(delta)

	var out zset.MultiSet[zset.KV[K, zset.Pair2[V, int]]]
	for _, k := range order {
		full := t.index[k]
		full.Extend(zset.New(perKey[k]...))
		full = full.Consolidate()
		t.index[k] = full

		newWin := window(sortedEntries(full, t.opts.Comparator), t.opts)
		newSet := make(map[string]indexedEntry[V], len(newWin))
		for i, e := range newWin {
			newSet[e.identity] = indexedEntry[V]{value: e.value, mult: e.mult, index: i}
		}
		oldSet := t.lastWindow[k]

		for id, old := range oldSet {
			newE, ok := newSet[id]
			if !ok {
				out.Append(zset.KV[K, zset.Pair2[V, int]]{Key: k, Value: zset.Pair2[V, int]{First: old.value, Second: old.index}}, -old.mult)
				continue
			}
			if newE.index != old.index || newE.mult != old.mult {
				out.Append(zset.KV[K, zset.Pair2[V, int]]{Key: k, Value: zset.Pair2[V, int]{First: old.value, Second: old.index}}, -old.mult)
				out.Append(zset.KV[K, zset.Pair2[V, int]]{Key: k, Value: zset.Pair2[V, int]{First: newE.value, Second: newE.index}}, newE.mult)
			}
		}
		for id, newE := range newSet {
			if _, ok := oldSet[id]; !ok {
				out.Append(zset.KV[K, zset.Pair2[V, int]]{Key: k, Value: zset.Pair2[V, int]{First: newE.value, Second: newE.index}}, newE.mult)
			}
		}
		t.lastWindow[k] = newSet
	}
	emitTo(t.Output, out)
	return nil
}

// TopKWithIndex registers a topKWithIndex operator.
func TopKWithIndex[K comparable, V any](g *graph.Graph, input *graph.StreamReader[zset.KV[K, V]], opts Options[V]) (*graph.StreamWriter[zset.KV[K, zset.Pair2[V, int]]], error) {
	if opts.Comparator == nil {
		return nil, ErrComparatorRequired
	}
	id, err := g.NextOperatorID()
	if err != nil {
		return nil, err
	}
	output, err := graph.NewInput[zset.KV[K, zset.Pair2[V, int]]](g)
	if err != nil {
		return nil, err
	}
	op := &topKWithIndexOp[K, V]{UnaryBase: graph.NewUnaryBase(id, input, output), opts: opts}
	if err := g.AddOperator(op); err != nil {
		return nil, err
	}
	return output, nil
}
