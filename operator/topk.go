package operator

import (
	"github.com/Tangerg/ivm/graph"
	"github.com/Tangerg/ivm/zset"
)

// topKOp maintains, per key, the full consolidated running multiset,
// re-derives the sorted [offset, offset+limit) window, and diffs it
// against the previously emitted window by record identity, emitting
// only what changed. State per key is the consolidated multiset and the
// last emitted window; the sorted slice is rebuilt from the multiset
// whenever the key is touched.
type topKOp[K comparable, V any] struct {
	graph.UnaryBase[zset.KV[K, V], zset.KV[K, V]]
	opts       Options[V]
	index      map[K]zset.MultiSet[V]
	lastWindow map[K]map[string]windowEntry[V]
}

func (t *topKOp[K, V]) Run() error {
	if t.index == nil {
		t.index = make(map[K]zset.MultiSet[V])
		t.lastWindow = make(map[K]map[string]windowEntry[V])
	}

	delta := t.Input.DrainConsolidated()
	if delta.IsEmpty() {
		return nil
	}
	perKey, order := partitionByKey(delta)

	var out zset.MultiSet[zset.KV[K, V]]
	for _, k := range order {
		full := t.index[k]
		full.Extend(zset.New(perKey[k]...))
		full = full.Consolidate()
		t.index[k] = full

		newWin := window(sortedEntries(full, t.opts.Comparator), t.opts)
		newSet := make(map[string]windowEntry[V], len(newWin))
		for _, e := range newWin {
			newSet[e.identity] = e
		}
		oldSet := t.lastWindow[k]

		for id, old := range oldSet {
			if newE, ok := newSet[id]; ok {
				if newE.mult != old.mult {
					out.Append(zset.KV[K, V]{Key: k, Value: old.value}, -old.mult)
					out.Append(zset.KV[K, V]{Key: k, Value: newE.value}, newE.mult)
				}
				continue
			}
			out.Append(zset.KV[K, V]{Key: k, Value: old.value}, -old.mult)
		}
		for id, newE := range newSet {
			if _, ok := oldSet[id]; !ok {
				out.Append(zset.KV[K, V]{Key: k, Value: newE.value}, newE.mult)
			}
		}
		t.lastWindow[k] = newSet
	}
	emitTo(t.Output, out)
	return nil
}

// TopK registers a topK operator: emits (K, V) pairs for the windowed
// records of each key.
func TopK[K comparable, V any](g *graph.Graph, input *graph.StreamReader[zset.KV[K, V]], opts Options[V]) (*graph.StreamWriter[zset.KV[K, V]], error) {
	if opts.Comparator == nil {
		return nil, ErrComparatorRequired
	}
	id, err := g.NextOperatorID()
	if err != nil {
		return nil, err
	}
	output, err := graph.NewInput[zset.KV[K, V]](g)
	if err != nil {
		return nil, err
	}
	op := &topKOp[K, V]{UnaryBase: graph.NewUnaryBase(id, input, output), opts: opts}
	if err := g.AddOperator(op); err != nil {
		return nil, err
	}
	return output, nil
}
