package operator

import (
	"github.com/Tangerg/ivm/fracindex"
	"github.com/Tangerg/ivm/graph"
	"github.com/Tangerg/ivm/zset"
)

type fractionalEntry[V any] struct {
	value V
	mult  int64
	str   string
}

// topKWithFractionalIndexOp is like topK, but each windowed record
// carries a fractional string index instead of an integer rank.
// Existing records keep their assigned string across steps — only
// genuinely new or displaced records get a fresh one — so an insertion
// emits exactly one message regardless of how many existing records
// sit to either side of it.
type topKWithFractionalIndexOp[K comparable, V any] struct {
	graph.UnaryBase[zset.KV[K, V], zset.KV[K, zset.Pair2[V, string]]]
	opts    Options[V]
	index   map[K]zset.MultiSet[V]
	entries map[K]map[string]fractionalEntry[V]
}

func (t *topKWithFractionalIndexOp[K, V]) Run() error {
	if t.index == nil {
		t.index = make(map[K]zset.MultiSet[V])
		t.entries = make(map[K]map[string]fractionalEntry[V])
	}

	delta := t.Input.DrainConsolidated()
	if delta.IsEmpty() {
		return nil
	}
	perKey, order := partitionByKey(delta)

	var out zset.MultiSet[zset.KV[K, zset.Pair2[V, string]]]
	for _, k := range order {
		full := t.index[k]
		full.Extend(zset.New(perKey[k]...))
		full = full.Consolidate()
		t.index[k] = full

		newWin := window(sortedEntries(full, t.opts.Comparator), t.opts)
		newOrder := make([]string, len(newWin))
		newMultByID := make(map[string]windowEntry[V], len(newWin))
		for i, e := range newWin {
			newOrder[i] = e.identity
			newMultByID[e.identity] = e
		}
		oldEntries := t.entries[k]

		assigned, err := assignFractionalStrings(newOrder, oldEntries)
		if err != nil {
			return err
		}

		newEntries := make(map[string]fractionalEntry[V], len(newOrder))
		for _, id := range newOrder {
			e := newMultByID[id]
			newEntries[id] = fractionalEntry[V]{value: e.value, mult: e.mult, str: assigned[id]}
		}

		for id, old := range oldEntries {
			newE, stillPresent := newEntries[id]
			if !stillPresent {
				out.Append(zset.KV[K, zset.Pair2[V, string]]{Key: k, Value: zset.Pair2[V, string]{First: old.value, Second: old.str}}, -old.mult)
				continue
			}
			if newE.mult != old.mult {
				out.Append(zset.KV[K, zset.Pair2[V, string]]{Key: k, Value: zset.Pair2[V, string]{First: old.value, Second: old.str}}, -old.mult)
				out.Append(zset.KV[K, zset.Pair2[V, string]]{Key: k, Value: zset.Pair2[V, string]{First: newE.value, Second: newE.str}}, newE.mult)
			}
			// same mult, same string: unchanged, nothing to emit.
		}
		for id, newE := range newEntries {
			if _, existed := oldEntries[id]; !existed {
				out.Append(zset.KV[K, zset.Pair2[V, string]]{Key: k, Value: zset.Pair2[V, string]{First: newE.value, Second: newE.str}}, newE.mult)
			}
		}

		t.entries[k] = newEntries
	}
	emitTo(t.Output, out)
	return nil
}

// assignFractionalStrings reuses every identity's previously assigned
// string and allocates fresh ones, left to right, for identities new to
// the window, bounded by the nearest still-assigned neighbours on
// either side.
func assignFractionalStrings[V any](order []string, prior map[string]fractionalEntry[V]) (map[string]string, error) {
	assigned := make(map[string]string, len(order))
	for _, id := range order {
		if p, ok := prior[id]; ok {
			assigned[id] = p.str
		}
	}

	var lower *string
	for i, id := range order {
		if s, ok := assigned[id]; ok {
			lowerVal := s
			lower = &lowerVal
			continue
		}
		var upper *string
		for j := i + 1; j < len(order); j++ {
			if s, ok := assigned[order[j]]; ok {
				upperVal := s
				upper = &upperVal
				break
			}
		}
		s, err := fracindex.Between(lower, upper)
		if err != nil {
			return nil, err
		}
		assigned[id] = s
		lowerVal := s
		lower = &lowerVal
	}
	return assigned, nil
}

// TopKWithFractionalIndex registers a topKWithFractionalIndex operator.
func TopKWithFractionalIndex[K comparable, V any](g *graph.Graph, input *graph.StreamReader[zset.KV[K, V]], opts Options[V]) (*graph.StreamWriter[zset.KV[K, zset.Pair2[V, string]]], error) {
	if opts.Comparator == nil {
		return nil, ErrComparatorRequired
	}
	id, err := g.NextOperatorID()
	if err != nil {
		return nil, err
	}
	output, err := graph.NewInput[zset.KV[K, zset.Pair2[V, string]]](g)
	if err != nil {
		return nil, err
	}
	op := &topKWithFractionalIndexOp[K, V]{UnaryBase: graph.NewUnaryBase(id, input, output), opts: opts}
	if err := g.AddOperator(op); err != nil {
		return nil, err
	}
	return output, nil
}

// OrderByWithFractionalIndex is the single-group convenience over
// topKWithFractionalIndex: every record shares the single key struct{}{},
// so the whole input stream is one ordered group.
func OrderByWithFractionalIndex[V any](g *graph.Graph, input *graph.StreamReader[V], cmp func(a, b V) int) (*graph.StreamWriter[zset.Pair2[V, string]], error) {
	keyed, err := KeyBy(g, input, func(V) (struct{}, error) { return struct{}{}, nil })
	if err != nil {
		return nil, err
	}
	ordered, err := TopKWithFractionalIndex[struct{}, V](g, keyed.NewReader(), Options[V]{Comparator: cmp})
	if err != nil {
		return nil, err
	}
	return Map(g, ordered.NewReader(), func(kv zset.KV[struct{}, zset.Pair2[V, string]]) (zset.Pair2[V, string], error) {
		return kv.Value, nil
	})
}
