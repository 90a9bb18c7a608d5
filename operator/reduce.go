package operator

import (
	"reflect"

	"github.com/Tangerg/ivm/graph"
	"github.com/Tangerg/ivm/zset"
)

// reduceOp recomputes, for each affected key, R from the key's full
// running multiset of V (not just the delta), diffing against the
// previously emitted row. Per-key state updates are applied
// sequentially — there is no chunk of work here worth parallelising,
// since every key's running multiset depends on the order its own
// deltas arrive in.
type reduceOp[K comparable, V, R any] struct {
	graph.UnaryBase[zset.KV[K, V], zset.KV[K, R]]
	index   map[K]zset.MultiSet[V]
	rows    map[K]R
	hasRow  map[K]bool
	reducer func(K, zset.MultiSet[V]) (R, error)
}

func (r *reduceOp[K, V, R]) Run() error {
	if r.index == nil {
		r.index = make(map[K]zset.MultiSet[V])
		r.rows = make(map[K]R)
		r.hasRow = make(map[K]bool)
	}

	delta := r.Input.DrainConsolidated()
	if delta.IsEmpty() {
		return nil
	}

	perKey := make(map[K][]zset.Pair[V])
	order := make([]K, 0)
	for _, p := range delta.Pairs() {
		k := p.Value.Key
		if _, seen := perKey[k]; !seen {
			order = append(order, k)
		}
		perKey[k] = append(perKey[k], zset.Pair[V]{Value: p.Value.Value, Mult: p.Mult})
	}

	var out zset.MultiSet[zset.KV[K, R]]
	for _, k := range order {
		full := r.index[k]
		full.Extend(zset.New(perKey[k]...))
		full = full.Consolidate()
		r.index[k] = full

		newRow, err := r.reducer(k, full)
		if err != nil {
			return err
		}

		oldRow, hadRow := r.rows[k], r.hasRow[k]
		if hadRow && reflect.DeepEqual(oldRow, newRow) {
			continue
		}
		if hadRow {
			out.Append(zset.KV[K, R]{Key: k, Value: oldRow}, -1)
		}
		out.Append(zset.KV[K, R]{Key: k, Value: newRow}, 1)
		r.rows[k] = newRow
		r.hasRow[k] = true
	}
	emitTo(r.Output, out)
	return nil
}

// Reduce registers a reduce operator: for each key, reducer is called
// with the key's full consolidated running multiset of V whenever that
// key is touched by a delta, and the emitted (K, R) delta follows the
// old/new retract-insert pattern, suppressed when the row is unchanged.
func Reduce[K comparable, V, R any](g *graph.Graph, input *graph.StreamReader[zset.KV[K, V]], reducer func(K, zset.MultiSet[V]) (R, error)) (*graph.StreamWriter[zset.KV[K, R]], error) {
	id, err := g.NextOperatorID()
	if err != nil {
		return nil, err
	}
	output, err := graph.NewInput[zset.KV[K, R]](g)
	if err != nil {
		return nil, err
	}
	op := &reduceOp[K, V, R]{UnaryBase: graph.NewUnaryBase(id, input, output), reducer: reducer}
	if err := g.AddOperator(op); err != nil {
		return nil, err
	}
	return output, nil
}
