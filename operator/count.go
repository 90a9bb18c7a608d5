package operator

import (
	"github.com/Tangerg/ivm/graph"
	"github.com/Tangerg/ivm/zset"
)

// countOp maintains, per key, a running count (sum of multiplicities).
// On each step, for every affected key, it emits (K, old_count) at -1
// and (K, new_count) at +1, suppressing emission where new==old. Keys
// untouched in the step emit no messages.
type countOp[K comparable, V any] struct {
	graph.UnaryBase[zset.KV[K, V], zset.KV[K, int64]]
	counts map[K]int64
}

func (c *countOp[K, V]) Run() error {
	if c.counts == nil {
		c.counts = make(map[K]int64)
	}
	delta := c.Input.DrainConsolidated()
	if delta.IsEmpty() {
		return nil
	}

	deltas := make(map[K]int64)
	for _, p := range delta.Pairs() {
		deltas[p.Value.Key] += p.Mult
	}

	var out zset.MultiSet[zset.KV[K, int64]]
	for k, d := range deltas {
		old := c.counts[k]
		next := old + d
		if next == 0 {
			delete(c.counts, k)
		} else {
			c.counts[k] = next
		}
		if next == old {
			continue
		}
		out.Append(zset.KV[K, int64]{Key: k, Value: old}, -1)
		out.Append(zset.KV[K, int64]{Key: k, Value: next}, 1)
	}
	emitTo(c.Output, out)
	return nil
}

// Count registers a count operator.
func Count[K comparable, V any](g *graph.Graph, input *graph.StreamReader[zset.KV[K, V]]) (*graph.StreamWriter[zset.KV[K, int64]], error) {
	id, err := g.NextOperatorID()
	if err != nil {
		return nil, err
	}
	output, err := graph.NewInput[zset.KV[K, int64]](g)
	if err != nil {
		return nil, err
	}
	op := &countOp[K, V]{UnaryBase: graph.NewUnaryBase(id, input, output)}
	if err := g.AddOperator(op); err != nil {
		return nil, err
	}
	return output, nil
}
