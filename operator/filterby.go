package operator

import (
	"github.com/Tangerg/ivm/graph"
	"github.com/Tangerg/ivm/zset"
)

// filterByOp is a semi-join filter: it keeps only left records whose
// key currently appears in the right side's key set. The right side is
// a keyed "set" stream — only key presence matters, not its payload.
//
// It keeps a presence counter per key for the right side (not a full
// per-key multiset), and a cached full left Z-set per key so that, when
// the right side's presence for a key crosses zero, the complete left
// payload set for that key can be retracted or replayed in one shot.
type filterByOp[K comparable, A, B any] struct {
	graph.BinaryBase[zset.KV[K, A], zset.KV[K, B], zset.KV[K, A]]
	rightMult map[K]int64
	leftIndex map[K]zset.MultiSet[A]
}

func (f *filterByOp[K, A, B]) Run() error {
	if f.rightMult == nil {
		f.rightMult = make(map[K]int64)
		f.leftIndex = make(map[K]zset.MultiSet[A])
	}

	deltaLeft := f.Left.DrainConsolidated()
	deltaRight := f.Right.DrainConsolidated()
	if deltaLeft.IsEmpty() && deltaRight.IsEmpty() {
		return nil
	}

	perKeyLeft, orderLeft := partitionByKey(deltaLeft)
	perKeyRight, orderRight := partitionByKey(deltaRight)
	touched := unionKeys(orderLeft, orderRight)

	oldRightMult := make(map[K]int64, len(orderRight))
	for _, k := range orderRight {
		oldRightMult[k] = f.rightMult[k]
		var sum int64
		for _, p := range perKeyRight[k] {
			sum += p.Mult
		}
		next := f.rightMult[k] + sum
		if next == 0 {
			delete(f.rightMult, k)
		} else {
			f.rightMult[k] = next
		}
	}

	for _, k := range orderLeft {
		cur := f.leftIndex[k]
		cur.Extend(zset.New(perKeyLeft[k]...))
		f.leftIndex[k] = cur.Consolidate()
	}

	var out zset.MultiSet[zset.KV[K, A]]
	for _, k := range touched {
		old, touchedByRight := oldRightMult[k]
		if !touchedByRight {
			old = f.rightMult[k] // unchanged by this step
		}
		newMult := f.rightMult[k]
		oldZero := old == 0
		newZero := newMult == 0

		switch {
		case oldZero && !newZero:
			for _, p := range f.leftIndex[k].Pairs() {
				out.Append(zset.KV[K, A]{Key: k, Value: p.Value}, p.Mult)
			}
		case !oldZero && newZero:
			for _, p := range f.leftIndex[k].Pairs() {
				out.Append(zset.KV[K, A]{Key: k, Value: p.Value}, -p.Mult)
			}
		case !oldZero && !newZero:
			for _, d := range perKeyLeft[k] {
				out.Append(zset.KV[K, A]{Key: k, Value: d.Value}, d.Mult)
			}
		}
	}
	emitTo(f.Output, out)
	return nil
}

// FilterBy registers a filterBy operator: left records are kept only
// while their key has nonzero right-side multiplicity.
func FilterBy[K comparable, A, B any](g *graph.Graph, left *graph.StreamReader[zset.KV[K, A]], right *graph.StreamReader[zset.KV[K, B]]) (*graph.StreamWriter[zset.KV[K, A]], error) {
	id, err := g.NextOperatorID()
	if err != nil {
		return nil, err
	}
	output, err := graph.NewInput[zset.KV[K, A]](g)
	if err != nil {
		return nil, err
	}
	op := &filterByOp[K, A, B]{BinaryBase: graph.NewBinaryBase(id, left, right, output)}
	if err := g.AddOperator(op); err != nil {
		return nil, err
	}
	return output, nil
}
