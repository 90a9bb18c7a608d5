package operator

import (
	"github.com/Tangerg/ivm/graph"
	"github.com/Tangerg/ivm/zset"
)

// JoinKind selects the equi-join flavour. A join's kind is fixed at
// construction time and doesn't vary within one instance.
type JoinKind int

const (
	JoinInner JoinKind = iota
	JoinLeft
	JoinRight
	JoinFull
)

// joinOp equi-joins two keyed streams (K, A) and (K, B) into
// (K, (A?, B?)).
//
// The left delta is applied to the left index *between* the two
// cross-product passes, rather than after both, so that a right delta
// arriving in the same step as a left delta for the same key is still
// credited: the correct bilinear delta of a join is
// ΔA×B_old + A_old×ΔB + ΔA×ΔB, and crossing ΔB against the
// just-updated left index folds the ΔA×ΔB term into the second pass. A
// both-deltas-matched-against-only-the-pre-existing-opposite-side
// reading would drop that term and produce wrong output when both
// sides change in the same step.
type joinOp[K comparable, A, B any] struct {
	graph.BinaryBase[zset.KV[K, A], zset.KV[K, B], zset.KV[K, zset.Pair2[*A, *B]]]
	kind       JoinKind
	leftIndex  map[K]zset.MultiSet[A]
	rightIndex map[K]zset.MultiSet[B]
}

func totalMult[T any](m zset.MultiSet[T]) int64 {
	var total int64
	for _, p := range m.Pairs() {
		total += p.Mult
	}
	return total
}

func partitionByKey[K comparable, V any](m zset.MultiSet[zset.KV[K, V]]) (map[K][]zset.Pair[V], []K) {
	perKey := make(map[K][]zset.Pair[V])
	order := make([]K, 0)
	for _, p := range m.Pairs() {
		k := p.Value.Key
		if _, seen := perKey[k]; !seen {
			order = append(order, k)
		}
		perKey[k] = append(perKey[k], zset.Pair[V]{Value: p.Value.Value, Mult: p.Mult})
	}
	return perKey, order
}

func unionKeys[K comparable](a, b []K) []K {
	seen := make(map[K]bool, len(a)+len(b))
	out := make([]K, 0, len(a)+len(b))
	for _, k := range a {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	for _, k := range b {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}

func (j *joinOp[K, A, B]) Run() error {
	if j.leftIndex == nil {
		j.leftIndex = make(map[K]zset.MultiSet[A])
		j.rightIndex = make(map[K]zset.MultiSet[B])
	}

	deltaA := j.Left.DrainConsolidated()
	deltaB := j.Right.DrainConsolidated()
	if deltaA.IsEmpty() && deltaB.IsEmpty() {
		return nil
	}

	perKeyA, orderA := partitionByKey(deltaA)
	perKeyB, orderB := partitionByKey(deltaB)
	touched := unionKeys(orderA, orderB)

	oldLeftSnapshot := make(map[K]zset.MultiSet[A], len(touched))
	oldRightSnapshot := make(map[K]zset.MultiSet[B], len(touched))
	for _, k := range touched {
		oldLeftSnapshot[k] = j.leftIndex[k]
		oldRightSnapshot[k] = j.rightIndex[k]
	}

	var out zset.MultiSet[zset.KV[K, zset.Pair2[*A, *B]]]

	// Step 2: cross the left delta against the current (pre-existing)
	// right index.
	for _, k := range orderA {
		for _, da := range perKeyA[k] {
			for _, rb := range oldRightSnapshot[k].Pairs() {
				a, b := da.Value, rb.Value
				out.Append(zset.KV[K, zset.Pair2[*A, *B]]{Key: k, Value: zset.Pair2[*A, *B]{First: &a, Second: &b}}, da.Mult*rb.Mult)
			}
		}
	}

	// Apply the left delta now so the right delta's cross product below
	// sees it (folds in the ΔA×ΔB term).
	for _, k := range orderA {
		cur := j.leftIndex[k]
		cur.Extend(zset.New(perKeyA[k]...))
		j.leftIndex[k] = cur.Consolidate()
	}

	// Step 3: cross the right delta against the just-updated left index.
	for _, k := range orderB {
		for _, db := range perKeyB[k] {
			for _, la := range j.leftIndex[k].Pairs() {
				a, b := la.Value, db.Value
				out.Append(zset.KV[K, zset.Pair2[*A, *B]]{Key: k, Value: zset.Pair2[*A, *B]{First: &a, Second: &b}}, db.Mult*la.Mult)
			}
		}
	}

	// Apply the right delta.
	for _, k := range orderB {
		cur := j.rightIndex[k]
		cur.Extend(zset.New(perKeyB[k]...))
		j.rightIndex[k] = cur.Consolidate()
	}

	if j.kind == JoinLeft || j.kind == JoinFull {
		j.emitLeftNullPadding(&out, touched, perKeyA, oldRightSnapshot)
	}
	if j.kind == JoinRight || j.kind == JoinFull {
		j.emitRightNullPadding(&out, touched, perKeyB, oldLeftSnapshot)
	}

	emitTo(j.Output, out)
	return nil
}

// emitLeftNullPadding handles left/full joins: left rows with no
// matching right row are padded with a null right side, and corrections
// are emitted when the right side's presence for a key crosses zero.
func (j *joinOp[K, A, B]) emitLeftNullPadding(out *zset.MultiSet[zset.KV[K, zset.Pair2[*A, *B]]], touched []K, perKeyA map[K][]zset.Pair[A], oldRight map[K]zset.MultiSet[B]) {
	for _, k := range touched {
		oldZero := totalMult(oldRight[k]) == 0
		newZero := totalMult(j.rightIndex[k]) == 0

		switch {
		case oldZero && newZero:
			for _, da := range perKeyA[k] {
				v := da.Value
				out.Append(zset.KV[K, zset.Pair2[*A, *B]]{Key: k, Value: zset.Pair2[*A, *B]{First: &v, Second: nil}}, da.Mult)
			}
		case oldZero && !newZero:
			for _, p := range j.leftIndexSnapshotBefore(k, perKeyA) {
				v := p.Value
				out.Append(zset.KV[K, zset.Pair2[*A, *B]]{Key: k, Value: zset.Pair2[*A, *B]{First: &v, Second: nil}}, -p.Mult)
			}
		case !oldZero && newZero:
			for _, p := range j.leftIndex[k].Pairs() {
				v := p.Value
				out.Append(zset.KV[K, zset.Pair2[*A, *B]]{Key: k, Value: zset.Pair2[*A, *B]{First: &v, Second: nil}}, p.Mult)
			}
		}
	}
}

// leftIndexSnapshotBefore reconstructs the left index's contents before
// this step's left delta was applied, by subtracting the delta back out
// of the (already updated) current index.
func (j *joinOp[K, A, B]) leftIndexSnapshotBefore(k K, perKeyA map[K][]zset.Pair[A]) []zset.Pair[A] {
	cur := j.leftIndex[k]
	deltas := perKeyA[k]
	if len(deltas) == 0 {
		return cur.Pairs()
	}
	var undone zset.MultiSet[A]
	undone.Extend(cur)
	for _, d := range deltas {
		undone.Append(d.Value, -d.Mult)
	}
	return undone.Consolidate().Pairs()
}

// emitRightNullPadding is emitLeftNullPadding's mirror for right/full
// joins.
func (j *joinOp[K, A, B]) emitRightNullPadding(out *zset.MultiSet[zset.KV[K, zset.Pair2[*A, *B]]], touched []K, perKeyB map[K][]zset.Pair[B], oldLeft map[K]zset.MultiSet[A]) {
	for _, k := range touched {
		oldZero := totalMult(oldLeft[k]) == 0
		newZero := totalMult(j.leftIndex[k]) == 0

		switch {
		case oldZero && newZero:
			for _, db := range perKeyB[k] {
				v := db.Value
				out.Append(zset.KV[K, zset.Pair2[*A, *B]]{Key: k, Value: zset.Pair2[*A, *B]{First: nil, Second: &v}}, db.Mult)
			}
		case oldZero && !newZero:
			for _, p := range j.rightIndexSnapshotBefore(k, perKeyB) {
				v := p.Value
				out.Append(zset.KV[K, zset.Pair2[*A, *B]]{Key: k, Value: zset.Pair2[*A, *B]{First: nil, Second: &v}}, -p.Mult)
			}
		case !oldZero && newZero:
			for _, p := range j.rightIndex[k].Pairs() {
				v := p.Value
				out.Append(zset.KV[K, zset.Pair2[*A, *B]]{Key: k, Value: zset.Pair2[*A, *B]{First: nil, Second: &v}}, p.Mult)
			}
		}
	}
}

func (j *joinOp[K, A, B]) rightIndexSnapshotBefore(k K, perKeyB map[K][]zset.Pair[B]) []zset.Pair[B] {
	cur := j.rightIndex[k]
	deltas := perKeyB[k]
	if len(deltas) == 0 {
		return cur.Pairs()
	}
	var undone zset.MultiSet[B]
	undone.Extend(cur)
	for _, d := range deltas {
		undone.Append(d.Value, -d.Mult)
	}
	return undone.Consolidate().Pairs()
}

// Join registers a join operator of the given kind.
func Join[K comparable, A, B any](g *graph.Graph, left *graph.StreamReader[zset.KV[K, A]], right *graph.StreamReader[zset.KV[K, B]], kind JoinKind) (*graph.StreamWriter[zset.KV[K, zset.Pair2[*A, *B]]], error) {
	id, err := g.NextOperatorID()
	if err != nil {
		return nil, err
	}
	output, err := graph.NewInput[zset.KV[K, zset.Pair2[*A, *B]]](g)
	if err != nil {
		return nil, err
	}
	op := &joinOp[K, A, B]{BinaryBase: graph.NewBinaryBase(id, left, right, output), kind: kind}
	if err := g.AddOperator(op); err != nil {
		return nil, err
	}
	return output, nil
}
