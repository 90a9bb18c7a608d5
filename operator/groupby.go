package operator

import (
	"github.com/spf13/cast"

	"github.com/Tangerg/ivm/graph"
	"github.com/Tangerg/ivm/zset"
)

// AggKind enumerates the built-in groupBy aggregate kinds: sum, count,
// avg, min, max.
type AggKind int

const (
	AggSum AggKind = iota
	AggCount
	AggAvg
	AggMin
	AggMax
)

// AggregateSpec names one column of a groupBy's output row. Extract is
// unused for AggCount. Extract returns `any` because the underlying
// record field may arrive as an int, float64, json.Number, etc.; the
// aggregate engine coerces it with spf13/cast.
type AggregateSpec[V any] struct {
	Kind    AggKind
	Extract func(V) (any, error)
}

// Sum builds a sum(extract) aggregate spec.
func Sum[V any](extract func(V) (any, error)) AggregateSpec[V] {
	return AggregateSpec[V]{Kind: AggSum, Extract: extract}
}

// CountAgg builds a count() aggregate spec.
func CountAgg[V any]() AggregateSpec[V] {
	return AggregateSpec[V]{Kind: AggCount}
}

// Avg builds an avg(extract) aggregate spec.
func Avg[V any](extract func(V) (any, error)) AggregateSpec[V] {
	return AggregateSpec[V]{Kind: AggAvg, Extract: extract}
}

// Min builds a min(extract) aggregate spec.
func Min[V any](extract func(V) (any, error)) AggregateSpec[V] {
	return AggregateSpec[V]{Kind: AggMin, Extract: extract}
}

// Max builds a max(extract) aggregate spec.
func Max[V any](extract func(V) (any, error)) AggregateSpec[V] {
	return AggregateSpec[V]{Kind: AggMax, Extract: extract}
}

// Row is a groupBy output row: one float64 (or nil for avg/min/max over
// an empty group) per aggregate alias. avg/min/max of an empty group is
// null; sum/count of an empty group is 0.
type Row map[string]*float64

func f(v float64) *float64 { return &v }

// computeRow recomputes every aggregate in specs from the group's full
// consolidated multiset of V, only considering records whose
// consolidated multiplicity is positive: once a record's multiplicity
// is consolidated to zero or negative it no longer contributes a
// present value to min/max.
func computeRow[V any](specs map[string]AggregateSpec[V], group zset.MultiSet[V]) (Row, error) {
	row := make(Row, len(specs))
	for alias, spec := range specs {
		switch spec.Kind {
		case AggCount:
			var count int64
			for _, p := range group.Pairs() {
				if p.Mult > 0 {
					count += p.Mult
				}
			}
			row[alias] = f(float64(count))

		case AggSum:
			var sum float64
			for _, p := range group.Pairs() {
				if p.Mult <= 0 {
					continue
				}
				raw, err := spec.Extract(p.Value)
				if err != nil {
					return nil, err
				}
				n, err := cast.ToFloat64E(raw)
				if err != nil {
					return nil, err
				}
				sum += n * float64(p.Mult)
			}
			row[alias] = f(sum)

		case AggAvg:
			var sum float64
			var count int64
			for _, p := range group.Pairs() {
				if p.Mult <= 0 {
					continue
				}
				raw, err := spec.Extract(p.Value)
				if err != nil {
					return nil, err
				}
				n, err := cast.ToFloat64E(raw)
				if err != nil {
					return nil, err
				}
				sum += n * float64(p.Mult)
				count += p.Mult
			}
			if count == 0 {
				row[alias] = nil
			} else {
				row[alias] = f(sum / float64(count))
			}

		case AggMin, AggMax:
			var best *float64
			for _, p := range group.Pairs() {
				if p.Mult <= 0 {
					continue
				}
				raw, err := spec.Extract(p.Value)
				if err != nil {
					return nil, err
				}
				n, err := cast.ToFloat64E(raw)
				if err != nil {
					return nil, err
				}
				if best == nil || (spec.Kind == AggMin && n < *best) || (spec.Kind == AggMax && n > *best) {
					v := n
					best = &v
				}
			}
			row[alias] = best
		}
	}
	return row, nil
}

// GroupBy registers a groupBy operator: partitions the raw input stream
// by keyFn, maintains one materialised aggregate Row per key, and emits
// (K, old_row)@-1 / (K, new_row)@+1 for every key touched by a delta,
// suppressing emission when the recomputed row is unchanged. GroupBy is
// sugar over KeyBy followed by Reduce with a built-in reducer that runs
// every named aggregate in aggs.
func GroupBy[K comparable, V any](g *graph.Graph, input *graph.StreamReader[V], keyFn func(V) (K, error), aggs map[string]AggregateSpec[V]) (*graph.StreamWriter[zset.KV[K, Row]], error) {
	keyed, err := KeyBy(g, input, keyFn)
	if err != nil {
		return nil, err
	}
	return Reduce(g, keyed.NewReader(), func(_ K, group zset.MultiSet[V]) (Row, error) {
		return computeRow(aggs, group)
	})
}
