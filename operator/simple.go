// Package operator implements the engine's concrete dataflow operators:
// map, filter, negate, concat, consolidate, distinct, output, the keyed
// operators (keyBy, unkey, rekey, count), groupBy/reduce, join,
// filterBy, and the three top-K flavours.
//
// Each factory registers an operator with a graph.Graph, wires its
// reader(s) to the input builder's writer, and returns a new output
// writer — the mechanics a caller normally reaches through package
// pipeline rather than directly.
package operator

import (
	"github.com/Tangerg/ivm/graph"
	"github.com/Tangerg/ivm/zset"
)

// mapOp applies f to every record of each input Z-set, preserving
// multiplicities.
type mapOp[T, U any] struct {
	graph.UnaryBase[T, U]
	f func(T) (U, error)
}

func (m *mapOp[T, U]) Run() error {
	for _, in := range m.Input.Drain() {
		out := zset.MultiSet[U]{}
		for _, p := range in.Pairs() {
			v, err := m.f(p.Value)
			if err != nil {
				return err
			}
			out.Append(v, p.Mult)
		}
		emitTo(m.Output, out)
	}
	return nil
}

// Map registers a map operator: (U) = f(T) per record, multiplicities
// preserved.
func Map[T, U any](g *graph.Graph, input *graph.StreamReader[T], f func(T) (U, error)) (*graph.StreamWriter[U], error) {
	id, err := g.NextOperatorID()
	if err != nil {
		return nil, err
	}
	output, err := graph.NewInput[U](g)
	if err != nil {
		return nil, err
	}
	op := &mapOp[T, U]{UnaryBase: graph.NewUnaryBase(id, input, output), f: f}
	if err := g.AddOperator(op); err != nil {
		return nil, err
	}
	return output, nil
}

// filterOp keeps only the records of each input Z-set for which p holds.
type filterOp[T any] struct {
	graph.UnaryBase[T, T]
	p func(T) (bool, error)
}

func (f *filterOp[T]) Run() error {
	for _, in := range f.Input.Drain() {
		out := zset.MultiSet[T]{}
		for _, p := range in.Pairs() {
			keep, err := f.p(p.Value)
			if err != nil {
				return err
			}
			if keep {
				out.Append(p.Value, p.Mult)
			}
		}
		emitTo(f.Output, out)
	}
	return nil
}

// Filter registers a filter operator: keep only records for which p
// holds, multiplicities preserved.
func Filter[T any](g *graph.Graph, input *graph.StreamReader[T], p func(T) (bool, error)) (*graph.StreamWriter[T], error) {
	id, err := g.NextOperatorID()
	if err != nil {
		return nil, err
	}
	output, err := graph.NewInput[T](g)
	if err != nil {
		return nil, err
	}
	op := &filterOp[T]{UnaryBase: graph.NewUnaryBase(id, input, output), p: p}
	if err := g.AddOperator(op); err != nil {
		return nil, err
	}
	return output, nil
}

// negateOp flips the multiplicity of every record in each input Z-set.
type negateOp[T any] struct {
	graph.UnaryBase[T, T]
}

func (n *negateOp[T]) Run() error {
	for _, in := range n.Input.Drain() {
		emitTo(n.Output, in.Negate())
	}
	return nil
}

// Negate registers a negate operator: flip every multiplicity.
func Negate[T any](g *graph.Graph, input *graph.StreamReader[T]) (*graph.StreamWriter[T], error) {
	id, err := g.NextOperatorID()
	if err != nil {
		return nil, err
	}
	output, err := graph.NewInput[T](g)
	if err != nil {
		return nil, err
	}
	op := &negateOp[T]{UnaryBase: graph.NewUnaryBase(id, input, output)}
	if err := g.AddOperator(op); err != nil {
		return nil, err
	}
	return output, nil
}

// outputOp passes each input Z-set to a user-supplied sink callback and
// emits nothing downstream. Intended as a pipeline terminator for
// sampling or sinking results.
type outputOp[T any] struct {
	id    int
	input *graph.StreamReader[T]
	sink  func(zset.MultiSet[T]) error
}

func (o *outputOp[T]) ID() int { return o.id }

func (o *outputOp[T]) Run() error {
	for _, in := range o.input.Drain() {
		if err := o.sink(in); err != nil {
			return err
		}
	}
	return nil
}

func (o *outputOp[T]) HasPendingWork() bool {
	return !o.input.IsEmpty()
}

// Output registers a terminal sink operator: every upstream Z-set is
// passed, in emission order, to sink.
func Output[T any](g *graph.Graph, input *graph.StreamReader[T], sink func(zset.MultiSet[T]) error) error {
	id, err := g.NextOperatorID()
	if err != nil {
		return err
	}
	op := &outputOp[T]{id: id, input: input, sink: sink}
	return g.AddOperator(op)
}

// emitTo sends m downstream only if it carries at least one pair.
func emitTo[T any](w *graph.StreamWriter[T], m zset.MultiSet[T]) {
	if !m.IsEmpty() {
		w.SendData(m)
	}
}
