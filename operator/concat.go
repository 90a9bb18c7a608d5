package operator

import (
	"github.com/Tangerg/ivm/graph"
	"github.com/Tangerg/ivm/zset"
)

// concatOp emits, for each step, the concatenation of the two drained
// inputs (or just one side if the other is empty this step). The two
// sides need no independent processing, only concatenation, so unlike
// a fan-out operator concat runs both drains synchronously in one Run.
type concatOp[T any] struct {
	graph.BinaryBase[T, T, T]
}

func (c *concatOp[T]) Run() error {
	left := c.Left.Drain()
	right := c.Right.Drain()
	var combined zset.MultiSet[T]
	for _, m := range left {
		combined.Extend(m)
	}
	for _, m := range right {
		combined.Extend(m)
	}
	emitTo(c.Output, combined)
	return nil
}

// Concat registers a binary concat operator: the physical union of two
// keyed-or-unkeyed streams of the same type, with no consolidation.
func Concat[T any](g *graph.Graph, left, right *graph.StreamReader[T]) (*graph.StreamWriter[T], error) {
	id, err := g.NextOperatorID()
	if err != nil {
		return nil, err
	}
	output, err := graph.NewInput[T](g)
	if err != nil {
		return nil, err
	}
	op := &concatOp[T]{BinaryBase: graph.NewBinaryBase(id, left, right, output)}
	if err := g.AddOperator(op); err != nil {
		return nil, err
	}
	return output, nil
}
