package operator

import (
	"github.com/Tangerg/ivm/graph"
	"github.com/Tangerg/ivm/zset"
)

// consolidateOp accumulates all drained Z-sets in the step into one
// combined Z-set, then emits its consolidation if nonempty. It does not
// carry state across steps beyond what arrives in one Run.
type consolidateOp[T any] struct {
	graph.UnaryBase[T, T]
}

func (c *consolidateOp[T]) Run() error {
	var combined zset.MultiSet[T]
	for _, m := range c.Input.Drain() {
		combined.Extend(m)
	}
	emitTo(c.Output, combined.Consolidate())
	return nil
}

// Consolidate registers a consolidate operator.
func Consolidate[T any](g *graph.Graph, input *graph.StreamReader[T]) (*graph.StreamWriter[T], error) {
	id, err := g.NextOperatorID()
	if err != nil {
		return nil, err
	}
	output, err := graph.NewInput[T](g)
	if err != nil {
		return nil, err
	}
	op := &consolidateOp[T]{UnaryBase: graph.NewUnaryBase(id, input, output)}
	if err := g.AddOperator(op); err != nil {
		return nil, err
	}
	return output, nil
}
