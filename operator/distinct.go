package operator

import (
	"github.com/Tangerg/ivm/graph"
	"github.com/Tangerg/ivm/zset"
)

type distinctEntry[T any] struct {
	value T
	total int64
}

// distinctOp collapses multiplicities to sign(multiplicity): for every
// record r with total incoming multiplicity m, it outputs m>0 ⇒ +1,
// m<0 ⇒ -1, m=0 ⇒ absent. It maintains running multiplicities across
// steps to emit correct deltas, tracking the last-emitted sign per
// record.
type distinctOp[T any] struct {
	graph.UnaryBase[T, T]
	state map[string]*distinctEntry[T]
}

func sign(n int64) int64 {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	default:
		return 0
	}
}

func (d *distinctOp[T]) Run() error {
	if d.state == nil {
		d.state = make(map[string]*distinctEntry[T])
	}
	delta := d.Input.DrainConsolidated()
	if delta.IsEmpty() {
		return nil
	}

	var out zset.MultiSet[T]
	for _, p := range delta.Pairs() {
		k := zset.Key(p.Value)
		entry, ok := d.state[k]
		if !ok {
			entry = &distinctEntry[T]{value: p.Value}
			d.state[k] = entry
		}
		oldSign := sign(entry.total)
		entry.total += p.Mult
		entry.value = p.Value
		newSign := sign(entry.total)
		if oldSign == newSign {
			continue
		}
		if oldSign != 0 {
			out.Append(p.Value, -oldSign)
		}
		if newSign != 0 {
			out.Append(p.Value, newSign)
		}
	}
	emitTo(d.Output, out)
	return nil
}

// Distinct registers a distinct operator.
func Distinct[T any](g *graph.Graph, input *graph.StreamReader[T]) (*graph.StreamWriter[T], error) {
	id, err := g.NextOperatorID()
	if err != nil {
		return nil, err
	}
	output, err := graph.NewInput[T](g)
	if err != nil {
		return nil, err
	}
	op := &distinctOp[T]{UnaryBase: graph.NewUnaryBase(id, input, output)}
	if err := g.AddOperator(op); err != nil {
		return nil, err
	}
	return output, nil
}
