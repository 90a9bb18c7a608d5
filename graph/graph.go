package graph

import "errors"

// Lifecycle errors, declared as sentinels so callers can errors.Is them.
var (
	// ErrFinalized is returned by operations that may only run before
	// finalisation (addOperator, newInput, nextOperatorId) once the
	// graph has been finalised.
	ErrFinalized = errors.New("graph: already finalized")
	// ErrNotFinalized is returned by Step/Run when called before the
	// graph has been finalised.
	ErrNotFinalized = errors.New("graph: not finalized")
	// ErrAlreadyFinalized is returned by a second call to Finalize.
	ErrAlreadyFinalized = errors.New("graph: finalize called twice")
)

// Graph is a bag of operators plus a bag of registered readers, a
// monotonic operator-id counter, and a finalized flag. After
// finalisation no operators or inputs may be added.
//
// Step advances every operator once; Run loops Step until the graph is
// quiescent.
type Graph struct {
	operators []Operator
	readers   []anyReader
	nextID    int
	finalized bool
	stepCount int64
}

// NewGraph returns an empty, unfinalised graph ready for operators and
// inputs to be added.
func NewGraph() *Graph {
	return &Graph{}
}

// NextOperatorID returns the next value of the monotone operator-id
// counter, consuming it. Fails once the graph is finalised.
func (g *Graph) NextOperatorID() (int, error) {
	if g.finalized {
		return 0, ErrFinalized
	}
	id := g.nextID
	g.nextID++
	return id, nil
}

// AddOperator registers op in the graph. Operators are stepped in
// registration order. Fails once the graph is finalised.
func (g *Graph) AddOperator(op Operator) error {
	if g.finalized {
		return ErrFinalized
	}
	g.operators = append(g.operators, op)
	return nil
}

func (g *Graph) addReader(r anyReader) {
	g.readers = append(g.readers, r)
}

// NewInput creates a root StreamWriter[T] and returns it. No reader is
// attached or registered yet: readers are added with
// StreamWriter.NewReader. This is the graph's external ingress: the
// caller calls SendData on the writer, then Run to drive the graph. The
// operator factories also use it to allocate their output writers.
// Fails once the graph is finalised.
func NewInput[T any](g *Graph) (*StreamWriter[T], error) {
	if g.finalized {
		return nil, ErrFinalized
	}
	w := newStreamWriter[T](g)
	return w, nil
}

// Finalize flips the finalized flag. It is idempotent-error: a second
// call returns ErrAlreadyFinalized.
func (g *Graph) Finalize() error {
	if g.finalized {
		return ErrAlreadyFinalized
	}
	g.finalized = true
	return nil
}

// Finalized reports whether Finalize has been called.
func (g *Graph) Finalized() bool {
	return g.finalized
}

// OperatorCount returns the number of registered operators, useful for
// startup logging in the engine bootstrap.
func (g *Graph) OperatorCount() int {
	return len(g.operators)
}

// Step invokes Run on every operator once, in registration order.
// Requires the graph to be finalised.
func (g *Graph) Step() error {
	if !g.finalized {
		return ErrNotFinalized
	}
	g.stepCount++
	for _, op := range g.operators {
		if err := op.Run(); err != nil {
			return err
		}
	}
	return nil
}

// StepCount returns the number of Step calls made so far, for metrics
// (package metrics).
func (g *Graph) StepCount() int64 {
	return g.stepCount
}

// PendingWork reports whether any operator still has work to do.
func (g *Graph) PendingWork() bool {
	for _, op := range g.operators {
		if op.HasPendingWork() {
			return true
		}
	}
	return false
}

// Run repeatedly calls Step while PendingWork is true, driving the
// graph to quiescence. Requires the graph to be finalised.
func (g *Graph) Run() error {
	if !g.finalized {
		return ErrNotFinalized
	}
	for g.PendingWork() {
		if err := g.Step(); err != nil {
			return err
		}
	}
	return nil
}
