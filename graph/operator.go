package graph

import "github.com/Tangerg/ivm/zset"

// Operator is the contract every dataflow node implements. The graph
// calls Run repeatedly; an operator must tolerate Run being invoked
// with no new input (it should then produce no output) and must be
// re-entrant across steps, carrying whatever indexed state it needs
// between calls.
type Operator interface {
	// ID is the operator's graph-assigned identifier.
	ID() int
	// Run consumes pending input from the operator's reader(s) and
	// pushes any resulting delta to its writer. An error returned by a
	// user callback (map/filter predicate, extractor, reducer, ...)
	// propagates out of Run synchronously, abandoning the in-flight
	// step; the graph is left in an unspecified but inspectable state
	// and should be discarded.
	Run() error
	// HasPendingWork reports whether this operator still has input to
	// consume, or defers emission across steps. The operators in package
	// operator do not defer: each emits within the Run that drains its
	// input.
	HasPendingWork() bool
}

// anyReader is the type-erased view of a StreamReader the Graph keeps
// in its reader registry.
type anyReader interface {
	IsEmpty() bool
}

// UnaryBase is the embeddable base for operators with exactly one input
// reader and one output writer.
type UnaryBase[T, U any] struct {
	id     int
	Input  *StreamReader[T]
	Output *StreamWriter[U]
}

// NewUnaryBase constructs a UnaryBase. Concrete unary operators (in
// package operator) embed this to get ID/HasPendingWork for free.
func NewUnaryBase[T, U any](id int, input *StreamReader[T], output *StreamWriter[U]) UnaryBase[T, U] {
	return UnaryBase[T, U]{id: id, Input: input, Output: output}
}

// ID implements Operator.
func (b *UnaryBase[T, U]) ID() int { return b.id }

// HasPendingWork reports true iff the input reader is non-empty.
func (b *UnaryBase[T, U]) HasPendingWork() bool {
	return !b.Input.IsEmpty()
}

// BinaryBase is the embeddable base for operators with two input
// readers and one output writer.
type BinaryBase[T, U, V any] struct {
	id     int
	Left   *StreamReader[T]
	Right  *StreamReader[U]
	Output *StreamWriter[V]
}

// NewBinaryBase constructs a BinaryBase. Concrete binary operators (in
// package operator) embed this to get ID/HasPendingWork for free.
func NewBinaryBase[T, U, V any](id int, left *StreamReader[T], right *StreamReader[U], output *StreamWriter[V]) BinaryBase[T, U, V] {
	return BinaryBase[T, U, V]{id: id, Left: left, Right: right, Output: output}
}

// ID implements Operator.
func (b *BinaryBase[T, U, V]) ID() int { return b.id }

// HasPendingWork reports true iff either input reader is non-empty.
func (b *BinaryBase[T, U, V]) HasPendingWork() bool {
	return !b.Left.IsEmpty() || !b.Right.IsEmpty()
}

// emit is a small helper shared by unary operators: send m downstream
// only if it carries at least one pair, since an empty delta is not
// worth a queue entry.
func emit[T any](w *StreamWriter[T], m zset.MultiSet[T]) {
	if !m.IsEmpty() {
		w.SendData(m)
	}
}
