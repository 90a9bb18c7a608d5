// Package graph implements the dataflow graph layer: the Graph
// container, StreamWriter/StreamReader producer/consumer endpoints, and
// the Operator base contract operators implement.
package graph

import "github.com/Tangerg/ivm/zset"

// StreamWriter is a producer endpoint. It owns an ordered list of
// reader queues; SendData enqueues onto every reader's queue in order,
// and NewReader allocates a fresh reader attached to this writer.
// Fan-out is by broadcast: every reader of a writer observes every
// Z-set the writer emits, in the same order.
type StreamWriter[T any] struct {
	g       *Graph
	readers []*StreamReader[T]
}

func newStreamWriter[T any](g *Graph) *StreamWriter[T] {
	return &StreamWriter[T]{g: g}
}

// SendData enqueues m onto every current reader's queue.
func (w *StreamWriter[T]) SendData(m zset.MultiSet[T]) {
	for _, r := range w.readers {
		r.enqueue(m)
	}
}

// SendPairs wraps raw pairs as a MultiSet without consolidating and
// sends it.
func (w *StreamWriter[T]) SendPairs(pairs ...zset.Pair[T]) {
	w.SendData(zset.New(pairs...))
}

// NewReader creates, registers, and returns a fresh reader linked to
// this writer.
func (w *StreamWriter[T]) NewReader() *StreamReader[T] {
	r := &StreamReader[T]{}
	w.readers = append(w.readers, r)
	w.g.addReader(r)
	return r
}

// StreamReader is a consumer endpoint: a queue of pending Z-sets.
// Drain returns and empties the queue; IsEmpty reports whether more
// input is pending.
type StreamReader[T any] struct {
	queue []zset.MultiSet[T]
}

func (r *StreamReader[T]) enqueue(m zset.MultiSet[T]) {
	r.queue = append(r.queue, m)
}

// Drain returns the pending queue as an ordered slice of Z-sets and
// replaces the internal queue with an empty one.
func (r *StreamReader[T]) Drain() []zset.MultiSet[T] {
	out := r.queue
	r.queue = nil
	return out
}

// IsEmpty reports whether the reader's queue is empty.
func (r *StreamReader[T]) IsEmpty() bool {
	return len(r.queue) == 0
}

// QueueLen reports the number of pending Z-sets, for queue-depth metrics
// (package metrics).
func (r *StreamReader[T]) QueueLen() int {
	return len(r.queue)
}

// DrainConsolidated drains the queue and returns the concatenation of
// every pending Z-set, consolidated. Several operators (join, groupBy,
// distinct, ...) need exactly this.
func (r *StreamReader[T]) DrainConsolidated() zset.MultiSet[T] {
	pending := r.Drain()
	var combined zset.MultiSet[T]
	for _, m := range pending {
		combined.Extend(m)
	}
	return combined.Consolidate()
}
