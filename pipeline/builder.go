// Package pipeline implements the stream builder and pipe combinator
// sugar: a thin fluent wrapper around the operator factories in package
// operator, so pipelines read as a chain rather than as nested calls
// that all thread the same *graph.Graph by hand.
package pipeline

import (
	"github.com/Tangerg/ivm/graph"
	"github.com/Tangerg/ivm/zset"
)

// StreamBuilder wraps a writer and the graph it belongs to.
// ConnectReader allocates a fresh reader on the writer, the shape every
// operator factory in package operator expects as input.
type StreamBuilder[T any] struct {
	g      *graph.Graph
	writer *graph.StreamWriter[T]
}

// NewStreamBuilder wraps an existing writer. Operator factories that
// return a *graph.StreamWriter[U] (map, filter, join, ...) hand their
// result here to keep composing.
func NewStreamBuilder[T any](g *graph.Graph, w *graph.StreamWriter[T]) *StreamBuilder[T] {
	return &StreamBuilder[T]{g: g, writer: w}
}

// Graph returns the builder's graph.
func (b *StreamBuilder[T]) Graph() *graph.Graph { return b.g }

// Writer returns the builder's underlying writer.
func (b *StreamBuilder[T]) Writer() *graph.StreamWriter[T] { return b.writer }

// ConnectReader allocates a new reader on this builder's writer.
func (b *StreamBuilder[T]) ConnectReader() *graph.StreamReader[T] {
	return b.writer.NewReader()
}

// RootStreamBuilder is a StreamBuilder over a root input writer; it
// additionally exposes SendData as the graph's external ingress.
type RootStreamBuilder[T any] struct {
	StreamBuilder[T]
}

// NewRootStreamBuilder creates a root input stream and wraps it.
func NewRootStreamBuilder[T any](g *graph.Graph) (*RootStreamBuilder[T], error) {
	w, err := graph.NewInput[T](g)
	if err != nil {
		return nil, err
	}
	return &RootStreamBuilder[T]{StreamBuilder: StreamBuilder[T]{g: g, writer: w}}, nil
}

// SendData forwards m to the root writer.
func (b *RootStreamBuilder[T]) SendData(m zset.MultiSet[T]) {
	b.writer.SendData(m)
}

// SendPairs wraps raw pairs as a MultiSet without consolidating and
// sends it.
func (b *RootStreamBuilder[T]) SendPairs(pairs ...zset.Pair[T]) {
	b.writer.SendPairs(pairs...)
}

// operatorFactory is the shape every factory in package operator has:
// register a new operator wired to input, and return its output
// writer. Pipe and PipeN below are written directly against this shape
// so any existing or future operator factory composes with no adapter.
type operatorFactory[T, U any] func(*graph.Graph, *graph.StreamReader[T]) (*graph.StreamWriter[U], error)

// Pipe threads b through a single operator factory: it wires the
// factory's reader(s) to b's writer via ConnectReader, allocates an
// output writer, wraps it in a fresh StreamBuilder, and returns that.
func Pipe[T, U any](b *StreamBuilder[T], f operatorFactory[T, U]) (*StreamBuilder[U], error) {
	w, err := f(b.g, b.ConnectReader())
	if err != nil {
		return nil, err
	}
	return NewStreamBuilder(b.g, w), nil
}

// Pipe2 through Pipe5 thread b through a fixed sequence of operator
// factories, each of a potentially different output type. Go's
// generics have no way to express a variadic sequence of per-step
// differently-typed factories in one declaration, so arity is covered
// by a handful of explicit overloads rather than truly unbounded
// variadics; longer chains compose Pipe calls directly.

func Pipe2[T, U, V any](b *StreamBuilder[T], f1 operatorFactory[T, U], f2 operatorFactory[U, V]) (*StreamBuilder[V], error) {
	b1, err := Pipe(b, f1)
	if err != nil {
		return nil, err
	}
	return Pipe(b1, f2)
}

func Pipe3[T, U, V, W any](b *StreamBuilder[T], f1 operatorFactory[T, U], f2 operatorFactory[U, V], f3 operatorFactory[V, W]) (*StreamBuilder[W], error) {
	b2, err := Pipe2(b, f1, f2)
	if err != nil {
		return nil, err
	}
	return Pipe(b2, f3)
}

func Pipe4[T, U, V, W, X any](b *StreamBuilder[T], f1 operatorFactory[T, U], f2 operatorFactory[U, V], f3 operatorFactory[V, W], f4 operatorFactory[W, X]) (*StreamBuilder[X], error) {
	b3, err := Pipe3(b, f1, f2, f3)
	if err != nil {
		return nil, err
	}
	return Pipe(b3, f4)
}

func Pipe5[T, U, V, W, X, Y any](b *StreamBuilder[T], f1 operatorFactory[T, U], f2 operatorFactory[U, V], f3 operatorFactory[V, W], f4 operatorFactory[W, X], f5 operatorFactory[X, Y]) (*StreamBuilder[Y], error) {
	b4, err := Pipe4(b, f1, f2, f3, f4)
	if err != nil {
		return nil, err
	}
	return Pipe(b4, f5)
}
