// Package ingest adapts external message brokers into root stream
// inputs: a Broker delivers bytes, a Codec decodes them into T, and a
// Source feeds the decoded values into a pipeline.RootStreamBuilder[T]
// as singleton insertions.
package ingest

// Record is a raw broker message payload paired with the ID its broker
// needs to acknowledge it.
type Record struct {
	Payload []byte
	ID      string
}
