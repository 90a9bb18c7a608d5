package ingest

import (
	"context"
	"io"
)

// Broker is a source and sink of raw Records. Produce/Consume/Ack are
// merged into one interface since every concrete broker here implements
// both halves.
type Broker interface {
	Produce(ctx context.Context, payloads ...[]byte) error
	Consume(ctx context.Context) (Record, error)
	Ack(ctx context.Context, id string) error
	io.Closer
}
