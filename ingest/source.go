package ingest

import (
	"context"
	"log/slog"

	"github.com/sourcegraph/conc/pool"

	"github.com/Tangerg/ivm/pipeline"
	"github.com/Tangerg/ivm/zset"
)

// Source pulls Records off a Broker, decodes them with a Codec, and
// feeds the decoded values into a root stream as singleton insertions.
type Source[T any] struct {
	broker    Broker
	codec     Codec
	root      *pipeline.RootStreamBuilder[T]
	onDecoded func(T)
}

// NewSource wires broker and codec to root. onDecoded, if non-nil, is
// called with every decoded value right after it is handed to the graph
// (e.g. to trigger g.Run() on a batching policy).
func NewSource[T any](broker Broker, codec Codec, root *pipeline.RootStreamBuilder[T], onDecoded func(T)) *Source[T] {
	if codec == nil {
		codec = JSONCodec{}
	}
	return &Source[T]{broker: broker, codec: codec, root: root, onDecoded: onDecoded}
}

// Run consumes from the broker until ctx is done, decoding each payload
// as T, sending it into the graph with multiplicity 1, and acking it. A
// decode failure is logged and the record is still acked so a poison
// message can't wedge the consumer loop forever.
func (s *Source[T]) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		rec, err := s.broker.Consume(ctx)
		if err != nil {
			return err
		}

		var v T
		if err := s.codec.Unmarshal(rec.Payload, &v); err != nil {
			slog.Error("ingest: decode failed", slog.String("err", err.Error()))
			if ackErr := s.broker.Ack(ctx, rec.ID); ackErr != nil {
				return ackErr
			}
			continue
		}

		s.root.SendPairs(zset.Pair[T]{Value: v, Mult: 1})
		if s.onDecoded != nil {
			s.onDecoded(v)
		}
		if err := s.broker.Ack(ctx, rec.ID); err != nil {
			return err
		}
	}
}

// RunConcurrent fans consumption and decoding out across n goroutines
// sharing the same broker, but funnels every decoded value through a
// single goroutine before it reaches the root writer. StreamWriter.SendData
// is not safe for concurrent callers — it appends to each reader's queue
// unguarded — so only the pure consume-and-decode work is parallelised;
// sends stay single-writer. n<=0 behaves as n=1.
func (s *Source[T]) RunConcurrent(ctx context.Context, n int) error {
	if n <= 0 {
		n = 1
	}

	type decoded struct {
		v  T
		id string
	}
	jobs := make(chan decoded)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := pool.New().WithContext(ctx).WithCancelOnError()
	for i := 0; i < n; i++ {
		p.Go(func(ctx context.Context) error {
			for {
				select {
				case <-ctx.Done():
					return nil
				default:
				}

				rec, err := s.broker.Consume(ctx)
				if err != nil {
					return err
				}

				var v T
				if err := s.codec.Unmarshal(rec.Payload, &v); err != nil {
					slog.Error("ingest: decode failed", slog.String("err", err.Error()))
					if ackErr := s.broker.Ack(ctx, rec.ID); ackErr != nil {
						return ackErr
					}
					continue
				}

				select {
				case jobs <- decoded{v: v, id: rec.ID}:
				case <-ctx.Done():
					return nil
				}
			}
		})
	}

	sendErr := make(chan error, 1)
	go func() {
		defer close(sendErr)
		for j := range jobs {
			s.root.SendPairs(zset.Pair[T]{Value: j.v, Mult: 1})
			if s.onDecoded != nil {
				s.onDecoded(j.v)
			}
			if err := s.broker.Ack(ctx, j.id); err != nil {
				// Unblock any decoder still parked on a jobs send, or
				// p.Wait below never returns.
				cancel()
				sendErr <- err
				return
			}
		}
	}()

	// p.Wait only returns once every decode goroutine has stopped
	// sending, so the channel can be closed without racing a blocked
	// send.
	poolErr := p.Wait()
	close(jobs)
	if err := <-sendErr; err != nil {
		return err
	}
	return poolErr
}
