package ingest

import (
	"context"
	"sync"

	"github.com/apache/pulsar-client-go/pulsar"
)

// PulsarConfig configures a Pulsar broker.
type PulsarConfig struct {
	URL              string
	Topic            string
	SubscriptionName string
}

// Pulsar is a Broker backed by apache/pulsar-client-go, adapted to the
// flattened Record/string-id shape of this package.
type Pulsar struct {
	mu       sync.Mutex
	client   pulsar.Client
	producer pulsar.Producer
	consumer pulsar.Consumer
	pending  map[string]pulsar.MessageID
}

// NewPulsar dials conf's client and opens a producer+consumer pair on
// its topic. This Broker serves a single topic, so there is no
// per-topic producer map to manage.
func NewPulsar(conf PulsarConfig) (*Pulsar, error) {
	client, err := pulsar.NewClient(pulsar.ClientOptions{URL: conf.URL})
	if err != nil {
		return nil, err
	}
	producer, err := client.CreateProducer(pulsar.ProducerOptions{Topic: conf.Topic})
	if err != nil {
		client.Close()
		return nil, err
	}
	consumer, err := client.Subscribe(pulsar.ConsumerOptions{
		Topic:            conf.Topic,
		SubscriptionName: conf.SubscriptionName,
	})
	if err != nil {
		producer.Close()
		client.Close()
		return nil, err
	}
	return &Pulsar{
		client:   client,
		producer: producer,
		consumer: consumer,
		pending:  make(map[string]pulsar.MessageID),
	}, nil
}

func (p *Pulsar) Produce(ctx context.Context, payloads ...[]byte) error {
	for _, payload := range payloads {
		if _, err := p.producer.Send(ctx, &pulsar.ProducerMessage{Payload: payload}); err != nil {
			return err
		}
	}
	return nil
}

// Consume receives the next message and stashes its MessageID under a
// string key so Ack can find it: Record.ID is a plain string, so the
// MessageID itself lives in a side table keyed by that string.
func (p *Pulsar) Consume(ctx context.Context) (Record, error) {
	msg, err := p.consumer.Receive(ctx)
	if err != nil {
		return Record{}, err
	}
	id := msg.ID().String()
	p.mu.Lock()
	p.pending[id] = msg.ID()
	p.mu.Unlock()
	return Record{Payload: msg.Payload(), ID: id}, nil
}

func (p *Pulsar) Ack(ctx context.Context, id string) error {
	p.mu.Lock()
	mid, ok := p.pending[id]
	delete(p.pending, id)
	p.mu.Unlock()
	if !ok {
		return nil
	}
	return p.consumer.AckID(mid)
}

func (p *Pulsar) Close() error {
	p.consumer.Close()
	p.producer.Close()
	p.client.Close()
	return nil
}
