package ingest

import (
	"context"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaConfig configures a Kafka broker, including a consumer group so
// Kafka retains offsets for Ack.
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	GroupID      string
	WriteTimeout time.Duration
	ReadTimeout  time.Duration
}

// Kafka is a Broker backed by segmentio/kafka-go's Reader/Writer pair,
// kept separate so producing and consuming don't contend on the same
// connection.
type Kafka struct {
	conf   KafkaConfig
	writer *kafka.Writer
	reader *kafka.Reader
}

// NewKafka dials a writer and a consumer-group reader for conf.
func NewKafka(conf KafkaConfig) *Kafka {
	return &Kafka{
		conf: conf,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(conf.Brokers...),
			Topic:        conf.Topic,
			Balancer:     &kafka.LeastBytes{},
			WriteTimeout: conf.WriteTimeout,
		},
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  conf.Brokers,
			Topic:    conf.Topic,
			GroupID:  conf.GroupID,
			MinBytes: 1,
			MaxBytes: 10e6,
			MaxWait:  conf.ReadTimeout,
		}),
	}
}

func (k *Kafka) Produce(ctx context.Context, payloads ...[]byte) error {
	msgs := make([]kafka.Message, len(payloads))
	for i, p := range payloads {
		msgs[i] = kafka.Message{Value: p}
	}
	return k.writer.WriteMessages(ctx, msgs...)
}

// Consume reads the next message and encodes its offset as the Record
// ID, the coordinate Ack needs to commit it.
func (k *Kafka) Consume(ctx context.Context) (Record, error) {
	m, err := k.reader.FetchMessage(ctx)
	if err != nil {
		return Record{}, err
	}
	return Record{Payload: m.Value, ID: strconv.FormatInt(m.Offset, 10)}, nil
}

func (k *Kafka) Ack(ctx context.Context, id string) error {
	offset, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return err
	}
	return k.reader.CommitMessages(ctx, kafka.Message{Offset: offset})
}

func (k *Kafka) Close() error {
	werr := k.writer.Close()
	rerr := k.reader.Close()
	if werr != nil {
		return werr
	}
	return rerr
}
