package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
)

// Kafka publishes events as JSON messages keyed by their subject, so that
// all events about one record land on the same partition.
type Kafka struct {
	w *kafka.Writer
}

// NewKafka returns a Kafka publisher writing to topic on the given brokers.
func NewKafka(brokers []string, topic string) *Kafka {
	return &Kafka{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 50 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
			Async:        true,
		},
	}
}

func (k *Kafka) Publish(ctx context.Context, e Event) error {
	value, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return k.w.WriteMessages(ctx, message(e, value))
}

func (k *Kafka) Close() error { return k.w.Close() }

func message(e Event, value []byte) kafka.Message {
	return kafka.Message{
		Key:   []byte(e.SubjectID),
		Value: value,
		Time:  e.At,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(e.Type)},
		},
	}
}
