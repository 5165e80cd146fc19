package events

import (
	"context"
	"strconv"

	"market-settlement/internal/models"

	"github.com/segmentio/kafka-go"
)

// KafkaPublisher relays outbox events to Kafka, one topic per event type
type KafkaPublisher struct {
	Writer *kafka.Writer
	Prefix string
}

// NewWriter builds a writer without a fixed topic; each message names its own
func NewWriter(brokers ...string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
}

func NewKafkaPublisher(w *kafka.Writer, prefix string) *KafkaPublisher {
	return &KafkaPublisher{Writer: w, Prefix: prefix}
}

// Publish writes events in order. Messages are keyed by market id so every
// event of one market lands on the same partition.
func (p *KafkaPublisher) Publish(ctx context.Context, batch []*models.SettlementEvent) error {
	if len(batch) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(batch))
	for _, e := range batch {
		msgs = append(msgs, kafka.Message{
			Topic: Topic(p.Prefix, e.EventType),
			Key:   []byte(strconv.FormatUint(e.MarketID, 10)),
			Value: e.Payload,
			Headers: []kafka.Header{
				{Key: "event_id", Value: []byte(e.ID.String())},
				{Key: "event_type", Value: []byte(e.EventType)},
				{Key: "sequence", Value: []byte(strconv.FormatUint(e.Sequence, 10))},
			},
			Time: e.CreatedAt,
		})
	}
	return p.Writer.WriteMessages(ctx, msgs...)
}

// Close flushes and closes the underlying writer
func (p *KafkaPublisher) Close() error {
	return p.Writer.Close()
}
