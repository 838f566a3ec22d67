package events

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink forwards cart events to a kafka topic, one message per
// event, keyed by cart id. Delivery is best effort; a failed write is
// logged and never blocks the cart operation that produced the event.
type KafkaSink struct {
	writer  messageWriter
	timeout time.Duration
}

func NewKafkaSink(topic string, brokers ...string) *KafkaSink {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &KafkaSink{writer: w, timeout: 5 * time.Second}
}

// Handle is subscribed to the in-process bus.
func (s *KafkaSink) Handle(ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Printf("failed to marshal event %s: %v", ev.Topic, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	err = s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.CartID.String()),
		Value: payload,
	})
	if err != nil {
		log.Printf("failed to publish event %s to kafka: %v", ev.Topic, err)
	}
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
