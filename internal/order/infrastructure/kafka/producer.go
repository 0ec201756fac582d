package kafka

import (
	"time"

	"github.com/segmentio/kafka-go"
)

// NewWriter builds the producer used by the outbox relay. Messages carry their own
// topic and are hashed by key so all events of one order stay in partition order.
func NewWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		BatchTimeout:           20 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
}
