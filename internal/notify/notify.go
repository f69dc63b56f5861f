package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// Event kinds emitted by the payment reconciliation.
const (
	EventOrderPaid     = "order.paid"
	EventPaymentFailed = "payment.failed"
)

// Event is a fire-and-forget notification record. Delivery owns retries and
// fan-out; this core only emits.
type Event struct {
	Kind       string    `json:"kind"`
	OrderID    uuid.UUID `json:"orderId"`
	Amount     int64     `json:"amount"`
	RefID      string    `json:"refId,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Notifier emits events to the notification collaborator.
type Notifier interface {
	// Emit queues the event. It never blocks the caller on broker I/O and
	// never returns an error: a lost notification must not fail a payment.
	Emit(event Event)

	// Close flushes queued events and releases the producer.
	Close()
}

// kafkaNotifier publishes events through an async writer fed by a buffered
// inbox channel, so payment paths never wait on the broker.
type kafkaNotifier struct {
	writer *kafka.Writer
	inbox  chan kafka.Message
	done   chan struct{}
	logger zerolog.Logger
}

// NewKafka creates a Kafka-backed notifier and starts its publish loop.
func NewKafka(brokers []string, topic string, logger zerolog.Logger) Notifier {
	n := &kafkaNotifier{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
		inbox:  make(chan kafka.Message, 256),
		done:   make(chan struct{}),
		logger: logger.With().Str("component", "notify").Logger(),
	}

	go n.loop()

	return n
}

func (n *kafkaNotifier) loop() {
	defer close(n.done)

	for msg := range n.inbox {
		if err := n.writer.WriteMessages(context.Background(), msg); err != nil {
			n.logger.Warn().Err(err).Str("key", string(msg.Key)).Msg("failed to publish notification event")
		}
	}

	if err := n.writer.Close(); err != nil {
		n.logger.Warn().Err(err).Msg("failed to close kafka writer")
	}
}

// Emit queues the event, dropping it if the inbox is full.
func (n *kafkaNotifier) Emit(event Event) {
	value, err := json.Marshal(event)
	if err != nil {
		n.logger.Error().Err(err).Str("kind", event.Kind).Msg("failed to marshal notification event")
		return
	}

	msg := kafka.Message{
		Key:   []byte(event.OrderID.String()),
		Value: value,
		Time:  event.OccurredAt,
	}

	select {
	case n.inbox <- msg:
	default:
		n.logger.Warn().Str("kind", event.Kind).Msg("notification inbox full, dropping event")
	}
}

// Close flushes queued events and releases the producer.
func (n *kafkaNotifier) Close() {
	close(n.inbox)
	<-n.done
}

// Nop returns a notifier that discards all events, for tests and for
// running without a broker.
func Nop() Notifier {
	return nopNotifier{}
}

type nopNotifier struct{}

func (nopNotifier) Emit(Event) {}
func (nopNotifier) Close()     {}
