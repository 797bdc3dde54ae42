package events

import (
	"context"
	"encoding/json"
	"time"

	"quartermaster-service/internal/service"

	"github.com/segmentio/kafka-go"
)

// KafkaBus publishes quartermaster events to a single topic, keyed by event
// type so consumers can route without decoding the payload.
type KafkaBus struct {
	writer *kafka.Writer
}

func NewKafkaBus(brokers []string, topic string) *KafkaBus {
	return &KafkaBus{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireAll,
		},
	}
}

type envelope struct {
	Type       string `json:"type"`
	OccurredAt string `json:"occurred_at"`
	Payload    any    `json:"payload"`
}

func (b *KafkaBus) publish(ctx context.Context, eventType string, payload any) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	value, err := json.Marshal(envelope{
		Type:       eventType,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
		Payload:    payload,
	})
	if err != nil {
		return err
	}
	return b.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(eventType),
		Value: value,
	})
}

func (b *KafkaBus) PublishRequestFulfilled(ctx context.Context, e service.RequestFulfilledEvent) error {
	return b.publish(ctx, "request.fulfilled", e)
}

func (b *KafkaBus) PublishPurchaseOrderReceived(ctx context.Context, e service.PurchaseOrderReceivedEvent) error {
	return b.publish(ctx, "purchase_order.received", e)
}

func (b *KafkaBus) PublishLowStock(ctx context.Context, e service.LowStockEvent) error {
	return b.publish(ctx, "inventory.low_stock", e)
}

func (b *KafkaBus) Close() error {
	return b.writer.Close()
}
