package kafka

import (
	"context"
	"fmt"

	"github.com/vladislavdragonenkov/orderdesk/internal/domain"
)

// OrderEventPublisher публикует события заказов в заданный Kafka topic.
type OrderEventPublisher struct {
	producer *Producer
	topic    string
}

// NewOrderEventPublisher создаёт паблишер событий заказов.
func NewOrderEventPublisher(producer *Producer, topic string) *OrderEventPublisher {
	if topic == "" {
		topic = TopicOrderEvents
	}
	return &OrderEventPublisher{
		producer: producer,
		topic:    topic,
	}
}

// Publish отправляет событие. sarama.SyncProducer не принимает контекст,
// поэтому ctx проверяется только перед отправкой.
func (p *OrderEventPublisher) Publish(ctx context.Context, event domain.OrderEvent) error {
	if p == nil || p.producer == nil {
		return fmt.Errorf("kafka order event publisher is not initialized")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := NewOrderEventMessage(event)
	return p.producer.PublishJSON(p.topic, msg.Key(), msg)
}

// NoopPublisher используется, когда Kafka не настроена.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, domain.OrderEvent) error { return nil }

var (
	_ domain.OrderEventPublisher = (*OrderEventPublisher)(nil)
	_ domain.OrderEventPublisher = NoopPublisher{}
)
