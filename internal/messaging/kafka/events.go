package kafka

import (
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/orderdesk/internal/domain"
)

// TopicOrderEvents - топик событий заказов по умолчанию.
const TopicOrderEvents = "orderdesk.order.events"

// OrderEventMessage - JSON-представление события заказа в Kafka.
type OrderEventMessage struct {
	EventID      string    `json:"event_id"`
	EventType    string    `json:"event_type"`
	OrderID      int64     `json:"order_id"`
	CustomerName string    `json:"customer_name"`
	ItemCount    int       `json:"item_count"`
	Total        int64     `json:"total"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// NewOrderEventMessage переводит доменное событие в сообщение с новым event_id.
func NewOrderEventMessage(event domain.OrderEvent) OrderEventMessage {
	return OrderEventMessage{
		EventID:      uuid.NewString(),
		EventType:    string(event.Type),
		OrderID:      event.OrderID,
		CustomerName: event.CustomerName,
		ItemCount:    event.ItemCount,
		Total:        event.Total,
		OccurredAt:   event.OccurredAt.UTC(),
	}
}

// Key - ключ партиционирования: все события заказа попадают в одну партицию.
func (m OrderEventMessage) Key() string {
	return strconv.FormatInt(m.OrderID, 10)
}
