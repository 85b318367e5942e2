package domain

import (
	"context"
	"time"
)

// ReceiptPrinter - устройство, принимающее готовый поток байт чека.
type ReceiptPrinter interface {
	// Write передаёт байты целиком. Повторов нет, ошибка уходит вызывающему.
	Write(ctx context.Context, data []byte) error
	// Path возвращает путь к устройству.
	Path() string
}

// OrderEventType задаёт тип события жизненного цикла заказа.
type OrderEventType string

const (
	OrderEventCreated OrderEventType = "order.created"
	OrderEventUpdated OrderEventType = "order.updated"
	OrderEventDeleted OrderEventType = "order.deleted"
	OrderEventPrinted OrderEventType = "order.printed"
)

// OrderEvent - событие для внешних подписчиков.
type OrderEvent struct {
	Type         OrderEventType
	OrderID      int64
	CustomerName string
	ItemCount    int
	Total        int64
	OccurredAt   time.Time
}

// NewOrderEvent собирает событие по текущему состоянию заказа.
func NewOrderEvent(eventType OrderEventType, order Order, at time.Time) OrderEvent {
	return OrderEvent{
		Type:         eventType,
		OrderID:      order.ID,
		CustomerName: order.CustomerName,
		ItemCount:    len(order.Items),
		Total:        OrderTotal(order.Items),
		OccurredAt:   at,
	}
}

// OrderEventPublisher публикует события заказов наружу.
type OrderEventPublisher interface {
	Publish(ctx context.Context, event OrderEvent) error
}
