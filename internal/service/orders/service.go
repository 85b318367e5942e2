// Package orders реализует операции над заказом: создание, обновление с заменой позиций,
// удаление, чтение и печать чека.
package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orderdesk/internal/domain"
	"github.com/vladislavdragonenkov/orderdesk/internal/metrics"
)

const (
	opCreate  = "create"
	opUpdate  = "update"
	opDelete  = "delete"
	opGet     = "get"
	opList    = "list"
	opPrint   = "print"
	opReceipt = "receipt"
)

// PriceResolver фиксирует цены позиций до сохранения.
type PriceResolver interface {
	Resolve(ctx context.Context, inputs []domain.ItemInput) ([]domain.LineItem, error)
}

// ReceiptEncoder превращает заказ в поток байт для принтера.
type ReceiptEncoder interface {
	Encode(order domain.Order) []byte
}

// Deps - зависимости сервиса. Events и Metrics можно не задавать.
type Deps struct {
	Repo    domain.OrderRepository
	Prices  PriceResolver
	Encoder ReceiptEncoder
	Printer domain.ReceiptPrinter
	Events  domain.OrderEventPublisher
	Metrics *metrics.OrderMetrics
	Logger  *log.Entry
	Clock   func() time.Time
}

// Service - агрегат заказа.
type Service struct {
	repo    domain.OrderRepository
	prices  PriceResolver
	encoder ReceiptEncoder
	printer domain.ReceiptPrinter
	events  domain.OrderEventPublisher
	metrics *metrics.OrderMetrics
	logger  *log.Entry
	now     func() time.Time
}

// PrintResult - итог успешной печати.
type PrintResult struct {
	Printed    bool
	DevicePath string
	OrderID    int64
}

// NewService конструирует сервис с зависимостями.
func NewService(deps Deps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = log.WithField("component", "orders")
	}
	clock := deps.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &Service{
		repo:    deps.Repo,
		prices:  deps.Prices,
		encoder: deps.Encoder,
		printer: deps.Printer,
		events:  deps.Events,
		metrics: deps.Metrics,
		logger:  logger,
		now:     clock,
	}
}

// Create проверяет ввод, фиксирует цены и сохраняет заказ вместе с позициями.
func (s *Service) Create(ctx context.Context, in domain.CreateOrderInput) (order domain.Order, err error) {
	defer func() { s.metrics.RecordOperation(opCreate, resultOf(err)) }()

	if err := in.Validate(); err != nil {
		return domain.Order{}, err
	}

	items, err := s.prices.Resolve(ctx, in.Items)
	if err != nil {
		return domain.Order{}, fmt.Errorf("resolve prices: %w", err)
	}

	now := s.now()
	id, err := s.repo.Create(ctx, domain.Order{
		CustomerName: in.Header.CustomerName,
		PickupDate:   in.Header.PickupDate,
		Notes:        in.Header.Notes,
		CreatedAt:    now,
		UpdatedAt:    now,
		Items:        items,
	})
	if err != nil {
		return domain.Order{}, fmt.Errorf("create order: %w", err)
	}

	order, err = s.repo.Get(ctx, id)
	if err != nil {
		return domain.Order{}, fmt.Errorf("reload order %d: %w", id, err)
	}

	s.logger.WithFields(log.Fields{
		"order_id": id,
		"items":    len(order.Items),
	}).Info("order created")
	s.publish(ctx, domain.OrderEventCreated, order)
	return order, nil
}

// Update применяет патч заголовка и, если переданы позиции, заменяет их целиком.
// Цены определяются до начала транзакции хранилища.
func (s *Service) Update(ctx context.Context, id int64, in domain.UpdateOrderInput) (order domain.Order, err error) {
	defer func() { s.metrics.RecordOperation(opUpdate, resultOf(err)) }()

	if err := checkID(id); err != nil {
		return domain.Order{}, err
	}
	if err := in.Validate(); err != nil {
		return domain.Order{}, err
	}

	update := domain.OrderUpdate{
		Header:       in.Header,
		ReplaceItems: in.ReplacesItems(),
		UpdatedAt:    s.now(),
	}
	if update.ReplaceItems {
		update.Items, err = s.prices.Resolve(ctx, in.Items)
		if err != nil {
			return domain.Order{}, fmt.Errorf("resolve prices: %w", err)
		}
	}

	if err := s.repo.Update(ctx, id, update); err != nil {
		return domain.Order{}, fmt.Errorf("update order %d: %w", id, err)
	}
	if update.ReplaceItems {
		s.metrics.RecordItemsReplaced()
	}

	order, err = s.repo.Get(ctx, id)
	if err != nil {
		return domain.Order{}, fmt.Errorf("reload order %d: %w", id, err)
	}

	s.logger.WithFields(log.Fields{
		"order_id":       id,
		"items_replaced": update.ReplaceItems,
	}).Info("order updated")
	s.publish(ctx, domain.OrderEventUpdated, order)
	return order, nil
}

// Delete удаляет заказ с позициями и возвращает удалённый заголовок.
func (s *Service) Delete(ctx context.Context, id int64) (header domain.Order, err error) {
	defer func() { s.metrics.RecordOperation(opDelete, resultOf(err)) }()

	if err := checkID(id); err != nil {
		return domain.Order{}, err
	}

	header, err = s.repo.Delete(ctx, id)
	if err != nil {
		return domain.Order{}, fmt.Errorf("delete order %d: %w", id, err)
	}

	s.logger.WithField("order_id", id).Info("order deleted")
	s.publish(ctx, domain.OrderEventDeleted, header)
	return header, nil
}

// Get возвращает заказ с позициями, присоединёнными к товарам.
func (s *Service) Get(ctx context.Context, id int64) (order domain.Order, err error) {
	defer func() { s.metrics.RecordOperation(opGet, resultOf(err)) }()

	return s.load(ctx, id)
}

// load читает заказ из репозитория без учёта в метриках операций.
func (s *Service) load(ctx context.Context, id int64) (domain.Order, error) {
	if err := checkID(id); err != nil {
		return domain.Order{}, err
	}

	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Order{}, fmt.Errorf("get order %d: %w", id, err)
	}
	return order, nil
}

// List возвращает все заказы, новые первыми.
func (s *Service) List(ctx context.Context) (orders []domain.Order, err error) {
	defer func() { s.metrics.RecordOperation(opList, resultOf(err)) }()

	orders, err = s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// Receipt кодирует сохранённый заказ, не обращаясь к принтеру.
func (s *Service) Receipt(ctx context.Context, id int64) (data []byte, err error) {
	defer func() { s.metrics.RecordOperation(opReceipt, resultOf(err)) }()

	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.encoder.Encode(order), nil
}

// Print загружает заказ, кодирует чек и пишет его на принтер.
// Если заказа нет, принтер не вызывается. Ошибка принтера не трогает сохранённый заказ.
func (s *Service) Print(ctx context.Context, id int64) (result PrintResult, err error) {
	defer func() { s.metrics.RecordOperation(opPrint, resultOf(err)) }()

	order, err := s.load(ctx, id)
	if err != nil {
		return PrintResult{}, err
	}

	data := s.encoder.Encode(order)
	logger := s.logger.WithFields(log.Fields{
		"order_id":  id,
		"print_job": uuid.NewString(),
		"device":    s.printer.Path(),
		"bytes":     len(data),
	})

	started := time.Now()
	werr := s.printer.Write(ctx, data)
	elapsed := time.Since(started)
	if werr != nil {
		s.metrics.RecordPrint(metrics.ResultError, len(data), elapsed)
		logger.WithError(werr).Error("receipt print failed")
		if !errors.Is(werr, domain.ErrTransportFailure) {
			werr = fmt.Errorf("%w: %w", domain.ErrTransportFailure, werr)
		}
		return PrintResult{}, fmt.Errorf("print order %d: %w", id, werr)
	}
	s.metrics.RecordPrint(metrics.ResultOK, len(data), elapsed)

	logger.WithField("duration", elapsed).Info("receipt printed")
	s.publish(ctx, domain.OrderEventPrinted, order)
	return PrintResult{
		Printed:    true,
		DevicePath: s.printer.Path(),
		OrderID:    id,
	}, nil
}

// publish отправляет событие после успешной операции. Ошибка только логируется.
func (s *Service) publish(ctx context.Context, eventType domain.OrderEventType, order domain.Order) {
	if s.events == nil {
		return
	}
	event := domain.NewOrderEvent(eventType, order, s.now())
	if err := s.events.Publish(ctx, event); err != nil {
		s.metrics.RecordPublishFailed()
		s.logger.WithError(err).WithFields(log.Fields{
			"order_id":   order.ID,
			"event_type": eventType,
		}).Warn("failed to publish order event")
	}
}

func checkID(id int64) error {
	if id <= 0 {
		return domain.ErrInvalidID
	}
	return nil
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return metrics.ResultOK
	case errors.Is(err, domain.ErrOrderNotFound):
		return metrics.ResultNotFound
	case errors.Is(err, domain.ErrValidationFailed),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrUnknownItemVariant):
		return metrics.ResultInvalid
	default:
		return metrics.ResultError
	}
}
